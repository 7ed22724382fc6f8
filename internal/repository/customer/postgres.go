package customer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const customerColumns = `id::text, name, email, phone, default_address, created_at`

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create stores c with a fresh id when c.ID is empty. Email and phone are
// expected to be normalized by the caller.
func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var addrJSON []byte
	if c.DefaultAddress != nil {
		var err error
		if addrJSON, err = json.Marshal(c.DefaultAddress); err != nil {
			return nil, err
		}
	}

	const q = `
INSERT INTO customers (id, name, email, phone, default_address)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + customerColumns
	out, err := r.scanCustomer(r.pool.QueryRow(ctx, q, c.ID, c.Name, nullable(c.Email), nullable(c.Phone), addrJSON))
	if err != nil {
		if db.IsUniqueViolation(err) {
			r.logger.Printf("customer repo: create email=%q phone=%q already exists", c.Email, c.Phone)
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE lower(email) = lower($1)
LIMIT 1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE phone = $1
LIMIT 1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, phone))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE id = $1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		c        domain.Customer
		email    *string
		phone    *string
		addrJSON []byte
	)
	err := row.Scan(&c.ID, &c.Name, &email, &phone, &addrJSON, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if !db.IsUniqueViolation(err) {
			r.logger.Printf("customer repo: scan error=%v", err)
		}
		return nil, err
	}
	if email != nil {
		c.Email = *email
	}
	if phone != nil {
		c.Phone = *phone
	}
	if len(addrJSON) > 0 {
		var addr domain.Address
		if err := json.Unmarshal(addrJSON, &addr); err != nil {
			r.logger.Printf("customer repo: decode address id=%s err=%v", c.ID, err)
			return nil, err
		}
		c.DefaultAddress = &addr
	}
	return &c, nil
}
