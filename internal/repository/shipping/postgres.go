package shipping

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Get(ctx context.Context, postalCode string) (*Rate, error) {
	var rate Rate
	err := r.pool.QueryRow(ctx, `
SELECT postal_code, charge_cents, updated_at
FROM shipping_rates
WHERE postal_code = $1
`, postalCode).Scan(&rate.PostalCode, &rate.ChargeCents, &rate.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("shipping repo: get postal_code=%s error=%v", postalCode, err)
		return nil, err
	}
	return &rate, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, rate Rate) (*Rate, error) {
	var out Rate
	err := r.pool.QueryRow(ctx, `
INSERT INTO shipping_rates (postal_code, charge_cents)
VALUES ($1, $2)
ON CONFLICT (postal_code) DO UPDATE SET
    charge_cents = EXCLUDED.charge_cents,
    updated_at = now()
RETURNING postal_code, charge_cents, updated_at
`, rate.PostalCode, rate.ChargeCents).Scan(&out.PostalCode, &out.ChargeCents, &out.UpdatedAt)
	if err != nil {
		r.logger.Printf("shipping repo: upsert postal_code=%s error=%v", rate.PostalCode, err)
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, postalCode string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM shipping_rates WHERE postal_code = $1`, postalCode)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context) ([]Rate, error) {
	rows, err := r.pool.Query(ctx, `SELECT postal_code, charge_cents, updated_at FROM shipping_rates ORDER BY postal_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rates := []Rate{}
	for rows.Next() {
		var rate Rate
		if err := rows.Scan(&rate.PostalCode, &rate.ChargeCents, &rate.UpdatedAt); err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}
