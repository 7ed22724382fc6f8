package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type PostgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) *PostgresRepo {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PostgresRepo{pool: pool, logger: logger}
}

const productColumns = `id::text, sku, name, price_cents, stock, active, created_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.PriceCents, &p.Stock, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.NotFoundError{Kind: "product", ID: id}
	}
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%s not found", id)
			return nil, &domain.NotFoundError{Kind: "product", ID: id}
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

// GetMany returns the products that exist among ids, keyed by id.
func (r *PostgresRepo) GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	out := make(map[string]domain.Product, len(valid))
	if len(valid) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, valid)
	if err != nil {
		r.logger.Printf("product repo: get many count=%d error=%v", len(valid), err)
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE active ORDER BY name, sku`)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()
	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// DecrementStock removes qty units in its own transaction.
func (r *PostgresRepo) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	var remaining int
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		remaining, err = r.DecrementStockTx(ctx, tx, id, qty)
		return err
	})
	return remaining, err
}

// DecrementStockTx is a conditional decrement: it only applies when the
// resulting stock stays non-negative, so the check and the write are one
// statement and cannot race.
func (r *PostgresRepo) DecrementStockTx(ctx context.Context, tx pgx.Tx, id string, qty int) (int, error) {
	if qty <= 0 {
		return 0, domain.Invalid("quantity", "must be positive")
	}
	var remaining int
	err := tx.QueryRow(ctx, `
UPDATE products
SET stock = stock - $2
WHERE id = $1 AND active AND stock >= $2
RETURNING stock
`, id, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("decrement stock %s: %w", id, err)
	}

	var (
		available int
		active    bool
	)
	err = tx.QueryRow(ctx, `SELECT stock, active FROM products WHERE id = $1`, id).Scan(&available, &active)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return 0, &domain.ProductUnavailableError{ProductID: id}
	case err != nil:
		return 0, fmt.Errorf("read stock %s: %w", id, err)
	case !active:
		return 0, &domain.ProductUnavailableError{ProductID: id}
	}
	r.logger.Printf("product repo: decrement id=%s requested=%d available=%d insufficient", id, qty, available)
	return 0, &domain.InsufficientStockError{ProductID: id, Requested: qty, Available: available}
}

func (r *PostgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, sku, name, price_cents, stock, active)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6)
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    stock = EXCLUDED.stock,
    active = EXCLUDED.active
RETURNING ` + productColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q,
		product.ID,
		product.SKU,
		product.Name,
		product.PriceCents,
		product.Stock,
		product.Active,
	))
	if err != nil {
		r.logger.Printf("product repo: upsert sku=%s error=%v", product.SKU, err)
		return nil, err
	}
	if product.ID != "" && p.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for sku=%s existing_id=%s import_id=%s", product.SKU, p.ID, product.ID)
	}
	r.logger.Printf("product repo: upserted sku=%s id=%s", p.SKU, p.ID)
	return p, nil
}
