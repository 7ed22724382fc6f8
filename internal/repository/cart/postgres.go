package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *postgresRepo) Get(ctx context.Context, owner domain.OwnerKey) (*domain.Cart, error) {
	cart := &domain.Cart{OwnerKey: owner, Items: []domain.CartItem{}}
	err := r.pool.QueryRow(ctx, `SELECT updated_at FROM carts WHERE owner_key = $1`, string(owner)).Scan(&cart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return cart, nil
	}
	if err != nil {
		return nil, err
	}
	items, err := fetchLines(ctx, r.pool, owner)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

func (r *postgresRepo) Mutate(ctx context.Context, owner domain.OwnerKey, fn MutateFunc) (*domain.Cart, error) {
	var out *domain.Cart
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		cart, err := lockCart(ctx, tx, owner)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		if err := saveCart(ctx, tx, cart); err != nil {
			return err
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MutatePair locks both carts in key order so concurrent merges in
// opposite directions cannot deadlock.
func (r *postgresRepo) MutatePair(ctx context.Context, target, source domain.OwnerKey, fn MergeFunc) (*domain.Cart, error) {
	if target == source {
		return nil, domain.Invalid("source", "must differ from target cart")
	}
	var out *domain.Cart
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		first, second := target, source
		if second < first {
			first, second = second, first
		}
		locked := make(map[domain.OwnerKey]*domain.Cart, 2)
		for _, key := range []domain.OwnerKey{first, second} {
			cart, err := lockCart(ctx, tx, key)
			if err != nil {
				return err
			}
			locked[key] = cart
		}
		t, s := locked[target], locked[source]
		if err := fn(t, s); err != nil {
			return err
		}
		if err := saveCart(ctx, tx, s); err != nil {
			return err
		}
		if err := saveCart(ctx, tx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockCart(ctx context.Context, tx pgx.Tx, owner domain.OwnerKey) (*domain.Cart, error) {
	if _, err := tx.Exec(ctx, `INSERT INTO carts (owner_key) VALUES ($1) ON CONFLICT (owner_key) DO NOTHING`, string(owner)); err != nil {
		return nil, err
	}
	cart := &domain.Cart{OwnerKey: owner}
	if err := tx.QueryRow(ctx, `SELECT updated_at FROM carts WHERE owner_key = $1 FOR UPDATE`, string(owner)).Scan(&cart.UpdatedAt); err != nil {
		return nil, err
	}
	items, err := fetchLines(ctx, tx, owner)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

func fetchLines(ctx context.Context, q querier, owner domain.OwnerKey) ([]domain.CartItem, error) {
	rows, err := q.Query(ctx, `
SELECT product_id::text, quantity, unit_price_cents, added_at
FROM cart_lines
WHERE owner_key = $1
ORDER BY added_at, product_id
`, string(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPriceSnapshot, &item.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// saveCart replaces the stored lines with cart.Items.
func saveCart(ctx context.Context, tx pgx.Tx, cart *domain.Cart) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE owner_key = $1`, string(cart.OwnerKey)); err != nil {
		return err
	}
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, item := range cart.Items {
		addedAt := item.AddedAt
		if addedAt.IsZero() {
			addedAt = now
		}
		batch.Queue(`
INSERT INTO cart_lines (owner_key, product_id, quantity, unit_price_cents, added_at)
VALUES ($1, $2, $3, $4, $5)
`, string(cart.OwnerKey), item.ProductID, item.Quantity, item.UnitPriceSnapshot, addedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return tx.QueryRow(ctx, `UPDATE carts SET updated_at = $2 WHERE owner_key = $1 RETURNING updated_at`, string(cart.OwnerKey), now).Scan(&cart.UpdatedAt)
}
