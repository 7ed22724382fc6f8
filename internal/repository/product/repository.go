package product

import (
	"context"

	"github.com/jackc/pgx/v5"

	"storefront/internal/domain"
)

// Repository is the catalog and stock ledger gateway.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error)
	ListActive(ctx context.Context) ([]domain.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (int, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// StockLedger decrements stock inside a caller-owned transaction.
type StockLedger interface {
	DecrementStockTx(ctx context.Context, tx pgx.Tx, id string, qty int) (int, error)
}
