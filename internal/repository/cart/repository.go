package cart

import (
	"context"

	"storefront/internal/domain"
)

// MutateFunc edits a locked cart in place; returning an error aborts the write.
type MutateFunc func(cart *domain.Cart) error

// MergeFunc edits a locked target and source pair.
type MergeFunc func(target, source *domain.Cart) error

// Repository persists carts keyed by owner. A missing cart reads as empty.
type Repository interface {
	Get(ctx context.Context, owner domain.OwnerKey) (*domain.Cart, error)
	Mutate(ctx context.Context, owner domain.OwnerKey, fn MutateFunc) (*domain.Cart, error)
	MutatePair(ctx context.Context, target, source domain.OwnerKey, fn MergeFunc) (*domain.Cart, error)
}
