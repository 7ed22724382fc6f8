package order

import (
	"context"

	"storefront/internal/domain"
)

// ListFilter narrows order listings. Zero values mean no filter.
type ListFilter struct {
	CustomerRef string
	Status      domain.OrderStatus
	Limit       int
}

// Repository persists orders together with their activity log. Every write
// appends its activity entry in the same transaction as the order change.
type Repository interface {
	// Create assigns the order number, decrements stock for every line and
	// stores the order with its created entry, all or nothing.
	Create(ctx context.Context, order *domain.Order, created domain.ActivityEntry) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	ListActivity(ctx context.Context, orderID string) ([]domain.ActivityEntry, error)
	// TransitionStatus moves the order from one status to another only when
	// it still holds from; otherwise it returns a ConflictError.
	TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, entry domain.ActivityEntry) (*domain.Order, error)
	UpdateNotes(ctx context.Context, id, notes string, entry domain.ActivityEntry) (*domain.Order, error)
}
