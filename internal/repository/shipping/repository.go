package shipping

import (
	"context"
	"time"
)

// Rate is the flat shipping charge for one postal code.
type Rate struct {
	PostalCode  string    `json:"postalCode"`
	ChargeCents int64     `json:"chargeCents"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Repository interface {
	Get(ctx context.Context, postalCode string) (*Rate, error)
	Upsert(ctx context.Context, rate Rate) (*Rate, error)
	Delete(ctx context.Context, postalCode string) error
	List(ctx context.Context) ([]Rate, error)
}
