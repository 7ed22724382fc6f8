package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	shippingrepo "storefront/internal/repository/shipping"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type RateWriter interface {
	SetRate(ctx context.Context, postalCode string, cents int64) (*shippingrepo.Rate, error)
}

type rateSeed struct {
	PostalCode  string
	ChargeCents int64
}

var products = []domain.Product{
	{SKU: "SKU-DEMO-TSHIRT", Name: "Demo T-Shirt", PriceCents: 1999, Stock: 50, Active: true},
	{SKU: "SKU-DEMO-MUG", Name: "Demo Mug", PriceCents: 1299, Stock: 25, Active: true},
	{SKU: "SKU-DEMO-POSTER", Name: "Demo Poster", PriceCents: 899, Stock: 3, Active: true},
	{SKU: "SKU-DEMO-RETIRED", Name: "Retired Cap", PriceCents: 1499, Stock: 0, Active: false},
}

var rates = []rateSeed{
	{PostalCode: "10115", ChargeCents: 499},
	{PostalCode: "80331", ChargeCents: 699},
	{PostalCode: "SW1A 1AA", ChargeCents: 1299},
}

// Apply inserts basic seed data for manual testing. It is idempotent: products
// upsert by SKU and rates overwrite by postal code.
func Apply(ctx context.Context, productWriter ProductWriter, rateWriter RateWriter) error {
	for _, p := range products {
		if _, err := productWriter.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}
	for _, r := range rates {
		if _, err := rateWriter.SetRate(ctx, r.PostalCode, r.ChargeCents); err != nil {
			return fmt.Errorf("set shipping rate %s: %w", r.PostalCode, err)
		}
	}
	return nil
}
