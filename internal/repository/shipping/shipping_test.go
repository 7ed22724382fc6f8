package shipping

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/testutil"
)

func TestPostgres_Rates(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Postgres(t)
	repo := NewPostgres(pool, nil)

	if _, err := repo.Get(ctx, "12345"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.Upsert(ctx, Rate{PostalCode: "12345", ChargeCents: 500}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	updated, err := repo.Upsert(ctx, Rate{PostalCode: "12345", ChargeCents: 750})
	if err != nil || updated.ChargeCents != 750 {
		t.Fatalf("Upsert update: %+v %v", updated, err)
	}
	if _, err := repo.Upsert(ctx, Rate{PostalCode: "00001", ChargeCents: 0}); err != nil {
		t.Fatalf("Upsert zero: %v", err)
	}

	rates, err := repo.List(ctx)
	if err != nil || len(rates) != 2 || rates[0].PostalCode != "00001" {
		t.Fatalf("List: %+v %v", rates, err)
	}

	if err := repo.Delete(ctx, "12345"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "12345"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
