package product

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
)

type stubRepo struct {
	products map[string]domain.Product
	upserted []domain.Product
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *stubRepo) GetMany(_ context.Context, ids []string) (map[string]domain.Product, error) {
	return nil, nil
}

func (s *stubRepo) ListActive(context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	for _, p := range s.products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepo) DecrementStock(context.Context, string, int) (int, error) {
	return 0, nil
}

func (s *stubRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.upserted = append(s.upserted, p)
	return &p, nil
}

func TestServiceGetHidesInactive(t *testing.T) {
	svc := New(&stubRepo{products: map[string]domain.Product{
		"a": {ID: "a", Active: true},
		"b": {ID: "b", Active: false},
	}})
	if _, err := svc.Get(context.Background(), "a"); err != nil {
		t.Fatalf("Get active: %v", err)
	}
	if _, err := svc.Get(context.Background(), "b"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected inactive product to be hidden, got %v", err)
	}
	list, _ := svc.List(context.Background())
	if len(list) != 1 {
		t.Fatalf("expected one active product, got %d", len(list))
	}
}

func TestServiceUpsertValidation(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo)
	bad := []domain.Product{
		{Name: "x"},
		{SKU: "x"},
		{SKU: "x", Name: "x", PriceCents: -1},
		{SKU: "x", Name: "x", Stock: -1},
	}
	for i, p := range bad {
		if _, err := svc.Upsert(context.Background(), p); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if _, err := svc.Upsert(context.Background(), domain.Product{SKU: "x", Name: "x", PriceCents: 1}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserted))
	}
}
