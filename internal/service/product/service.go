package product

import (
	"context"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

// Service exposes read access to the catalog for shoppers.
type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListActive(ctx)
}

// Get returns an active product; inactive products read as not found.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Orderable() {
		return nil, &domain.NotFoundError{Kind: "product", ID: id}
	}
	return p, nil
}

// Upsert stores a product keyed by SKU.
func (s *Service) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	switch {
	case p.SKU == "":
		return nil, domain.Invalid("sku", "required")
	case p.Name == "":
		return nil, domain.Invalid("name", "required")
	case p.PriceCents < 0:
		return nil, domain.Invalid("priceCents", "must not be negative")
	case p.Stock < 0:
		return nil, domain.Invalid("stock", "must not be negative")
	}
	return s.repo.Upsert(ctx, p)
}
