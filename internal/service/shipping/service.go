package shipping

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"
	shippingrepo "storefront/internal/repository/shipping"
)

// Service resolves flat shipping charges by postal code. An unknown postal
// code costs nothing.
type Service struct {
	repo   shippingrepo.Repository
	cache  RateCache
	logger *log.Logger
}

// New builds the resolver. cache may be nil.
func New(repo shippingrepo.Repository, cache RateCache, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// NormalizePostalCode trims and upper-cases a postal code.
func NormalizePostalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve returns the charge in cents for postalCode, or 0 when none is configured.
func (s *Service) Resolve(ctx context.Context, postalCode string) (int64, error) {
	code := NormalizePostalCode(postalCode)
	if code == "" {
		return 0, nil
	}

	if s.cache != nil {
		cents, found, err := s.cache.Get(ctx, code)
		switch {
		case err == nil && found:
			return cents, nil
		case err == nil:
			return 0, nil
		case !errors.Is(err, ErrCacheMiss):
			s.logger.Printf("shipping service: cache get postal_code=%s error=%v", code, err)
		}
	}

	rate, err := s.repo.Get(ctx, code)
	found := true
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return 0, err
		}
		found = false
	}
	var cents int64
	if found {
		cents = rate.ChargeCents
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, code, cents, found); err != nil {
			s.logger.Printf("shipping service: cache set postal_code=%s error=%v", code, err)
		}
	}
	return cents, nil
}

// SetRate creates or replaces the charge for postalCode.
func (s *Service) SetRate(ctx context.Context, postalCode string, cents int64) (*shippingrepo.Rate, error) {
	code := NormalizePostalCode(postalCode)
	if code == "" {
		return nil, domain.Invalid("postalCode", "required")
	}
	if cents < 0 {
		return nil, domain.Invalid("chargeCents", "must not be negative")
	}
	rate, err := s.repo.Upsert(ctx, shippingrepo.Rate{PostalCode: code, ChargeCents: cents})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, code)
	return rate, nil
}

func (s *Service) DeleteRate(ctx context.Context, postalCode string) error {
	code := NormalizePostalCode(postalCode)
	if code == "" {
		return domain.Invalid("postalCode", "required")
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return err
	}
	s.invalidate(ctx, code)
	return nil
}

func (s *Service) ListRates(ctx context.Context) ([]shippingrepo.Rate, error) {
	return s.repo.List(ctx)
}

func (s *Service) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, code); err != nil {
		s.logger.Printf("shipping service: cache delete postal_code=%s error=%v", code, err)
	}
}
