package customer

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"
	custrepo "storefront/internal/repository/customer"
)

// Service resolves shoppers by email or phone for point-of-sale orders.
type Service struct {
	repo   custrepo.Repository
	logger *log.Logger
}

func New(repo custrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, logger: logger}
}

// Identity is the contact data a cashier collects at the counter.
type Identity struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
}

func (in Identity) normalized() (email, phone string, err error) {
	email = domain.NormalizeEmail(in.Email)
	phone = domain.NormalizePhone(in.Phone)
	if email == "" && phone == "" {
		return "", "", domain.Invalid("email", "email or phone required")
	}
	if email != "" && !strings.Contains(email, "@") {
		return "", "", domain.Invalid("email", "malformed")
	}
	return email, phone, nil
}

// Resolve returns the customer matching the email, falling back to the
// phone number, or nil when neither matches.
func (s *Service) Resolve(ctx context.Context, in Identity) (*domain.Customer, error) {
	email, phone, err := in.normalized()
	if err != nil {
		return nil, err
	}
	return s.lookup(ctx, email, phone)
}

// ResolveOrCreate returns the matching customer or creates one. A concurrent
// creation of the same customer is resolved by looking it up again.
func (s *Service) ResolveOrCreate(ctx context.Context, in Identity) (*domain.Customer, error) {
	email, phone, err := in.normalized()
	if err != nil {
		return nil, err
	}
	found, err := s.lookup(ctx, email, phone)
	if err != nil || found != nil {
		return found, err
	}

	created, err := s.repo.Create(ctx, domain.Customer{
		Name:  strings.TrimSpace(in.Name),
		Email: email,
		Phone: phone,
	})
	if err == nil {
		s.logger.Printf("customer service: created id=%s", created.ID)
		return created, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return nil, err
	}
	found, err = s.lookup(ctx, email, phone)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, &domain.ConflictError{Kind: "customer", ID: email + phone}
	}
	return found, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.NotFoundError{Kind: "customer", ID: id}
	}
	return c, err
}

func (s *Service) lookup(ctx context.Context, email, phone string) (*domain.Customer, error) {
	if email != "" {
		c, err := s.repo.GetByEmail(ctx, email)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if phone != "" {
		c, err := s.repo.GetByPhone(ctx, phone)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}
