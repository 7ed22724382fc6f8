package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/platform/keylock"
	cartrepo "storefront/internal/repository/cart"
)

// Service is the cart store. Mutations for one owner are serialized in
// process by the key locker and across processes by the repository's row
// locks.
type Service struct {
	repo    cartrepo.Repository
	catalog catalog
	locks   *keylock.Locker
	logger  *log.Logger
	now     func() time.Time
}

type catalog interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

func New(repo cartrepo.Repository, catalog catalog, locks *keylock.Locker, logger *log.Logger) *Service {
	if locks == nil {
		locks = keylock.New()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		locks:   locks,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func lockKey(owner domain.OwnerKey) string {
	return "cart:" + string(owner)
}

func validOwner(owner domain.OwnerKey) error {
	if !owner.Valid() {
		return domain.Invalid("owner", "invalid cart owner")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, owner domain.OwnerKey) (*domain.Cart, error) {
	if err := validOwner(owner); err != nil {
		return nil, err
	}
	cart, err := s.repo.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	s.annotate(ctx, cart)
	return cart, nil
}

// AddItem adds qty of an active product, summing onto an existing line.
func (s *Service) AddItem(ctx context.Context, owner domain.OwnerKey, productID string, qty int) (*domain.Cart, error) {
	if err := validOwner(owner); err != nil {
		return nil, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.Invalid("productId", "required")
	}
	if qty <= 0 {
		return nil, domain.Invalid("quantity", "must be positive")
	}
	if qty > domain.MaxLineQuantity {
		return nil, domain.Invalid("quantity", "too large")
	}
	product, err := s.orderable(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, func(c *domain.Cart) error {
		if err := c.Add(domain.CartItem{
			ProductID:         product.ID,
			Quantity:          qty,
			UnitPriceSnapshot: product.PriceCents,
			AddedAt:           s.now(),
		}); err != nil {
			return err
		}
		c.Items[c.Find(product.ID)].UnitPriceSnapshot = product.PriceCents
		return nil
	})
}

// SetQuantity replaces the quantity of an existing line; zero removes it.
func (s *Service) SetQuantity(ctx context.Context, owner domain.OwnerKey, productID string, qty int) (*domain.Cart, error) {
	if err := validOwner(owner); err != nil {
		return nil, err
	}
	if qty < 0 {
		return nil, domain.Invalid("quantity", "must not be negative")
	}
	if qty > domain.MaxLineQuantity {
		return nil, domain.Invalid("quantity", "too large")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, owner, productID)
	}
	return s.mutate(ctx, owner, func(c *domain.Cart) error {
		idx := c.Find(productID)
		if idx < 0 {
			return &domain.NotFoundError{Kind: "cart item", ID: productID}
		}
		c.Items[idx].Quantity = qty
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, owner domain.OwnerKey, productID string) (*domain.Cart, error) {
	if err := validOwner(owner); err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, func(c *domain.Cart) error {
		if !c.Remove(productID) {
			return &domain.NotFoundError{Kind: "cart item", ID: productID}
		}
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, owner domain.OwnerKey) (*domain.Cart, error) {
	if err := validOwner(owner); err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, func(c *domain.Cart) error {
		c.Items = nil
		return nil
	})
}

// MergeInto moves every line of source into target, summing quantities of
// shared products, and leaves source empty. Merging an empty source is a no-op.
func (s *Service) MergeInto(ctx context.Context, target, source domain.OwnerKey) (*domain.Cart, error) {
	if err := validOwner(target); err != nil {
		return nil, err
	}
	if err := validOwner(source); err != nil {
		return nil, err
	}
	if target == source {
		return nil, domain.Invalid("source", "must differ from target cart")
	}
	release, err := s.locks.LockAll(ctx, lockKey(target), lockKey(source))
	if err != nil {
		return nil, err
	}
	defer release()

	merged, err := s.repo.MutatePair(ctx, target, source, func(t, src *domain.Cart) error {
		return t.MergeFrom(src)
	})
	if err != nil {
		s.logger.Printf("cart service: merge target=%s source=%s error=%v", target, source, err)
		return nil, err
	}
	s.annotate(ctx, merged)
	return merged, nil
}

// Checkout holds the owner's cart lock while place runs against a snapshot
// of the cart. When place succeeds the ordered quantities are deducted from
// the cart under its row lock, so lines added or raised by another process
// while the order was placed stay in the cart. A failure to deduct is logged
// and does not fail the checkout.
func (s *Service) Checkout(ctx context.Context, owner domain.OwnerKey, place func(ctx context.Context, cart *domain.Cart) error) error {
	if err := validOwner(owner); err != nil {
		return err
	}
	release, err := s.locks.Lock(ctx, lockKey(owner))
	if err != nil {
		return err
	}
	defer release()

	cart, err := s.repo.Get(ctx, owner)
	if err != nil {
		return err
	}
	ordered := cart.Clone()
	if err := place(ctx, cart.Clone()); err != nil {
		return err
	}
	if _, err := s.repo.Mutate(ctx, owner, func(c *domain.Cart) error {
		c.Deduct(ordered.Items)
		return nil
	}); err != nil {
		s.logger.Printf("cart service: deduct after checkout owner=%s error=%v", owner, err)
	}
	return nil
}

func (s *Service) mutate(ctx context.Context, owner domain.OwnerKey, fn cartrepo.MutateFunc) (*domain.Cart, error) {
	release, err := s.locks.Lock(ctx, lockKey(owner))
	if err != nil {
		return nil, err
	}
	defer release()

	cart, err := s.repo.Mutate(ctx, owner, fn)
	if err != nil {
		return nil, err
	}
	s.annotate(ctx, cart)
	return cart, nil
}

func (s *Service) orderable(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Kind: "product", ID: productID}
		}
		return nil, err
	}
	if !product.Orderable() {
		return nil, &domain.ProductUnavailableError{ProductID: productID}
	}
	return product, nil
}

// annotate fills the advisory available stock of every line. Products that
// are gone or inactive report zero.
func (s *Service) annotate(ctx context.Context, cart *domain.Cart) {
	if len(cart.Items) == 0 {
		return
	}
	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		s.logger.Printf("cart service: stock lookup owner=%s error=%v", cart.OwnerKey, err)
		return
	}
	for i := range cart.Items {
		available := 0
		if p, ok := products[cart.Items[i].ProductID]; ok && p.Orderable() {
			available = p.Stock
		}
		cart.Items[i].AvailableStock = &available
	}
}
