package order

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/platform/keylock"
	orderrepo "storefront/internal/repository/order"
	customersvc "storefront/internal/service/customer"
)

// Events receives order notifications after the change has committed.
type Events interface {
	OrderCreated(ctx context.Context, o *domain.Order) error
	OrderStatusChanged(ctx context.Context, o *domain.Order, from domain.OrderStatus, performedBy string) error
	InvoiceRequested(ctx context.Context, o *domain.Order) error
}

type Catalog interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type ShippingResolver interface {
	Resolve(ctx context.Context, postalCode string) (int64, error)
}

type CustomerResolver interface {
	ResolveOrCreate(ctx context.Context, in customersvc.Identity) (*domain.Customer, error)
}

// CartCheckout runs place against the owner's locked cart and clears it on success.
type CartCheckout interface {
	Checkout(ctx context.Context, owner domain.OwnerKey, place func(ctx context.Context, cart *domain.Cart) error) error
}

// Deps bundles collaborators required to construct the order service.
type Deps struct {
	Orders      orderrepo.Repository
	Catalog     Catalog
	Shipping    ShippingResolver
	Customers   CustomerResolver
	Carts       CartCheckout
	Events      Events
	Locks       *keylock.Locker
	Clock       func() time.Time
	IDGenerator func() string
	Logger      *log.Logger
}

// Service creates orders and drives them through the status machine.
type Service struct {
	orders    orderrepo.Repository
	catalog   Catalog
	shipping  ShippingResolver
	customers CustomerResolver
	carts     CartCheckout
	events    Events
	locks     *keylock.Locker
	clock     func() time.Time
	newID     func() string
	logger    *log.Logger
}

func New(deps Deps) (*Service, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("order service: catalog is required")
	}
	if deps.Shipping == nil {
		return nil, errors.New("order service: shipping resolver is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	locks := deps.Locks
	if locks == nil {
		locks = keylock.New()
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Service{
		orders:    deps.Orders,
		catalog:   deps.Catalog,
		shipping:  deps.Shipping,
		customers: deps.Customers,
		carts:     deps.Carts,
		events:    deps.Events,
		locks:     locks,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// CustomerRefFor is the customer reference recorded on orders placed from
// owner's cart: the user id, or the guest owner key for guests.
func CustomerRefFor(owner domain.OwnerKey) string {
	if owner.IsUser() {
		return owner.UserID()
	}
	return string(owner)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// ListActivity returns the order's activity entries oldest first.
func (s *Service) ListActivity(ctx context.Context, id string) ([]domain.ActivityEntry, error) {
	if _, err := s.orders.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.orders.ListActivity(ctx, id)
}

func (s *Service) List(ctx context.Context, filter orderrepo.ListFilter) ([]domain.Order, error) {
	return s.orders.List(ctx, filter)
}

// publish runs fn against the configured event sink. Failures are logged
// and never undo the committed change.
func (s *Service) publish(ctx context.Context, what string, o *domain.Order, fn func(Events) error) {
	if s.events == nil {
		return
	}
	if err := fn(s.events); err != nil {
		s.logger.Printf("order service: publish %s order_id=%s error=%v", what, o.ID, err)
	}
}
