package httpserver

import (
	"context"
	"io"
	"log"
	"time"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"
	shippingrepo "storefront/internal/repository/shipping"
	"storefront/internal/service/anonymous"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	"storefront/internal/service/reorder"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubGuestService struct {
	tokens map[string]string
}

func (s *stubGuestService) Issue(_ context.Context) (*anonymous.Issued, error) {
	return &anonymous.Issued{Token: "tok-new", GuestID: "g-new", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubGuestService) LookupByToken(_ context.Context, token string) (string, error) {
	if id, ok := s.tokens[token]; ok {
		return id, nil
	}
	return "", anonymous.ErrInvalidToken
}

type stubCartService struct {
	lastOwner  domain.OwnerKey
	lastSource domain.OwnerKey
	addErr     error
}

func (s *stubCartService) cart(owner domain.OwnerKey) *domain.Cart {
	s.lastOwner = owner
	return &domain.Cart{OwnerKey: owner, Items: []domain.CartItem{}}
}

func (s *stubCartService) Get(_ context.Context, owner domain.OwnerKey) (*domain.Cart, error) {
	return s.cart(owner), nil
}

func (s *stubCartService) AddItem(_ context.Context, owner domain.OwnerKey, productID string, qty int) (*domain.Cart, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	cart := s.cart(owner)
	if err := cart.Add(domain.CartItem{ProductID: productID, Quantity: qty}); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *stubCartService) SetQuantity(_ context.Context, owner domain.OwnerKey, _ string, _ int) (*domain.Cart, error) {
	return s.cart(owner), nil
}

func (s *stubCartService) RemoveItem(_ context.Context, owner domain.OwnerKey, productID string) (*domain.Cart, error) {
	return nil, &domain.NotFoundError{Kind: "cart item", ID: productID}
}

func (s *stubCartService) Clear(_ context.Context, owner domain.OwnerKey) (*domain.Cart, error) {
	return s.cart(owner), nil
}

func (s *stubCartService) MergeInto(_ context.Context, target, source domain.OwnerKey) (*domain.Cart, error) {
	s.lastSource = source
	return s.cart(target), nil
}

type stubOrderService struct {
	orders        map[string]*domain.Order
	createErr     error
	transitionErr error
	lastPOS       ordersvc.POSOrderInput
	lastCart      ordersvc.CartOrderInput
	lastFilter    orderrepo.ListFilter
	lastActor     string
}

func (s *stubOrderService) CreateFromCart(_ context.Context, in ordersvc.CartOrderInput) (*domain.Order, error) {
	s.lastCart = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Order{ID: "o-new", CustomerRef: ordersvc.CustomerRefFor(in.Owner), Status: domain.OrderStatusPending}, nil
}

func (s *stubOrderService) CreateFromAdHocItems(_ context.Context, in ordersvc.POSOrderInput) (*domain.Order, error) {
	s.lastPOS = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Order{ID: "o-pos", Source: domain.OrderSourcePOS, Status: domain.OrderStatusPending}, nil
}

func (s *stubOrderService) Get(_ context.Context, id string) (*domain.Order, error) {
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, &domain.NotFoundError{Kind: "order", ID: id}
}

func (s *stubOrderService) ListActivity(_ context.Context, id string) ([]domain.ActivityEntry, error) {
	return []domain.ActivityEntry{{OrderID: id, Action: domain.ActivityCreated}}, nil
}

func (s *stubOrderService) List(_ context.Context, filter orderrepo.ListFilter) ([]domain.Order, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubOrderService) Transition(_ context.Context, id string, to domain.OrderStatus, performedBy, _ string) (*domain.Order, error) {
	s.lastActor = performedBy
	if s.transitionErr != nil {
		return nil, s.transitionErr
	}
	return &domain.Order{ID: id, Status: to}, nil
}

func (s *stubOrderService) UpdateNotes(_ context.Context, id, notes, performedBy string) (*domain.Order, error) {
	s.lastActor = performedBy
	return &domain.Order{ID: id, Notes: notes}, nil
}

type stubReorderService struct {
	target domain.OwnerKey
}

func (s *stubReorderService) ReorderFrom(_ context.Context, o *domain.Order, target domain.OwnerKey) (*reorder.Result, error) {
	s.target = target
	return &reorder.Result{
		Cart:    &domain.Cart{OwnerKey: target},
		Skipped: []reorder.SkippedLine{{ProductID: "gone", Reason: reorder.ReasonUnavailable}},
	}, nil
}

type stubShippingService struct {
	rates map[string]int64
}

func (s *stubShippingService) Resolve(_ context.Context, postalCode string) (int64, error) {
	return s.rates[postalCode], nil
}

func (s *stubShippingService) SetRate(_ context.Context, postalCode string, cents int64) (*shippingrepo.Rate, error) {
	if cents < 0 {
		return nil, domain.Invalid("chargeCents", "must not be negative")
	}
	return &shippingrepo.Rate{PostalCode: postalCode, ChargeCents: cents}, nil
}

func (s *stubShippingService) DeleteRate(_ context.Context, _ string) error {
	return nil
}

func (s *stubShippingService) ListRates(_ context.Context) ([]shippingrepo.Rate, error) {
	return []shippingrepo.Rate{}, nil
}

type stubCustomerService struct {
	customer *domain.Customer
}

func (s *stubCustomerService) Resolve(_ context.Context, _ customersvc.Identity) (*domain.Customer, error) {
	return s.customer, nil
}

func (s *stubCustomerService) ResolveOrCreate(_ context.Context, in customersvc.Identity) (*domain.Customer, error) {
	if s.customer != nil {
		return s.customer, nil
	}
	return &domain.Customer{ID: "c-new", Email: in.Email}, nil
}

type stubProductService struct{}

func (s *stubProductService) List(_ context.Context) ([]domain.Product, error) {
	return []domain.Product{{ID: "p1", Name: "Mug", PriceCents: 900, Stock: 3, Active: true}}, nil
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	return nil, &domain.NotFoundError{Kind: "product", ID: id}
}

type testDeps struct {
	Deps
	guests   *stubGuestService
	carts    *stubCartService
	orders   *stubOrderService
	reorders *stubReorderService
}

func newTestDeps() testDeps {
	td := testDeps{
		guests:   &stubGuestService{tokens: map[string]string{"guest-tok": "g1"}},
		carts:    &stubCartService{},
		orders:   &stubOrderService{orders: map[string]*domain.Order{}},
		reorders: &stubReorderService{},
	}
	td.Deps = Deps{
		GuestSvc:    td.guests,
		CartSvc:     td.carts,
		OrderSvc:    td.orders,
		ReorderSvc:  td.reorders,
		ShippingSvc: &stubShippingService{rates: map[string]int64{"10115": 499}},
		CustomerSvc: &stubCustomerService{},
		ProductSvc:  &stubProductService{},
	}
	return td
}
