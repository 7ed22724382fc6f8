package order

import (
	"context"
	"errors"
	"math"
	"strings"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
)

// ItemRequest is one requested product and quantity.
type ItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartOrderInput places an order from the owner's cart.
type CartOrderInput struct {
	Owner           domain.OwnerKey
	ShippingAddress domain.Address
	// BillingAddress defaults to the shipping address when nil.
	BillingAddress *domain.Address
	PaymentMethod  string
	TaxCents       int64
	Notes          string
	PerformedBy    string
}

// POSOrderInput places a staff order for a walk-in customer.
type POSOrderInput struct {
	Customer        customersvc.Identity
	Items           []ItemRequest
	ShippingAddress domain.Address
	BillingAddress  *domain.Address
	PaymentMethod   string
	TaxCents        int64
	// ShippingOverrideCents replaces the resolved shipping rate when set.
	ShippingOverrideCents *int64
	Notes                 string
	PerformedBy           string
}

type draft struct {
	customerRef   string
	owner         domain.OwnerKey
	lines         []domain.OrderLine
	shipping      domain.Address
	billing       *domain.Address
	paymentMethod string
	taxCents      int64
	shippingCents *int64
	notes         string
	source        domain.OrderSource
	performedBy   string
}

// CreateFromCart converts the owner's cart into a pending order. Prices are
// taken from the live catalog and the cart is emptied once the order is
// stored.
func (s *Service) CreateFromCart(ctx context.Context, in CartOrderInput) (*domain.Order, error) {
	if !in.Owner.Valid() {
		return nil, domain.Invalid("owner", "invalid cart owner")
	}
	if s.carts == nil {
		return nil, errors.New("order service: cart store not configured")
	}
	if err := validateCommon(in.ShippingAddress, in.BillingAddress, in.PaymentMethod, in.TaxCents); err != nil {
		return nil, err
	}

	performedBy := strings.TrimSpace(in.PerformedBy)
	if performedBy == "" {
		performedBy = string(in.Owner)
	}

	var created *domain.Order
	err := s.carts.Checkout(ctx, in.Owner, func(ctx context.Context, cart *domain.Cart) error {
		if len(cart.Items) == 0 {
			return domain.Invalid("items", "cart is empty")
		}
		items := make([]ItemRequest, 0, len(cart.Items))
		for _, it := range cart.Items {
			items = append(items, ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		lines, err := s.priceLines(ctx, items)
		if err != nil {
			return err
		}
		o, err := s.create(ctx, draft{
			customerRef:   CustomerRefFor(in.Owner),
			owner:         in.Owner,
			lines:         lines,
			shipping:      in.ShippingAddress,
			billing:       in.BillingAddress,
			paymentMethod: in.PaymentMethod,
			taxCents:      in.TaxCents,
			notes:         in.Notes,
			source:        domain.OrderSourceCart,
			performedBy:   performedBy,
		})
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "created", created, func(e Events) error { return e.OrderCreated(ctx, created) })
	return created, nil
}

// CreateFromAdHocItems creates a point-of-sale order, resolving or creating
// the customer from the supplied contact data.
func (s *Service) CreateFromAdHocItems(ctx context.Context, in POSOrderInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.Invalid("items", "at least one item required")
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	if err := validateCommon(in.ShippingAddress, in.BillingAddress, in.PaymentMethod, in.TaxCents); err != nil {
		return nil, err
	}
	if in.ShippingOverrideCents != nil && *in.ShippingOverrideCents < 0 {
		return nil, domain.Invalid("shippingOverrideCents", "must not be negative")
	}
	if strings.TrimSpace(in.PerformedBy) == "" {
		return nil, domain.Invalid("performedBy", "required")
	}
	if s.customers == nil {
		return nil, errors.New("order service: customer resolver not configured")
	}

	// Catalog and stock are checked before a customer record can be created.
	lines, err := s.priceLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.ResolveOrCreate(ctx, in.Customer)
	if err != nil {
		return nil, err
	}

	created, err := s.create(ctx, draft{
		customerRef:   customer.ID,
		lines:         lines,
		shipping:      in.ShippingAddress,
		billing:       in.BillingAddress,
		paymentMethod: in.PaymentMethod,
		taxCents:      in.TaxCents,
		shippingCents: in.ShippingOverrideCents,
		notes:         in.Notes,
		source:        domain.OrderSourcePOS,
		performedBy:   strings.TrimSpace(in.PerformedBy),
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "created", created, func(e Events) error { return e.OrderCreated(ctx, created) })
	return created, nil
}

func validateCommon(shipping domain.Address, billing *domain.Address, paymentMethod string, tax int64) error {
	if err := shipping.Validate("shippingAddress"); err != nil {
		return err
	}
	if billing != nil {
		if err := billing.Validate("billingAddress"); err != nil {
			return err
		}
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return domain.Invalid("paymentMethod", "required")
	}
	if tax < 0 {
		return domain.Invalid("taxCents", "must not be negative")
	}
	return nil
}

func validateItems(items []ItemRequest) error {
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return domain.Invalid("items.productId", "required")
		}
		if it.Quantity <= 0 {
			return domain.Invalid("items.quantity", "must be positive")
		}
		if it.Quantity > domain.MaxLineQuantity {
			return domain.Invalid("items.quantity", "too large")
		}
	}
	return nil
}

// consolidate sums repeated products while keeping first-seen order.
func consolidate(items []ItemRequest) []ItemRequest {
	out := make([]ItemRequest, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if i, ok := index[id]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, ItemRequest{ProductID: id, Quantity: it.Quantity})
	}
	return out
}

// priceLines prices every requested product from the live catalog and
// checks it against current stock. Repeated products are summed first.
func (s *Service) priceLines(ctx context.Context, requests []ItemRequest) ([]domain.OrderLine, error) {
	items := consolidate(requests)
	lines := make([]domain.OrderLine, 0, len(items))
	var subtotal int64
	for _, it := range items {
		if it.Quantity > domain.MaxLineQuantity {
			return nil, domain.Invalid("items.quantity", "too large")
		}
		product, err := s.catalog.GetByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.ProductUnavailableError{ProductID: it.ProductID}
			}
			return nil, err
		}
		if !product.Orderable() {
			return nil, &domain.ProductUnavailableError{ProductID: it.ProductID}
		}
		if product.Stock < it.Quantity {
			return nil, &domain.InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity, Available: product.Stock}
		}
		if product.PriceCents > 0 && int64(it.Quantity) > math.MaxInt64/product.PriceCents {
			return nil, domain.Invalid("items", "line total out of range")
		}
		line := domain.NewOrderLine(product.ID, product.Name, product.PriceCents, it.Quantity)
		if line.LineTotalCents > math.MaxInt64-subtotal {
			return nil, domain.Invalid("items", "subtotal out of range")
		}
		subtotal += line.LineTotalCents
		lines = append(lines, line)
	}
	return lines, nil
}

// create hands a priced order to the repository, which decrements stock and
// stores the order in one transaction.
func (s *Service) create(ctx context.Context, d draft) (*domain.Order, error) {
	var shippingCents int64
	if d.shippingCents != nil {
		shippingCents = *d.shippingCents
	} else {
		var err error
		if shippingCents, err = s.shipping.Resolve(ctx, d.shipping.PostalCode); err != nil {
			return nil, err
		}
	}

	billing := d.shipping
	if d.billing != nil {
		billing = *d.billing
	}

	now := s.clock()
	o := &domain.Order{
		ID:                 s.newID(),
		CustomerRef:        d.customerRef,
		OwnerKey:           d.owner,
		Items:              d.lines,
		Status:             domain.OrderStatusPending,
		ShippingAddress:    d.shipping,
		BillingAddress:     billing,
		PaymentMethodLabel: strings.TrimSpace(d.paymentMethod),
		Notes:              strings.TrimSpace(d.notes),
		Source:             d.source,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	o.ApplyTotals(d.taxCents, shippingCents)
	if o.TotalCents < o.SubtotalCents {
		return nil, domain.Invalid("taxCents", "total out of range")
	}

	created, err := s.orders.Create(ctx, o, domain.ActivityEntry{
		ID:          s.newID(),
		Action:      domain.ActivityCreated,
		ToStatus:    domain.StatusPtr(domain.OrderStatusPending),
		PerformedBy: d.performedBy,
		Timestamp:   now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order service: created id=%s number=%s source=%s total_cents=%d", created.ID, created.OrderNumber, created.Source, created.TotalCents)
	return created, nil
}
