package reorder

import (
	"context"
	"errors"
	"io"
	"log"

	"storefront/internal/domain"
)

const (
	ReasonUnavailable = "unavailable"
	ReasonOutOfStock  = "out_of_stock"
)

type orders interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
}

type catalog interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type carts interface {
	AddItem(ctx context.Context, owner domain.OwnerKey, productID string, qty int) (*domain.Cart, error)
	Get(ctx context.Context, owner domain.OwnerKey) (*domain.Cart, error)
}

// SkippedLine is an order line that could not be added back.
type SkippedLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

// ClampedLine is an order line added with less than the ordered quantity.
type ClampedLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Added     int    `json:"added"`
}

type Result struct {
	Cart    *domain.Cart  `json:"cart"`
	Skipped []SkippedLine `json:"skipped"`
	Clamped []ClampedLine `json:"clamped"`
}

// Service copies the lines of a past order into a cart.
type Service struct {
	orders  orders
	catalog catalog
	carts   carts
	logger  *log.Logger
}

func New(orders orders, catalog catalog, carts carts, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{orders: orders, catalog: catalog, carts: carts, logger: logger}
}

// Reorder loads the order and adds its lines to target's cart.
func (s *Service) Reorder(ctx context.Context, orderID string, target domain.OwnerKey) (*Result, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.ReorderFrom(ctx, o, target)
}

// ReorderFrom adds every still orderable line of o to target's cart,
// clamping each line so the cart holds no more than current stock. Individual
// lines never fail the call: lines for missing, inactive or out of stock
// products, or products the cart already holds all stock of, are reported as
// skipped.
func (s *Service) ReorderFrom(ctx context.Context, o *domain.Order, target domain.OwnerKey) (*Result, error) {
	res := &Result{Skipped: []SkippedLine{}, Clamped: []ClampedLine{}}

	cart, err := s.carts.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	res.Cart = cart

	for _, line := range o.Items {
		product, err := s.catalog.GetByID(ctx, line.ProductID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if err != nil || !product.Orderable() {
			res.Skipped = append(res.Skipped, SkippedLine{ProductID: line.ProductID, Name: line.Name, Reason: ReasonUnavailable})
			continue
		}

		held := 0
		if idx := res.Cart.Find(line.ProductID); idx >= 0 {
			held = res.Cart.Items[idx].Quantity
		}
		remaining := product.Stock - held
		if remaining <= 0 {
			res.Skipped = append(res.Skipped, SkippedLine{ProductID: line.ProductID, Name: line.Name, Reason: ReasonOutOfStock})
			continue
		}

		qty := line.Quantity
		if remaining < qty {
			qty = remaining
		}
		cart, err := s.carts.AddItem(ctx, target, line.ProductID, qty)
		if err != nil {
			var unavailable *domain.ProductUnavailableError
			if errors.Is(err, domain.ErrNotFound) || errors.As(err, &unavailable) {
				res.Skipped = append(res.Skipped, SkippedLine{ProductID: line.ProductID, Name: line.Name, Reason: ReasonUnavailable})
				continue
			}
			return nil, err
		}
		res.Cart = cart
		if qty < line.Quantity {
			res.Clamped = append(res.Clamped, ClampedLine{ProductID: line.ProductID, Name: line.Name, Requested: line.Quantity, Added: qty})
		}
	}

	s.logger.Printf("reorder service: order_id=%s target=%s skipped=%d clamped=%d", o.ID, target, len(res.Skipped), len(res.Clamped))
	return res, nil
}
