package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusApproved   OrderStatus = "approved"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusApproved, OrderStatusCancelled},
	OrderStatusApproved:   {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// ParseOrderStatus returns the status named by s or false if unknown.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusApproved, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

// Terminal statuses accept no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether to is directly reachable from s.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns an InvalidTransitionError when from -> to is not allowed.
func CheckTransition(from, to OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

type OrderSource string

const (
	OrderSourceCart OrderSource = "cart"
	OrderSourcePOS  OrderSource = "pos"
)

type OrderLine struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
	LineTotalCents int64  `json:"lineTotalCents"`
}

type Order struct {
	ID                 string         `json:"id"`
	OrderNumber        string         `json:"orderNumber"`
	CustomerRef        string         `json:"customerRef"`
	OwnerKey           OwnerKey       `json:"ownerKey,omitempty"`
	Items              []OrderLine    `json:"items"`
	SubtotalCents      int64          `json:"subtotalCents"`
	TaxCents           int64          `json:"taxCents"`
	ShippingCents      int64          `json:"shippingCents"`
	TotalCents         int64          `json:"totalCents"`
	Status             OrderStatus    `json:"status"`
	ShippingAddress    Address        `json:"shippingAddress"`
	BillingAddress     Address        `json:"billingAddress"`
	PaymentMethodLabel string         `json:"paymentMethod"`
	Notes              string         `json:"notes,omitempty"`
	Source             OrderSource    `json:"source"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	StatusHistory      []StatusChange `json:"statusHistory,omitempty"`
}

// StatusChange is one step of an order's status history.
type StatusChange struct {
	From        *OrderStatus `json:"from,omitempty"`
	To          OrderStatus  `json:"to"`
	PerformedBy string       `json:"performedBy"`
	At          time.Time    `json:"at"`
}

// NewOrderLine computes the line total from unit price and quantity.
func NewOrderLine(productID, name string, unitPrice int64, qty int) OrderLine {
	return OrderLine{
		ProductID:      productID,
		Name:           name,
		UnitPriceCents: unitPrice,
		Quantity:       qty,
		LineTotalCents: unitPrice * int64(qty),
	}
}

// ApplyTotals recomputes subtotal and total from the lines, tax and shipping.
func (o *Order) ApplyTotals(tax, shipping int64) {
	var subtotal int64
	for _, line := range o.Items {
		subtotal += line.LineTotalCents
	}
	o.SubtotalCents = subtotal
	o.TaxCents = tax
	o.ShippingCents = shipping
	o.TotalCents = subtotal + tax + shipping
}

// Balanced reports whether the stored totals satisfy the order invariants.
func (o *Order) Balanced() bool {
	var subtotal int64
	for _, line := range o.Items {
		if line.LineTotalCents != line.UnitPriceCents*int64(line.Quantity) {
			return false
		}
		subtotal += line.LineTotalCents
	}
	return subtotal == o.SubtotalCents && o.TotalCents == o.SubtotalCents+o.TaxCents+o.ShippingCents
}
