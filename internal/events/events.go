// Package events publishes order lifecycle notifications after their
// database changes have committed.
package events

import (
	"time"

	"storefront/internal/domain"
)

const (
	OrderCreatedType       = "order.created"
	OrderStatusChangedType = "order.status.changed"
	InvoiceRequestedType   = "invoice.requested"
)

// Envelope is the JSON body of every published message.
type Envelope struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

type OrderLine struct {
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

type OrderCreated struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	CustomerRef string             `json:"customerRef"`
	Source      domain.OrderSource `json:"source"`
	Items       []OrderLine        `json:"items"`
	TotalCents  int64              `json:"totalCents"`
}

type OrderStatusChanged struct {
	OrderID        string             `json:"orderId"`
	OrderNumber    string             `json:"orderNumber"`
	PreviousStatus domain.OrderStatus `json:"previousStatus"`
	CurrentStatus  domain.OrderStatus `json:"currentStatus"`
	PerformedBy    string             `json:"performedBy"`
}

// InvoiceRequested asks the invoice generator to render an invoice for an
// order that has just left pending.
type InvoiceRequested struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	CustomerRef string `json:"customerRef"`
	TotalCents  int64  `json:"totalCents"`
}

func newOrderCreated(o *domain.Order) OrderCreated {
	ev := OrderCreated{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerRef: o.CustomerRef,
		Source:      o.Source,
		TotalCents:  o.TotalCents,
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderLine{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	return ev
}

func newStatusChanged(o *domain.Order, from domain.OrderStatus, performedBy string) OrderStatusChanged {
	return OrderStatusChanged{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		PreviousStatus: from,
		CurrentStatus:  o.Status,
		PerformedBy:    performedBy,
	}
}

func newInvoiceRequested(o *domain.Order) InvoiceRequested {
	return InvoiceRequested{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerRef: o.CustomerRef,
		TotalCents:  o.TotalCents,
	}
}
