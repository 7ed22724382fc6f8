package events

import (
	"context"
	"io"
	"log"

	"storefront/internal/domain"
)

// LogPublisher records events in the application log. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *log.Logger
}

func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) OrderCreated(_ context.Context, o *domain.Order) error {
	p.logger.Printf("events: %s order_id=%s number=%s total_cents=%d", OrderCreatedType, o.ID, o.OrderNumber, o.TotalCents)
	return nil
}

func (p *LogPublisher) OrderStatusChanged(_ context.Context, o *domain.Order, from domain.OrderStatus, performedBy string) error {
	p.logger.Printf("events: %s order_id=%s from=%s to=%s by=%s", OrderStatusChangedType, o.ID, from, o.Status, performedBy)
	return nil
}

func (p *LogPublisher) InvoiceRequested(_ context.Context, o *domain.Order) error {
	p.logger.Printf("events: %s order_id=%s number=%s", InvoiceRequestedType, o.ID, o.OrderNumber)
	return nil
}
