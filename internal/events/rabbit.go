package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"storefront/internal/domain"
)

const publishTimeout = 3 * time.Second

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher sends events to a durable queue on the default exchange,
// using the event type as the message type.
type RabbitPublisher struct {
	ch    channel
	queue string
	now   func() time.Time
}

// NewRabbitPublisher opens a channel on conn and declares queue.
func NewRabbitPublisher(conn *amqp.Connection, queue string) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare %s: %w", queue, err)
	}
	return newRabbitPublisher(ch, queue), nil
}

func newRabbitPublisher(ch channel, queue string) *RabbitPublisher {
	return &RabbitPublisher{ch: ch, queue: queue, now: func() time.Time { return time.Now().UTC() }}
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) OrderCreated(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, OrderCreatedType, newOrderCreated(o))
}

func (p *RabbitPublisher) OrderStatusChanged(ctx context.Context, o *domain.Order, from domain.OrderStatus, performedBy string) error {
	return p.publish(ctx, OrderStatusChangedType, newStatusChanged(o, from, performedBy))
}

func (p *RabbitPublisher) InvoiceRequested(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, InvoiceRequestedType, newInvoiceRequested(o))
}

func (p *RabbitPublisher) publish(ctx context.Context, eventType string, payload any) error {
	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: p.now(),
		Payload:    payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",      // default exchange
		p.queue, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    env.EventID,
			Type:         eventType,
			Timestamp:    env.OccurredAt,
			Body:         body,
		},
	)
}
