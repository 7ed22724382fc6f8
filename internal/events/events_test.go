package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:          "order-1",
		OrderNumber: "ORD-20260314-000001",
		CustomerRef: "user:u1",
		Status:      domain.OrderStatusApproved,
		Source:      domain.OrderSourceCart,
		Items:       []domain.OrderLine{domain.NewOrderLine("p1", "P1", 250, 2)},
		TotalCents:  500,
	}
}

func TestRabbitPublisher_Envelopes(t *testing.T) {
	ch := &fakeChannel{}
	p := newRabbitPublisher(ch, "storefront.orders")
	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	ctx := context.Background()
	o := sampleOrder()
	require.NoError(t, p.OrderCreated(ctx, o))
	require.NoError(t, p.OrderStatusChanged(ctx, o, domain.OrderStatusPending, "staff-1"))
	require.NoError(t, p.InvoiceRequested(ctx, o))

	require.Len(t, ch.published, 3)
	assert.Equal(t, []string{"storefront.orders", "storefront.orders", "storefront.orders"}, ch.keys)
	assert.Equal(t, OrderCreatedType, ch.published[0].Type)
	assert.Equal(t, OrderStatusChangedType, ch.published[1].Type)
	assert.Equal(t, InvoiceRequestedType, ch.published[2].Type)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var env struct {
		EventType  string             `json:"eventType"`
		OccurredAt time.Time          `json:"occurredAt"`
		Payload    OrderStatusChanged `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(ch.published[1].Body, &env))
	assert.Equal(t, OrderStatusChangedType, env.EventType)
	assert.True(t, env.OccurredAt.Equal(fixed))
	assert.Equal(t, domain.OrderStatusPending, env.Payload.PreviousStatus)
	assert.Equal(t, domain.OrderStatusApproved, env.Payload.CurrentStatus)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestRabbitPublisher_PropagatesErrors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newRabbitPublisher(ch, "q")
	err := p.OrderCreated(context.Background(), sampleOrder())
	assert.ErrorContains(t, err, "channel closed")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(log.New(&buf, "", 0))
	o := sampleOrder()

	require.NoError(t, p.OrderStatusChanged(context.Background(), o, domain.OrderStatusPending, "staff-1"))
	assert.True(t, strings.Contains(buf.String(), "from=pending to=approved"), buf.String())
}
