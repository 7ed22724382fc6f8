package order

import (
	"context"
	"strings"

	"storefront/internal/domain"
)

func lockKey(orderID string) string {
	return "order:" + orderID
}

// Transition moves an order to status to. Callers for the same order are
// serialized, and the repository rejects the write if the status changed
// underneath it.
func (s *Service) Transition(ctx context.Context, id string, to domain.OrderStatus, performedBy, notes string) (*domain.Order, error) {
	if _, ok := domain.ParseOrderStatus(string(to)); !ok {
		return nil, domain.Invalid("status", "unknown order status")
	}
	performedBy = strings.TrimSpace(performedBy)
	if performedBy == "" {
		return nil, domain.Invalid("performedBy", "required")
	}

	release, err := s.locks.Lock(ctx, lockKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := current.Status
	if err := domain.CheckTransition(from, to); err != nil {
		return nil, err
	}

	updated, err := s.orders.TransitionStatus(ctx, id, from, to, domain.ActivityEntry{
		ID:          s.newID(),
		Action:      domain.ActivityStatusChanged,
		PerformedBy: performedBy,
		Notes:       strings.TrimSpace(notes),
		Timestamp:   s.clock(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order service: transition id=%s from=%s to=%s by=%s", id, from, to, performedBy)

	s.publish(ctx, "status changed", updated, func(e Events) error {
		return e.OrderStatusChanged(ctx, updated, from, performedBy)
	})
	if from == domain.OrderStatusPending {
		s.publish(ctx, "invoice requested", updated, func(e Events) error {
			return e.InvoiceRequested(ctx, updated)
		})
	}
	return updated, nil
}

// UpdateNotes replaces the order notes and records who changed them.
func (s *Service) UpdateNotes(ctx context.Context, id, notes, performedBy string) (*domain.Order, error) {
	performedBy = strings.TrimSpace(performedBy)
	if performedBy == "" {
		return nil, domain.Invalid("performedBy", "required")
	}
	release, err := s.locks.Lock(ctx, lockKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	return s.orders.UpdateNotes(ctx, id, strings.TrimSpace(notes), domain.ActivityEntry{
		ID:          s.newID(),
		Action:      domain.ActivityNotesUpdated,
		PerformedBy: performedBy,
		Timestamp:   s.clock(),
	})
}
