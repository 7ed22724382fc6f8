package domain

import (
	"errors"
	"testing"
)

func TestCheckTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusPending, OrderStatusApproved, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusApproved, OrderStatusProcessing, true},
		{OrderStatusApproved, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}
	for _, tc := range cases {
		err := CheckTransition(tc.from, tc.to)
		if tc.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok {
			var invalid *InvalidTransitionError
			if !errors.As(err, &invalid) {
				t.Fatalf("%s -> %s: expected InvalidTransitionError, got %v", tc.from, tc.to, err)
			}
			if invalid.From != tc.from || invalid.To != tc.to {
				t.Fatalf("unexpected error detail %+v", invalid)
			}
		}
	}
}

func TestDeliveredIsTerminal(t *testing.T) {
	all := []OrderStatus{
		OrderStatusPending, OrderStatusApproved, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	}
	for _, to := range all {
		if err := CheckTransition(OrderStatusDelivered, to); err == nil {
			t.Fatalf("delivered -> %s should fail", to)
		}
		if err := CheckTransition(OrderStatusCancelled, to); err == nil {
			t.Fatalf("cancelled -> %s should fail", to)
		}
	}
	if !OrderStatusDelivered.Terminal() || !OrderStatusCancelled.Terminal() || OrderStatusShipped.Terminal() {
		t.Fatalf("unexpected terminal classification")
	}
}

func TestApplyTotals(t *testing.T) {
	o := Order{Items: []OrderLine{
		NewOrderLine("a", "A", 250, 3),
		NewOrderLine("b", "B", 1999, 1),
	}}
	o.ApplyTotals(120, 500)
	if o.SubtotalCents != 2749 {
		t.Fatalf("subtotal = %d", o.SubtotalCents)
	}
	if o.TotalCents != 2749+120+500 {
		t.Fatalf("total = %d", o.TotalCents)
	}
	if !o.Balanced() {
		t.Fatalf("expected balanced order")
	}
	o.TotalCents++
	if o.Balanced() {
		t.Fatalf("tampered total should not balance")
	}
}

func TestStatusHistoryFromActivity(t *testing.T) {
	entries := []ActivityEntry{
		{Action: ActivityCreated, ToStatus: StatusPtr(OrderStatusPending), PerformedBy: "u1"},
		{Action: ActivityNotesUpdated, PerformedBy: "staff"},
		{Action: ActivityStatusChanged, FromStatus: StatusPtr(OrderStatusPending), ToStatus: StatusPtr(OrderStatusApproved), PerformedBy: "staff"},
	}
	history := StatusHistory(entries)
	if len(history) != 2 {
		t.Fatalf("expected 2 status changes, got %d", len(history))
	}
	if history[0].From != nil || history[0].To != OrderStatusPending {
		t.Fatalf("unexpected first change %+v", history[0])
	}
	if *history[1].From != OrderStatusPending || history[1].To != OrderStatusApproved {
		t.Fatalf("unexpected second change %+v", history[1])
	}
}
