package order

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
	"storefront/internal/repository/product"
	"storefront/internal/testutil"
)

func newOrder(lines ...domain.OrderLine) *domain.Order {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	addr := domain.Address{Line1: "1 Main", City: "Springfield", PostalCode: "12345", Country: "US"}
	o := &domain.Order{
		CustomerRef:        "user:u1",
		OwnerKey:           domain.UserOwner("u1"),
		Items:              lines,
		Status:             domain.OrderStatusPending,
		ShippingAddress:    addr,
		BillingAddress:     addr,
		PaymentMethodLabel: "card",
		Source:             domain.OrderSourceCart,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	o.ApplyTotals(100, 500)
	return o
}

func createdEntry() domain.ActivityEntry {
	return domain.ActivityEntry{
		Action:      domain.ActivityCreated,
		ToStatus:    domain.StatusPtr(domain.OrderStatusPending),
		PerformedBy: "u1",
		Timestamp:   time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func stockOf(t *testing.T, pool *pgxpool.Pool, id string) int {
	t.Helper()
	var stock int
	if err := pool.QueryRow(context.Background(), `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return stock
}

func TestPostgres_CreateAssignsNumbersAndDecrementsStock(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Postgres(t)
	repo := NewPostgres(pool, product.NewPostgres(pool, nil), "", nil)

	a := testutil.InsertProduct(t, pool, "SKU-A", "A", 250, 5, true)

	first, err := repo.Create(ctx, newOrder(domain.NewOrderLine(a, "A", 250, 2)), createdEntry())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.OrderNumber != "ORD-20260314-000001" {
		t.Fatalf("unexpected order number %s", first.OrderNumber)
	}
	if !first.Balanced() || first.TotalCents != 500+100+500 {
		t.Fatalf("unbalanced order %+v", first)
	}
	if len(first.StatusHistory) != 1 || first.StatusHistory[0].To != domain.OrderStatusPending {
		t.Fatalf("unexpected history %+v", first.StatusHistory)
	}

	second, err := repo.Create(ctx, newOrder(domain.NewOrderLine(a, "A", 250, 1)), createdEntry())
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if !strings.HasSuffix(second.OrderNumber, "-000002") {
		t.Fatalf("expected second number, got %s", second.OrderNumber)
	}
	if got := stockOf(t, pool, a); got != 2 {
		t.Fatalf("expected stock 2, got %d", got)
	}
}

func TestPostgres_CreateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Postgres(t)
	repo := NewPostgres(pool, product.NewPostgres(pool, nil), "ORD", nil)

	a := testutil.InsertProduct(t, pool, "SKU-A", "A", 100, 5, true)
	b := testutil.InsertProduct(t, pool, "SKU-B", "B", 100, 1, true)

	_, err := repo.Create(ctx, newOrder(
		domain.NewOrderLine(a, "A", 100, 2),
		domain.NewOrderLine(b, "B", 100, 3),
	), createdEntry())
	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) || insufficient.ProductID != b || insufficient.Available != 1 {
		t.Fatalf("expected insufficient stock for B, got %v", err)
	}
	if got := stockOf(t, pool, a); got != 5 {
		t.Fatalf("stock for A must be untouched, got %d", got)
	}

	orders, err := repo.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("no order should exist, got %d", len(orders))
	}
	var activity int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM order_activity`).Scan(&activity); err != nil {
		t.Fatalf("count activity: %v", err)
	}
	if activity != 0 {
		t.Fatalf("no activity should exist, got %d", activity)
	}
}

func TestPostgres_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Postgres(t)
	repo := NewPostgres(pool, product.NewPostgres(pool, nil), "ORD", nil)

	a := testutil.InsertProduct(t, pool, "SKU-A", "A", 100, 5, true)
	created, err := repo.Create(ctx, newOrder(domain.NewOrderLine(a, "A", 100, 1)), createdEntry())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	approved, err := repo.TransitionStatus(ctx, created.ID, domain.OrderStatusPending, domain.OrderStatusApproved,
		domain.ActivityEntry{Action: domain.ActivityStatusChanged, PerformedBy: "staff-1", Timestamp: time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if approved.Status != domain.OrderStatusApproved || len(approved.StatusHistory) != 2 {
		t.Fatalf("unexpected order %+v", approved)
	}

	_, err = repo.TransitionStatus(ctx, created.ID, domain.OrderStatusPending, domain.OrderStatusCancelled,
		domain.ActivityEntry{Action: domain.ActivityStatusChanged, PerformedBy: "staff-2"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on stale status, got %v", err)
	}

	_, err = repo.TransitionStatus(ctx, "6f1c4d1e-0000-4000-8000-000000000000", domain.OrderStatusPending, domain.OrderStatusApproved,
		domain.ActivityEntry{Action: domain.ActivityStatusChanged, PerformedBy: "staff-1"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	noted, err := repo.UpdateNotes(ctx, created.ID, "fragile", domain.ActivityEntry{Action: domain.ActivityNotesUpdated, PerformedBy: "staff-1", Timestamp: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)})
	if err != nil || noted.Notes != "fragile" {
		t.Fatalf("UpdateNotes: %+v %v", noted, err)
	}

	activity, err := repo.ListActivity(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	actions := []string{}
	for _, e := range activity {
		actions = append(actions, e.Action)
	}
	want := []string{domain.ActivityCreated, domain.ActivityStatusChanged, domain.ActivityNotesUpdated}
	if strings.Join(actions, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected activity order %v", actions)
	}

	byStatus, err := repo.List(ctx, ListFilter{Status: domain.OrderStatusApproved})
	if err != nil || len(byStatus) != 1 || len(byStatus[0].Items) != 1 {
		t.Fatalf("List by status: %+v %v", byStatus, err)
	}
	byCustomer, err := repo.List(ctx, ListFilter{CustomerRef: "user:other"})
	if err != nil || len(byCustomer) != 0 {
		t.Fatalf("List by customer: %+v %v", byCustomer, err)
	}
}

func TestPostgres_ActivityFollowsWriteOrderNotClock(t *testing.T) {
	ctx := context.Background()
	pool := testutil.Postgres(t)
	repo := NewPostgres(pool, product.NewPostgres(pool, nil), "ORD", nil)

	a := testutil.InsertProduct(t, pool, "SKU-A", "A", 100, 5, true)
	created, err := repo.Create(ctx, newOrder(domain.NewOrderLine(a, "A", 100, 1)), createdEntry())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Written by an instance whose clock runs an hour behind.
	behind := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	if _, err := repo.TransitionStatus(ctx, created.ID, domain.OrderStatusPending, domain.OrderStatusApproved,
		domain.ActivityEntry{Action: domain.ActivityStatusChanged, PerformedBy: "staff-1", Timestamp: behind}); err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.StatusHistory) != 2 {
		t.Fatalf("unexpected history %+v", got.StatusHistory)
	}
	if got.StatusHistory[0].To != domain.OrderStatusPending || got.StatusHistory[1].To != domain.OrderStatusApproved {
		t.Fatalf("history out of write order: %+v", got.StatusHistory)
	}
}
