package domain

import (
	"errors"
	"testing"
)

func quantities(c *Cart) map[string]int {
	out := make(map[string]int, len(c.Items))
	for _, item := range c.Items {
		out[item.ProductID] = item.Quantity
	}
	return out
}

func TestCartMergeFrom(t *testing.T) {
	target := &Cart{OwnerKey: UserOwner("u1"), Items: []CartItem{{ProductID: "A", Quantity: 2}, {ProductID: "B", Quantity: 1}}}
	source := &Cart{OwnerKey: GuestOwner("g1"), Items: []CartItem{{ProductID: "A", Quantity: 3}, {ProductID: "C", Quantity: 4}}}

	target.MergeFrom(source)

	got := quantities(target)
	want := map[string]int{"A": 5, "B": 1, "C": 4}
	if len(got) != len(want) {
		t.Fatalf("unexpected lines %v", got)
	}
	for id, qty := range want {
		if got[id] != qty {
			t.Fatalf("product %s: got %d want %d", id, got[id], qty)
		}
	}
	if len(source.Items) != 0 {
		t.Fatalf("source not emptied: %+v", source.Items)
	}

	target.MergeFrom(source)
	if target.TotalQuantity() != 10 {
		t.Fatalf("merging empty source changed target: %v", quantities(target))
	}
}

func TestCartAddRejectsOverflow(t *testing.T) {
	c := &Cart{Items: []CartItem{{ProductID: "A", Quantity: MaxLineQuantity - 1}}}
	if err := c.Add(CartItem{ProductID: "A", Quantity: 1}); err != nil {
		t.Fatalf("Add up to the limit: %v", err)
	}
	if err := c.Add(CartItem{ProductID: "A", Quantity: 1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if c.Items[0].Quantity != MaxLineQuantity {
		t.Fatalf("rejected add changed the line: %d", c.Items[0].Quantity)
	}
}

func TestCartDeduct(t *testing.T) {
	c := &Cart{Items: []CartItem{{ProductID: "A", Quantity: 5}, {ProductID: "B", Quantity: 1}, {ProductID: "C", Quantity: 3}}}
	c.Deduct([]CartItem{{ProductID: "A", Quantity: 2}, {ProductID: "B", Quantity: 4}, {ProductID: "Z", Quantity: 1}})

	got := quantities(c)
	if len(got) != 2 || got["A"] != 3 || got["C"] != 3 {
		t.Fatalf("unexpected lines %v", got)
	}
}

func TestOwnerKey(t *testing.T) {
	u := UserOwner(" 42 ")
	if !u.IsUser() || u.IsGuest() || u.UserID() != "42" || !u.Valid() {
		t.Fatalf("unexpected user key %q", u)
	}
	g := GuestOwner("abc")
	if !g.IsGuest() || g.UserID() != "" || !g.Valid() {
		t.Fatalf("unexpected guest key %q", g)
	}
	if OwnerKey("user:").Valid() || OwnerKey("other:1").Valid() {
		t.Fatalf("expected invalid keys")
	}
}

func TestRoleCapabilities(t *testing.T) {
	if RoleGuest.Can(CapMergeGuestCart) {
		t.Fatalf("guest must not merge carts")
	}
	if !RoleCustomer.Can(CapMergeGuestCart) || RoleCustomer.Can(CapTransitionOrder) {
		t.Fatalf("unexpected customer capabilities")
	}
	if !RoleStaff.Can(CapCreatePOSOrder) || RoleStaff.Can(CapManageShippingRates) {
		t.Fatalf("unexpected staff capabilities")
	}
	if !RoleAdmin.Can(CapManageShippingRates) {
		t.Fatalf("admin should manage shipping rates")
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatalf("unknown role should not parse")
	}
	if r, ok := ParseRole("ADMIN"); !ok || r != RoleAdmin {
		t.Fatalf("expected admin, got %v", r)
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := NormalizePhone("+1 (555) 010-2030"); got != "15550102030" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeEmail("  Jane@Example.COM "); got != "jane@example.com" {
		t.Fatalf("got %q", got)
	}
}
