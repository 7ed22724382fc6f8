package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxLineQuantity bounds the quantity of a single cart or order line.
const MaxLineQuantity = math.MaxInt32

// OwnerKey identifies the single owner of a cart: a user or a guest session.
type OwnerKey string

const (
	userOwnerPrefix  = "user:"
	guestOwnerPrefix = "guest:"
)

// UserOwner returns the owner key for an authenticated user id.
func UserOwner(userID string) OwnerKey {
	return OwnerKey(userOwnerPrefix + strings.TrimSpace(userID))
}

// GuestOwner returns the owner key for an anonymous guest id.
func GuestOwner(guestID string) OwnerKey {
	return OwnerKey(guestOwnerPrefix + strings.TrimSpace(guestID))
}

func (k OwnerKey) IsGuest() bool { return strings.HasPrefix(string(k), guestOwnerPrefix) }

func (k OwnerKey) IsUser() bool { return strings.HasPrefix(string(k), userOwnerPrefix) }

// UserID returns the user id for user-owned keys and "" otherwise.
func (k OwnerKey) UserID() string {
	if !k.IsUser() {
		return ""
	}
	return strings.TrimPrefix(string(k), userOwnerPrefix)
}

// Valid reports whether the key carries a known prefix and a non-empty id.
func (k OwnerKey) Valid() bool {
	s := string(k)
	switch {
	case strings.HasPrefix(s, userOwnerPrefix):
		return len(s) > len(userOwnerPrefix)
	case strings.HasPrefix(s, guestOwnerPrefix):
		return len(s) > len(guestOwnerPrefix)
	}
	return false
}

type Cart struct {
	OwnerKey  OwnerKey   `json:"ownerKey"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ProductID         string    `json:"productId"`
	Quantity          int       `json:"quantity"`
	UnitPriceSnapshot int64     `json:"unitPriceSnapshotCents"`
	AddedAt           time.Time `json:"addedAt"`
	// AvailableStock is advisory and filled on read; it is never persisted.
	AvailableStock *int `json:"availableStock,omitempty"`
}

// Find returns the index of productID in the cart or -1.
func (c *Cart) Find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add sums qty onto an existing line or appends a new one. The cart is left
// unchanged when the summed quantity would exceed MaxLineQuantity.
func (c *Cart) Add(item CartItem) error {
	idx := c.Find(item.ProductID)
	existing := 0
	if idx >= 0 {
		existing = c.Items[idx].Quantity
	}
	if err := checkLineQuantity(item.ProductID, existing, item.Quantity); err != nil {
		return err
	}
	if idx >= 0 {
		c.Items[idx].Quantity += item.Quantity
		return nil
	}
	c.Items = append(c.Items, item)
	return nil
}

func checkLineQuantity(productID string, existing, add int) error {
	if add > MaxLineQuantity-existing {
		return Invalid("quantity", fmt.Sprintf("line %s would exceed %d", productID, MaxLineQuantity))
	}
	return nil
}

// Remove drops the line for productID and reports whether it existed.
func (c *Cart) Remove(productID string) bool {
	idx := c.Find(productID)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return true
}

// MergeFrom moves every line of src into c, summing quantities of shared products,
// and leaves src empty. Neither cart changes if a summed line would exceed
// MaxLineQuantity.
func (c *Cart) MergeFrom(src *Cart) error {
	for _, item := range src.Items {
		existing := 0
		if idx := c.Find(item.ProductID); idx >= 0 {
			existing = c.Items[idx].Quantity
		}
		if err := checkLineQuantity(item.ProductID, existing, item.Quantity); err != nil {
			return err
		}
	}
	for _, item := range src.Items {
		if err := c.Add(item); err != nil {
			return err
		}
	}
	src.Items = nil
	return nil
}

// Deduct subtracts the quantities of lines from c. Lines that reach zero are
// dropped; quantity beyond what lines names is kept.
func (c *Cart) Deduct(lines []CartItem) {
	for _, line := range lines {
		idx := c.Find(line.ProductID)
		if idx < 0 {
			continue
		}
		c.Items[idx].Quantity -= line.Quantity
		if c.Items[idx].Quantity <= 0 {
			c.Remove(line.ProductID)
		}
	}
}

func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = append([]CartItem(nil), c.Items...)
	return &out
}

func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}
