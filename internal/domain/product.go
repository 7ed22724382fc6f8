package domain

import "time"

// Product is the catalog view this core consumes: live price, stock and status.
type Product struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"priceCents"`
	Stock      int       `json:"stock"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Orderable reports whether the product may appear on a new order.
func (p *Product) Orderable() bool {
	return p != nil && p.Active
}
