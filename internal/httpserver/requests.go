package httpserver

import (
	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
)

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type mergeCartRequest struct {
	GuestToken string `json:"guestToken"`
}

type createOrderRequest struct {
	ShippingAddress domain.Address  `json:"shippingAddress"`
	BillingAddress  *domain.Address `json:"billingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	TaxCents        int64           `json:"taxCents"`
	Notes           string          `json:"notes"`
}

type posOrderRequest struct {
	Customer              customersvc.Identity   `json:"customer"`
	Items                 []ordersvc.ItemRequest `json:"items"`
	ShippingAddress       domain.Address         `json:"shippingAddress"`
	BillingAddress        *domain.Address        `json:"billingAddress"`
	PaymentMethod         string                 `json:"paymentMethod"`
	TaxCents              int64                  `json:"taxCents"`
	ShippingOverrideCents *int64                 `json:"shippingOverrideCents"`
	Notes                 string                 `json:"notes"`
}

type transitionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type shippingRateRequest struct {
	ChargeCents *int64 `json:"chargeCents"`
}

type shippingQuoteResponse struct {
	PostalCode  string `json:"postalCode"`
	ChargeCents int64  `json:"chargeCents"`
}

type guestTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	GuestID     string `json:"guestId"`
	ExpiresIn   int    `json:"expires_in"`
}
