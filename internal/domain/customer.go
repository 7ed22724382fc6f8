package domain

import (
	"strings"
	"time"
)

// Address is embedded by value; orders keep a frozen copy.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Validate checks the fields required on an order address.
func (a Address) Validate(field string) error {
	switch {
	case strings.TrimSpace(a.Line1) == "":
		return Invalid(field+".line1", "required")
	case strings.TrimSpace(a.City) == "":
		return Invalid(field+".city", "required")
	case strings.TrimSpace(a.PostalCode) == "":
		return Invalid(field+".postalCode", "required")
	case strings.TrimSpace(a.Country) == "":
		return Invalid(field+".country", "required")
	}
	return nil
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// Customer represents a shopper record; POS may create one inline.
type Customer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	DefaultAddress *Address  `json:"defaultAddress,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
