package domain

import "strings"

// Role is the closed set of caller roles.
type Role int

const (
	RoleGuest Role = iota
	RoleCustomer
	RoleStaff
	RoleAdmin
)

// Capability names an operation a role may be allowed to perform.
type Capability int

const (
	CapManageOwnCart Capability = iota
	CapMergeGuestCart
	CapPlaceOrder
	CapViewAnyOrder
	CapTransitionOrder
	CapCreatePOSOrder
	CapManageShippingRates
)

var roleCapabilities = map[Role][]Capability{
	RoleGuest:    {CapManageOwnCart, CapPlaceOrder},
	RoleCustomer: {CapManageOwnCart, CapMergeGuestCart, CapPlaceOrder},
	RoleStaff:    {CapManageOwnCart, CapPlaceOrder, CapViewAnyOrder, CapTransitionOrder, CapCreatePOSOrder},
	RoleAdmin: {
		CapManageOwnCart, CapMergeGuestCart, CapPlaceOrder, CapViewAnyOrder,
		CapTransitionOrder, CapCreatePOSOrder, CapManageShippingRates,
	},
}

// Can reports whether r grants c.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	switch r {
	case RoleGuest:
		return "guest"
	case RoleCustomer:
		return "customer"
	case RoleStaff:
		return "staff"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// ParseRole maps a header value to a Role. Unknown values are rejected.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "customer":
		return RoleCustomer, true
	case "staff":
		return RoleStaff, true
	case "admin":
		return RoleAdmin, true
	}
	return RoleGuest, false
}
