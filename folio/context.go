package folio

import "slices"

// DefaultManagerRole is the role allowed to use reason codes that require
// manager approval.
const DefaultManagerRole = "Hospitality Manager"

// Actor is the user performing an operation.
type Actor struct {
	ID    string
	Roles []string
}

// HasRole reports whether the actor holds role.
func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// HotelContext carries the operating hotel company and the acting user into
// every operation. Nothing is resolved from ambient session state.
type HotelContext struct {
	// Company is the operating (hotel) company; it selects per-hotel credit
	// limits and is stamped on stock issues and invoices.
	Company string
	Actor   Actor
	// ManagerRole overrides DefaultManagerRole when set.
	ManagerRole string
}

// IsManager reports whether the actor may approve restricted reason codes.
// Actor roles are trusted as given. The HTTP layer reads them from the
// X-User-Roles header, which only an authenticating gateway may set.
func (hc HotelContext) IsManager() bool {
	role := hc.ManagerRole
	if role == "" {
		role = DefaultManagerRole
	}
	return hc.Actor.HasRole(role)
}

// System returns a context for scheduled jobs acting on behalf of company.
func System(company string) HotelContext {
	return HotelContext{Company: company, Actor: Actor{ID: "system"}}
}
