// Package actor defines the roles that may drive order and shipment
// state changes. Authentication itself happens upstream; handlers receive
// the already-resolved role of the caller.
package actor

import "strings"

// Role identifies the kind of actor requesting a state change.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
	RoleShipper  Role = "SHIPPER"
	RoleAdmin    Role = "ADMIN"
	// RoleSystem is used for internal reconciliation steps (e.g. a shipment
	// reaching its terminal state advancing the owning order). It is never
	// accepted from an external caller.
	RoleSystem Role = "SYSTEM"

	// RoleUnknown is the explicit result of parsing an unrecognized role
	// string. It never matches any transition rule.
	RoleUnknown Role = "UNKNOWN"
)

// Parse canonicalizes an upstream role spelling into the closed Role set.
// Matching is case-insensitive; anything unrecognized maps to RoleUnknown.
func Parse(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CUSTOMER", "USER", "BUYER":
		return RoleCustomer
	case "SELLER":
		return RoleSeller
	case "SHIPPER":
		return RoleShipper
	case "ADMIN":
		return RoleAdmin
	default:
		return RoleUnknown
	}
}

// String implements fmt.Stringer for logging.
func (r Role) String() string {
	return string(r)
}
