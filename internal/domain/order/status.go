package order

import "strings"

// Status is the coarse-grained lifecycle stage of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipping   Status = "SHIPPING"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"

	// StatusUnknown is the explicit result of parsing an unrecognized
	// upstream spelling. It is never a valid transition target.
	StatusUnknown Status = "UNKNOWN"
)

// ParseStatus canonicalizes an upstream status spelling into the closed
// Status set. Matching is case-insensitive and tolerates the historical
// "CANCELED" spelling. Unrecognized input maps to StatusUnknown rather than
// falling through silently.
func ParseStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return StatusPending
	case "PROCESSING", "CONFIRMED":
		return StatusProcessing
	case "SHIPPING", "SHIPPED":
		return StatusShipping
	case "DELIVERED":
		return StatusDelivered
	case "CANCELLED", "CANCELED":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// String implements fmt.Stringer for logging.
func (s Status) String() string {
	return string(s)
}
