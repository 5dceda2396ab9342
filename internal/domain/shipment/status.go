package shipment

import "strings"

// Status is the physical-delivery sub-state of a shipment.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusReadyForPickup Status = "READY_FOR_PICKUP"
	StatusPickedUp       Status = "PICKED_UP"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusFailed         Status = "FAILED"
	StatusReturned       Status = "RETURNED"

	// StatusUnknown is the explicit result of parsing an unrecognized
	// upstream spelling.
	StatusUnknown Status = "UNKNOWN"
)

// next is the forward-only transition table. DELIVERED and RETURNED are
// terminal; FAILED may still move to RETURNED.
var next = map[Status][]Status{
	StatusPending:        {StatusReadyForPickup},
	StatusReadyForPickup: {StatusPickedUp},
	StatusPickedUp:       {StatusInTransit},
	StatusInTransit:      {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered, StatusFailed},
	StatusFailed:         {StatusReturned},
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to Status) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusReturned
}

// ParseStatus canonicalizes an upstream status spelling into the closed
// Status set. Carriers disagree on separators ("PICKED UP", "picked_up"),
// so matching normalizes spaces and dashes to underscores.
func ParseStatus(s string) Status {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	norm = strings.ReplaceAll(norm, "-", "_")

	switch norm {
	case "PENDING":
		return StatusPending
	case "READY_FOR_PICKUP", "READY":
		return StatusReadyForPickup
	case "PICKED_UP":
		return StatusPickedUp
	case "IN_TRANSIT":
		return StatusInTransit
	case "OUT_FOR_DELIVERY":
		return StatusOutForDelivery
	case "DELIVERED":
		return StatusDelivered
	case "FAILED":
		return StatusFailed
	case "RETURNED":
		return StatusReturned
	default:
		return StatusUnknown
	}
}

// String implements fmt.Stringer for logging.
func (s Status) String() string {
	return string(s)
}
