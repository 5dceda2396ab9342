// Package shipment tracks the physical-delivery sub-state of a shipped
// order: a finer-grained state machine driven by the shipper role, with an
// append-only tracking history.
package shipment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// FailureReason explains a failed delivery attempt.
type FailureReason string

const (
	FailureCustomerNotAvailable FailureReason = "CUSTOMER_NOT_AVAILABLE"
	FailureWrongAddress         FailureReason = "WRONG_ADDRESS"
	FailureRefused              FailureReason = "REFUSED"
	FailureOther                FailureReason = "OTHER"
)

// Valid reports whether r is one of the accepted failure reasons.
func (r FailureReason) Valid() bool {
	switch r {
	case FailureCustomerNotAvailable, FailureWrongAddress, FailureRefused, FailureOther:
		return true
	}
	return false
}

// Address is the delivery address snapshot taken when the shipment is
// created. Later address-book edits never affect an in-flight shipment.
type Address struct {
	Name     string
	Phone    string
	Street   string
	Ward     string
	District string
	Province string
}

// Event is one immutable entry in a shipment's tracking history.
type Event struct {
	Status        Status
	Location      string
	Description   string
	FailureReason FailureReason
	OccurredAt    time.Time
}

// Shipment is the delivery record attached to an order once it enters the
// shipping phase. One shipment per order.
type Shipment struct {
	ID             string
	OrderID        string
	Status         Status
	TrackingNumber string
	CODAmount      decimal.Decimal
	Address        Address
	FailureReason  FailureReason
	History        []Event
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository defines persistence operations for shipments.
//
// UpdateStatus is a compare-and-swap: the write applies only if the persisted
// status still equals expected, appending ev to the history in the same
// statement; otherwise it returns order.ErrConflict.
type Repository interface {
	Create(ctx context.Context, s *Shipment) error
	GetByID(ctx context.Context, id string) (*Shipment, error)
	UpdateStatus(ctx context.Context, id string, expected, next Status, ev Event) error
}
