package shipment

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopcuathuy/marketplace-api/internal/domain/actor"
	"github.com/shopcuathuy/marketplace-api/internal/domain/order"
)

// Sentinel errors for shipment tracking.
var (
	// ErrMissingFailureReason is returned when a shipment is marked FAILED
	// without a reason. Rejected before any write.
	ErrMissingFailureReason = errors.New("failure reason required when marking a shipment failed")
	// ErrNotFound is returned when a shipment does not exist.
	ErrNotFound = errors.New("shipment not found")
)

// OrderAdvancer is the reconciliation hook that pushes the owning order to
// DELIVERED when the shipment reaches its terminal delivered state.
// Implemented by the order service.
type OrderAdvancer interface {
	MarkDelivered(ctx context.Context, orderID string) error
}

// UpdateDetail carries the optional context attached to a status update.
type UpdateDetail struct {
	Location      string
	Description   string
	FailureReason FailureReason
}

// Tracker drives the shipment status state machine.
type Tracker struct {
	shipments Repository
	orders    OrderAdvancer
	now       func() time.Time
}

// NewTracker creates a Tracker with the required dependencies.
func NewTracker(shipments Repository, orders OrderAdvancer) *Tracker {
	return &Tracker{
		shipments: shipments,
		orders:    orders,
		now:       time.Now,
	}
}

// CreateForOrder creates the shipment record for an order entering the
// shipping phase. The tracking number is generated here; the delivery
// address snapshot and COD amount come from the order. Creation is
// idempotent per order: calling it again for an order that already has a
// shipment leaves the existing record in place.
func (t *Tracker) CreateForOrder(ctx context.Context, o *order.Order) error {
	now := t.now()
	s := &Shipment{
		ID:             uuid.New().String(),
		OrderID:        o.ID,
		Status:         StatusPending,
		TrackingNumber: newTrackingNumber(),
		CODAmount:      codAmount(o),
		Address: Address{
			Name:     o.Address.Name,
			Phone:    o.Address.Phone,
			Street:   o.Address.Street,
			Ward:     o.Address.Ward,
			District: o.Address.District,
			Province: o.Address.Province,
		},
		History: []Event{{
			Status:     StatusPending,
			OccurredAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.shipments.Create(ctx, s); err != nil {
		return errors.Wrapf(err, "create shipment for order %s", o.ID)
	}
	return nil
}

// UpdateStatus advances a shipment on behalf of role.
//
// Only shippers and admins may drive the machine. FAILED requires a valid
// failure reason. The write is a compare-and-swap against the status read
// here, with the history entry appended in the same statement. When the
// shipment reaches DELIVERED the owning order is reconciled to DELIVERED;
// that step is idempotent, so a retried terminal notification cannot
// double-apply.
func (t *Tracker) UpdateStatus(ctx context.Context, id string, requested Status, detail UpdateDetail, role actor.Role) (*Shipment, error) {
	if role != actor.RoleShipper && role != actor.RoleAdmin {
		return nil, errors.Wrapf(order.ErrForbidden, "%s may not update shipments", role)
	}
	if requested == StatusUnknown {
		return nil, errors.Wrap(order.ErrInvalidTransition, "unknown shipment status")
	}

	s, err := t.shipments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// A retried request for the status the shipment already has is a no-op;
	// the terminal reconciliation below still runs (guarded) so a redelivered
	// DELIVERED notification converges instead of erroring.
	if s.Status == requested {
		if requested == StatusDelivered {
			if err := t.orders.MarkDelivered(ctx, s.OrderID); err != nil {
				return nil, errors.Wrap(err, "reconcile order status")
			}
		}
		return s, nil
	}

	if requested == StatusFailed {
		if detail.FailureReason == "" {
			return nil, ErrMissingFailureReason
		}
		if !detail.FailureReason.Valid() {
			return nil, errors.Wrapf(ErrMissingFailureReason, "unrecognized reason %q", detail.FailureReason)
		}
	}

	if !CanTransition(s.Status, requested) {
		return nil, errors.Wrapf(order.ErrInvalidTransition, "shipment %s -> %s", s.Status, requested)
	}

	ev := Event{
		Status:      requested,
		Location:    detail.Location,
		Description: detail.Description,
		OccurredAt:  t.now(),
	}
	if requested == StatusFailed {
		ev.FailureReason = detail.FailureReason
	}

	if err := t.shipments.UpdateStatus(ctx, id, s.Status, requested, ev); err != nil {
		return nil, err
	}

	s.Status = requested
	s.History = append(s.History, ev)
	s.UpdatedAt = ev.OccurredAt
	if requested == StatusFailed {
		s.FailureReason = detail.FailureReason
	}

	if requested == StatusDelivered {
		if err := t.orders.MarkDelivered(ctx, s.OrderID); err != nil {
			return nil, errors.Wrap(err, "reconcile order status")
		}
	}

	return s, nil
}

// GetByID returns the shipment with its full tracking history.
func (t *Tracker) GetByID(ctx context.Context, id string) (*Shipment, error) {
	return t.shipments.GetByID(ctx, id)
}

// codAmount is the cash the shipper collects on delivery: the order total
// for cash-on-delivery orders, zero for anything prepaid.
func codAmount(o *order.Order) decimal.Decimal {
	if strings.EqualFold(o.PaymentMethod, "COD") {
		return o.Total
	}
	return decimal.Zero
}

// newTrackingNumber builds an operator-facing tracking code. Uniqueness
// comes from the uuid fragment; the prefix just makes the code recognizable.
func newTrackingNumber() string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "SHP-" + frag[:12]
}
