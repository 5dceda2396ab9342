package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a customer order. Totals always satisfy
// Total = Subtotal + ShippingFee + Tax - Discount, floored at zero.
// Orders are never deleted; terminal states are DELIVERED and CANCELLED.
type Order struct {
	ID            string
	CustomerID    string
	Items         []Item
	Address       Address
	Subtotal      decimal.Decimal
	ShippingFee   decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Status        Status
	PaymentMethod string
	PaymentStatus string
	PromotionID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Item is a single order line. UnitPrice is snapshotted at order time and
// never changes afterwards, even if the catalog price does.
type Item struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Address is the delivery address captured at checkout. It is copied onto the
// shipment when the order enters the shipping phase, so later address-book
// edits never redirect an in-flight delivery.
type Address struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	Province string `json:"province,omitempty"`
}

// Repository defines persistence operations for orders.
//
// UpdateStatus is a compare-and-swap on the status column: the write applies
// only if the persisted status still equals expected, and returns ErrConflict
// otherwise. This is what keeps two concurrent actors from racing an order
// into an inconsistent state.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, expected, next Status) error
}
