package promotion

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Type enumerates the supported promotion discount strategies.
type Type string

const (
	// TypePercentage discounts a percentage of the cart subtotal.
	TypePercentage Type = "PERCENTAGE"
	// TypeFixedAmount discounts a fixed monetary amount.
	TypeFixedAmount Type = "FIXED_AMOUNT"
)

// Promotion is a time-boxed, conditionally applicable discount rule.
// The core treats promotions as read-only: creation, activation, expiry and
// usage accounting belong to the surrounding service.
type Promotion struct {
	ID            string
	Name          string
	Description   string
	Type          Type
	Value         decimal.Decimal
	// MaxDiscount caps the computed discount. Zero means no cap.
	MaxDiscount decimal.Decimal
	// MinPurchase is the minimum subtotal required to qualify. Zero means
	// no minimum.
	MinPurchase   decimal.Decimal
	StartsAt      time.Time
	EndsAt        time.Time
	QuantityLimit int
	QuantityUsed  int
	Status        string
}

// Repository provides read access to promotions. The active query applies
// the time-window, status and quantity-limit filters server-side.
type Repository interface {
	ListActive(ctx context.Context, page, size int) ([]Promotion, error)
}
