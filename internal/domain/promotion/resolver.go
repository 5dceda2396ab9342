package promotion

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Discount is the outcome of resolving a cart subtotal against the active
// promotions. A zero Amount with a nil Promotion means nothing qualified.
type Discount struct {
	Amount    decimal.Decimal
	Promotion *Promotion
}

// Resolve picks the single best-applicable promotion for the given subtotal.
//
// Promotions whose minimum purchase exceeds the subtotal are discarded. For
// the rest the candidate discount is floor(subtotal*value/100) for percentage
// promotions and floor(value) for fixed amounts, clamped to the promotion's
// cap when one is set. The strictly greatest clamped candidate wins; ties
// keep the first promotion encountered, so the result depends on the input
// ordering when amounts collide.
//
// Resolve is pure: it never mutates the promotion slice and carries no usage
// side effects. Usage accounting happens upstream once an order is placed.
// Amounts are floored, never rounded, so a promotion can never discount more
// than its nominal value.
func Resolve(subtotal decimal.Decimal, promos []Promotion) Discount {
	best := Discount{Amount: decimal.Zero}

	for i := range promos {
		p := &promos[i]
		if p.MinPurchase.IsPositive() && p.MinPurchase.GreaterThan(subtotal) {
			continue
		}

		amount := candidate(subtotal, p)
		if p.MaxDiscount.IsPositive() && amount.GreaterThan(p.MaxDiscount) {
			amount = p.MaxDiscount
		}

		if amount.GreaterThan(best.Amount) {
			best = Discount{Amount: amount, Promotion: p}
		}
	}

	return best
}

func candidate(subtotal decimal.Decimal, p *Promotion) decimal.Decimal {
	switch p.Type {
	case TypePercentage:
		return subtotal.Mul(p.Value).Div(hundred).Floor()
	case TypeFixedAmount:
		return p.Value.Floor()
	default:
		// Unknown types contribute nothing rather than failing the cart.
		return decimal.Zero
	}
}
