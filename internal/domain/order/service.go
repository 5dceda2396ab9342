package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopcuathuy/marketplace-api/internal/domain/actor"
	"github.com/shopcuathuy/marketplace-api/internal/domain/product"
	"github.com/shopcuathuy/marketplace-api/internal/domain/promotion"
)

// Sentinel errors for order placement.
var (
	ErrEmptyItems = errors.New("items required")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ShipmentCreator creates the shipment record when an order enters the
// shipping phase. Implemented by the shipment service; defined here so the
// order package stays free of a dependency on it.
type ShipmentCreator interface {
	CreateForOrder(ctx context.Context, o *Order) error
}

// PlaceOrderRequest holds the input for placing an order at checkout.
// PromotionCode optionally names the promotion the customer selected; when it
// does not qualify the best applicable promotion is used instead.
type PlaceOrderRequest struct {
	CustomerID    string
	Items         []Item
	Address       Address
	PaymentMethod string
	PromotionCode string
}

// Pricing holds the checkout pricing knobs that are not promotion-driven.
type Pricing struct {
	// ShippingFee is the flat delivery fee added to every order.
	ShippingFee decimal.Decimal
	// TaxRate is a percentage applied to the subtotal. Zero disables tax.
	TaxRate decimal.Decimal
}

// Service encapsulates checkout and lifecycle business logic.
type Service struct {
	products   product.Repository
	promotions promotion.Repository
	orders     Repository
	shipments  ShipmentCreator
	pricing    Pricing
	now        func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	promotions promotion.Repository,
	orders Repository,
	shipments ShipmentCreator,
	pricing Pricing,
) *Service {
	return &Service{
		products:   products,
		promotions: promotions,
		orders:     orders,
		shipments:  shipments,
		pricing:    pricing,
		now:        time.Now,
	}
}

// PlaceOrder validates the cart, snapshots unit prices from the catalog,
// resolves the best applicable promotion, and persists the order in PENDING.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	// Snapshot unit prices now; catalog changes must not affect this order.
	items := make([]Item, len(req.Items))
	subtotal := decimal.Zero
	for i, item := range req.Items {
		p, ok := productMap[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}

		price := p.Price
		if item.VariantID != "" {
			for _, v := range p.Variants {
				if v.ID == item.VariantID && v.Price != nil {
					price = *v.Price
					break
				}
			}
		}

		items[i] = Item{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: price,
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	promos, err := s.activePromotions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list active promotions")
	}
	discount := resolveDiscount(subtotal, promos, req.PromotionCode)

	tax := decimal.Zero
	if s.pricing.TaxRate.IsPositive() {
		tax = subtotal.Mul(s.pricing.TaxRate).Div(decimal.NewFromInt(100)).Floor()
	}

	total := subtotal.Add(s.pricing.ShippingFee).Add(tax).Sub(discount.Amount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	now := s.now()
	o := &Order{
		ID:            uuid.New().String(),
		CustomerID:    req.CustomerID,
		Items:         items,
		Address:       req.Address,
		Subtotal:      subtotal,
		ShippingFee:   s.pricing.ShippingFee,
		Discount:      discount.Amount,
		Tax:           tax,
		Total:         total,
		Status:        StatusPending,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: "PENDING",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if discount.Promotion != nil {
		o.PromotionID = discount.Promotion.ID
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// promotionPageSize is the page size used when loading the active set.
const promotionPageSize = 100

// activePromotions loads the complete active promotion set, paging until the
// repository runs dry so a promotion beyond the first page can still win the
// discount comparison.
func (s *Service) activePromotions(ctx context.Context) ([]promotion.Promotion, error) {
	var all []promotion.Promotion
	for page := 0; ; page++ {
		batch, err := s.promotions.ListActive(ctx, page, promotionPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < promotionPageSize {
			return all, nil
		}
	}
}

// resolveDiscount honors the customer's selected promotion when it still
// qualifies; otherwise it falls back to the best applicable one. The server
// recomputes either way, so a stale client-side selection can only lower the
// discount, never inflate it.
func resolveDiscount(subtotal decimal.Decimal, promos []promotion.Promotion, code string) promotion.Discount {
	if code != "" {
		for i := range promos {
			if promos[i].ID == code {
				if d := promotion.Resolve(subtotal, promos[i:i+1]); d.Promotion != nil {
					return d
				}
				break
			}
		}
	}
	return promotion.Resolve(subtotal, promos)
}

// UpdateStatus moves an order along the lifecycle on behalf of role.
//
// The current status is re-read immediately before applying the transition
// and the write is conditional on it being unchanged, so a concurrent
// mutation surfaces as ErrConflict instead of silently clobbering state.
// Requesting the status the order already has succeeds without a status
// write; a retried SHIPPING request additionally re-runs shipment creation,
// so an order whose status committed but whose shipment write failed is
// repaired by the retry instead of stranded.
func (s *Service) UpdateStatus(ctx context.Context, id string, requested Status, role actor.Role) (*Order, error) {
	if role == actor.RoleUnknown {
		return nil, errors.Wrap(ErrForbidden, "unrecognized actor role")
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.Status == requested {
		if requested == StatusShipping {
			if err := s.shipments.CreateForOrder(ctx, o); err != nil {
				return nil, errors.Wrap(err, "reconcile missing shipment")
			}
		}
		return o, nil
	}

	if err := Transition(o.Status, requested, role); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, id, o.Status, requested); err != nil {
		return nil, err
	}

	previous := o.Status
	o.Status = requested
	o.UpdatedAt = s.now()

	// Entering the shipping phase creates the shipment record.
	if requested == StatusShipping && previous == StatusProcessing {
		if err := s.shipments.CreateForOrder(ctx, o); err != nil {
			return nil, errors.Wrap(err, "create shipment")
		}
	}

	return o, nil
}

// GetByID returns the order as persisted.
func (s *Service) GetByID(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// MarkDelivered is the reconciliation step triggered when a shipment reaches
// its terminal DELIVERED state. It is idempotent: an order that is already
// DELIVERED (or CANCELLED) is left untouched, so a redelivered notification
// has no further effect.
func (s *Service) MarkDelivered(ctx context.Context, orderID string) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if o.Status.IsTerminal() {
		return nil
	}

	if err := Transition(o.Status, StatusDelivered, actor.RoleSystem); err != nil {
		return err
	}
	return s.orders.UpdateStatus(ctx, orderID, o.Status, StatusDelivered)
}
