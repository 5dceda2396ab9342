package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry. Price is the base price; variants may carry
// their own price and stock.
type Product struct {
	ID           string
	SellerID     string
	Name         string
	Description  string
	Price        decimal.Decimal
	ComparePrice decimal.Decimal
	Category     string
	SKU          string
	Images       []string
	// Quantity is the aggregate stock when known. Nil when neither an
	// explicit total nor variant stocks were provided.
	Quantity *int
	Status   string
	Variants []Variant
}

// Variant is one concrete purchasable combination of a product's optional
// attributes. Nil fields were simply not specified for this position.
type Variant struct {
	ID        string
	ProductID string
	Size      *string
	Color     *string
	Price     *decimal.Decimal
	Stock     *int
}

// Repository defines catalog persistence operations used by the core.
type Repository interface {
	// GetByIDs fetches products in one batch; missing IDs are simply absent
	// from the result.
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	// CreateBatch persists imported products with their variants.
	CreateBatch(ctx context.Context, products []Product) error
}
