package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopcuathuy/marketplace-api/internal/domain/product"
)

const (
	getProductsByIDsSQL = `SELECT id, seller_id, name, description, price, compare_price,
		category, sku, images, quantity, status
		FROM products WHERE id = ANY($1)`

	getVariantsByProductIDsSQL = `SELECT id, product_id, size, color, price, stock
		FROM product_variants WHERE product_id = ANY($1) ORDER BY product_id, id`

	insertProductSQL = `INSERT INTO products (id, seller_id, name, description, price, compare_price,
		category, sku, images, quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	insertVariantSQL = `INSERT INTO product_variants (id, product_id, size, color, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByIDs returns products matching any of the given IDs, with their
// variants attached. Missing IDs are simply absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("scanning products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	rows, err = r.pool.Query(ctx, getVariantsByProductIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting product variants: %w", err)
	}
	variants, err := pgx.CollectRows(rows, scanVariant)
	if err != nil {
		return nil, fmt.Errorf("scanning product variants: %w", err)
	}

	byProduct := make(map[string][]product.Variant, len(products))
	for _, v := range variants {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
	}
	return products, nil
}

// CreateBatch persists imported products with their variants in one
// transaction using a single batched round trip.
func (r *ProductRepository) CreateBatch(ctx context.Context, products []product.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(insertProductSQL,
			p.ID, p.SellerID, p.Name, p.Description, p.Price, p.ComparePrice,
			p.Category, p.SKU, p.Images, p.Quantity, p.Status,
		)
		for _, v := range p.Variants {
			batch.Queue(insertVariantSQL, v.ID, v.ProductID, v.Size, v.Color, v.Price, v.Stock)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning product batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting product batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing product batch: %w", err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.ComparePrice,
		&p.Category, &p.SKU, &p.Images, &p.Quantity, &p.Status,
	)
	return p, err
}

func scanVariant(row pgx.CollectableRow) (product.Variant, error) {
	var v product.Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Price, &v.Stock)
	return v, err
}
