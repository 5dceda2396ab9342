package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopcuathuy/marketplace-api/internal/domain/promotion"
)

// listActivePromotionsSQL applies the window, status and quantity-limit
// filters server-side; a limit of zero means unlimited uses.
const listActivePromotionsSQL = `SELECT id, name, description, type, value, max_discount, min_purchase,
	starts_at, ends_at, quantity_limit, quantity_used, status
	FROM promotions
	WHERE status = 'active'
	  AND starts_at <= now()
	  AND ends_at >= now()
	  AND (quantity_limit = 0 OR quantity_used < quantity_limit)
	ORDER BY starts_at, id
	LIMIT $1 OFFSET $2`

var _ promotion.Repository = (*PromotionRepository)(nil)

// PromotionRepository implements promotion.Repository backed by PostgreSQL.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// ListActive returns the page of promotions currently applicable: active
// status, inside their time window, with uses remaining.
func (r *PromotionRepository) ListActive(ctx context.Context, page, size int) ([]promotion.Promotion, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}

	rows, err := r.pool.Query(ctx, listActivePromotionsSQL, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("listing active promotions: %w", err)
	}
	return pgx.CollectRows(rows, scanPromotion)
}

func scanPromotion(row pgx.CollectableRow) (promotion.Promotion, error) {
	var p promotion.Promotion
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Type, &p.Value,
		&p.MaxDiscount, &p.MinPurchase,
		&p.StartsAt, &p.EndsAt,
		&p.QuantityLimit, &p.QuantityUsed, &p.Status,
	)
	return p, err
}
