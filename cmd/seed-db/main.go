// Command seed-db loads a small demo catalog, a pair of promotions and a
// seller API key into the database, for local development and integration
// testing.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopcuathuy/marketplace-api/internal/domain/product"
	"github.com/shopcuathuy/marketplace-api/internal/storage/postgres"
)

const demoSellerID = "seller-demo"

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "seller API key to seed (or SHOP_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHOP_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("SHOP_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SHOP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedPromotions(ctx, pool); err != nil {
		return errors.Wrap(err, "seed promotions")
	}

	if apiKey != "" {
		if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
			return errors.Wrap(err, "seed api key")
		}
	}

	return nil
}

func intp(n int) *int { return &n }

func strp(s string) *string { return &s }

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo catalog")

	variantStock := 25
	products := []product.Product{
		{
			ID:       "prd-ao-thun",
			Name:     "Áo thun nam cotton",
			Price:    decimal.NewFromInt(150_000),
			Category: "Thời trang",
			SKU:      "AT-001",
			Images:   []string{"https://cdn.shopcuathuy.vn/prd-ao-thun.jpg"},
			Quantity: intp(75),
			Status:   "active",
			Variants: []product.Variant{
				{ID: "var-at-s", ProductID: "prd-ao-thun", Size: strp("S"), Stock: &variantStock},
				{ID: "var-at-m", ProductID: "prd-ao-thun", Size: strp("M"), Stock: &variantStock},
				{ID: "var-at-l", ProductID: "prd-ao-thun", Size: strp("L"), Stock: &variantStock},
			},
		},
		{
			ID:       "prd-giay",
			Name:     "Giày sneaker trắng",
			Price:    decimal.NewFromInt(500_000),
			Category: "Giày dép",
			SKU:      "GS-001",
			Images:   []string{"https://cdn.shopcuathuy.vn/prd-giay.jpg"},
			Quantity: intp(40),
			Status:   "active",
		},
		{
			ID:       "prd-binh-nuoc",
			Name:     "Bình giữ nhiệt 500ml",
			Price:    decimal.NewFromInt(220_000),
			Category: "Gia dụng",
			SKU:      "BN-001",
			Images:   []string{"https://cdn.shopcuathuy.vn/prd-binh-nuoc.jpg"},
			Quantity: intp(120),
			Status:   "active",
		},
	}
	for i := range products {
		products[i].SellerID = demoSellerID
	}

	const upsertProductSQL = `INSERT INTO products (id, seller_id, name, description, price, compare_price,
		category, sku, images, quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price,
			category = EXCLUDED.category, quantity = EXCLUDED.quantity, status = EXCLUDED.status`

	const upsertVariantSQL = `INSERT INTO product_variants (id, product_id, size, color, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET size = EXCLUDED.size, color = EXCLUDED.color,
			price = EXCLUDED.price, stock = EXCLUDED.stock`

	for _, p := range products {
		_, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.SellerID, p.Name, p.Description, p.Price, p.ComparePrice,
			p.Category, p.SKU, p.Images, p.Quantity, p.Status,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		for _, v := range p.Variants {
			_, err := pool.Exec(ctx, upsertVariantSQL, v.ID, v.ProductID, v.Size, v.Color, v.Price, v.Stock)
			if err != nil {
				return errors.Wrapf(err, "upsert variant %s", v.ID)
			}
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedPromotions(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding promotions")

	now := time.Now()
	type promo struct {
		id          string
		name        string
		kind        string
		value       decimal.Decimal
		maxDiscount decimal.Decimal
		minPurchase decimal.Decimal
	}
	promos := []promo{
		{
			id:          "pro-summer10",
			name:        "Summer Sale 10%",
			kind:        "PERCENTAGE",
			value:       decimal.NewFromInt(10),
			maxDiscount: decimal.NewFromInt(25_000),
			minPurchase: decimal.NewFromInt(200_000),
		},
		{
			id:          "pro-big40k",
			name:        "Giảm 40k đơn từ 350k",
			kind:        "FIXED_AMOUNT",
			value:       decimal.NewFromInt(40_000),
			minPurchase: decimal.NewFromInt(350_000),
		},
	}

	const upsertPromotionSQL = `INSERT INTO promotions (id, name, description, type, value, max_discount,
		min_purchase, starts_at, ends_at, quantity_limit, quantity_used, status)
		VALUES ($1, $2, '', $3, $4, $5, $6, $7, $8, 0, 0, 'active')
		ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value, max_discount = EXCLUDED.max_discount,
			min_purchase = EXCLUDED.min_purchase, starts_at = EXCLUDED.starts_at, ends_at = EXCLUDED.ends_at`

	for _, p := range promos {
		_, err := pool.Exec(ctx, upsertPromotionSQL,
			p.id, p.name, p.kind, p.value, p.maxDiscount, p.minPurchase,
			now.Add(-24*time.Hour), now.Add(30*24*time.Hour),
		)
		if err != nil {
			return errors.Wrapf(err, "upsert promotion %s", p.id)
		}

		slog.Info("upserted promotion", slog.String("id", p.id), slog.String("name", p.name))
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding seller API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	const upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, seller_id, scopes, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash, seller_id = EXCLUDED.seller_id`

	_, err := pool.Exec(ctx, upsertAPIKeySQL,
		"default", keyHash, "Demo seller key", demoSellerID, []string{"import_products"},
	)
	if err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("seller", demoSellerID))

	return nil
}
