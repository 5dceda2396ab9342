//go:build integration

// Package integration spins up a real PostgreSQL container and exercises the
// full stack: repositories, domain services, and the HTTP surface.
package integration

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shopcuathuy/marketplace-api/internal/domain/order"
	"github.com/shopcuathuy/marketplace-api/internal/domain/shipment"
	"github.com/shopcuathuy/marketplace-api/internal/handler"
	"github.com/shopcuathuy/marketplace-api/internal/importer"
	"github.com/shopcuathuy/marketplace-api/internal/storage/postgres"
)

var (
	pool         *pgxpool.Pool
	server       *httptest.Server
	httpClient   *http.Client
	orderService *order.Service
	tracker      *shipment.Tracker
)

// advancerProxy mirrors the late binding the app wiring uses for the mutual
// dependency between the order service and the shipment tracker.
type advancerProxy struct {
	svc shipment.OrderAdvancer
}

func (p *advancerProxy) MarkDelivered(ctx context.Context, orderID string) error {
	return p.svc.MarkDelivered(ctx, orderID)
}

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("shop_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = pgContainer.Terminate(context.Background()) }()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}

	pool, err = postgres.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	productRepo := postgres.NewProductRepository(pool)
	promotionRepo := postgres.NewPromotionRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	shipmentRepo := postgres.NewShipmentRepository(pool)

	proxy := &advancerProxy{}
	tracker = shipment.NewTracker(shipmentRepo, proxy)
	orderService = order.NewService(productRepo, promotionRepo, orderRepo, tracker, order.Pricing{
		ShippingFee: decimal.NewFromInt(30_000),
	})
	proxy.svc = orderService

	h := handler.NewHandler(orderService, tracker, promotionRepo, importer.New(productRepo), nil)
	router := chi.NewRouter()
	router.Route("/api", h.Routes)

	server = httptest.NewServer(router)
	defer server.Close()
	httpClient = server.Client()

	if err := seed(ctx); err != nil {
		log.Fatalf("seed: %v", err)
	}

	return m.Run()
}

// seed loads the catalog and promotions the scenarios rely on.
func seed(ctx context.Context) error {
	_, err := pool.Exec(ctx, `INSERT INTO products (id, seller_id, name, price, category, sku, quantity)
		VALUES ('prd-ao-thun', 'seller-demo', 'Áo thun nam', 150000, 'Thời trang', 'AT-001', 75)`)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `INSERT INTO product_variants (id, product_id, size, price, stock)
		VALUES ('var-at-l', 'prd-ao-thun', 'L', 160000, 25)`)
	if err != nil {
		return err
	}

	// Percentage promotion with a cap, and a fixed one with a higher
	// minimum purchase: at a 300k subtotal the capped 10% wins.
	_, err = pool.Exec(ctx, `INSERT INTO promotions (id, name, type, value, max_discount, min_purchase, starts_at, ends_at)
		VALUES ('pro-summer10', 'Summer Sale 10%', 'PERCENTAGE', 10, 25000, 200000, now() - interval '1 day', now() + interval '30 days')`)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `INSERT INTO promotions (id, name, type, value, min_purchase, starts_at, ends_at)
		VALUES ('pro-big40k', 'Giảm 40k', 'FIXED_AMOUNT', 40000, 350000, now() - interval '1 day', now() + interval '30 days')`)
	return err
}

// shipmentIDForOrder looks up the shipment created for an order.
func shipmentIDForOrder(t *testing.T, orderID string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`SELECT id FROM shipments WHERE order_id = $1`, orderID).Scan(&id)
	if err != nil {
		t.Fatalf("shipment for order %s: %v", orderID, err)
	}
	return id
}
