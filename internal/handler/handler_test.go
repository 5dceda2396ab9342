package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcuathuy/marketplace-api/internal/domain/actor"
	"github.com/shopcuathuy/marketplace-api/internal/domain/auth"
	"github.com/shopcuathuy/marketplace-api/internal/domain/order"
	"github.com/shopcuathuy/marketplace-api/internal/domain/promotion"
	"github.com/shopcuathuy/marketplace-api/internal/domain/shipment"
	"github.com/shopcuathuy/marketplace-api/internal/importer"
)

// --- Mock implementations ---

type mockOrderService struct {
	placed    *order.Order
	placeErr  error
	got       *order.Order
	getErr    error
	updated   *order.Order
	updateErr error

	lastRequested order.Status
	lastRole      actor.Role
}

func (m *mockOrderService) PlaceOrder(_ context.Context, _ order.PlaceOrderRequest) (*order.Order, error) {
	return m.placed, m.placeErr
}

func (m *mockOrderService) GetByID(_ context.Context, _ string) (*order.Order, error) {
	return m.got, m.getErr
}

func (m *mockOrderService) UpdateStatus(_ context.Context, _ string, requested order.Status, role actor.Role) (*order.Order, error) {
	m.lastRequested = requested
	m.lastRole = role
	return m.updated, m.updateErr
}

type mockShipmentTracker struct {
	shipment  *shipment.Shipment
	getErr    error
	updateErr error

	lastRequested shipment.Status
	lastDetail    shipment.UpdateDetail
	lastRole      actor.Role
}

func (m *mockShipmentTracker) GetByID(_ context.Context, _ string) (*shipment.Shipment, error) {
	return m.shipment, m.getErr
}

func (m *mockShipmentTracker) UpdateStatus(_ context.Context, _ string, requested shipment.Status, detail shipment.UpdateDetail, role actor.Role) (*shipment.Shipment, error) {
	m.lastRequested = requested
	m.lastDetail = detail
	m.lastRole = role
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.shipment, nil
}

type mockPromotionRepo struct {
	promos []promotion.Promotion
	err    error
}

func (m *mockPromotionRepo) ListActive(_ context.Context, _, _ int) ([]promotion.Promotion, error) {
	return m.promos, m.err
}

type mockImporter struct {
	report importer.Report
	err    error

	lastFilename string
	lastSellerID string
}

func (m *mockImporter) Import(_ context.Context, r io.Reader, filename, sellerID string) (importer.Report, error) {
	_, _ = io.Copy(io.Discard, r)
	m.lastFilename = filename
	m.lastSellerID = sellerID
	return m.report, m.err
}

type mockAPIKeyRepo struct {
	info *auth.APIKeyInfo
	err  error
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, _ string) (*auth.APIKeyInfo, error) {
	return m.info, m.err
}

// --- Helpers ---

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func testOrder() *order.Order {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &order.Order{
		ID:         "ord-1",
		CustomerID: "cus-1",
		Items: []order.Item{
			{ProductID: "prd-1", Quantity: 2, UnitPrice: dec(150_000)},
		},
		Subtotal:      dec(300_000),
		ShippingFee:   dec(30_000),
		Discount:      dec(25_000),
		Tax:           decimal.Zero,
		Total:         dec(305_000),
		Status:        order.StatusPending,
		PaymentMethod: "COD",
		PaymentStatus: "PENDING",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if role != "" {
		req.Header.Set("X-Actor-Role", role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- Tests ---

func TestPlaceOrder(t *testing.T) {
	svc := &mockOrderService{placed: testOrder()}
	router := newRouter(NewHandler(svc, &mockShipmentTracker{}, &mockPromotionRepo{}, &mockImporter{}, nil))

	rec := doRequest(t, router, http.MethodPost, "/api/orders", "", map[string]any{
		"customer_id": "cus-1",
		"items": []map[string]any{
			{"product_id": "prd-1", "quantity": 2},
		},
		"payment_method": "COD",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ord-1", resp.ID)
	assert.True(t, dec(305_000).Equal(resp.Total))
	assert.ElementsMatch(t, []order.Status{order.StatusProcessing, order.StatusCancelled}, resp.AllowedNext)
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := &mockOrderService{placeErr: order.ErrEmptyItems}
	router := newRouter(NewHandler(svc, &mockShipmentTracker{}, &mockPromotionRepo{}, &mockImporter{}, nil))

	rec := doRequest(t, router, http.MethodPost, "/api/orders", "", map[string]any{
		"customer_id": "cus-1",
		"items":       []map[string]any{},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	svc := &mockOrderService{getErr: order.ErrNotFound}
	router := newRouter(NewHandler(svc, &mockShipmentTracker{}, &mockPromotionRepo{}, &mockImporter{}, nil))

	rec := doRequest(t, router, http.MethodGet, "/api/orders/missing", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	updated := testOrder()
	updated.Status = order.StatusProcessing
	svc := &mockOrderService{updated: updated}
	router := newRouter(NewHandler(svc, &mockShipmentTracker{}, &mockPromotionRepo{}, &mockImporter{}, nil))

	rec := doRequest(t, router, http.MethodPatch, "/api/orders/ord-1/status", "seller", map[string]any{
		"status": "PROCESSING",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.StatusProcessing, svc.lastRequested)
	assert.Equal(t, actor.RoleSeller, svc.lastRole)
}

func TestUpdateOrderStatus_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid transition", order.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"forbidden", order.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"conflict", order.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"not found", order.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{updateErr: tt.err}
			router := newRouter(NewHandler(svc, &mockShipmentTracker{}, &mockPromotionRepo{}, &mockImporter{}, nil))

			rec := doRequest(t, router, http.MethodPatch, "/api/orders/ord-1/status", "admin", map[string]any{
				"status": "DELIVERED",
			})

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	svc := &mockOrderService{}
	router := newRouter(NewHandler(svc, &mockShipmentTracker{}, &mockPromotionRepo{}, &mockImporter{}, nil))

	rec := doRequest(t, router, http.MethodPatch, "/api/orders/ord-1/status", "admin", map[string]any{
		"status": "TELEPORTED",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
}

func TestGetShipment(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	tracker := &mockShipmentTracker{shipment: &shipment.Shipment{
		ID:             "shp-1",
		OrderID:        "ord-1",
		Status:         shipment.StatusOutForDelivery,
		TrackingNumber: "SHP-AB12CD34EF56",
		CODAmount:      dec(305_000),
		History: []shipment.Event{
			{Status: shipment.StatusPending, OccurredAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}}
	router := newRouter(NewHandler(&mockOrderService{}, tracker, &mockPromotionRepo{}, &mockImporter{}, nil))

	rec := doRequest(t, router, http.MethodGet, "/api/shipments/shp-1", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp shipmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, shipment.StatusOutForDelivery, resp.Status)
	assert.Equal(t, shipment.BucketDelivering, resp.StatusGroup)
	assert.Len(t, resp.History, 1)
}

func TestUpdateShipmentStatus_MissingReason(t *testing.T) {
	tracker := &mockShipmentTracker{updateErr: shipment.ErrMissingFailureReason}
	router := newRouter(NewHandler(&mockOrderService{}, tracker, &mockPromotionRepo{}, &mockImporter{}, nil))

	rec := doRequest(t, router, http.MethodPatch, "/api/shipments/shp-1/status", "shipper", map[string]any{
		"status": "FAILED",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "MISSING_FAILURE_REASON", decodeError(t, rec).Code)
}

func TestUpdateShipmentStatus_PassesDetail(t *testing.T) {
	tracker := &mockShipmentTracker{shipment: &shipment.Shipment{ID: "shp-1", Status: shipment.StatusFailed}}
	router := newRouter(NewHandler(&mockOrderService{}, tracker, &mockPromotionRepo{}, &mockImporter{}, nil))

	rec := doRequest(t, router, http.MethodPatch, "/api/shipments/shp-1/status", "shipper", map[string]any{
		"status":         "FAILED",
		"location":       "Quận 1",
		"failure_reason": "CUSTOMER_NOT_AVAILABLE",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, shipment.StatusFailed, tracker.lastRequested)
	assert.Equal(t, "Quận 1", tracker.lastDetail.Location)
	assert.Equal(t, shipment.FailureCustomerNotAvailable, tracker.lastDetail.FailureReason)
	assert.Equal(t, actor.RoleShipper, tracker.lastRole)
}

func TestListActivePromotions(t *testing.T) {
	promos := &mockPromotionRepo{promos: []promotion.Promotion{
		{ID: "pro-1", Name: "Summer Sale", Type: promotion.TypePercentage, Value: dec(10)},
	}}
	router := newRouter(NewHandler(&mockOrderService{}, &mockShipmentTracker{}, promos, &mockImporter{}, nil))

	rec := doRequest(t, router, http.MethodGet, "/api/promotions/active", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Promotions []promotionView `json:"promotions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Promotions, 1)
	assert.Equal(t, "Summer Sale", resp.Promotions[0].Name)
}

func TestListActivePromotions_BadPage(t *testing.T) {
	router := newRouter(NewHandler(&mockOrderService{}, &mockShipmentTracker{}, &mockPromotionRepo{}, &mockImporter{}, nil))

	rec := doRequest(t, router, http.MethodGet, "/api/promotions/active?page=-1", "", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, filename, field string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportProducts(t *testing.T) {
	imp := &mockImporter{report: importer.Report{Success: 4, Failed: 1, Errors: []string{"row 5: invalid price"}}}
	router := newRouter(NewHandler(&mockOrderService{}, &mockShipmentTracker{}, &mockPromotionRepo{}, imp, nil))

	body, contentType := multipartUpload(t, "catalog.csv", "file", []byte("data"), map[string]string{"seller_id": "sel-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/products/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "catalog.csv", imp.lastFilename)
	assert.Equal(t, "sel-1", imp.lastSellerID)

	var report importer.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 4, report.Success)
	assert.Equal(t, 1, report.Failed)
}

func TestImportProducts_MissingFile(t *testing.T) {
	router := newRouter(NewHandler(&mockOrderService{}, &mockShipmentTracker{}, &mockPromotionRepo{}, &mockImporter{}, nil))

	body, contentType := multipartUpload(t, "catalog.csv", "wrong", []byte("data"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/products/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportProducts_MalformedFile(t *testing.T) {
	imp := &mockImporter{err: importer.ErrMalformedFile}
	router := newRouter(NewHandler(&mockOrderService{}, &mockShipmentTracker{}, &mockPromotionRepo{}, imp, nil))

	body, contentType := multipartUpload(t, "catalog.xlsx", "file", []byte("garbage"), map[string]string{"seller_id": "sel-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/products/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MALFORMED_FILE", decodeError(t, rec).Code)
}

func TestRequireAPIKey(t *testing.T) {
	pepper := []byte("test-pepper")
	key := "sk_live_demo"
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	hash := hex.EncodeToString(mac.Sum(nil))

	repo := &mockAPIKeyRepo{info: &auth.APIKeyInfo{ID: "key-1", KeyHash: hash, SellerID: "sel-1"}}
	sec := NewSecurityHandler(repo, pepper)

	imp := &mockImporter{}
	router := newRouter(NewHandler(&mockOrderService{}, &mockShipmentTracker{}, &mockPromotionRepo{}, imp, sec))

	t.Run("missing key", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/products/import", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
	})

	t.Run("unknown key", func(t *testing.T) {
		repo.err = auth.ErrKeyNotFound
		defer func() { repo.err = nil }()

		req := httptest.NewRequest(http.MethodPost, "/api/products/import", strings.NewReader(""))
		req.Header.Set("X-API-Key", "wrong")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid key supplies seller", func(t *testing.T) {
		body, contentType := multipartUpload(t, "catalog.csv", "file", []byte("data"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/products/import", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-API-Key", key)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "sel-1", imp.lastSellerID)
	})
}
