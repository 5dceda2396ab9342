// Package handler exposes the fulfillment core over HTTP. Authentication
// happens upstream; the caller's already-resolved role arrives in the
// X-Actor-Role header and is canonicalized before any state change.
package handler

import (
	"context"
	"io"

	"github.com/go-chi/chi/v5"

	"github.com/shopcuathuy/marketplace-api/internal/domain/actor"
	"github.com/shopcuathuy/marketplace-api/internal/domain/order"
	"github.com/shopcuathuy/marketplace-api/internal/domain/promotion"
	"github.com/shopcuathuy/marketplace-api/internal/domain/shipment"
	"github.com/shopcuathuy/marketplace-api/internal/importer"
)

// OrderService is the slice of the order service the HTTP layer needs.
type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.Order, error)
	GetByID(ctx context.Context, id string) (*order.Order, error)
	UpdateStatus(ctx context.Context, id string, requested order.Status, role actor.Role) (*order.Order, error)
}

// ShipmentTracker is the slice of the shipment tracker the HTTP layer needs.
type ShipmentTracker interface {
	GetByID(ctx context.Context, id string) (*shipment.Shipment, error)
	UpdateStatus(ctx context.Context, id string, requested shipment.Status, detail shipment.UpdateDetail, role actor.Role) (*shipment.Shipment, error)
}

// ProductImporter runs a bulk catalog import from an uploaded spreadsheet.
type ProductImporter interface {
	Import(ctx context.Context, r io.Reader, filename, sellerID string) (importer.Report, error)
}

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	orders     OrderService
	shipments  ShipmentTracker
	promotions promotion.Repository
	importer   ProductImporter
	security   *SecurityHandler
}

// NewHandler constructs a Handler with the required domain dependencies.
// security may be nil, in which case the import endpoint is left ungated.
func NewHandler(
	orders OrderService,
	shipments ShipmentTracker,
	promotions promotion.Repository,
	imp ProductImporter,
	security *SecurityHandler,
) *Handler {
	return &Handler{
		orders:     orders,
		shipments:  shipments,
		promotions: promotions,
		importer:   imp,
		security:   security,
	}
}

// Routes registers the /api endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.placeOrder)
		r.Get("/{orderID}", h.getOrder)
		r.Patch("/{orderID}/status", h.updateOrderStatus)
	})
	r.Route("/shipments", func(r chi.Router) {
		r.Get("/{shipmentID}", h.getShipment)
		r.Patch("/{shipmentID}/status", h.updateShipmentStatus)
	})
	r.Get("/promotions/active", h.listActivePromotions)
	if h.security != nil {
		r.With(h.security.RequireAPIKey).Post("/products/import", h.importProducts)
	} else {
		r.Post("/products/import", h.importProducts)
	}
}
