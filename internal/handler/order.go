package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shopcuathuy/marketplace-api/internal/domain/actor"
	"github.com/shopcuathuy/marketplace-api/internal/domain/order"
)

type orderItemPayload struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type addressPayload struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	Province string `json:"province,omitempty"`
}

type placeOrderPayload struct {
	CustomerID    string             `json:"customer_id"`
	Items         []orderItemPayload `json:"items"`
	Address       addressPayload     `json:"address"`
	PaymentMethod string             `json:"payment_method"`
	PromotionCode string             `json:"promotion_code,omitempty"`
}

type updateOrderStatusPayload struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID            string             `json:"id"`
	CustomerID    string             `json:"customer_id"`
	Items         []orderItemView    `json:"items"`
	Address       addressPayload     `json:"address"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	ShippingFee   decimal.Decimal    `json:"shipping_fee"`
	Discount      decimal.Decimal    `json:"discount"`
	Tax           decimal.Decimal    `json:"tax"`
	Total         decimal.Decimal    `json:"total"`
	Status        order.Status       `json:"status"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	PaymentStatus string             `json:"payment_status"`
	PromotionID   string             `json:"promotion_id,omitempty"`
	AllowedNext   []order.Status     `json:"allowed_next"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type orderItemView struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func orderToResponse(o *order.Order) orderResponse {
	items := make([]orderItemView, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemView{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return orderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Items:         items,
		Address: addressPayload{
			Name:     o.Address.Name,
			Phone:    o.Address.Phone,
			Street:   o.Address.Street,
			Ward:     o.Address.Ward,
			District: o.Address.District,
			Province: o.Address.Province,
		},
		Subtotal:      o.Subtotal,
		ShippingFee:   o.ShippingFee,
		Discount:      o.Discount,
		Tax:           o.Tax,
		Total:         o.Total,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		PromotionID:   o.PromotionID,
		AllowedNext:   order.AllowedNext(o.Status),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var payload placeOrderPayload
	if err := decodeBody(r, &payload); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	items := make([]order.Item, len(payload.Items))
	for i, it := range payload.Items {
		items[i] = order.Item{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		}
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		CustomerID: payload.CustomerID,
		Items:      items,
		Address: order.Address{
			Name:     payload.Address.Name,
			Phone:    payload.Address.Phone,
			Street:   payload.Address.Street,
			Ward:     payload.Address.Ward,
			District: payload.Address.District,
			Province: payload.Address.Province,
		},
		PaymentMethod: payload.PaymentMethod,
		PromotionCode: payload.PromotionCode,
	})
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, orderToResponse(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderToResponse(o))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var payload updateOrderStatusPayload
	if err := decodeBody(r, &payload); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	requested := order.ParseStatus(payload.Status)
	if requested == order.StatusUnknown {
		writeErrorCode(w, http.StatusBadRequest, codeValidation, "unknown order status")
		return
	}

	role := actor.Parse(r.Header.Get("X-Actor-Role"))
	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), requested, role)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderToResponse(o))
}
