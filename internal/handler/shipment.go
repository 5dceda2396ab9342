package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shopcuathuy/marketplace-api/internal/domain/actor"
	"github.com/shopcuathuy/marketplace-api/internal/domain/shipment"
)

type updateShipmentStatusPayload struct {
	Status        string `json:"status"`
	Location      string `json:"location,omitempty"`
	Description   string `json:"description,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

type shipmentResponse struct {
	ID             string              `json:"id"`
	OrderID        string              `json:"order_id"`
	Status         shipment.Status     `json:"status"`
	StatusGroup    shipment.Bucket     `json:"status_group"`
	TrackingNumber string              `json:"tracking_number"`
	CODAmount      decimal.Decimal     `json:"cod_amount"`
	FailureReason  string              `json:"failure_reason,omitempty"`
	History        []shipmentEventView `json:"history"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type shipmentEventView struct {
	Status        shipment.Status `json:"status"`
	Location      string          `json:"location,omitempty"`
	Description   string          `json:"description,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func shipmentToResponse(s *shipment.Shipment) shipmentResponse {
	history := make([]shipmentEventView, len(s.History))
	for i, ev := range s.History {
		history[i] = shipmentEventView{
			Status:        ev.Status,
			Location:      ev.Location,
			Description:   ev.Description,
			FailureReason: string(ev.FailureReason),
			OccurredAt:    ev.OccurredAt,
		}
	}
	return shipmentResponse{
		ID:             s.ID,
		OrderID:        s.OrderID,
		Status:         s.Status,
		StatusGroup:    shipment.Classify(string(s.Status)),
		TrackingNumber: s.TrackingNumber,
		CODAmount:      s.CODAmount,
		FailureReason:  string(s.FailureReason),
		History:        history,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (h *Handler) getShipment(w http.ResponseWriter, r *http.Request) {
	s, err := h.shipments.GetByID(r.Context(), chi.URLParam(r, "shipmentID"))
	if err != nil {
		writeDomainError(r, w, err)
		return
	}
	writeJSON(w, http.StatusOK, shipmentToResponse(s))
}

func (h *Handler) updateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	var payload updateShipmentStatusPayload
	if err := decodeBody(r, &payload); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	requested := shipment.ParseStatus(payload.Status)
	role := actor.Parse(r.Header.Get("X-Actor-Role"))

	s, err := h.shipments.UpdateStatus(r.Context(), chi.URLParam(r, "shipmentID"), requested, shipment.UpdateDetail{
		Location:      payload.Location,
		Description:   payload.Description,
		FailureReason: shipment.FailureReason(payload.FailureReason),
	}, role)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, shipmentToResponse(s))
}
