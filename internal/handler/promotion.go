package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopcuathuy/marketplace-api/internal/domain/promotion"
)

const (
	defaultPromotionPageSize = 20
	maxPromotionPageSize     = 100
)

type promotionView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        promotion.Type  `json:"type"`
	Value       decimal.Decimal `json:"value"`
	MaxDiscount decimal.Decimal `json:"max_discount"`
	MinPurchase decimal.Decimal `json:"min_purchase"`
	StartsAt    time.Time       `json:"starts_at"`
	EndsAt      time.Time       `json:"ends_at"`
}

func (h *Handler) listActivePromotions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 0
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "page must be a non-negative integer")
			return
		}
		page = n
	}

	size := defaultPromotionPageSize
	if raw := query.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "size must be a positive integer")
			return
		}
		size = min(n, maxPromotionPageSize)
	}

	promos, err := h.promotions.ListActive(r.Context(), page, size)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	views := make([]promotionView, len(promos))
	for i, p := range promos {
		views[i] = promotionView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Type:        p.Type,
			Value:       p.Value,
			MaxDiscount: p.MaxDiscount,
			MinPurchase: p.MinPurchase,
			StartsAt:    p.StartsAt,
			EndsAt:      p.EndsAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"promotions": views})
}
