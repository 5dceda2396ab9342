package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/shopcuathuy/marketplace-api/internal/domain/order"
	"github.com/shopcuathuy/marketplace-api/internal/domain/product"
	"github.com/shopcuathuy/marketplace-api/internal/domain/shipment"
	"github.com/shopcuathuy/marketplace-api/internal/importer"
)

// Error codes of the public error envelope.
const (
	codeValidation        = "VALIDATION_ERROR"
	codeInvalidTransition = "INVALID_TRANSITION"
	codeForbidden         = "FORBIDDEN"
	codeMissingReason     = "MISSING_FAILURE_REASON"
	codeConflict          = "CONFLICT"
	codeMalformedFile     = "MALFORMED_FILE"
	codeNotFound          = "NOT_FOUND"
	codeUnauthorized      = "UNAUTHORIZED"
	codeInternal          = "INTERNAL"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// writeDomainError maps domain errors onto the public error envelope.
// Unrecognized errors become an opaque 500; the cause goes to the log, not
// the client.
func writeDomainError(r *http.Request, w http.ResponseWriter, err error) {
	var (
		notFoundErr *order.ProductNotFoundError
		quantityErr *order.InvalidQuantityError
	)

	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, shipment.ErrNotFound),
		errors.Is(err, product.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, order.ErrConflict):
		writeErrorCode(w, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, order.ErrForbidden):
		writeErrorCode(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, shipment.ErrMissingFailureReason):
		writeErrorCode(w, http.StatusUnprocessableEntity, codeMissingReason, err.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		writeErrorCode(w, http.StatusUnprocessableEntity, codeInvalidTransition, err.Error())
	case errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &notFoundErr),
		errors.As(err, &quantityErr):
		writeErrorCode(w, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, importer.ErrMalformedFile):
		writeErrorCode(w, http.StatusBadRequest, codeMalformedFile, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeErrorCode(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
