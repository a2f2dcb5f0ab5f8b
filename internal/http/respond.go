package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/binder"
	"github.com/fjod/go_cart/caja-service/internal/catalog"
	"github.com/fjod/go_cart/caja-service/internal/checkout"
	"github.com/fjod/go_cart/caja-service/internal/domain"
	"github.com/fjod/go_cart/caja-service/internal/journal"
	"github.com/fjod/go_cart/caja-service/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps register errors onto HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error) {
	var (
		status  int
		code    string
		message string
	)

	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		status, code, message = http.StatusNotFound, "product_not_found", "product not found"
	case errors.Is(err, journal.ErrSettlementNotFound):
		status, code, message = http.StatusNotFound, "settlement_not_found", "settlement not found"
	case errors.Is(err, domain.ErrUnknownPaymentMethod):
		status, code, message = http.StatusBadRequest, "unknown_payment_method", "unknown payment method"
	case errors.Is(err, backend.ErrBackendUnavailable):
		status, code, message = http.StatusServiceUnavailable, "backend_unavailable", "backend temporarily unavailable"
	case errors.Is(err, binder.ErrLookupFailed):
		status, code, message = http.StatusBadGateway, "lookup_failed", "customer lookup failed"
	case errors.Is(err, service.ErrRegisterClosed):
		status, code, message = http.StatusServiceUnavailable, "shutting_down", "register is shutting down"
	case errors.Is(err, context.DeadlineExceeded):
		status, code, message = http.StatusGatewayTimeout, "timeout", "request timeout"
	default:
		status, code, message = http.StatusInternalServerError, "internal_error", "internal server error"
	}

	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: err.Error(),
	})
}

// handleCheckoutError answers a rejected or failed checkout with the cashier-facing message.
func handleCheckoutError(w http.ResponseWriter, res *checkout.Result, err error) {
	if res == nil {
		handleServiceError(w, err)
		return
	}

	switch {
	case errors.Is(err, domain.ErrNoCustomer):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: res.Message, Code: "no_customer", Details: err.Error()})
	case errors.Is(err, domain.ErrEmptyCart):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: res.Message, Code: "empty_cart", Details: err.Error()})
	case errors.Is(err, domain.ErrNoPaymentMethod):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: res.Message, Code: "no_payment_method", Details: err.Error()})
	case errors.Is(err, checkout.ErrInvoiceFailed):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{Error: res.Message, Code: "invoice_failed", Details: err.Error()})
	default:
		handleServiceError(w, err)
	}
}
