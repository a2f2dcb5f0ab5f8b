package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_cart/caja-service/internal/checkout"
	"github.com/fjod/go_cart/caja-service/internal/domain"
	"github.com/fjod/go_cart/caja-service/internal/journal"
)

type CheckoutService interface {
	Checkout(ctx context.Context, terminalID string) (*checkout.Result, *domain.Session, error)
	Settlements(ctx context.Context, terminalID string, limit int) ([]*domain.Settlement, error)
	Settlement(ctx context.Context, terminalID, id string) (*domain.Settlement, error)
	Recognizing(terminalID string) bool
}

type CheckoutHandler struct {
	svc     CheckoutService
	timeout time.Duration
}

func NewCheckoutHandler(svc CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		svc:     svc,
		timeout: timeout,
	}
}

// POST /api/v1/checkout
// The register bounds the submission itself, a checkout is not cut short by the handler timeout.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	terminalID := getTerminalID(r.Context())

	res, sess, err := h.svc.Checkout(r.Context(), terminalID)
	if err != nil {
		handleCheckoutError(w, res, err)
		return
	}

	respondJSON(w, http.StatusOK, newCheckoutResponse(res, sess, h.svc.Recognizing(terminalID)))
}

// GET /api/v1/settlements?limit=N
func (h *CheckoutHandler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit := journal.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := h.svc.Settlements(ctx, getTerminalID(r.Context()), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if list == nil {
		list = []*domain.Settlement{}
	}

	respondJSON(w, http.StatusOK, SettlementsResponse{Settlements: list})
}

// GET /api/v1/settlements/{settlement_id}
func (h *CheckoutHandler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "settlement_id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing_settlement_id", "settlement_id is required")
		return
	}

	s, err := h.svc.Settlement(ctx, getTerminalID(r.Context()), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s)
}
