package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

// CartService covers the session, cart and payment side of the register.
type CartService interface {
	Session(ctx context.Context, terminalID string) (*domain.Session, error)
	AddItem(ctx context.Context, terminalID string, productID int64) (*domain.Session, error)
	SetQuantity(ctx context.Context, terminalID string, productID int64, quantity int) (*domain.Session, error)
	RemoveItem(ctx context.Context, terminalID string, productID int64) (*domain.Session, error)
	SetPayment(ctx context.Context, terminalID, method string, wantsEInvoice bool) (*domain.Session, error)
	Reset(ctx context.Context, terminalID string) error
	Recognizing(terminalID string) bool
}

type CartHandler struct {
	svc     CartService
	timeout time.Duration
}

func NewCartHandler(svc CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		svc:     svc,
		timeout: timeout,
	}
}

// GET /api/v1/session
func (h *CartHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	terminalID := getTerminalID(r.Context())
	sess, err := h.svc.Session(ctx, terminalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newSessionResponse(sess, h.svc.Recognizing(terminalID)))
}

// DELETE /api/v1/session
func (h *CartHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.svc.Reset(ctx, getTerminalID(r.Context())); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	terminalID := getTerminalID(r.Context())
	sess, err := h.svc.AddItem(ctx, terminalID, req.ProductID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newSessionResponse(sess, h.svc.Recognizing(terminalID)))
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not be negative")
		return
	}

	terminalID := getTerminalID(r.Context())
	sess, err := h.svc.SetQuantity(ctx, terminalID, productID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newSessionResponse(sess, h.svc.Recognizing(terminalID)))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	terminalID := getTerminalID(r.Context())
	sess, err := h.svc.RemoveItem(ctx, terminalID, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newSessionResponse(sess, h.svc.Recognizing(terminalID)))
}

// PUT /api/v1/payment
func (h *CartHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	terminalID := getTerminalID(r.Context())
	sess, err := h.svc.SetPayment(ctx, terminalID, req.PaymentMethod, req.WantsEInvoice)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newSessionResponse(sess, h.svc.Recognizing(terminalID)))
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "invalid product_id")
		return 0, false
	}
	return productID, true
}
