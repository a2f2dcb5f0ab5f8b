package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_cart/caja-service/internal/binder"
	"github.com/fjod/go_cart/caja-service/internal/domain"
)

type CustomerService interface {
	LookupCustomer(ctx context.Context, terminalID, documentNumber string) (*domain.Session, binder.LookupOutcome, error)
	UpdateCustomer(ctx context.Context, terminalID string, c domain.Customer) (*domain.Session, error)
	NewCustomer(ctx context.Context, terminalID string) (*domain.Session, error)
	StartRecognition(ctx context.Context, terminalID string, startEmpty bool) (*domain.Session, error)
	StopRecognition(terminalID string)
	Session(ctx context.Context, terminalID string) (*domain.Session, error)
	Recognizing(terminalID string) bool
}

type CustomerHandler struct {
	svc     CustomerService
	timeout time.Duration
}

func NewCustomerHandler(svc CustomerService, timeout time.Duration) *CustomerHandler {
	return &CustomerHandler{
		svc:     svc,
		timeout: timeout,
	}
}

// POST /api/v1/customer/recognition
// The body is optional; {"start_empty": true} opens the register with an empty customer instead.
func (h *CustomerHandler) StartRecognition(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RecognitionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	terminalID := getTerminalID(r.Context())
	sess, err := h.svc.StartRecognition(ctx, terminalID, req.StartEmpty)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, newSessionResponse(sess, h.svc.Recognizing(terminalID)))
}

// DELETE /api/v1/customer/recognition
func (h *CustomerHandler) StopRecognition(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	terminalID := getTerminalID(r.Context())
	h.svc.StopRecognition(terminalID)

	sess, err := h.svc.Session(ctx, terminalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newSessionResponse(sess, false))
}

// POST /api/v1/customer/lookup
func (h *CustomerHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LookupRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	terminalID := getTerminalID(r.Context())
	sess, outcome, err := h.svc.LookupCustomer(ctx, terminalID, req.DocumentNumber)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, LookupResponse{
		Outcome: string(outcome),
		Session: newSessionResponse(sess, h.svc.Recognizing(terminalID)),
	})
}

// PUT /api/v1/customer
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.Customer
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	terminalID := getTerminalID(r.Context())
	sess, err := h.svc.UpdateCustomer(ctx, terminalID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newSessionResponse(sess, h.svc.Recognizing(terminalID)))
}

// POST /api/v1/customer/new
func (h *CustomerHandler) New(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	terminalID := getTerminalID(r.Context())
	sess, err := h.svc.NewCustomer(ctx, terminalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newSessionResponse(sess, h.svc.Recognizing(terminalID)))
}
