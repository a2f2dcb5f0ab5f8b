package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

type CatalogService interface {
	Catalog(ctx context.Context) ([]domain.Product, error)
}

type CatalogHandler struct {
	svc     CatalogService
	timeout time.Duration
}

func NewCatalogHandler(svc CatalogService, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		svc:     svc,
		timeout: timeout,
	}
}

// GET /api/v1/catalog
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.svc.Catalog(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	respondJSON(w, http.StatusOK, ProductsResponse{Products: products})
}

// GET /api/v1/payment-methods
func (h *CatalogHandler) PaymentMethods(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, PaymentMethodsResponse{PaymentMethods: domain.PaymentMethods})
}
