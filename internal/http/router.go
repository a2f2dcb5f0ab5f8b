package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/caja-service/internal/metrics"
)

// Service is everything the cashier API needs from the register.
type Service interface {
	CatalogService
	CartService
	CustomerService
	CheckoutService
}

type RouterConfig struct {
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func NewRouter(svc Service, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	catalogHandler := NewCatalogHandler(svc, cfg.Timeout)
	cartHandler := NewCartHandler(svc, cfg.Timeout)
	customerHandler := NewCustomerHandler(svc, cfg.Timeout)
	checkoutHandler := NewCheckoutHandler(svc, cfg.Timeout)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TerminalMiddleware)

		// Checkout runs to completion regardless of the request deadline.
		r.Post("/checkout", checkoutHandler.Checkout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.Timeout))

			r.Get("/catalog", catalogHandler.List)
			r.Get("/payment-methods", catalogHandler.PaymentMethods)

			r.Get("/session", cartHandler.GetSession)
			r.Delete("/session", cartHandler.ResetSession)

			r.Route("/cart", func(r chi.Router) {
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})
			r.Put("/payment", cartHandler.SetPayment)

			r.Put("/customer", customerHandler.Update)
			r.Post("/customer/recognition", customerHandler.StartRecognition)
			r.Delete("/customer/recognition", customerHandler.StopRecognition)
			r.Post("/customer/lookup", customerHandler.Lookup)
			r.Post("/customer/new", customerHandler.New)

			r.Get("/settlements", checkoutHandler.ListSettlements)
			r.Get("/settlements/{settlement_id}", checkoutHandler.GetSettlement)
		})
	})

	return r
}
