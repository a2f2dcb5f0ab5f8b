package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

const namespace = "caja"

type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	LatencyMS       *prometheus.HistogramVec
	Checkouts       *prometheus.CounterVec
	CheckoutSeconds *prometheus.HistogramVec
	PollTicks       *prometheus.CounterVec
	Pollers         prometheus.Gauge
}

// New registers every collector on a fresh registry, together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout submissions by kind and final status.",
		}, []string{"kind", "status"}),
		CheckoutSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_submit_seconds",
			Help:      "Time spent waiting on the backend for a checkout.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		PollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_poll_ticks_total",
			Help:      "Recognition poll ticks by outcome.",
		}, []string{"outcome"}),
		Pollers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recognition_pollers_active",
			Help:      "Terminals currently polling for a recognized customer.",
		}),
	}

	reg.MustRegister(
		m.Requests, m.LatencyMS, m.Checkouts, m.CheckoutSeconds, m.PollTicks, m.Pollers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveCheckout(kind domain.SettlementKind, status domain.CheckoutStatus, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(string(kind), string(status)).Inc()
	m.CheckoutSeconds.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePollTick(outcome string) {
	if m == nil {
		return
	}
	m.PollTicks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PollerStarted() {
	if m != nil {
		m.Pollers.Inc()
	}
}

func (m *Metrics) PollerStopped() {
	if m != nil {
		m.Pollers.Dec()
	}
}

// Middleware counts requests per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		handler := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				handler = r.Method + " " + p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
