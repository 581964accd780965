package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the API.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	stockDenials    prometheus.Counter
	salesRecorded   prometheus.Counter
	purchasesAdded  prometheus.Counter
}

// New initialises the registry and metric families.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "turboparts_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "turboparts_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	denials := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "turboparts_stock_gate_denials_total",
		Help: "Sale submissions rejected by the stock availability gate.",
	})
	sales := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "turboparts_sales_recorded_total",
		Help: "Sales persisted.",
	})
	purchases := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "turboparts_purchases_recorded_total",
		Help: "Purchases persisted.",
	})
	registry.MustRegister(requests, duration, denials, sales, purchases)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		stockDenials:    denials,
		salesRecorded:   sales,
		purchasesAdded:  purchases,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request counts and latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// StockDenied counts a sale rejected by the stock gate. Safe on a nil receiver.
func (m *Metrics) StockDenied() {
	if m != nil {
		m.stockDenials.Inc()
	}
}

// SaleRecorded counts a persisted sale.
func (m *Metrics) SaleRecorded() {
	if m != nil {
		m.salesRecorded.Inc()
	}
}

// PurchaseRecorded counts a persisted purchase.
func (m *Metrics) PurchaseRecorded() {
	if m != nil {
		m.purchasesAdded.Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
