package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "cashwidget"

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	registry          *prometheus.Registry
	requests          *prometheus.CounterVec
	durations         *prometheus.HistogramVec
	configResponses   *prometheus.CounterVec
	purchaseOutcomes  *prometheus.CounterVec
	ledgerAttempts    *prometheus.CounterVec
	rateLimitRejected *prometheus.CounterVec
	dbQueryDuration   *prometheus.HistogramVec
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"route", "method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		configResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "widget_config_responses_total",
			Help:      "Widget config responses by outcome.",
		}, []string{"outcome"}),
		purchaseOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "purchase_outcomes_total",
			Help:      "Tracked purchases by outcome.",
		}, []string{"outcome"}),
		ledgerAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ledger_credit_attempts_total",
			Help:      "Wallet ledger credit attempts by sink and result.",
		}, []string{"sink", "result"}),
		rateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by a rate limiter.",
		}, []string{"scope"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "db_query_duration_seconds",
			Help:      "SQLite query latency by query name.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"query"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.durations,
		m.configResponses,
		m.purchaseOutcomes,
		m.ledgerAttempts,
		m.rateLimitRejected,
		m.dbQueryDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EchoMiddleware records request counts and durations per route.
func (m *Metrics) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := resolvedRoute(c)
			method := c.Request().Method
			m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			m.durations.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) ConfigResponse(outcome string) {
	if m == nil {
		return
	}
	m.configResponses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PurchaseOutcome(outcome string) {
	if m == nil {
		return
	}
	m.purchaseOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LedgerAttempt(sink, result string) {
	if m == nil {
		return
	}
	m.ledgerAttempts.WithLabelValues(sink, result).Inc()
}

func (m *Metrics) RateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimitRejected.WithLabelValues(scope).Inc()
}

// ObserveQuery implements the database query observer hook.
func (m *Metrics) ObserveQuery(name string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(name).Observe(duration.Seconds())
}
