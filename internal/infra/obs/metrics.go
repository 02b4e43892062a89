package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service registry and the collectors other components report to.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests          *prometheus.CounterVec
	httpDuration          *prometheus.HistogramVec
	availabilityFallbacks *prometheus.CounterVec
	outboxRelayed         *prometheus.CounterVec
	pricingReloads        *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staybook_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.6, 1, 3, 6},
		}, []string{"method", "route"}),
		availabilityFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_availability_fallbacks_total",
			Help: "Calendar refreshes degraded to an open calendar, by cause.",
		}, []string{"cause"}),
		outboxRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_outbox_relayed_total",
			Help: "Outbox relay attempts by event and result.",
		}, []string{"event", "result"}),
		pricingReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staybook_pricing_reloads_total",
			Help: "Pricing configuration reloads by source and result.",
		}, []string{"source", "result"}),
	}
}

func (m *Metrics) ObserveAvailabilityFallback(cause string) {
	m.availabilityFallbacks.WithLabelValues(cause).Inc()
}

func (m *Metrics) ObserveRelay(event string, err error) {
	m.outboxRelayed.WithLabelValues(event, result(err)).Inc()
}

func (m *Metrics) ObservePricingReload(source string, err error) {
	m.pricingReloads.WithLabelValues(source, result(err)).Inc()
}

// GinMiddleware records request counts and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
