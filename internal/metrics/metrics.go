package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookshop",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookshop",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CheckoutsTotal counts checkout attempts by payment method.
	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookshop",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by payment method",
		},
		[]string{"method"},
	)

	// SettlementsTotal counts payment settlements by source (verify|callback) and outcome.
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookshop",
			Name:      "payment_settlements_total",
			Help:      "Payment settlements by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// RefundsTotal counts processed refunds.
	RefundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookshop",
			Name:      "refunds_total",
			Help:      "Refunds processed",
		},
	)

	// GatewayCircuitState tracks the payment gateway breaker (0=closed, 1=open, 2=half-open).
	GatewayCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bookshop",
			Name:      "payment_gateway_circuit_state",
			Help:      "Payment gateway circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
	)
)

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
