// Package metrics provides Prometheus metrics for FoxOps
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal tracks inbound requests by route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foxops",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "foxops",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// FormSubmissionsTotal tracks public form submissions by outcome
	FormSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foxops",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Total number of public form submissions by outcome",
		},
		[]string{"outcome"},
	)

	// APIKeyVerificationsTotal tracks API key checks by result
	APIKeyVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foxops",
			Subsystem: "apikeys",
			Name:      "verifications_total",
			Help:      "Total number of API key verifications by result",
		},
		[]string{"result"},
	)

	// RateLimitedTotal tracks requests rejected by the per-key limiter
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foxops",
			Subsystem: "apikeys",
			Name:      "rate_limited_total",
			Help:      "Total number of API requests rejected by rate limits",
		},
		[]string{"window"},
	)

	// LocationsIngestedTotal tracks locations created through the public API
	LocationsIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "foxops",
			Subsystem: "locations",
			Name:      "ingested_total",
			Help:      "Total number of locations created through the API",
		},
	)
)

// Submission outcomes
const (
	OutcomeSubmission = "submission"
	OutcomeLocation   = "location"
	OutcomeInvalid    = "invalid"
	OutcomeError      = "error"
)

// Middleware records request count and latency per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
