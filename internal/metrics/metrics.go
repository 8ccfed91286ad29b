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
	// APIRequestsTotal counts handled requests by route and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signance_api_requests_total",
		Help: "Total API requests by method, route and status code.",
	}, []string{"method", "endpoint", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "signance_api_request_duration_seconds",
		Help:    "API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// ScheduleResolutionsTotal counts resolver calls by mode (instant, date).
	ScheduleResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signance_schedule_resolutions_total",
		Help: "Schedule resolutions by mode.",
	}, []string{"mode"})

	ScheduleMatchedRules = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "signance_schedule_matched_rules",
		Help:    "Number of rules in effect per resolution.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})

	// NotificationsTotal counts change events handed to each sink.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signance_notifications_total",
		Help: "Change events delivered by sink and outcome.",
	}, []string{"sink", "outcome"})

	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signance_websocket_clients",
		Help: "Connected player websocket clients.",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		APIRequestDuration.WithLabelValues(c.Request.Method, endpoint, status).Observe(time.Since(start).Seconds())
		APIRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
	}
}
