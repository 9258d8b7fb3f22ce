// Package middleware contains shared Gin middleware used by the webhook
// transport layer.
//
// This file exposes Prometheus instrumentation. Metrics() measures HTTP
// request counts, latencies, in-flight concurrency, and response sizes with
// bounded label cardinality (method, registered route, status). On top of the
// transport metrics, two domain counters track webhook traffic itself:
// processed updates by action kind, and duplicate deliveries dropped by the
// dedup middleware. All collectors are safe for concurrent use.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is intentionally omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpRespSize captures response sizes in bytes by method and route path.
	// Buckets are tuned for small JSON payloads; webhook replies are tiny.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10,
				10 << 10, 25 << 10, 50 << 10,
				100 << 10, 250 << 10, 500 << 10,
			},
		},
		[]string{"method", "path"},
	)

	// webhookUpdates counts processed webhook updates by action kind
	// ("text" for free-text inputs).
	webhookUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_updates_total",
			Help: "Total number of processed webhook updates by action kind.",
		},
		[]string{"kind"},
	)

	// webhookDuplicates counts deliveries dropped as retransmissions.
	webhookDuplicates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_duplicate_deliveries_total",
			Help: "Total number of webhook deliveries dropped as duplicates.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize,
		webhookUpdates, webhookDuplicates)
}

// ObserveUpdate records one processed webhook update of the given kind.
// The webhook handler calls this after routing; kinds are the fixed action
// token vocabulary plus "text", so cardinality stays bounded.
func ObserveUpdate(kind string) {
	webhookUpdates.WithLabelValues(kind).Inc()
}

// ObserveDuplicateDelivery records one delivery dropped by the dedup layer.
func ObserveDuplicateDelivery() {
	webhookDuplicates.Inc()
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
// The "path" label uses the registered route (c.FullPath()) to avoid
// unbounded cardinality from raw URLs; when no route matched (404) it falls
// back to the raw path. The status label is the numeric code string.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		dur := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())
		size := c.Writer.Size() // -1 when unknown

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(dur)
		if size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
