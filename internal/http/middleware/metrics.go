// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file instruments inbound HTTP traffic with Prometheus. The path label
// is the registered Gin route (e.g. /api/v1/sessions/:id/messages) so that
// session ids never become label values; unmatched requests fall back to the
// raw URL path.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Message sends wait on the LLM, hence the long tail buckets.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8), // 256B..4MiB
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize)
}

// Metrics records request count, latency, in-flight gauge and response size.
// Requests to the skip paths (typically /metrics and /health) are not
// recorded.
func Metrics(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
