package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	resp "property-listing/internal/transport/http/response"
)

var (
	httpReqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests"},
		[]string{"path", "method", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"path", "method"},
	)
	// 业务码和 HTTP 状态分开统计，envelope 永远是 200
	apiCodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "api_response_codes_total", Help: "Envelope codes returned by the API"},
		[]string{"path", "code"},
	)
)

func init() { prometheus.MustRegister(httpReqTotal, httpLatency, apiCodeTotal) }

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		// 未命中路由的一律归到 unmatched，防止扫描器把 label 撑爆
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpReqTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
		if code, ok := c.Get(resp.KeyCode); ok {
			apiCodeTotal.WithLabelValues(path, strconv.Itoa(code.(int))).Inc()
		}
	}
}
