package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/prometheus"
)

// RequestLogger logs one line per request and records HTTP metrics when
// metrics is non-nil.
func RequestLogger(log logging.Logger, metrics *prometheus.AppMetrics) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if metrics != nil {
			metrics.HTTPActiveRequests.WithLabelValues().Inc()
		}

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()

		if metrics != nil {
			metrics.HTTPActiveRequests.WithLabelValues().Dec()
			metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(elapsed.Seconds())
		}

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("duration", elapsed),
			logging.String("request_id", GetRequestID(c)),
			logging.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("request completed", fields...)
		case status >= 400:
			log.Warn("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
