package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cemint/cemint-insights/logger"
)

// SlowRequest marks interactive requests that took longer than this.
// ETL runs under /runs are expected to be slow and never flagged.
const SlowRequest = 500 * time.Millisecond

// ContextFields are copied from the gin context into the request log line
// when a handler has set them.
var ContextFields = []string{RequestIDKey, logger.FieldRunID, "model"}

// RequestLogger logs one line per request. Health endpoints are skipped.
// Failures log at error (5xx) or warn (4xx); successful POSTs log at info
// and everything else at debug.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isHealthEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		fields := logger.Fields(
			"method", c.Request.Method,
			logger.FieldPath, c.Request.URL.RequestURI(),
			"status", status,
			logger.FieldDuration, latency.Milliseconds(),
			"client", c.ClientIP(),
		)
		for _, k := range ContextFields {
			if v, ok := c.Get(k); ok {
				fields[k] = v
			}
		}
		if latency > SlowRequest && !strings.HasPrefix(c.FullPath(), "/runs") {
			fields["slow"] = true
		}
		if len(c.Errors) > 0 {
			fields[logger.FieldError] = c.Errors.String()
		}
		logFn(log, status, c.Request.Method)("request completed", fields)
	}
}

func isHealthEndpoint(path string) bool {
	return path == "/health" || path == "/api/health"
}

func logFn(log *logger.Logger, status int, method string) func(string, ...map[string]interface{}) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	switch {
	case status >= http.StatusInternalServerError:
		return log.Error
	case status >= http.StatusBadRequest:
		return log.Warn
	case method == http.MethodPost:
		return log.Info
	default:
		return log.Debug
	}
}
