// Package endpoint holds the built-in operational endpoints.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cemint/cemint-insights/component"
)

// HealthChecker reports the health of the running components.
type HealthChecker func(ctx context.Context) component.Report

// healthResponse is the /health body.
type healthResponse struct {
	component.Report
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// Health answers with the aggregated component report. An unhealthy report
// is served as 503 so load balancers drop the instance; degraded stays 200.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep := component.NewReport(nil)
		if checker != nil {
			rep = checker(c.Request.Context())
		}

		code := http.StatusOK
		if rep.Status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, healthResponse{
			Report:    rep,
			Service:   serviceName,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
