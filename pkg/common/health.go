package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DependencyStatus reports the outcome of a single dependency ping.
type DependencyStatus struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the /healthz payload. The pipeline cannot analyze
// anything without both Postgres and Redis, so a single failing dependency
// marks the whole service unhealthy.
type HealthResponse struct {
	Status       string                      `json:"status"`
	Service      string                      `json:"service"`
	Version      string                      `json:"version"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// HealthCheckWithDeps returns a health handler that pings every registered
// dependency and answers 503 when any of them is down.
func HealthCheckWithDeps(serviceName, version string, checks map[string]func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		deps := make(map[string]DependencyStatus, len(checks))

		for name, check := range checks {
			if err := check(); err != nil {
				deps[name] = DependencyStatus{Error: err.Error()}
				status = "unhealthy"
			} else {
				deps[name] = DependencyStatus{Healthy: true}
			}
		}

		code := http.StatusOK
		if status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, HealthResponse{
			Status:       status,
			Service:      serviceName,
			Version:      version,
			Dependencies: deps,
		})
	}
}
