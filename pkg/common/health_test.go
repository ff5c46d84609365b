package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performHealthCheck(t *testing.T, checks map[string]func() error) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/healthz", HealthCheckWithDeps("validation", "1.0.0", checks))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealthCheckAllDependenciesHealthy(t *testing.T) {
	w, body := performHealthCheck(t, map[string]func() error{
		"database": func() error { return nil },
		"redis":    func() error { return nil },
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "validation", body.Service)
	assert.True(t, body.Dependencies["database"].Healthy)
	assert.True(t, body.Dependencies["redis"].Healthy)
}

func TestHealthCheckFailingDependencyReturns503(t *testing.T) {
	w, body := performHealthCheck(t, map[string]func() error{
		"database": func() error { return nil },
		"redis":    func() error { return errors.New("connection refused") },
	})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.True(t, body.Dependencies["database"].Healthy)
	assert.False(t, body.Dependencies["redis"].Healthy)
	assert.Equal(t, "connection refused", body.Dependencies["redis"].Error)
}
