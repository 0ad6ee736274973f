package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demoplan/demoplan/pkg/config"
	"github.com/demoplan/demoplan/pkg/logger"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(config.Default(), logger.NewForTests(), Options{})
}

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should expose every API group under the versioned base", func(t *testing.T) {
		s := testServer(t)
		r := gin.New()
		require.NoError(t, s.registerRoutes(r))

		paths := make(map[string]bool)
		for _, route := range r.Routes() {
			paths[route.Method+" "+route.Path] = true
		}
		expected := []string{
			"POST /api/v0/scheduler/runs",
			"GET /api/v0/scheduler/runs",
			"GET /api/v0/scheduler/runs/:run_id",
			"POST /api/v0/scheduler/runs/:run_id/approve",
			"POST /api/v0/scheduler/runs/:run_id/reject",
			"PUT /api/v0/scheduler/proposals/:proposal_id",
			"POST /api/v0/schedules",
			"POST /api/v0/schedules/trade",
			"GET /api/v0/events",
			"GET /api/v0/employees",
			"GET /api/v0/rotations",
			"PUT /api/v0/rotations",
			"GET /api/v0/sync/status",
			"POST /api/v0/sync/trigger",
			"GET /api/v0/audit",
			"GET /api/v0/health",
			"GET /metrics",
		}
		for _, want := range expected {
			assert.True(t, paths[want], "missing route %s", want)
		}
	})
}

func TestCreateHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should report degraded when the store is not initialized", func(t *testing.T) {
		s := testServer(t)
		r := gin.New()
		r.GET("/health", CreateHealthHandler(s, "test"))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"degraded"`)
		assert.Contains(t, w.Body.String(), `"version":"test"`)
	})
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should pass the request through and attach a logger", func(t *testing.T) {
		r := gin.New()
		r.Use(LoggerMiddleware(logger.NewForTests()))
		r.GET("/ping", func(c *gin.Context) {
			log := logger.FromContext(c.Request.Context())
			require.NotNil(t, log)
			c.String(http.StatusOK, "pong")
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping?verbose=1", http.NoBody)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", w.Body.String())
	})
}
