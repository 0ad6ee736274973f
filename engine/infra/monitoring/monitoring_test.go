package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddleware(t *testing.T) {
	t.Run("Should expose request counts on the metrics endpoint", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(GinMiddleware())
		r.GET("/api/v0/events/:ref_num", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		r.GET("/metrics", gin.WrapH(Handler()))

		req := httptest.NewRequest(http.MethodGet, "/api/v0/events/607034", http.NoBody)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "demoplan_http_requests_total")
		// Parameterized routes are labeled by template, not concrete path.
		assert.Contains(t, string(body), "/api/v0/events/:ref_num")
		assert.False(t, strings.Contains(string(body), "/api/v0/events/607034"))
	})
}

func TestRecordRun(t *testing.T) {
	t.Run("Should accept all outcome counters", func(t *testing.T) {
		assert.NotPanics(t, func() {
			RecordRun("manual", "success", 5, 1, 2)
			RecordPush("push_new", "success")
			RecordPull("failed")
		})
	})
}
