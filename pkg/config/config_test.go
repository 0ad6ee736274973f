package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should load defaults when no environment is set", func(t *testing.T) {
		cfg, err := Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 21, cfg.Scheduler.WindowDays)
		assert.Equal(t, []string{"09:45", "10:30", "11:00", "11:30"}, cfg.Scheduler.CoreSlots)
		assert.Equal(t, 3, cfg.Sync.PushMaxAttempts)
		assert.Equal(t, 60*time.Second, cfg.Sync.PushBackoffBase)
		assert.Equal(t, 30*time.Second, cfg.Upstream.RequestTimeout)
		assert.Equal(t, time.Hour, cfg.Upstream.SessionRefresh)
	})
	t.Run("Should overlay environment variables over defaults", func(t *testing.T) {
		t.Setenv("DEMOPLAN_SCHEDULER_WINDOW_DAYS", "14")
		t.Setenv("DEMOPLAN_SERVER_PORT", "9090")
		t.Setenv("DEMOPLAN_UPSTREAM_BASE_URL", "https://staging.mvretail.example")
		cfg, err := Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 14, cfg.Scheduler.WindowDays)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "https://staging.mvretail.example", cfg.Upstream.BaseURL)
	})
	t.Run("Should reject an invalid log level", func(t *testing.T) {
		t.Setenv("DEMOPLAN_RUNTIME_LOG_LEVEL", "verbose")
		_, err := Load(context.Background())
		assert.Error(t, err)
	})
}

func TestTransformEnvKey(t *testing.T) {
	t.Run("Should map section and preserve field underscores", func(t *testing.T) {
		assert.Equal(t, "scheduler.window_days", transformEnvKey("DEMOPLAN_SCHEDULER_WINDOW_DAYS"))
		assert.Equal(t, "database.conn_string", transformEnvKey("DEMOPLAN_DATABASE_CONN_STRING"))
		assert.Equal(t, "server.port", transformEnvKey("DEMOPLAN_SERVER_PORT"))
	})
}

func TestSensitiveString(t *testing.T) {
	t.Run("Should redact in String and JSON output", func(t *testing.T) {
		s := SensitiveString("hunter2")
		assert.Equal(t, "[REDACTED]", s.String())
		b, err := s.MarshalJSON()
		require.NoError(t, err)
		assert.NotContains(t, string(b), "hunter2")
		assert.Equal(t, "hunter2", s.Value())
	})
}

func TestContext(t *testing.T) {
	t.Run("Should round-trip config through a context", func(t *testing.T) {
		cfg := Default()
		ctx := ContextWithConfig(context.Background(), cfg)
		assert.Same(t, cfg, FromContext(ctx))
	})
	t.Run("Should return nil for a bare context", func(t *testing.T) {
		assert.Nil(t, FromContext(context.Background()))
	})
}
