package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, IsolationReadCommitted, cfg.Database.TxIsolation)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxIdleTime)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 8, cfg.Password.MinLength)
	assert.True(t, cfg.Password.RequireLetterDigit)
	assert.Equal(t, 10, cfg.Reports.BestClassMinSample)
	assert.Equal(t, 30, cfg.Reports.AttendanceWindowDays)
	assert.False(t, cfg.Dashboard.CacheEnabled)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PASSWORD_MIN_LENGTH", "6")
	t.Setenv("PASSWORD_REQUIRE_LETTER_DIGIT", "false")
	t.Setenv("DB_TX_ISOLATION", "SERIALIZABLE")
	t.Setenv("REPORT_BEST_CLASS_MIN_SAMPLE", "25")
	t.Setenv("DASHBOARD_CACHE_TTL", "not-a-duration")
	t.Setenv("DB_CONNECT_TIMEOUT", "2s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Password.MinLength)
	assert.False(t, cfg.Password.RequireLetterDigit)
	assert.Equal(t, IsolationSerializable, cfg.Database.TxIsolation)
	assert.Equal(t, 25, cfg.Reports.BestClassMinSample)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestNormalizeIsolationFallsBack(t *testing.T) {
	assert.Equal(t, IsolationReadCommitted, normalizeIsolation("snapshot"))
	assert.Equal(t, IsolationRepeatableRead, normalizeIsolation(" repeatable_read "))
}
