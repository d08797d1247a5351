package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "sqlite:myinvestments.db", cfg.DatabaseURL)
	assert.Equal(t, 15*time.Minute, cfg.QuoteTTL)
	assert.Equal(t, 30, cfg.LoginRatePerMinute)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ALLOW_CROSS_SITE_DEV", "TRUE")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("QUOTE_TTL", "2m")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.True(t, cfg.AllowCrossSiteDev)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.QuoteTTL)
	assert.Equal(t, 5, cfg.LoginRatePerMinute)
}

func TestLoad_BadLevelFallsBackToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}
