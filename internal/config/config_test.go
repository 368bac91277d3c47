package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, "/api", cfg.App.BasePath)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, time.Hour, cfg.Auth.RefreshTokenTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Redis.CacheEnabled)
	assert.Zero(t, cfg.Worker.TokenSweepInterval())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_BASE_PATH", "v1/")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_MINUTES", "1440")
	t.Setenv("TOKEN_SWEEP_INTERVAL_SECONDS", "120")
	t.Setenv("REDIS_TOKEN_CACHE_ENABLED", "false")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, "/v1", cfg.App.BasePath)
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTokenTTL())
	assert.Equal(t, 2*time.Minute, cfg.Worker.TokenSweepInterval())
	assert.False(t, cfg.Redis.CacheEnabled)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestLoadRejectsRefreshShorterThanAccess(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "60")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL_MINUTES", "5")

	_, err := Load()
	require.Error(t, err)
}

func TestMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("AUTH_BCRYPT_COST", "strong")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestNormalizeBasePath(t *testing.T) {
	assert.Equal(t, "", normalizeBasePath("/"))
	assert.Equal(t, "", normalizeBasePath("  "))
	assert.Equal(t, "/api", normalizeBasePath("/api/"))
	assert.Equal(t, "/a/b", normalizeBasePath("a/b"))
}
