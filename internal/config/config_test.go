package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Primary.Env)
	assert.False(t, cfg.Primary.IsDevelopment(), "error detail needs an explicit development env")
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Empty(t, cfg.Redis.Address)
	assert.True(t, cfg.RateLimit.Enabled)

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, cfg.Primary.Env, cfg.Observability.Environment)
	assert.Equal(t, 5*time.Second, cfg.Observability.HealthChecks.Timeout)
	assert.False(t, cfg.Observability.NewRelicEnabled())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("BOOKSTORE_PRIMARY.ENV", "production")
	t.Setenv("BOOKSTORE_SERVER.CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("BOOKSTORE_DATABASE.PORT", "6543")
	t.Setenv("BOOKSTORE_REDIS.ADDRESS", "localhost:6379")
	t.Setenv("BOOKSTORE_RATE_LIMIT.RATE", "2.5")
	t.Setenv("BOOKSTORE_OBSERVABILITY.LOGGING.SLOW_QUERY_THRESHOLD", "250ms")
	t.Setenv("BOOKSTORE_OBSERVABILITY.HEALTH_CHECKS.CHECKS", "database")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.InDelta(t, 2.5, cfg.RateLimit.Rate, 1e-9)
	assert.Equal(t, 250*time.Millisecond, cfg.Observability.Logging.SlowQueryThreshold)

	assert.True(t, cfg.Observability.IsProduction())
	assert.False(t, cfg.Primary.IsDevelopment())
	assert.True(t, cfg.Observability.HealthCheckEnabled("database"))
	assert.False(t, cfg.Observability.HealthCheckEnabled("redis"))
}

func TestLoadConfigDevelopmentOptIn(t *testing.T) {
	t.Setenv("BOOKSTORE_PRIMARY.ENV", "development")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Primary.IsDevelopment())
	assert.Equal(t, "development", cfg.Observability.Environment)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Run("environment", func(t *testing.T) {
		t.Setenv("BOOKSTORE_PRIMARY.ENV", "mars")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("log level", func(t *testing.T) {
		t.Setenv("BOOKSTORE_OBSERVABILITY.LOGGING.LEVEL", "chatty")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "invalid logging level")
	})

	t.Run("negative rate", func(t *testing.T) {
		t.Setenv("BOOKSTORE_RATE_LIMIT.RATE", "-1")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestIsDevelopment(t *testing.T) {
	for env, want := range map[string]bool{
		"local":       true,
		"development": true,
		"test":        false,
		"staging":     false,
		"production":  false,
	} {
		assert.Equal(t, want, Primary{Env: env}.IsDevelopment(), env)
	}
}

func TestGetLogLevel(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	cfg.Logging.Level = ""

	cfg.Environment = "production"
	assert.Equal(t, "info", cfg.GetLogLevel())

	cfg.Environment = "local"
	assert.Equal(t, "debug", cfg.GetLogLevel())

	cfg.Logging.Level = "warn"
	assert.Equal(t, "warn", cfg.GetLogLevel())
}
