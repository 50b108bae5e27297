package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deppfellow/bookstore/internal/config"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedEcho(cfg config.RateLimitConfig) *echo.Echo {
	s := testServer("test")
	s.Config.RateLimit = cfg

	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(s).GlobalErrorHandler
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/api/v1/genres", func(c echo.Context) error {
		return c.JSON(http.StatusOK, []string{})
	})
	return e
}

func get(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/genres", nil)
	req.RemoteAddr = ip + ":4000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMemoryStore(t *testing.T) {
	e := limitedEcho(config.RateLimitConfig{Enabled: true, Rate: 1, Burst: 2})

	assert.Equal(t, http.StatusOK, get(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, get(e, "10.0.0.1").Code)

	rec := get(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "TOO_MANY_REQUESTS", decodeError(t, rec).Code)

	assert.Equal(t, http.StatusOK, get(e, "10.0.0.2").Code, "clients are limited independently")
}

func TestRateLimitDisabled(t *testing.T) {
	for _, cfg := range []config.RateLimitConfig{
		{Enabled: false, Rate: 1, Burst: 1},
		{Enabled: true, Rate: 0, Burst: 1},
	} {
		e := limitedEcho(cfg)
		for range 5 {
			require.Equal(t, http.StatusOK, get(e, "10.0.0.1").Code)
		}
	}
}

func TestRedisRateLimiterStoreWindows(t *testing.T) {
	logger := zerolog.Nop()
	store := NewRedisRateLimiterStore(nil, 10, time.Minute, &logger)

	store.now = func() time.Time { return time.Unix(120, 0) }
	first := store.key("10.0.0.1")
	store.now = func() time.Time { return time.Unix(179, 0) }
	assert.Equal(t, first, store.key("10.0.0.1"), "same window")

	store.now = func() time.Time { return time.Unix(180, 0) }
	assert.NotEqual(t, first, store.key("10.0.0.1"))
	assert.Equal(t, "bookstore:ratelimit:10.0.0.1:3", store.key("10.0.0.1"))
}

func TestRedisRateLimiterStoreFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 20 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.Nop()
	store := NewRedisRateLimiterStore(client, 1, time.Second, &logger)

	for range 3 {
		allowed, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}
