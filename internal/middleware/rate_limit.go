package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/deppfellow/bookstore/internal/errs"
	"github.com/deppfellow/bookstore/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	rateLimitKeyPrefix   = "bookstore:ratelimit:"
	rateLimitRedisBudget = 100 * time.Millisecond
	rateLimitMemoryTTL   = 3 * time.Minute
)

type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Limit enforces the configured per-client rate. Clients are identified by
// their real ip. With Redis configured the budget is shared across replicas
// through a fixed window of Burst requests per Burst/Rate seconds; otherwise
// every replica keeps its own token bucket in memory.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	cfg := r.server.Config.RateLimit
	if !cfg.Enabled || cfg.Rate <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	burst := max(cfg.Burst, int(math.Ceil(cfg.Rate)))

	var (
		store      middleware.RateLimiterStore
		retryAfter int
	)
	if r.server.Redis != nil {
		window := time.Duration(float64(burst) / cfg.Rate * float64(time.Second))
		store = NewRedisRateLimiterStore(r.server.Redis, int64(burst), window, r.server.Logger)
		retryAfter = int(math.Ceil(window.Seconds()))
	} else {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.Rate),
			Burst:     burst,
			ExpiresIn: rateLimitMemoryTTL,
		})
		retryAfter = int(math.Ceil(1 / cfg.Rate))
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errs.NewBadRequestError("Unable to identify client", false, nil, nil, nil)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			GetLogger(c).Warn().
				Str("client", identifier).
				Msg("rate limit exceeded")

			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			return errs.NewTooManyRequestsError(retryAfter)
		},
	})
}

// RecordRateLimitHit records a RateLimitHit event in New Relic.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if app := r.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("RateLimitHit", map[string]any{
			"endpoint": endpoint,
		})
	}
}

// RedisRateLimiterStore is a fixed-window middleware.RateLimiterStore.
// Redis failures let the request through.
type RedisRateLimiterStore struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *zerolog.Logger
	now    func() time.Time
}

func NewRedisRateLimiterStore(client *redis.Client, limit int64, window time.Duration, logger *zerolog.Logger) *RedisRateLimiterStore {
	return &RedisRateLimiterStore{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

func (s *RedisRateLimiterStore) key(identifier string) string {
	slot := s.now().UnixNano() / int64(s.window)
	return fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, identifier, slot)
}

// Allow implements middleware.RateLimiterStore.
func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rateLimitRedisBudget)
	defer cancel()

	key := s.key(identifier)

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		return true, nil
	}

	return count.Val() <= s.limit, nil
}
