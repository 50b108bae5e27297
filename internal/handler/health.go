package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/bookstore/internal/middleware"
	"github.com/deppfellow/bookstore/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HealthHandler reports whether the service and its dependencies are reachable.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// dependencyCheck pings one dependency. required marks checks whose failure
// makes the whole service unhealthy.
type dependencyCheck struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
}

func (h *HealthHandler) checks() []dependencyCheck {
	obs := h.server.Config.Observability

	var checks []dependencyCheck
	if obs.HealthCheckEnabled("database") {
		checks = append(checks, dependencyCheck{
			name:     "database",
			required: true,
			ping:     h.server.DB.Pool.Ping,
		})
	}
	if h.server.Redis != nil && obs.HealthCheckEnabled("redis") {
		checks = append(checks, dependencyCheck{
			name: "redis",
			ping: func(ctx context.Context) error {
				return h.server.Redis.Ping(ctx).Err()
			},
		})
	}
	return checks
}

// CheckHealth returns 200 with per-dependency results, or 503 when a required
// dependency is unreachable.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]any)
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true
	for _, check := range h.checks() {
		result, err := h.run(c.Request().Context(), check, &logger)
		checks[check.name] = result
		if err != nil && check.required {
			isHealthy = false
		}
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordFailure(map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

func (h *HealthHandler) run(parent context.Context, check dependencyCheck, logger *zerolog.Logger) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(parent, h.server.Config.Observability.HealthChecks.Timeout)
	defer cancel()

	checkStart := time.Now()
	err := check.ping(ctx)
	elapsed := time.Since(checkStart)

	if err != nil {
		logger.Error().
			Err(err).
			Str("check", check.name).
			Dur("response_time", elapsed).
			Msg("dependency health check failed")

		h.recordFailure(map[string]any{
			"check_type":       check.name,
			"operation":        "health_check",
			"error_type":       check.name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})

		result := map[string]any{
			"status":        "unhealthy",
			"response_time": elapsed.String(),
		}
		if !h.server.Config.Observability.IsProduction() {
			result["error"] = err.Error()
		}
		return result, err
	}

	return map[string]any{
		"status":        "healthy",
		"response_time": elapsed.String(),
	}, nil
}

func (h *HealthHandler) recordFailure(attrs map[string]any) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", attrs)
	}
}
