// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types, and validates that required values
// are present so they can be reused across the application runtime.
//
// Responsibilities:
//   - Provide defaults for every optional setting.
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config.
//   - Validate required values so the app fails fast on bad/missing config.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists it is loaded into the
	// process environment before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the BOOKSTORE_ prefix. Keys are lowercased, the
	prefix is removed and "." marks nesting:

		BOOKSTORE_DATABASE.HOST        -> database.host
		BOOKSTORE_SERVER.CORS_ALLOWED_ORIGINS="http://a,http://b"
		                               -> server.cors_allowed_origins = [a b]
*/

// EnvPrefix is the prefix every configuration variable must carry.
const EnvPrefix = "BOOKSTORE_"

// ServiceName identifies this service in logs and APM dashboards.
const ServiceName = "bookstore"

// listKeys are split on commas when read from the environment.
var listKeys = map[string]bool{
	"server.cors_allowed_origins":        true,
	"observability.health_checks.checks": true,
}

// Config is the root configuration object for the application.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=local development test staging production"`
}

// IsDevelopment reports whether error responses may carry internal detail.
func (p Primary) IsDevelopment() bool {
	return p.Env == "local" || p.Env == "development"
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
// ConnMaxLifetime and ConnMaxIdleTime are in seconds.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"min=0"`
	AutoMigrate     bool   `koanf:"auto_migrate"`
}

// RedisConfig contains Redis connection details.
// An empty Address disables Redis; rate limiting then falls back to memory.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// RateLimitConfig controls the global request limiter.
type RateLimitConfig struct {
	Enabled bool `koanf:"enabled"`
	// Rate is the number of requests per second allowed for one client.
	Rate float64 `koanf:"rate" validate:"gte=0"`
	// Burst is the number of requests a client may issue at once.
	Burst int `koanf:"burst" validate:"gte=0"`
}

func defaults() map[string]any {
	m := map[string]any{
		"primary.env": "production",

		"server.port":                 "8080",
		"server.read_timeout":         30,
		"server.write_timeout":        30,
		"server.idle_timeout":         60,
		"server.cors_allowed_origins": []string{"*"},

		"database.host":               "localhost",
		"database.port":               5432,
		"database.user":               "postgres",
		"database.name":               "bookstore",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  300,
		"database.conn_max_idle_time": 60,
		"database.auto_migrate":       true,

		"rate_limit.enabled": true,
		"rate_limit.rate":    20.0,
		"rate_limit.burst":   40,
	}
	for key, value := range observabilityDefaults() {
		m["observability."+key] = value
	}
	return m
}

// LoadConfig loads configuration from defaults and environment variables,
// unmarshals it into Config, validates it and returns the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading config defaults: %w", err)
	}

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if listKeys[key] {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return key, parts
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Observability is optional at the root; an absent block means defaults.
	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
