// Package database establishes the PostgreSQL connections.
//
// It handles:
//   - building a DSN from config
//   - creating a pgx connection pool (pgxpool) with the configured limits
//   - wiring query tracing/logging (pgx tracelog) and New Relic (nrpgx5)
//   - opening GORM on top of that same pool
//   - applying the embedded schema migrations (tern)
package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/deppfellow/bookstore/internal/config"
	loggerConfig "github.com/deppfellow/bookstore/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Database wraps the pgx pool, the GORM handle running on it, and a logger
// for lifecycle messages.
type Database struct {
	Pool *pgxpool.Pool
	ORM  *gorm.DB
	log  *zerolog.Logger
}

// multiTracer chains pgx query tracers, since pgx accepts a single one.
type multiTracer struct {
	tracers []any
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryStart(context.Context, *pgx.Conn, pgx.TraceQueryStartData) context.Context
		}); ok {
			ctx = t.TraceQueryStart(ctx, conn, data)
		}
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

// DatabasePingTimeout is the number of seconds to wait for the startup ping.
const DatabasePingTimeout = 10

// DSN builds the postgres URL for cfg, escaping the credentials.
func DSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

func poolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	pgxPoolConfig, err := pgxpool.ParseConfig(DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	db := cfg.Database
	pgxPoolConfig.MaxConns = int32(db.MaxOpenConns)
	pgxPoolConfig.MinConns = int32(min(db.MaxIdleConns, db.MaxOpenConns))
	if db.ConnMaxLifetime > 0 {
		pgxPoolConfig.MaxConnLifetime = time.Duration(db.ConnMaxLifetime) * time.Second
	}
	if db.ConnMaxIdleTime > 0 {
		pgxPoolConfig.MaxConnIdleTime = time.Duration(db.ConnMaxIdleTime) * time.Second
	}

	return pgxPoolConfig, nil
}

// New creates the instrumented pool, pings it and opens GORM on it.
//
// New Relic tracing is attached when the agent runs; in the local
// environment every query is also logged through pgx-zerolog, chained with
// New Relic when both apply.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	pgxPoolConfig, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	if loggerService.GetApplication() != nil {
		pgxPoolConfig.ConnConfig.Tracer = nrpgx5.NewTracer()
	}

	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		localTracer := &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(loggerConfig.NewPgxLogger(globalLevel)),
			LogLevel: loggerConfig.GetPgxTraceLogLevel(globalLevel),
		}

		if pgxPoolConfig.ConnConfig.Tracer != nil {
			pgxPoolConfig.ConnConfig.Tracer = &multiTracer{
				tracers: []any{pgxPoolConfig.ConnConfig.Tracer, localTracer},
			}
		} else {
			pgxPoolConfig.ConnConfig.Tracer = localTracer
		}
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	orm, err := openORM(pool, *logger, cfg.Observability.Logging.SlowQueryThreshold)
	if err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info().Msg("connected to the database")

	return &Database{
		Pool: pool,
		ORM:  orm,
		log:  logger,
	}, nil
}

// openORM runs GORM on the pool through database/sql, so queries share the
// pool's tracers and limits.
func openORM(pool *pgxpool.Pool, logger zerolog.Logger, slowThreshold time.Duration) (*gorm.DB, error) {
	orm, err := gorm.Open(postgres.New(postgres.Config{
		Conn: stdlib.OpenDBFromPool(pool),
	}), &gorm.Config{
		Logger:                 loggerConfig.NewGormLogger(logger, slowThreshold),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return orm, nil
}

// Close releases the database/sql handle and the pool.
func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")

	if db.ORM != nil {
		if sqlDB, err := db.ORM.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	db.Pool.Close()

	return nil
}
