// Package postgres manages the PostgreSQL/PostGIS connection pool and
// hosts the StudyStore implementation.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaslab/studyatlas/internal/config"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
	apperrors "github.com/atlaslab/studyatlas/pkg/errors"
)

// NewPool builds, configures, and verifies a pgx connection pool.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "parse database config")
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "create connection pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase,
			"ping database %s:%d", cfg.Host, cfg.Port)
	}

	logger.Info("database pool ready",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.Name),
		logging.Int("max_conns", int(cfg.MaxConns)))

	return pool, nil
}
