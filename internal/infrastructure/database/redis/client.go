// Package redis provides the optional read-through result cache. The
// corpus is read-only, so cached responses can only go stale by
// re-ingestion, which the TTL covers.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atlaslab/studyatlas/internal/config"
	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
	apperrors "github.com/atlaslab/studyatlas/pkg/errors"
)

// NewClient connects and verifies a redis client from cfg.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCache, "ping redis %s", cfg.Addr)
	}

	logger.Info("redis cache ready", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return client, nil
}
