package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atlaslab/studyatlas/internal/infrastructure/monitoring/logging"
)

// ResultCache caches serialized retrieval results. A miss is (false, nil);
// cache failures degrade to misses so the store stays authoritative.
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Key derives a stable cache key from an operation name and its
// parameters. Parameters are hashed so arbitrary user input never appears
// in key space.
func Key(prefix, op string, params ...any) string {
	h := sha256.New()
	for _, p := range params {
		fmt.Fprintf(h, "%v|", p)
	}
	return fmt.Sprintf("%s:%s:%s", prefix, op, hex.EncodeToString(h.Sum(nil))[:16])
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// NewResultCache builds a redis-backed ResultCache. Entries expire after
// ttl plus up to 10% jitter so a cache flush does not synchronize refills.
func NewResultCache(client *redis.Client, ttl time.Duration, logger logging.Logger) ResultCache {
	return &redisCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.logger.Warn("cache get failed", logging.String("key", key), logging.Err(err))
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache entry corrupt, dropping", logging.String("key", key), logging.Err(err))
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	ttl := c.ttl + time.Duration(rand.Int63n(int64(c.ttl)/10+1))
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", logging.String("key", key), logging.Err(err))
	}
	return nil
}

type nopCache struct{}

// NewNopCache returns a ResultCache that never hits. Used when caching is
// disabled and in tests.
func NewNopCache() ResultCache { return nopCache{} }

func (nopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (nopCache) Set(context.Context, string, any) error         { return nil }
