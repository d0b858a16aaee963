package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wncfund/proposalkit/config"
)

// responseCache is an optional redis-backed cache of final responses keyed
// by a hash of the normalized request. A nil cache is a no-op, and cache
// errors only cost the hit: they never fail the request.
type responseCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func newResponseCache(cfg config.CacheConfig, logger *log.Logger) (*responseCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Pass,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Host, cfg.Port, err)
	}
	return &responseCache{rdb: rdb, ttl: cfg.TTL, logger: logger}, nil
}

func cacheKey(route string, req generateRequest) string {
	payload, _ := json.Marshal(struct {
		Route string
		Req   generateRequest
	}{route, req})
	sum := sha256.Sum256(payload)
	return "proposalkit:resp:" + hex.EncodeToString(sum[:])
}

func (c *responseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Printf("cache get: %v", err)
		}
		return nil, false
	}
	return b, true
}

func (c *responseCache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Printf("cache set: %v", err)
	}
}
