package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OscarCarPu/life-manager/internal/circuitbreaker"
	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/logging"
	"github.com/OscarCarPu/life-manager/internal/retry"
	"github.com/OscarCarPu/life-manager/internal/tasks"
)

// RedisCache stores ranked recommendations as JSON with a TTL. When a
// circuit breaker is attached, reads and writes fail fast while Redis is
// unreachable.
type RedisCache struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
}

var _ tasks.Cache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	retryCfg := retry.ExponentialBackoff(3)
	retryCfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("redis not reachable, retrying", "addr", cfg.Addr, "attempt", attempt, "error", err.Error())
	}
	err := retry.RetryWithConfig(ctx, retryCfg, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	breaker := circuitbreaker.New(&circuitbreaker.Config{
		FailureThreshold:      5,
		SuccessThreshold:      1,
		Timeout:               30 * time.Second,
		MaxConcurrentRequests: 1,
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("recommendation cache circuit changed", "from", from.String(), "to", to.String())
		},
	})

	logger.Info("recommendation cache connected", "addr", cfg.Addr, "ttl", cfg.TTL().String())
	return NewRedisCacheWithClient(rdb, cfg.KeyPrefix, cfg.TTL()).WithCircuitBreaker(breaker), nil
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// WithCircuitBreaker guards cache calls with cb
func (c *RedisCache) WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) *RedisCache {
	c.breaker = cb
	return c
}

func (c *RedisCache) execute(ctx context.Context, fn func(context.Context) error) error {
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Execute(ctx, fn)
}

func (c *RedisCache) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get returns the cached ranking for key; ok is false on a miss
func (c *RedisCache) Get(ctx context.Context, key string) ([]tasks.Recommendation, bool, error) {
	var data []byte
	var miss bool
	err := c.execute(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, c.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if miss {
		return nil, false, nil
	}

	var recs []tasks.Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if recs == nil {
		recs = []tasks.Recommendation{}
	}
	return recs, true, nil
}

// Set stores a ranking under key
func (c *RedisCache) Set(ctx context.Context, key string, recs []tasks.Recommendation) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	err = c.execute(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Ping checks cache connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
