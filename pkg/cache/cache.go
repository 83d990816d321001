package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"printerp-service/pkg/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Cache key prefixes for list endpoints. Every mutation on an entity
// invalidates its list keys.
const (
	SuppliersKey = "printerp:suppliers"
	InventoryKey = "printerp:inventory"
)

var (
	rdb *redis.Client
	ttl time.Duration
)

// Init connects the optional redis list cache. Caching stays disabled when no
// REDIS_HOST is configured or the server is unreachable.
func Init(cfg *config.Config) {
	if cfg.Redis.Host == "" {
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		zap.L().Warn("Redis unavailable, list caching disabled", zap.Error(err))
		return
	}

	rdb = client
	ttl = cfg.Redis.TTL
	zap.L().Info("Redis connected", zap.String("addr", fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port)))
}

// Enabled reports whether the cache is active
func Enabled() bool {
	return rdb != nil
}

// GetJSON loads a cached value into dest and reports whether it was present
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if rdb == nil {
		return false
	}
	data, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// SetJSON stores a value under key with the configured TTL
func SetJSON(ctx context.Context, key string, value interface{}) {
	if rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = rdb.Set(ctx, key, data, ttl).Err()
}

// Invalidate removes the given keys
func Invalidate(ctx context.Context, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}
	_ = rdb.Del(ctx, keys...).Err()
}
