// Package cache wraps the optional Redis connection. Hoffee uses it as the
// alternative driver for local state snapshots (STATE_DRIVER=redis) and for
// the terminal rate limiter. All helpers no-op safely when Redis is absent so
// the app keeps working offline.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoffee-app/hoffee/config"
)

var RDB *redis.Client
var Ctx = context.Background()

// Connect initialises the Redis client and verifies the connection with a
// ping. Returns an error so the caller can log a warning and fall back.
func Connect() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := RDB.Ping(Ctx).Err(); err != nil {
		RDB = nil // mark as unavailable so Get/Set/Del no-op safely
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	return nil
}

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a hit, false on miss or error.
func Get(key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(Ctx, key).Result()
	if err != nil {
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false
	}

	return true
}

// GetRaw retrieves the raw bytes stored under key.
func GetRaw(key string) ([]byte, bool) {
	if RDB == nil {
		return nil, false
	}
	val, err := RDB.Get(Ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores value under key for the given TTL (0 = no expiry).
func Set(key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return RDB.Set(Ctx, key, data, ttl).Err()
}

// SetRaw stores raw bytes under key for the given TTL (0 = no expiry).
func SetRaw(key string, data []byte, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}
	return RDB.Set(Ctx, key, data, ttl).Err()
}

// Del removes one or more keys.
func Del(keys ...string) error {
	if RDB == nil {
		return nil
	}
	return RDB.Del(Ctx, keys...).Err()
}
