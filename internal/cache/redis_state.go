package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"home_energy_dashboard/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	deviceKeyFmt   = "device:state:%d"
	deviceIndexKey = "device:state:ids"
)

// redisClient is the subset of go-redis used by the cache.
type redisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Close() error
}

// RedisStateCache keeps the last known state of every device so a fresh
// dashboard can render switches before the first poll returns.
type RedisStateCache struct {
	rdb redisClient
	ttl time.Duration
}

// NewRedisStateCache connects and pings; a dead cache is reported to the caller,
// which runs without one.
func NewRedisStateCache(ctx context.Context, addr string, ttl time.Duration) (*RedisStateCache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", addr, err)
	}
	return newRedisStateCache(rdb, ttl), nil
}

func newRedisStateCache(rdb redisClient, ttl time.Duration) *RedisStateCache {
	return &RedisStateCache{rdb: rdb, ttl: ttl}
}

func deviceKey(id int) string {
	return fmt.Sprintf(deviceKeyFmt, id)
}

// Save stores one device. Entries expire after ttl so removed devices age out.
func (c *RedisStateCache) Save(ctx context.Context, d models.Device) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode device %d: %w", d.ID, err)
	}
	if err := c.rdb.Set(ctx, deviceKey(d.ID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache device %d: %w", d.ID, err)
	}
	if err := c.rdb.SAdd(ctx, deviceIndexKey, d.ID).Err(); err != nil {
		return fmt.Errorf("index device %d: %w", d.ID, err)
	}
	return nil
}

// Load returns every cached device ordered by id. Expired entries are skipped.
func (c *RedisStateCache) Load(ctx context.Context) ([]models.Device, error) {
	members, err := c.rdb.SMembers(ctx, deviceIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read device index: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = deviceKey(id)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read cached devices: %w", err)
	}

	out := make([]models.Device, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var d models.Device
		if err := json.Unmarshal([]byte(s), &d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *RedisStateCache) Close() error {
	return c.rdb.Close()
}
