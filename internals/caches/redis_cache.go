package caches

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// JSONCache: cache nilai JSON ber-TTL. Implementasi nil-safe: tanpa REDIS_URL
// semua Get miss dan Set/Delete no-op.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, v any)
	Delete(ctx context.Context, keys ...string)
}

type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisClient: parse REDIS_URL lalu ping. URL kosong → (nil, nil).
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse REDIS_URL")
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return client, nil
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, log *zap.Logger) *RedisCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl, log: log}
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("redis get", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		c.log.Warn("redis decode", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		c.log.Warn("redis encode", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		c.log.Warn("redis set", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		c.log.Warn("redis del", zap.Strings("keys", keys), zap.Error(err))
	}
}

// MemoryCache dipakai di test untuk memastikan invalidasi terjadi.
type MemoryCache struct {
	mu    sync.Mutex
	Items map[string][]byte
}

func NewMemoryCache() *MemoryCache { return &MemoryCache{Items: map[string][]byte{}} }

func (m *MemoryCache) GetJSON(_ context.Context, key string, dst any) bool {
	m.mu.Lock()
	raw, ok := m.Items[key]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return sonic.Unmarshal(raw, dst) == nil
}

func (m *MemoryCache) SetJSON(_ context.Context, key string, v any) {
	if raw, err := sonic.Marshal(v); err == nil {
		m.mu.Lock()
		m.Items[key] = raw
		m.mu.Unlock()
	}
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.Items, k)
	}
}
