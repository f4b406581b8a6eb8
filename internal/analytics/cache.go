package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores computed snapshots by window key.
type Cache interface {
	Get(ctx context.Context, key string) (Snapshot, bool, error)
	Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[string]cached
}

type cached struct {
	snap      Snapshot
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now, entries: make(map[string]cached)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Snapshot, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || (!entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt)) {
		return Snapshot{}, false, nil
	}
	return entry.snap, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, snap Snapshot, ttl time.Duration) error {
	entry := cached{snap: snap}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

// RedisCache stores snapshots as JSON under a key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "studio-desk:analytics:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Snapshot, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("read analytics snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode analytics snapshot: %w", err)
	}
	return snap, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode analytics snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("write analytics snapshot: %w", err)
	}
	return nil
}
