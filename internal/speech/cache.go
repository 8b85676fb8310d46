package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores synthesized audio by key
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, audio []byte, ttl time.Duration) error
}

// RedisCache keeps audio in Redis under a key prefix
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps an existing Redis client
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "tts:"}
}

// Get returns the cached audio and whether it was found
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	audio, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached audio: %w", err)
	}
	return audio, true, nil
}

// Set stores audio for ttl, zero meaning no expiry
func (c *RedisCache) Set(ctx context.Context, key string, audio []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, audio, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache audio: %w", err)
	}
	return nil
}

type memoryEntry struct {
	audio     []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache used when Redis is not configured
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached audio and whether it was found. Expired entries
// are dropped on access.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.audio...), true, nil
}

// Set stores audio for ttl, zero meaning no expiry
func (c *MemoryCache) Set(ctx context.Context, key string, audio []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{audio: append([]byte(nil), audio...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}
