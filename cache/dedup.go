// Package cache remembers which P2WDB entries have already been handled.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "avax-dex:seen:"

// DefaultTTL is how long a delivery is remembered.
const DefaultTTL = 24 * time.Hour

// Redis de-duplicates keys across service instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the redis server at addr.
func NewRedis(addr string, ttl time.Duration) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	return &Redis{client: client, ttl: ttl}
}

// MarkSeen reports true the first time key is marked within the ttl.
func (r *Redis) MarkSeen(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, keyPrefix+key, time.Now().Unix(), r.ttl).Result()
}

// Ping checks the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Memory de-duplicates keys within this process.
type Memory struct {
	ttl  time.Duration
	now  func() time.Time
	lock sync.Mutex
	seen map[string]time.Time
}

// NewMemory returns an empty in-process de-duplicator.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

// MarkSeen reports true the first time key is marked within the ttl.
func (m *Memory) MarkSeen(ctx context.Context, key string) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	if at, ok := m.seen[key]; ok && now.Sub(at) < m.ttl {
		return false, nil
	}

	// Expired entries are dropped lazily.
	for k, at := range m.seen {
		if now.Sub(at) >= m.ttl {
			delete(m.seen, k)
		}
	}

	m.seen[key] = now
	return true, nil
}
