package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store counts hits per key inside a fixed window.
type Store interface {
	// Incr adds one hit to key and returns the count so far together with
	// the time left until the window resets. The window starts at the first hit.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type entry struct {
	count int64
	reset time.Time
}

// MemoryStore keeps counters in process memory.
type MemoryStore struct {
	mu           sync.Mutex
	entries      map[string]*entry
	now          func() time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

// NewMemoryStore starts a store that drops expired windows every cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	m := &MemoryStore{
		entries:     make(map[string]*entry),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go m.startCleanup(cleanupInterval)
	return m
}

func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[key]
	if !ok || !now.Before(e.reset) {
		e = &entry{reset: now.Add(window)}
		m.entries[key] = e
	}
	e.count++
	return e.count, e.reset.Sub(now), nil
}

func (m *MemoryStore) startCleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.cleanupExpired()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *MemoryStore) cleanupExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.reset) {
			delete(m.entries, k)
		}
	}
}

// Len returns the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stop ends the cleanup goroutine.
func (m *MemoryStore) Stop() {
	m.shutdownOnce.Do(func() { close(m.stopCleanup) })
}

// RedisStore shares counters between processes through Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

// DialRedis parses a redis:// URL, connects and pings.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// incrScript bumps the counter and starts the window on the first hit, or on
// a key that lost its expiry, in one round trip.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

func (r *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	key = r.prefix + key
	res, err := incrScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("redis incr %s: unexpected reply %v", key, res)
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
