package cache

import (
	"context"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/jmylchreest/staylens/internal/logger"
)

// DefaultCapacity replaces an invalid (non-positive) capacity.
const DefaultCapacity = 100

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process LRU cache with per-entry expiry.
type Memory struct {
	mu       sync.Mutex
	lru      *lru.Cache
	capacity int
	now      func() time.Time
}

// NewMemory returns a Memory cache holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		logger.Warn("invalid cache capacity, using default", "capacity", capacity, "default", DefaultCapacity)
		capacity = DefaultCapacity
	}
	return &Memory{
		lru:      lru.New(capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Capacity returns the maximum number of live entries.
func (m *Memory) Capacity() int {
	return m.capacity
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// Get returns the value for key. An expired entry is evicted and reported
// as a miss. Get updates recency, so it takes the exclusive lock.
func (m *Memory) Get(_ context.Context, key string) (value string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("cache read fault, treating as miss", "key", key, "panic", r)
			value, ok = "", false
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	raw, found := m.lru.Get(key)
	if !found {
		return "", false
	}
	e, valid := raw.(entry)
	if !valid || !m.now().Before(e.expiresAt) {
		m.lru.Remove(key)
		return "", false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl is ignored.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("cache write fault, skipping", "key", key, "panic", r)
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(key, entry{value: value, expiresAt: m.now().Add(ttl)})
}
