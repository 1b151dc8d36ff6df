package entitlement

import (
	"context"
	"maps"
	"sync"
	"time"
)

// sessionEntry holds one principal's counters plus the access time used by
// cleanup to drop abandoned sessions.
type sessionEntry struct {
	counters   map[FeatureKey]Counter
	lastAccess time.Time
}

// MemorySessionStore implements SessionStore with in-process storage. It is
// the default for single-instance deployments and tests; use the redisstore
// package when counters must survive restarts or be shared across instances.
type MemorySessionStore struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry

	maxIdle         time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// MemorySessionStoreOption configures a MemorySessionStore.
type MemorySessionStoreOption func(*MemorySessionStore)

// WithCleanupInterval sets how often abandoned sessions are collected.
// Set to 0 to disable automatic cleanup.
func WithCleanupInterval(interval time.Duration) MemorySessionStoreOption {
	return func(ms *MemorySessionStore) {
		ms.cleanupInterval = interval
	}
}

// WithMaxIdle sets how long a session may go untouched before cleanup drops it.
func WithMaxIdle(d time.Duration) MemorySessionStoreOption {
	return func(ms *MemorySessionStore) {
		ms.maxIdle = d
	}
}

// NewMemorySessionStore creates an in-memory session store with optional cleanup.
func NewMemorySessionStore(opts ...MemorySessionStoreOption) *MemorySessionStore {
	ms := &MemorySessionStore{
		entries:         make(map[string]*sessionEntry),
		maxIdle:         48 * time.Hour,
		cleanupInterval: 15 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}

	return ms
}

// Get returns a copy of all counters for the principal key.
func (ms *MemorySessionStore) Get(ctx context.Context, key string) (map[FeatureKey]Counter, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entry, ok := ms.entries[key]
	if !ok {
		return map[FeatureKey]Counter{}, nil
	}
	return maps.Clone(entry.counters), nil
}

// Increment adds one unit to a feature counter and returns the new used count.
func (ms *MemorySessionStore) Increment(ctx context.Context, key string, feature FeatureKey, anchor time.Time) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry := ms.touch(key)
	c := entry.counters[feature]
	if c.PeriodAnchor.IsZero() {
		c.PeriodAnchor = anchor
	}
	c.Used++
	entry.counters[feature] = c
	return c.Used, nil
}

// Set overwrites a feature counter.
func (ms *MemorySessionStore) Set(ctx context.Context, key string, feature FeatureKey, c Counter) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.touch(key).counters[feature] = c
	return nil
}

// Clear drops all counters for the principal key.
func (ms *MemorySessionStore) Clear(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, key)
	return nil
}

// Close stops the background cleanup goroutine.
func (ms *MemorySessionStore) Close() error {
	if ms.cleanupInterval > 0 {
		close(ms.stopCleanup)
	}
	return nil
}

// touch returns the entry for key, creating it if needed. Caller must hold the write lock.
func (ms *MemorySessionStore) touch(key string) *sessionEntry {
	entry, ok := ms.entries[key]
	if !ok {
		entry = &sessionEntry{counters: make(map[FeatureKey]Counter)}
		ms.entries[key] = entry
	}
	entry.lastAccess = time.Now()
	return entry
}

func (ms *MemorySessionStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-ms.maxIdle)
			ms.mu.Lock()
			for key, entry := range ms.entries {
				if entry.lastAccess.Before(cutoff) {
					delete(ms.entries, key)
				}
			}
			ms.mu.Unlock()
		case <-ms.stopCleanup:
			return
		}
	}
}
