package cache

import (
	"container/heap"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// MemoryCache implements Cache in process memory.
// All data is lost when the process exits. It is shared by every request
// handled by this process, which is sufficient for single-instance deployments.
type MemoryCache struct {
	// entries maps key to value and deadline.
	entries map[string]*memoryEntry

	// byExpiry orders entries by deadline for cleanup and eviction.
	byExpiry expiryHeap

	// mu protects entries and byExpiry.
	mu sync.Mutex

	maxEntries      int
	cleanupInterval time.Duration
	now             func() time.Time

	done      chan struct{}
	closeOnce sync.Once
	closed    bool
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	index     int
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryConfig configures the memory backend.
type MemoryConfig struct {
	// MaxEntries is the maximum number of entries.
	// The entry closest to expiry is evicted when this limit is reached.
	// Default: 100,000
	MaxEntries int

	// CleanupInterval is how often to sweep expired entries.
	// Default: 1 minute
	CleanupInterval time.Duration

	// Clock overrides time.Now. Used by tests.
	Clock func() time.Time
}

// NewMemoryCache creates a memory cache with default settings.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithConfig(MemoryConfig{})
}

// NewMemoryCacheWithConfig creates a memory cache with custom configuration.
func NewMemoryCacheWithConfig(cfg MemoryConfig) *MemoryCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100000
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	c := &MemoryCache{
		entries:         make(map[string]*memoryEntry),
		maxEntries:      cfg.MaxEntries,
		cleanupInterval: cfg.CleanupInterval,
		now:             cfg.Clock,
		done:            make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

// Get returns the value for key.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false, ErrClosed
	}

	entry, ok := c.entries[key]
	if !ok || entry.expired(c.now()) {
		return nil, false, nil
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

// Set stores value under key.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.storeLocked(key, value, expiry(c.now(), ttl))
	return nil
}

// Add stores value only if key is absent or expired.
func (c *MemoryCache) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}

	now := c.now()
	if entry, ok := c.entries[key]; ok && !entry.expired(now) {
		return false, nil
	}

	c.storeLocked(key, value, expiry(now, ttl))
	return true, nil
}

// Incr atomically increments the counter under key.
func (c *MemoryCache) Incr(ctx context.Context, key string, ttl time.Duration) (Counter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Counter{}, ErrClosed
	}

	now := c.now()
	entry, ok := c.entries[key]
	if !ok || entry.expired(now) {
		deadline := expiry(now, ttl)
		c.storeLocked(key, []byte("1"), deadline)
		return Counter{Value: 1, ExpiresAt: deadline}, nil
	}

	n, err := strconv.ParseInt(string(entry.value), 10, 64)
	if err != nil {
		return Counter{}, fmt.Errorf("%w: %q", ErrNotCounter, key)
	}
	n++

	entry.value = []byte(strconv.FormatInt(n, 10))

	return Counter{Value: n, ExpiresAt: entry.expiresAt}, nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.removeLocked(key)
	return nil
}

// Ping reports whether the cache is open.
func (c *MemoryCache) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return nil
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
	return nil
}

// Len returns the number of stored entries, including expired entries not
// yet swept. Useful for monitoring and tests.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup removes expired entries and returns how many were removed.
func (c *MemoryCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for len(c.byExpiry) > 0 && c.byExpiry[0].expired(now) {
		c.removeLocked(c.byExpiry[0].key)
		removed++
	}
	return removed
}

// storeLocked writes an entry, evicting if the cache is full.
// Caller must hold mu.
func (c *MemoryCache) storeLocked(key string, value []byte, deadline time.Time) {
	stored := make([]byte, len(value))
	copy(stored, value)

	if entry, exists := c.entries[key]; exists {
		entry.value = stored
		entry.expiresAt = deadline
		heap.Fix(&c.byExpiry, entry.index)
		return
	}

	if len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}

	entry := &memoryEntry{key: key, value: stored, expiresAt: deadline}
	c.entries[key] = entry
	heap.Push(&c.byExpiry, entry)
}

// evictLocked drops the entry closest to expiry, which is an expired entry
// when there is one. Entries without expiry are evicted last.
// Caller must hold mu.
func (c *MemoryCache) evictLocked() {
	if len(c.byExpiry) > 0 {
		c.removeLocked(c.byExpiry[0].key)
	}
}

// removeLocked deletes key from the map and the heap.
// Caller must hold mu.
func (c *MemoryCache) removeLocked(key string) {
	entry, ok := c.entries[key]
	if !ok {
		return
	}
	heap.Remove(&c.byExpiry, entry.index)
	delete(c.entries, key)
}

// expiryHeap is a min-heap on expiresAt with zero deadlines ordered last.
type expiryHeap []*memoryEntry

func (h expiryHeap) Len() int { return len(h) }

func (h expiryHeap) Less(i, j int) bool {
	a, b := h[i].expiresAt, h[j].expiresAt
	switch {
	case a.IsZero():
		return false
	case b.IsZero():
		return true
	default:
		return a.Before(b)
	}
}

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x any) {
	entry := x.(*memoryEntry)
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*h = old[:n-1]
	return entry
}

// cleanupLoop runs periodic cleanup of expired entries.
func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-c.done:
			return
		}
	}
}
