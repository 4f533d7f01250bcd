package equivalency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/model"
)

// CacheKey identifies one resolution query.
type CacheKey struct {
	HouseholdID string
	Name        model.FoodName
}

// String renders the key for string-keyed backends.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%s", k.HouseholdID, k.Name)
}

// CacheEntry holds both tiers fetched for one key. The tiers are always stored and
// evicted together so a household override can never outlive its system default.
type CacheEntry struct {
	Household []model.EquivalencyEdge `json:"household"`
	System    []model.EquivalencyEdge `json:"system"`
}

// Cache sits in front of the Store. Implementations must honor a positive TTL.
type Cache interface {
	Get(ctx context.Context, key CacheKey) (CacheEntry, bool, error)
	Set(ctx context.Context, key CacheKey, entry CacheEntry) error
	Invalidate(ctx context.Context, key CacheKey) error
	InvalidateAll(ctx context.Context) error
}

type memoryEntry struct {
	expiry time.Time
	entry  CacheEntry
}

// MemoryCache is a thread-safe in-process Cache with a fixed TTL.
type MemoryCache struct {
	entries  map[CacheKey]memoryEntry
	stopCh   chan struct{}
	now      func() time.Time
	ttl      time.Duration
	mu       sync.RWMutex
	stopOnce sync.Once
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache with the given TTL and starts its janitor.
func NewMemoryCache(ttl time.Duration) (*MemoryCache, error) {
	return newMemoryCache(ttl, time.Now)
}

func newMemoryCache(ttl time.Duration, now func() time.Time) (*MemoryCache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}

	cache := &MemoryCache{
		entries: make(map[CacheKey]memoryEntry),
		ttl:     ttl,
		now:     now,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup(janitorInterval(ttl))

	return cache, nil
}

func janitorInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return ttl
	}
	return time.Minute
}

// Get retrieves an entry if it exists and hasn't expired.
func (c *MemoryCache) Get(_ context.Context, key CacheKey) (CacheEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stored, exists := c.entries[key]
	if !exists {
		return CacheEntry{}, false, nil
	}

	if c.now().After(stored.expiry) {
		return CacheEntry{}, false, nil
	}

	return stored.entry, true, nil
}

// Set stores an entry.
func (c *MemoryCache) Set(_ context.Context, key CacheKey, entry CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		entry:  entry,
		expiry: c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate removes one key, dropping both tiers.
func (c *MemoryCache) Invalidate(_ context.Context, key CacheKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// InvalidateAll removes every entry.
func (c *MemoryCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CacheKey]memoryEntry)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, stored := range c.entries {
		if now.After(stored.expiry) {
			delete(c.entries, key)
		}
	}
}

// Close stops the janitor goroutine. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}
