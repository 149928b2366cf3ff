package accesskit

import (
	"context"
	"sync"
	"time"
)

// DecisionKey identifies one memoized decision: the full request tuple.
type DecisionKey struct {
	UserID         string
	Resource       string
	Action         Action
	OrganizationID string
	GroupID        string
}

// String renders the key for string-keyed backends.
func (k DecisionKey) String() string {
	return k.UserID + "|" + k.Resource + "|" + string(k.Action) + "|" + k.OrganizationID + "|" + k.GroupID
}

// DecisionCache memoizes recent decisions. It is an explicitly owned,
// injectable component: the engine works without one, a cache miss always
// falls through to a full evaluation, and the cache is never the sole
// source of truth. Invalidation is coarse: any assignment mutation for a
// user drops every entry for that user — correctness over precision, since
// role changes are infrequent relative to checks. Entries also expire
// after a TTL to bound staleness from out-of-band data changes.
//
// Invalidation and Set are not ordered against each other: a check that
// loaded its assignments before a concurrent mutation committed may Set a
// stale decision after that mutation's invalidation ran. Such an entry is
// not dropped again; the TTL is the backstop that bounds how long it can
// be served.
type DecisionCache interface {
	Get(ctx context.Context, key DecisionKey) (*Decision, bool)
	Set(ctx context.Context, key DecisionKey, decision *Decision)
	InvalidateUser(ctx context.Context, userID string)
}

// MemoryCacheOption configures a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithCacheClock overrides the cache's time source for deterministic TTL
// behavior in tests.
func WithCacheClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

type cacheEntry struct {
	decision  Decision
	expiresAt time.Time
}

// MemoryCache is an in-process DecisionCache with TTL expiry. Entries are
// bucketed per user so invalidation is one map delete.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]map[string]cacheEntry // userID -> key -> entry
}

// NewMemoryCache creates an in-memory decision cache. A zero or negative
// TTL disables expiry (entries live until invalidation).
func NewMemoryCache(ttl time.Duration, opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the memoized decision for the key, if present and unexpired.
func (c *MemoryCache) Get(_ context.Context, key DecisionKey) (*Decision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byKey, ok := c.entries[key.UserID]
	if !ok {
		return nil, false
	}
	entry, ok := byKey[key.String()]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(c.now()) {
		return nil, false
	}

	d := entry.decision
	return &d, true
}

// Set memoizes a decision.
func (c *MemoryCache) Set(_ context.Context, key DecisionKey, decision *Decision) {
	if decision == nil {
		return
	}

	entry := cacheEntry{decision: *decision}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	byKey, ok := c.entries[key.UserID]
	if !ok {
		byKey = make(map[string]cacheEntry)
		c.entries[key.UserID] = byKey
	}
	byKey[key.String()] = entry
}

// InvalidateUser drops every entry for the user.
func (c *MemoryCache) InvalidateUser(_ context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Len returns the number of live users with cached decisions.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
