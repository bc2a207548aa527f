package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"invite-redemption/internal/usecase"
)

// CachedEntitlement fronts the entitlement evaluator with a bounded
// key -> (value, expiry) map. Concurrent lookups for the same identity are
// coalesced into a single storage read via singleflight.
//
// Redemption invalidates the claiming identity on commit, so the cache never
// serves a stale "not entitled" after a successful redemption.
type CachedEntitlement struct {
	inner usecase.EntitlementUseCase
	ttl   time.Duration
	max   int

	mu      sync.Mutex
	entries map[string]entry
	// gens advances per key on every Invalidate; a fetch carries the
	// generation it started under and may only install its result while
	// that generation is still current.
	gens  map[string]uint64
	group singleflight.Group
}

type entry struct {
	value  *usecase.Entitlement
	expiry time.Time
}

var _ usecase.EntitlementUseCase = (*CachedEntitlement)(nil)

func NewCachedEntitlement(inner usecase.EntitlementUseCase, ttl time.Duration, maxSize int) *CachedEntitlement {
	if maxSize <= 0 {
		maxSize = 4096
	}
	return &CachedEntitlement{
		inner:   inner,
		ttl:     ttl,
		max:     maxSize,
		entries: make(map[string]entry),
		gens:    make(map[string]uint64),
	}
}

func (c *CachedEntitlement) HasEntitlement(ctx context.Context, identityID string) (*usecase.Entitlement, error) {
	c.mu.Lock()
	if e, ok := c.entries[identityID]; ok && time.Now().Before(e.expiry) {
		c.mu.Unlock()
		return e.value, nil
	}
	gen := c.gens[identityID]
	c.mu.Unlock()

	v, err, _ := c.group.Do(identityID, func() (interface{}, error) {
		ent, err := c.inner.HasEntitlement(ctx, identityID)
		if err != nil {
			return nil, err
		}
		c.put(identityID, ent, gen)
		return ent, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*usecase.Entitlement), nil
}

// RequirePlan is not cached; feature gates that need tiering read through.
func (c *CachedEntitlement) RequirePlan(ctx context.Context, identityID, plan string) (bool, error) {
	return c.inner.RequirePlan(ctx, identityID, plan)
}

// Invalidate drops one identity. Wired as the redemption engine's
// post-commit hook. Bumping the generation and forgetting the singleflight
// key ensures a fetch that read storage before the commit can neither be
// joined by new callers nor write its pre-commit answer back.
func (c *CachedEntitlement) Invalidate(identityID string) {
	c.mu.Lock()
	delete(c.entries, identityID)
	c.gens[identityID]++
	c.mu.Unlock()
	c.group.Forget(identityID)
}

func (c *CachedEntitlement) put(key string, v *usecase.Entitlement, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[key] != gen {
		// Invalidated while the fetch was in flight.
		return
	}
	if len(c.entries) >= c.max {
		c.evictLocked()
	}
	c.entries[key] = entry{value: v, expiry: time.Now().Add(c.ttl)}
}

// evictLocked drops expired entries first; if everything is still live it
// drops an arbitrary entry to stay bounded.
func (c *CachedEntitlement) evictLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiry) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.max {
		return
	}
	for k := range c.entries {
		delete(c.entries, k)
		return
	}
}
