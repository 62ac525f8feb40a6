package source

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"memberadmin/internal/domain/member"
)

// DefaultCacheTTL is how long a fetched list is shared between new workspaces.
const DefaultCacheTTL = 30 * time.Second

// DefaultFailureTTL is how long a failed fetch is reported without retrying upstream.
const DefaultFailureTTL = 5 * time.Second

const flightKey = "members"

// Fetcher is the upstream a Cache reads through.
type Fetcher interface {
	Fetch(ctx context.Context) ([]member.Member, error)
}

// Cache shares one fetched member list across workspaces for a short window.
// Concurrent misses collapse into a single upstream fetch.
// INVARIANT: every caller gets its own copy of the records
type Cache struct {
	upstream   Fetcher
	ttl        time.Duration
	failureTTL time.Duration
	now        func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	records []member.Member
	err     error
	expires time.Time
}

// NewCache wraps upstream with a snapshot cache.
// PRE: upstream is non-nil
// POST: ttl and failureTTL default to DefaultCacheTTL and DefaultFailureTTL when not positive
func NewCache(upstream Fetcher, ttl, failureTTL time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if failureTTL <= 0 {
		failureTTL = DefaultFailureTTL
	}
	return &Cache{upstream: upstream, ttl: ttl, failureTTL: failureTTL, now: time.Now}
}

// Fetch returns the cached list, fetching upstream when the snapshot has expired.
// POST: A failure is cached for failureTTL so an outage costs one upstream call per window
func (c *Cache) Fetch(ctx context.Context) ([]member.Member, error) {
	if records, ok, err := c.cached(); ok {
		return records, err
	}
	return c.fly(ctx, false)
}

// Refresh fetches upstream regardless of the snapshot and replaces it.
func (c *Cache) Refresh(ctx context.Context) ([]member.Member, error) {
	return c.fly(ctx, true)
}

func (c *Cache) cached() ([]member.Member, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expires.IsZero() || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	return slices.Clone(c.records), true, c.err
}

// fly runs at most one upstream fetch at a time. The shared fetch is detached
// from the caller's cancellation; a caller whose context ends stops waiting.
func (c *Cache) fly(ctx context.Context, force bool) ([]member.Member, error) {
	key := flightKey
	if force {
		key += ":refresh"
	}
	ch := c.group.DoChan(key, func() (any, error) {
		if !force {
			if records, ok, err := c.cached(); ok {
				return records, err
			}
		}
		records, err := c.upstream.Fetch(context.WithoutCancel(ctx))
		c.store(records, err)
		if err != nil {
			return nil, err
		}
		return records, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			slog.DebugContext(ctx, "member_source_event", "event", "fetch_shared")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]member.Member)), nil
	}
}

func (c *Cache) store(records []member.Member, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ttl := c.ttl
	if err != nil {
		records, ttl = nil, c.failureTTL
	}
	c.records, c.err = slices.Clone(records), err
	c.expires = c.now().Add(ttl)
}
