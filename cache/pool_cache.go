// Package cache provides short-TTL memoization of on-chain pool reads so a
// heartbeat cycle that touches the same pool from several phases (monitor,
// resolve, social engagement) does not re-issue redundant RPC calls.
package cache

import (
	"context"
	"fmt"
	"time"

	expirable "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/covenantfi/oracle-agent/chain"
	"github.com/covenantfi/oracle-agent/domain/pool"
)

const defaultTTL = 60 * time.Second

// key identifies one cached read; the same pool id means nothing across
// contract variants, so the variant is part of the key (spec §4.2).
type key struct {
	variant pool.Variant
	poolID  uint64
}

func (k key) String() string { return fmt.Sprintf("%s:%d", k.variant, k.poolID) }

// PoolCache memoizes get_pool reads with a fixed TTL and paces cache-miss
// reads with a shared rate limiter to avoid tripping public RPC endpoint
// rate limits (≈200ms floor, spec §4.2/§5).
type PoolCache struct {
	reads   func(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error)
	views   *expirable.LRU[key, chain.PoolView]
	limiter *rate.Limiter
}

// New builds a PoolCache that calls reader on a miss. ttl<=0 uses the
// spec's 60s default; minReadInterval<=0 uses the 200ms floor.
func New(reader func(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error), ttl, minReadInterval time.Duration) *PoolCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if minReadInterval <= 0 {
		minReadInterval = 200 * time.Millisecond
	}
	return &PoolCache{
		reads:   reader,
		views:   expirable.NewLRU[key, chain.PoolView](4096, nil, ttl),
		limiter: rate.NewLimiter(rate.Every(minReadInterval), 1),
	}
}

// GetPool returns the cached PoolView if fresh; otherwise it waits for the
// rate limiter, issues the read, stores it, and returns it.
func (c *PoolCache) GetPool(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error) {
	k := key{variant: variant, poolID: poolID}
	if v, ok := c.views.Get(k); ok {
		return v, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return chain.PoolView{}, fmt.Errorf("cache: rate limiter wait: %w", err)
	}

	v, err := c.reads(ctx, variant, poolID)
	if err != nil {
		return chain.PoolView{}, err
	}
	c.views.Add(k, v)
	return v, nil
}

// Invalidate drops a single cached entry, called after a successful write
// to that pool so the next read reflects the new on-chain state.
func (c *PoolCache) Invalidate(variant pool.Variant, poolID uint64) {
	c.views.Remove(key{variant: variant, poolID: poolID})
}

// Clear flushes the entire cache; called at the start of every heartbeat so
// a cycle never reasons about data read in a previous cycle.
func (c *PoolCache) Clear() {
	c.views.Purge()
}

// Len reports the number of entries currently cached, used by tests and
// diagnostics.
func (c *PoolCache) Len() int {
	return c.views.Len()
}
