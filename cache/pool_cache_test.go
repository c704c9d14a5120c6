package cache

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/covenantfi/oracle-agent/chain"
	"github.com/covenantfi/oracle-agent/domain/pool"
)

func TestPoolCache_HitsAvoidReread(t *testing.T) {
	calls := 0
	c := New(func(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error) {
		calls++
		return chain.PoolView{Description: "rain > 1in in NYC", CoverageAmount: big.NewInt(100)}, nil
	}, time.Minute, time.Millisecond)

	ctx := context.Background()
	if _, err := c.GetPool(ctx, pool.Current, 1); err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if _, err := c.GetPool(ctx, pool.Current, 1); err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if calls != 1 {
		t.Errorf("reader called %d times, want 1 (second call should hit cache)", calls)
	}
}

func TestPoolCache_VariantsDoNotCollide(t *testing.T) {
	calls := 0
	c := New(func(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error) {
		calls++
		return chain.PoolView{}, nil
	}, time.Minute, time.Millisecond)

	ctx := context.Background()
	c.GetPool(ctx, pool.Legacy, 1)
	c.GetPool(ctx, pool.Current, 1)
	if calls != 2 {
		t.Errorf("reader called %d times, want 2 (same pool id, different variants)", calls)
	}
}

func TestPoolCache_InvalidateForcesReread(t *testing.T) {
	calls := 0
	c := New(func(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error) {
		calls++
		return chain.PoolView{}, nil
	}, time.Minute, time.Millisecond)

	ctx := context.Background()
	c.GetPool(ctx, pool.Current, 1)
	c.Invalidate(pool.Current, 1)
	c.GetPool(ctx, pool.Current, 1)
	if calls != 2 {
		t.Errorf("reader called %d times, want 2 after invalidation", calls)
	}
}

func TestPoolCache_ClearFlushesAll(t *testing.T) {
	calls := 0
	c := New(func(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error) {
		calls++
		return chain.PoolView{}, nil
	}, time.Minute, time.Millisecond)

	ctx := context.Background()
	c.GetPool(ctx, pool.Current, 1)
	c.GetPool(ctx, pool.Current, 2)
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", c.Len())
	}
}

func TestPoolCache_TTLExpiry(t *testing.T) {
	calls := 0
	c := New(func(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error) {
		calls++
		return chain.PoolView{}, nil
	}, 10*time.Millisecond, time.Millisecond)

	ctx := context.Background()
	c.GetPool(ctx, pool.Current, 1)
	time.Sleep(30 * time.Millisecond)
	c.GetPool(ctx, pool.Current, 1)
	if calls != 2 {
		t.Errorf("reader called %d times, want 2 after TTL expiry", calls)
	}
}
