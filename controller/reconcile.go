package controller

import (
	"context"
	"fmt"

	"github.com/covenantfi/oracle-agent/domain/pool"
)

// Reconcile runs cold-start reconciliation (spec §4.8 step 1): for each
// configured variant, it asks the contract for next_pool_id and ensures the
// registry holds an entry for every pool id below it, discovering any pool
// the agent's local snapshot missed (e.g. after a crash between creation
// and the following Save). Already-present entries are left untouched here
// — Monitor refreshes their live status every cycle.
func (c *Controller) Reconcile(ctx context.Context) error {
	variants := []pool.Variant{pool.Legacy, pool.Current}
	var firstErr error

	for _, variant := range variants {
		if !c.chainClient.HasVariant(variant) {
			continue
		}
		if err := c.reconcileVariant(ctx, variant); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("reconcile %s: %w", variant, err)
		}
	}
	return firstErr
}

func (c *Controller) reconcileVariant(ctx context.Context, variant pool.Variant) error {
	nextID, err := c.chainClient.GetNextPoolID(ctx, variant)
	if err != nil {
		return err
	}

	for id := uint64(0); id < nextID; id++ {
		if _, ok := c.registry.Get(variant, id); ok {
			continue
		}
		view, err := c.chainClient.GetPool(ctx, variant, id)
		if err != nil {
			if c.log != nil {
				c.log.Warn(ctx, "reconcile: could not read pool, skipping for this cycle", map[string]interface{}{"variant": variant, "pool_id": id, "error": err.Error()})
			}
			continue
		}
		c.registry.Put(pool.Entry{
			PoolID:            id,
			ContractVariant:   variant,
			ProductID:         "unknown",
			Description:       view.Description,
			EvidenceSourceURL: view.EvidenceSourceURL,
			CoverageAmount:    safeUint64(view.CoverageAmount),
			PremiumAmount:     safeUint64(view.PremiumAmount),
			PremiumRateBps:    view.PremiumRateBps,
			Deadline:          view.Deadline,
			DepositDeadline:   view.Deadline - 7200,
			EventProbability:  0.1,
			Status:            view.Status,
			LastSeenStatus:    view.Status,
		})
		if c.log != nil {
			c.log.Info(ctx, "reconcile: discovered pool missing from local snapshot", map[string]interface{}{"variant": variant, "pool_id": id, "status": string(view.Status)})
		}
	}
	return nil
}
