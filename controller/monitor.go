package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/social"
)

// Monitor refreshes every live registry entry against on-chain state
// (spec §4.8 step 2): it detects status transitions, invalidates the cache
// entry that changed, publishes a provide-collateral artifact when a
// Legacy pool moves Pending→Open, and invokes permissionless cancellation
// on pools that are still underfunded past their deposit deadline.
func (c *Controller) Monitor(ctx context.Context) error {
	now := time.Now()
	var firstErr error

	for _, entry := range c.registry.Live() {
		view, err := c.cache.GetPool(ctx, entry.ContractVariant, entry.PoolID)
		if err != nil {
			if c.log != nil {
				c.log.Warn(ctx, "monitor: pool read failed, skipping this cycle", map[string]interface{}{"variant": entry.ContractVariant, "pool_id": entry.PoolID, "error": err.Error()})
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("pool %s:%d: %w", entry.ContractVariant, entry.PoolID, err)
			}
			continue
		}

		transitioned := view.Status != entry.LastSeenStatus
		if transitioned {
			c.cache.Invalidate(entry.ContractVariant, entry.PoolID)
			if c.log != nil {
				c.log.Info(ctx, "monitor: pool status transition", map[string]interface{}{"variant": entry.ContractVariant, "pool_id": entry.PoolID, "from": string(entry.LastSeenStatus), "to": string(view.Status)})
			}
		}

		c.registry.Mutate(entry.ContractVariant, entry.PoolID, func(e *pool.Entry) {
			e.Status = view.Status
			e.LastSeenStatus = view.Status
			e.ClaimApproved = &view.ClaimApproved
		})

		if transitioned && entry.ContractVariant == pool.Legacy && entry.Status.IsPending() && view.Status.IsOpen() {
			c.publishProvideCollateralArtifact(ctx, entry)
		}

		if view.Status.IsLive() && (view.Status.IsOpen() || view.Status.IsPending()) && now.Unix() >= entry.DepositDeadline {
			c.cancelUnderfunded(ctx, entry)
		}
	}
	return firstErr
}

func (c *Controller) publishProvideCollateralArtifact(ctx context.Context, entry pool.Entry) {
	artifact := social.BuildArtifact(
		c.cfg.ChainID,
		social.IntentProvideLiquidity,
		social.PoolParams{
			PoolID:         entry.PoolID,
			Variant:        string(entry.ContractVariant),
			Description:    entry.Description,
			CoverageAmount: entry.CoverageAmount,
			PremiumAmount:  entry.PremiumAmount,
			Deadline:       entry.Deadline,
		},
		c.cfg.ContractAddress,
		social.RiskParams{Frequency: entry.EventProbability, EVPer100: evPer100(entry)},
		c.buildCallSteps(ctx, entry, social.IntentProvideLiquidity),
		c.cfg.DeepLinkBaseURL,
		"",
	)
	c.publishArtifact(ctx, entry, artifact, func(e *pool.Entry, postID string) { e.Artifacts.Phase2Collat = postID })
}

// cancelUnderfunded invokes the permissionless cancel-and-refund call on a
// pool still Pending or Open (not yet Active) at or past its deposit
// deadline; its funding level is not checked before the call. Any
// wallet can call this, including the oracle's own — doing so here keeps
// stale pools from cluttering the live set.
func (c *Controller) cancelUnderfunded(ctx context.Context, entry pool.Entry) {
	txHash, err := c.chainClient.CancelAndRefund(ctx, entry.ContractVariant, entry.PoolID)
	if err != nil {
		if c.log != nil {
			c.log.Warn(ctx, "monitor: cancel_and_refund failed", map[string]interface{}{"variant": entry.ContractVariant, "pool_id": entry.PoolID, "error": err.Error()})
		}
		return
	}
	c.cache.Invalidate(entry.ContractVariant, entry.PoolID)
	c.registry.Mutate(entry.ContractVariant, entry.PoolID, func(e *pool.Entry) {
		e.Status = pool.StatusCancelled
		e.LastSeenStatus = pool.StatusCancelled
		e.ResolutionTxHash = txHash
	})
	if c.metrics != nil {
		c.metrics.RecordChainTx("controller", "cancel_and_refund", "ok", 0)
	}
}
