package controller

import (
	"context"
	"time"

	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/social"
)

// Resolve runs the dual-auditor resolution pipeline over every Active entry
// whose deadline has passed (spec §4.8 step 3, §4.5), and forces a denial
// via EmergencyResolve on any entry that has sat unresolved more than 24h
// past its deadline — never invoked by RoleSocialOnly controllers, since
// those are not the contract's configured oracle.
func (c *Controller) Resolve(ctx context.Context) error {
	now := time.Now()
	var firstErr error

	for _, entry := range c.registry.Live() {
		if !entry.Status.IsActive() {
			continue
		}

		if entry.IsDueForEmergencyResolution(now) {
			c.emergencyResolve(ctx, entry)
			continue
		}
		if !entry.IsDueForResolution(now) {
			continue
		}

		consensus, err := c.auditor.Resolve(ctx, entry)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if c.log != nil {
				c.log.Error(ctx, "resolve: dual-auditor resolution failed", err, map[string]interface{}{"pool_id": entry.PoolID})
			}
			continue
		}

		txHash, err := c.chainClient.ResolvePool(ctx, entry.ContractVariant, entry.PoolID, consensus.ClaimApproved)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if c.log != nil {
				c.log.Error(ctx, "resolve: on-chain resolve_pool failed", err, map[string]interface{}{"pool_id": entry.PoolID})
			}
			continue
		}

		c.cache.Invalidate(entry.ContractVariant, entry.PoolID)
		dualAuth := pool.DualAuthResult{
			JudgeVerdict:     consensus.Judge.Verdict,
			JudgeConfidence:  consensus.Judge.Confidence,
			JudgeRationale:   consensus.Judge.Rationale,
			AuditorVerdict:   consensus.Auditor.Verdict,
			AuditorRationale: consensus.Auditor.Rationale,
			ClaimApproved:    consensus.ClaimApproved,
			AttestationHash:  consensus.AttestationHash,
			ResolvedAt:       consensus.ResolvedAt,
		}
		c.registry.Mutate(entry.ContractVariant, entry.PoolID, func(e *pool.Entry) {
			e.Status = pool.StatusResolved
			e.LastSeenStatus = pool.StatusResolved
			e.ResolutionTxHash = txHash
			e.ClaimApproved = &consensus.ClaimApproved
			e.DualAuthResult = &dualAuth
		})

		if c.metrics != nil {
			outcome := "denied"
			if consensus.ClaimApproved {
				outcome = "approved"
			}
			c.metrics.RecordResolution("controller", outcome)
			if consensus.Judge.Verdict != consensus.Auditor.Verdict {
				c.metrics.RecordConsensusSplit()
			}
		}

		c.publishResolutionArtifact(ctx, entry)
	}
	return firstErr
}

// emergencyResolve denies an Active pool that has sat unresolved for more
// than 24h past its deadline. The contract call itself is the safety
// default (always denies the claim); the controller just needs to notice
// the overdue window and trigger it (spec §4.1, §4.8 step 3).
func (c *Controller) emergencyResolve(ctx context.Context, entry pool.Entry) {
	txHash, err := c.chainClient.EmergencyResolve(ctx, entry.ContractVariant, entry.PoolID)
	if err != nil {
		if c.log != nil {
			c.log.Error(ctx, "resolve: emergency_resolve failed", err, map[string]interface{}{"pool_id": entry.PoolID})
		}
		return
	}
	c.cache.Invalidate(entry.ContractVariant, entry.PoolID)
	denied := false
	c.registry.Mutate(entry.ContractVariant, entry.PoolID, func(e *pool.Entry) {
		e.Status = pool.StatusResolved
		e.LastSeenStatus = pool.StatusResolved
		e.ResolutionTxHash = txHash
		e.ClaimApproved = &denied
	})
	if c.metrics != nil {
		c.metrics.RecordResolution("controller", "emergency_denied")
	}
}

func (c *Controller) publishResolutionArtifact(ctx context.Context, entry pool.Entry) {
	artifact := social.BuildArtifact(
		c.cfg.ChainID,
		social.IntentWithdraw,
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
		c.buildCallSteps(ctx, entry, social.IntentWithdraw),
		c.cfg.DeepLinkBaseURL,
		"",
	)
	c.publishArtifact(ctx, entry, artifact, func(e *pool.Entry, postID string) { e.Artifacts.Phase4Resolve = postID })
}
