package controller

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/covenantfi/oracle-agent/chain"
	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/domain/risk"
	"github.com/covenantfi/oracle-agent/social"
)

// productCursor round-robins through risk.Catalog so the agent doesn't
// always propose the same product first (package-level since the cursor
// only needs to vary across cycles, not per-Controller instance).
var productCursor int

// Create originates a new pool from the catalog when the agent is not
// paused, has waited out its creation cooldown, and is under the live-pool
// cap (spec §4.8 step 4). Never runs under RoleSocialOnly.
func (c *Controller) Create(ctx context.Context) error {
	if c.cfg.PauseCreation {
		return nil
	}
	if c.registry.CyclesSinceLastCreation() < uint64(c.cfg.CreationCooldown) {
		return nil
	}
	if c.registry.LiveCount() >= c.cfg.MaxLivePools {
		return nil
	}
	if len(risk.Catalog) == 0 {
		return nil
	}

	product := risk.Catalog[productCursor%len(risk.Catalog)]
	productCursor++

	now := time.Now()
	deadline := now.Add(time.Duration(product.MinDeadlineDays) * 24 * time.Hour)
	coverage := product.MinCoverage

	description := syntheticDescription(product)
	evaluation := risk.Evaluate(ctx, c.fetch, risk.Request{
		Description:    description,
		CoverageAmount: coverage,
		Deadline:       deadline,
		Now:            now,
	})
	if evaluation.Rejected != nil {
		if c.log != nil {
			c.log.Warn(ctx, "create: catalog product failed risk evaluation, skipping this cycle", map[string]interface{}{"product_id": product.ID, "reason": evaluation.Rejected.Reason})
		}
		return nil
	}

	poolID, txHash, err := c.chainClient.CreatePool(ctx, c.cfg.Variant, chain.CreatePoolParams{
		Description:       description,
		EvidenceSourceURL: product.EvidenceSourceURL,
		CoverageAmount:    big.NewInt(int64(coverage * 1_000_000)),
		PremiumRateBps:    evaluation.Approved.PremiumRateBps,
		Deadline:          deadline.Unix(),
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordChainTx("controller", "create_pool", "error", 0)
		}
		return fmt.Errorf("create: chain.CreatePool: %w", err)
	}

	entry := pool.Entry{
		PoolID:            poolID,
		ContractVariant:   c.cfg.Variant,
		ProductID:         product.ID,
		Description:       description,
		EvidenceSourceURL: product.EvidenceSourceURL,
		CoverageAmount:    uint64(coverage * 1_000_000),
		PremiumAmount:     uint64(evaluation.Approved.PremiumAmount * 1_000_000),
		PremiumRateBps:    evaluation.Approved.PremiumRateBps,
		Deadline:          deadline.Unix(),
		DepositDeadline:   deadline.Unix() - 7200,
		EventProbability:  evaluation.Approved.Frequency,
		Status:            pool.StatusFromCode(c.cfg.Variant, 0),
		LastSeenStatus:    pool.StatusFromCode(c.cfg.Variant, 0),
		CreationTxHash:    txHash,
	}
	c.registry.Put(entry)
	c.registry.RecordPoolCreated()

	if c.metrics != nil {
		c.metrics.RecordChainTx("controller", "create_pool", "ok", 0)
	}

	c.publishCreationArtifact(ctx, entry)
	return nil
}

// syntheticDescription renders a catalog product as a description that
// passes ValidateParametric's numeric-threshold check (a bare display name
// carries no measurable condition) while still scoring unambiguously
// against its own category and catalog entry in Classify/MatchProduct.
func syntheticDescription(product risk.Product) string {
	switch product.ID {
	case "weather-rain-nyc":
		return "NYC rainfall exceeds 2 inches this week"
	case "weather-heat-miami":
		return "Miami temperature exceeds 100 fahrenheit"
	case "crypto-eth-price-drop":
		return "ETH price drops below 2000 usd"
	case "crypto-btc-price-drop":
		return "BTC price drops below 40000 usd"
	case "gas-fee-spike":
		return "Ethereum gas fee exceeds 150 gwei"
	case "defi-lending-depeg":
		return "USDC depegs below 0.95 usd"
	case "defi-protocol-hack":
		return "DeFi protocol exploit drains 5% of tvl"
	case "onchain-oracle-failure":
		return "Oracle downtime causes deviation exceeding 5%"
	case "onchain-validator-slashing":
		return "Validator slashing event causes loss exceeding 3%"
	case "crypto-volatility-index":
		return "Crypto volatility swings exceed 80%"
	default:
		return fmt.Sprintf("%s exceeds 10%% threshold", product.DisplayName)
	}
}

func (c *Controller) publishCreationArtifact(ctx context.Context, entry pool.Entry) {
	artifact := social.BuildArtifact(
		c.cfg.ChainID,
		social.IntentFundPremium,
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
		c.buildCallSteps(ctx, entry, social.IntentFundPremium),
		c.cfg.DeepLinkBaseURL,
		"",
	)
	c.publishArtifact(ctx, entry, artifact, func(e *pool.Entry, postID string) { e.Artifacts.Phase1Create = postID })
}
