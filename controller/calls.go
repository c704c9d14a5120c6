package controller

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/covenantfi/oracle-agent/chain"
	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/social"
)

// buildCallSteps assembles the ordered machine-execution payload an
// autonomous wallet agent needs to act on a published artifact without
// human intermediation (spec §4.7/§6): ABI-encoded calldata against the
// pool's own contract address, one CallStep per on-chain call the intent
// implies. A nil/empty return means the intent currently has nothing left
// for a counterparty wallet to call.
func (c *Controller) buildCallSteps(ctx context.Context, entry pool.Entry, intent social.Intent) []social.CallStep {
	switch intent {
	case social.IntentFundPremium:
		return c.fundPremiumCalls(ctx, entry)
	case social.IntentProvideLiquidity:
		return c.provideCollateralCalls(ctx, entry)
	case social.IntentWithdraw:
		return c.withdrawCalls(ctx, entry)
	default:
		return nil
	}
}

// fundPremiumCalls funds a Legacy pool's premium, moving it Pending->Open.
// Current-variant pools fund the premium atomically at creation via
// createAndFund, so there is nothing left to call here.
func (c *Controller) fundPremiumCalls(ctx context.Context, entry pool.Entry) []social.CallStep {
	if entry.ContractVariant != pool.Legacy {
		return nil
	}
	data, err := chain.EncodeFundPremium(entry.ContractVariant, entry.PoolID)
	if err != nil {
		if c.log != nil {
			c.log.Warn(ctx, "controller: encode fundPremium failed, publishing artifact without calls", map[string]interface{}{"pool_id": entry.PoolID, "error": err.Error()})
		}
		return nil
	}
	return []social.CallStep{{
		Step:        1,
		Action:      "fund_premium",
		To:          c.cfg.ContractAddress,
		Data:        hexutil.Encode(data),
		Value:       "0",
		Description: "Pay the pool's premium to move it from Pending to Open",
		Decoded:     fmt.Sprintf("fundPremium(poolId=%d)", entry.PoolID),
	}}
}

// provideCollateralCalls deposits the pool's full coverage amount as
// collateral, the call that brings an Open pool to Active.
func (c *Controller) provideCollateralCalls(ctx context.Context, entry pool.Entry) []social.CallStep {
	amount := new(big.Int).SetUint64(entry.CoverageAmount)
	data, err := chain.EncodeProvideCollateral(entry.ContractVariant, entry.PoolID, amount)
	if err != nil {
		if c.log != nil {
			c.log.Warn(ctx, "controller: encode provideCollateral failed, publishing artifact without calls", map[string]interface{}{"pool_id": entry.PoolID, "error": err.Error()})
		}
		return nil
	}
	return []social.CallStep{{
		Step:        1,
		Action:      "provide_collateral",
		To:          c.cfg.ContractAddress,
		Data:        hexutil.Encode(data),
		Value:       "0",
		Description: "Deposit collateral covering this pool's coverage amount",
		Decoded:     fmt.Sprintf("provideCollateral(poolId=%d, amount=%d)", entry.PoolID, entry.CoverageAmount),
	}}
}

// withdrawCalls lets either the insured or a collateral provider pull their
// share once a pool has reached a terminal (resolved/cancelled) state.
func (c *Controller) withdrawCalls(ctx context.Context, entry pool.Entry) []social.CallStep {
	data, err := chain.EncodeWithdraw(entry.ContractVariant, entry.PoolID)
	if err != nil {
		if c.log != nil {
			c.log.Warn(ctx, "controller: encode withdraw failed, publishing artifact without calls", map[string]interface{}{"pool_id": entry.PoolID, "error": err.Error()})
		}
		return nil
	}
	return []social.CallStep{{
		Step:        1,
		Action:      "withdraw",
		To:          c.cfg.ContractAddress,
		Data:        hexutil.Encode(data),
		Value:       "0",
		Description: "Withdraw your share of this pool's resolved outcome",
		Decoded:     fmt.Sprintf("withdraw(poolId=%d)", entry.PoolID),
	}}
}
