package controller

import (
	"math/big"

	"github.com/covenantfi/oracle-agent/domain/pool"
)

// safeUint64 converts a possibly-nil *big.Int into a uint64, per the
// 6-decimal fixed-point convention the chain package reads contract values
// into (spec §6). A nil value (an unset accounting field) maps to 0.
func safeUint64(v *big.Int) uint64 {
	if v == nil {
		return 0
	}
	return v.Uint64()
}

// evPer100 is a collateral provider's expected profit per 100 units of
// coverage: the premium rate less the event frequency it prices against,
// scaled to a 100-unit basis (spec §4.7). Both figures come from the same
// premiumRateBps = frequency * 1.5 pricing formula (domain/risk), so this
// simplifies to 50 * frequency, but is spelled out in terms of the stored
// fields so it stays correct if either one is overridden independently of
// the other (e.g. a reconciled pool with EventProbability defaulted to 0.1).
func evPer100(entry pool.Entry) float64 {
	return 100 * (float64(entry.PremiumRateBps)/10000 - entry.EventProbability)
}
