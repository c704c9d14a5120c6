package risk

import "math"

const premiumRateMultiplier = 1.5

// premiumRateBps converts an event frequency into a basis-point rate:
// rate = frequency × 1.5, rounded up to whole bps, floored at 1 bps, with
// no upper cap (spec §4.3 step 5). A tiny epsilon is subtracted before the
// ceiling so float noise (0.1 × 1.5 × 10000 = 1500.0000000000002) does not
// push an exact bps value up by one.
func premiumRateBps(frequency float64) uint32 {
	rate := frequency * premiumRateMultiplier
	bps := uint32(math.Ceil(rate*10000 - 1e-9))
	if bps < 1 {
		bps = 1
	}
	return bps
}

// premiumAmount computes premium = coverage × rate_bps / 10000.
func premiumAmount(coverageAmount float64, rateBps uint32) float64 {
	return coverageAmount * float64(rateBps) / 10000
}

// warningThresholds drives the non-rejecting advisories of spec §4.3 step 6.
const (
	highRateBpsWarning = 2000 // 20%
	lowRateBpsWarning  = 5    // 0.05%
	largeCoverageWarning = 50000
)

// buildWarnings returns advisory strings for unusually priced or sized
// requests. None of these reject the request.
func buildWarnings(rateBps uint32, premium, coverageAmount, estimatedGasCost float64) []string {
	var warnings []string
	if rateBps >= highRateBpsWarning {
		warnings = append(warnings, "premium rate is unusually high for the stated event — double-check the threshold and deadline")
	}
	if rateBps <= lowRateBpsWarning {
		warnings = append(warnings, "premium rate is unusually low — the event may be too improbable to meaningfully price")
	}
	if coverageAmount >= largeCoverageWarning {
		warnings = append(warnings, "coverage amount is large relative to typical pool sizes")
	}
	if premium < estimatedGasCost {
		warnings = append(warnings, "premium may not cover the gas cost of creating and resolving this pool")
	}
	return warnings
}
