package risk

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minDeadlineHorizon = 24 * time.Hour
	maxDeadlineHorizon = 90 * 24 * time.Hour
	minCoverageAmount  = 10
)

// thresholdPattern matches a dollar amount ("$2000") or a numeric threshold
// followed by a recognized unit: percent, gwei, a stablecoin symbol, a
// temperature unit, a length unit, or basis points (spec §4.3 step 1).
var thresholdPattern = regexp.MustCompile(`(?i)\$\s*(\d+(?:\.\d+)?)|(\d+(?:\.\d+)?)\s*(%|percent|gwei|usdc|usdt|dai|usd|°f|°c|f\b|c\b|fahrenheit|celsius|in|inch|inches|cm|mm|bps|basis points?)`)

var subjectivityPattern = regexp.MustCompile(`(?i)\b(feel|feels|feeling|opinion|mood|vibe|believe|think|guess|maybe|probably|seems? like)\b`)

var scamPhrasePattern = regexp.MustCompile(`(?i)\b(guaranteed returns?|risk[- ]?free|double your (money|crypto)|send (funds|crypto|eth|btc) (to|now)|wire transfer|act now|limited time offer|claim your prize)\b`)

// ValidationError names why a coverage request was rejected before pricing
// even began.
type ValidationError struct {
	Reason     string
	Suggestion string
}

func (e *ValidationError) Error() string { return e.Reason }

// ValidateParametric checks the description contains a measurable
// threshold and rejects subjective language, out-of-range deadlines, and
// undersized coverage (spec §4.3 step 1).
func ValidateParametric(description string, coverageAmount float64, deadline, now time.Time) *ValidationError {
	if !thresholdPattern.MatchString(description) {
		return &ValidationError{
			Reason:     "description must state a $ amount or a numeric threshold with a recognized unit (%, gwei, stablecoin, temperature, length, or bps)",
			Suggestion: "rephrase with a concrete measurable threshold, e.g. \"ETH drops below $2000\"",
		}
	}
	if subjectivityPattern.MatchString(description) {
		return &ValidationError{
			Reason:     "description reads as a subjective opinion rather than a measurable event",
			Suggestion: "replace subjective language with an objective, verifiable condition",
		}
	}

	horizon := deadline.Sub(now)
	if horizon < minDeadlineHorizon {
		return &ValidationError{
			Reason:     "deadline is less than 24 hours away",
			Suggestion: "choose a deadline at least 24 hours from now",
		}
	}
	if horizon > maxDeadlineHorizon {
		return &ValidationError{
			Reason:     "deadline is more than 90 days away",
			Suggestion: "choose a deadline within 90 days",
		}
	}

	if coverageAmount < minCoverageAmount {
		return &ValidationError{
			Reason:     "coverage amount is below the minimum of 10",
			Suggestion: "request coverage of at least 10 stablecoin units",
		}
	}
	return nil
}

// ValidateSecurity rejects descriptions matching known scam-phrase patterns
// (spec §4.3 step 2).
func ValidateSecurity(description string) *ValidationError {
	if scamPhrasePattern.MatchString(description) {
		return &ValidationError{
			Reason:     "description matches a known scam-phrase pattern",
			Suggestion: "remove promotional or urgency language and restate the coverage condition plainly",
		}
	}
	return nil
}

// QuickMatch returns the id of the catalog product MatchProduct picks for
// description. Evaluate calls it only after the strict validators have
// passed, to fill Approved.ProductID; it never gates acceptance on its own.
func QuickMatch(description string) (productID string, ok bool) {
	p, found := MatchProduct(description)
	if !found {
		return "", false
	}
	return p.ID, true
}

// extractThreshold pulls the first numeric threshold value out of
// description, used by category-specific historical fetchers that need the
// raw number (e.g. "gas > 100 gwei" → 100).
func extractThreshold(description string) (float64, bool) {
	m := thresholdPattern.FindStringSubmatch(description)
	if m == nil {
		return 0, false
	}
	num := m[1]
	if num == "" {
		num = m[2]
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// extractDirection reports whether the description's threshold is phrased
// as a downward ("below", "drops", "under", "crash") or upward comparison.
func extractDirection(description string) string {
	lower := strings.ToLower(description)
	for _, kw := range []string{"below", "drop", "under", "crash", "fall", "less than"} {
		if strings.Contains(lower, kw) {
			return "down"
		}
	}
	return "up"
}
