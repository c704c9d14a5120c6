// Package risk implements the pure pricing pipeline a coverage request runs
// through: parametric validation, security screening, category
// classification, historical-frequency lookup, and premium pricing (spec
// §4.3). The only side effect is a single best-effort outbound fetch per
// historical-frequency lookup — everything else is a pure function.
package risk

import (
	"context"
	"fmt"
	"time"
)

// estimatedGasCostUSD is a rough flat estimate of the stablecoin cost of
// creating and resolving a pool, used only for the low-premium warning.
const estimatedGasCostUSD = 0.5

// Request is the input to Evaluate: a coverage request already matched (or
// not) to a catalog product.
type Request struct {
	Description       string
	CoverageAmount    float64
	Deadline          time.Time
	Now               time.Time
	EvidenceSourceURL string // overrides the matched product's default, if set
}

// Rejected is returned by Evaluate when a request fails validation.
type Rejected struct {
	Reason     string
	Suggestion string
}

// Approved is returned by Evaluate when a request prices successfully.
type Approved struct {
	ProductID          string
	Category           Category
	PremiumRateBps     uint32
	PremiumAmount      float64
	Frequency          float64
	FrequencySource    string
	Warnings           []string
	DeadlineLocalString string
	EvidenceSourceURL  string
}

// Result is the tagged outcome of Evaluate: exactly one of Approved or
// Rejected is non-nil.
type Result struct {
	Approved *Approved
	Rejected *Rejected
}

// Evaluate runs the full pricing pipeline (spec §4.3 steps 1-6). fetch may
// be nil, in which case historical lookups always use the category
// fallback.
func Evaluate(ctx context.Context, fetch HTTPFetch, req Request) Result {
	if verr := ValidateParametric(req.Description, req.CoverageAmount, req.Deadline, req.Now); verr != nil {
		return Result{Rejected: &Rejected{Reason: verr.Reason, Suggestion: verr.Suggestion}}
	}
	if verr := ValidateSecurity(req.Description); verr != nil {
		return Result{Rejected: &Rejected{Reason: verr.Reason, Suggestion: verr.Suggestion}}
	}

	category := Classify(req.Description)

	freq := FetchHistoricalFrequency(ctx, fetch, category, req.Description)
	if freq.Periods < minRequiredPeriods {
		return Result{Rejected: &Rejected{
			Reason:     fmt.Sprintf("insufficient history: only %d periods available, need at least %d", freq.Periods, minRequiredPeriods),
			Suggestion: "choose an event category with a longer track record, or widen the threshold",
		}}
	}

	rateBps := premiumRateBps(freq.Value)
	premium := premiumAmount(req.CoverageAmount, rateBps)
	warnings := buildWarnings(rateBps, premium, req.CoverageAmount, estimatedGasCostUSD)

	productID, _ := QuickMatch(req.Description)

	evidenceURL := req.EvidenceSourceURL
	if evidenceURL == "" {
		if p, ok := MatchProduct(req.Description); ok {
			evidenceURL = p.EvidenceSourceURL
		}
	}

	return Result{Approved: &Approved{
		ProductID:           productID,
		Category:            category,
		PremiumRateBps:      rateBps,
		PremiumAmount:       premium,
		Frequency:           freq.Value,
		FrequencySource:     freq.Source,
		Warnings:            warnings,
		DeadlineLocalString: req.Deadline.Local().Format(time.RFC1123),
		EvidenceSourceURL:   evidenceURL,
	}}
}
