package social

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Intent classifies what action an artifact is inviting a counterparty
// wallet to take (spec §4.7).
type Intent string

const (
	IntentFundPremium     Intent = "fund_premium"
	IntentProvideLiquidity Intent = "provide_liquidity"
	IntentWithdraw        Intent = "withdraw"
)

// deepLinkAction is the distinct vocabulary the human deep-link URL's
// action query param uses (spec §6) — provide_collateral rather than
// provide_liquidity, since the deep link targets the collateral-deposit UI
// specifically.
func deepLinkAction(intent Intent) string {
	if intent == IntentProvideLiquidity {
		return "provide_collateral"
	}
	return string(intent)
}

// CallStep is one entry in the machine-execution payload: an ordered,
// wallet-ready call object (spec §4.7).
type CallStep struct {
	Step        int    `json:"step"`
	Action      string `json:"action"`
	To          string `json:"to"`
	Data        string `json:"data"`
	Value       string `json:"value"`
	Description string `json:"description"`
	Decoded     string `json:"decoded"`
}

// PoolParams summarizes the pool an artifact concerns.
type PoolParams struct {
	PoolID         uint64  `json:"pool_id"`
	Variant        string  `json:"contract_variant"`
	Description    string  `json:"description"`
	CoverageAmount uint64  `json:"coverage_amount"`
	PremiumAmount  uint64  `json:"premium_amount"`
	Deadline       int64   `json:"deadline"`
}

// RiskParams carries the pricing figures worth surfacing to a counterparty.
type RiskParams struct {
	Frequency   float64 `json:"frequency"`
	EVPer100    float64 `json:"ev_per_100_units"`
}

// Artifact is the full JSON block every published phase-change artifact
// carries (spec §4.7/§6): protocol identity, chain id, intent, pool and
// risk parameters, an ordered machine-execution payload, and a human
// deep-link URL. The two consumers are autonomous wallet-agents (Calls)
// and human-assisted agents (DeepLinkURL).
type Artifact struct {
	ProtocolID      string     `json:"protocol_id"`
	ProtocolVersion string     `json:"protocol_version"`
	ChainID         int64      `json:"chain_id"`
	Intent          Intent     `json:"intent"`
	Pool            PoolParams `json:"pool"`
	ContractAddress string     `json:"contract_address"`
	Risk            RiskParams `json:"risk"`
	Calls           []CallStep `json:"calls"`
	DeepLinkURL     string     `json:"deep_link_url"`
}

const (
	protocolID      = "covenantfi"
	protocolVersion = "1"
)

// BuildArtifact assembles the payload above. baseDeepLinkURL is the
// platform's fixed deep-link base (e.g. "https://app.covenantfi.xyz/act");
// amount, if non-empty, is appended as an optional query parameter.
func BuildArtifact(chainID int64, intent Intent, poolParams PoolParams, contractAddr string, risk RiskParams, calls []CallStep, baseDeepLinkURL, amount string) Artifact {
	return Artifact{
		ProtocolID:      protocolID,
		ProtocolVersion: protocolVersion,
		ChainID:         chainID,
		Intent:          intent,
		Pool:            poolParams,
		ContractAddress: contractAddr,
		Risk:            risk,
		Calls:           calls,
		DeepLinkURL:     buildDeepLinkURL(baseDeepLinkURL, intent, poolParams.PoolID, amount),
	}
}

func buildDeepLinkURL(base string, intent Intent, poolID uint64, amount string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("action", deepLinkAction(intent))
	q.Set("pool_id", fmt.Sprintf("%d", poolID))
	if amount != "" {
		q.Set("amount", amount)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// MarshalFencedJSON renders the artifact as pretty-printed JSON wrapped in
// a fenced code block, for embedding inside the long article that
// accompanies every short post (spec §6).
func (a Artifact) MarshalFencedJSON() (string, error) {
	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("social: marshal artifact: %w", err)
	}
	return "```json\n" + string(raw) + "\n```", nil
}
