package social

import (
	"strings"
	"testing"
)

func TestBuildArtifact_DeepLinkUsesProvideCollateralForLiquidityIntent(t *testing.T) {
	a := BuildArtifact(1, IntentProvideLiquidity, PoolParams{PoolID: 42}, "0xabc", RiskParams{}, nil, "https://app.covenantfi.xyz/act", "")
	if !strings.Contains(a.DeepLinkURL, "action=provide_collateral") {
		t.Errorf("DeepLinkURL = %q, want action=provide_collateral", a.DeepLinkURL)
	}
	if !strings.Contains(a.DeepLinkURL, "pool_id=42") {
		t.Errorf("DeepLinkURL = %q, want pool_id=42", a.DeepLinkURL)
	}
}

func TestBuildArtifact_DeepLinkIncludesAmount(t *testing.T) {
	a := BuildArtifact(1, IntentFundPremium, PoolParams{PoolID: 1}, "0xabc", RiskParams{}, nil, "https://app.covenantfi.xyz/act", "100")
	if !strings.Contains(a.DeepLinkURL, "amount=100") {
		t.Errorf("DeepLinkURL = %q, want amount=100", a.DeepLinkURL)
	}
}

func TestArtifact_MarshalFencedJSON(t *testing.T) {
	a := BuildArtifact(1, IntentWithdraw, PoolParams{PoolID: 1}, "0xabc", RiskParams{}, nil, "https://app.covenantfi.xyz/act", "")
	fenced, err := a.MarshalFencedJSON()
	if err != nil {
		t.Fatalf("MarshalFencedJSON: %v", err)
	}
	if !strings.HasPrefix(fenced, "```json") || !strings.HasSuffix(fenced, "```") {
		t.Errorf("expected fenced code block, got %q", fenced)
	}
}
