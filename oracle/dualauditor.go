package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/infrastructure/enclave"
	"github.com/covenantfi/oracle-agent/infrastructure/logging"
)

// evidenceFetcher is the capability DualAuditor needs from evidence.Fetcher
// — kept as a narrow interface so tests can stub it without importing the
// evidence package.
type evidenceFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// SubVerdict is one auditor's raw output.
type SubVerdict struct {
	Verdict    bool
	Confidence float64 // only populated for the Judge
	Rationale  string
}

// ConsensusResult is the outcome of a dual-auditor resolution, attached to
// the registry entry (spec §4.5).
type ConsensusResult struct {
	ClaimApproved    bool
	Judge            SubVerdict
	Auditor          SubVerdict
	FetchFailed      bool
	AttestationHash  []byte // a pool-id-derived fallback hash when no enclave is present
	ResolvedAt       time.Time
}

// DualAuditor runs two independent LLM analyses over the same sanitized
// evidence and combines them with a conservative AND rule: any
// disagreement, fetch failure, or auditor failure resolves to
// claim_approved=false (spec §4.5).
type DualAuditor struct {
	fetcher evidenceFetcher
	judge   LLMClient
	auditor LLMClient
	enclave *enclave.Enclave
	log     *logging.Logger
}

// NewDualAuditor builds a DualAuditor. judge and auditor may be the same
// LLMClient instance (the independence comes from the distinct prompts and
// invocations) or different ones.
func NewDualAuditor(fetcher evidenceFetcher, judge, auditor LLMClient, e *enclave.Enclave, log *logging.Logger) *DualAuditor {
	return &DualAuditor{fetcher: fetcher, judge: judge, auditor: auditor, enclave: e, log: log}
}

// Resolve fetches evidence for entry and runs both auditors, returning a
// conservative consensus. Its error is always nil: auditor and fetch
// failures, including both LLM calls failing, resolve to
// claim_approved=false instead, per the consensus rule.
func (d *DualAuditor) Resolve(ctx context.Context, entry pool.Entry) (ConsensusResult, error) {
	result := ConsensusResult{ResolvedAt: time.Now()}

	evidenceText, err := d.fetcher.Fetch(ctx, entry.EvidenceSourceURL)
	if err != nil {
		if d.log != nil {
			d.log.Warn(ctx, "evidence fetch failed, resolving claim_approved=false", map[string]interface{}{"pool_id": entry.PoolID, "error": err.Error()})
		}
		result.FetchFailed = true
		result.ClaimApproved = false
		result.AttestationHash = enclave.ComputeAttestationHash(d.enclave, fmt.Sprintf("pool-%d", entry.PoolID))
		return result, nil
	}

	judgeVerdict, judgeErr := d.runJudge(ctx, entry.Description, evidenceText)
	auditorVerdict, auditorErr := d.runAuditor(ctx, entry.Description, evidenceText)

	result.Judge = judgeVerdict
	result.Auditor = auditorVerdict

	if judgeErr != nil || auditorErr != nil {
		result.ClaimApproved = false
	} else {
		result.ClaimApproved = judgeVerdict.Verdict && auditorVerdict.Verdict
	}

	result.AttestationHash = enclave.ComputeAttestationHash(d.enclave, fmt.Sprintf("pool-%d", entry.PoolID))
	return result, nil
}

func (d *DualAuditor) runJudge(ctx context.Context, description, evidence string) (SubVerdict, error) {
	prompt := buildJudgePrompt(description, evidence)
	raw, err := d.judge.Complete(ctx, prompt)
	if err != nil {
		return SubVerdict{}, fmt.Errorf("judge: %w", err)
	}
	return parseJudgeVerdict(raw)
}

func (d *DualAuditor) runAuditor(ctx context.Context, description, evidence string) (SubVerdict, error) {
	prompt := buildAuditorPrompt(description, evidence)
	raw, err := d.auditor.Complete(ctx, prompt)
	if err != nil {
		return SubVerdict{}, fmt.Errorf("auditor: %w", err)
	}
	return parseAuditorVerdict(raw)
}

var jsonObjectPattern = regexp.MustCompile(`\{[^{}]*\}`)

type judgeVerdictJSON struct {
	Verdict    bool    `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

type auditorVerdictJSON struct {
	Verdict   bool   `json:"verdict"`
	Rationale string `json:"rationale"`
}

func parseJudgeVerdict(raw string) (SubVerdict, error) {
	m := jsonObjectPattern.FindString(raw)
	if m == "" {
		return SubVerdict{}, fmt.Errorf("no JSON object found in judge response")
	}
	var v judgeVerdictJSON
	if err := json.Unmarshal([]byte(m), &v); err != nil {
		return SubVerdict{}, fmt.Errorf("parse judge verdict: %w", err)
	}
	return SubVerdict{Verdict: v.Verdict, Confidence: v.Confidence, Rationale: v.Rationale}, nil
}

func parseAuditorVerdict(raw string) (SubVerdict, error) {
	m := jsonObjectPattern.FindString(raw)
	if m == "" {
		return SubVerdict{}, fmt.Errorf("no JSON object found in auditor response")
	}
	var v auditorVerdictJSON
	if err := json.Unmarshal([]byte(m), &v); err != nil {
		return SubVerdict{}, fmt.Errorf("parse auditor verdict: %w", err)
	}
	return SubVerdict{Verdict: v.Verdict, Rationale: v.Rationale}, nil
}
