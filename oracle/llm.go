// Package oracle implements the dual-auditor resolution pipeline: two
// independent LLM analyses over the same sanitized evidence, combined by a
// conservative consensus rule (spec §4.5).
package oracle

import "context"

// LLMClient is the capability interface both auditors are built on —
// trimmed from the gateway-style Provider shape down to the single call
// this agent needs. Any implementation (Anthropic, OpenAI, a local model)
// can be swapped in; the LLM client itself is out of scope for this spec.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
