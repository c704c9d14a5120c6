package commerce

// DeliverableStatus is the tri-state outcome a commerce job reports back to
// the caller (spec §6).
type DeliverableStatus string

const (
	StatusCoverageCreated  DeliverableStatus = "COVERAGE_CREATED"
	StatusCoverageRejected DeliverableStatus = "COVERAGE_REJECTED"
	StatusError            DeliverableStatus = "ERROR"
)

// Deliverable is the structured result handed back to the commerce
// protocol for every job, success or failure (spec §4.6 step 7, §6).
type Deliverable struct {
	Status            DeliverableStatus `json:"status"`
	PoolID            uint64            `json:"pool_id,omitempty"`
	TransactionHash   string            `json:"transaction_hash,omitempty"`
	CoverageAmount    float64           `json:"coverage_amount,omitempty"`
	PremiumAmount     float64           `json:"premium_amount,omitempty"`
	EvidenceSourceURL string            `json:"evidence_source_url,omitempty"`
	ResolutionMechanism string          `json:"resolution_mechanism,omitempty"`
	Reason            string            `json:"reason,omitempty"`
	Suggestion        string            `json:"suggestion,omitempty"`
}

func created(poolID uint64, txHash, evidenceURL string, coverage, premium float64) Deliverable {
	return Deliverable{
		Status:              StatusCoverageCreated,
		PoolID:              poolID,
		TransactionHash:     txHash,
		CoverageAmount:      coverage,
		PremiumAmount:       premium,
		EvidenceSourceURL:   evidenceURL,
		ResolutionMechanism: "dual-auditor-oracle",
	}
}

func rejected(reason, suggestion string) Deliverable {
	return Deliverable{Status: StatusCoverageRejected, Reason: reason, Suggestion: suggestion}
}

func errored(reason string) Deliverable {
	return Deliverable{Status: StatusError, Reason: reason}
}
