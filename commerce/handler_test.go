package commerce

import (
	"context"
	"errors"
	"testing"

	"github.com/covenantfi/oracle-agent/chain"
	"github.com/covenantfi/oracle-agent/domain/pool"
)

type stubChain struct {
	poolID uint64
	txHash string
	err    error
}

func (s stubChain) CreatePool(ctx context.Context, variant pool.Variant, params chain.CreatePoolParams) (uint64, string, error) {
	return s.poolID, s.txHash, s.err
}

func TestHandler_CreatesCoverageForWellFormedRequest(t *testing.T) {
	registry := pool.New()
	h := NewHandler(stubChain{poolID: 7, txHash: "0xabc"}, registry, pool.Current, nil, nil)

	go h.Run(context.Background())

	d, err := h.Submit(context.Background(), "I want 200 usdc of coverage for 14 days: ETH drops below $2000")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if d.Status != StatusCoverageCreated {
		t.Fatalf("Status = %s, want COVERAGE_CREATED (deliverable: %+v)", d.Status, d)
	}
	if d.PoolID != 7 || d.TransactionHash != "0xabc" {
		t.Errorf("unexpected deliverable: %+v", d)
	}
	if registry.Count() != 1 {
		t.Errorf("registry.Count() = %d, want 1", registry.Count())
	}
}

func TestHandler_RejectsInvalidRequest(t *testing.T) {
	registry := pool.New()
	h := NewHandler(stubChain{}, registry, pool.Current, nil, nil)
	go h.Run(context.Background())

	d, err := h.Submit(context.Background(), "I want 2 usdc of coverage")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if d.Status != StatusCoverageRejected {
		t.Errorf("Status = %s, want COVERAGE_REJECTED", d.Status)
	}
}

func TestHandler_ChainFailureReturnsErrorButContinuesQueue(t *testing.T) {
	registry := pool.New()
	h := NewHandler(stubChain{err: errors.New("rpc down")}, registry, pool.Current, nil, nil)
	go h.Run(context.Background())

	d, err := h.Submit(context.Background(), "200 usdc for 14 days: ETH drops below $2000")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if d.Status != StatusError {
		t.Fatalf("Status = %s, want ERROR", d.Status)
	}

	// subsequent job should still be processed
	d2, err := h.Submit(context.Background(), "100 usdc for 10 days: gas above 150 gwei")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if d2.Status == "" {
		t.Error("second job should still be processed after the first failed")
	}
}
