// Package commerce parses inbound service requests and drives each one
// through parse → validate → match → price → create-on-chain → deliver
// (spec §4.6), via a strictly sequential single-goroutine queue so
// concurrent jobs never race the chain client's nonce.
package commerce

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/covenantfi/oracle-agent/chain"
	"github.com/covenantfi/oracle-agent/domain/pool"
	risk "github.com/covenantfi/oracle-agent/domain/risk"
	"github.com/covenantfi/oracle-agent/infrastructure/logging"
)

// ChainCreator is the narrow capability Handler needs from chain.Client.
type ChainCreator interface {
	CreatePool(ctx context.Context, variant pool.Variant, params chain.CreatePoolParams) (poolID uint64, txHash string, err error)
}

type job struct {
	input  string
	replyC chan Deliverable
}

// Handler runs inbound commerce jobs one at a time over a buffered
// channel, grounded on a single-worker dispatcher-loop shape. If an
// in-flight job errors, subsequent jobs still proceed (spec §4.6).
type Handler struct {
	chain    ChainCreator
	registry *pool.Registry
	variant  pool.Variant
	fetch    risk.HTTPFetch

	jobs chan job
	log  *logging.Logger
}

const jobQueueDepth = 64

// NewHandler builds a Handler that creates pools on the given variant.
func NewHandler(chainClient ChainCreator, registry *pool.Registry, variant pool.Variant, fetch risk.HTTPFetch, log *logging.Logger) *Handler {
	return &Handler{
		chain:    chainClient,
		registry: registry,
		variant:  variant,
		fetch:    fetch,
		jobs:     make(chan job, jobQueueDepth),
		log:      log,
	}
}

// Run drains the job queue sequentially until ctx is cancelled. Intended
// to be started once in its own goroutine by the caller.
func (h *Handler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-h.jobs:
			j.replyC <- h.process(ctx, j.input)
		}
	}
}

// Submit enqueues input and blocks until its deliverable is ready or ctx is
// cancelled.
func (h *Handler) Submit(ctx context.Context, input string) (Deliverable, error) {
	replyC := make(chan Deliverable, 1)
	select {
	case h.jobs <- job{input: input, replyC: replyC}:
	case <-ctx.Done():
		return Deliverable{}, ctx.Err()
	}

	select {
	case d := <-replyC:
		return d, nil
	case <-ctx.Done():
		return Deliverable{}, ctx.Err()
	}
}

// process runs the full seven-step pipeline for one job (spec §4.6).
func (h *Handler) process(ctx context.Context, input string) Deliverable {
	req, err := Parse(input)
	if err != nil {
		return errored(fmt.Sprintf("parse failed: %v", err))
	}
	if err := req.Validate(); err != nil {
		return rejected(err.Error(), "provide a coverage amount, duration, and recognizable coverage type")
	}

	product, matched := risk.MatchProduct(req.RawDescription)

	evaluation := risk.Evaluate(ctx, h.fetch, risk.Request{
		Description:    req.RawDescription,
		CoverageAmount: req.CoverageAmount,
		Deadline:       time.Now().Add(time.Duration(req.DurationDays) * 24 * time.Hour),
		Now:            time.Now(),
	})
	if evaluation.Rejected != nil {
		return rejected(evaluation.Rejected.Reason, evaluation.Rejected.Suggestion)
	}

	evidenceURL := evaluation.Approved.EvidenceSourceURL
	if matched && evidenceURL == "" {
		evidenceURL = product.EvidenceSourceURL
	}

	deadline := time.Now().Add(time.Duration(req.DurationDays) * 24 * time.Hour)
	poolID, txHash, err := h.chain.CreatePool(ctx, h.variant, chain.CreatePoolParams{
		Description:       req.RawDescription,
		EvidenceSourceURL: evidenceURL,
		CoverageAmount:    big.NewInt(int64(req.CoverageAmount * 1_000_000)), // 6-decimal fixed point
		PremiumRateBps:    evaluation.Approved.PremiumRateBps,
		Deadline:          deadline.Unix(),
	})
	if err != nil {
		if h.log != nil {
			h.log.Error(ctx, "commerce: on-chain pool creation failed", err, map[string]interface{}{"description": req.RawDescription})
		}
		return errored(fmt.Sprintf("on-chain creation failed: %v", err))
	}

	h.registry.Put(pool.Entry{
		PoolID:            poolID,
		ContractVariant:   h.variant,
		ProductID:         evaluation.Approved.ProductID,
		Description:       req.RawDescription,
		EvidenceSourceURL: evidenceURL,
		CoverageAmount:    uint64(req.CoverageAmount * 1_000_000),
		PremiumAmount:     uint64(evaluation.Approved.PremiumAmount * 1_000_000),
		PremiumRateBps:    evaluation.Approved.PremiumRateBps,
		Deadline:          deadline.Unix(),
		DepositDeadline:   deadline.Unix() - 7200,
		EventProbability:  evaluation.Approved.Frequency,
		Status:            pool.StatusFromCode(h.variant, 0),
		CreationTxHash:    txHash,
		CommerceSourced:   true,
	})

	return created(poolID, txHash, evidenceURL, req.CoverageAmount, evaluation.Approved.PremiumAmount)
}
