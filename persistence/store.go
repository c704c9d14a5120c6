// Package persistence durably snapshots the pool registry and its counters
// to a single JSON document on disk, so the controller can resume correctly
// after a restart (spec §3, §6). It wraps infrastructure/state.FileBackend
// rather than a multi-key KV store, since the agent only ever needs one
// document.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/infrastructure/state"
	"github.com/covenantfi/oracle-agent/internal/crypto"
)

const snapshotKey = "agent-state"

// snapshot is the single-JSON-document schema of spec §6: pools[],
// processed_post_ids[], content_hashes[], last_pool_created_cycle,
// cycle_count, last_heartbeat, daily_counters.
type snapshot struct {
	Pools               []pool.Entry                 `json:"pools"`
	ProcessedPostIDs    []string                     `json:"processed_post_ids"`
	ContentHashes       []string                     `json:"content_hashes"`
	LastPoolCreatedCycle uint64                      `json:"last_pool_created_cycle"`
	CycleCount          uint64                       `json:"cycle_count"`
	LastHeartbeat       time.Time                    `json:"last_heartbeat"`
	DailyCounters       map[string]*pool.DailyCounter `json:"daily_counters"`
	SuspendedUntil      *time.Time                   `json:"suspended_until,omitempty"`
}

// Store persists and loads a pool.Registry's full state as one JSON
// document, written atomically via FileBackend's temp-file-and-rename.
// When encryptionKey is set, the document is sealed with AES-256-GCM before
// it touches disk — the host filesystem outside an enclave is untrusted, and
// the snapshot otherwise carries pool descriptions and evidence URLs in
// plaintext (spec §6).
type Store struct {
	backend       *state.FileBackend
	encryptionKey []byte
}

// Open loads (or creates) the snapshot file at path. A nil encryptionKey
// leaves the snapshot in plaintext, which is acceptable for local
// development but never for a production deployment outside an enclave.
func Open(path string, encryptionKey []byte) (*Store, error) {
	backend, err := state.NewFileBackend(path)
	if err != nil {
		return nil, fmt.Errorf("persistence: open snapshot: %w", err)
	}
	return &Store{backend: backend, encryptionKey: encryptionKey}, nil
}

// Save writes the registry's current entries and counters to disk.
func (s *Store) Save(ctx context.Context, registry *pool.Registry) error {
	entries := registry.All()
	counters := registry.CountersSnapshot()

	snap := snapshot{
		Pools:                entries,
		ProcessedPostIDs:     counters.ProcessedPostIDs,
		ContentHashes:        counters.ContentHashes,
		LastPoolCreatedCycle: counters.LastPoolCreatedCycle,
		CycleCount:           counters.CycleCount,
		LastHeartbeat:        counters.LastHeartbeat,
		DailyCounters:        counters.DailyCounters,
		SuspendedUntil:       counters.SuspendedUntil,
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persistence: marshal snapshot: %w", err)
	}
	if s.encryptionKey != nil {
		raw, err = crypto.Encrypt(s.encryptionKey, raw)
		if err != nil {
			return fmt.Errorf("persistence: encrypt snapshot: %w", err)
		}
	}
	if err := s.backend.Save(ctx, snapshotKey, raw); err != nil {
		return fmt.Errorf("persistence: save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot file (if any) and applies it wholesale to
// registry via LoadSnapshot. If no snapshot exists yet, Load is a no-op and
// returns nil — the controller must be able to resume with an empty local
// snapshot (spec §4.8 "cold-start reconciliation").
func (s *Store) Load(ctx context.Context, registry *pool.Registry) error {
	raw, err := s.backend.Load(ctx, snapshotKey)
	if errors.Is(err, state.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("persistence: load snapshot: %w", err)
	}
	if s.encryptionKey != nil {
		raw, err = crypto.Decrypt(s.encryptionKey, raw)
		if err != nil {
			return fmt.Errorf("persistence: decrypt snapshot: %w", err)
		}
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("persistence: parse snapshot: %w", err)
	}

	counters := *pool.NewCounters()
	counters.ProcessedPostIDs = snap.ProcessedPostIDs
	counters.ContentHashes = snap.ContentHashes
	counters.LastPoolCreatedCycle = snap.LastPoolCreatedCycle
	counters.CycleCount = snap.CycleCount
	counters.LastHeartbeat = snap.LastHeartbeat
	counters.SuspendedUntil = snap.SuspendedUntil
	if snap.DailyCounters != nil {
		counters.DailyCounters = snap.DailyCounters
	}

	registry.LoadSnapshot(snap.Pools, counters)
	return nil
}
