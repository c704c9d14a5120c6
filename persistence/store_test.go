package persistence

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/covenantfi/oracle-agent/domain/pool"
)

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	registry := pool.New()
	registry.Put(pool.Entry{PoolID: 1, ContractVariant: pool.Current, Status: pool.StatusOpen, Description: "ETH drops below $2000"})
	registry.IncrementCycle(time.Unix(1_700_000_000, 0))
	registry.RecordPoolCreated()
	registry.IncrementDaily(time.Unix(1_700_000_000, 0), 2, 1)
	registry.SeenContentHash("abc123")
	registry.SeenPostID("post-1")

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Save(context.Background(), registry); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloadedStore, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open (reload): %v", err)
	}
	reloaded := pool.New()
	if err := reloadedStore.Load(context.Background(), reloaded); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if reloaded.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", reloaded.Count())
	}
	e, ok := reloaded.Get(pool.Current, 1)
	if !ok || e.Description != "ETH drops below $2000" {
		t.Errorf("reloaded entry mismatch: %+v", e)
	}
	if reloaded.CycleCount() != 1 {
		t.Errorf("CycleCount() = %d, want 1", reloaded.CycleCount())
	}
	comments, posts := reloaded.DailyCount(time.Unix(1_700_000_000, 0))
	if comments != 2 || posts != 1 {
		t.Errorf("DailyCount() = (%d, %d), want (2, 1)", comments, posts)
	}
	if !reloaded.SeenContentHash("abc123") {
		t.Error("expected content hash to have survived the round trip")
	}
	if !reloaded.SeenPostID("post-1") {
		t.Error("expected processed post id to have survived the round trip")
	}
}

func TestStore_LoadMissingFileIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	registry := pool.New()
	if err := store.Load(context.Background(), registry); err != nil {
		t.Fatalf("Load on missing snapshot: %v", err)
	}
	if registry.Count() != 0 {
		t.Errorf("Count() = %d, want 0 for a fresh registry", registry.Count())
	}
}

func TestStore_EncryptedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	registry := pool.New()
	registry.Put(pool.Entry{PoolID: 7, ContractVariant: pool.Legacy, Status: pool.StatusOpen, Description: "BTC drops below $40000"})

	store, err := Open(path, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Save(context.Background(), registry); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(raw), "BTC drops below") {
		t.Fatal("snapshot on disk is plaintext despite an encryption key")
	}

	reloaded := pool.New()
	reloadedStore, err := Open(path, key)
	if err != nil {
		t.Fatalf("Open (reload): %v", err)
	}
	if err := reloadedStore.Load(context.Background(), reloaded); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, ok := reloaded.Get(pool.Legacy, 7)
	if !ok || e.Description != "BTC drops below $40000" {
		t.Errorf("reloaded entry mismatch: %+v", e)
	}

	wrongKey := make([]byte, 32)
	copy(wrongKey, key)
	wrongKey[0] ^= 0xFF
	wrongStore, err := Open(path, wrongKey)
	if err != nil {
		t.Fatalf("Open (wrong key): %v", err)
	}
	if err := wrongStore.Load(context.Background(), pool.New()); err == nil {
		t.Fatal("expected Load with the wrong key to fail")
	}
}
