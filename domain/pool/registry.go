package pool

import (
	"sort"
	"sync"
	"time"
)

// boundedFIFOCap is the default cap for the content-hash and processed-post
// FIFOs (spec §4.8 step 5).
const boundedFIFOCap = 500

// DailyCounter tracks comment/post counts for a single UTC date key
// ("YYYY-MM-DD").
type DailyCounter struct {
	Comments int `json:"comments"`
	Posts    int `json:"posts"`
}

// Counters holds the process-wide, persisted counters described in spec §3.
type Counters struct {
	CycleCount          uint64                   `json:"cycle_count"`
	LastPoolCreatedCycle uint64                  `json:"last_pool_created_cycle"`
	DailyCounters       map[string]*DailyCounter `json:"daily_counters"`
	ContentHashes       []string                 `json:"content_hashes"`
	ProcessedPostIDs    []string                 `json:"processed_post_ids"`
	SuspendedUntil      *time.Time               `json:"suspended_until,omitempty"`
	LastHeartbeat       time.Time                `json:"last_heartbeat"`
}

// NewCounters returns a zero-valued Counters with initialized maps.
func NewCounters() *Counters {
	return &Counters{DailyCounters: make(map[string]*DailyCounter)}
}

// Registry is the Lifecycle Controller's exclusive-owned store of pool
// entries and process counters (spec §3 "Ownership"). All mutation methods
// are safe for concurrent use — the Commerce Job Handler's worker goroutine
// and the Controller's heartbeat goroutine both hold references to the same
// Registry and must serialize through it.
type Registry struct {
	mu       sync.RWMutex
	entries  map[Key]*Entry
	counters *Counters
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries:  make(map[Key]*Entry),
		counters: NewCounters(),
	}
}

// Get returns a copy of the entry for (variant, poolID), if present.
func (r *Registry) Get(variant Variant, poolID uint64) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[Key{Variant: variant, PoolID: poolID}]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Put inserts or replaces an entry. Returns an error-free upsert; the
// registry invariant (no duplicate pool id per variant) is preserved because
// Key is the map key.
func (r *Registry) Put(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := e
	r.entries[e.KeyOf()] = &cp
}

// Mutate applies fn to the entry for (variant, poolID) under the registry
// lock, returning false if no such entry exists.
func (r *Registry) Mutate(variant Variant, poolID uint64, fn func(*Entry)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[Key{Variant: variant, PoolID: poolID}]
	if !ok {
		return false
	}
	fn(e)
	return true
}

// All returns a snapshot copy of every entry, ordered by variant then pool id
// for deterministic iteration.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContractVariant != out[j].ContractVariant {
			return out[i].ContractVariant < out[j].ContractVariant
		}
		return out[i].PoolID < out[j].PoolID
	})
	return out
}

// Live returns a snapshot of every entry whose status is not terminal.
func (r *Registry) Live() []Entry {
	all := r.All()
	out := all[:0:0]
	for _, e := range all {
		if e.Status.IsLive() {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the total number of registry entries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// LiveCount returns the number of non-terminal entries.
func (r *Registry) LiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.Status.IsLive() {
			n++
		}
	}
	return n
}

// CountersSnapshot returns a copy of the process-wide counters.
func (r *Registry) CountersSnapshot() Counters {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := *r.counters
	cp.DailyCounters = make(map[string]*DailyCounter, len(r.counters.DailyCounters))
	for k, v := range r.counters.DailyCounters {
		vv := *v
		cp.DailyCounters[k] = &vv
	}
	cp.ContentHashes = append([]string(nil), r.counters.ContentHashes...)
	cp.ProcessedPostIDs = append([]string(nil), r.counters.ProcessedPostIDs...)
	return cp
}

// IncrementCycle bumps the cycle counter and records the heartbeat time.
func (r *Registry) IncrementCycle(now time.Time) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.CycleCount++
	r.counters.LastHeartbeat = now
	return r.counters.CycleCount
}

// CycleCount returns the current cycle counter without mutating it.
func (r *Registry) CycleCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters.CycleCount
}

// RecordPoolCreated marks the current cycle as the last pool-creation cycle
// (the cooldown gate of spec §4.8 step 4).
func (r *Registry) RecordPoolCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.LastPoolCreatedCycle = r.counters.CycleCount
}

// CyclesSinceLastCreation returns how many cycles have elapsed since the
// last pool creation.
func (r *Registry) CyclesSinceLastCreation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.counters.CycleCount < r.counters.LastPoolCreatedCycle {
		return 0
	}
	return r.counters.CycleCount - r.counters.LastPoolCreatedCycle
}

// IncrementDaily bumps the comment or post counter for today's UTC date key.
func (r *Registry) IncrementDaily(now time.Time, comments, posts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := now.UTC().Format("2006-01-02")
	dc, ok := r.counters.DailyCounters[key]
	if !ok {
		dc = &DailyCounter{}
		r.counters.DailyCounters[key] = dc
	}
	dc.Comments += comments
	dc.Posts += posts
}

// DailyCount returns today's counter values.
func (r *Registry) DailyCount(now time.Time) (comments, posts int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := now.UTC().Format("2006-01-02")
	dc, ok := r.counters.DailyCounters[key]
	if !ok {
		return 0, 0
	}
	return dc.Comments, dc.Posts
}

// SeenContentHash reports whether the given content hash was already
// recorded, and if not, records it (bounded FIFO, spec §9 "Content
// duplication").
func (r *Registry) SeenContentHash(hash string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.counters.ContentHashes {
		if h == hash {
			return true
		}
	}
	r.counters.ContentHashes = appendBounded(r.counters.ContentHashes, hash, boundedFIFOCap)
	return false
}

// SeenPostID reports whether the given inbound post id was already
// processed, and if not, records it (bounded FIFO, spec §4.8 step 5).
func (r *Registry) SeenPostID(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.counters.ProcessedPostIDs {
		if p == id {
			return true
		}
	}
	r.counters.ProcessedPostIDs = appendBounded(r.counters.ProcessedPostIDs, id, boundedFIFOCap)
	return false
}

func appendBounded(fifo []string, item string, cap int) []string {
	fifo = append(fifo, item)
	if len(fifo) > cap {
		fifo = fifo[len(fifo)-cap:]
	}
	return fifo
}

// SetSuspendedUntil records a social-platform suspension expiry.
func (r *Registry) SetSuspendedUntil(until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := until
	r.counters.SuspendedUntil = &u
}

// ClearSuspension removes any recorded suspension.
func (r *Registry) ClearSuspension() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.SuspendedUntil = nil
}

// IsSuspended reports whether the registry is currently within a recorded
// suspension window.
func (r *Registry) IsSuspended(now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters.SuspendedUntil != nil && now.Before(*r.counters.SuspendedUntil)
}

// LoadSnapshot replaces the registry's contents wholesale, used by
// persistence on process start.
func (r *Registry) LoadSnapshot(entries []Entry, counters Counters) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[Key]*Entry, len(entries))
	for _, e := range entries {
		cp := e
		r.entries[e.KeyOf()] = &cp
	}
	if counters.DailyCounters == nil {
		counters.DailyCounters = make(map[string]*DailyCounter)
	}
	r.counters = &counters
}
