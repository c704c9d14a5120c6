package controller

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/covenantfi/oracle-agent/chain"
	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/oracle"
	"github.com/covenantfi/oracle-agent/social"
)

type stubChain struct {
	hasLegacy, hasCurrent bool
	nextPoolID            uint64
	views                 map[uint64]chain.PoolView
	createPoolID          uint64
	createTxHash          string
	createErr             error
	resolveErr            error
	cancelErr             error
	emergencyErr          error
}

func (s *stubChain) HasVariant(v pool.Variant) bool {
	if v == pool.Legacy {
		return s.hasLegacy
	}
	return s.hasCurrent
}

func (s *stubChain) GetNextPoolID(ctx context.Context, variant pool.Variant) (uint64, error) {
	return s.nextPoolID, nil
}

func (s *stubChain) GetPool(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error) {
	v, ok := s.views[poolID]
	if !ok {
		return chain.PoolView{}, errors.New("no such pool")
	}
	return v, nil
}

func (s *stubChain) CreatePool(ctx context.Context, variant pool.Variant, params chain.CreatePoolParams) (uint64, string, error) {
	if s.createErr != nil {
		return 0, "", s.createErr
	}
	return s.createPoolID, s.createTxHash, nil
}

func (s *stubChain) ResolvePool(ctx context.Context, variant pool.Variant, poolID uint64, claimApproved bool) (string, error) {
	return "0xresolve", s.resolveErr
}

func (s *stubChain) CancelAndRefund(ctx context.Context, variant pool.Variant, poolID uint64) (string, error) {
	return "0xcancel", s.cancelErr
}

func (s *stubChain) EmergencyResolve(ctx context.Context, variant pool.Variant, poolID uint64) (string, error) {
	return "0xemergency", s.emergencyErr
}

type stubCache struct {
	chainClient chainReadWriter
}

func (c *stubCache) GetPool(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error) {
	return c.chainClient.GetPool(ctx, variant, poolID)
}
func (c *stubCache) Invalidate(variant pool.Variant, poolID uint64) {}
func (c *stubCache) Clear()                                        {}

type stubResolver struct {
	result oracle.ConsensusResult
	err    error
}

func (s *stubResolver) Resolve(ctx context.Context, entry pool.Entry) (oracle.ConsensusResult, error) {
	return s.result, s.err
}

type stubSocial struct {
	publishShortErr error
	publishLongErr  error
	feed            []social.Post
	mentions        []social.Post
}

func (s *stubSocial) PublishShort(ctx context.Context, body string) (string, error) {
	if s.publishShortErr != nil {
		return "", s.publishShortErr
	}
	return "short-1", nil
}
func (s *stubSocial) PublishLong(ctx context.Context, title, body string) (string, error) {
	if s.publishLongErr != nil {
		return "", s.publishLongErr
	}
	return "long-1", nil
}
func (s *stubSocial) Reply(ctx context.Context, inReplyTo, body string) (string, error) {
	return "reply-1", nil
}
func (s *stubSocial) Like(ctx context.Context, postID string) error { return nil }
func (s *stubSocial) ReadFeed(ctx context.Context, ordering social.FeedOrdering, limit int) ([]social.Post, error) {
	return s.feed, nil
}
func (s *stubSocial) ReadMentions(ctx context.Context, limit int) ([]social.Post, error) {
	return s.mentions, nil
}
func (s *stubSocial) ReadInbox(ctx context.Context, limit int) ([]social.Post, error) { return nil, nil }
func (s *stubSocial) Search(ctx context.Context, phrase string, limit int) ([]social.Post, error) {
	return nil, nil
}

func testConfig() Config {
	return Config{
		ChainID:           1,
		Variant:           pool.Current,
		ContractAddress:   "0xcontract",
		MaxLivePools:      15,
		CreationCooldown:  3,
		InterCommentDelay: 0,
		DeepLinkBaseURL:   "https://app.covenantfi.xyz/act",
	}
}

func TestReconcile_DiscoversMissingPools(t *testing.T) {
	registry := pool.New()
	stub := &stubChain{
		hasCurrent: true,
		nextPoolID: 2,
		views: map[uint64]chain.PoolView{
			0: {Description: "pool zero", Status: pool.StatusOpen, Deadline: 1000},
			1: {Description: "pool one", Status: pool.StatusActive, Deadline: 2000},
		},
	}
	c := New(testConfig(), stub, &stubCache{chainClient: stub}, &stubResolver{}, &stubSocial{}, registry, nil, nil, RoleOracle, nil, nil)

	if err := c.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if registry.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", registry.Count())
	}
	e, ok := registry.Get(pool.Current, 0)
	if !ok || e.Description != "pool zero" {
		t.Errorf("entry 0 = %+v", e)
	}
}

func TestMonitor_DetectsTransitionAndInvalidatesCache(t *testing.T) {
	registry := pool.New()
	registry.Put(pool.Entry{PoolID: 1, ContractVariant: pool.Legacy, Status: pool.StatusPending, LastSeenStatus: pool.StatusPending, DepositDeadline: time.Now().Add(46 * time.Hour).Unix()})

	stub := &stubChain{
		hasLegacy: true,
		views: map[uint64]chain.PoolView{
			1: {Status: pool.StatusOpen, Deadline: time.Now().Add(48 * time.Hour).Unix()},
		},
	}
	socialStub := &stubSocial{}
	c := New(testConfig(), stub, &stubCache{chainClient: stub}, &stubResolver{}, socialStub, registry, nil, nil, RoleOracle, nil, nil)

	if err := c.Monitor(context.Background()); err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	e, _ := registry.Get(pool.Legacy, 1)
	if e.Status != pool.StatusOpen {
		t.Errorf("Status = %s, want open", e.Status)
	}
	if e.Artifacts.Phase2Collat == "" {
		t.Error("expected a provide-collateral artifact to have been published on Pending->Open transition")
	}
}

func TestMonitor_CancelsUnderfundedPastDepositDeadline(t *testing.T) {
	registry := pool.New()
	registry.Put(pool.Entry{PoolID: 5, ContractVariant: pool.Current, Status: pool.StatusOpen, LastSeenStatus: pool.StatusOpen, DepositDeadline: time.Now().Add(-time.Hour).Unix()})

	stub := &stubChain{
		hasCurrent: true,
		views: map[uint64]chain.PoolView{
			5: {Status: pool.StatusOpen, Deadline: time.Now().Add(48 * time.Hour).Unix()},
		},
	}
	c := New(testConfig(), stub, &stubCache{chainClient: stub}, &stubResolver{}, &stubSocial{}, registry, nil, nil, RoleOracle, nil, nil)

	if err := c.Monitor(context.Background()); err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	e, _ := registry.Get(pool.Current, 5)
	if e.Status != pool.StatusCancelled {
		t.Errorf("Status = %s, want cancelled", e.Status)
	}
}

func TestCreate_RespectsCooldown(t *testing.T) {
	registry := pool.New()
	stub := &stubChain{hasCurrent: true, createPoolID: 9, createTxHash: "0xcreate"}
	cfg := testConfig()
	cfg.CreationCooldown = 3

	c := New(cfg, stub, &stubCache{chainClient: stub}, &stubResolver{}, &stubSocial{}, registry, nil, nil, RoleOracle, nil, nil)

	// CyclesSinceLastCreation() is 0 at a fresh registry (CycleCount == LastPoolCreatedCycle == 0),
	// which is below the cooldown, so Create must no-op.
	if err := c.Create(context.Background()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if registry.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 pools created before cooldown elapses", registry.Count())
	}

	for i := 0; i < 4; i++ {
		registry.IncrementCycle(time.Now())
	}
	if err := c.Create(context.Background()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if registry.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 pool created once cooldown elapses", registry.Count())
	}
}

func TestCreate_SkipsWhenPaused(t *testing.T) {
	registry := pool.New()
	stub := &stubChain{hasCurrent: true}
	cfg := testConfig()
	cfg.PauseCreation = true

	c := New(cfg, stub, &stubCache{chainClient: stub}, &stubResolver{}, &stubSocial{}, registry, nil, nil, RoleOracle, nil, nil)
	if err := c.Create(context.Background()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if registry.Count() != 0 {
		t.Errorf("Count() = %d, want 0 while paused", registry.Count())
	}
}

func TestResolve_AppliesConservativeConsensus(t *testing.T) {
	registry := pool.New()
	registry.Put(pool.Entry{
		PoolID: 3, ContractVariant: pool.Current, Status: pool.StatusActive, LastSeenStatus: pool.StatusActive,
		Deadline: time.Now().Add(-time.Minute).Unix(),
	})
	stub := &stubChain{hasCurrent: true}
	res := &stubResolver{result: oracle.ConsensusResult{
		ClaimApproved: false,
		Judge:         oracle.SubVerdict{Verdict: true},
		Auditor:       oracle.SubVerdict{Verdict: false},
		ResolvedAt:    time.Now(),
	}}
	c := New(testConfig(), stub, &stubCache{chainClient: stub}, res, &stubSocial{}, registry, nil, nil, RoleOracle, nil, nil)

	if err := c.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	e, _ := registry.Get(pool.Current, 3)
	if e.Status != pool.StatusResolved {
		t.Errorf("Status = %s, want resolved", e.Status)
	}
	if e.ClaimApproved == nil || *e.ClaimApproved {
		t.Error("expected claim_approved=false from a split verdict")
	}
}

func TestResolve_EmergencyResolvesOverdueActivePool(t *testing.T) {
	registry := pool.New()
	registry.Put(pool.Entry{
		PoolID: 4, ContractVariant: pool.Current, Status: pool.StatusActive, LastSeenStatus: pool.StatusActive,
		Deadline: time.Now().Add(-48 * time.Hour).Unix(),
	})
	stub := &stubChain{hasCurrent: true}
	c := New(testConfig(), stub, &stubCache{chainClient: stub}, &stubResolver{}, &stubSocial{}, registry, nil, nil, RoleOracle, nil, nil)

	if err := c.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	e, _ := registry.Get(pool.Current, 4)
	if e.Status != pool.StatusResolved || e.ClaimApproved == nil || *e.ClaimApproved {
		t.Errorf("entry = %+v, want resolved+denied", e)
	}
}

func TestSocialEngagement_RepliesToMatchedOpportunity(t *testing.T) {
	registry := pool.New()
	stub := &stubChain{hasCurrent: true}
	socialStub := &stubSocial{feed: []social.Post{{ID: "p1", Body: "worried about eth price dropping hard this month"}}}
	c := New(testConfig(), stub, &stubCache{chainClient: stub}, &stubResolver{}, socialStub, registry, nil, nil, RoleOracle, nil, nil)

	if err := c.SocialEngagement(context.Background()); err != nil {
		t.Fatalf("SocialEngagement: %v", err)
	}
	if !registry.SeenPostID("p1") {
		t.Error("expected post p1 to be recorded as seen")
	}
	comments, _ := registry.DailyCount(time.Now())
	if comments != 1 {
		t.Errorf("DailyCount comments = %d, want 1", comments)
	}
}

func TestSocialEngagement_SuspensionStopsReplies(t *testing.T) {
	registry := pool.New()
	registry.SetSuspendedUntil(time.Now().Add(time.Hour))
	stub := &stubChain{hasCurrent: true}
	socialStub := &stubSocial{feed: []social.Post{{ID: "p1", Body: "eth price insurance please"}}}
	c := New(testConfig(), stub, &stubCache{chainClient: stub}, &stubResolver{}, socialStub, registry, nil, nil, RoleOracle, nil, nil)

	if err := c.SocialEngagement(context.Background()); err != nil {
		t.Fatalf("SocialEngagement: %v", err)
	}
	if registry.SeenPostID("p1") {
		t.Error("should not process posts while suspended")
	}
}

func TestRecordIfSuspension_DetectsSuspensionError(t *testing.T) {
	registry := pool.New()
	stub := &stubChain{hasCurrent: true}
	c := New(testConfig(), stub, &stubCache{chainClient: stub}, &stubResolver{}, &stubSocial{}, registry, nil, nil, RoleOracle, nil, nil)

	handled := c.recordIfSuspension(context.Background(), &social.SuspensionError{StatusCode: 429})
	if !handled {
		t.Fatal("expected recordIfSuspension to recognize a *social.SuspensionError")
	}
	if !registry.IsSuspended(time.Now()) {
		t.Error("expected registry to be marked suspended")
	}
}

func TestSafeUint64(t *testing.T) {
	if safeUint64(nil) != 0 {
		t.Error("safeUint64(nil) should be 0")
	}
	if safeUint64(big.NewInt(42)) != 42 {
		t.Error("safeUint64(42) should be 42")
	}
}
