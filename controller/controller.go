// Package controller runs the agent's heartbeat: a cold-start reconcile
// once at startup, then one monitor→resolve→create→social-engagement→
// suspension-check→persist cycle per tick (spec §4.8), scheduled with
// robfig/cron/v3 the way the teacher schedules its recurring background jobs.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/domain/risk"
	"github.com/covenantfi/oracle-agent/infrastructure/logging"
	"github.com/covenantfi/oracle-agent/infrastructure/metrics"
	"github.com/covenantfi/oracle-agent/social"
)

// Role selects which phases a cycle runs. An agent whose oracle-authorization
// probe failed at startup runs in RoleSocialOnly forever — it can still
// read the chain and engage socially, but it must never attempt to resolve
// or create pools it is not trusted to gate (spec §7 "degraded mode").
type Role string

const (
	RoleOracle      Role = "oracle"
	RoleSocialOnly  Role = "social_only"
)

// Config bundles the tunables the controller reads every cycle, all sourced
// from internal/config.Config (spec §5).
type Config struct {
	ChainID          int64
	Variant          pool.Variant
	ContractAddress  string
	MaxLivePools     int
	CreationCooldown int
	PauseCreation    bool
	InterCommentDelay time.Duration
	DailyCommentCap  int
	DailyPostCap     int
	DeepLinkBaseURL  string

	OracleCycle     time.Duration
	SocialOnlyCycle time.Duration
}

// Controller owns every collaborator the heartbeat cycle touches. All chain
// writes — whether issued here or by the Commerce Job Handler — funnel
// through the same chain.Client, whose own writeMu already serializes
// nonces; the controller does not need a second lock (see DESIGN.md).
type Controller struct {
	cfg Config

	chainClient chainReadWriter
	cache       poolReader
	auditor     resolver
	socialClient social.Client
	registry    *pool.Registry
	store       snapshotSaver
	fetch       risk.HTTPFetch

	role Role
	log  *logging.Logger
	metrics *metrics.Metrics

	cron *cron.Cron
}

// New builds a Controller. role is fixed for the controller's lifetime —
// degraded mode never escalates back to RoleOracle without a process
// restart, so an operator has to notice and fix the underlying authorization
// problem (spec §7).
func New(
	cfg Config,
	chainClient chainReadWriter,
	poolCache poolReader,
	auditor resolver,
	socialClient social.Client,
	registry *pool.Registry,
	store snapshotSaver,
	fetch risk.HTTPFetch,
	role Role,
	log *logging.Logger,
	m *metrics.Metrics,
) *Controller {
	return &Controller{
		cfg:          cfg,
		chainClient:  chainClient,
		cache:        poolCache,
		auditor:      auditor,
		socialClient: socialClient,
		registry:     registry,
		store:        store,
		fetch:        fetch,
		role:         role,
		log:          log,
		metrics:      m,
	}
}

// Run starts the cold-start reconciliation, then schedules the recurring
// heartbeat at the interval appropriate to the controller's role, and blocks
// until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Reconcile(ctx); err != nil {
		return fmt.Errorf("controller: cold-start reconcile: %w", err)
	}

	interval := c.cfg.OracleCycle
	if c.role == RoleSocialOnly {
		interval = c.cfg.SocialOnlyCycle
	}
	if interval <= 0 {
		interval = 5 * time.Minute
		if c.role == RoleSocialOnly {
			interval = 10 * time.Minute
		}
	}
	spec := fmt.Sprintf("@every %s", interval)

	// SkipIfStillRunning guards against a heartbeat that overruns its own
	// interval (e.g. a slow RPC endpoint) scheduling an overlapping cycle,
	// which would let two cycles mutate the registry and submit chain writes
	// concurrently.
	c.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.cron.AddFunc(spec, func() { c.runCycle(ctx) })
	if err != nil {
		return fmt.Errorf("controller: schedule heartbeat: %w", err)
	}
	c.cron.Start()
	defer c.cron.Stop()

	if c.role == RoleSocialOnly && c.log != nil {
		c.log.Warn(ctx, "controller running in degraded social-only mode: oracle authorization probe failed at startup", nil)
	}

	<-ctx.Done()
	return ctx.Err()
}

// runCycle executes one full heartbeat and records its outcome. Panics from
// any one phase must never bring the process down — the teacher's own
// background workers recover a single tick's panic and let the next
// scheduled tick try again.
func (c *Controller) runCycle(ctx context.Context) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			if c.log != nil {
				c.log.Error(ctx, "controller: cycle panicked, recovering", fmt.Errorf("%v", r), nil)
			}
			if c.metrics != nil {
				c.metrics.RecordCycle("controller", "panic", time.Since(start))
			}
		}
	}()

	c.cache.Clear()
	cycleNum := c.registry.IncrementCycle(start)

	if err := c.Monitor(ctx); err != nil && c.log != nil {
		c.log.Error(ctx, "controller: monitor phase failed", err, map[string]interface{}{"cycle": cycleNum})
	}

	degraded := c.role == RoleSocialOnly
	if !degraded {
		if err := c.Resolve(ctx); err != nil && c.log != nil {
			c.log.Error(ctx, "controller: resolve phase failed", err, map[string]interface{}{"cycle": cycleNum})
		}
		if err := c.Create(ctx); err != nil && c.log != nil {
			c.log.Error(ctx, "controller: create phase failed", err, map[string]interface{}{"cycle": cycleNum})
		}
	}

	if err := c.SocialEngagement(ctx); err != nil && c.log != nil {
		c.log.Error(ctx, "controller: social engagement phase failed", err, map[string]interface{}{"cycle": cycleNum})
	}

	c.checkSuspension()

	if c.store != nil {
		if err := c.store.Save(ctx, c.registry); err != nil && c.log != nil {
			c.log.Error(ctx, "controller: persist snapshot failed", err, map[string]interface{}{"cycle": cycleNum})
		}
	}

	if c.metrics != nil {
		c.metrics.RecordCycle("controller", "ok", time.Since(start))
		c.metrics.SetPoolsReconciled(c.registry.LiveCount())
	}
}
