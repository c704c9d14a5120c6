// Package metrics provides Prometheus metrics collection for the agent's lifecycle loop.
package metrics

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/covenantfi/oracle-agent/infrastructure/runtime"
)

// Metrics holds all Prometheus metrics emitted by the agent.
type Metrics struct {
	// Heartbeat / reconcile loop
	CyclesTotal    *prometheus.CounterVec
	CycleDuration  *prometheus.HistogramVec
	PoolsReconciled prometheus.Gauge

	// Error metrics
	ErrorsTotal *prometheus.CounterVec

	// Chain metrics
	ChainCallsTotal    *prometheus.CounterVec
	ChainTxDuration    *prometheus.HistogramVec
	ChainTxTotal       *prometheus.CounterVec

	// Oracle / resolution metrics
	ResolutionsTotal *prometheus.CounterVec
	ConsensusSplits  prometheus.Counter

	// Commerce metrics
	CommerceJobsTotal *prometheus.CounterVec

	// Agent health
	AgentUptime prometheus.Gauge
	AgentInfo   *prometheus.GaugeVec
}

// New creates a new Metrics instance with all collectors registered.
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance with a custom registry.
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_cycles_total",
				Help: "Total number of reconcile cycles run",
			},
			[]string{"service", "status"},
		),
		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_cycle_duration_seconds",
				Help:    "Reconcile cycle duration in seconds",
				Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"service"},
		),
		PoolsReconciled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "agent_pools_reconciled",
				Help: "Number of pools seen in the most recent reconcile cycle",
			},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errors_total",
				Help: "Total number of errors",
			},
			[]string{"service", "type", "operation"},
		),

		ChainCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chain_calls_total",
				Help: "Total number of chain RPC calls",
			},
			[]string{"service", "method", "status"},
		),
		ChainTxDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chain_transaction_duration_seconds",
				Help:    "Chain transaction confirmation duration in seconds",
				Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"service", "operation"},
		),
		ChainTxTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chain_transactions_total",
				Help: "Total number of chain transactions submitted",
			},
			[]string{"service", "operation", "status"},
		),

		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pool_resolutions_total",
				Help: "Total number of pool resolutions submitted, by outcome",
			},
			[]string{"service", "outcome"},
		),
		ConsensusSplits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "oracle_consensus_splits_total",
				Help: "Total number of times the judge and auditor disagreed",
			},
		),

		CommerceJobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commerce_jobs_total",
				Help: "Total number of commerce engagement jobs processed",
			},
			[]string{"service", "status"},
		),

		AgentUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "agent_uptime_seconds",
				Help: "Agent uptime in seconds",
			},
		),
		AgentInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agent_info",
				Help: "Agent build/runtime information",
			},
			[]string{"service", "version", "environment"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.CyclesTotal,
			m.CycleDuration,
			m.PoolsReconciled,
			m.ErrorsTotal,
			m.ChainCallsTotal,
			m.ChainTxDuration,
			m.ChainTxTotal,
			m.ResolutionsTotal,
			m.ConsensusSplits,
			m.CommerceJobsTotal,
			m.AgentUptime,
			m.AgentInfo,
		)
	}

	m.AgentInfo.WithLabelValues(serviceName, "1.0.0", getEnvironment()).Set(1)

	return m
}

// RecordCycle records the outcome and duration of a reconcile cycle.
func (m *Metrics) RecordCycle(service, status string, duration time.Duration) {
	m.CyclesTotal.WithLabelValues(service, status).Inc()
	m.CycleDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordError records an error.
func (m *Metrics) RecordError(service, errorType, operation string) {
	m.ErrorsTotal.WithLabelValues(service, errorType, operation).Inc()
}

// RecordChainCall records a chain RPC call.
func (m *Metrics) RecordChainCall(service, method, status string) {
	m.ChainCallsTotal.WithLabelValues(service, method, status).Inc()
}

// RecordChainTx records a chain transaction submission.
func (m *Metrics) RecordChainTx(service, operation, status string, duration time.Duration) {
	m.ChainTxTotal.WithLabelValues(service, operation, status).Inc()
	m.ChainTxDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordResolution records a pool resolution outcome.
func (m *Metrics) RecordResolution(service, outcome string) {
	m.ResolutionsTotal.WithLabelValues(service, outcome).Inc()
}

// RecordConsensusSplit records a judge/auditor disagreement.
func (m *Metrics) RecordConsensusSplit() {
	m.ConsensusSplits.Inc()
}

// RecordCommerceJob records a commerce engagement job outcome.
func (m *Metrics) RecordCommerceJob(service, status string) {
	m.CommerceJobsTotal.WithLabelValues(service, status).Inc()
}

// SetPoolsReconciled sets the gauge for pools seen in the last cycle.
func (m *Metrics) SetPoolsReconciled(count int) {
	m.PoolsReconciled.Set(float64(count))
}

// UpdateUptime updates the agent uptime gauge.
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.AgentUptime.Set(time.Since(startTime).Seconds())
}

func getEnvironment() string {
	return string(runtime.Env())
}

// Enabled returns whether Prometheus metrics should be exposed.
//
// Defaults:
// - production: disabled unless explicitly enabled via METRICS_ENABLED
// - non-production: enabled unless explicitly disabled via METRICS_ENABLED
func Enabled() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	if raw == "" {
		return !runtime.IsProduction()
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Global metrics instance
var (
	globalMetrics *Metrics
	globalMu      sync.Mutex
)

// Init initializes the global metrics instance.
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New(serviceName)
	}
	return globalMetrics
}

// Global returns the global metrics instance.
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New("unknown")
	}
	return globalMetrics
}
