// Package observability provides Prometheus metrics for mint runs.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"solana-nft-mint/internal/domain"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Metrics holds all Prometheus metrics of a run on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	// Token metrics
	TokensMinted     *prometheus.CounterVec
	MintFailures     *prometheus.CounterVec
	StageTransitions *prometheus.CounterVec

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Run metrics
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Gauge
	LastRunFinish prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "nftmint"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Token metrics
		TokensMinted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "minted_total",
			Help:      "Total number of tokens minted by role",
		}, []string{"role"}),
		MintFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "mint_failures_total",
			Help:      "Total number of descriptors that failed to mint by role",
		}, []string{"role"}),
		StageTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "stage_transitions_total",
			Help:      "Total number of item stage transitions by stage",
		}, []string{"stage"}),

		// RPC metrics
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls by method",
		}, []string{"method"}),

		// Run metrics
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Duration of the last run in seconds",
		}),
		LastRunFinish: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_finish_timestamp",
			Help:      "Unix timestamp of the last finished run",
		}),
	}
}

// Registry returns the registry all metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRPC records one RPC call. Its signature matches solana.CallObserver.
func (m *Metrics) ObserveRPC(method string, elapsed time.Duration, err error) {
	m.RPCCallLatency.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		m.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// Minted records a minted token.
func (m *Metrics) Minted(_ context.Context, tok *domain.MintedToken) {
	m.TokensMinted.WithLabelValues(string(tok.Role)).Inc()
}

// MintFailed records a descriptor that failed to mint.
func (m *Metrics) MintFailed(_ context.Context, role domain.TokenRole, _ int, _ error) {
	m.MintFailures.WithLabelValues(string(role)).Inc()
}

// Stage records an item stage transition.
func (m *Metrics) Stage(_ context.Context, item *domain.ItemResult) {
	stage := item.Stage
	if item.Err != nil {
		stage = domain.StageFailed
	}
	m.StageTransitions.WithLabelValues(string(stage)).Inc()
}

// RecordRun records the outcome of a finished run.
func (m *Metrics) RecordRun(status string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Set(duration.Seconds())
	m.LastRunFinish.SetToCurrentTime()
}

// Push sends the registry to a Prometheus Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	err := push.New(url, job).
		Gatherer(m.registry).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
