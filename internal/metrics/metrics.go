// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tabsplit"

var (
	// Allocations counts allocation passes.
	Allocations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "allocations_total",
		Help:      "Number of cost allocation passes run.",
	})

	// SettlementResidue observes the cents-rounding residue before settlement.
	SettlementResidue = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "settlement_residue",
		Help:      "Absolute rounding residue found before settlement, in currency units.",
		Buckets:   []float64{0.01, 0.02, 0.05, 0.1, 0.5, 1},
	})

	// Forks counts frozen bills forked because of an edit.
	Forks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bill_forks_total",
		Help:      "Number of frozen bills forked on edit.",
	})

	// Freezes counts bills marked as new, by reason.
	Freezes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bill_freezes_total",
		Help:      "Number of bills frozen, by reason.",
	}, []string{"reason"})

	// Saves counts save attempts per tier and outcome.
	Saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bill_saves_total",
		Help:      "Number of bill save attempts, by tier and result.",
	}, []string{"tier", "result"})

	// BackupQueueDepth reports bills waiting for remote backup.
	BackupQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backup_queue_depth",
		Help:      "Bills waiting to be backed up remotely.",
	})

	// RPCRequests counts handled RPCs by procedure and code.
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "Handled RPC requests, by procedure and result code.",
	}, []string{"procedure", "code"})
)

// Result labels for Saves.
const (
	ResultOK    = "ok"
	ResultError = "error"
)
