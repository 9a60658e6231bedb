package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"sync"
)

var (
	// HTTP
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Orchestration
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Ledger records that reached a final status",
		},
		[]string{"type", "status"}, // status: COMPLETED|FAILED|REVERSED
	)
	CompensationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_compensations_total",
			Help: "Compensating credits issued for half-done transfers",
		},
		[]string{"result"}, // succeeded|failed
	)
	ReconciliationRequired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_reconciliation_required_total",
			Help: "Pending records left untouched because a balance call outcome is unknown",
		},
	)
	RecoveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_recovered_total",
			Help: "Stale pending records resolved by the recovery sweep",
		},
		[]string{"status"},
	)

	// Events
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_published_total",
			Help: "Transaction events handed to the event bus",
		},
		[]string{"event_type", "result"}, // result: ok|error|dropped
	)
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	// Balance service
	BalanceCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_service_calls_total",
			Help: "Calls made to the balance service",
		},
		[]string{"operation", "result"},
	)
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "balance_service_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)

	once sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

func Init() {
	once.Do(func() {
		prometheus.MustRegister(RequestLatency)
		prometheus.MustRegister(TransactionsTotal)
		prometheus.MustRegister(CompensationsTotal)
		prometheus.MustRegister(ReconciliationRequired)
		prometheus.MustRegister(RecoveredTotal)
		prometheus.MustRegister(EventsPublished)
		prometheus.MustRegister(WorkerQueueDepth)
		prometheus.MustRegister(BalanceCalls)
		prometheus.MustRegister(BreakerState)
	})
}
