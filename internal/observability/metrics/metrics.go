package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "billing_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	draftRunTotal   *prometheus.CounterVec
	draftRunLatency *prometheus.HistogramVec

	finalizeRunTotal   *prometheus.CounterVec
	finalizeRunLatency *prometheus.HistogramVec

	billsCreatedTotal   *prometheus.CounterVec
	numberConflictTotal prometheus.Counter
	finalizeStepErrors  *prometheus.CounterVec
)

// Init registers the billing metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		draftRunTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "draft_runs_total",
				Help: "Total draft bill computations by result",
			},
			[]string{"result"},
		)
		draftRunLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "draft_run_latency_seconds",
				Help:    "Draft bill computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		finalizeRunTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "finalize_runs_total",
				Help: "Total bill finalization runs by result",
			},
			[]string{"result"},
		)
		finalizeRunLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "finalize_run_latency_seconds",
				Help:    "Bill finalization latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		billsCreatedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "bills_created_total",
				Help: "Total bills persisted by recipient kind",
			},
			[]string{"recipient"},
		)
		numberConflictTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "number_conflicts_total",
				Help: "Total bill number collisions detected at persist time",
			},
		)
		finalizeStepErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "finalize_step_errors_total",
				Help: "Total finalization step failures by step name",
			},
			[]string{"step"},
		)

		prometheus.MustRegister(
			draftRunTotal,
			draftRunLatency,
			finalizeRunTotal,
			finalizeRunLatency,
			billsCreatedTotal,
			numberConflictTotal,
			finalizeStepErrors,
		)
	})
}

// ObserveDraftRun records one draft computation.
func ObserveDraftRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if draftRunTotal != nil {
		draftRunTotal.WithLabelValues(result).Inc()
	}
	if draftRunLatency != nil {
		draftRunLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveFinalizeRun records one finalization run.
func ObserveFinalizeRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if finalizeRunTotal != nil {
		finalizeRunTotal.WithLabelValues(result).Inc()
	}
	if finalizeRunLatency != nil {
		finalizeRunLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddBillsCreated increments the persisted bill counter.
func AddBillsCreated(recipient string, count int) {
	if count <= 0 {
		return
	}
	if recipient == "" {
		recipient = "unknown"
	}
	if billsCreatedTotal != nil {
		billsCreatedTotal.WithLabelValues(recipient).Add(float64(count))
	}
}

// IncNumberConflict increments the numbering collision counter.
func IncNumberConflict() {
	if numberConflictTotal != nil {
		numberConflictTotal.Inc()
	}
}

// IncFinalizeStepError increments the failure counter of a pipeline step.
func IncFinalizeStepError(step string) {
	if step == "" {
		step = "unknown"
	}
	if finalizeStepErrors != nil {
		finalizeStepErrors.WithLabelValues(step).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	RecipientCustomer = "customer"
	RecipientPayer    = "third_party_payer"
)
