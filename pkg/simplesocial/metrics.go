package simplesocial

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects publication and interaction telemetry. A nil *Metrics
// records nothing.
type Metrics struct {
	publishTotal      *prometheus.CounterVec
	publishLatency    *prometheus.HistogramVec
	compensations     *prometheus.CounterVec
	backpatchFailures prometheus.Counter
	creatorLookups    *prometheus.CounterVec
	interactions      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered, which is handy in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "simplesocial"
	}

	m := &Metrics{
		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "publish",
				Name:      "workflows_total",
				Help:      "Total number of post publication workflows by final step and outcome",
			},
			[]string{"step", "outcome"},
		),
		publishLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "publish",
				Name:      "duration_seconds",
				Help:      "Time taken by post publication workflows",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"outcome"},
		),
		compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "publish",
				Name:      "compensations_total",
				Help:      "Total number of asset deletions run to undo a failed publication",
			},
			[]string{"result"},
		),
		backpatchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "publish",
				Name:      "backpatch_failures_total",
				Help:      "Total number of published posts missing from their creator's post list",
			},
		),
		creatorLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "feed",
				Name:      "creator_lookups_total",
				Help:      "Total number of creator lookups during feed enrichment",
			},
			[]string{"result"},
		),
		interactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "interactions",
				Name:      "total",
				Help:      "Total number of like and save mutations",
			},
			[]string{"kind"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.publishTotal,
			m.publishLatency,
			m.compensations,
			m.backpatchFailures,
			m.creatorLookups,
			m.interactions,
		)
	}
	return m
}

// PublishTotal exposes the workflow outcome counter.
func (m *Metrics) PublishTotal() *prometheus.CounterVec { return m.publishTotal }

// Compensations exposes the compensation counter.
func (m *Metrics) Compensations() *prometheus.CounterVec { return m.compensations }

// BackpatchFailures exposes the backpatch failure counter.
func (m *Metrics) BackpatchFailures() prometheus.Counter { return m.backpatchFailures }

// CreatorLookups exposes the enrichment lookup counter.
func (m *Metrics) CreatorLookups() *prometheus.CounterVec { return m.creatorLookups }

// Interactions exposes the like/save counter.
func (m *Metrics) Interactions() *prometheus.CounterVec { return m.interactions }

func (m *Metrics) recordPublish(step PublishStep, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.publishTotal.WithLabelValues(string(step), outcome).Inc()
	m.publishLatency.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) recordCompensation(err error) {
	if m == nil {
		return
	}
	result := "deleted"
	if err != nil {
		result = "failed"
	}
	m.compensations.WithLabelValues(result).Inc()
}

func (m *Metrics) recordBackpatchFailure() {
	if m == nil {
		return
	}
	m.backpatchFailures.Inc()
}

func (m *Metrics) recordCreatorLookup(result string) {
	if m == nil {
		return
	}
	m.creatorLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) recordInteraction(kind string) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(kind).Inc()
}
