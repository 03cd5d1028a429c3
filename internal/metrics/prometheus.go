package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CarryoverCandidates *prometheus.CounterVec
	CarryoverCreated    *prometheus.CounterVec
	CarryoverFailures   *prometheus.CounterVec
	CarryoverDuration   *prometheus.HistogramVec
	SchedulesCreated    prometheus.Counter
	SchedulesWatched    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CarryoverCandidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carryover_candidates_total",
			Help:      "Stale unwatched schedule records considered for carryover",
		}, []string{"trigger"}),
		CarryoverCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carryover_created_total",
			Help:      "Schedule records created by carryover",
		}, []string{"trigger"}),
		CarryoverFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carryover_failures_total",
			Help:      "Carryover candidates skipped because of an error",
		}, []string{"trigger"}),
		CarryoverDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "carryover_duration_seconds",
			Help:      "Time taken by one carryover invocation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"trigger"}),
		SchedulesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_created_total",
			Help:      "Schedule records created by guardians",
		}),
		SchedulesWatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_watched_total",
			Help:      "Schedule records marked watched",
		}),
	}
}

func (m *Metrics) ObserveCarryover(trigger string, found, created, failed int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CarryoverCandidates.WithLabelValues(trigger).Add(float64(found))
	m.CarryoverCreated.WithLabelValues(trigger).Add(float64(created))
	m.CarryoverFailures.WithLabelValues(trigger).Add(float64(failed))
	m.CarryoverDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
}

func (m *Metrics) AddSchedulesCreated(n int) {
	if m == nil {
		return
	}
	m.SchedulesCreated.Add(float64(n))
}

func (m *Metrics) IncWatched() {
	if m == nil {
		return
	}
	m.SchedulesWatched.Inc()
}
