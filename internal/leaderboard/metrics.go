package leaderboard

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricBuildDuration      = "leaderboard_build_duration_seconds"
	MetricBuildErrors        = "leaderboard_build_errors_total"
	MetricAvatarSignFailures = "leaderboard_avatar_sign_failures_total"
	MetricEntriesReturned    = "leaderboard_entries_returned"
)

// Metrics holds Prometheus collectors for leaderboard builds.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	buildDuration      *prometheus.HistogramVec
	buildErrors        *prometheus.CounterVec
	avatarSignFailures prometheus.Counter
	entriesReturned    *prometheus.HistogramVec
}

// NewMetrics creates unregistered leaderboard metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricBuildDuration,
				Help:    "Time to build one leaderboard response",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"category"},
		),
		buildErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricBuildErrors,
				Help: "Leaderboard builds that failed during aggregation",
			},
			[]string{"category"},
		),
		avatarSignFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricAvatarSignFailures,
				Help: "Avatar URLs that could not be signed and were returned as null",
			},
		),
		entriesReturned: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricEntriesReturned,
				Help:    "Number of entries in a leaderboard response",
				Buckets: []float64{0, 1, 5, 10, 25, 50},
			},
			[]string{"category"},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.buildDuration,
		m.buildErrors,
		m.avatarSignFailures,
		m.entriesReturned,
	}
}

func (m *Metrics) observeBuild(category Category, seconds float64, entries int) {
	if m == nil {
		return
	}
	m.buildDuration.WithLabelValues(string(category)).Observe(seconds)
	m.entriesReturned.WithLabelValues(string(category)).Observe(float64(entries))
}

func (m *Metrics) incBuildErrors(category Category) {
	if m == nil {
		return
	}
	m.buildErrors.WithLabelValues(string(category)).Inc()
}

func (m *Metrics) addSignFailures(n int) {
	if m == nil || n == 0 {
		return
	}
	m.avatarSignFailures.Add(float64(n))
}
