package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payment_bridge",
		Name:      "attempts_total",
		Help:      "Payment attempts handed to the native SDK, by request kind.",
	}, []string{"kind"})

	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payment_bridge",
		Name:      "outcomes_total",
		Help:      "Normalized outcomes delivered to callers, by request kind and outcome.",
	}, []string{"kind", "outcome"})

	droppedEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "payment_bridge",
		Name:      "dropped_events_total",
		Help:      "Native events received with no pending attempt to deliver them to.",
	})

	attemptDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "payment_bridge",
		Name:      "attempt_duration_seconds",
		Help:      "Time from launching the native SDK to delivering the outcome.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})
)

func GetAttemptsTotal() *prometheus.CounterVec {
	return attemptsTotal
}

func GetOutcomesTotal() *prometheus.CounterVec {
	return outcomesTotal
}

func GetDroppedEventsTotal() prometheus.Counter {
	return droppedEventsTotal
}

func GetAttemptDurationSeconds() prometheus.Histogram {
	return attemptDurationSeconds
}
