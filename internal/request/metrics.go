package request

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payment_bridge",
		Name:      "request_builds_total",
		Help:      "Payment request builds by kind and result.",
	}, []string{"kind", "result"})

	buildDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "payment_bridge",
		Name:      "request_build_duration_seconds",
		Help:      "Time spent parsing and validating a payment description.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
	})
)

// GetBuildsTotal exposes the builds counter for tests.
func GetBuildsTotal() *prometheus.CounterVec {
	return buildsTotal
}

// GetBuildDurationSeconds exposes the build duration histogram for tests.
func GetBuildDurationSeconds() prometheus.Histogram {
	return buildDurationSeconds
}
