package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shorebook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	conflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shorebook",
			Name:      "availability_conflicts_total",
			Help:      "Detected (resource, day) conflicts by reason.",
		},
		[]string{"reason"},
	)

	safeguardBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shorebook",
			Name:      "safeguard_blocks_total",
			Help:      "Draft evaluations blocked, by rule.",
		},
		[]string{"rule"},
	)

	commits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shorebook",
			Name:      "commits_total",
			Help:      "Atomic commit attempts by result.",
		},
		[]string{"result"},
	)

	resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shorebook",
			Name:      "resolution_sessions_total",
			Help:      "Resolution session outcomes.",
		},
		[]string{"outcome"},
	)

	exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shorebook",
			Name:      "occupancy_exports_total",
			Help:      "Occupancy export jobs by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, conflicts, safeguardBlocks, commits, resolutions, exports)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncConflict counts one detected conflict by reason.
func IncConflict(reason string) {
	conflicts.WithLabelValues(reason).Inc()
}

// IncSafeguardBlock counts one blocked draft evaluation by rule.
func IncSafeguardBlock(rule string) {
	safeguardBlocks.WithLabelValues(rule).Inc()
}

// IncCommit counts one commit attempt by result.
func IncCommit(result string) {
	commits.WithLabelValues(result).Inc()
}

// IncResolutionOutcome counts one resolution session outcome.
func IncResolutionOutcome(outcome string) {
	resolutions.WithLabelValues(outcome).Inc()
}

// IncExport counts one occupancy export job by result.
func IncExport(result string) {
	exports.WithLabelValues(result).Inc()
}
