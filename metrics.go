package accesskit

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Decision and mutation counters. They are always incremented; EnableMetrics
// registers them with the default prometheus registry when the embedding
// application wants them exported.
var (
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accesskit_decisions_total",
			Help: "Permission decisions by outcome (allowed, denied, unavailable).",
		},
		[]string{"outcome"},
	)

	decisionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accesskit_decision_cache_total",
			Help: "Decision cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)

	assignmentMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accesskit_assignment_mutations_total",
			Help: "Role assignment mutations by action (assign, revoke).",
		},
		[]string{"action"},
	)

	auditWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "accesskit_audit_write_failures_total",
			Help: "Failed audit log appends.",
		},
	)
)

var metricsOnce sync.Once

// EnableMetrics registers the AccessKit collectors with the default
// prometheus registry. Safe to call more than once.
func EnableMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(
			decisionsTotal,
			decisionCacheTotal,
			assignmentMutations,
			auditWriteFailures,
		)
	})
}
