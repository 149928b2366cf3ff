package accesskit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEnableMetrics tests that registration is idempotent
func TestEnableMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		EnableMetrics()
		EnableMetrics()
	})
}

// TestMetricsCounters tests that the counters accept their label values
func TestMetricsCounters(t *testing.T) {
	assert.NotPanics(t, func() {
		decisionsTotal.WithLabelValues("allowed").Inc()
		decisionsTotal.WithLabelValues("denied").Inc()
		decisionsTotal.WithLabelValues("unavailable").Inc()
		decisionCacheTotal.WithLabelValues("hit").Inc()
		decisionCacheTotal.WithLabelValues("miss").Inc()
		assignmentMutations.WithLabelValues("assign").Inc()
		assignmentMutations.WithLabelValues("revoke").Inc()
		auditWriteFailures.Inc()
	})
}
