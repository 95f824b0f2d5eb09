package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSubmissionCounters(t *testing.T) {
	before := testutil.ToFloat64(SubmissionsTotal.WithLabelValues("legal", OutcomeAccepted))

	SubmissionsTotal.WithLabelValues("legal", OutcomeAccepted).Inc()
	SubmissionPercentage.WithLabelValues("legal").Observe(61)

	assert.Equal(t, before+1, testutil.ToFloat64(SubmissionsTotal.WithLabelValues("legal", OutcomeAccepted)))
	assert.Equal(t, 1, testutil.CollectAndCount(SubmissionPercentage, "aiq_submission_percentage_score"))
}
