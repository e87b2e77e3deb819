package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRecommendation(t *testing.T) {
	beforeTotal := testutil.ToFloat64(RecommendationRequests)
	beforeActive := testutil.ToFloat64(RecommendationType.WithLabelValues("active"))

	ObserveRecommendation("active", 3)

	assert.Equal(t, beforeTotal+1, testutil.ToFloat64(RecommendationRequests))
	assert.Equal(t, beforeActive+1, testutil.ToFloat64(RecommendationType.WithLabelValues("active")))
}
