package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters_Increment(t *testing.T) {
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues("baseline"))
	PredictionsTotal.WithLabelValues("baseline").Inc()
	if got := testutil.ToFloat64(PredictionsTotal.WithLabelValues("baseline")); got != before+1 {
		t.Errorf("predictions{baseline} = %v, want %v", got, before+1)
	}
}

func TestCircuitBreakerState_Set(t *testing.T) {
	CircuitBreakerState.WithLabelValues("test").Set(2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test")); got != 2 {
		t.Errorf("breaker state = %v, want 2", got)
	}
}
