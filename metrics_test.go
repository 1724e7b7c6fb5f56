package viewz

import (
	"testing"
	"time"
)

func TestNoOpMetricsProvider_DoesNotPanic(_ *testing.T) {
	var m NoOpMetricsProvider

	// These should not panic
	m.OnStatusChange(StatusIdle, StatusSubmitting)
	m.OnSubmit()
	m.OnSubmitSuccess(100 * time.Millisecond)
	m.OnSubmitFailure(50 * time.Millisecond)
	m.OnStateChange(StateLoading, StateHealthy)
	m.OnConfigApplied(10 * time.Millisecond)
	m.OnConfigRejected("validate", 5*time.Millisecond)
	m.OnChangeReceived()
}

func TestNoOpMetricsProvider_Satisfies(_ *testing.T) {
	var _ MetricsProvider = NoOpMetricsProvider{}
}
