package viewz

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key view model and server
// store events.
type MetricsProvider interface {
	// OnStatusChange is called when a ChangePassword form moves between statuses.
	OnStatusChange(from, to Status)

	// OnSubmit is called when a save trigger sends a request.
	OnSubmit()

	// OnSubmitSuccess is called when a request succeeds. Duration covers the
	// API call and any pacing delay.
	OnSubmitSuccess(duration time.Duration)

	// OnSubmitFailure is called when a request fails.
	OnSubmitFailure(duration time.Duration)

	// OnStateChange is called when a ServerStore transitions between states.
	OnStateChange(from, to State)

	// OnConfigApplied is called when a server config is decoded, validated and stored.
	OnConfigApplied(duration time.Duration)

	// OnConfigRejected is called when a server config update fails.
	// Stage indicates where the failure occurred: "decode" or "validate".
	OnConfigRejected(stage string, duration time.Duration)

	// OnChangeReceived is called when raw data is received from the watcher.
	OnChangeReceived()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStatusChange(_, _ Status)                 {}
func (NoOpMetricsProvider) OnSubmit()                                  {}
func (NoOpMetricsProvider) OnSubmitSuccess(_ time.Duration)            {}
func (NoOpMetricsProvider) OnSubmitFailure(_ time.Duration)            {}
func (NoOpMetricsProvider) OnStateChange(_, _ State)                   {}
func (NoOpMetricsProvider) OnConfigApplied(_ time.Duration)            {}
func (NoOpMetricsProvider) OnConfigRejected(_ string, _ time.Duration) {}
func (NoOpMetricsProvider) OnChangeReceived()                          {}
