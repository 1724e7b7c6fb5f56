package viewz

import (
	"time"

	"github.com/zoobzio/clockz"
)

// AssistiveTechnology reports whether a screen reader session is active.
type AssistiveTechnology interface {
	Active() bool
}

// AssistiveFunc adapts a function to AssistiveTechnology.
type AssistiveFunc func() bool

// Active calls f.
func (f AssistiveFunc) Active() bool { return f() }

// Environment carries every external collaborator a view model touches.
// Each view model copies the Environment it is constructed with; nil fields
// are replaced with defaults.
type Environment struct {
	// API issues network requests. Required for ChangePassword.
	API APIClient

	// Analytics records screen events. Default: NoOpAnalytics.
	Analytics Analytics

	// Server supplies the current server config. Default: DefaultServerConfig.
	Server ServerSource

	// Assistive reports screen reader state. Default: never active.
	Assistive AssistiveTechnology

	// Format renders currency and dates. Default: DefaultFormatter.
	Format Formatter

	// Clock schedules delayed delivery. Default: clockz.RealClock.
	Clock clockz.Clock

	// APIDelay holds back request outcomes until at least this long after the
	// trigger. Zero falls back to the server config's APIDelay.
	APIDelay time.Duration
}

func (e Environment) withDefaults() Environment {
	if e.Analytics == nil {
		e.Analytics = NoOpAnalytics{}
	}
	if e.Server == nil {
		e.Server = StaticServer(DefaultServerConfig())
	}
	if e.Assistive == nil {
		e.Assistive = AssistiveFunc(func() bool { return false })
	}
	if e.Format == nil {
		e.Format = DefaultFormatter{}
	}
	if e.Clock == nil {
		e.Clock = clockz.RealClock
	}
	return e
}

// apiDelay returns the configured pacing delay.
func (e Environment) apiDelay() time.Duration {
	if e.APIDelay > 0 {
		return e.APIDelay
	}
	return e.Server.Current().APIDelay
}
