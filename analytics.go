package viewz

import (
	"context"

	"github.com/zoobzio/capitan"
)

// Analytics records screen events. Calls are fire-and-forget: view models
// never inspect the outcome.
type Analytics interface {
	ChangePasswordViewed(ctx context.Context)
	ChangePasswordSubmitted(ctx context.Context)
}

// NoOpAnalytics discards every event. Embed it to implement only the events
// you care about.
type NoOpAnalytics struct{}

func (NoOpAnalytics) ChangePasswordViewed(_ context.Context)    {}
func (NoOpAnalytics) ChangePasswordSubmitted(_ context.Context) {}

// SignalAnalytics records events as capitan signals so any number of
// tracking backends can hook them.
type SignalAnalytics struct{}

// ChangePasswordViewed emits ChangePasswordViewed.
func (SignalAnalytics) ChangePasswordViewed(ctx context.Context) {
	capitan.Emit(ctx, ChangePasswordViewed)
}

// ChangePasswordSubmitted emits ChangePasswordRecorded.
func (SignalAnalytics) ChangePasswordSubmitted(ctx context.Context) {
	capitan.Emit(ctx, ChangePasswordRecorded)
}

var (
	_ Analytics = NoOpAnalytics{}
	_ Analytics = SignalAnalytics{}
)
