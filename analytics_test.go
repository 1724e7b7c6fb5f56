package viewz

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/capitan"
)

func TestSignalAnalytics_EmitsSignals(t *testing.T) {
	viewed := make(chan struct{}, 1)
	submitted := make(chan struct{}, 1)

	notify := func(ch chan struct{}) func(context.Context, *capitan.Event) {
		return func(_ context.Context, _ *capitan.Event) {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
	capitan.Hook(ChangePasswordViewed, notify(viewed))
	capitan.Hook(ChangePasswordRecorded, notify(submitted))

	form := newSyncForm(t, Environment{API: &fakeAPI{}, Analytics: SignalAnalytics{}})
	form.Inputs().ScreenAppeared()
	fill(form.Inputs(), "old", "validPass1", "validPass1")
	form.Inputs().SaveTapped()

	for name, ch := range map[string]chan struct{}{"viewed": viewed, "submitted": submitted} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Errorf("expected %s signal", name)
		}
	}
}

func TestNoOpAnalytics(_ *testing.T) {
	var a Analytics = NoOpAnalytics{}
	a.ChangePasswordViewed(context.Background())
	a.ChangePasswordSubmitted(context.Background())
}
