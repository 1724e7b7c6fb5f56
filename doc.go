/*
Package viewz provides presentation-layer view models for account and pledge
screens. A view model turns user actions into UI state without touching any
UI toolkit, so the same logic drives a native client, a terminal front end or
a test.

Every view model splits into an Inputs side, which the UI calls as the user
acts, and an Outputs side of typed signals the UI observes. Collaborators such
as the API client, analytics and the clock are passed in once through an
Environment.

# Change Password

	form := viewz.NewChangePassword(ctx, viewz.Environment{
	    API:       client,
	    Analytics: viewz.SignalAnalytics{},
	})
	defer form.Close()

	form.Outputs().SaveEnabled().Observe(func(enabled bool) {
	    saveButton.SetEnabled(enabled)
	})
	form.Outputs().ChangeFailed().Observe(func(msg string) {
	    showAlert(msg)
	})

	form.Inputs().ScreenAppeared()
	form.Inputs().CurrentPasswordChanged("hunter2")

Outputs are delivered after the view model's state is updated, on the
goroutine that called the input, or on the request goroutine for request
outcomes. Observers may call inputs from inside a callback.

The request itself runs through a pipz pipeline. Options add middleware:

	form := viewz.NewChangePassword(ctx, env,
	    viewz.WithTimeout(30*time.Second),
	    viewz.WithMiddleware(viewz.UseEffect("audit", audit)),
	)

# Pledge

	pledge := viewz.NewPledge(ctx, viewz.Environment{})
	pledge.Outputs().Display().Observe(render)
	pledge.Inputs().Configure(project, reward)
	pledge.Inputs().ViewLoaded()

# Server Configuration

ServerStore watches a file or channel for server config changes and serves the
last valid config to any view model that uses it as its Environment.Server:

	store := viewz.NewServerStore(
	    viewz.NewFileWatcher("/etc/app/server.yaml"),
	    viewz.DefaultServerConfig(),
	)
	if err := store.Start(ctx); err != nil {
	    log.Printf("using fallback server config: %v", err)
	}

# Observability

View models and the store emit capitan signals with typed fields. NewZapObserver
writes them to a zap logger, and a MetricsProvider receives counters and
durations.

# Testing

SyncMode runs requests on the calling goroutine and skips pacing delays.
Clock accepts a clockz.FakeClock for tests that exercise the delay.
*/
package viewz
