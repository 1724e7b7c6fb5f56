// Package testing provides fakes and helpers for testing code built on viewz
// view models.
package testing

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/viewz"
)

// FakeAPIClient records change password requests and answers with Err.
// It implements viewz.APIClient.
type FakeAPIClient struct {
	mu       sync.Mutex
	requests []viewz.ChangePasswordInput
	err      error
}

// NewFakeAPIClient creates a client that answers every request with err.
func NewFakeAPIClient(err error) *FakeAPIClient {
	return &FakeAPIClient{err: err}
}

// ChangePassword implements viewz.APIClient.
func (f *FakeAPIClient) ChangePassword(_ context.Context, input viewz.ChangePasswordInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, input)
	return f.err
}

// SetError changes the answer for later requests.
func (f *FakeAPIClient) SetError(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Requests returns the requests received so far.
func (f *FakeAPIClient) Requests() []viewz.ChangePasswordInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]viewz.ChangePasswordInput(nil), f.requests...)
}

// RecordingAnalytics counts analytics events. It implements viewz.Analytics.
type RecordingAnalytics struct {
	viewed    atomic.Int32
	submitted atomic.Int32
}

// ChangePasswordViewed implements viewz.Analytics.
func (a *RecordingAnalytics) ChangePasswordViewed(_ context.Context) { a.viewed.Add(1) }

// ChangePasswordSubmitted implements viewz.Analytics.
func (a *RecordingAnalytics) ChangePasswordSubmitted(_ context.Context) { a.submitted.Add(1) }

// Viewed returns how many times the change password screen was viewed.
func (a *RecordingAnalytics) Viewed() int { return int(a.viewed.Load()) }

// Submitted returns how many password changes succeeded.
func (a *RecordingAnalytics) Submitted() int { return int(a.submitted.Load()) }

// StaticAssistive is an AssistiveTechnology with a fixed answer.
type StaticAssistive bool

// Active implements viewz.AssistiveTechnology.
func (s StaticAssistive) Active() bool { return bool(s) }

// Recorder collects every value a signal emits.
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

// Record starts recording s. Recording stops when the view model is closed.
func Record[T any](s *viewz.Signal[T]) *Recorder[T] {
	r := &Recorder[T]{}
	s.Observe(func(v T) {
		r.mu.Lock()
		r.values = append(r.values, v)
		r.mu.Unlock()
	})
	return r
}

// Values returns every value recorded so far.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

// Len returns the number of values recorded.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// Last returns the most recent value and whether there was one.
func (r *Recorder[T]) Last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if len(r.values) == 0 {
		return zero, false
	}
	return r.values[len(r.values)-1], true
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// RequireStatus fails the test immediately if the form is not in the expected status.
func RequireStatus(t *testing.T, form *viewz.ChangePassword, expected viewz.Status) {
	t.Helper()
	if got := form.Status(); got != expected {
		t.Fatalf("expected status %s, got %s", expected, got)
	}
}

// NewTestChangePassword creates a change password form in sync mode backed by
// a FakeAPIClient that answers with err. The form is closed when the test ends.
func NewTestChangePassword(t *testing.T, err error) (*viewz.ChangePassword, *FakeAPIClient) {
	t.Helper()
	api := NewFakeAPIClient(err)
	form := viewz.NewChangePassword(context.Background(), viewz.Environment{API: api}).SyncMode()
	t.Cleanup(form.Close)
	return form, api
}

// NewTestServerStore creates a server store in sync mode fed by the returned
// channel.
func NewTestServerStore(t *testing.T) (*viewz.ServerStore, chan<- []byte) {
	t.Helper()
	ch := make(chan []byte, 10)
	store := viewz.NewServerStore(viewz.NewSyncChannelWatcher(ch), viewz.DefaultServerConfig()).SyncMode()
	return store, ch
}
