package viewz

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls condition until it returns true or timeout is reached.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// fakeAPI records change password requests and answers with err.
// When release is non-nil each call blocks until it is closed.
type fakeAPI struct {
	mu      sync.Mutex
	inputs  []ChangePasswordInput
	err     error
	release chan struct{}
	started chan struct{}
}

func (f *fakeAPI) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	release, started, err := f.release, f.started, f.err
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeAPI) calls() []ChangePasswordInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ChangePasswordInput(nil), f.inputs...)
}

type recordingAnalytics struct {
	viewed    atomic.Int32
	submitted atomic.Int32
}

func (a *recordingAnalytics) ChangePasswordViewed(_ context.Context)    { a.viewed.Add(1) }
func (a *recordingAnalytics) ChangePasswordSubmitted(_ context.Context) { a.submitted.Add(1) }

// recorder collects every value emitted by a signal.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func record[T any](s *Signal[T]) *recorder[T] {
	r := &recorder[T]{}
	s.Observe(func(v T) {
		r.mu.Lock()
		r.values = append(r.values, v)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

func (r *recorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func (r *recorder[T]) last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if len(r.values) == 0 {
		return zero, false
	}
	return r.values[len(r.values)-1], true
}
