package viewz

import "sync"

// Empty is the payload of event-only signals such as focus transitions.
type Empty struct{}

// Signal is a push-based output that any number of observers can subscribe to.
// Values are delivered synchronously on the emitting goroutine, in emission
// order, to observers in the order they subscribed.
type Signal[T any] struct {
	mu   sync.Mutex
	subs []*subscriber[T]
}

type subscriber[T any] struct {
	fn func(T)
}

// Observe registers fn to receive every value emitted after this call.
// The returned function cancels the subscription and is safe to call more
// than once.
func (s *Signal[T]) Observe(fn func(T)) (cancel func()) {
	sub := &subscriber[T]{fn: fn}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(sub) })
	}
}

// Observers returns the number of active subscriptions.
func (s *Signal[T]) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Signal[T]) remove(sub *subscriber[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.subs {
		if o == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// emit delivers v to a snapshot of the current observers. Observers added or
// removed during delivery take effect on the next emission.
func (s *Signal[T]) emit(v T) {
	s.mu.Lock()
	snapshot := make([]*subscriber[T], len(s.subs))
	copy(snapshot, s.subs)
	s.mu.Unlock()

	for _, o := range snapshot {
		o.fn(v)
	}
}

// reset drops every observer.
func (s *Signal[T]) reset() {
	s.mu.Lock()
	s.subs = nil
	s.mu.Unlock()
}

// outbox collects emissions computed while a controller holds its lock so they
// can be delivered after the lock is released.
type outbox []func()

func (o *outbox) add(fn func()) {
	*o = append(*o, fn)
}

func (o outbox) flush() {
	for _, fn := range o {
		fn()
	}
}

// send queues v for delivery on s.
func send[T any](o *outbox, s *Signal[T], v T) {
	o.add(func() { s.emit(v) })
}

// dedupe holds the last value of a derived output and reports whether a new
// value differs from it.
type dedupe[T comparable] struct {
	value T
	set   bool
}

// update stores v and returns true if it differs from the previous value or
// no value was stored yet.
func (d *dedupe[T]) update(v T) bool {
	if d.set && d.value == v {
		return false
	}
	d.value = v
	d.set = true
	return true
}

// force stores v unconditionally.
func (d *dedupe[T]) force(v T) {
	d.value = v
	d.set = true
}
