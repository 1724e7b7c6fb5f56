package viewz

// State represents the current state of a ServerStore.
type State int32

const (
	// StateLoading indicates the store is initializing and has not yet
	// processed any server configuration.
	StateLoading State = iota

	// StateHealthy indicates the store has a valid configuration applied.
	StateHealthy

	// StateDegraded indicates the last configuration change failed decoding or
	// validation. The previous valid configuration remains active.
	StateDegraded

	// StateEmpty indicates the initial configuration load failed and no valid
	// configuration has ever been obtained. The store serves its fallback and
	// keeps watching for valid updates.
	StateEmpty
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Status represents where a ChangePassword form is in its submission cycle.
type Status int32

const (
	// StatusIdle indicates nothing has been submitted yet.
	StatusIdle Status = iota

	// StatusSubmitting indicates a request is in flight. New triggers are
	// ignored until it resolves.
	StatusSubmitting

	// StatusSucceeded indicates the last request succeeded.
	StatusSucceeded

	// StatusFailed indicates the last request failed. The form is editable
	// and can be submitted again.
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
