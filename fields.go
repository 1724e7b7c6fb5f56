package viewz

import "github.com/zoobzio/capitan"

// Field keys for view model and server store events.
var (
	// KeyState is the current state of the ServerStore.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state or status before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state or status after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyReason explains why a trigger or input was ignored.
	KeyReason = capitan.NewStringKey("reason")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyDuration is how long a request took, including any pacing delay.
	KeyDuration = capitan.NewDurationKey("duration")

	// KeyTrigger names what started a submission: "autosave" or "tap".
	KeyTrigger = capitan.NewStringKey("trigger")

	// KeySource is where the submitted current password came from: "typed"
	// or "manager".
	KeySource = capitan.NewStringKey("password_source")

	// KeyCountry is the project's country code.
	KeyCountry = capitan.NewStringKey("country")

	// KeyRewardID identifies the reward being pledged to.
	KeyRewardID = capitan.NewIntKey("reward_id")
)
