package viewz

import "github.com/zoobzio/capitan"

// Change password submission signals.
var (
	// ChangePasswordSubmitting is emitted when a save trigger sends a request.
	ChangePasswordSubmitting = capitan.NewSignal(
		"viewz.change_password.submitting",
		"Change password request sent",
	)

	// ChangePasswordSucceeded is emitted when the API accepts the new password.
	ChangePasswordSucceeded = capitan.NewSignal(
		"viewz.change_password.succeeded",
		"Change password request succeeded",
	)

	// ChangePasswordFailed is emitted when the API rejects the request.
	ChangePasswordFailed = capitan.NewSignal(
		"viewz.change_password.failed",
		"Change password request failed",
	)

	// ChangePasswordIgnored is emitted when a save trigger is dropped because
	// a request is already in flight or the form is invalid.
	ChangePasswordIgnored = capitan.NewSignal(
		"viewz.change_password.ignored",
		"Change password trigger ignored",
	)

	// ChangePasswordStatusChanged is emitted when the submission status changes.
	ChangePasswordStatusChanged = capitan.NewSignal(
		"viewz.change_password.status.changed",
		"Change password status transition",
	)
)

// Pledge signals.
var (
	// PledgeDisplayed is emitted when the pledge summary is computed.
	PledgeDisplayed = capitan.NewSignal(
		"viewz.pledge.displayed",
		"Pledge summary displayed",
	)

	// PledgeConfigureRejected is a warning emitted when Configure receives a
	// project or reward that fails validation. The pair is still displayed.
	PledgeConfigureRejected = capitan.NewSignal(
		"viewz.pledge.configure.rejected",
		"Pledge configuration rejected",
	)
)

// Analytics signals, emitted by SignalAnalytics.
var (
	// ChangePasswordViewed records that the change password screen appeared.
	ChangePasswordViewed = capitan.NewSignal(
		"viewz.analytics.change_password.viewed",
		"Change password screen viewed",
	)

	// ChangePasswordRecorded records a successful password change.
	ChangePasswordRecorded = capitan.NewSignal(
		"viewz.analytics.change_password.submitted",
		"Change password submitted",
	)
)

// Server store lifecycle signals.
var (
	// ServerStoreStarted is emitted when a ServerStore begins watching.
	ServerStoreStarted = capitan.NewSignal(
		"viewz.server.started",
		"Server config watching started",
	)

	// ServerStoreStopped is emitted when a ServerStore stops watching.
	ServerStoreStopped = capitan.NewSignal(
		"viewz.server.stopped",
		"Server config watching stopped",
	)

	// ServerStoreStateChanged is emitted when a ServerStore transitions between states.
	ServerStoreStateChanged = capitan.NewSignal(
		"viewz.server.state.changed",
		"Server config state transition",
	)

	// ServerConfigReceived is emitted when raw data is received from the watcher.
	ServerConfigReceived = capitan.NewSignal(
		"viewz.server.change.received",
		"Raw server config received from watcher",
	)

	// ServerConfigDecodeFailed is emitted when the codec cannot decode the data.
	ServerConfigDecodeFailed = capitan.NewSignal(
		"viewz.server.decode.failed",
		"Server config decoding failed",
	)

	// ServerConfigValidationFailed is emitted when the decoded config is invalid.
	ServerConfigValidationFailed = capitan.NewSignal(
		"viewz.server.validation.failed",
		"Server config validation failed",
	)

	// ServerConfigApplied is emitted when a new config becomes current.
	ServerConfigApplied = capitan.NewSignal(
		"viewz.server.applied",
		"Server config applied",
	)
)
