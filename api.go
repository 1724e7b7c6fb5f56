package viewz

import (
	"context"
	"errors"

	"github.com/zoobzio/pipz"
)

// Request pipeline identities.
var (
	requestPipelineID = pipz.NewIdentity("change-password-request", "Validates the snapshot, then calls the API client")
	validateStageID   = pipz.NewIdentity("validate", "Checks the change password snapshot against its struct tags")
	requestStageID    = pipz.NewIdentity("change-password", "Calls APIClient.ChangePassword")
)

// ChangePasswordInput is the payload snapshotted at trigger time.
type ChangePasswordInput struct {
	CurrentPassword         string `json:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required,eqfield=NewPassword"`
}

// APIClient issues requests on behalf of view models.
type APIClient interface {
	// ChangePassword updates the signed-in user's password. A returned error's
	// message is shown to the user verbatim.
	ChangePassword(ctx context.Context, input ChangePasswordInput) error
}

// APIClientFunc adapts a function to APIClient.
type APIClientFunc func(ctx context.Context, input ChangePasswordInput) error

// ChangePassword calls f.
func (f APIClientFunc) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	return f(ctx, input)
}

// APIError is an error carrying a human-readable message from the server.
type APIError struct {
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Sentinel errors recorded when a save trigger is ignored or a controller is
// used after Close.
var (
	ErrSubmissionInFlight = errors.New("change password request already in flight")
	ErrFormInvalid        = errors.New("change password form is not valid")
	ErrClosed             = errors.New("view model closed")
	ErrNoAPIClient        = errors.New("no API client configured")
)

// buildRequestPipeline validates the snapshot and calls the client, wrapped
// by any options in order.
func buildRequestPipeline(client APIClient, opts []Option) pipz.Chainable[ChangePasswordInput] {
	call := pipz.Effect(requestStageID, func(ctx context.Context, in ChangePasswordInput) error {
		if client == nil {
			return ErrNoAPIClient
		}
		return client.ChangePassword(ctx, in)
	})
	check := pipz.Effect(validateStageID, func(_ context.Context, in ChangePasswordInput) error {
		return validate.Struct(in)
	})

	var pipeline pipz.Chainable[ChangePasswordInput] = pipz.NewSequence[ChangePasswordInput](requestPipelineID, check, call)
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// failureMessage extracts the human-readable message of a request failure,
// looking through pipeline wrapping so the user sees the server's text.
func failureMessage(err error) string {
	var pipeErr *pipz.Error[ChangePasswordInput]
	for errors.As(err, &pipeErr) && pipeErr.Err != nil {
		err = pipeErr.Err
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
