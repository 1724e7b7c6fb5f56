package viewz

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// MismatchErrorMessage is shown when the new password and its confirmation differ.
const MismatchErrorMessage = "New passwords must match."

// LengthErrorMessage is shown when the new password is shorter than minLen characters.
func LengthErrorMessage(minLen int) string {
	return fmt.Sprintf("Your password must be at least %d characters long.", minLen)
}

// ChangePasswordInputs receives user actions from the change password screen.
type ChangePasswordInputs interface {
	CurrentPasswordChanged(text string)
	CurrentPasswordSubmitted(text string)
	NewPasswordChanged(text string)
	NewPasswordSubmitted(text string)
	ConfirmationChanged(text string)
	ConfirmationSubmitted(text string)
	PasswordManagerAvailable(available bool)
	PasswordManagerButtonTapped()
	PasswordManagerFoundPassword(password string)
	SaveTapped()
	ScreenAppeared()
}

// ChangePasswordOutputs exposes the UI state derived from those actions.
type ChangePasswordOutputs interface {
	SaveEnabled() *Signal[bool]
	ActivityIndicatorVisible() *Signal[bool]
	ChangeSucceeded() *Signal[Empty]
	ChangeFailed() *Signal[string]
	CurrentPasswordFocus() *Signal[Empty]
	NewPasswordFocus() *Signal[Empty]
	ConfirmationFocus() *Signal[Empty]
	CurrentPasswordPrefill() *Signal[string]
	DismissKeyboard() *Signal[Empty]
	PasswordManagerButtonHidden() *Signal[bool]
	PasswordManagerLookupURL() *Signal[string]
	ValidationMessage() *Signal[string]
	ValidationMessageHidden() *Signal[bool]
	AnnounceValidationError() *Signal[Empty]
}

// passwordSource records where the current password last came from.
type passwordSource int

const (
	sourceTyped passwordSource = iota
	sourceManager
)

func (s passwordSource) String() string {
	if s == sourceManager {
		return "manager"
	}
	return "typed"
}

// currentPassword is the current password field's value together with its
// origin. The most recent write wins regardless of origin.
type currentPassword struct {
	source passwordSource
	text   string
}

// ChangePassword is the view model behind the change password screen.
//
// Inputs update a fixed set of cells under a mutex and recompute the outputs
// that depend on them. Outputs are delivered after the mutex is released, in
// the order they were computed, so observers may call inputs re-entrantly.
type ChangePassword struct {
	env       Environment
	pipeline  pipz.Chainable[ChangePasswordInput]
	clock     clockz.Clock
	syncMode  bool
	minLength int
	metrics   MetricsProvider
	failures  *ring[error]

	ctx    context.Context
	cancel context.CancelFunc

	status    atomic.Int32
	lastError atomic.Pointer[error]

	mu                 sync.Mutex
	closed             bool
	current            currentPassword
	newPassword        string
	confirmation       string
	newEdited          bool
	confirmationEdited bool
	saveEnabledState   dedupe[bool]
	messageState       dedupe[string]
	hiddenState        dedupe[bool]

	saveEnabled           Signal[bool]
	activityVisible       Signal[bool]
	succeeded             Signal[Empty]
	failed                Signal[string]
	currentFocus          Signal[Empty]
	newFocus              Signal[Empty]
	confirmationFocus     Signal[Empty]
	prefill               Signal[string]
	dismissKeyboard       Signal[Empty]
	managerHidden         Signal[bool]
	lookupURL             Signal[string]
	message               Signal[string]
	messageHidden         Signal[bool]
	announceValidationErr Signal[Empty]
}

// NewChangePassword creates a change password view model. The context bounds
// the view model's lifetime; Close cancels it.
//
// Options wrap the request pipeline:
//
//	form := viewz.NewChangePassword(ctx, env, viewz.WithTimeout(30*time.Second)).
//	    MinPasswordLength(8)
func NewChangePassword(ctx context.Context, env Environment, opts ...Option) *ChangePassword {
	env = env.withDefaults()
	ctx, cancel := context.WithCancel(ctx)

	c := &ChangePassword{
		env:      env,
		pipeline: buildRequestPipeline(env.API, opts),
		clock:    env.Clock,
		ctx:      ctx,
		cancel:   cancel,
	}
	c.status.Store(int32(StatusIdle))
	return c
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// SyncMode runs requests on the triggering goroutine and skips the pacing
// delay, making tests deterministic. Must be called before the first input.
func (c *ChangePassword) SyncMode() *ChangePassword {
	c.syncMode = true
	return c
}

// Clock overrides the environment clock. Must be called before the first input.
func (c *ChangePassword) Clock(clock clockz.Clock) *ChangePassword {
	c.clock = clock
	return c
}

// MinPasswordLength overrides the length policy. Zero defers to the server
// config, then DefaultMinPasswordLength. Must be called before the first input.
func (c *ChangePassword) MinPasswordLength(n int) *ChangePassword {
	c.minLength = n
	return c
}

// Metrics sets a metrics provider. Must be called before the first input.
func (c *ChangePassword) Metrics(provider MetricsProvider) *ChangePassword {
	c.metrics = provider
	return c
}

// FailureHistorySize keeps the last n request failures for FailureHistory.
// Must be called before the first input.
func (c *ChangePassword) FailureHistorySize(n int) *ChangePassword {
	c.failures = newRing[error](n)
	return c
}

// -----------------------------------------------------------------------------
// Views
// -----------------------------------------------------------------------------

// Inputs returns the command side of the view model.
func (c *ChangePassword) Inputs() ChangePasswordInputs { return c }

// Outputs returns the observable side of the view model.
func (c *ChangePassword) Outputs() ChangePasswordOutputs { return c }

// Status returns where the form is in its submission cycle.
func (c *ChangePassword) Status() Status {
	return Status(c.status.Load())
}

// LastError returns the last request failure or ignored trigger, or nil.
func (c *ChangePassword) LastError() error {
	ptr := c.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// FailureHistory returns recent request failures, oldest first.
// Returns nil unless FailureHistorySize was set.
func (c *ChangePassword) FailureHistory() []error {
	return c.failures.all()
}

// Close releases the view model when its screen is dismissed. Pending request
// outcomes are dropped, observers are removed and later inputs are ignored.
func (c *ChangePassword) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.setError(ErrClosed)

	c.saveEnabled.reset()
	c.activityVisible.reset()
	c.succeeded.reset()
	c.failed.reset()
	c.currentFocus.reset()
	c.newFocus.reset()
	c.confirmationFocus.reset()
	c.prefill.reset()
	c.dismissKeyboard.reset()
	c.managerHidden.reset()
	c.lookupURL.reset()
	c.message.reset()
	c.messageHidden.reset()
	c.announceValidationErr.reset()
}

// -----------------------------------------------------------------------------
// Inputs
// -----------------------------------------------------------------------------

// CurrentPasswordChanged records typed text in the current password field.
func (c *ChangePassword) CurrentPasswordChanged(text string) {
	c.dispatch(func(out *outbox) {
		c.current = currentPassword{source: sourceTyped, text: text}
		c.refreshSaveEnabled(out)
	})
}

// CurrentPasswordSubmitted records the field's final text and moves focus to
// the new password field.
func (c *ChangePassword) CurrentPasswordSubmitted(text string) {
	c.dispatch(func(out *outbox) {
		c.current = currentPassword{source: sourceTyped, text: text}
		c.refreshSaveEnabled(out)
		send(out, &c.newFocus, Empty{})
	})
}

// NewPasswordChanged records typed text in the new password field.
func (c *ChangePassword) NewPasswordChanged(text string) {
	c.dispatch(func(out *outbox) {
		c.setNewPassword(out, text)
	})
}

// NewPasswordSubmitted records the field's final text and moves focus to the
// confirmation field.
func (c *ChangePassword) NewPasswordSubmitted(text string) {
	c.dispatch(func(out *outbox) {
		c.setNewPassword(out, text)
		send(out, &c.confirmationFocus, Empty{})
	})
}

// ConfirmationChanged records typed text in the confirmation field.
func (c *ChangePassword) ConfirmationChanged(text string) {
	c.dispatch(func(out *outbox) {
		c.setConfirmation(out, text)
	})
}

// ConfirmationSubmitted records the field's final text, dismisses the
// keyboard and saves if the form is valid.
func (c *ChangePassword) ConfirmationSubmitted(text string) {
	c.dispatch(func(out *outbox) {
		c.setConfirmation(out, text)
		send(out, &c.dismissKeyboard, Empty{})
		if c.saveEnabledState.value {
			c.trigger(out, "autosave")
		}
	})
}

// PasswordManagerAvailable shows or hides the password manager button.
func (c *ChangePassword) PasswordManagerAvailable(available bool) {
	c.dispatch(func(out *outbox) {
		send(out, &c.managerHidden, !available)
	})
}

// PasswordManagerButtonTapped asks the password manager to look up
// credentials for the current web base URL.
func (c *ChangePassword) PasswordManagerButtonTapped() {
	c.dispatch(func(out *outbox) {
		send(out, &c.lookupURL, c.env.Server.Current().WebBaseURL)
	})
}

// PasswordManagerFoundPassword uses password as the current password and
// prefills the field with it.
func (c *ChangePassword) PasswordManagerFoundPassword(password string) {
	c.dispatch(func(out *outbox) {
		c.current = currentPassword{source: sourceManager, text: password}
		send(out, &c.prefill, password)
		c.refreshSaveEnabled(out)
	})
}

// SaveTapped dismisses the keyboard and saves if the form is valid.
func (c *ChangePassword) SaveTapped() {
	c.dispatch(func(out *outbox) {
		send(out, &c.dismissKeyboard, Empty{})
		c.trigger(out, "tap")
	})
}

// ScreenAppeared focuses the current password field, shows an empty
// validation message and records the view.
func (c *ChangePassword) ScreenAppeared() {
	c.dispatch(func(out *outbox) {
		send(out, &c.currentFocus, Empty{})
		c.messageState.force("")
		c.hiddenState.force(true)
		send(out, &c.message, "")
		send(out, &c.messageHidden, true)
		out.add(func() { c.env.Analytics.ChangePasswordViewed(c.ctx) })
	})
}

// -----------------------------------------------------------------------------
// Outputs
// -----------------------------------------------------------------------------

// SaveEnabled emits whether the form can be saved, only when that changes.
func (c *ChangePassword) SaveEnabled() *Signal[bool] { return &c.saveEnabled }

// ActivityIndicatorVisible emits true at each trigger and false at its outcome.
func (c *ChangePassword) ActivityIndicatorVisible() *Signal[bool] { return &c.activityVisible }

// ChangeSucceeded fires when the API accepts the new password.
func (c *ChangePassword) ChangeSucceeded() *Signal[Empty] { return &c.succeeded }

// ChangeFailed emits the failure message when the API rejects the request.
func (c *ChangePassword) ChangeFailed() *Signal[string] { return &c.failed }

// CurrentPasswordFocus fires when the current password field should take focus.
func (c *ChangePassword) CurrentPasswordFocus() *Signal[Empty] { return &c.currentFocus }

// NewPasswordFocus fires when the new password field should take focus.
func (c *ChangePassword) NewPasswordFocus() *Signal[Empty] { return &c.newFocus }

// ConfirmationFocus fires when the confirmation field should take focus.
func (c *ChangePassword) ConfirmationFocus() *Signal[Empty] { return &c.confirmationFocus }

// CurrentPasswordPrefill emits a password found by the password manager.
func (c *ChangePassword) CurrentPasswordPrefill() *Signal[string] { return &c.prefill }

// DismissKeyboard fires when the keyboard should be dismissed.
func (c *ChangePassword) DismissKeyboard() *Signal[Empty] { return &c.dismissKeyboard }

// PasswordManagerButtonHidden emits whether the password manager button is hidden.
func (c *ChangePassword) PasswordManagerButtonHidden() *Signal[bool] { return &c.managerHidden }

// PasswordManagerLookupURL emits the URL the password manager should search for.
func (c *ChangePassword) PasswordManagerLookupURL() *Signal[string] { return &c.lookupURL }

// ValidationMessage emits inline guidance text, empty when there is none.
func (c *ChangePassword) ValidationMessage() *Signal[string] { return &c.message }

// ValidationMessageHidden emits whether the validation label is hidden.
func (c *ChangePassword) ValidationMessageHidden() *Signal[bool] { return &c.messageHidden }

// AnnounceValidationError fires when a validation message appears while a
// screen reader is active.
func (c *ChangePassword) AnnounceValidationError() *Signal[Empty] { return &c.announceValidationErr }

// -----------------------------------------------------------------------------
// State machine
// -----------------------------------------------------------------------------

// dispatch runs fn under the lock and delivers what it queued afterwards.
func (c *ChangePassword) dispatch(fn func(out *outbox)) {
	var out outbox

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn(&out)
	c.mu.Unlock()

	out.flush()
}

func (c *ChangePassword) setNewPassword(out *outbox, text string) {
	c.newPassword = text
	c.newEdited = true
	c.refreshSaveEnabled(out)
	c.refreshValidation(out)
}

func (c *ChangePassword) setConfirmation(out *outbox, text string) {
	c.confirmation = text
	c.confirmationEdited = true
	c.refreshSaveEnabled(out)
	c.refreshValidation(out)
}

func (c *ChangePassword) minimumLength() int {
	if c.minLength > 0 {
		return c.minLength
	}
	if n := c.env.Server.Current().MinPasswordLength; n > 0 {
		return n
	}
	return DefaultMinPasswordLength
}

func (c *ChangePassword) lengthValid(minLen int) bool {
	return utf8.RuneCountInString(c.newPassword) >= minLen
}

// formValid reports whether all fields are filled in, the new password meets
// the length policy and the confirmation matches it.
func (c *ChangePassword) formValid() bool {
	notEmpty := c.current.text != "" && c.newPassword != "" && c.confirmation != ""
	matches := c.newPassword == c.confirmation
	return notEmpty && matches && c.lengthValid(c.minimumLength())
}

func (c *ChangePassword) refreshSaveEnabled(out *outbox) {
	valid := c.formValid()
	if c.saveEnabledState.update(valid) {
		send(out, &c.saveEnabled, valid)
	}
}

// validationText returns the inline message for the current field values.
// A length violation outranks a mismatch, and a mismatch is only reported
// once the confirmation field has been edited.
func (c *ChangePassword) validationText() string {
	if !c.newEdited {
		return ""
	}
	minLen := c.minimumLength()
	if !c.lengthValid(minLen) {
		return LengthErrorMessage(minLen)
	}
	if c.confirmationEdited && c.newPassword != c.confirmation {
		return MismatchErrorMessage
	}
	return ""
}

func (c *ChangePassword) refreshValidation(out *outbox) {
	previous := c.messageState.value
	text := c.validationText()
	if !c.messageState.update(text) {
		return
	}

	send(out, &c.message, text)
	if c.hiddenState.update(text == "") {
		send(out, &c.messageHidden, text == "")
	}

	if previous == "" && text != "" && c.env.Assistive.Active() {
		send(out, &c.announceValidationErr, Empty{})
	}
}

// trigger snapshots the form and queues a request. A trigger while a request
// is in flight, or while the form is invalid, is ignored.
func (c *ChangePassword) trigger(out *outbox, origin string) {
	if c.Status() == StatusSubmitting {
		c.ignore(out, ErrSubmissionInFlight)
		return
	}
	if !c.formValid() {
		c.ignore(out, ErrFormInvalid)
		return
	}

	input := ChangePasswordInput{
		CurrentPassword:         c.current.text,
		NewPassword:             c.newPassword,
		NewPasswordConfirmation: c.confirmation,
	}

	source := c.current.source

	var timer clockz.Timer
	if delay := c.env.apiDelay(); delay > 0 && !c.syncMode {
		timer = c.clock.NewTimer(delay)
	}

	c.transition(out, StatusSubmitting)
	send(out, &c.activityVisible, true)
	out.add(func() {
		capitan.Emit(c.ctx, ChangePasswordSubmitting,
			KeyTrigger.Field(origin),
			KeySource.Field(source.String()),
		)
		if c.metrics != nil {
			c.metrics.OnSubmit()
		}
		c.submit(input, timer)
	})
}

func (c *ChangePassword) ignore(out *outbox, reason error) {
	c.setError(reason)
	out.add(func() {
		capitan.Emit(c.ctx, ChangePasswordIgnored, KeyReason.Field(reason.Error()))
	})
}

// submit sends input through the request pipeline and, if timer is set, holds
// the outcome until it fires.
func (c *ChangePassword) submit(input ChangePasswordInput, timer clockz.Timer) {
	run := func() {
		start := c.clock.Now()
		_, err := c.pipeline.Process(c.ctx, input)

		if timer != nil {
			select {
			case <-timer.C():
			case <-c.ctx.Done():
				timer.Stop()
				return
			}
		}

		c.complete(err, c.clock.Since(start))
	}

	if c.syncMode {
		run()
		return
	}
	go run()
}

// complete delivers a request outcome.
func (c *ChangePassword) complete(err error, elapsed time.Duration) {
	c.dispatch(func(out *outbox) {
		send(out, &c.activityVisible, false)

		if err == nil {
			c.transition(out, StatusSucceeded)
			c.lastError.Store(nil)
			send(out, &c.succeeded, Empty{})
			out.add(func() {
				c.env.Analytics.ChangePasswordSubmitted(c.ctx)
				capitan.Emit(c.ctx, ChangePasswordSucceeded, KeyDuration.Field(elapsed))
				if c.metrics != nil {
					c.metrics.OnSubmitSuccess(elapsed)
				}
			})
			return
		}

		msg := failureMessage(err)
		c.transition(out, StatusFailed)
		c.setError(err)
		c.failures.push(err)
		send(out, &c.failed, msg)
		out.add(func() {
			capitan.Emit(c.ctx, ChangePasswordFailed,
				KeyError.Field(msg),
				KeyDuration.Field(elapsed),
			)
			if c.metrics != nil {
				c.metrics.OnSubmitFailure(elapsed)
			}
		})
	})
}

func (c *ChangePassword) transition(out *outbox, next Status) {
	prev := Status(c.status.Swap(int32(next)))
	if prev == next {
		return
	}
	out.add(func() {
		capitan.Emit(c.ctx, ChangePasswordStatusChanged,
			KeyOldState.Field(prev.String()),
			KeyNewState.Field(next.String()),
		)
		if c.metrics != nil {
			c.metrics.OnStatusChange(prev, next)
		}
	})
}

func (c *ChangePassword) setError(err error) {
	e := err
	c.lastError.Store(&e)
}

var (
	_ ChangePasswordInputs  = (*ChangePassword)(nil)
	_ ChangePasswordOutputs = (*ChangePassword)(nil)
)
