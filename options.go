package viewz

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Option wrapper identities.
var (
	timeoutID      = pipz.NewIdentity("timeout", "Fails the request when the client is too slow")
	errorHandlerID = pipz.NewIdentity("error-handler", "Passes request failures to a handler")
	middlewareID   = pipz.NewIdentity("middleware", "Runs processors before the request")
)

// Option wraps the change password request pipeline with middleware.
// Failed requests are never retried.
type Option func(pipz.Chainable[ChangePasswordInput]) pipz.Chainable[ChangePasswordInput]

// WithTimeout fails the request if the client takes longer than d.
func WithTimeout(d time.Duration) Option {
	return func(p pipz.Chainable[ChangePasswordInput]) pipz.Chainable[ChangePasswordInput] {
		return pipz.NewTimeout(timeoutID, p, d)
	}
}

// WithErrorHandler passes request failures to handler for logging or
// alerting. The failure still reaches the form.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[ChangePasswordInput]]) Option {
	return func(p pipz.Chainable[ChangePasswordInput]) pipz.Chainable[ChangePasswordInput] {
		return pipz.NewHandle(errorHandlerID, p, handler)
	}
}

// WithMiddleware runs processors before the request, in order.
//
// Example:
//
//	viewz.NewChangePassword(ctx, env,
//	    viewz.WithMiddleware(
//	        viewz.UseEffect("audit", auditFn),
//	    ),
//	    viewz.WithTimeout(10*time.Second),
//	)
func WithMiddleware(processors ...pipz.Chainable[ChangePasswordInput]) Option {
	return func(p pipz.Chainable[ChangePasswordInput]) pipz.Chainable[ChangePasswordInput] {
		all := make([]pipz.Chainable[ChangePasswordInput], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence(middlewareID, all...)
	}
}

// UseEffect creates a processor that performs a side effect and passes the
// input through unchanged.
func UseEffect(name string, fn func(context.Context, ChangePasswordInput) error) pipz.Chainable[ChangePasswordInput] {
	return pipz.Effect(pipz.NewIdentity(name, "Middleware effect"), fn)
}

// UseApply creates a processor that can rewrite the input or fail.
func UseApply(name string, fn func(context.Context, ChangePasswordInput) (ChangePasswordInput, error)) pipz.Chainable[ChangePasswordInput] {
	return pipz.Apply(pipz.NewIdentity(name, "Middleware apply"), fn)
}

// UseTransform creates a processor that rewrites the input and cannot fail.
func UseTransform(name string, fn func(context.Context, ChangePasswordInput) ChangePasswordInput) pipz.Chainable[ChangePasswordInput] {
	return pipz.Transform(pipz.NewIdentity(name, "Middleware transform"), fn)
}
