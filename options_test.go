package viewz

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/pipz"
)

func validInput() ChangePasswordInput {
	return ChangePasswordInput{
		CurrentPassword:         "old",
		NewPassword:             "validPass1",
		NewPasswordConfirmation: "validPass1",
	}
}

func TestWithTimeout_EnforcesDeadline(t *testing.T) {
	client := APIClientFunc(func(ctx context.Context, _ ChangePasswordInput) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	pipeline := buildRequestPipeline(client, []Option{WithTimeout(20 * time.Millisecond)})

	if _, err := pipeline.Process(context.Background(), validInput()); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestWithMiddleware_RunsBeforeRequest(t *testing.T) {
	var order []string
	client := APIClientFunc(func(_ context.Context, _ ChangePasswordInput) error {
		order = append(order, "request")
		return nil
	})

	pipeline := buildRequestPipeline(client, []Option{
		WithMiddleware(
			UseEffect("first", func(_ context.Context, _ ChangePasswordInput) error {
				order = append(order, "first")
				return nil
			}),
			UseEffect("second", func(_ context.Context, _ ChangePasswordInput) error {
				order = append(order, "second")
				return nil
			}),
		),
	})

	if _, err := pipeline.Process(context.Background(), validInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(order, ",") != "first,second,request" {
		t.Errorf("unexpected order %v", order)
	}
}

func TestWithMiddleware_EffectCanBlockRequest(t *testing.T) {
	api := &fakeAPI{}
	blocked := errors.New("offline")

	pipeline := buildRequestPipeline(api, []Option{
		WithMiddleware(UseEffect("reachability", func(_ context.Context, _ ChangePasswordInput) error {
			return blocked
		})),
	})

	_, err := pipeline.Process(context.Background(), validInput())
	if err == nil {
		t.Fatal("expected middleware error")
	}
	if got := failureMessage(err); got != "offline" {
		t.Errorf("expected middleware message, got %q", got)
	}
	if !strings.HasPrefix(err.Error(), "middleware -> reachability") {
		t.Errorf("expected failure path through the middleware, got %q", err.Error())
	}
	if len(api.calls()) != 0 {
		t.Error("request should not run after middleware failure")
	}
}

func TestUseTransform_RewritesInput(t *testing.T) {
	api := &fakeAPI{}
	pipeline := buildRequestPipeline(api, []Option{
		WithMiddleware(UseTransform("trim", func(_ context.Context, in ChangePasswordInput) ChangePasswordInput {
			in.CurrentPassword = strings.TrimSpace(in.CurrentPassword)
			return in
		})),
	})

	in := validInput()
	in.CurrentPassword = "  old  "
	if _, err := pipeline.Process(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls := api.calls(); len(calls) != 1 || calls[0].CurrentPassword != "old" {
		t.Errorf("expected trimmed password, got %+v", calls)
	}
}

func TestUseApply_CanFail(t *testing.T) {
	api := &fakeAPI{}
	pipeline := buildRequestPipeline(api, []Option{
		WithMiddleware(UseApply("reject-reuse", func(_ context.Context, in ChangePasswordInput) (ChangePasswordInput, error) {
			if in.CurrentPassword == in.NewPassword {
				return in, &APIError{Message: "New password must differ from the current one."}
			}
			return in, nil
		})),
	})

	in := validInput()
	in.CurrentPassword = in.NewPassword
	_, err := pipeline.Process(context.Background(), in)
	if got := failureMessage(err); got != "New password must differ from the current one." {
		t.Errorf("unexpected message %q", got)
	}
	if len(api.calls()) != 0 {
		t.Error("request should not run after apply failure")
	}
}

func TestWithErrorHandler_ObservesFailures(t *testing.T) {
	var handled atomic.Int32
	handler := pipz.Effect(pipz.NewIdentity("count", "Counts request failures"), func(_ context.Context, _ *pipz.Error[ChangePasswordInput]) error {
		handled.Add(1)
		return nil
	})

	failing := buildRequestPipeline(&fakeAPI{err: errors.New("rejected")}, []Option{WithErrorHandler(handler)})
	if _, err := failing.Process(context.Background(), validInput()); err == nil {
		t.Error("expected the failure to still be returned")
	}
	if handled.Load() != 1 {
		t.Errorf("expected handler to run once, got %d", handled.Load())
	}

	ok := buildRequestPipeline(&fakeAPI{}, []Option{WithErrorHandler(handler)})
	if _, err := ok.Process(context.Background(), validInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handled.Load() != 1 {
		t.Errorf("handler should not run on success, got %d", handled.Load())
	}
}

func TestChangePassword_OptionsApplyToForm(t *testing.T) {
	var audited atomic.Int32
	form := NewChangePassword(context.Background(), Environment{API: &fakeAPI{}},
		WithMiddleware(UseEffect("audit", func(_ context.Context, _ ChangePasswordInput) error {
			audited.Add(1)
			return nil
		})),
	).SyncMode()
	defer form.Close()

	fill(form.Inputs(), "old", "validPass1", "validPass1")
	form.Inputs().SaveTapped()

	if audited.Load() != 1 {
		t.Errorf("expected middleware to run once, got %d", audited.Load())
	}
}
