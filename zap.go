package viewz

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type stringReader interface {
	Name() string
	From(e *capitan.Event) (string, bool)
}

type durationReader interface {
	Name() string
	From(e *capitan.Event) (time.Duration, bool)
}

type intReader interface {
	Name() string
	From(e *capitan.Event) (int, bool)
}

var (
	loggedStrings   = []stringReader{KeyState, KeyOldState, KeyNewState, KeyError, KeyReason, KeyTrigger, KeySource, KeyCountry}
	loggedDurations = []durationReader{KeyDebounce, KeyDuration}
	loggedInts      = []intReader{KeyRewardID}
)

// ZapObserver writes view model and server store signals to a zap logger.
//
//	logger, _ := zap.NewProduction()
//	obs := viewz.NewZapObserver(logger)
//	defer obs.Close()
type ZapObserver struct {
	logger    *zap.Logger
	closed    atomic.Bool
	mu        sync.Mutex
	listeners []*capitan.Listener
}

// NewZapObserver hooks every viewz signal and logs it through logger.
// A nil logger is replaced with zap.NewNop.
func NewZapObserver(logger *zap.Logger) *ZapObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &ZapObserver{logger: logger.Named("viewz")}

	o.hook(ChangePasswordSubmitting, zapcore.InfoLevel)
	o.hook(ChangePasswordSucceeded, zapcore.InfoLevel)
	o.hook(ChangePasswordFailed, zapcore.WarnLevel)
	o.hook(ChangePasswordIgnored, zapcore.DebugLevel)
	o.hook(ChangePasswordStatusChanged, zapcore.DebugLevel)

	o.hook(PledgeDisplayed, zapcore.DebugLevel)
	o.hook(PledgeConfigureRejected, zapcore.WarnLevel)

	o.hook(ServerStoreStarted, zapcore.InfoLevel)
	o.hook(ServerStoreStopped, zapcore.InfoLevel)
	o.hook(ServerStoreStateChanged, zapcore.InfoLevel)
	o.hook(ServerConfigDecodeFailed, zapcore.WarnLevel)
	o.hook(ServerConfigValidationFailed, zapcore.WarnLevel)
	o.hook(ServerConfigApplied, zapcore.InfoLevel)

	return o
}

// Close unhooks every signal and flushes the logger. Safe to call more than
// once.
func (o *ZapObserver) Close() {
	if o.closed.Swap(true) {
		return
	}

	o.mu.Lock()
	listeners := o.listeners
	o.listeners = nil
	o.mu.Unlock()

	for _, l := range listeners {
		l.Close()
	}
	_ = o.logger.Sync() //nolint:errcheck // Sync fails on some terminals
}

// hook logs signal at level until Close.
func (o *ZapObserver) hook(signal capitan.Signal, level zapcore.Level) {
	l := capitan.Hook(signal, o.at(level, signal.Name()))
	if l == nil {
		return
	}
	o.mu.Lock()
	o.listeners = append(o.listeners, l)
	o.mu.Unlock()
}

func (o *ZapObserver) at(level zapcore.Level, msg string) func(context.Context, *capitan.Event) {
	return func(_ context.Context, e *capitan.Event) {
		if o.closed.Load() {
			return
		}
		if ce := o.logger.Check(level, msg); ce != nil {
			ce.Write(eventFields(e)...)
		}
	}
}

// eventFields converts the known keys present on e to zap fields.
func eventFields(e *capitan.Event) []zap.Field {
	var fields []zap.Field
	for _, k := range loggedStrings {
		if v, ok := k.From(e); ok {
			fields = append(fields, zap.String(k.Name(), v))
		}
	}
	for _, k := range loggedDurations {
		if v, ok := k.From(e); ok {
			fields = append(fields, zap.Duration(k.Name(), v))
		}
	}
	for _, k := range loggedInts {
		if v, ok := k.From(e); ok {
			fields = append(fields, zap.Int(k.Name(), v))
		}
	}
	return fields
}
