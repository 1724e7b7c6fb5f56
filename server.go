package viewz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// DefaultDebounce is the default debounce duration for server config changes.
const DefaultDebounce = 100 * time.Millisecond

// DefaultMinPasswordLength is the password length policy used when neither the
// form nor the server config sets one.
const DefaultMinPasswordLength = 6

// DefaultWebBaseURL is the web base URL used until a server config is loaded.
const DefaultWebBaseURL = "https://www.kickstarter.com"

// validate is the shared validator instance.
var validate = validator.New()

// ServerConfig describes the environment the client is talking to.
type ServerConfig struct {
	APIBaseURL        string        `json:"api_base_url" yaml:"api_base_url" validate:"omitempty,url"`
	WebBaseURL        string        `json:"web_base_url" yaml:"web_base_url" validate:"required,url"`
	MinPasswordLength int           `json:"min_password_length" yaml:"min_password_length" validate:"omitempty,min=1"`
	APIDelay          time.Duration `json:"api_delay" yaml:"api_delay" validate:"min=0"`
}

// Validate checks the config's struct tags.
func (c ServerConfig) Validate() error {
	return validate.Struct(c)
}

// DefaultServerConfig returns the config used before anything is loaded.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		WebBaseURL:        DefaultWebBaseURL,
		MinPasswordLength: DefaultMinPasswordLength,
	}
}

// ServerSource supplies the current server configuration. It is read at the
// moment a view model needs it, so a live source is observed without
// rebuilding controllers.
type ServerSource interface {
	Current() ServerConfig
}

// StaticServer is a ServerSource that never changes.
type StaticServer ServerConfig

// Current returns the static config.
func (s StaticServer) Current() ServerConfig {
	return ServerConfig(s)
}

// ServerStore watches a source for server config changes, decodes and
// validates them, and keeps the last valid config available to view models.
// A bad update never replaces a good config.
type ServerStore struct {
	watcher        Watcher
	fallback       ServerConfig
	debounce       time.Duration
	startupTimeout time.Duration
	syncMode       bool
	clock          clockz.Clock
	codec          Codec
	metrics        MetricsProvider
	onStop         func(State)

	state        atomic.Int32
	current      atomic.Pointer[ServerConfig]
	lastError    atomic.Pointer[error]
	errorHistory *ring[error]

	mu      sync.Mutex
	started bool

	// For sync mode: channel to receive changes
	changes <-chan []byte
}

// NewServerStore creates a ServerStore fed by watcher. Until a valid config
// is applied, Current returns fallback.
//
// Example:
//
//	store := viewz.NewServerStore(
//	    viewz.NewFileWatcher("/etc/app/server.yaml"),
//	    viewz.DefaultServerConfig(),
//	).Codec(viewz.YAMLCodec{})
//
//	if err := store.Start(ctx); err != nil {
//	    log.Printf("initial server config failed: %v", err)
//	}
func NewServerStore(watcher Watcher, fallback ServerConfig) *ServerStore {
	s := &ServerStore{
		watcher:  watcher,
		fallback: fallback,
		debounce: DefaultDebounce,
		clock:    clockz.RealClock,
		codec:    AutoCodec{},
	}
	s.state.Store(int32(StateLoading))
	return s
}

// Debounce sets the debounce duration for change processing.
// Changes arriving within this duration are coalesced into a single update.
// Default: 100ms. Must be called before Start().
func (s *ServerStore) Debounce(d time.Duration) *ServerStore {
	s.debounce = d
	return s
}

// SyncMode enables synchronous processing for testing.
// In sync mode, Start only processes the initial value and Process must be
// called for each later value. Must be called before Start().
func (s *ServerStore) SyncMode() *ServerStore {
	s.syncMode = true
	return s
}

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic debounce testing.
// Must be called before Start().
func (s *ServerStore) Clock(clock clockz.Clock) *ServerStore {
	s.clock = clock
	return s
}

// Codec sets the codec for decoding config data.
// Default: AutoCodec. Must be called before Start().
func (s *ServerStore) Codec(codec Codec) *ServerStore {
	s.codec = codec
	return s
}

// StartupTimeout sets the maximum duration to wait for the initial value.
// Default: no timeout. Must be called before Start().
func (s *ServerStore) StartupTimeout(d time.Duration) *ServerStore {
	s.startupTimeout = d
	return s
}

// Metrics sets a metrics provider. Must be called before Start().
func (s *ServerStore) Metrics(provider MetricsProvider) *ServerStore {
	s.metrics = provider
	return s
}

// OnStop sets a callback invoked with the final state when watching stops.
// Must be called before Start().
func (s *ServerStore) OnStop(fn func(State)) *ServerStore {
	s.onStop = fn
	return s
}

// ErrorHistorySize sets the number of recent errors to retain.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before Start().
func (s *ServerStore) ErrorHistorySize(n int) *ServerStore {
	s.errorHistory = newRing[error](n)
	return s
}

// State returns the current state of the store.
func (s *ServerStore) State() State {
	return State(s.state.Load())
}

// Current returns the last valid config, or the fallback if none was applied.
func (s *ServerStore) Current() ServerConfig {
	if ptr := s.current.Load(); ptr != nil {
		return *ptr
	}
	return s.fallback
}

// Config returns the last valid config and true, or the zero value and false
// if no valid config has been applied.
func (s *ServerStore) Config() (ServerConfig, bool) {
	ptr := s.current.Load()
	if ptr == nil {
		return ServerConfig{}, false
	}
	return *ptr, true
}

// LastError returns the last error encountered, or nil.
func (s *ServerStore) LastError() error {
	ptr := s.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent errors, oldest first.
// Returns nil unless ErrorHistorySize was set.
func (s *ServerStore) ErrorHistory() []error {
	return s.errorHistory.all()
}

// Start begins watching. It blocks until the first value is processed, then
// continues watching asynchronously. If the first value is invalid, Start
// returns the error but keeps watching for a valid update.
//
// Start can only be called once.
func (s *ServerStore) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server store already started")
	}
	s.started = true
	s.mu.Unlock()

	capitan.Emit(ctx, ServerStoreStarted,
		KeyDebounce.Field(s.debounce),
	)

	changes, err := s.watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	startupCtx := ctx
	if s.startupTimeout > 0 {
		var cancel context.CancelFunc
		startupCtx, cancel = s.clock.WithTimeout(ctx, s.startupTimeout)
		defer cancel()
	}

	var initialErr error
	select {
	case <-startupCtx.Done():
		if s.startupTimeout > 0 && errors.Is(startupCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("startup timeout: watcher did not emit initial value within %v", s.startupTimeout)
		}
		return startupCtx.Err()
	case raw, ok := <-changes:
		if !ok {
			return errors.New("watcher closed before emitting initial value")
		}
		s.received(ctx)
		initialErr = s.process(ctx, raw)
	}

	if s.syncMode {
		s.changes = changes
		return initialErr
	}

	go s.watch(ctx, changes)

	return initialErr
}

// Process reads and processes the next value from the watcher.
// Only available in sync mode. Returns false if no value is available.
func (s *ServerStore) Process(ctx context.Context) bool {
	if !s.syncMode {
		return false
	}

	select {
	case raw, ok := <-s.changes:
		if !ok {
			return false
		}
		s.received(ctx)
		_ = s.process(ctx, raw) //nolint:errcheck // Errors stored via setError
		return true
	default:
		return false
	}
}

func (s *ServerStore) received(ctx context.Context) {
	capitan.Emit(ctx, ServerConfigReceived)
	if s.metrics != nil {
		s.metrics.OnChangeReceived()
	}
}

// process decodes, validates, and stores a single config update.
func (s *ServerStore) process(ctx context.Context, raw []byte) error {
	start := s.clock.Now()
	oldState := s.State()

	var cfg ServerConfig
	if err := s.codec.Unmarshal(raw, &cfg); err != nil {
		s.reject(ctx, oldState, "decode", start, err)
		return fmt.Errorf("decode failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		s.reject(ctx, oldState, "validate", start, err)
		return fmt.Errorf("validation failed: %w", err)
	}

	s.current.Store(&cfg)
	s.lastError.Store(nil)
	s.errorHistory.clear()
	s.transitionState(ctx, oldState, StateHealthy)
	capitan.Emit(ctx, ServerConfigApplied)
	if s.metrics != nil {
		s.metrics.OnConfigApplied(s.clock.Since(start))
	}

	return nil
}

// reject records a failed update at the given stage ("decode" or "validate").
func (s *ServerStore) reject(ctx context.Context, oldState State, stage string, start time.Time, err error) {
	e := err
	s.lastError.Store(&e)
	s.errorHistory.push(err)
	s.transitionState(ctx, oldState, s.failureState())
	if stage == "decode" {
		capitan.Emit(ctx, ServerConfigDecodeFailed, KeyError.Field(err.Error()))
	} else {
		capitan.Emit(ctx, ServerConfigValidationFailed, KeyError.Field(err.Error()))
	}
	if s.metrics != nil {
		s.metrics.OnConfigRejected(stage, s.clock.Since(start))
	}
}

func (s *ServerStore) failureState() State {
	if s.current.Load() == nil {
		return StateEmpty
	}
	return StateDegraded
}

func (s *ServerStore) transitionState(ctx context.Context, oldState, newState State) {
	if oldState == newState {
		return
	}
	s.state.Store(int32(newState))
	capitan.Emit(ctx, ServerStoreStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	if s.metrics != nil {
		s.metrics.OnStateChange(oldState, newState)
	}
}

// watch processes changes from the watcher channel with debouncing.
func (s *ServerStore) watch(ctx context.Context, changes <-chan []byte) {
	defer func() {
		finalState := s.State()
		capitan.Emit(ctx, ServerStoreStopped,
			KeyState.Field(finalState.String()),
		)
		if s.onStop != nil {
			s.onStop(finalState)
		}
	}()

	var (
		timer      clockz.Timer
		pending    []byte
		hasPending bool
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case raw, ok := <-changes:
			if !ok {
				if hasPending {
					_ = s.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				}
				return
			}

			s.received(ctx)
			pending = raw
			hasPending = true

			if timer == nil {
				timer = s.clock.NewTimer(s.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(s.debounce)
			}

		case <-timerC:
			if hasPending {
				_ = s.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				hasPending = false
			}
		}
	}
}
