// Package postgres provides a viewz.Watcher that serves server configuration
// from a PostgreSQL row, reloading it on LISTEN/NOTIFY.
package postgres

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/viewz"
)

// Defaults for New.
const (
	DefaultTable   = "server_config"
	DefaultChannel = "server_config_changed"
	DefaultKey     = "default"
)

// Delays between failed waits for a notification.
const (
	minRetryDelay = 100 * time.Millisecond
	maxRetryDelay = 5 * time.Second
)

// Watcher emits the value column of one row of a config table. The row is
// re-read whenever a notification carrying its key arrives on the channel.
//
// Example trigger setup:
//
//	CREATE TABLE server_config (
//	    key   TEXT PRIMARY KEY,
//	    value BYTEA NOT NULL
//	);
//
//	CREATE OR REPLACE FUNCTION notify_server_config() RETURNS trigger AS $$
//	BEGIN
//	    PERFORM pg_notify('server_config_changed', NEW.key);
//	    RETURN NEW;
//	END;
//	$$ LANGUAGE plpgsql;
//
//	CREATE TRIGGER server_config_notify
//	    AFTER INSERT OR UPDATE ON server_config
//	    FOR EACH ROW EXECUTE FUNCTION notify_server_config();
type Watcher struct {
	pool    *pgxpool.Pool
	table   string
	channel string
	key     string
	clock   clockz.Clock
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithTable sets the table to read. Default: DefaultTable.
func WithTable(table string) Option {
	return func(w *Watcher) { w.table = table }
}

// WithChannel sets the notification channel. Default: DefaultChannel.
func WithChannel(channel string) Option {
	return func(w *Watcher) { w.channel = channel }
}

// WithKey selects the row to serve, for deployments that keep one config per
// environment. Default: DefaultKey.
func WithKey(key string) Option {
	return func(w *Watcher) { w.key = key }
}

// WithClock sets the clock used to wait between failed notification reads.
// Default: clockz.RealClock.
func WithClock(clock clockz.Clock) Option {
	return func(w *Watcher) { w.clock = clock }
}

// New creates a Watcher reading from pool.
func New(pool *pgxpool.Pool, opts ...Option) *Watcher {
	w := &Watcher{
		pool:    pool,
		table:   DefaultTable,
		channel: DefaultChannel,
		key:     DefaultKey,
		clock:   clockz.RealClock,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch listens on the channel and emits the row's value, starting with its
// current value. Unchanged values are not re-emitted. The returned channel is
// closed when ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, w.listenSQL()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on channel %s: %w", w.channel, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer conn.Release()

		var last []byte
		emit := func() bool {
			value, err := w.fetch(ctx)
			if err != nil || value == nil || bytes.Equal(value, last) {
				return true
			}
			last = value
			select {
			case out <- value:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		var delay time.Duration
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				delay = nextDelay(delay)
				if !w.wait(ctx, delay) {
					return
				}
				continue
			}
			delay = 0
			if n.Payload != w.key {
				continue
			}
			if !emit() {
				return
			}
		}
	}()

	return out, nil
}

// nextDelay doubles d, bounded by minRetryDelay and maxRetryDelay.
func nextDelay(d time.Duration) time.Duration {
	switch {
	case d < minRetryDelay:
		return minRetryDelay
	case d >= maxRetryDelay/2:
		return maxRetryDelay
	default:
		return d * 2
	}
}

// wait blocks for d on the watcher's clock. It returns false if ctx ends first.
func (w *Watcher) wait(ctx context.Context, d time.Duration) bool {
	timer := w.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C():
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *Watcher) listenSQL() string {
	return "LISTEN " + pgx.Identifier{w.channel}.Sanitize()
}

func (w *Watcher) selectSQL() string {
	return "SELECT value FROM " + pgx.Identifier{w.table}.Sanitize() + " WHERE key = $1"
}

func (w *Watcher) fetch(ctx context.Context) ([]byte, error) {
	var value []byte
	if err := w.pool.QueryRow(ctx, w.selectSQL(), w.key).Scan(&value); err != nil {
		return nil, err
	}
	return value, nil
}

var _ viewz.Watcher = (*Watcher)(nil)
