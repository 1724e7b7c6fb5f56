package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/viewz"
)

func TestNew_Defaults(t *testing.T) {
	w := New(nil)
	if w.table != DefaultTable || w.channel != DefaultChannel || w.key != DefaultKey {
		t.Errorf("unexpected defaults: %+v", w)
	}
}

func TestNew_Options(t *testing.T) {
	clock := clockz.NewFakeClock()
	w := New(nil, WithTable("cfg"), WithChannel("cfg_changed"), WithKey("staging"), WithClock(clock))
	if w.table != "cfg" || w.channel != "cfg_changed" || w.key != "staging" {
		t.Errorf("options not applied: %+v", w)
	}
	if w.clock != clock {
		t.Error("clock option not applied")
	}
}

func TestNextDelay_DoublesToCap(t *testing.T) {
	var got []time.Duration
	var d time.Duration
	for range 8 {
		d = nextDelay(d)
		got = append(got, d)
	}

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		3200 * time.Millisecond,
		5 * time.Second,
		5 * time.Second,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("retry %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestWatcher_WaitUsesClock(t *testing.T) {
	clock := clockz.NewFakeClock()
	w := New(nil, WithClock(clock))

	done := make(chan bool, 1)
	go func() { done <- w.wait(context.Background(), time.Second) }()

	deadline := time.Now().Add(time.Second)
	for !clock.HasWaiters() {
		if time.Now().After(deadline) {
			t.Fatal("wait never started a timer")
		}
		time.Sleep(time.Millisecond)
	}
	select {
	case <-done:
		t.Fatal("wait returned before the clock advanced")
	default:
	}

	clock.Advance(time.Second)
	clock.BlockUntilReady()
	select {
	case ok := <-done:
		if !ok {
			t.Error("expected wait to complete")
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not return after advance")
	}
}

func TestWatcher_WaitStopsOnCancel(t *testing.T) {
	w := New(nil, WithClock(clockz.NewFakeClock()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if w.wait(ctx, time.Hour) {
		t.Error("expected wait to report cancellation")
	}
}

func TestSQL_QuotesIdentifiers(t *testing.T) {
	w := New(nil, WithTable(`odd"name`), WithChannel("Changes"))

	if got := w.listenSQL(); got != `LISTEN "Changes"` {
		t.Errorf("unexpected listen statement %q", got)
	}
	if got := w.selectSQL(); got != `SELECT value FROM "odd""name" WHERE key = $1` {
		t.Errorf("unexpected select statement %q", got)
	}
}

// setupPool connects to the database named by VIEWZ_POSTGRES_URL and creates
// the config table and trigger.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("VIEWZ_POSTGRES_URL")
	if url == "" {
		t.Skip("VIEWZ_POSTGRES_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS server_config (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL
		);

		CREATE OR REPLACE FUNCTION notify_server_config() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('server_config_changed', NEW.key);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql;

		DROP TRIGGER IF EXISTS server_config_notify ON server_config;
		CREATE TRIGGER server_config_notify
			AFTER INSERT OR UPDATE ON server_config
			FOR EACH ROW EXECUTE FUNCTION notify_server_config();

		DELETE FROM server_config;
	`)
	if err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	return pool
}

func upsert(t *testing.T, pool *pgxpool.Pool, value string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO server_config (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		DefaultKey, []byte(value))
	if err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestWatcher_ServerStore(t *testing.T) {
	pool := setupPool(t)
	upsert(t, pool, `{"web_base_url": "https://one.example.com"}`)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := viewz.NewServerStore(New(pool), viewz.DefaultServerConfig()).Debounce(10 * time.Millisecond)
	if err := store.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := store.Current().WebBaseURL; got != "https://one.example.com" {
		t.Fatalf("unexpected initial config %q", got)
	}

	upsert(t, pool, `{"web_base_url": "https://two.example.com", "min_password_length": 12}`)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if store.Current().MinPasswordLength == 12 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("expected reloaded config, got %+v", store.Current())
}
