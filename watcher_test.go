package viewz

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// next reads one value from ch or fails after timeout.
func next(t *testing.T, ch <-chan []byte, timeout time.Duration) string {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(v)
	case <-time.After(timeout):
		t.Fatal("timeout waiting for value")
	}
	return ""
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestChannelWatcher_Forwards(t *testing.T) {
	source := make(chan []byte, 2)
	source <- []byte("web_base_url: https://a.example.com")
	source <- []byte("web_base_url: https://b.example.com")
	close(source)

	out, err := NewChannelWatcher(source).Watch(t.Context())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if got := next(t, out, 100*time.Millisecond); got != "web_base_url: https://a.example.com" {
		t.Errorf("unexpected first value %q", got)
	}
	if got := next(t, out, 100*time.Millisecond); got != "web_base_url: https://b.example.com" {
		t.Errorf("unexpected second value %q", got)
	}

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected channel to close after the source")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for close")
	}
}

func TestChannelWatcher_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out, err := NewChannelWatcher(make(chan []byte)).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected no value after cancel")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("watcher did not stop")
	}
}

func TestSyncChannelWatcher_ReturnsSource(t *testing.T) {
	source := make(chan []byte, 1)
	source <- []byte("direct")

	out, err := NewSyncChannelWatcher(source).Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if got := next(t, out, 10*time.Millisecond); got != "direct" {
		t.Errorf("expected direct, got %q", got)
	}
}

func TestFileWatcher_InitialAndUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	writeFile(t, path, "min_password_length: 6")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if got := next(t, out, time.Second); got != "min_password_length: 6" {
		t.Errorf("unexpected initial contents %q", got)
	}

	writeFile(t, path, "min_password_length: 8")
	if got := next(t, out, time.Second); got != "min_password_length: 8" {
		t.Errorf("unexpected updated contents %q", got)
	}
}

func TestFileWatcher_SkipsUnchangedSaves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	writeFile(t, path, "same")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := NewFileWatcher(path).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	next(t, out, time.Second)

	writeFile(t, path, "same")
	writeFile(t, filepath.Join(dir, "other.yaml"), "ignored")
	writeFile(t, path, "changed")

	if got := next(t, out, time.Second); got != "changed" {
		t.Errorf("expected only the changed contents, got %q", got)
	}
}

func TestFileWatcher_MissingFile(t *testing.T) {
	if _, err := NewFileWatcher("/nonexistent/path/server.yaml").Watch(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
