package viewz

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a source of server configuration and emits raw bytes on a
// channel. Implementations must emit the current value immediately upon
// Watch() being called so the store can load its initial configuration.
type Watcher interface {
	// Watch begins observing the source and returns a channel that emits
	// raw bytes when changes occur. The channel is closed when the context
	// is canceled or an unrecoverable error occurs.
	Watch(ctx context.Context) (<-chan []byte, error)
}

// ChannelWatcher wraps an existing byte channel as a Watcher.
// Useful for testing and for sources that already push bytes, such as a
// remote config poller.
type ChannelWatcher struct {
	ch     <-chan []byte
	direct bool
}

// NewChannelWatcher creates a ChannelWatcher that forwards values from the
// given channel through an internal goroutine.
func NewChannelWatcher(ch <-chan []byte) *ChannelWatcher {
	return &ChannelWatcher{ch: ch}
}

// NewSyncChannelWatcher creates a ChannelWatcher that returns the source
// channel directly. Use with ServerStore.SyncMode() for deterministic tests.
func NewSyncChannelWatcher(ch <-chan []byte) *ChannelWatcher {
	return &ChannelWatcher{ch: ch, direct: true}
}

// Watch returns a channel that emits values from the wrapped channel until
// either it closes or ctx is done.
func (w *ChannelWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	if w.direct {
		return w.ch, nil
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-w.ch:
				if !ok || !forward(ctx, out, v) {
					return
				}
			}
		}
	}()
	return out, nil
}

// forward sends v on out, reporting false if ctx ended first.
func forward(ctx context.Context, out chan<- []byte, v []byte) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// FileWatcher watches a server config file and emits its contents.
// It watches the parent directory so that editors and deploy tools that
// replace the file atomically are still observed. Saves that leave the
// contents unchanged are not emitted.
type FileWatcher struct {
	path string
}

// NewFileWatcher creates a FileWatcher for the given path.
func NewFileWatcher(path string) *FileWatcher {
	return &FileWatcher{path: filepath.Clean(path)}
}

// Watch emits the file contents immediately and again whenever they change.
func (w *FileWatcher) Watch(ctx context.Context) (<-chan []byte, error) {
	last, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", w.path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch directory of %s: %w", w.path, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer fsw.Close()

		if !forward(ctx, out, last) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !w.touches(event) {
					continue
				}
				data, err := os.ReadFile(w.path)
				if err != nil || bytes.Equal(data, last) {
					continue
				}
				last = data
				if !forward(ctx, out, data) {
					return
				}

			case _, ok := <-fsw.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}

// touches reports whether event may have changed the watched file.
func (w *FileWatcher) touches(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
