// Package watcher observes the live credential file and emits debounced
// change notifications. It backs `cxprof sync --watch`, which mirrors
// auth.json into its saved profile whenever the managed CLI rewrites it.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounceDelay = 100 * time.Millisecond
	eventBuffer          = 16
	errorBuffer          = 4
)

// Event is one observed change to the watched file.
type Event struct {
	Path    string
	Removed bool
}

// Watcher monitors a single file for changes. The parent directory is
// watched rather than the file itself: the Codex CLI replaces auth.json
// atomically via rename, which would silently detach a direct file watch.
type Watcher struct {
	target string
	fs     *fsnotify.Watcher
	gate   *debouncer

	out  chan Event
	errs chan error
	quit chan struct{}
	stop sync.Once
	idle sync.WaitGroup
}

// New creates a watcher for path using the default debounce delay (100ms).
func New(path string) (*Watcher, error) {
	return NewWithDebounceDelay(path, defaultDebounceDelay)
}

// NewWithDebounceDelay creates a watcher for path with a configurable
// debounce delay. The file does not need to exist yet; its directory does.
func NewWithDebounceDelay(path string, delay time.Duration) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("abs watch path: %w", err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	dir := filepath.Dir(target)
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		target: target,
		fs:     fs,
		gate:   newDebouncer(delay),
		out:    make(chan Event, eventBuffer),
		errs:   make(chan error, errorBuffer),
		quit:   make(chan struct{}),
	}
	w.idle.Add(1)
	go w.loop()
	return w, nil
}

// Events returns the channel of debounced file change events.
func (w *Watcher) Events() <-chan Event { return w.out }

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher and releases OS resources. Safe to call more
// than once.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	w.stop.Do(func() { close(w.quit) })
	// Closing the fsnotify watcher unblocks the loop's channel reads.
	err := w.fs.Close()
	w.idle.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.idle.Done()
	defer close(w.out)
	defer close(w.errs)

	for {
		select {
		case <-w.quit:
			return
		case raw, open := <-w.fs.Events:
			if !open {
				return
			}
			evt, ok := w.sift(raw)
			if !ok {
				continue
			}
			// Non-blocking send: a stalled consumer loses events rather
			// than wedging the loop.
			select {
			case w.out <- evt:
			default:
			}
		case err, open := <-w.fs.Errors:
			if !open {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// sift keeps only events for the target file, debouncing writes. A removal
// passes through undebounced so a subsequent recreate is never swallowed by
// the write that preceded it.
func (w *Watcher) sift(raw fsnotify.Event) (Event, bool) {
	if raw.Name == "" || filepath.Clean(raw.Name) != w.target {
		return Event{}, false
	}
	if raw.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		return Event{Path: w.target, Removed: true}, true
	}
	if raw.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Chmod) != 0 && w.gate.ShouldEmit(w.target) {
		return Event{Path: w.target}, true
	}
	return Event{}, false
}
