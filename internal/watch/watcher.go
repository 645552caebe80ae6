package watch

import (
	"context"

	"github.com/conneroisu/templink/internal/errors"
	"github.com/conneroisu/templink/internal/logging"
	"github.com/conneroisu/templink/internal/types"
)

// State is a Watcher's registration state.
type State int

const (
	// StateUnregistered means the watcher holds no subscriptions.
	StateUnregistered State = iota
	// StateListening means both change-source subscriptions are active.
	StateListening
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateListening:
		return "listening"
	default:
		return "unknown"
	}
}

// Callback is invoked with the watched import path when the import file
// changes. A callback error is logged and never suppresses other callbacks.
type Callback func(importPath string) error

// Watcher owns the change subscriptions for exactly one import file and
// collapses both notification sources (on-disk change, editor save) into one
// "changed" signal fanned out to its callbacks.
//
// Watcher has no locking: Start, Stop, Subscribe and signal delivery all run
// on the engine's owning goroutine. The change sources marshal their
// notifications there before invoking the sinks.
type Watcher struct {
	path     string
	files    FileChangeSource
	saves    SaveSource
	resolver CookieResolver
	logger   logging.Logger

	state     State
	fileSub   Subscription
	saveSub   Subscription
	callbacks []Callback
}

// NewWatcher creates an unregistered watcher for one import file path.
func NewWatcher(path string, files FileChangeSource, saves SaveSource, resolver CookieResolver, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Watcher{
		path:     types.NormalizePath(path),
		files:    files,
		saves:    saves,
		resolver: resolver,
		logger:   logger.WithComponent("watcher"),
	}
}

// Path returns the watched import file path.
func (w *Watcher) Path() string { return w.path }

// State returns the watcher's registration state.
func (w *Watcher) State() State { return w.state }

// Subscribe registers a callback for the watcher's "changed" signal.
func (w *Watcher) Subscribe(cb Callback) {
	w.callbacks = append(w.callbacks, cb)
}

// Start registers with both change sources and transitions to Listening.
// Starting a listening watcher is a no-op. On registration failure the
// watcher stays Unregistered and holds no partial subscriptions.
func (w *Watcher) Start() error {
	if w.state == StateListening {
		return nil
	}

	fileSub, err := w.files.Subscribe(w.path, NotifyTime|NotifySize, w.onFileEvent)
	if err != nil {
		return errors.NewSubscriptionError("watcher", "Start", err).WithPath(w.path)
	}

	saveSub, err := w.saves.Subscribe(w.onSave)
	if err != nil {
		if uerr := w.files.Unsubscribe(fileSub); uerr != nil {
			w.logger.Warn(context.Background(), uerr, "rolling back file subscription failed", "path", w.path)
		}

		return errors.NewSubscriptionError("watcher", "Start", err).WithPath(w.path)
	}

	w.fileSub = fileSub
	w.saveSub = saveSub
	w.state = StateListening

	w.logger.Debug(context.Background(), "watching import file", "path", w.path)

	return nil
}

// Stop unregisters both subscriptions and transitions to Unregistered.
// Stopping an unregistered watcher is a no-op. Unregistration failures are
// propagated but the watcher is still considered stopped.
func (w *Watcher) Stop() error {
	if w.state == StateUnregistered {
		return nil
	}

	var firstErr error
	if err := w.files.Unsubscribe(w.fileSub); err != nil {
		firstErr = err
	}
	if err := w.saves.Unsubscribe(w.saveSub); err != nil && firstErr == nil {
		firstErr = err
	}

	w.fileSub = Subscription{}
	w.saveSub = Subscription{}
	w.state = StateUnregistered

	w.logger.Debug(context.Background(), "stopped watching import file", "path", w.path)

	if firstErr != nil {
		return errors.NewSubscriptionError("watcher", "Stop", firstErr).WithPath(w.path)
	}

	return nil
}

func (w *Watcher) onFileEvent(FileEvent) {
	if w.state != StateListening {
		return
	}

	w.fire()
}

func (w *Watcher) onSave(cookie uint32) {
	if w.state != StateListening {
		return
	}

	path, ok := w.resolver.ResolvePath(cookie)
	if !ok {
		return
	}

	if !types.PathsEqualFold(path, w.path) {
		return
	}

	w.fire()
}

// fire delivers one "changed" signal to every callback. A failing callback
// never prevents the remaining callbacks from being notified.
func (w *Watcher) fire() {
	for _, cb := range w.callbacks {
		if err := cb(w.path); err != nil {
			w.logger.Warn(context.Background(), err, "change callback failed", "path", w.path)
		}
	}
}
