// Package watch turns external change notifications for import files into
// internal "changed" signals. Each import file gets exactly one Watcher,
// pooled and shared by every open document that depends on it.
package watch

import "time"

// NotifyFlags select which kinds of file modification a subscription is
// interested in.
type NotifyFlags uint8

const (
	// NotifyTime requests notification on modification-time changes.
	NotifyTime NotifyFlags = 1 << iota
	// NotifySize requests notification on size changes.
	NotifySize
)

// FileEvent describes a single on-disk modification of a subscribed file.
type FileEvent struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// FileSink receives file change events for one subscription.
type FileSink func(event FileEvent)

// SaveSink receives document-save cookies. The cookie identifies an entry in
// the host's document table and is resolved to a path via CookieResolver.
type SaveSink func(cookie uint32)

// FileChangeSource delivers on-disk change notifications for individual
// files. Implementations must marshal delivery onto the engine's owning
// goroutine; sinks are invoked without locking.
type FileChangeSource interface {
	Subscribe(path string, flags NotifyFlags, sink FileSink) (Subscription, error)
	Unsubscribe(sub Subscription) error
}

// SaveSource delivers editor document-save notifications. The same
// owning-goroutine delivery requirement as FileChangeSource applies.
type SaveSource interface {
	Subscribe(sink SaveSink) (Subscription, error)
	Unsubscribe(sub Subscription) error
}

// CookieResolver maps a document-table cookie to its file path. A false
// return means the cookie has no resolvable text buffer; callers treat that
// as no-match and skip the event.
type CookieResolver interface {
	ResolvePath(cookie uint32) (string, bool)
}

// Dispatcher marshals a function onto the engine's owning goroutine. Change
// sources use it so that every sink invocation happens where the engine's
// single-writer model expects it.
type Dispatcher func(fn func())

// SynchronousDispatcher runs the function inline. Suitable for tests and for
// hosts that already deliver events on the owning goroutine.
func SynchronousDispatcher(fn func()) { fn() }
