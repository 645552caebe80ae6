package watch

import (
	"sync"

	"github.com/conneroisu/templink/internal/types"
)

// SaveBroadcaster is the production SaveSource. Editor hosts report saves
// with NotifySaved; the broadcaster fans the cookie out to every subscriber
// via the Dispatcher so delivery lands on the owning goroutine.
type SaveBroadcaster struct {
	dispatch Dispatcher

	mu    sync.Mutex
	sinks map[Subscription]SaveSink
}

// NewSaveBroadcaster creates an empty save broadcaster.
func NewSaveBroadcaster(dispatch Dispatcher) *SaveBroadcaster {
	if dispatch == nil {
		dispatch = SynchronousDispatcher
	}

	return &SaveBroadcaster{
		dispatch: dispatch,
		sinks:    make(map[Subscription]SaveSink),
	}
}

// Subscribe implements SaveSource.
func (b *SaveBroadcaster) Subscribe(sink SaveSink) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := NewSubscription()
	b.sinks[sub] = sink

	return sub, nil
}

// Unsubscribe implements SaveSource.
func (b *SaveBroadcaster) Unsubscribe(sub Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.sinks, sub)

	return nil
}

// NotifySaved reports that the document behind cookie was saved. Safe to
// call from any goroutine.
func (b *SaveBroadcaster) NotifySaved(cookie uint32) {
	b.mu.Lock()
	sinks := make([]SaveSink, 0, len(b.sinks))
	for _, sink := range b.sinks {
		sinks = append(sinks, sink)
	}
	b.mu.Unlock()

	b.dispatch(func() {
		for _, sink := range sinks {
			sink(cookie)
		}
	})
}

// DocumentTable assigns cookies to open document paths and resolves them
// back, standing in for the host's running-document table.
type DocumentTable struct {
	mu     sync.Mutex
	next   uint32
	paths  map[uint32]string
	lookup map[string]uint32 // folded path -> cookie
}

// NewDocumentTable creates an empty document table.
func NewDocumentTable() *DocumentTable {
	return &DocumentTable{
		next:   1,
		paths:  make(map[uint32]string),
		lookup: make(map[string]uint32),
	}
}

// Open registers a path and returns its cookie. Re-opening an already open
// path returns the existing cookie.
func (t *DocumentTable) Open(path string) uint32 {
	name := types.NormalizePath(path)
	key := types.FoldPath(name)

	t.mu.Lock()
	defer t.mu.Unlock()

	if cookie, ok := t.lookup[key]; ok {
		return cookie
	}

	cookie := t.next
	t.next++
	t.paths[cookie] = name
	t.lookup[key] = cookie

	return cookie
}

// Close drops a cookie. Unknown cookies are ignored.
func (t *DocumentTable) Close(cookie uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	path, ok := t.paths[cookie]
	if !ok {
		return
	}

	delete(t.paths, cookie)
	delete(t.lookup, types.FoldPath(path))
}

// ResolvePath implements CookieResolver.
func (t *DocumentTable) ResolvePath(cookie uint32) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	path, ok := t.paths[cookie]

	return path, ok
}

// CookieOf returns the cookie for an open path if one exists.
func (t *DocumentTable) CookieOf(path string) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cookie, ok := t.lookup[types.FoldPath(path)]

	return cookie, ok
}
