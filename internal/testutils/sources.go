// Package testutils provides in-memory change sources and document fakes
// shared by the engine's test suites.
package testutils

import (
	"github.com/conneroisu/templink/internal/types"
	"github.com/conneroisu/templink/internal/watch"
)

// FakeFileSource is an in-memory FileChangeSource with scriptable failures
// and direct event injection.
type FakeFileSource struct {
	SubscribeErr   error
	UnsubscribeErr error

	subs map[watch.Subscription]fakeFileSub
}

type fakeFileSub struct {
	key  string
	sink watch.FileSink
}

// NewFakeFileSource creates an empty fake file change source.
func NewFakeFileSource() *FakeFileSource {
	return &FakeFileSource{subs: make(map[watch.Subscription]fakeFileSub)}
}

// Subscribe implements watch.FileChangeSource.
func (f *FakeFileSource) Subscribe(path string, _ watch.NotifyFlags, sink watch.FileSink) (watch.Subscription, error) {
	if f.SubscribeErr != nil {
		return watch.Subscription{}, f.SubscribeErr
	}

	sub := watch.NewSubscription()
	f.subs[sub] = fakeFileSub{key: types.FoldPath(path), sink: sink}

	return sub, nil
}

// Unsubscribe implements watch.FileChangeSource.
func (f *FakeFileSource) Unsubscribe(sub watch.Subscription) error {
	if f.UnsubscribeErr != nil {
		return f.UnsubscribeErr
	}

	delete(f.subs, sub)

	return nil
}

// Touch delivers a file change event to every subscription matching path.
func (f *FakeFileSource) Touch(path string) {
	key := types.FoldPath(path)
	for _, fs := range f.subs {
		if fs.key == key {
			fs.sink(watch.FileEvent{Path: path})
		}
	}
}

// ActiveSubscriptions returns the number of live subscriptions.
func (f *FakeFileSource) ActiveSubscriptions() int {
	return len(f.subs)
}

// SubscriptionsFor returns the number of live subscriptions for path.
func (f *FakeFileSource) SubscriptionsFor(path string) int {
	key := types.FoldPath(path)
	n := 0
	for _, fs := range f.subs {
		if fs.key == key {
			n++
		}
	}

	return n
}

// FakeSaveSource is an in-memory SaveSource.
type FakeSaveSource struct {
	SubscribeErr   error
	UnsubscribeErr error

	sinks map[watch.Subscription]watch.SaveSink
}

// NewFakeSaveSource creates an empty fake save source.
func NewFakeSaveSource() *FakeSaveSource {
	return &FakeSaveSource{sinks: make(map[watch.Subscription]watch.SaveSink)}
}

// Subscribe implements watch.SaveSource.
func (f *FakeSaveSource) Subscribe(sink watch.SaveSink) (watch.Subscription, error) {
	if f.SubscribeErr != nil {
		return watch.Subscription{}, f.SubscribeErr
	}

	sub := watch.NewSubscription()
	f.sinks[sub] = sink

	return sub, nil
}

// Unsubscribe implements watch.SaveSource.
func (f *FakeSaveSource) Unsubscribe(sub watch.Subscription) error {
	if f.UnsubscribeErr != nil {
		return f.UnsubscribeErr
	}

	delete(f.sinks, sub)

	return nil
}

// Save delivers a save cookie to every subscriber.
func (f *FakeSaveSource) Save(cookie uint32) {
	for _, sink := range f.sinks {
		sink(cookie)
	}
}

// ActiveSubscriptions returns the number of live subscriptions.
func (f *FakeSaveSource) ActiveSubscriptions() int {
	return len(f.sinks)
}

// FakeResolver resolves cookies from a fixed table.
type FakeResolver struct {
	Paths map[uint32]string
}

// NewFakeResolver creates a resolver over the given cookie table.
func NewFakeResolver(paths map[uint32]string) *FakeResolver {
	if paths == nil {
		paths = make(map[uint32]string)
	}

	return &FakeResolver{Paths: paths}
}

// ResolvePath implements watch.CookieResolver.
func (f *FakeResolver) ResolvePath(cookie uint32) (string, bool) {
	path, ok := f.Paths[cookie]
	return path, ok
}

// FakeParser is a scriptable types.Parser. Items is read on every
// ImportItems call, so tests can change the import list between calls.
type FakeParser struct {
	Items        []types.ImportItem
	ReparseCount int
	OnReparse    func()
}

// ImportItems implements types.Parser.
func (p *FakeParser) ImportItems() []types.ImportItem {
	items := make([]types.ImportItem, len(p.Items))
	copy(items, p.Items)

	return items
}

// RequestReparse implements types.Parser.
func (p *FakeParser) RequestReparse() {
	p.ReparseCount++
	if p.OnReparse != nil {
		p.OnReparse()
	}
}

// FakeDocument is a types.Document over a path and a FakeParser. A nil
// DocParser models the host invariant violation of a document without its
// parser collaborator.
type FakeDocument struct {
	DocPath   string
	DocParser *FakeParser
}

// NewFakeDocument creates a document with the given imports.
func NewFakeDocument(path string, imports ...string) *FakeDocument {
	items := make([]types.ImportItem, 0, len(imports))
	for _, imp := range imports {
		items = append(items, types.ImportItem{PhysicalPath: imp})
	}

	return &FakeDocument{DocPath: path, DocParser: &FakeParser{Items: items}}
}

// Path implements types.Document.
func (d *FakeDocument) Path() string { return d.DocPath }

// Parser implements types.Document.
func (d *FakeDocument) Parser() types.Parser {
	if d.DocParser == nil {
		return nil
	}

	return d.DocParser
}
