package watch

import (
	"sort"

	"github.com/conneroisu/templink/internal/logging"
	"github.com/conneroisu/templink/internal/types"
)

// Pool owns the set of active Watchers, exactly one per import file path.
// Like the Watcher, the Pool is mutated only on the owning goroutine.
type Pool struct {
	files    FileChangeSource
	saves    SaveSource
	resolver CookieResolver
	logger   logging.Logger

	watchers map[string]*Watcher // folded import path -> watcher
}

// NewPool creates an empty watcher pool over the given change sources.
func NewPool(files FileChangeSource, saves SaveSource, resolver CookieResolver, logger logging.Logger) *Pool {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Pool{
		files:    files,
		saves:    saves,
		resolver: resolver,
		logger:   logger,
		watchers: make(map[string]*Watcher),
	}
}

// EnsureWatching returns the watcher for path, creating and starting one on
// first need. A watcher that fails to start is not retained, so a failed
// call leaves the pool unchanged.
func (p *Pool) EnsureWatching(path string) (*Watcher, error) {
	key := types.FoldPath(path)

	if w, ok := p.watchers[key]; ok {
		return w, nil
	}

	w := NewWatcher(path, p.files, p.saves, p.resolver, p.logger)
	if err := w.Start(); err != nil {
		return nil, err
	}

	p.watchers[key] = w

	return w, nil
}

// Evict stops and removes the watcher for path. Eviction proceeds even when
// Stop reports an unregistration failure; the error is returned after the
// watcher has left the pool. No-op when path has no watcher.
func (p *Pool) Evict(path string) error {
	key := types.FoldPath(path)

	w, ok := p.watchers[key]
	if !ok {
		return nil
	}

	delete(p.watchers, key)

	return w.Stop()
}

// Get returns the watcher for path if one exists.
func (p *Pool) Get(path string) (*Watcher, bool) {
	w, ok := p.watchers[types.FoldPath(path)]
	return w, ok
}

// Len returns the number of active watchers.
func (p *Pool) Len() int {
	return len(p.watchers)
}

// Paths returns the watched import paths, sorted, in each watcher's own
// casing.
func (p *Pool) Paths() []string {
	paths := make([]string, 0, len(p.watchers))
	for _, w := range p.watchers {
		paths = append(paths, w.Path())
	}
	sort.Strings(paths)

	return paths
}
