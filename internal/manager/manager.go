// Package manager implements the document-to-import dependency tracker.
// DocumentManager owns the open-document registry and orchestrates the
// dependency index and watcher pool: opening a document wires watches for
// its imports, closing it unwinds exactly those watches, and a watched
// import changing dispatches one reparse request per dependent document.
package manager

import (
	"context"

	"github.com/conneroisu/templink/internal/deps"
	"github.com/conneroisu/templink/internal/errors"
	"github.com/conneroisu/templink/internal/logging"
	"github.com/conneroisu/templink/internal/threading"
	"github.com/conneroisu/templink/internal/types"
	"github.com/conneroisu/templink/internal/watch"
)

// ReparseObserver is notified after each reparse dispatch. Used by the
// notification surface; the engine itself does not depend on it.
type ReparseObserver func(docPath, importPath string)

// DocumentManager is the engine façade. All public entry points must run on
// the owning goroutine; the injected threading.Checker enforces it and a
// violation panics, since it indicates a caller bug rather than a runtime
// condition. The index and pool are exclusively owned and mutated here.
type DocumentManager struct {
	affinity threading.Checker
	logger   logging.Logger
	index    *deps.Index
	pool     *watch.Pool

	docs     map[string]types.Document // exact document path -> document
	order    []string                  // insertion order for OpenDocuments
	captured map[string][]string       // document path -> import paths captured at add time

	observer ReparseObserver
}

// New creates a DocumentManager over the given index and pool.
func New(index *deps.Index, pool *watch.Pool, affinity threading.Checker, logger logging.Logger) *DocumentManager {
	if affinity == nil {
		affinity = threading.NopChecker{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &DocumentManager{
		affinity: affinity,
		logger:   logger.WithComponent("manager"),
		index:    index,
		pool:     pool,
		docs:     make(map[string]types.Document),
		captured: make(map[string][]string),
	}
}

// SetReparseObserver installs the observer called after each reparse
// dispatch. Must run on the owning goroutine like every other entry point.
func (m *DocumentManager) SetReparseObserver(fn ReparseObserver) {
	m.mustBeOwner("SetReparseObserver")
	m.observer = fn
}

// AddDocument registers an open document and wires watches for each of its
// imports that resolves to an on-disk file. Adding an already-registered
// document does not change registry membership or order, but it does
// establish any import edges that are missing, so a caller can recover from
// an earlier subscription failure by re-adding.
//
// A document without a parser collaborator is a host invariant violation;
// it stays registered but import tracking is skipped and the anomaly is
// logged. A subscription failure for one import does not abort the rest;
// the first failure is returned after all imports have been attempted.
func (m *DocumentManager) AddDocument(doc types.Document) error {
	m.mustBeOwner("AddDocument")

	if doc == nil {
		return errors.NewInvalidArgumentError("AddDocument", "document is nil").WithComponent("manager")
	}

	docPath := types.NormalizePath(doc.Path())

	if _, registered := m.docs[docPath]; !registered {
		m.docs[docPath] = doc
		m.order = append(m.order, docPath)
	}

	parser := doc.Parser()
	if parser == nil {
		err := errors.NewMissingParserError(docPath)
		m.logger.Warn(context.Background(), err, "skipping import tracking", "document", docPath)
		return nil
	}

	var firstErr error
	captured := make([]string, 0)

	for _, item := range parser.ImportItems() {
		if item.PhysicalPath == "" {
			// In-memory import, nothing on disk to watch.
			continue
		}

		importPath := types.NormalizePath(item.PhysicalPath)

		created := m.index.AddEdge(importPath, docPath)
		captured = append(captured, importPath)

		if !created {
			continue
		}

		w, err := m.pool.EnsureWatching(importPath)
		if err != nil {
			// The edge is unwatchable; unwind it so the index and
			// pool stay in step and a re-add can retry cleanly.
			m.index.RemoveEdge(importPath, docPath)
			captured = captured[:len(captured)-1]

			m.logger.Error(context.Background(), err, "watch registration failed",
				"document", docPath, "import", importPath)

			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		w.Subscribe(m.onImportChanged)
	}

	m.captured[docPath] = mergePaths(m.captured[docPath], captured)

	m.logger.Debug(context.Background(), "document added",
		"document", docPath, "imports", len(m.captured[docPath]))

	return firstErr
}

// RemoveDocument unregisters a document and removes the import edges
// captured when it was added. Watchers whose dependent set empties are
// evicted. Removing an unregistered document is a no-op.
func (m *DocumentManager) RemoveDocument(doc types.Document) error {
	m.mustBeOwner("RemoveDocument")

	if doc == nil {
		return errors.NewInvalidArgumentError("RemoveDocument", "document is nil").WithComponent("manager")
	}

	docPath := types.NormalizePath(doc.Path())

	if _, registered := m.docs[docPath]; !registered {
		return nil
	}

	delete(m.docs, docPath)
	for i, p := range m.order {
		if p == docPath {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	var firstErr error

	for _, importPath := range m.captured[docPath] {
		if !m.index.RemoveEdge(importPath, docPath) {
			continue
		}

		if err := m.pool.Evict(importPath); err != nil {
			m.logger.Error(context.Background(), err, "watch eviction failed", "import", importPath)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	delete(m.captured, docPath)

	m.logger.Debug(context.Background(), "document removed", "document", docPath)

	return firstErr
}

// OpenDocuments returns the tracked documents in insertion order.
func (m *DocumentManager) OpenDocuments() []types.Document {
	m.mustBeOwner("OpenDocuments")

	docs := make([]types.Document, 0, len(m.order))
	for _, path := range m.order {
		docs = append(docs, m.docs[path])
	}

	return docs
}

// onImportChanged is the single dispatch callback subscribed per watcher.
// Dependents are re-resolved at fire time; the set can change between the
// subscription and the signal.
func (m *DocumentManager) onImportChanged(importPath string) error {
	dependents := m.index.DependentsOf(importPath)

	m.logger.Debug(context.Background(), "import changed",
		"import", importPath, "dependents", len(dependents))

	for _, docPath := range dependents {
		doc, ok := m.docs[docPath]
		if !ok {
			continue
		}

		parser := doc.Parser()
		if parser == nil {
			m.logger.Warn(context.Background(), errors.NewMissingParserError(docPath),
				"cannot dispatch reparse", "document", docPath)
			continue
		}

		parser.RequestReparse()

		if m.observer != nil {
			m.observer(docPath, importPath)
		}
	}

	return nil
}

func (m *DocumentManager) mustBeOwner(op string) {
	if err := m.affinity.Check("manager", op); err != nil {
		panic(err)
	}
}

// mergePaths unions two captured path lists preserving first-seen order,
// comparing case-insensitively.
func mergePaths(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing)+len(added))

	for _, p := range existing {
		key := types.FoldPath(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	for _, p := range added {
		key := types.FoldPath(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}

	return out
}
