// Package deps maintains the import-to-document dependency index: for every
// watched import file, the set of open documents whose parsed output depends
// on it.
package deps

import (
	"sort"

	"github.com/conneroisu/templink/internal/types"
)

// Index maps an import file path to the set of open document paths that
// depend on it. Import paths are compared case-insensitively; document
// identity is the exact path string.
//
// Index is not safe for concurrent use. It is exclusively owned and mutated
// by the document manager on the owning goroutine.
type Index struct {
	entries map[string]*entry // folded import path -> entry
}

type entry struct {
	path       string // first-seen casing, kept for display and watching
	dependents map[string]struct{}
}

// NewIndex creates an empty dependency index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]*entry)}
}

// AddEdge inserts docPath into the dependent set for importPath, creating the
// set if absent. Adding an existing edge is a no-op. It reports whether the
// set was newly created, which signals the caller to start watching the
// import path.
func (ix *Index) AddEdge(importPath, docPath string) (created bool) {
	key := types.FoldPath(importPath)

	e, ok := ix.entries[key]
	if !ok {
		e = &entry{
			path:       types.NormalizePath(importPath),
			dependents: make(map[string]struct{}),
		}
		ix.entries[key] = e
		created = true
	}

	e.dependents[docPath] = struct{}{}

	return created
}

// RemoveEdge removes docPath from the dependent set for importPath. When the
// set becomes empty the entry is removed entirely and RemoveEdge reports
// true, signaling the caller to evict the import path's watcher. Removing a
// missing edge is a no-op.
func (ix *Index) RemoveEdge(importPath, docPath string) (empty bool) {
	key := types.FoldPath(importPath)

	e, ok := ix.entries[key]
	if !ok {
		return false
	}

	delete(e.dependents, docPath)

	if len(e.dependents) == 0 {
		delete(ix.entries, key)
		return true
	}

	return false
}

// DependentsOf returns a sorted snapshot of the document paths currently
// depending on importPath. The snapshot does not alias index state; callers
// may hold it across mutations.
func (ix *Index) DependentsOf(importPath string) []string {
	e, ok := ix.entries[types.FoldPath(importPath)]
	if !ok {
		return nil
	}

	docs := make([]string, 0, len(e.dependents))
	for doc := range e.dependents {
		docs = append(docs, doc)
	}
	sort.Strings(docs)

	return docs
}

// HasDependents reports whether at least one open document depends on
// importPath.
func (ix *Index) HasDependents(importPath string) bool {
	_, ok := ix.entries[types.FoldPath(importPath)]
	return ok
}

// ImportPaths returns the sorted import paths that currently have at least
// one dependent, in their first-seen casing.
func (ix *Index) ImportPaths() []string {
	paths := make([]string, 0, len(ix.entries))
	for _, e := range ix.entries {
		paths = append(paths, e.path)
	}
	sort.Strings(paths)

	return paths
}

// Len returns the number of import paths with at least one dependent.
func (ix *Index) Len() int {
	return len(ix.entries)
}
