// Package types provides common type definitions shared by the templink
// engine packages. This package contains shared types to avoid circular
// dependencies between packages.
package types

// ImportItem describes a single import directive discovered in a document by
// its parser collaborator. Items that exist only in memory (builtin or
// generated imports) carry an empty PhysicalPath and are never watched.
type ImportItem struct {
	// PhysicalPath is the absolute on-disk path of the imported file, or
	// empty when the import does not resolve to a real file.
	PhysicalPath string
}

// Parser is the per-document collaborator that derives the document's import
// list and performs the actual reparse. Both operations re-derive from the
// collaborator's current state on every call; the engine never caches their
// results beyond a single operation.
type Parser interface {
	// ImportItems returns the document's current import directives.
	ImportItems() []ImportItem
	// RequestReparse schedules a reparse of the document. Dispatch is
	// fire-and-forget; the reparse pipeline runs outside the engine.
	RequestReparse()
}

// Document identifies an open source document tracked by the engine. The
// engine indexes documents while they are open but never owns them; the
// hosting shell creates a Document when a buffer attaches and discards it
// when the buffer detaches.
type Document interface {
	// Path returns the document's normalized file path. Document identity
	// is the exact path string.
	Path() string
	// Parser returns the document's parser collaborator. A nil return is a
	// host invariant violation; the engine degrades to skipping import
	// tracking for the document rather than crashing.
	Parser() Parser
}
