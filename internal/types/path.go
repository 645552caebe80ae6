package types

import (
	"path/filepath"

	"golang.org/x/text/cases"
)

// NormalizePath cleans a document or import path into the canonical form used
// for identity comparison.
func NormalizePath(path string) string {
	return filepath.Clean(path)
}

// FoldPath canonicalizes a path for case-insensitive comparison, matching
// filesystem semantics for import files. Two import paths refer to the same
// watched file exactly when their folded forms are equal.
func FoldPath(path string) string {
	return cases.Fold().String(NormalizePath(path))
}

// PathsEqualFold reports whether two paths identify the same import file
// under case-insensitive comparison.
func PathsEqualFold(a, b string) bool {
	return FoldPath(a) == FoldPath(b)
}
