// Package parser implements the per-document parser collaborator for
// templ-style markup sources. It extracts import directives from document
// content, resolves them to on-disk paths, and performs reparse analysis
// when the engine requests it.
package parser

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/conneroisu/templink/internal/errors"
	"github.com/conneroisu/templink/internal/logging"
	"github.com/conneroisu/templink/internal/types"
)

// Directives take the form `@import "relative/or/absolute/path"` or
// `@layout "path"` at the start of a line. Targets with a "std:" scheme
// name builtin imports that exist only in memory.
var importDirective = regexp.MustCompile(`^\s*@(?:import|layout)\s+"([^"]+)"`)

const virtualScheme = "std:"

// ReparseFunc observes completed reparse analyses for a document.
type ReparseFunc func(docPath string, imports []types.ImportItem)

// TemplParser derives a document's import list from its current on-disk
// content on every call, and re-runs the analysis on reparse requests.
// It implements types.Parser.
type TemplParser struct {
	docPath   string
	excludes  []glob.Glob
	logger    logging.Logger
	onReparse ReparseFunc
}

// Option configures a TemplParser.
type Option func(*TemplParser)

// WithExcludePatterns skips imports whose resolved path matches any of the
// given glob patterns. Invalid patterns are ignored with a warning.
func WithExcludePatterns(patterns []string, logger logging.Logger) Option {
	return func(p *TemplParser) {
		for _, pattern := range patterns {
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				if logger != nil {
					logger.Warn(context.Background(), err, "ignoring invalid exclude pattern", "pattern", pattern)
				}
				continue
			}
			p.excludes = append(p.excludes, g)
		}
	}
}

// WithReparseFunc installs the reparse completion observer.
func WithReparseFunc(fn ReparseFunc) Option {
	return func(p *TemplParser) { p.onReparse = fn }
}

// NewTemplParser creates a parser collaborator for one document path.
func NewTemplParser(docPath string, logger logging.Logger, opts ...Option) *TemplParser {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	p := &TemplParser{
		docPath: types.NormalizePath(docPath),
		logger:  logger.WithComponent("parser"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ImportItems implements types.Parser. The list is re-derived from the
// document's current content on every call.
func (p *TemplParser) ImportItems() []types.ImportItem {
	content, err := os.ReadFile(p.docPath)
	if err != nil {
		ioErr := errors.NewIOError("read_document", "cannot read document", err).WithPath(p.docPath)
		p.logger.Warn(context.Background(), ioErr, "import extraction skipped")
		return nil
	}

	return p.extract(string(content))
}

// RequestReparse implements types.Parser. The analysis re-derives the import
// list and hands it to the observer; dispatch is fire-and-forget from the
// engine's point of view.
func (p *TemplParser) RequestReparse() {
	items := p.ImportItems()

	p.logger.Debug(context.Background(), "reparsed document", "document", p.docPath, "imports", len(items))

	if p.onReparse != nil {
		p.onReparse(p.docPath, items)
	}
}

// extract scans content for import directives and resolves each target.
func (p *TemplParser) extract(content string) []types.ImportItem {
	var items []types.ImportItem
	seen := make(map[string]struct{})

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}

		match := importDirective.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		item, ok := p.resolve(match[1])
		if !ok {
			continue
		}

		key := types.FoldPath(item.PhysicalPath)
		if item.PhysicalPath != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}

		items = append(items, item)
	}

	return items
}

// resolve turns a directive target into an ImportItem. The second return is
// false when the import is excluded outright.
func (p *TemplParser) resolve(target string) (types.ImportItem, bool) {
	if strings.HasPrefix(target, virtualScheme) {
		return types.ImportItem{}, true
	}

	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(p.docPath), path)
	}
	path = types.NormalizePath(path)

	for _, g := range p.excludes {
		if g.Match(path) {
			return types.ImportItem{}, false
		}
	}

	// Only imports that resolve to a real file can be watched; anything
	// else stays an in-memory import with no path.
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return types.ImportItem{}, true
	}

	return types.ImportItem{PhysicalPath: path}, true
}
