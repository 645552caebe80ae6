package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/templink/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestImportItemsExtractsDirectives(t *testing.T) {
	dir := t.TempDir()
	imports := writeFile(t, dir, "_Imports.templ", "")
	layout := writeFile(t, dir, "_Layout.templ", "")
	doc := writeFile(t, dir, "page.templ", `@import "_Imports.templ"
@layout "_Layout.templ"

templ Page() {
	<div>hello</div>
}
`)

	p := NewTemplParser(doc, nil)
	items := p.ImportItems()

	require.Len(t, items, 2)
	assert.Equal(t, imports, items[0].PhysicalPath)
	assert.Equal(t, layout, items[1].PhysicalPath)
}

func TestImportItemsAbsoluteTarget(t *testing.T) {
	dir := t.TempDir()
	shared := writeFile(t, dir, "shared/_Imports.templ", "")
	doc := writeFile(t, dir, "page.templ", `@import "`+shared+`"`)

	p := NewTemplParser(doc, nil)
	items := p.ImportItems()

	require.Len(t, items, 1)
	assert.Equal(t, shared, items[0].PhysicalPath)
}

func TestImportItemsSkipsComments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "_Imports.templ", "")
	doc := writeFile(t, dir, "page.templ", `// @import "_Imports.templ"
templ Page() {}
`)

	p := NewTemplParser(doc, nil)
	assert.Empty(t, p.ImportItems())
}

func TestImportItemsVirtualImportHasNoPath(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "page.templ", `@import "std:layout"`)

	p := NewTemplParser(doc, nil)
	items := p.ImportItems()

	require.Len(t, items, 1)
	assert.Empty(t, items[0].PhysicalPath)
}

func TestImportItemsNonexistentTargetHasNoPath(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "page.templ", `@import "missing.templ"`)

	p := NewTemplParser(doc, nil)
	items := p.ImportItems()

	require.Len(t, items, 1)
	assert.Empty(t, items[0].PhysicalPath, "only on-disk files get a physical path")
}

func TestImportItemsDeduplicatesResolvedPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "_Imports.templ", "")
	doc := writeFile(t, dir, "page.templ", `@import "_Imports.templ"
@import "_Imports.templ"
`)

	p := NewTemplParser(doc, nil)
	assert.Len(t, p.ImportItems(), 1)
}

func TestImportItemsExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vendor/_Imports.templ", "")
	kept := writeFile(t, dir, "_Layout.templ", "")
	doc := writeFile(t, dir, "page.templ", `@import "vendor/_Imports.templ"
@layout "_Layout.templ"
`)

	p := NewTemplParser(doc, nil, WithExcludePatterns([]string{"**/vendor/**"}, nil))
	items := p.ImportItems()

	require.Len(t, items, 1)
	assert.Equal(t, kept, items[0].PhysicalPath)
}

func TestImportItemsUnreadableDocument(t *testing.T) {
	p := NewTemplParser(filepath.Join(t.TempDir(), "gone.templ"), nil)

	assert.Nil(t, p.ImportItems())
}

func TestImportItemsReDerivedEachCall(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "_Imports.templ", "")
	doc := writeFile(t, dir, "page.templ", `@import "_Imports.templ"`)

	p := NewTemplParser(doc, nil)
	require.Len(t, p.ImportItems(), 1)

	writeFile(t, dir, "page.templ", "templ Page() {}\n")
	assert.Empty(t, p.ImportItems(), "list reflects current content, never a cached one")
}

func TestRequestReparseNotifiesObserver(t *testing.T) {
	dir := t.TempDir()
	imports := writeFile(t, dir, "_Imports.templ", "")
	doc := writeFile(t, dir, "page.templ", `@import "_Imports.templ"`)

	var gotDoc string
	var gotItems []types.ImportItem
	p := NewTemplParser(doc, nil, WithReparseFunc(func(docPath string, items []types.ImportItem) {
		gotDoc = docPath
		gotItems = items
	}))

	p.RequestReparse()

	assert.Equal(t, doc, gotDoc)
	require.Len(t, gotItems, 1)
	assert.Equal(t, imports, gotItems[0].PhysicalPath)
}

func TestOpenDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "page.templ", "templ Page() {}\n")

	doc, err := OpenDocument(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path())
	assert.NotNil(t, doc.Parser())
}

func TestOpenDocumentMissingFile(t *testing.T) {
	_, err := OpenDocument(filepath.Join(t.TempDir(), "missing.templ"), nil)
	assert.Error(t, err)
}

func TestOpenDocumentDirectory(t *testing.T) {
	_, err := OpenDocument(t.TempDir(), nil)
	assert.Error(t, err)
}
