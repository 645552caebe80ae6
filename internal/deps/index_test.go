package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdgeCreatesEntryOnce(t *testing.T) {
	ix := NewIndex()

	created := ix.AddEdge("/x/_Imports.templ", "/x/page.templ")
	assert.True(t, created, "first edge for a path creates the entry")

	created = ix.AddEdge("/x/_Imports.templ", "/x/other.templ")
	assert.False(t, created, "second dependent joins the existing entry")

	assert.Equal(t, []string{"/x/other.templ", "/x/page.templ"}, ix.DependentsOf("/x/_Imports.templ"))
	assert.Equal(t, 1, ix.Len())
}

func TestAddEdgeDuplicateIsNoOp(t *testing.T) {
	ix := NewIndex()

	ix.AddEdge("/x/_Imports.templ", "/x/page.templ")
	ix.AddEdge("/x/_Imports.templ", "/x/page.templ")

	assert.Equal(t, []string{"/x/page.templ"}, ix.DependentsOf("/x/_Imports.templ"))
}

func TestImportPathsCompareCaseInsensitively(t *testing.T) {
	ix := NewIndex()

	created := ix.AddEdge("/x/_Imports.templ", "/x/a.templ")
	require.True(t, created)

	created = ix.AddEdge("/X/_IMPORTS.TEMPL", "/x/b.templ")
	assert.False(t, created, "differently-cased path is the same import file")

	assert.Equal(t, []string{"/x/a.templ", "/x/b.templ"}, ix.DependentsOf("/x/_imports.templ"))

	// Document identity stays exact: same document path with different
	// casing is a distinct dependent.
	ix.AddEdge("/x/_Imports.templ", "/x/A.templ")
	assert.Len(t, ix.DependentsOf("/x/_Imports.templ"), 3)
}

func TestRemoveEdgeReportsEmpty(t *testing.T) {
	ix := NewIndex()
	ix.AddEdge("/x/_Imports.templ", "/x/a.templ")
	ix.AddEdge("/x/_Imports.templ", "/x/b.templ")

	empty := ix.RemoveEdge("/x/_Imports.templ", "/x/a.templ")
	assert.False(t, empty)
	assert.Equal(t, []string{"/x/b.templ"}, ix.DependentsOf("/x/_Imports.templ"))

	empty = ix.RemoveEdge("/x/_Imports.templ", "/x/b.templ")
	assert.True(t, empty, "last dependent leaving empties the entry")
	assert.Nil(t, ix.DependentsOf("/x/_Imports.templ"))
	assert.Zero(t, ix.Len())
}

func TestRemoveEdgeMissingIsNoOp(t *testing.T) {
	ix := NewIndex()

	assert.False(t, ix.RemoveEdge("/x/_Imports.templ", "/x/a.templ"))

	ix.AddEdge("/x/_Imports.templ", "/x/a.templ")
	assert.False(t, ix.RemoveEdge("/x/_Imports.templ", "/x/unrelated.templ"))
	assert.Equal(t, []string{"/x/a.templ"}, ix.DependentsOf("/x/_Imports.templ"))
}

func TestDependentsOfSnapshotDoesNotAlias(t *testing.T) {
	ix := NewIndex()
	ix.AddEdge("/x/_Imports.templ", "/x/a.templ")

	snapshot := ix.DependentsOf("/x/_Imports.templ")
	ix.AddEdge("/x/_Imports.templ", "/x/b.templ")
	ix.RemoveEdge("/x/_Imports.templ", "/x/a.templ")

	assert.Equal(t, []string{"/x/a.templ"}, snapshot)
}

func TestImportPathsKeepFirstSeenCasing(t *testing.T) {
	ix := NewIndex()
	ix.AddEdge("/x/_Imports.templ", "/x/a.templ")
	ix.AddEdge("/X/_IMPORTS.TEMPL", "/x/b.templ")
	ix.AddEdge("/x/_Layout.templ", "/x/b.templ")

	assert.Equal(t, []string{"/x/_Imports.templ", "/x/_Layout.templ"}, ix.ImportPaths())
}

func TestSnapshotGraph(t *testing.T) {
	ix := NewIndex()
	ix.AddEdge("/x/_Imports.templ", "/x/a.templ")
	ix.AddEdge("/x/_Imports.templ", "/x/b.templ")
	ix.AddEdge("/x/_Layout.templ", "/x/b.templ")

	g, err := ix.Snapshot()
	require.NoError(t, err)

	adjacency, err := g.AdjacencyMap()
	require.NoError(t, err)

	assert.Contains(t, adjacency["/x/a.templ"], "/x/_Imports.templ")
	assert.Contains(t, adjacency["/x/b.templ"], "/x/_Imports.templ")
	assert.Contains(t, adjacency["/x/b.templ"], "/x/_Layout.templ")
	assert.Empty(t, adjacency["/x/_Imports.templ"], "imports have no outgoing edges")
}

func TestAdjacencyList(t *testing.T) {
	ix := NewIndex()
	ix.AddEdge("/x/_Imports.templ", "/x/b.templ")
	ix.AddEdge("/x/_Layout.templ", "/x/b.templ")

	assert.Equal(t, map[string][]string{
		"/x/b.templ": {"/x/_Imports.templ", "/x/_Layout.templ"},
	}, ix.AdjacencyList())
}
