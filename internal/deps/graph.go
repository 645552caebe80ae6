package deps

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
)

// Snapshot materializes the current index as a directed graph with an edge
// from each dependent document to the import file it depends on. Used by the
// graph diagnostics command; the engine itself only ever needs the reverse
// lookup that DependentsOf provides.
func (ix *Index) Snapshot() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed())

	keys := make([]string, 0, len(ix.entries))
	for key := range ix.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		e := ix.entries[key]

		if err := g.AddVertex(e.path); err != nil && err != graph.ErrVertexAlreadyExists {
			return nil, fmt.Errorf("adding import vertex %s: %w", e.path, err)
		}

		docs := make([]string, 0, len(e.dependents))
		for doc := range e.dependents {
			docs = append(docs, doc)
		}
		sort.Strings(docs)

		for _, doc := range docs {
			if err := g.AddVertex(doc); err != nil && err != graph.ErrVertexAlreadyExists {
				return nil, fmt.Errorf("adding document vertex %s: %w", doc, err)
			}
			if err := g.AddEdge(doc, e.path); err != nil && err != graph.ErrEdgeAlreadyExists {
				return nil, fmt.Errorf("adding edge %s -> %s: %w", doc, e.path, err)
			}
		}
	}

	return g, nil
}

// AdjacencyList renders the snapshot as document -> sorted imports, for
// deterministic diagnostics output.
func (ix *Index) AdjacencyList() map[string][]string {
	out := make(map[string][]string)

	for _, e := range ix.entries {
		for doc := range e.dependents {
			out[doc] = append(out[doc], e.path)
		}
	}

	for doc := range out {
		sort.Strings(out[doc])
	}

	return out
}
