//go:build property

package deps

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// edgeOp is a single add or remove applied to the index.
type edgeOp struct {
	Add        bool
	ImportPath string
	DocPath    string
}

func genEdgeOp() gopter.Gen {
	return gopter.CombineGens(
		gen.Bool(),
		gen.IntRange(0, 4),
		gen.IntRange(0, 6),
	).Map(func(values []interface{}) edgeOp {
		return edgeOp{
			Add:        values[0].(bool),
			ImportPath: fmt.Sprintf("/proj/_import_%d.templ", values[1].(int)),
			DocPath:    fmt.Sprintf("/proj/doc_%d.templ", values[2].(int)),
		}
	})
}

func TestIndexProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("index matches a naive model under any op sequence", prop.ForAll(
		func(ops []edgeOp) bool {
			ix := NewIndex()
			model := make(map[string]map[string]bool)

			for _, op := range ops {
				if op.Add {
					ix.AddEdge(op.ImportPath, op.DocPath)
					if model[op.ImportPath] == nil {
						model[op.ImportPath] = make(map[string]bool)
					}
					model[op.ImportPath][op.DocPath] = true
				} else {
					ix.RemoveEdge(op.ImportPath, op.DocPath)
					if set := model[op.ImportPath]; set != nil {
						delete(set, op.DocPath)
						if len(set) == 0 {
							delete(model, op.ImportPath)
						}
					}
				}
			}

			// An entry exists iff it has at least one occupant.
			if ix.Len() != len(model) {
				return false
			}
			for importPath, set := range model {
				dependents := ix.DependentsOf(importPath)
				if len(dependents) != len(set) {
					return false
				}
				for _, doc := range dependents {
					if !set[doc] {
						return false
					}
				}
			}

			return true
		},
		gen.SliceOf(genEdgeOp()),
	))

	properties.Property("creation and emptiness signals pair up", prop.ForAll(
		func(ops []edgeOp) bool {
			ix := NewIndex()
			created, emptied := 0, 0

			for _, op := range ops {
				if op.Add {
					if ix.AddEdge(op.ImportPath, op.DocPath) {
						created++
					}
				} else {
					if ix.RemoveEdge(op.ImportPath, op.DocPath) {
						emptied++
					}
				}
			}

			// Every emptied entry was created first; whatever remains
			// accounts for the difference exactly.
			return created-emptied == ix.Len()
		},
		gen.SliceOf(genEdgeOp()),
	))

	properties.TestingRun(t)
}
