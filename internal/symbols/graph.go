// Package symbols implements C7: the dependency graph between modules that
// drives incremental rebuilds, and the per-class methods table consumed by
// C6's dispatch. Symbol naming itself lives in internal/symbolname, shared
// with internal/types to avoid an import cycle.
package symbols

import "forge.dev/emberc/internal/types"

// Graph is a module dependency graph: forward edges point from a module to
// the modules it imports/calls into, reverse edges are the transpose, kept
// alongside for O(1) upward propagation (spec.md §4.5 "dependency graph
// propagation").
type Graph struct {
	forward map[types.ModuleId][]types.ModuleId
	reverse map[types.ModuleId][]types.ModuleId
	changed map[types.ModuleId]bool
}

// NewGraph returns an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{
		forward: make(map[types.ModuleId][]types.ModuleId),
		reverse: make(map[types.ModuleId][]types.ModuleId),
		changed: make(map[types.ModuleId]bool),
	}
}

// AddDependency records that `from` depends on `to` (from calls into, or
// otherwise requires the ABI of, a symbol defined in to).
func (g *Graph) AddDependency(from, to types.ModuleId) {
	if from == to {
		return
	}
	if !contains(g.forward[from], to) {
		g.forward[from] = append(g.forward[from], to)
	}
	if !contains(g.reverse[to], from) {
		g.reverse[to] = append(g.reverse[to], from)
	}
}

func contains(ids []types.ModuleId, target types.ModuleId) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

// Dependencies returns the modules m directly depends on.
func (g *Graph) Dependencies(m types.ModuleId) []types.ModuleId { return g.forward[m] }

// Dependents returns the modules that directly depend on m.
func (g *Graph) Dependents(m types.ModuleId) []types.ModuleId { return g.reverse[m] }

// MarkChanged flags m and transitively propagates the mark to every module
// that (directly or indirectly) depends on it, using a worklist so a
// diamond dependency is only visited once (spec.md §4.5: a changed module
// forces recompilation of everything that could observe its new ABI).
func (g *Graph) MarkChanged(m types.ModuleId) {
	if g.changed[m] {
		return
	}
	queue := []types.ModuleId{m}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if g.changed[cur] {
			continue
		}
		g.changed[cur] = true
		queue = append(queue, g.reverse[cur]...)
	}
}

// Changed reports whether m was marked, directly or transitively.
func (g *Graph) Changed(m types.ModuleId) bool { return g.changed[m] }

// ChangedSet returns every module currently marked as changed.
func (g *Graph) ChangedSet() []types.ModuleId {
	out := make([]types.ModuleId, 0, len(g.changed))
	for m, ok := range g.changed {
		if ok {
			out = append(out, m)
		}
	}
	return out
}
