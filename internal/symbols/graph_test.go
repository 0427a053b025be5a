package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge.dev/emberc/internal/types"
)

func TestMarkChangedPropagatesTransitively(t *testing.T) {
	g := NewGraph()
	// c depends on b depends on a.
	g.AddDependency(3, 2)
	g.AddDependency(2, 1)

	g.MarkChanged(1)

	assert.True(t, g.Changed(1))
	assert.True(t, g.Changed(2))
	assert.True(t, g.Changed(3))
}

func TestMarkChangedStopsAtUnrelatedModules(t *testing.T) {
	g := NewGraph()
	g.AddDependency(2, 1)
	g.AddDependency(4, 3)

	g.MarkChanged(1)

	assert.True(t, g.Changed(2))
	assert.False(t, g.Changed(3))
	assert.False(t, g.Changed(4))
}

func TestMarkChangedHandlesDiamondOnce(t *testing.T) {
	g := NewGraph()
	g.AddDependency(2, 1)
	g.AddDependency(3, 1)
	g.AddDependency(4, 2)
	g.AddDependency(4, 3)

	g.MarkChanged(1)

	for _, m := range []types.ModuleId{1, 2, 3, 4} {
		assert.True(t, g.Changed(m))
	}
	assert.ElementsMatch(t, []types.ModuleId{1, 2, 3, 4}, g.ChangedSet())
}
