package split

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/symbolname"
	"forge.dev/emberc/internal/types"
)

func TestHashModuleDeterministic(t *testing.T) {
	mod := &mir.Module{Id: 1, Name: "pkg.List", Methods: []types.MethodId{1}}
	m := mir.NewMethod(1, 1, "push")
	methods := map[types.MethodId]*mir.Method{1: m}

	h1 := HashModule(mod, methods)
	h2 := HashModule(mod, methods)
	assert.Equal(t, h1, h2)
	assert.NotEmpty(t, h1)
}

func TestHashModuleChangesWithInstructions(t *testing.T) {
	mod := &mir.Module{Id: 1, Name: "pkg.List", Methods: []types.MethodId{1}}
	m1 := mir.NewMethod(1, 1, "push")
	before := HashModule(mod, map[types.MethodId]*mir.Method{1: m1})

	m2 := mir.NewMethod(1, 1, "push")
	m2.Blocks.Get(m2.StartId).Instructions = []mir.Instruction{{Op: mir.OpIntAdd}}
	after := HashModule(mod, map[types.MethodId]*mir.Method{1: m2})

	assert.NotEqual(t, before, after)
}

func TestCacheChangedLifecycle(t *testing.T) {
	dir := t.TempDir()
	stamp, err := NewCache(dir, 8, false, "test-version")
	require.NoError(t, err)
	require.NoError(t, stamp.WriteVersion())

	cache, err := NewCache(dir, 8, false, "test-version")
	require.NoError(t, err)

	h := Hash("deadbeef")
	assert.True(t, cache.Changed(h), "no object file yet")

	require.NoError(t, cache.Store(h, []byte{0x7f, 'E', 'L', 'F'}))
	assert.False(t, cache.Changed(h), "freshly stored object is up to date")

	require.NoError(t, os.Truncate(filepath.Join(dir, string(h)+".o"), 0))
	cache2, err := NewCache(dir, 8, false, "test-version")
	require.NoError(t, err)
	assert.True(t, cache2.Changed(h), "truncated object is treated as stale")
}

func TestSplitNamesSpecializationsDistinctly(t *testing.T) {
	base := &mir.Module{Id: 1, Name: symbolname.ModuleName("pkg")}
	specs := []Specialization{
		{Base: 10, Shapes: []types.Shape{types.ShapeInt}, Methods: []types.MethodId{1}},
		{Base: 10, Shapes: []types.Shape{types.ShapeString}, Methods: []types.MethodId{2}},
	}
	names := func(types.ClassId) string { return "List" }

	mods := Split(base, names, specs)
	require.Len(t, mods, 2)
	assert.NotEqual(t, mods[0].Name, mods[1].Name)
}
