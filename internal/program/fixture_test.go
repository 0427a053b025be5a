package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoProducesOneCheckableUnit(t *testing.T) {
	prog := Demo()
	require.Len(t, prog.Units, 1)
	require.Len(t, prog.ModuleIDs, 1)

	unit := prog.Units[1]
	require.NotNil(t, unit)
	assert.NotNil(t, unit.Decl)
	assert.NotNil(t, unit.Body)
	assert.NotNil(t, unit.Body.Body)

	require.NotNil(t, prog.Entry)
	assert.Equal(t, "main", prog.Entry.EntrySymbol)
	assert.Equal(t, prog.Entry.MainModule, unit.Decl.Module)
}

func TestDemoClassesBelongToTheSameModule(t *testing.T) {
	prog := Demo()
	mod := prog.ModuleIDs[0]
	classes := prog.DB.ClassesIn(mod)
	assert.Len(t, classes, 2)
}
