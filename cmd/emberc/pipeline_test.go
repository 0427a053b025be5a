package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge.dev/emberc/internal/program"
	"forge.dev/emberc/internal/types"
)

func TestSortedMethodIDsOrdersAscending(t *testing.T) {
	units := map[types.MethodId]*program.Unit{
		3: {}, 1: {}, 2: {},
	}
	assert.Equal(t, []types.MethodId{1, 2, 3}, sortedMethodIDs(units))
}

func TestBuildModulesGroupsByModuleID(t *testing.T) {
	prog := program.Demo()
	modules := buildModules(prog.DB, prog.ModuleIDs)

	assert.Len(t, modules, 1)
	assert.Len(t, modules[0].Classes, 2)
	assert.Len(t, modules[0].Methods, 1)
	assert.Equal(t, modules[0].Name, modules[0].OriginalName)
}
