package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge.dev/emberc/internal/check"
	"forge.dev/emberc/internal/diagnostics"
	"forge.dev/emberc/internal/hir"
	"forge.dev/emberc/internal/program"
	"forge.dev/emberc/internal/types"
)

func TestCheckMethodAcceptsWellTypedBody(t *testing.T) {
	prog := program.Demo()
	unit := prog.Units[1]
	require.NotNil(t, unit)

	sink := diagnostics.NewSink()
	checker := check.NewChecker(prog.DB, sink, "main")
	checker.CheckMethod(unit.Decl, unit.ArgVars, unit.Body)

	assert.False(t, sink.HasErrors())
	assert.Empty(t, sink.All())
}

func TestCheckMethodReportsUseOfMovedVariable(t *testing.T) {
	db := program.NewDatabase()
	const moduleID types.ModuleId = 1
	const intClass types.ClassId = 1
	const mainClass types.ClassId = 2
	const m types.MethodId = 1
	const v types.VariableId = 1

	db.AddModule(&types.Module{Id: moduleID, Name: "main"})
	// A regular (reference-counted) class, unlike a value class, is moved
	// rather than copied on read — see isValueOrAtomic in sendability.go.
	db.AddClass(&types.Class{Id: intClass, Name: "Box", Module: moduleID, Kind: types.ClassRegular})
	db.AddClass(&types.Class{Id: mainClass, Name: "Main", Module: moduleID, Kind: types.ClassAsync})

	boxType := types.Owned(types.TypeId{Entity: types.EntityClass, Class: intClass})
	mainType := types.Owned(types.TypeId{Entity: types.EntityClass, Class: mainClass})

	db.AddVariable(&types.Variable{Id: v, Name: "x", Type: boxType})
	decl := &types.Method{Id: m, Name: "run", Module: moduleID, Kind: types.MethodMutable, Receiver: mainType, Return: boxType}
	db.AddMethod(decl)

	readX := &hir.Expr{Kind: hir.ExprVariableRef, Type: boxType, Variable: v}
	body := &hir.Expr{
		Kind: hir.ExprBlock,
		Type: boxType,
		Statements: []*hir.Expr{
			// first read moves x (it is an owned, non-Copy value); the
			// second read of the same variable is a use-after-move.
			readX,
			readX,
		},
	}

	sink := diagnostics.NewSink()
	checker := check.NewChecker(db, sink, "main")
	checker.CheckMethod(decl, []types.VariableId{v}, &hir.Method{Id: m, Receiver: mainType, Body: body})

	require.True(t, sink.HasErrors())
	errs := sink.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diagnostics.KindMovedVariable, errs[0].Kind)
}
