package program

import (
	"forge.dev/emberc/internal/hir"
	"forge.dev/emberc/internal/symbolname"
	"forge.dev/emberc/internal/types"
)

// Demo builds the smallest program that exercises every pipeline stage end
// to end: one process class with a single async start method that adds two
// integer literals and returns the result. It stands in for the external
// front end's output (spec.md §1 names parsing as out of scope) so the
// driver and its tests have something concrete to run C1-C7 against.
func Demo() *Program {
	const (
		moduleID types.ModuleId = 1
		intClass types.ClassId  = 1
		mainClass types.ClassId = 2
		startMethod types.MethodId = 1
	)

	db := NewDatabase()
	db.AddModule(&types.Module{Id: moduleID, Name: symbolname.ModuleName("main"), File: "main.mod"})

	db.AddClass(&types.Class{
		Id:     intClass,
		Name:   "Int",
		Module: moduleID,
		Kind:   types.ClassValue,
	})

	intType := types.Owned(types.TypeId{Entity: types.EntityClass, Class: intClass})
	mainType := types.Owned(types.TypeId{Entity: types.EntityClass, Class: mainClass})

	db.AddClass(&types.Class{
		Id:      mainClass,
		Name:    "Main",
		Module:  moduleID,
		Kind:    types.ClassAsync,
		Methods: []types.MethodId{startMethod},
	})

	db.AddMethod(&types.Method{
		Id:       startMethod,
		Name:     "start",
		Module:   moduleID,
		Kind:     types.MethodMutable,
		Receiver: mainType,
		Return:   intType,
		IsAsync:  true,
	})

	addExpr := &hir.Expr{
		Kind: hir.ExprBinary,
		Type: intType,
		Op:   hir.OpAdd,
		Left: &hir.Expr{Kind: hir.ExprIntLiteral, Type: intType, IntValue: 1},
		Right: &hir.Expr{Kind: hir.ExprIntLiteral, Type: intType, IntValue: 2},
	}

	prog := &Program{
		DB:        db,
		ModuleIDs: []types.ModuleId{moduleID},
		Units: map[types.MethodId]*Unit{
			startMethod: {
				Decl: db.Method(startMethod),
				Body: &hir.Method{Id: startMethod, Receiver: mainType, Body: addExpr},
			},
		},
		Entry: &EntryConfig{
			MainModule:  moduleID,
			MainClass:   mainClass,
			StartMethod: startMethod,
			EntrySymbol: "main",
		},
	}
	return prog
}
