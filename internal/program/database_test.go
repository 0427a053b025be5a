package program

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge.dev/emberc/internal/types"
)

func TestDatabaseLookupsByID(t *testing.T) {
	db := NewDatabase()
	class := &types.Class{Id: 1, Name: "Widget", Module: 1}
	db.AddClass(class)
	db.AddMethod(&types.Method{Id: 1, Name: "run", Module: 1})
	db.AddModule(&types.Module{Id: 1, Name: "widgets"})

	assert.Equal(t, class, db.Class(1))
	assert.Equal(t, "run", db.Method(1).Name)
	assert.Equal(t, types.ModuleId(1), db.Module(1).Id)
	assert.Nil(t, db.Class(99))
}

func TestClassesConstantsMethodsInAreSortedAndScoped(t *testing.T) {
	db := NewDatabase()
	db.AddClass(&types.Class{Id: 3, Module: 1})
	db.AddClass(&types.Class{Id: 1, Module: 1})
	db.AddClass(&types.Class{Id: 2, Module: 2})
	db.AddConstant(&types.Constant{Id: 5, Module: 1})
	db.AddMethod(&types.Method{Id: 7, Module: 1})

	assert.Equal(t, []types.ClassId{1, 3}, db.ClassesIn(1))
	assert.Equal(t, []types.ClassId{2}, db.ClassesIn(2))
	assert.Equal(t, []types.ConstantId{5}, db.ConstantsIn(1))
	assert.Equal(t, []types.MethodId{7}, db.MethodsIn(1))
	assert.Empty(t, db.MethodsIn(2))
}

func TestIntrinsicLookup(t *testing.T) {
	db := NewDatabase()
	db.AddIntrinsic("IntAdd", 42)

	id, ok := db.Intrinsic("IntAdd")
	assert.True(t, ok)
	assert.Equal(t, types.MethodId(42), id)

	_, ok = db.Intrinsic("missing")
	assert.False(t, ok)
}
