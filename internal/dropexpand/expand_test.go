package dropexpand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/types"
)

type stubDB struct {
	types.Database
	classes map[types.ClassId]*types.Class
}

func (d stubDB) Class(id types.ClassId) *types.Class { return d.classes[id] }

func classType(id types.ClassId) types.TypeRef {
	return types.Owned(types.TypeId{Entity: types.EntityClass, Class: id})
}

func TestExpandValueDropErasesInstruction(t *testing.T) {
	db := stubDB{classes: map[types.ClassId]*types.Class{1: {Id: 1, Kind: types.ClassValue}}}
	m := mir.NewMethod(1, 1, "m")
	reg := m.Registers.New(classType(1), mir.RegRegular)
	start := m.Blocks.Get(m.StartId)
	start.Instructions = []mir.Instruction{
		{Op: mir.OpDrop, Type: classType(1), Un: mir.UnOp{Src: reg}},
		{Op: mir.OpReturn},
	}

	Run(m, db)

	var ops []mir.Op
	m.Walk(func(b *mir.Block, i int, ins *mir.Instruction) { ops = append(ops, ins.Op) })
	for _, op := range ops {
		assert.NotEqual(t, mir.OpDrop, op)
	}
}

func TestExpandRegularDropBranchesOnRefcount(t *testing.T) {
	db := stubDB{classes: map[types.ClassId]*types.Class{1: {Id: 1, Kind: types.ClassRegular, HasDropper: true, DropperId: 9}}}
	m := mir.NewMethod(1, 1, "m")
	reg := m.Registers.New(classType(1), mir.RegRegular)
	start := m.Blocks.Get(m.StartId)
	start.Instructions = []mir.Instruction{
		{Op: mir.OpDrop, Type: classType(1), Un: mir.UnOp{Src: reg}},
		{Op: mir.OpReturn},
	}

	Run(m, db)

	var sawCheckRefs, sawFree, sawDropper bool
	m.Walk(func(b *mir.Block, i int, ins *mir.Instruction) {
		switch ins.Op {
		case mir.OpCheckRefs:
			sawCheckRefs = true
		case mir.OpFree:
			sawFree = true
		case mir.OpCallDropper:
			sawDropper = true
		}
	})
	assert.True(t, sawCheckRefs)
	assert.True(t, sawFree)
	assert.True(t, sawDropper)
	require.Greater(t, m.Blocks.Len(), 1)
}

func TestExpandAsyncDropSendsMessage(t *testing.T) {
	db := stubDB{classes: map[types.ClassId]*types.Class{1: {Id: 1, Kind: types.ClassAsync, DropperId: 3}}}
	m := mir.NewMethod(1, 1, "m")
	reg := m.Registers.New(classType(1), mir.RegRegular)
	start := m.Blocks.Get(m.StartId)
	start.Instructions = []mir.Instruction{
		{Op: mir.OpDrop, Type: classType(1), Un: mir.UnOp{Src: reg}},
		{Op: mir.OpReturn},
	}

	Run(m, db)

	var sawSend bool
	m.Walk(func(b *mir.Block, i int, ins *mir.Instruction) {
		if ins.Op == mir.OpSend {
			sawSend = true
			assert.Equal(t, types.MethodId(3), ins.Send.Method)
		}
	})
	assert.True(t, sawSend)
}

func TestExpandUnresolvedTypeEmitsSwitchKind(t *testing.T) {
	db := stubDB{classes: map[types.ClassId]*types.Class{}}
	m := mir.NewMethod(1, 1, "m")
	paramType := types.RigidParam(types.KindOwned, 7)
	reg := m.Registers.New(paramType, mir.RegRegular)
	start := m.Blocks.Get(m.StartId)
	start.Instructions = []mir.Instruction{
		{Op: mir.OpDrop, Type: paramType, Un: mir.UnOp{Src: reg}},
		{Op: mir.OpReturn},
	}

	Run(m, db)

	var sawSwitch bool
	m.Walk(func(b *mir.Block, i int, ins *mir.Instruction) {
		if ins.Op == mir.OpSwitchKind {
			sawSwitch = true
			assert.Len(t, ins.Control.Targets, 6)
		}
	})
	assert.True(t, sawSwitch)
}
