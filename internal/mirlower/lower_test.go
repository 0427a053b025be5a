package mirlower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge.dev/emberc/internal/hir"
	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/types"
)

type fakeDB struct{ types.Database }

func (fakeDB) Method(id types.MethodId) *types.Method { return nil }
func (fakeDB) Class(id types.ClassId) *types.Class     { return nil }

func declMethod(id types.MethodId, ret types.TypeRef) *types.Method {
	return &types.Method{Id: id, Name: "example", Return: ret}
}

func TestLowerMethodNilBodyReturnsNil(t *testing.T) {
	decl := declMethod(1, types.Never)
	m := LowerMethod(fakeDB{}, decl, nil, nil)

	start := m.Blocks.Get(m.StartId)
	term, ok := start.Terminator()
	require.True(t, ok)
	assert.Equal(t, mir.OpReturn, term.Op)
}

func TestLowerArithmeticExpression(t *testing.T) {
	body := &hir.Method{Body: &hir.Expr{
		Kind: hir.ExprBinary,
		Op:   hir.OpAdd,
		Left: &hir.Expr{Kind: hir.ExprIntLiteral, IntValue: 1},
		Right: &hir.Expr{Kind: hir.ExprIntLiteral, IntValue: 2},
	}}
	decl := declMethod(1, types.Unknown)
	m := LowerMethod(fakeDB{}, decl, nil, body)

	var sawAdd bool
	m.Walk(func(b *mir.Block, i int, ins *mir.Instruction) {
		if ins.Op == mir.OpIntAdd {
			sawAdd = true
		}
	})
	assert.True(t, sawAdd)
}

func TestLowerIfProducesThreeBlocks(t *testing.T) {
	body := &hir.Method{Body: &hir.Expr{
		Kind:      hir.ExprIf,
		Condition: &hir.Expr{Kind: hir.ExprBoolLiteral, BoolValue: true},
		Then:      &hir.Expr{Kind: hir.ExprIntLiteral, IntValue: 1},
		Else:      &hir.Expr{Kind: hir.ExprIntLiteral, IntValue: 2},
	}}
	decl := declMethod(1, types.Unknown)
	m := LowerMethod(fakeDB{}, decl, nil, body)

	// start, then, else, join == 4 blocks at minimum.
	assert.GreaterOrEqual(t, m.Blocks.Len(), 4)
}

func TestLowerLoopWithBreak(t *testing.T) {
	body := &hir.Method{Body: &hir.Expr{
		Kind: hir.ExprLoop,
		Body: &hir.Expr{Kind: hir.ExprBreak},
	}}
	decl := declMethod(1, types.Unknown)
	m := LowerMethod(fakeDB{}, decl, nil, body)

	var sawGoto bool
	m.Walk(func(b *mir.Block, i int, ins *mir.Instruction) {
		if ins.Op == mir.OpGoto {
			sawGoto = true
		}
	})
	assert.True(t, sawGoto)
}

func TestMatchCompilesToCascadingTests(t *testing.T) {
	body := &hir.Method{Body: &hir.Expr{
		Kind:      hir.ExprMatch,
		Condition: &hir.Expr{Kind: hir.ExprIntLiteral, IntValue: 1, Type: types.Never},
		Cases: []hir.MatchCase{
			{Pattern: &hir.Pattern{Kind: hir.PatternInt, IntVal: 1}, Body: &hir.Expr{Kind: hir.ExprIntLiteral, IntValue: 10}},
			{Pattern: &hir.Pattern{Kind: hir.PatternWildcard}, Body: &hir.Expr{Kind: hir.ExprIntLiteral, IntValue: 20}},
		},
	}}
	decl := declMethod(1, types.Unknown)
	m := LowerMethod(fakeDB{}, decl, nil, body)

	var sawEq, sawTrap bool
	m.Walk(func(b *mir.Block, i int, ins *mir.Instruction) {
		if ins.Op == mir.OpIntEq {
			sawEq = true
		}
		if ins.Op == mir.OpFinish && ins.Control.Finish == mir.FinishTerminate {
			sawTrap = true
		}
	})
	assert.True(t, sawEq)
	assert.True(t, sawTrap)
}
