package consteval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge.dev/emberc/internal/diagnostics"
	"forge.dev/emberc/internal/hir"
	"forge.dev/emberc/internal/types"
)

func intLit(v int64) *hir.Expr { return &hir.Expr{Kind: hir.ExprIntLiteral, IntValue: v} }

func ref(id types.ConstantId) *hir.Expr { return &hir.Expr{Kind: hir.ExprConstantRef, Constant: id} }

func bin(op hir.BinOp, l, r *hir.Expr) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprBinary, Op: op, Left: l, Right: r}
}

func TestLiteralPass(t *testing.T) {
	defs := []*hir.ConstantDef{
		{Id: 1, Init: intLit(5)},
		{Id: 2, Init: &hir.Expr{Kind: hir.ExprStringLiteral, StringValue: "hi"}},
	}
	sink := diagnostics.NewSink()
	table := New(defs, nil, sink).Run()

	require.False(t, sink.HasErrors())
	assert.Equal(t, Int(5), table[1])
	assert.Equal(t, String("hi"), table[2])
}

func TestReferencePassResolvesInDependencyOrder(t *testing.T) {
	// C = B + 1, B = A + 1, A = 1 — declared out of order on purpose to
	// exercise the work-queue fixed point.
	defs := []*hir.ConstantDef{
		{Id: 3, Init: bin(hir.OpAdd, ref(2), intLit(1))},
		{Id: 2, Init: bin(hir.OpAdd, ref(1), intLit(1))},
		{Id: 1, Init: intLit(1)},
	}
	sink := diagnostics.NewSink()
	table := New(defs, nil, sink).Run()

	require.False(t, sink.HasErrors())
	assert.Equal(t, Int(1), table[1])
	assert.Equal(t, Int(2), table[2])
	assert.Equal(t, Int(3), table[3])
}

func TestCircularDependencyReported(t *testing.T) {
	defs := []*hir.ConstantDef{
		{Id: 1, Init: ref(2)},
		{Id: 2, Init: ref(1)},
	}
	sink := diagnostics.NewSink()
	names := map[types.ConstantId]string{1: "A", 2: "B"}
	New(defs, names, sink).Run()

	require.True(t, sink.HasErrors())
	assert.Len(t, sink.Errors(), 2)
	for _, d := range sink.Errors() {
		assert.Equal(t, diagnostics.KindUnresolvedConstant, d.Kind)
	}
}

func TestEuclideanModulo(t *testing.T) {
	v, err := intBinOp(hir.OpMod, -1, 3)
	require.NoError(t, err)
	assert.Equal(t, Int(2), v)
}

func TestIntOverflowFails(t *testing.T) {
	sink := diagnostics.NewSink()
	defs := []*hir.ConstantDef{
		{Id: 1, Init: bin(hir.OpAdd, intLit(9223372036854775807), intLit(1))},
	}
	New(defs, nil, sink).Run()
	require.True(t, sink.HasErrors())
	assert.Equal(t, diagnostics.KindInvalidConstExpr, sink.Errors()[0].Kind)
}

func TestArrayLiteralDoesNotSupportOperators(t *testing.T) {
	sink := diagnostics.NewSink()
	arr := &hir.Expr{Kind: hir.ExprArrayLiteral, Elements: []*hir.Expr{intLit(1)}}
	defs := []*hir.ConstantDef{
		{Id: 1, Init: bin(hir.OpAdd, arr, arr)},
	}
	New(defs, nil, sink).Run()
	require.True(t, sink.HasErrors())
	assert.Equal(t, diagnostics.KindInvalidConstExpr, sink.Errors()[0].Kind)
}
