package consteval

import (
	"fmt"
	"math"

	"forge.dev/emberc/internal/diagnostics"
	"forge.dev/emberc/internal/hir"
	"forge.dev/emberc/internal/types"
)

// Evaluator runs the two constant-evaluation passes described in spec.md
// §4.1 over a set of top-level HIR constant definitions.
type Evaluator struct {
	defs  map[types.ConstantId]*hir.ConstantDef
	names map[types.ConstantId]string
	sink  *diagnostics.Sink
	table Table
}

func New(defs []*hir.ConstantDef, names map[types.ConstantId]string, sink *diagnostics.Sink) *Evaluator {
	m := make(map[types.ConstantId]*hir.ConstantDef, len(defs))
	for _, d := range defs {
		m[d.Id] = d
	}
	return &Evaluator{defs: m, names: names, sink: sink, table: make(Table)}
}

// Run executes the literal pass followed by the binary/reference pass,
// returning the resolved ConstantId → ConstantValue table.
func (e *Evaluator) Run() Table {
	e.literalPass()
	e.referencePass()
	return e.table
}

// literalPass assigns values for integer, float and string literal
// constants (spec.md §4.1 pass 1).
func (e *Evaluator) literalPass() {
	for id, def := range e.defs {
		if def.Init == nil {
			continue
		}
		switch def.Init.Kind {
		case hir.ExprIntLiteral:
			e.table[id] = Int(def.Init.IntValue)
		case hir.ExprFloatLiteral:
			e.table[id] = Float(def.Init.FloatValue)
		case hir.ExprStringLiteral:
			e.table[id] = String(def.Init.StringValue)
		}
	}
}

// referencePass evaluates binary operators and ConstantRefs over a work
// queue: each iteration tries every remaining constant; those whose
// dependencies are unresolved stay queued. A pass that resolves nothing
// means a circular dependency (spec.md §4.1 pass 2).
func (e *Evaluator) referencePass() {
	pending := make([]types.ConstantId, 0, len(e.defs))
	for id := range e.defs {
		if _, done := e.table[id]; !done {
			pending = append(pending, id)
		}
	}

	for len(pending) > 0 {
		next := pending[:0]
		progressed := false

		for _, id := range pending {
			if v, ok := e.tryEval(e.defs[id].Init); ok {
				e.table[id] = v
				progressed = true
			} else {
				next = append(next, id)
			}
		}

		pending = next

		if !progressed {
			for _, id := range pending {
				e.sink.Error(diagnostics.KindUnresolvedConstant, "", 0, 0,
					"type of constant %q can't be inferred", e.nameOf(id))
			}
			return
		}
	}
}

func (e *Evaluator) nameOf(id types.ConstantId) string {
	if n, ok := e.names[id]; ok {
		return n
	}
	return fmt.Sprintf("#%d", id)
}

// tryEval attempts to evaluate expr given the constants resolved so far.
// It returns ok=false (without reporting an error) when expr depends on a
// constant not yet in the table, so the caller can requeue it.
func (e *Evaluator) tryEval(expr *hir.Expr) (Value, bool) {
	switch expr.Kind {
	case hir.ExprIntLiteral:
		return Int(expr.IntValue), true
	case hir.ExprFloatLiteral:
		return Float(expr.FloatValue), true
	case hir.ExprStringLiteral:
		return String(expr.StringValue), true
	case hir.ExprArrayLiteral:
		vals := make([]Value, 0, len(expr.Elements))
		for _, el := range expr.Elements {
			v, ok := e.tryEval(el)
			if !ok {
				return Value{}, false
			}
			vals = append(vals, v)
		}
		return Array(vals), true
	case hir.ExprConstantRef:
		if v, ok := e.table[expr.Constant]; ok {
			return v, true
		}
		return Value{}, false
	case hir.ExprBinary:
		lhs, ok := e.tryEval(expr.Left)
		if !ok {
			return Value{}, false
		}
		rhs, ok := e.tryEval(expr.Right)
		if !ok {
			return Value{}, false
		}
		v, err := binaryOp(expr.Op, lhs, rhs)
		if err != nil {
			e.sink.Error(diagnostics.KindInvalidConstExpr, "", 0, 0, "%s", err)
			return Value{}, true
		}
		return v, true
	default:
		e.sink.Error(diagnostics.KindInvalidConstExpr, "", 0, 0,
			"expression is not a valid constant expression")
		return Value{}, true
	}
}

// binaryOp implements the supported-operator table of spec.md §4.1:
// Int: add/sub/mul/div/mod/shl/shr/ushr/and/or/xor/pow (overflow fails).
// Float: add/sub/mul/div/mod/pow (never fails).
// String: concatenation only. Arrays: no operators.
func binaryOp(op hir.BinOp, lhs, rhs Value) (Value, error) {
	switch {
	case lhs.Kind == ValueInt && rhs.Kind == ValueInt:
		return intBinOp(op, lhs.Int, rhs.Int)
	case lhs.Kind == ValueFloat && rhs.Kind == ValueFloat:
		return floatBinOp(op, lhs.Float, rhs.Float)
	case lhs.Kind == ValueString && rhs.Kind == ValueString:
		if op != hir.OpConcat {
			return Value{}, fmt.Errorf("strings only support concatenation")
		}
		return String(lhs.String + rhs.String), nil
	default:
		return Value{}, fmt.Errorf("invalid constant expression: incompatible operand kinds")
	}
}

func intBinOp(op hir.BinOp, a, b int64) (Value, error) {
	switch op {
	case hir.OpAdd:
		r := a + b
		if overflowsAdd(a, b, r) {
			return Value{}, fmt.Errorf("integer overflow in constant addition")
		}
		return Int(r), nil
	case hir.OpSub:
		r := a - b
		if overflowsSub(a, b, r) {
			return Value{}, fmt.Errorf("integer overflow in constant subtraction")
		}
		return Int(r), nil
	case hir.OpMul:
		r := a * b
		if (a != 0 && r/a != b) || (a == -1 && b == math.MinInt64) {
			return Value{}, fmt.Errorf("integer overflow in constant multiplication")
		}
		return Int(r), nil
	case hir.OpDiv:
		if b == 0 {
			return Value{}, fmt.Errorf("division by zero in constant expression")
		}
		if a == math.MinInt64 && b == -1 {
			return Value{}, fmt.Errorf("integer overflow in constant division")
		}
		return Int(a / b), nil
	case hir.OpMod:
		if b == 0 {
			return Value{}, fmt.Errorf("modulo by zero in constant expression")
		}
		// Euclidean semantics: ((a % b) + b) % b.
		return Int(((a % b) + b) % b), nil
	case hir.OpShl:
		if b < 0 || b >= 64 {
			return Value{}, fmt.Errorf("shift overflow in constant expression")
		}
		return Int(a << uint(b)), nil
	case hir.OpShr:
		if b < 0 || b >= 64 {
			return Value{}, fmt.Errorf("shift overflow in constant expression")
		}
		return Int(a >> uint(b)), nil
	case hir.OpUshr:
		if b < 0 || b >= 64 {
			return Value{}, fmt.Errorf("shift overflow in constant expression")
		}
		return Int(int64(uint64(a) >> uint(b))), nil
	case hir.OpBitAnd:
		return Int(a & b), nil
	case hir.OpBitOr:
		return Int(a | b), nil
	case hir.OpBitXor:
		return Int(a ^ b), nil
	case hir.OpPow:
		r, overflow := intPow(a, b)
		if overflow {
			return Value{}, fmt.Errorf("integer overflow in constant exponentiation")
		}
		return Int(r), nil
	default:
		return Value{}, fmt.Errorf("operator not supported for Int constants")
	}
}

func floatBinOp(op hir.BinOp, a, b float64) (Value, error) {
	switch op {
	case hir.OpAdd:
		return Float(a + b), nil
	case hir.OpSub:
		return Float(a - b), nil
	case hir.OpMul:
		return Float(a * b), nil
	case hir.OpDiv:
		return Float(a / b), nil
	case hir.OpMod:
		// (((lhs % rhs) + rhs) % rhs) rewrite; assumes rhs > 0 for
		// Euclidean behavior (Open Question, see DESIGN.md).
		m := math.Mod(a, b)
		return Float(math.Mod(m+b, b)), nil
	case hir.OpPow:
		return Float(math.Pow(a, b)), nil
	default:
		return Value{}, fmt.Errorf("operator not supported for Float constants")
	}
}

func overflowsAdd(a, b, r int64) bool {
	return (b > 0 && r < a) || (b < 0 && r > a)
}

func overflowsSub(a, b, r int64) bool {
	return (b < 0 && r < a) || (b > 0 && r > a)
}

func intPow(base, exp int64) (int64, bool) {
	if exp < 0 {
		return 0, true
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		next := result * base
		if base != 0 && next/base != result {
			return 0, true
		}
		result = next
	}
	return result, false
}
