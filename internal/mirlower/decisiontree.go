package mirlower

import (
	"forge.dev/emberc/internal/hir"
	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/types"
)

// enumTagField is the field index every ClassEnum instance reserves for its
// variant tag (spec.md §4.4 "ENUM_TAG_INDEX field 0").
const enumTagField = types.FieldId(0)

// lowerMatch compiles a match expression into the cascading-test CFG shape
// described by spec.md §4.3.2: each case in turn tests its pattern against
// the scrutinee, falling through to the next case's test block on failure
// and to a shared join block on success.
func (l *Lowerer) lowerMatch(e *hir.Expr) mir.RegisterId {
	scrut := l.lowerExpr(e.Condition)
	scrutType := e.Condition.Type

	joinB := l.newBlock()
	result := l.newReg(e.Type)

	for i, mc := range e.Cases {
		failB := l.newBlock()

		l.matchPattern(scrut, scrutType, mc.Pattern, failB)

		if mc.Guard != nil {
			g := l.lowerExpr(mc.Guard)
			passB := l.newBlock()
			l.terminate(mir.Branch(g, passB, failB))
			l.switchTo(passB)
		}

		body := l.lowerExpr(mc.Body)
		if !l.blockTerminated() {
			l.emit(mir.Instruction{Op: mir.OpMoveRegister, Un: mir.UnOp{Dst: result, Src: body}})
			l.moved[body] = true
			l.terminate(mir.Goto(joinB))
		}

		l.switchTo(failB)

		if i == len(e.Cases)-1 {
			// checker.CheckMethod's exhaustiveness pass (spec.md §4.3.2)
			// reports KindInvalidMatch and aborts the build before this
			// method ever reaches MIR lowering when a variant is missing,
			// so reaching the last arm's failure edge here means every
			// declared pattern's test failed at runtime for a value the
			// checker already proved the match covers — unreachable in a
			// checked program. Trap rather than fall through.
			l.terminate(mir.Finish(mir.FinishTerminate))
		}
	}

	l.switchTo(joinB)
	l.declare(result, e.Type)
	return result
}

// matchPattern emits the test(s) for one pattern against a value already
// held in scrut, falling through in the (possibly new) current block on
// success and jumping to onFail on failure. Composite patterns (Tuple/
// Class/Variant) recurse field by field, combining tests by sequential
// fallthrough rather than an explicit boolean AND, mirroring how a real
// decision tree shares the failure edge across sibling tests.
func (l *Lowerer) matchPattern(scrut mir.RegisterId, scrutType types.TypeRef, p *hir.Pattern, onFail mir.BlockId) {
	if p == nil {
		return
	}

	switch p.Kind {
	case hir.PatternWildcard:
		// Always matches; no test, no binding.

	case hir.PatternBinding:
		l.bindVariable(p.Variable, scrut)

	case hir.PatternBool:
		imm := l.newReg(p.Type)
		l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Const: mir.ConstOp{Dst: imm, BoolValue: p.BoolVal}})
		l.branchOnEq(scrut, imm, onFail)

	case hir.PatternInt:
		imm := l.newReg(p.Type)
		l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Const: mir.ConstOp{Dst: imm, IntValue: p.IntVal}})
		l.branchOnTest(mir.OpIntEq, scrut, imm, onFail)

	case hir.PatternString:
		imm := l.newReg(p.Type)
		l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Const: mir.ConstOp{Dst: imm, StringValue: p.StrVal}})
		l.branchOnTest(mir.OpStringEq, scrut, imm, onFail)

	case hir.PatternTuple, hir.PatternClass:
		for i, f := range p.Fields {
			field := l.newReg(f.Type)
			l.emit(mir.Instruction{Op: mir.OpGetField, Mem: mir.MemOp{Dst: field, Src: scrut, Field: types.FieldId(i)}})
			l.matchPattern(field, f.Type, f, onFail)
		}

	case hir.PatternVariant:
		tag := l.newReg(types.Unknown)
		l.emit(mir.Instruction{Op: mir.OpGetField, Mem: mir.MemOp{Dst: tag, Src: scrut, Field: enumTagField}})
		imm := l.newReg(types.Unknown)
		l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Const: mir.ConstOp{Dst: imm, IntValue: int64(p.Variant)}})
		l.branchOnTest(mir.OpIntEq, tag, imm, onFail)

		for i, f := range p.Fields {
			field := l.newReg(f.Type)
			l.emit(mir.Instruction{Op: mir.OpGetField,
				Mem: mir.MemOp{Dst: field, Src: scrut, Field: types.FieldId(i + 1)}})
			l.matchPattern(field, f.Type, f, onFail)
		}
	}
}

func (l *Lowerer) branchOnEq(a, b mir.RegisterId, onFail mir.BlockId) {
	l.branchOnTest(mir.OpIntEq, a, b, onFail)
}

// branchOnTest emits a comparison instruction and branches away to onFail
// on failure, continuing in a fresh block on success.
func (l *Lowerer) branchOnTest(op mir.Op, a, b mir.RegisterId, onFail mir.BlockId) {
	cmp := l.newReg(types.Unknown)
	l.emit(mir.Instruction{Op: op, Bin: mir.BinOp{Dst: cmp, Lhs: a, Rhs: b}})
	pass := l.newBlock()
	l.terminate(mir.Branch(cmp, pass, onFail))
	l.switchTo(pass)
}
