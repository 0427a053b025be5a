// Package mirlower implements C3: it lowers one typed HIR method body into
// a MIR method's register-based control-flow graph (spec.md §4.3), including
// if/else, loops, return/throw, try (lowered to its inner value), assignment,
// moving method-call receivers, and drop-flag emission for
// conditionally-dropped values. There is no short-circuit lowering: hir.BinOp
// has no `and`/`or` operator. Pattern-matching compilation lives alongside
// in decisiontree.go (spec.md §4.3.2).
package mirlower

import (
	"forge.dev/emberc/internal/hir"
	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/types"
)

// lexScope is one entry of the ownership scope stack: every register
// created while the scope is open, in declaration order, so scope exit can
// drop them back to front (spec.md §4.3.1).
type lexScope struct {
	entries []scopeEntry
}

type scopeEntry struct {
	reg mir.RegisterId
	typ types.TypeRef
}

// Lowerer holds the state threaded through lowering of one method body.
type Lowerer struct {
	db types.Database

	method  *mir.Method
	current mir.BlockId

	vars    map[types.VariableId]mir.RegisterId
	selfReg *mir.RegisterId

	// breakTargets/nextTargets are the block to jump to for `break`/`next`
	// in the innermost enclosing loop, pushed/popped around ExprLoop.
	// loopScopeBase records len(scopes) at the matching loop's entry, so a
	// break/next knows how many scopes it is unwinding through.
	breakTargets  []mir.BlockId
	nextTargets   []mir.BlockId
	loopScopeBase []int

	// scopes is the live ownership-scope stack; moved tracks registers
	// already known (statically, on every path reaching the check) to have
	// been moved away, so they're skipped at scope exit instead of
	// re-dropped. dropFlags mirrors mir.Method.DropFlags as it is built.
	scopes    []*lexScope
	moved     map[mir.RegisterId]bool
	dropFlags mir.DropFlags
}

// LowerMethod lowers body into a fresh mir.Method for decl. A nil body
// (extern/abstract method) produces a method with a single block that
// returns Nil, matching spec.md §8.
func LowerMethod(db types.Database, decl *types.Method, argVars []types.VariableId, body *hir.Method) *mir.Method {
	m := mir.NewMethod(decl.Id, decl.Module, decl.Name)
	m.IsAsync = decl.IsAsync

	l := &Lowerer{
		db:        db,
		method:    m,
		current:   m.StartId,
		vars:      make(map[types.VariableId]mir.RegisterId),
		moved:     make(map[mir.RegisterId]bool),
		dropFlags: make(mir.DropFlags),
	}
	l.pushScope()

	for i, v := range argVars {
		var t types.TypeRef
		if i < len(decl.Args) {
			t = decl.Args[i].Type
		}
		reg := m.Registers.New(t, mir.RegVariable)
		m.Registers.Get(reg).Variable = v
		m.Arguments = append(m.Arguments, reg)
		l.vars[v] = reg
		l.declare(reg, t)
	}

	if body == nil || body.Body == nil {
		nilReg := l.newReg(types.Unknown)
		l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Const: mir.ConstOp{Dst: nilReg}})
		l.terminate(mir.Return(nilReg))
		m.DropFlags = l.dropFlags
		return m
	}

	result := l.lowerExpr(body.Body)
	if !l.blockTerminated() {
		l.returnOrFinish(result)
	}
	m.DropFlags = l.dropFlags
	return m
}

func (l *Lowerer) block() *mir.Block { return l.method.Blocks.Get(l.current) }

func (l *Lowerer) blockTerminated() bool {
	_, ok := l.block().Terminator()
	return ok
}

func (l *Lowerer) emit(ins mir.Instruction) {
	if l.blockTerminated() {
		return
	}
	b := l.block()
	b.Instructions = append(b.Instructions, ins)
}

// terminate emits ins (a terminator) and links the CFG edges named by its
// Targets, unless the current block already has a terminator (dead code
// past an earlier return/throw/break).
func (l *Lowerer) terminate(ins mir.Instruction) {
	if l.blockTerminated() {
		return
	}
	l.emit(ins)
	for _, t := range ins.Control.Targets {
		l.method.Blocks.Link(l.current, t)
	}
	if ins.Control.Fallback != nil {
		l.method.Blocks.Link(l.current, *ins.Control.Fallback)
	}
}

func (l *Lowerer) newBlock() mir.BlockId { return l.method.Blocks.New() }

func (l *Lowerer) switchTo(b mir.BlockId) { l.current = b }

func (l *Lowerer) newReg(t types.TypeRef) mir.RegisterId {
	return l.method.Registers.New(t, mir.RegRegular)
}

func (l *Lowerer) regType(reg mir.RegisterId) types.TypeRef {
	return l.method.Registers.Get(reg).Type
}

// --- ownership scope stack (spec.md §4.3.1) ---

func (l *Lowerer) pushScope() *lexScope {
	s := &lexScope{}
	l.scopes = append(l.scopes, s)
	return s
}

func (l *Lowerer) popScope() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

// isDroppable reports whether a value of type t ever needs a Drop: borrowed
// kinds (ref/mut/pointer/any) never own their referent, and value/extern
// classes are bitwise-copied and never refcounted (spec.md §4.4). A class
// that can't be resolved is treated as droppable so the abstract Drop this
// emits still reaches C4's runtime SwitchKind fallback.
func isDroppable(db types.Database, t types.TypeRef) bool {
	if t.Kind != types.KindOwned && t.Kind != types.KindUni {
		return false
	}
	if t.Id.Entity != types.EntityClass {
		return true
	}
	cls := db.Class(t.Id.Class)
	if cls == nil {
		return true
	}
	return !cls.IsValueType()
}

// needsDropFlag reports whether a register of type t may be moved
// conditionally and so needs a runtime drop flag rather than an
// unconditional Drop at scope exit: spec.md §4.3.1 restricts flags to
// types that are droppable, not value types, and not plain refcount types
// (regular/atomic classes are dropped unconditionally when still live;
// enum/process/closure instances are the ones whose liveness depends on
// which arm of a conditional actually ran).
func needsDropFlag(db types.Database, t types.TypeRef) bool {
	if !isDroppable(db, t) {
		return false
	}
	if t.Id.Entity != types.EntityClass {
		return true
	}
	cls := db.Class(t.Id.Class)
	if cls == nil {
		return true
	}
	switch cls.Kind {
	case types.ClassEnum, types.ClassAsync, types.ClassClosure:
		return true
	default:
		return false
	}
}

// declare records reg as created in the innermost open scope, so it is
// dropped at that scope's exit unless moved first. Non-droppable registers
// (borrows, value types) are not tracked at all.
func (l *Lowerer) declare(reg mir.RegisterId, t types.TypeRef) {
	if reg == 0 || len(l.scopes) == 0 || !isDroppable(l.db, t) {
		return
	}
	s := l.scopes[len(l.scopes)-1]
	s.entries = append(s.entries, scopeEntry{reg: reg, typ: t})
	if needsDropFlag(l.db, t) {
		l.declareFlag(reg)
	}
}

// declareFlag allocates a boolean drop flag for reg, initialized true at
// the point of declaration; clearFlag sets it false at every move.
func (l *Lowerer) declareFlag(reg mir.RegisterId) {
	flag := l.newReg(types.Unknown)
	l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Const: mir.ConstOp{Dst: flag, BoolValue: true}})
	l.dropFlags[reg] = flag
}

// clearFlag marks reg as moved: its drop flag (if any) is set false so a
// later scope-exit Drop sees it is no longer owned here, and the register
// is marked statically moved so straight-line drops can skip it outright.
func (l *Lowerer) clearFlag(reg mir.RegisterId) {
	l.moved[reg] = true
	if flag, ok := l.dropFlags[reg]; ok {
		l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Const: mir.ConstOp{Dst: flag, BoolValue: false}})
	}
}

// dropRegister emits the abstract Drop for reg, guarded by its runtime
// drop flag when it has one.
func (l *Lowerer) dropRegister(reg mir.RegisterId, t types.TypeRef) {
	flag, hasFlag := l.dropFlags[reg]
	if !hasFlag {
		l.emit(mir.Instruction{Op: mir.OpDrop, Type: t, Un: mir.UnOp{Src: reg}})
		return
	}

	thenB := l.newBlock()
	joinB := l.newBlock()
	l.terminate(mir.Branch(flag, thenB, joinB))

	l.switchTo(thenB)
	l.emit(mir.Instruction{Op: mir.OpDrop, Type: t, Un: mir.UnOp{Src: reg}})
	l.terminate(mir.Goto(joinB))

	l.switchTo(joinB)
}

// dropIfLive drops reg immediately (not at scope exit) if it hasn't
// already been moved, used for assignment's "drop the old value" step.
func (l *Lowerer) dropIfLive(reg mir.RegisterId, t types.TypeRef) {
	if l.moved[reg] || !isDroppable(l.db, t) {
		return
	}
	l.dropRegister(reg, t)
	l.moved[reg] = true
}

// dropScope drops every entry of s not already known moved, in reverse
// declaration order, keeping none of them (used for loop-scope teardown,
// which never carries an escaping value).
func (l *Lowerer) dropScope(s *lexScope) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if l.moved[e.reg] {
			continue
		}
		l.dropRegister(e.reg, e.typ)
	}
}

// dropScopeExcept is dropScope but leaves keep alone: used when a scope's
// trailing expression value escapes to the enclosing scope.
func (l *Lowerer) dropScopeExcept(s *lexScope, keep mir.RegisterId) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.reg == keep || l.moved[e.reg] {
			continue
		}
		l.dropRegister(e.reg, e.typ)
	}
}

// dropAllScopesExcept drops every live register in every open scope,
// innermost first, except keep: spec.md §4.3.1's Return/Throw rule of
// "drop every live register in scope and ancestor scopes."
func (l *Lowerer) dropAllScopesExcept(keep mir.RegisterId) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		l.dropScopeExcept(l.scopes[i], keep)
	}
}

// dropLoopScopes drops every register created since the innermost
// enclosing loop was entered, for a break/next jump out of (or back to the
// top of) the loop body.
func (l *Lowerer) dropLoopScopes() {
	if len(l.loopScopeBase) == 0 {
		return
	}
	base := l.loopScopeBase[len(l.loopScopeBase)-1]
	for i := len(l.scopes) - 1; i >= base; i-- {
		l.dropScope(l.scopes[i])
	}
}

// returnOrFinish implements spec.md §4.3.1's Return/Throw rule: mark v
// moved, drop every other live register in scope and ancestor scopes, and
// terminate with Finish(terminate) for an async method or plain Return
// otherwise.
func (l *Lowerer) returnOrFinish(v mir.RegisterId) {
	l.moved[v] = true
	l.dropAllScopesExcept(v)
	if l.method.IsAsync {
		l.terminate(mir.Instruction{Op: mir.OpFinish, Control: mir.ControlOp{Value: v, Finish: mir.FinishTerminate}})
		return
	}
	l.terminate(mir.Return(v))
}

// lowerExpr lowers one HIR node, returning the register holding its value
// (the zero RegisterId for control-flow nodes whose value is never read,
// e.g. `next`/`break`).
func (l *Lowerer) lowerExpr(e *hir.Expr) mir.RegisterId {
	if e == nil {
		return 0
	}

	switch e.Kind {
	case hir.ExprIntLiteral:
		dst := l.newReg(e.Type)
		l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Type: e.Type, Const: mir.ConstOp{Dst: dst, IntValue: e.IntValue}})
		return dst

	case hir.ExprFloatLiteral:
		dst := l.newReg(e.Type)
		l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Type: e.Type, Const: mir.ConstOp{Dst: dst, FloatValue: e.FloatValue}})
		return dst

	case hir.ExprStringLiteral:
		dst := l.newReg(e.Type)
		l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Type: e.Type, Const: mir.ConstOp{Dst: dst, StringValue: e.StringValue}})
		return dst

	case hir.ExprBoolLiteral:
		dst := l.newReg(e.Type)
		l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Type: e.Type, Const: mir.ConstOp{Dst: dst, BoolValue: e.BoolValue}})
		return dst

	case hir.ExprArrayLiteral:
		dst := l.newReg(e.Type)
		cls := classOf(e.Type)
		l.emit(mir.Instruction{Op: mir.OpAllocate, Type: e.Type, Mem: mir.MemOp{Dst: dst, Class: cls}})
		for i, el := range e.Elements {
			v := l.lowerExpr(el)
			idx := l.newReg(types.Unknown)
			l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Const: mir.ConstOp{Dst: idx, IntValue: int64(i)}})
			l.emit(mir.Instruction{Op: mir.OpSetField, Mem: mir.MemOp{Src: dst, Value: v}})
		}
		l.declare(dst, e.Type)
		return dst

	case hir.ExprConstantRef:
		dst := l.newReg(e.Type)
		l.emit(mir.Instruction{Op: mir.OpCallBuiltin, Type: e.Type,
			Call: mir.CallOp{Dst: dst, HasDst: true, Builtin: "LoadConstant"}})
		return dst

	case hir.ExprVariableRef:
		return l.readVariable(e.Variable)

	case hir.ExprSelf:
		if l.selfReg != nil {
			return *l.selfReg
		}
		dst := l.newReg(e.Type)
		l.method.Registers.Get(dst).Kind = mir.RegSelfObject
		l.selfReg = &dst
		return dst

	case hir.ExprFieldRef:
		recv := l.lowerExpr(e.Receiver)
		dst := l.newReg(e.Type)
		l.emit(mir.Instruction{Op: mir.OpGetField, Type: e.Type, Mem: mir.MemOp{Dst: dst, Src: recv, Field: e.Field}})
		return dst

	case hir.ExprBinary:
		return l.lowerBinary(e)

	case hir.ExprAssignVariable:
		v := l.lowerExpr(e.Value)
		l.assignVariable(e.Variable, v, e.Value.Type)
		return v

	case hir.ExprAssignField:
		return l.lowerAssignField(e)

	case hir.ExprCall:
		return l.lowerCall(e)

	case hir.ExprIf:
		return l.lowerIf(e)

	case hir.ExprLoop:
		return l.lowerLoop(e)

	case hir.ExprBreak:
		if len(l.breakTargets) > 0 {
			l.dropLoopScopes()
			target := l.breakTargets[len(l.breakTargets)-1]
			l.terminate(mir.Goto(target))
		}
		return 0

	case hir.ExprNext:
		if len(l.nextTargets) > 0 {
			l.dropLoopScopes()
			target := l.nextTargets[len(l.nextTargets)-1]
			l.terminate(mir.Goto(target))
		}
		return 0

	case hir.ExprReturn:
		v := l.lowerExpr(e.Value)
		l.returnOrFinish(v)
		return 0

	case hir.ExprThrow:
		v := l.lowerExpr(e.Value)
		resultType := e.Value.Type
		if decl := l.db.Method(l.method.Id); decl != nil {
			resultType = decl.Return
		}
		errReg := l.buildResultError(v, resultType)
		l.returnOrFinish(errReg)
		return 0

	case hir.ExprTry:
		// A `try` expression lowers to its inner expression's value: no
		// test of the Result/Option tag is emitted, and an error value is
		// not returned early.
		return l.lowerExpr(e.Inner)

	case hir.ExprMatch:
		return l.lowerMatch(e)

	case hir.ExprClosure:
		return l.lowerClosure(e)

	case hir.ExprRef:
		src := l.lowerExpr(e.Inner)
		dst := l.newReg(e.Type)
		l.emit(mir.Instruction{Op: mir.OpReference, Type: e.Type, Un: mir.UnOp{Dst: dst, Src: src}})
		return dst

	case hir.ExprMut:
		return l.lowerExpr(e.Inner)

	case hir.ExprRecover:
		return l.lowerExpr(e.Body)

	case hir.ExprBlock:
		return l.lowerBlock(e)

	default:
		return 0
	}
}

// lowerBlock pushes a fresh ownership scope, lowers each statement in
// order, and drops everything the scope created except the final
// statement's value, which escapes to whatever consumes the block.
func (l *Lowerer) lowerBlock(e *hir.Expr) mir.RegisterId {
	s := l.pushScope()
	defer l.popScope()

	if len(e.Statements) == 0 {
		return 0
	}

	var last mir.RegisterId
	for _, stmt := range e.Statements {
		last = l.lowerExpr(stmt)
	}

	if l.blockTerminated() {
		return last
	}
	l.dropScopeExcept(s, last)
	return last
}

// buildResultError wraps v into variant 1 ("Error") of the throwing
// method's Result return type, per spec.md §4.3.1's `throw` rule. Variant
// 0 is conventionally "Ok"/"Some"; field 0 of an enum instance is always
// its tag (decisiontree.go's enumTagField), so the payload lands in field
// 1. resultType is the method's declared return type, as the caller looked
// it up in the Database.
func (l *Lowerer) buildResultError(v mir.RegisterId, resultType types.TypeRef) mir.RegisterId {
	dst := l.newReg(resultType)
	cls := classOf(resultType)
	l.emit(mir.Instruction{Op: mir.OpAllocate, Type: resultType, Mem: mir.MemOp{Dst: dst, Class: cls}})

	tag := l.newReg(types.Unknown)
	l.emit(mir.Instruction{Op: mir.OpLoadImmediate, Const: mir.ConstOp{Dst: tag, IntValue: 1}})
	l.emit(mir.Instruction{Op: mir.OpSetField, Mem: mir.MemOp{Src: dst, Field: 0, Value: tag}})
	l.emit(mir.Instruction{Op: mir.OpSetField, Mem: mir.MemOp{Src: dst, Field: 1, Value: v}})
	return dst
}

func (l *Lowerer) readVariable(v types.VariableId) mir.RegisterId {
	if reg, ok := l.vars[v]; ok {
		return reg
	}
	reg := l.method.Registers.New(types.Unknown, mir.RegVariable)
	l.method.Registers.Get(reg).Variable = v
	l.vars[v] = reg
	return reg
}

func (l *Lowerer) bindVariable(v types.VariableId, src mir.RegisterId) {
	l.vars[v] = src
}

// assignVariable implements spec.md §4.3.1's assignment rule: read the
// variable's current value (if it already has one), drop it, then bind the
// new value and start tracking it for scope-exit teardown.
func (l *Lowerer) assignVariable(v types.VariableId, newReg mir.RegisterId, t types.TypeRef) {
	if oldReg, ok := l.vars[v]; ok && oldReg != newReg {
		l.dropIfLive(oldReg, l.regType(oldReg))
	}
	l.vars[v] = newReg
	l.declare(newReg, t)
}

func (l *Lowerer) lowerAssignField(e *hir.Expr) mir.RegisterId {
	recv := l.lowerExpr(e.Receiver)
	v := l.lowerExpr(e.Value)

	old := l.newReg(e.Type)
	l.emit(mir.Instruction{Op: mir.OpGetField, Type: e.Type, Mem: mir.MemOp{Dst: old, Src: recv, Field: e.Field}})
	l.dropIfLive(old, e.Type)

	l.emit(mir.Instruction{Op: mir.OpSetField, Mem: mir.MemOp{Src: recv, Field: e.Field, Value: v}})
	return v
}

func (l *Lowerer) lowerBinary(e *hir.Expr) mir.RegisterId {
	lhs := l.lowerExpr(e.Left)
	rhs := l.lowerExpr(e.Right)
	dst := l.newReg(e.Type)

	if e.Op == hir.OpConcat {
		l.emit(mir.Instruction{Op: mir.OpCallBuiltin, Type: e.Type,
			Call: mir.CallOp{Dst: dst, HasDst: true, Args: []mir.RegisterId{lhs, rhs}, Builtin: "StringConcat"}})
		return dst
	}

	op := binOpToMir(e.Op)
	l.emit(mir.Instruction{Op: op, Type: e.Type, Bin: mir.BinOp{Dst: dst, Lhs: lhs, Rhs: rhs}})
	return dst
}

func binOpToMir(op hir.BinOp) mir.Op {
	switch op {
	case hir.OpAdd:
		return mir.OpIntAdd
	case hir.OpSub:
		return mir.OpIntSub
	case hir.OpMul:
		return mir.OpIntMul
	case hir.OpDiv:
		return mir.OpIntDiv
	case hir.OpMod:
		return mir.OpIntMod
	case hir.OpShl:
		return mir.OpIntShl
	case hir.OpShr:
		return mir.OpIntShr
	case hir.OpUshr:
		return mir.OpIntUshr
	case hir.OpBitAnd:
		return mir.OpIntBitAnd
	case hir.OpBitOr:
		return mir.OpIntBitOr
	case hir.OpBitXor:
		return mir.OpIntBitXor
	case hir.OpPow:
		return mir.OpIntPow
	default:
		return mir.OpIntEq
	}
}

func (l *Lowerer) lowerCall(e *hir.Expr) mir.RegisterId {
	var recv mir.RegisterId
	if e.Receiver != nil {
		recv = l.lowerExpr(e.Receiver)
	}
	args := make([]mir.RegisterId, 0, len(e.Arguments))
	for _, a := range e.Arguments {
		args = append(args, l.lowerExpr(a.Value))
	}

	dst := l.newReg(e.Type)
	op := mir.OpCallInstance
	if m := l.db.Method(e.Method); m != nil {
		switch m.Kind {
		case types.MethodStatic:
			op = mir.OpCallStatic
		}
		if m.Extern {
			op = mir.OpCallExtern
		}
		if m.Kind == types.MethodMoving {
			// A moving call consumes its receiver: clear its drop flag (if
			// any) and mark it moved so scope exit no longer drops it
			// (spec.md §4.3.1 "moving method-call receivers").
			l.clearFlag(recv)
		}
	}

	l.emit(mir.Instruction{Op: op, Type: e.Type,
		Call: mir.CallOp{Dst: dst, HasDst: true, Method: e.Method, Receiver: recv, Args: args}})
	l.declare(dst, e.Type)
	return dst
}

// lowerIf lowers a two-armed conditional into three blocks: then, else, and
// a join block that both arms branch into, per spec.md §4.3.1. If either
// arm is missing, its block degenerates to an immediate Goto to the join.
func (l *Lowerer) lowerIf(e *hir.Expr) mir.RegisterId {
	cond := l.lowerExpr(e.Condition)
	thenB := l.newBlock()
	elseB := l.newBlock()
	joinB := l.newBlock()

	l.terminate(mir.Branch(cond, thenB, elseB))

	result := l.newReg(e.Type)

	l.switchTo(thenB)
	thenVal := l.lowerExpr(e.Then)
	if !l.blockTerminated() {
		l.emit(mir.Instruction{Op: mir.OpMoveRegister, Un: mir.UnOp{Dst: result, Src: thenVal}})
		l.moved[thenVal] = true
		l.terminate(mir.Goto(joinB))
	}

	l.switchTo(elseB)
	if e.Else != nil {
		elseVal := l.lowerExpr(e.Else)
		if !l.blockTerminated() {
			l.emit(mir.Instruction{Op: mir.OpMoveRegister, Un: mir.UnOp{Dst: result, Src: elseVal}})
			l.moved[elseVal] = true
			l.terminate(mir.Goto(joinB))
		}
	} else if !l.blockTerminated() {
		l.terminate(mir.Goto(joinB))
	}

	l.switchTo(joinB)
	l.declare(result, e.Type)
	return result
}

// lowerLoop lowers `loop { ... }` into a self-looping block: the body
// block jumps back to itself at the end, and an exit block is created for
// `break` targets (spec.md §4.3.1 "Loop"). Every register the body scope
// creates is dropped before a `break`/`next` jumps out of or back into it.
func (l *Lowerer) lowerLoop(e *hir.Expr) mir.RegisterId {
	bodyB := l.newBlock()
	exitB := l.newBlock()

	l.terminate(mir.Goto(bodyB))
	l.switchTo(bodyB)

	l.breakTargets = append(l.breakTargets, exitB)
	l.nextTargets = append(l.nextTargets, bodyB)
	l.loopScopeBase = append(l.loopScopeBase, len(l.scopes))

	l.lowerExpr(e.Body)
	if !l.blockTerminated() {
		l.dropLoopScopes()
		l.terminate(mir.Goto(bodyB))
	}

	l.loopScopeBase = l.loopScopeBase[:len(l.loopScopeBase)-1]
	l.breakTargets = l.breakTargets[:len(l.breakTargets)-1]
	l.nextTargets = l.nextTargets[:len(l.nextTargets)-1]

	l.switchTo(exitB)
	return l.newReg(e.Type)
}

func (l *Lowerer) lowerClosure(e *hir.Expr) mir.RegisterId {
	dst := l.newReg(e.Type)
	cls := classOf(e.Type)
	l.emit(mir.Instruction{Op: mir.OpAllocate, Type: e.Type, Mem: mir.MemOp{Dst: dst, Class: cls}})
	if e.Closure != nil {
		for _, cap := range e.Closure.Captures {
			src := l.readVariable(cap.Variable)
			l.emit(mir.Instruction{Op: mir.OpSetField, Mem: mir.MemOp{Src: dst, Field: cap.Field, Value: src}})
			if cap.ByMove {
				l.clearFlag(src)
			}
		}
	}
	l.declare(dst, e.Type)
	return dst
}

func classOf(t types.TypeRef) types.ClassId {
	if t.Id.Entity == types.EntityClass {
		return t.Id.Class
	}
	return 0
}
