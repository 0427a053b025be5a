// Package check implements C2, the expression checker: it walks typed HIR
// method bodies, resolves method calls (spec.md §4.2 "Method resolution and
// call construction"), and enforces move/borrow/sendability discipline
// (spec.md §4.2 Ownership, Closures, Sendability).
package check

import (
	"strconv"
	"strings"

	"forge.dev/emberc/internal/diagnostics"
	"forge.dev/emberc/internal/hir"
	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/types"
)

// Checker holds the state threaded through one method body's walk. A fresh
// Checker is created per method; the Database and Sink are shared across a
// whole compilation.
type Checker struct {
	db   types.Database
	sink *diagnostics.Sink

	module string
	method *types.Method

	placeholders PlaceholderAllocator
	bindings     map[types.PlaceholderId]types.TypeRef

	scopes *ScopeStack
}

// arrayLengthLimit is spec.md §8's array-length boundary: lengths must fit
// the runtime's u16 element-count field.
const arrayLengthLimit = 65535

// NewChecker prepares a Checker for walking bodies belonging to module.
func NewChecker(db types.Database, sink *diagnostics.Sink, module string) *Checker {
	return &Checker{
		db:       db,
		sink:     sink,
		module:   module,
		bindings: make(map[types.PlaceholderId]types.TypeRef),
	}
}

// CheckMethod type-checks and ownership-checks one method body. argVars
// lists the VariableId bound to each of decl.Args, in order, as declared by
// the external Database; a nil/empty body (extern or abstract method) is
// skipped, matching spec.md §8 ("a method with no expressions returns Nil").
func (c *Checker) CheckMethod(decl *types.Method, argVars []types.VariableId, body *hir.Method) {
	c.method = decl
	root := newScope(ScopeMethod, decl.Receiver, decl.Return, nil)
	c.scopes = NewScopeStack(root)

	for _, v := range argVars {
		c.scopes.Declare(v)
	}

	if body == nil || body.Body == nil {
		return
	}
	c.checkExpr(body.Body)
}

// checkExpr walks one HIR node, reporting diagnostics as it finds
// violations, and returns the node's static type (already assigned onto
// e.Type by the upstream type-inference pass per spec.md §6; checkExpr
// consults it rather than re-deriving it, except where the node's type
// depends on a call resolved here).
func (c *Checker) checkExpr(e *hir.Expr) types.TypeRef {
	if e == nil {
		return types.Unknown
	}

	switch e.Kind {
	case hir.ExprIntLiteral, hir.ExprFloatLiteral, hir.ExprStringLiteral, hir.ExprBoolLiteral:
		return e.Type

	case hir.ExprArrayLiteral:
		if len(e.Elements) > arrayLengthLimit {
			c.sink.Error(diagnostics.KindLimitReached, c.module, 0, 0,
				"array literal has %d elements, exceeding the %d limit", len(e.Elements), arrayLengthLimit)
		}
		for _, el := range e.Elements {
			c.checkExpr(el)
		}
		return e.Type

	case hir.ExprConstantRef:
		if ct := c.db.Constant(e.Constant); ct != nil {
			return ct.Type
		}
		return types.Unknown

	case hir.ExprVariableRef:
		return c.checkVariableRead(e.Variable)

	case hir.ExprFieldRef:
		c.checkExpr(e.Receiver)
		return e.Type

	case hir.ExprSelf:
		top := c.scopes.Top()
		if top.InClosure && top.InRecover {
			c.sink.Error(diagnostics.KindSelfInClosureInRecover, c.module, 0, 0,
				"self cannot be captured by a closure created inside recover")
		}
		return top.Surrounding

	case hir.ExprBinary:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)
		return e.Type

	case hir.ExprAssignVariable:
		c.checkExpr(e.Value)
		c.scopes.SetState(e.Variable, mir.Available)
		return e.Type

	case hir.ExprAssignField:
		c.checkExpr(e.Receiver)
		c.checkExpr(e.Value)
		return e.Type

	case hir.ExprCall:
		return c.checkCall(e)

	case hir.ExprIf:
		c.checkExpr(e.Condition)
		before := c.scopes.Snapshot()
		c.checkExpr(e.Then)
		thenState := c.scopes.Snapshot()
		c.restore(before)
		if e.Else != nil {
			c.checkExpr(e.Else)
		}
		c.scopes.JoinBranch(thenState)
		return e.Type

	case hir.ExprLoop:
		c.scopes.Push(ScopeLoop)
		c.checkExpr(e.Body)
		c.scopes.Pop()
		return e.Type

	case hir.ExprBreak, hir.ExprNext:
		// Well-formedness (break/next only inside a loop) is a grammar-level
		// guarantee of the external parser; not re-validated here.
		if e.Kind == hir.ExprBreak {
			if loop, ok := c.scopes.InLoop(); ok {
				loop.BreakInLoop = true
			}
		}
		if e.Value != nil {
			c.checkExpr(e.Value)
		}
		return types.Never

	case hir.ExprReturn:
		if e.Value != nil {
			got := c.checkExpr(e.Value)
			want := c.scopes.Top().Return
			if want.IsResolved() && !c.castType(got, want, nil) {
				c.sink.Error(diagnostics.KindTypeMismatch, c.module, 0, 0,
					"return type mismatch: expected %s, found %s", want, got)
			}
		}
		return types.Never

	case hir.ExprThrow:
		if c.method != nil && !c.method.IsAsync {
			c.sink.Error(diagnostics.KindInvalidThrow, c.module, 0, 0,
				"throw is only valid inside an async method")
		}
		if e.Value != nil {
			c.checkExpr(e.Value)
		}
		return types.Never

	case hir.ExprTry:
		return c.checkExpr(e.Inner)

	case hir.ExprMatch:
		scrutType := c.checkExpr(e.Condition)
		c.checkExhaustiveness(scrutType, e.Cases)
		before := c.scopes.Snapshot()
		var joined map[types.VariableId]mir.MoveState
		for _, mc := range e.Cases {
			c.restore(before)
			c.declarePattern(mc.Pattern)
			if mc.Guard != nil {
				c.checkExpr(mc.Guard)
			}
			c.checkExpr(mc.Body)
			snap := c.scopes.Snapshot()
			if joined == nil {
				joined = snap
			} else {
				for v, st := range snap {
					if cur, ok := joined[v]; ok {
						joined[v] = mir.Join(cur, st)
					} else {
						joined[v] = st
					}
				}
			}
		}
		c.restore(before)
		if joined != nil {
			c.scopes.JoinBranch(joined)
		}
		return e.Type

	case hir.ExprClosure:
		return c.checkClosure(e)

	case hir.ExprRef:
		return c.checkBorrow(e, types.KindRef)

	case hir.ExprMut:
		return c.checkBorrow(e, types.KindMut)

	case hir.ExprRecover:
		c.scopes.Push(ScopeRecover)
		c.checkExpr(e.Body)
		c.scopes.Pop()
		return e.Type

	case hir.ExprBlock:
		var last types.TypeRef
		terminated := false
		for i, s := range e.Statements {
			if terminated {
				c.sink.Error(diagnostics.KindUnreachableCode, c.module, 0, 0,
					"unreachable code after %s", terminatorName(e.Statements[i-1]))
			}
			last = c.checkExpr(s)
			if isTerminator(s) {
				terminated = true
			}
		}
		return last

	default:
		return e.Type
	}
}

// checkVariableRead reports a use of an already-moved variable and, for
// owned non-value types, records the read itself as the move that consumes
// it (spec.md §3 MoveState / §4.2 Ownership: a use of an owned value moves
// it unless the variable's type is a value type or the use is a borrow).
func (c *Checker) checkVariableRead(v types.VariableId) types.TypeRef {
	decl := c.db.Variable(v)
	if decl == nil {
		return types.Unknown
	}

	state, tracked := c.scopes.State(v)
	if tracked {
		switch state {
		case mir.Moved:
			kind := diagnostics.KindMovedVariable
			if _, inLoop := c.scopes.InLoop(); inLoop {
				kind = diagnostics.KindMovedVariableInLoop
			}
			c.sink.Error(kind, c.module, 0, 0, "use of moved variable %q", decl.Name)
		case mir.PartiallyMoved, mir.MaybeMoved:
			c.sink.Error(diagnostics.KindMovedVariable, c.module, 0, 0,
				"use of possibly-moved variable %q", decl.Name)
		}
	}

	if decl.Type.Kind == types.KindOwned && !isValueOrAtomic(c.db, decl.Type) {
		c.scopes.SetState(v, mir.Moved)
	}
	return decl.Type
}

// checkBorrow handles `ref x`/`mut x`: the operand is read without being
// consumed (a borrow never moves), and the resulting TypeRef is re-tagged
// to the requested Kind.
func (c *Checker) checkBorrow(e *hir.Expr, kind types.Kind) types.TypeRef {
	inner := e.Inner
	if inner != nil && inner.Kind == hir.ExprVariableRef {
		decl := c.db.Variable(inner.Variable)
		if decl != nil {
			if state, tracked := c.scopes.State(inner.Variable); tracked && state == mir.Moved {
				c.sink.Error(diagnostics.KindInvalidBorrow, c.module, 0, 0,
					"cannot borrow moved variable %q", decl.Name)
			}
			return decl.Type.WithKind(kind)
		}
	}
	t := c.checkExpr(inner)
	return t.WithKind(kind)
}

// checkClosure pushes a closure scope, declares its parameters and
// captures, and walks the body. Captures declared ByMove behave like an
// argument move at the capture site in the enclosing scope; captures by
// reference leave the enclosing variable's state untouched.
func (c *Checker) checkClosure(e *hir.Expr) types.TypeRef {
	lit := e.Closure
	if lit == nil {
		return e.Type
	}

	for _, cap := range lit.Captures {
		if cap.ByMove {
			c.scopes.SetState(cap.Variable, mir.Moved)
		}
	}

	c.scopes.Push(ScopeClosure)
	for _, p := range lit.Params {
		c.scopes.Declare(p)
	}
	for _, cap := range lit.Captures {
		c.scopes.Declare(cap.Variable)
	}
	c.checkExpr(lit.Body)
	c.scopes.Pop()
	return e.Type
}

// checkCall resolves the callee method and runs BuildMethodCall against
// the checked receiver and argument types.
func (c *Checker) checkCall(e *hir.Expr) types.TypeRef {
	recv := types.Unknown
	if e.Receiver != nil {
		recv = c.checkExpr(e.Receiver)
	}

	m := c.db.Method(e.Method)
	if m == nil {
		c.sink.Error(diagnostics.KindUndefinedMethod, c.module, 0, 0,
			"call to undefined method")
		for _, a := range e.Arguments {
			c.checkExpr(a.Value)
		}
		return types.Unknown
	}

	isStaticCall := e.Receiver == nil
	if isStaticCall != (m.Kind == types.MethodStatic) {
		c.sink.Error(diagnostics.KindStaticMismatch, c.module, 0, 0,
			"%q called as %s but is declared %s", m.Name, callForm(isStaticCall), callForm(!isStaticCall))
	}

	c.checkPrivateAccess(m)

	for _, a := range e.Arguments {
		a.Value.Type = c.checkExpr(a.Value)
	}

	mc := c.BuildMethodCall(c.module, 0, 0, m, recv, nil, nil, e.Arguments, true)
	return mc.ReturnType
}

// callForm names which call shape isStatic describes, for the
// static/instance mismatch diagnostic's message.
func callForm(isStatic bool) string {
	if isStatic {
		return "static"
	}
	return "instance"
}

// checkPrivateAccess implements the private-method visibility rule: a
// method marked Private may only be called from a call site in its own
// declaring module.
func (c *Checker) checkPrivateAccess(m *types.Method) {
	if !m.Private {
		return
	}
	if moduleMeta := c.db.Module(m.Module); moduleMeta != nil && string(moduleMeta.Name) == c.module {
		return
	}
	c.sink.Error(diagnostics.KindPrivateMethodCall, c.module, 0, 0,
		"%q is private to its declaring module", m.Name)
}

// isTerminator reports whether e unconditionally hands control away from
// its enclosing block, making any following statement unreachable.
func isTerminator(e *hir.Expr) bool {
	switch e.Kind {
	case hir.ExprReturn, hir.ExprThrow, hir.ExprBreak, hir.ExprNext:
		return true
	default:
		return false
	}
}

func terminatorName(e *hir.Expr) string {
	switch e.Kind {
	case hir.ExprReturn:
		return "return"
	case hir.ExprThrow:
		return "throw"
	case hir.ExprBreak:
		return "break"
	case hir.ExprNext:
		return "next"
	default:
		return "terminator"
	}
}

// checkExhaustiveness implements spec.md §4.3.2's coverage rule: when the
// scrutinee is an enum, every variant must be reached by either a
// PatternVariant testing it or a wildcard/binding catch-all arm (ignoring
// guarded arms, which can fail at runtime and so don't count toward
// coverage on their own). A missing variant is reported as KindInvalidMatch
// and MIR lowering never runs for this method (pipeline.go aborts the
// build once the checker phase reports any error).
func (c *Checker) checkExhaustiveness(scrutType types.TypeRef, cases []hir.MatchCase) {
	if scrutType.Id.Entity != types.EntityClass {
		return
	}
	cls := c.db.Class(scrutType.Id.Class)
	if cls == nil || cls.Kind != types.ClassEnum || cls.VariantCount == 0 {
		return
	}

	covered := make([]bool, cls.VariantCount)
	catchAll := false
	for _, mc := range cases {
		if mc.Guard != nil || mc.Pattern == nil {
			continue
		}
		switch mc.Pattern.Kind {
		case hir.PatternWildcard, hir.PatternBinding:
			catchAll = true
		case hir.PatternVariant:
			if v := mc.Pattern.Variant; v >= 0 && v < cls.VariantCount {
				covered[v] = true
			}
		}
	}
	if catchAll {
		return
	}

	var missing []int
	for v, ok := range covered {
		if !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) == 0 {
		return
	}

	c.sink.Error(diagnostics.KindInvalidMatch, c.module, 0, 0,
		"non-exhaustive match on %s: variant %s missing from patterns", cls.Name, formatVariants(missing))
}

func formatVariants(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

// declarePattern binds every PatternBinding leaf in p as Available in the
// current scope (spec.md §4.3.2 "binding policy").
func (c *Checker) declarePattern(p *hir.Pattern) {
	if p == nil {
		return
	}
	switch p.Kind {
	case hir.PatternBinding:
		c.scopes.Declare(p.Variable)
	case hir.PatternTuple, hir.PatternClass, hir.PatternVariant:
		for _, f := range p.Fields {
			c.declarePattern(f)
		}
	}
}

// restore resets every tracked variable's state to snapshot, used to
// rewind the scope stack to a branch point before walking a sibling branch.
func (c *Checker) restore(snapshot map[types.VariableId]mir.MoveState) {
	for v, st := range snapshot {
		c.scopes.SetState(v, st)
	}
}
