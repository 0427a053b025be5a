package check

import (
	"forge.dev/emberc/internal/diagnostics"
	"forge.dev/emberc/internal/hir"
	"forge.dev/emberc/internal/types"
)

// MethodCall is the resolved record built for every call site, per the eight
// construction steps of spec.md §4.2 "Method resolution and call
// construction".
type MethodCall struct {
	Method   types.MethodId
	Receiver types.TypeRef

	TypeArguments TypeArguments
	Bounds        Bounds
	RequireSendable bool
	AllowBorrows    bool

	ArgumentTypes []types.TypeRef
	ReturnType    types.TypeRef

	// SendabilityCandidates records argument positions whose sendability
	// could not be finally judged until the call's return usage is known
	// (spec.md §4.2 step 4: "Record sendability-check candidates for later").
	SendabilityCandidates []int
}

// BuildMethodCall runs the eight construction steps for a single call
// expression against method m with receiver type recv.
func (c *Checker) BuildMethodCall(
	module string, line, col int,
	m *types.Method,
	recv types.TypeRef,
	callerBounds Bounds,
	callerTypeArgs TypeArguments,
	args []hir.Argument,
	resultUsed bool,
) *MethodCall {
	mc := &MethodCall{Method: m.Id, Receiver: recv}

	// Step 1: type arguments.
	mc.TypeArguments = c.computeTypeArguments(m, recv, callerTypeArgs)

	// Step 2: bounds.
	mc.Bounds = c.computeBounds(m, recv, callerBounds)
	c.checkBoundsSatisfied(module, line, col, m, mc.TypeArguments, mc.Bounds)

	// Step 3: require_sendable.
	mc.RequireSendable = requiresSendable(m)
	mc.AllowBorrows = allowBorrows(c.db, m, recv)

	// Step 4: argument casts + type checking + sendability candidates.
	mc.ArgumentTypes = make([]types.TypeRef, 0, len(args))
	for i, arg := range args {
		argType := arg.Value.Type
		var expected types.TypeRef
		if i < len(m.Args) {
			expected = substitute(m.Args[i].Type, mc.TypeArguments)
		} else {
			expected = argType
		}
		if !c.castType(argType, expected, mc.TypeArguments) {
			c.sink.Error(diagnostics.KindTypeMismatch, module, line, col,
				"expected %s, found %s for argument %d of %q", expected, argType, i, m.Name)
		}
		if !c.checkSendableArgument(mc.RequireSendable, mc.AllowBorrows, argType) {
			c.sink.Error(diagnostics.KindUnsendableArgument, module, line, col,
				"argument %d of %q is not sendable", i, m.Name)
		} else if mc.RequireSendable {
			mc.SendabilityCandidates = append(mc.SendabilityCandidates, i)
		}
		mc.ArgumentTypes = append(mc.ArgumentTypes, argType)
	}

	// Step 5: arity.
	c.checkArity(module, line, col, m, args)

	// Step 6: mutability of receiver vs method kind.
	c.checkMutability(module, line, col, m, recv)

	// Step 7: return type, substituted with the call's type arguments. The
	// result is not marked rigid when the receiver is a rigid parameter.
	mc.ReturnType = substitute(m.Return, mc.TypeArguments)

	// Step 8: sendability analysis of the return value, only if the
	// result is actually used (spec.md §4.2 Sendability: "If the call
	// produces an unused result, the return value's sendability isn't
	// checked").
	if resultUsed && mc.RequireSendable {
		if !sendabilityOf(c.db, mc.ReturnType).AllowsBorrow(mc.AllowBorrows) {
			c.sink.Error(diagnostics.KindUnsendableReturn, module, line, col,
				"return value of %q is not sendable", m.Name)
		}
	}

	return mc
}

// computeTypeArguments builds step 1's type arguments: it starts from a
// copy of the caller's type arguments, allocates a fresh placeholder for
// every type parameter declared by the method, and, when the receiver is
// static-on-class or the method implements a trait, allocates a placeholder
// for each of that class's or trait's parameters not already bound. The
// receiver's own type arguments are not copied in, and arguments inherited
// through the trait-instance chain are not followed.
func (c *Checker) computeTypeArguments(m *types.Method, recv types.TypeRef, callerArgs TypeArguments) TypeArguments {
	out := callerArgs.Clone()

	for _, p := range m.TypeParams {
		out[p] = c.placeholders.Fresh()
	}

	if m.Kind == types.MethodStatic && recv.Id.Entity == types.EntityClass {
		if cls := c.db.Class(recv.Id.Class); cls != nil {
			for _, p := range cls.TypeParams {
				if _, ok := out[p]; !ok {
					out[p] = c.placeholders.Fresh()
				}
			}
		}
	}

	if m.ImplementedTraitInstance != nil {
		if tr := c.db.Trait(*m.ImplementedTraitInstance); tr != nil {
			for _, p := range tr.TypeParams {
				if _, ok := out[p]; !ok {
					out[p] = c.placeholders.Fresh()
				}
			}
		}
	}

	return out
}

// computeBounds implements spec.md §4.2 step 2: if the receiver is
// "self-like" (its type-enum is in the method's self_types set) or is a
// rigid type parameter, union the caller's bounds with the callee's. The
// caller's rigid parameters are not turned into rigid type arguments here.
func (c *Checker) computeBounds(m *types.Method, recv types.TypeRef, callerBounds Bounds) Bounds {
	selfLike := m.SelfTypes != nil && m.SelfTypes[recv.Id.Entity]
	if !selfLike && !recv.IsRigidParameter() {
		return callerBounds
	}

	calleeBounds := make(Bounds)
	for _, p := range m.TypeParams {
		calleeBounds[p] = c.db.Bounds(p)
	}
	return callerBounds.union(calleeBounds)
}

// checkBoundsSatisfied implements spec.md §4.2 step 2's other half: once a
// call's bounds are computed, every type argument bound to a type
// parameter with trait bounds must actually implement each required
// trait, or the call is rejected.
func (c *Checker) checkBoundsSatisfied(module string, line, col int, m *types.Method, typeArgs TypeArguments, bounds Bounds) {
	for param, traits := range bounds {
		arg, ok := typeArgs[param]
		if !ok {
			continue
		}
		for _, tr := range traits {
			if c.satisfiesTrait(arg, tr) {
				continue
			}
			traitName := "<unknown trait>"
			if t := c.db.Trait(tr); t != nil {
				traitName = t.Name
			}
			c.sink.Error(diagnostics.KindBoundsViolation, module, line, col,
				"%s does not satisfy bound %s required by %q", arg, traitName, m.Name)
		}
	}
}

// satisfiesTrait reports whether t's class implements trait, judged by
// whether any of its methods declares trait as its ImplementedTraitInstance
// (spec.md §6: trait implementation is recorded on the implementing
// method, not on the class itself). Placeholders and non-class types are
// never rejected here — their bounds are enforced, if at all, once they're
// resolved to a concrete class.
func (c *Checker) satisfiesTrait(t types.TypeRef, trait types.TraitId) bool {
	if t.Kind == types.KindPlaceholder || t.Kind == types.KindAny || t.Kind == types.KindError || t.Kind == types.KindUnknown {
		return true
	}
	if t.Id.Entity != types.EntityClass {
		return true
	}
	cls := c.db.Class(t.Id.Class)
	if cls == nil {
		return true
	}
	for _, mid := range cls.Methods {
		meth := c.db.Method(mid)
		if meth != nil && meth.ImplementedTraitInstance != nil && *meth.ImplementedTraitInstance == trait {
			return true
		}
	}
	return false
}

// checkArity implements spec.md §4.2 step 5: variadic extern methods skip
// the upper-bound arity check.
func (c *Checker) checkArity(module string, line, col int, m *types.Method, args []hir.Argument) {
	required := 0
	for _, a := range m.Args {
		if !a.Default {
			required++
		}
	}
	if len(args) < required {
		c.sink.Error(diagnostics.KindArityMismatch, module, line, col,
			"%q expects at least %d arguments, got %d", m.Name, required, len(args))
		return
	}
	if m.Variadic && m.Extern {
		return
	}
	if len(args) > len(m.Args) {
		c.sink.Error(diagnostics.KindArityMismatch, module, line, col,
			"%q expects at most %d arguments, got %d", m.Name, len(m.Args), len(args))
	}
}

// checkMutability implements spec.md §4.2 step 6: `moving` requires an
// owning receiver; `mutable` requires a mutable or owning receiver.
func (c *Checker) checkMutability(module string, line, col int, m *types.Method, recv types.TypeRef) {
	switch m.Kind {
	case types.MethodMoving:
		if recv.Kind != types.KindOwned && recv.Kind != types.KindUni {
			c.sink.Error(diagnostics.KindInvalidBorrow, module, line, col,
				"moving method %q requires an owned receiver", m.Name)
		}
	case types.MethodMutable:
		if recv.Kind != types.KindMut && recv.Kind != types.KindOwned && recv.Kind != types.KindUni {
			c.sink.Error(diagnostics.KindInvalidBorrow, module, line, col,
				"mutable method %q requires a mutable or owned receiver", m.Name)
		}
	}
}

// substitute replaces every rigid/free type-parameter reference in t with
// its binding in args, if any.
func substitute(t types.TypeRef, args TypeArguments) types.TypeRef {
	if t.Id.Entity != types.EntityRigidParameter && t.Id.Entity != types.EntityFreeParameter {
		return t
	}
	if repl, ok := args[t.Id.Param]; ok {
		return repl.WithKind(t.Kind)
	}
	return t
}

// castType implements the structural compatibility rule used throughout
// §4.2: a value of type given may flow into a slot of type expected. This
// is a deliberately compact structural checker (full bidirectional generic
// inference belongs to the external Database/resolver, per spec.md §6).
func (c *Checker) castType(given, expected types.TypeRef, env TypeArguments) bool {
	expected = substitute(expected, env)

	if expected.Kind == types.KindPlaceholder {
		if bound, ok := c.bindings[expected.Placeholder]; ok {
			return c.castType(given, bound, env)
		}
		c.bindings[expected.Placeholder] = given
		return true
	}
	if given.Kind == types.KindPlaceholder {
		if bound, ok := c.bindings[given.Placeholder]; ok {
			return c.castType(bound, expected, env)
		}
		c.bindings[given.Placeholder] = expected
		return true
	}
	if expected.Kind == types.KindAny || given.Kind == types.KindNever {
		return true
	}
	if expected.Kind == types.KindError || given.Kind == types.KindError {
		return true
	}
	if given.Id != expected.Id {
		return false
	}
	switch expected.Kind {
	case types.KindRef:
		return given.Kind == types.KindOwned || given.Kind == types.KindRef || given.Kind == types.KindMut || given.Kind == types.KindUni
	case types.KindMut:
		return given.Kind == types.KindOwned || given.Kind == types.KindMut || given.Kind == types.KindUni
	case types.KindUni:
		return given.Kind == types.KindUni || given.Kind == types.KindOwned
	default:
		return given.Kind == expected.Kind
	}
}
