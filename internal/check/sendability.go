package check

import "forge.dev/emberc/internal/types"

// sendabilityOf classifies a TypeRef's Sendability (spec.md §4.2
// Sendability, GLOSSARY). A value type is always Sendable; an owned
// reference-counted type is Sendable only if uniquely owned (uni) or
// atomic; a plain Ref/Mut is SendableRef/SendableMut (borrowable only under
// the allow_borrows rule); anything else is NotSendable.
func sendabilityOf(db types.Database, t types.TypeRef) types.Sendability {
	switch t.Kind {
	case types.KindUni:
		return types.Sendable
	case types.KindOwned:
		if isValueOrAtomic(db, t) {
			return types.Sendable
		}
		return types.NotSendable
	case types.KindRef:
		return types.SendableRef
	case types.KindMut:
		return types.SendableMut
	case types.KindAny:
		return types.SendableRef
	default:
		return types.NotSendable
	}
}

func isValueOrAtomic(db types.Database, t types.TypeRef) bool {
	if t.Id.Entity != types.EntityClass {
		return false
	}
	c := db.Class(t.Id.Class)
	if c == nil {
		return false
	}
	return c.IsValueType() || c.Kind == types.ClassAtomic
}

// checkSendableArgument verifies a call argument's sendability per §4.2:
//
//	A send-bound method on a process receiver requires all argument values
//	to be sendable; borrows are admitted only if (a) the method is immutable
//	or (b) the receiver's owned form is a sendable output.
func (c *Checker) checkSendableArgument(requireSendable bool, allowBorrows bool, argType types.TypeRef) bool {
	if !requireSendable {
		return true
	}
	return sendabilityOf(c.db, argType).AllowsBorrow(allowBorrows)
}

// requiresSendable implements §4.2 step 3: true iff the receiver requires
// sendable arguments (e.g. a process receiver) and the method is not
// moving.
func requiresSendable(method *types.Method) bool {
	return method.RequiresSendableArgs && method.Kind != types.MethodMoving
}

// allowBorrows implements the (a)/(b) disjunction from §4.2 Sendability:
// immutable methods may always pass borrows; mutable/moving methods may
// only do so if the receiver's owned form is itself a sendable output.
func allowBorrows(db types.Database, method *types.Method, receiver types.TypeRef) bool {
	if method.Kind == types.MethodImmutable {
		return true
	}
	return sendabilityOf(db, receiver.AsOwned()) == types.Sendable
}
