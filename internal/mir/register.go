// Package mir implements the data model of spec.md §3/§4.3: registers,
// blocks, instructions and modules of the register-based mid-level IR that
// C3 (internal/mirlower) produces, C4 (internal/dropexpand) rewrites in
// place, and C5/C6 (internal/split, internal/codegen) consume.
//
// Cyclic control-flow graphs are modeled as an arena of Blocks keyed by a
// small-integer BlockId with parallel predecessor/successor BlockId slices,
// per the "cyclic data" guidance in spec.md §9 — never a pointer graph.
package mir

import "forge.dev/emberc/internal/types"

// RegisterId is a stable per-method register identifier.
type RegisterId uint32

// RegisterKind governs whether a register is dropped at scope end and how
// it behaves under borrowing (spec.md §3).
type RegisterKind uint8

const (
	RegRegular RegisterKind = iota
	RegMatchVariable
	RegVariable
	RegField
	RegSelfObject
)

// Register is an entry in a method's register arena.
type Register struct {
	Id   RegisterId
	Type types.TypeRef
	Kind RegisterKind

	// Variable/ScopeDepth are populated when Kind == RegVariable.
	Variable   types.VariableId
	ScopeDepth int

	// Field is populated when Kind == RegField.
	Field types.FieldId
}

// MoveState is the per-block state of a register (spec.md §3 invariant).
type MoveState uint8

const (
	Available MoveState = iota
	Moved
	PartiallyMoved
	MaybeMoved
)

// Join computes the least-upper-bound of two move states at a CFG merge
// point, per the invariant in spec.md §3:
//
//	Available ⊔ Moved = MaybeMoved
//	PartiallyMoved merges with anything non-Moved into itself, or into
//	MaybeMoved when joined with Moved.
func Join(a, b MoveState) MoveState {
	if a == b {
		return a
	}
	switch {
	case a == Available && b == Moved, a == Moved && b == Available:
		return MaybeMoved
	case a == PartiallyMoved && b == Moved, a == Moved && b == PartiallyMoved:
		return MaybeMoved
	case a == PartiallyMoved || b == PartiallyMoved:
		return PartiallyMoved
	case a == MaybeMoved || b == MaybeMoved:
		return MaybeMoved
	default:
		return MaybeMoved
	}
}

// RegisterState is the per-block register-state map of spec.md §3.
type RegisterState map[RegisterId]MoveState

// Clone returns an independent copy, used when seeding a successor block's
// state from a predecessor before joining in the rest.
func (s RegisterState) Clone() RegisterState {
	out := make(RegisterState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// JoinInto merges other into s in place using Join, returning whether
// anything changed (used to detect a fixed point during finalization).
func (s RegisterState) JoinInto(other RegisterState) bool {
	changed := false
	for reg, state := range other {
		cur, ok := s[reg]
		if !ok {
			s[reg] = state
			changed = true
			continue
		}
		joined := Join(cur, state)
		if joined != cur {
			s[reg] = joined
			changed = true
		}
	}
	return changed
}

// DropFlags maps a register that may be conditionally dropped to the
// boolean register tracking whether it is still live (spec.md §3 "Drop
// flag"). Drop flags start true and are set false on every move of the
// tracked register.
type DropFlags map[RegisterId]RegisterId
