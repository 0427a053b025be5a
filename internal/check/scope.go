package check

import (
	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/types"
)

// ScopeKind is the closed set of lexical scope kinds the checker tracks
// (spec.md §4.2).
type ScopeKind uint8

const (
	ScopeMethod ScopeKind = iota
	ScopeRegular
	ScopeLoop
	ScopeRecover
	ScopeClosure
)

// Scope is one entry of the checker's scope stack.
type Scope struct {
	Kind ScopeKind

	// Surrounding is the TypeRef of the enclosing type (the receiver's
	// type), used to decide whether a callee receiver is "self-like".
	Surrounding types.TypeRef

	// Return is the method's declared return type, checked against the
	// values of `return` expressions.
	Return types.TypeRef

	// ClosureId is populated when Kind == ScopeClosure.
	ClosureId types.ClosureId

	// InClosure is true for this scope and every scope nested inside a
	// closure literal, used to detect `self` escaping into a closure
	// inside `recover` (spec.md §8 scenario S6).
	InClosure bool

	// InRecover is true for this scope and every scope nested inside a
	// `recover { ... }` block.
	InRecover bool

	// BreakInLoop is set on the innermost loop scope when a `break` is
	// checked inside it.
	BreakInLoop bool

	variables map[types.VariableId]mir.MoveState
	order     []types.VariableId
}

func newScope(kind ScopeKind, surrounding, ret types.TypeRef, parent *Scope) *Scope {
	s := &Scope{
		Kind:        kind,
		Surrounding: surrounding,
		Return:      ret,
		variables:   make(map[types.VariableId]mir.MoveState),
	}
	if parent != nil {
		s.InClosure = parent.InClosure
		s.InRecover = parent.InRecover
	}
	return s
}

func (s *Scope) declare(v types.VariableId) {
	if _, ok := s.variables[v]; !ok {
		s.order = append(s.order, v)
	}
	s.variables[v] = mir.Available
}

// ScopeStack is the checker's stack of lexical scopes.
type ScopeStack struct {
	scopes []*Scope
}

func NewScopeStack(method *Scope) *ScopeStack {
	return &ScopeStack{scopes: []*Scope{method}}
}

func (s *ScopeStack) Push(kind ScopeKind) *Scope {
	top := s.Top()
	child := newScope(kind, top.Surrounding, top.Return, top)
	if kind == ScopeClosure {
		child.InClosure = true
	}
	if kind == ScopeRecover {
		child.InRecover = true
	}
	s.scopes = append(s.scopes, child)
	return child
}

func (s *ScopeStack) Pop() *Scope {
	top := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	return top
}

func (s *ScopeStack) Top() *Scope { return s.scopes[len(s.scopes)-1] }

// InLoop reports whether any enclosing scope is a loop, and returns the
// nearest one (for `break`/`next`).
func (s *ScopeStack) InLoop() (*Scope, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].Kind == ScopeLoop {
			return s.scopes[i], true
		}
	}
	return nil, false
}

// Declare registers a newly bound variable as Available in the current
// scope.
func (s *ScopeStack) Declare(v types.VariableId) {
	s.Top().declare(v)
}

// State looks up a variable's move state, searching outward through
// enclosing scopes (a variable declared in an outer scope is visible, and
// its recorded state reflects moves observed so far in this linear walk).
func (s *ScopeStack) State(v types.VariableId) (mir.MoveState, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if st, ok := s.scopes[i].variables[v]; ok {
			return st, true
		}
	}
	return mir.Available, false
}

// SetState updates a variable's move state in whichever scope currently
// holds it.
func (s *ScopeStack) SetState(v types.VariableId, state mir.MoveState) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if _, ok := s.scopes[i].variables[v]; ok {
			s.scopes[i].variables[v] = state
			return
		}
	}
	// Variable declared above any tracked scope (e.g. a method argument):
	// track it in the method (bottom) scope.
	s.scopes[0].variables[v] = state
	s.scopes[0].order = append(s.scopes[0].order, v)
}

// JoinBranch merges the variable states observed along one branch of an
// if/match into the running state, using the mir.Join lattice (spec.md §3,
// reused here because HIR branching exhibits the same merge shape MIR
// blocks do, just without an explicit CFG yet).
func (s *ScopeStack) JoinBranch(branch map[types.VariableId]mir.MoveState) {
	for v, st := range branch {
		cur, ok := s.State(v)
		if !ok {
			s.SetState(v, st)
			continue
		}
		s.SetState(v, mir.Join(cur, st))
	}
}

// Snapshot captures the current state of every tracked variable, for
// comparing against after walking one branch of a conditional.
func (s *ScopeStack) Snapshot() map[types.VariableId]mir.MoveState {
	out := make(map[types.VariableId]mir.MoveState)
	for _, sc := range s.scopes {
		for v, st := range sc.variables {
			out[v] = st
		}
	}
	return out
}
