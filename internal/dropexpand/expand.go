// Package dropexpand implements C4: it rewrites every abstract Drop and
// Reference pseudo-instruction a MIR method contains into the concrete
// refcounting/dropper sequence its operand's type requires (spec.md §4.4).
// When the operand's type isn't statically known precisely enough to pick a
// strategy at compile time, the expansion falls back to a runtime
// SwitchKind dispatch over the six RuntimeKind tags.
//
// Expansion runs as two in-place block-splitting passes — one for Drop, one
// for Reference — each walking every block of a method and, at every
// abstract instruction it finds, truncating the block, appending the
// concrete sequence (straight-line or branching), and re-linking the
// truncated tail as a new continuation block.
package dropexpand

import (
	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/types"
)

// category is the 5-way static classification an operand's type reduces to
// before the Drop/Reference dispatch table is consulted.
type category uint8

const (
	categoryValue category = iota
	categoryRegular
	categoryAtomic
	categoryAsync
	categoryEnum
)

// classCategory implements the static half of the dispatch table: every
// ClassKind maps onto one of the five categories (spec.md §4.4's per-kind
// drop strategy).
func classCategory(k types.ClassKind) category {
	switch k {
	case types.ClassValue, types.ClassExtern:
		return categoryValue
	case types.ClassAtomic:
		return categoryAtomic
	case types.ClassAsync:
		return categoryAsync
	case types.ClassEnum:
		return categoryEnum
	default: // ClassRegular, ClassClosure
		return categoryRegular
	}
}

// runtimeCategory implements the dynamic half: the six RuntimeKind tags a
// SwitchKind instruction dispatches on each reduce to one of the same five
// categories, so a single pair of expansion functions serves both the
// static and dynamic cases.
func runtimeCategory(k types.RuntimeKind) category {
	switch k {
	case types.RuntimeOwned:
		return categoryRegular
	case types.RuntimeAtomic:
		return categoryAtomic
	default: // RuntimeRef, RuntimePermanent, RuntimeInt, RuntimeFloat
		return categoryValue
	}
}

// Run expands every Drop/Reference pseudo-instruction in m. db resolves the
// static class of a register's type, when known.
func Run(m *mir.Method, db types.Database) {
	expandPass(m, db, mir.OpDrop)
	expandPass(m, db, mir.OpReference)
}

// expandPass scans every block for instructions of the given abstract op,
// splitting and rewriting each one in turn. Re-scanning restarts after
// every split because new blocks are appended to the arena and the current
// block's remaining instructions move to a new continuation block.
func expandPass(m *mir.Method, db types.Database, op mir.Op) {
	for i := 0; i < m.Blocks.Len(); i++ {
		for {
			b := m.Blocks.Get(mir.BlockId(i))
			idx := indexOfOp(b.Instructions, op)
			if idx < 0 {
				break
			}
			expandAt(m, db, mir.BlockId(i), idx, op)
		}
	}
}

func indexOfOp(ins []mir.Instruction, op mir.Op) int {
	for i, x := range ins {
		if x.Op == op {
			return i
		}
	}
	return -1
}

// expandAt rewrites the abstract instruction at (blockId, idx): the block
// is truncated at idx, the removed tail becomes a new continuation block
// that inherits the original block's outgoing edges, and the concrete
// expansion is appended to blockId (and any further blocks it branches
// into), every terminal arm ending with a Goto to the continuation.
func expandAt(m *mir.Method, db types.Database, blockId mir.BlockId, idx int, op mir.Op) {
	b := m.Blocks.Get(blockId)
	ins := b.Instructions[idx]
	tail := append([]mir.Instruction(nil), b.Instructions[idx+1:]...)
	b.Instructions = b.Instructions[:idx]

	cont := m.Blocks.New()
	m.Blocks.Get(cont).Instructions = tail

	for _, succ := range append([]mir.BlockId(nil), b.Successors...) {
		m.Blocks.Unlink(blockId, succ)
		m.Blocks.Link(cont, succ)
	}

	e := &expander{m: m, db: db}
	reg := ins.Un.Src

	cls, known := e.staticClass(ins.Type)
	switch {
	case known:
		e.expandCategory(blockId, classCategory(cls.Kind), op, reg, cls, cont)
	default:
		e.expandSwitchKind(blockId, op, reg, ins.Type, cont)
	}
}

type expander struct {
	m  *mir.Method
	db types.Database
}

func (e *expander) staticClass(t types.TypeRef) (*types.Class, bool) {
	if t.Id.Entity != types.EntityClass {
		return nil, false
	}
	c := e.db.Class(t.Id.Class)
	if c == nil {
		return nil, false
	}
	return c, true
}

// expandCategory appends the concrete sequence for one (category, op) cell
// of the 5x2 dispatch table directly to block b, finishing with a Goto to
// cont.
func (e *expander) expandCategory(b mir.BlockId, cat category, op mir.Op, reg mir.RegisterId, cls *types.Class, cont mir.BlockId) {
	blk := e.m.Blocks.Get(b)

	switch {
	case cat == categoryValue:
		// Value types are never refcounted; both Drop and Reference erase
		// to nothing.

	case op == mir.OpReference && cat == categoryAtomic:
		blk.Instructions = append(blk.Instructions, mir.Instruction{Op: mir.OpIncrementAtomic, Un: mir.UnOp{Src: reg}})

	case op == mir.OpReference:
		blk.Instructions = append(blk.Instructions, mir.Instruction{Op: mir.OpIncrement, Un: mir.UnOp{Src: reg}})

	case op == mir.OpDrop && cat == categoryAsync:
		// A process posts its own drop as an async message rather than
		// running a synchronous dropper (spec.md §4.6).
		dropper := types.MethodId(0)
		if cls != nil {
			dropper = cls.DropperId
		}
		blk.Instructions = append(blk.Instructions, mir.Instruction{
			Op:   mir.OpSend,
			Send: mir.SendOp{Receiver: reg, Method: dropper},
		})

	case op == mir.OpDrop && cat == categoryAtomic:
		e.expandRefcountedDrop(b, reg, cls, mir.OpDecrementAtomic, cont)
		return

	case op == mir.OpDrop && (cat == categoryRegular || cat == categoryEnum):
		e.expandRefcountedDrop(b, reg, cls, mir.OpDecrement, cont)
		return
	}

	e.m.Blocks.Link(b, cont)
	blk.Instructions = append(blk.Instructions, mir.Goto(cont))
}

// expandRefcountedDrop appends the branching decrement-then-maybe-free
// sequence shared by the Regular/Enum/Atomic rows: decrement, branch on
// CheckRefs, and only the zero-refs arm calls the class's dropper and
// frees the allocation before rejoining cont.
func (e *expander) expandRefcountedDrop(b mir.BlockId, reg mir.RegisterId, cls *types.Class, decOp mir.Op, cont mir.BlockId) {
	blk := e.m.Blocks.Get(b)
	blk.Instructions = append(blk.Instructions, mir.Instruction{Op: decOp, Un: mir.UnOp{Src: reg}})

	zero := e.m.Registers.New(types.TypeRef{Kind: types.KindUnknown}, mir.RegRegular)
	blk.Instructions = append(blk.Instructions, mir.Instruction{Op: mir.OpCheckRefs, Un: mir.UnOp{Dst: zero, Src: reg}})

	freeB := e.m.Blocks.New()
	blk.Instructions = append(blk.Instructions, mir.Branch(zero, freeB, cont))
	e.m.Blocks.Link(b, freeB)
	e.m.Blocks.Link(b, cont)

	freeBlk := e.m.Blocks.Get(freeB)
	if cls != nil && cls.HasDropper {
		freeBlk.Instructions = append(freeBlk.Instructions, mir.Instruction{
			Op:   mir.OpCallDropper,
			Call: mir.CallOp{Method: cls.DropperId, Receiver: reg},
		})
	}
	freeBlk.Instructions = append(freeBlk.Instructions, mir.Instruction{Op: mir.OpFree, Mem: mir.MemOp{Src: reg}})
	freeBlk.Instructions = append(freeBlk.Instructions, mir.Goto(cont))
	e.m.Blocks.Link(freeB, cont)
}

// expandSwitchKind handles an operand whose type isn't resolved to a
// specific class statically (a rigid/free type parameter, trait object, or
// Any): it emits a six-way SwitchKind and expands each arm using the same
// per-category logic as the static case, with no class, hence no
// CallDropper instruction in any arm: a generically-typed value's dropper
// is not called by this expansion.
func (e *expander) expandSwitchKind(b mir.BlockId, op mir.Op, reg mir.RegisterId, t types.TypeRef, cont mir.BlockId) {
	kinds := []types.RuntimeKind{
		types.RuntimeOwned, types.RuntimeRef, types.RuntimeAtomic,
		types.RuntimePermanent, types.RuntimeInt, types.RuntimeFloat,
	}

	targets := make([]mir.BlockId, len(kinds))
	for i, k := range kinds {
		arm := e.m.Blocks.New()
		targets[i] = arm
		e.m.Blocks.Link(b, arm)
		e.expandCategory(arm, runtimeCategory(k), op, reg, nil, cont)
	}

	blk := e.m.Blocks.Get(b)
	blk.Instructions = append(blk.Instructions, mir.Instruction{
		Op: mir.OpSwitchKind, Type: t,
		Control: mir.ControlOp{Cond: reg, Targets: targets},
	})
}
