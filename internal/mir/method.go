package mir

import "forge.dev/emberc/internal/types"

// RegisterArena owns a method's registers, keyed by small-integer
// RegisterId (spec.md §3: "a registers arena mapping RegisterId → TypeRef").
type RegisterArena struct {
	regs []Register
}

func NewRegisterArena() *RegisterArena { return &RegisterArena{} }

func (a *RegisterArena) New(t types.TypeRef, kind RegisterKind) RegisterId {
	id := RegisterId(len(a.regs))
	a.regs = append(a.regs, Register{Id: id, Type: t, Kind: kind})
	return id
}

func (a *RegisterArena) Get(id RegisterId) *Register { return &a.regs[id] }

func (a *RegisterArena) Len() int { return len(a.regs) }

func (a *RegisterArena) All() []Register { return a.regs }

// Method is a MIR method: an ordered argument list, a register arena, and
// a control-flow graph of blocks with one start block (spec.md §3).
type Method struct {
	Id        types.MethodId
	Module    types.ModuleId
	Name      string
	Arguments []RegisterId
	Registers *RegisterArena
	Blocks    *BlockArena
	StartId   BlockId

	DropFlags DropFlags

	IsAsync bool
}

func NewMethod(id types.MethodId, mod types.ModuleId, name string) *Method {
	m := &Method{
		Id:        id,
		Module:    mod,
		Name:      name,
		Registers: NewRegisterArena(),
		Blocks:    NewBlockArena(),
		DropFlags: make(DropFlags),
	}
	m.StartId = m.Blocks.New()
	return m
}

// Walk invokes fn for every instruction in every block, in block-id order.
// C5's module-hash computation relies on this deterministic order.
func (m *Method) Walk(fn func(b *Block, idx int, ins *Instruction)) {
	for bi := range m.Blocks.blocks {
		b := &m.Blocks.blocks[bi]
		for ii := range b.Instructions {
			fn(b, ii, &b.Instructions[ii])
		}
	}
}
