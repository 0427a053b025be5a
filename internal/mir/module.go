package mir

import (
	"forge.dev/emberc/internal/symbolname"
	"forge.dev/emberc/internal/types"
)

// Module holds ordered lists of classes, methods, and constants belonging
// to one MIR module (spec.md §3). After splitting (§4.5), exactly one
// module owns any given specialized generic class and its non-static
// methods.
type Module struct {
	Id   types.ModuleId
	Name symbolname.ModuleName

	// OriginalName retains the source module name for symbolication even
	// after this module was produced by splitting (§4.5: "The original
	// source name is retained for symbolication").
	OriginalName symbolname.ModuleName

	Classes   []types.ClassId
	Methods   []types.MethodId
	Constants []types.ConstantId
}

// Mir is the whole program's MIR: every module, plus the method bodies
// keyed by MethodId (kept out-of-line from Module so splitting can move a
// method between modules by just touching the index lists).
type Mir struct {
	Modules []*Module
	Methods map[types.MethodId]*Method
}

func NewMir() *Mir {
	return &Mir{Methods: make(map[types.MethodId]*Method)}
}

func (p *Mir) AddModule(m *Module) { p.Modules = append(p.Modules, m) }

func (p *Mir) ModuleByName(name symbolname.ModuleName) *Module {
	for _, m := range p.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}
