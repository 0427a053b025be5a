// Package program assembles the inputs a compilation run needs — a
// types.Database and the HIR bodies for every method — into the in-memory
// form the pipeline packages consume. The surface-syntax parser that would
// normally populate a symbol table is an external collaborator (spec.md
// §1); this package is the map-backed stand-in a driver uses to run the
// pipeline end-to-end, the same role a compiler's "session"/"world" struct
// plays in the pack's other compiler repos.
package program

import (
	"sort"

	"forge.dev/emberc/internal/hir"
	"forge.dev/emberc/internal/types"
)

// Database is an in-memory types.Database built entirely from maps keyed
// by id, with no I/O or parsing behind it.
type Database struct {
	classes        map[types.ClassId]*types.Class
	traits         map[types.TraitId]*types.Trait
	methods        map[types.MethodId]*types.Method
	variables      map[types.VariableId]*types.Variable
	constants      map[types.ConstantId]*types.Constant
	modules        map[types.ModuleId]*types.Module
	typeParams     map[types.TypeParameterId]*types.TypeParameter
	intrinsics     map[string]types.MethodId
	classMethods   map[types.ClassId][]types.MethodId
	paramBounds    map[types.TypeParameterId][]types.TraitId
}

// NewDatabase returns an empty Database ready for Add* calls.
func NewDatabase() *Database {
	return &Database{
		classes:      make(map[types.ClassId]*types.Class),
		traits:       make(map[types.TraitId]*types.Trait),
		methods:      make(map[types.MethodId]*types.Method),
		variables:    make(map[types.VariableId]*types.Variable),
		constants:    make(map[types.ConstantId]*types.Constant),
		modules:      make(map[types.ModuleId]*types.Module),
		typeParams:   make(map[types.TypeParameterId]*types.TypeParameter),
		intrinsics:   make(map[string]types.MethodId),
		classMethods: make(map[types.ClassId][]types.MethodId),
		paramBounds:  make(map[types.TypeParameterId][]types.TraitId),
	}
}

func (d *Database) AddClass(c *types.Class) {
	d.classes[c.Id] = c
	d.classMethods[c.Id] = append(d.classMethods[c.Id], c.Methods...)
}

func (d *Database) AddTrait(t *types.Trait)       { d.traits[t.Id] = t }
func (d *Database) AddMethod(m *types.Method)     { d.methods[m.Id] = m }
func (d *Database) AddVariable(v *types.Variable) { d.variables[v.Id] = v }
func (d *Database) AddConstant(c *types.Constant) { d.constants[c.Id] = c }
func (d *Database) AddModule(m *types.Module)     { d.modules[m.Id] = m }

func (d *Database) AddTypeParameter(p *types.TypeParameter) {
	d.typeParams[p.Id] = p
	d.paramBounds[p.Id] = p.Bounds
}

func (d *Database) AddIntrinsic(name string, id types.MethodId) { d.intrinsics[name] = id }

func (d *Database) Class(id types.ClassId) *types.Class             { return d.classes[id] }
func (d *Database) Trait(id types.TraitId) *types.Trait             { return d.traits[id] }
func (d *Database) Method(id types.MethodId) *types.Method          { return d.methods[id] }
func (d *Database) Variable(id types.VariableId) *types.Variable    { return d.variables[id] }
func (d *Database) Constant(id types.ConstantId) *types.Constant    { return d.constants[id] }
func (d *Database) Module(id types.ModuleId) *types.Module          { return d.modules[id] }
func (d *Database) TypeParameter(id types.TypeParameterId) *types.TypeParameter {
	return d.typeParams[id]
}

func (d *Database) Intrinsic(name string) (types.MethodId, bool) {
	id, ok := d.intrinsics[name]
	return id, ok
}

func (d *Database) MethodsOf(id types.ClassId) []types.MethodId { return d.classMethods[id] }

func (d *Database) Bounds(id types.TypeParameterId) []types.TraitId { return d.paramBounds[id] }

// ClassesIn returns every class declared in mod, ordered by id so that
// content hashing downstream (internal/split) is reproducible across runs
// regardless of map iteration order.
func (d *Database) ClassesIn(mod types.ModuleId) []types.ClassId {
	var out []types.ClassId
	for id, c := range d.classes {
		if c.Module == mod {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ConstantsIn returns every constant declared in mod, ordered by id.
func (d *Database) ConstantsIn(mod types.ModuleId) []types.ConstantId {
	var out []types.ConstantId
	for id, c := range d.constants {
		if c.Module == mod {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MethodsIn returns every method declared in mod, ordered by id.
func (d *Database) MethodsIn(mod types.ModuleId) []types.MethodId {
	var out []types.MethodId
	for id, m := range d.methods {
		if m.Module == mod {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Unit pairs a method's declaration with the HIR body the checker and
// lowerer walk, plus the formal parameters' pre-allocated variable ids
// (spec.md §4.2: arguments are bound before the body is checked).
type Unit struct {
	Decl    *types.Method
	ArgVars []types.VariableId
	Body    *hir.Method
}

// Program is everything one compilation run needs: the symbol table and
// every method body to check, lower, and emit, grouped into source modules
// in compilation order.
type Program struct {
	DB        *Database
	Units     map[types.MethodId]*Unit
	ModuleIDs []types.ModuleId
	Constants []*hir.ConstantDef
	// ConstantNames maps a constant id to its declared name, for the
	// evaluator's circular-dependency diagnostics.
	ConstantNames map[types.ConstantId]string

	// Dependencies lists, for each module, the modules it imports — the
	// edges symbols.Graph needs to propagate a "changed" mark (spec.md
	// §4.5 item 4).
	Dependencies map[types.ModuleId][]types.ModuleId

	// Entry, when non-nil, tells the driver to synthesize and emit the
	// $main module alongside the program's own modules (spec.md §4.6).
	Entry *EntryConfig
}

// EntryConfig mirrors codegen.EntryConfig; kept here (rather than importing
// internal/codegen from internal/program) so internal/program has no
// dependency on the LLVM binding.
type EntryConfig struct {
	MainModule  types.ModuleId
	MainClass   types.ClassId
	StartMethod types.MethodId
	EntrySymbol string
}
