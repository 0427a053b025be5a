package codegen

import (
	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/symbolname"
	"forge.dev/emberc/internal/types"
)

// EntryConfig names the pieces BuildEntryModule needs from the rest of the
// compilation: the Main process class to spawn and the method that starts
// it running.
type EntryConfig struct {
	MainModule  types.ModuleId
	MainClass   types.ClassId
	StartMethod types.MethodId
	EntrySymbol string // defaults to "main" when empty, for linking with the C runtime's _start

	// SetupOrder lists every module (in dependency order) whose
	// setup_classes/setup_constants functions must run before the Main
	// process is spawned (spec.md §4.6 step 2, step 4).
	SetupOrder []types.ModuleId
}

// BuildEntryModule synthesizes the $main module: a single method that
// initializes the runtime, spawns the program's Main process, sends it its
// start message, and runs the scheduler loop until every process has
// terminated (spec.md §4.6 "entry module generation"). The body is
// expressed directly in MIR — there is no HIR for a synthesized entry
// point, so C3's lowerer is bypassed here.
func BuildEntryModule(cfg EntryConfig) (*mir.Module, *mir.Method) {
	entryID := types.MethodId(^uint32(0)) // reserved id, outside the Database's allocated range
	name := cfg.EntrySymbol
	if name == "" {
		name = "main"
	}
	m := mir.NewMethod(entryID, cfg.MainModule, name)

	start := m.Blocks.Get(m.StartId)

	initCall := mir.Instruction{Op: mir.OpCallBuiltin, Call: mir.CallOp{Builtin: "RuntimeInit"}}

	instructions := []mir.Instruction{initCall}
	for _, id := range cfg.SetupOrder {
		instructions = append(instructions,
			mir.Instruction{Op: mir.OpCallExtern, Call: mir.CallOp{Builtin: SetupClassesSymbol(id)}},
			mir.Instruction{Op: mir.OpCallExtern, Call: mir.CallOp{Builtin: SetupConstantsSymbol(id)}},
		)
	}

	procReg := m.Registers.New(types.Owned(types.TypeId{Entity: types.EntityClass, Class: cfg.MainClass}), mir.RegRegular)
	spawn := mir.Instruction{Op: mir.OpSpawn, Mem: mir.MemOp{Dst: procReg, Class: cfg.MainClass}}
	send := mir.Instruction{Op: mir.OpSend, Send: mir.SendOp{Receiver: procReg, Method: cfg.StartMethod}}
	run := mir.Instruction{Op: mir.OpCallBuiltin, Call: mir.CallOp{Builtin: "RuntimeRunScheduler"}}
	instructions = append(instructions, spawn, send, run)

	exitReg := m.Registers.New(types.TypeRef{Kind: types.KindUnknown}, mir.RegRegular)
	loadExit := mir.Instruction{Op: mir.OpLoadImmediate, Const: mir.ConstOp{Dst: exitReg, IntValue: 0}}
	instructions = append(instructions, loadExit)

	start.Instructions = append(instructions, mir.Return(exitReg))

	mod := &mir.Module{
		Id:      cfg.MainModule,
		Name:    symbolname.MainModuleName,
		Methods: []types.MethodId{entryID},
	}
	return mod, m
}
