// Package codegen implements C6: parallel lowering of MIR modules to native
// object files through an LLVM target code builder (spec.md §4.6), entry
// module ($main) synthesis, and the perfect-hash dynamic dispatch table
// used for trait-object/process method calls whose receiver's concrete
// class isn't known statically.
package codegen

import (
	"fmt"
	"sync"

	"tinygo.org/x/go-llvm"
)

var initOnce sync.Once

func initTargets() {
	initOnce.Do(func() {
		llvm.InitializeAllTargets()
		llvm.InitializeAllTargetMCs()
		llvm.InitializeAllTargetInfos()
		llvm.InitializeAllAsmParsers()
		llvm.InitializeAllAsmPrinters()
	})
}

// Target wraps the per-architecture LLVM target machine every worker in
// the parallel object emitter lowers against (spec.md §6 "opaque target
// code builder").
type Target struct {
	Triple string
	CPU    string
	machine llvm.TargetMachine
}

// NewTarget resolves triple to an LLVM target and configures a target
// machine for it, matching the per-architecture backend selection
// spec.md §1 names (amd64/arm64 initially).
func NewTarget(triple, cpu string) (*Target, error) {
	initTargets()

	t, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return nil, fmt.Errorf("codegen: resolving target triple %q: %w", triple, err)
	}

	machine := t.CreateTargetMachine(
		triple, cpu, "",
		llvm.CodeGenLevelDefault,
		llvm.RelocPIC,
		llvm.CodeModelDefault,
	)
	return &Target{Triple: triple, CPU: cpu, machine: machine}, nil
}

// RunOptPasses applies the minimum pass pipeline spec.md §4.6 step 5 calls
// for before object emission: promoting stack-allocated values to SSA
// registers (mem2reg).
func (t *Target) RunOptPasses(mod llvm.Module) {
	pm := llvm.NewPassManager()
	defer pm.Dispose()
	pm.AddPromoteMemoryToRegisterPass()
	pm.Run(mod)
}

// EmitObject runs the target machine's codegen pipeline over mod and
// returns the resulting object-file bytes.
func (t *Target) EmitObject(mod llvm.Module) ([]byte, error) {
	buf, err := t.machine.EmitToMemoryBuffer(mod, llvm.ObjectFile)
	if err != nil {
		return nil, fmt.Errorf("codegen: emitting object: %w", err)
	}
	bytes := buf.Bytes()
	out := make([]byte, len(bytes))
	copy(out, bytes)
	buf.Dispose()
	return out, nil
}
