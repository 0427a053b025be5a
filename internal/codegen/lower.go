package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/types"
)

// ModuleBuilder lowers one mir.Module's methods into an llvm.Module. Every
// runtime-provided operation (allocation, refcounting, process messaging,
// string/array builtins) is emitted as a call to an externally-declared
// runtime symbol rather than inlined, per spec.md §6's runtime-function
// contract — the runtime itself is an external collaborator.
type ModuleBuilder struct {
	ctx     llvm.Context
	mod     llvm.Module
	builder llvm.Builder

	runtime map[string]llvm.Value

	wordType  llvm.Type
	fnByID    map[types.MethodId]llvm.Value
	blockByID map[mir.BlockId]llvm.BasicBlock
	regByID   map[mir.RegisterId]llvm.Value
}

// NewModuleBuilder prepares an empty LLVM module named name.
func NewModuleBuilder(name string) *ModuleBuilder {
	ctx := llvm.NewContext()
	b := &ModuleBuilder{
		ctx:      ctx,
		mod:      ctx.NewModule(name),
		builder:  ctx.NewBuilder(),
		runtime:  make(map[string]llvm.Value),
		wordType: ctx.Int64Type(),
	}
	return b
}

// Dispose releases the underlying LLVM context and builder.
func (b *ModuleBuilder) Dispose() {
	b.builder.Dispose()
	b.ctx.Dispose()
}

// Module returns the built llvm.Module, ready for Target.EmitObject.
func (b *ModuleBuilder) Module() llvm.Module { return b.mod }

// runtimeFunc lazily declares an external runtime function of the
// given arity, all-word-sized signature (the runtime ABI spec.md §6
// describes as opaque to the core beyond name + arity).
func (b *ModuleBuilder) runtimeFunc(name string, argc int) llvm.Value {
	if fn, ok := b.runtime[name]; ok {
		return fn
	}
	args := make([]llvm.Type, argc)
	for i := range args {
		args[i] = b.wordType
	}
	fnType := llvm.FunctionType(b.wordType, args, false)
	fn := llvm.AddFunction(b.mod, name, fnType)
	b.runtime[name] = fn
	return fn
}

// LowerMethods declares every method in methods as an LLVM function, then
// lowers each one's instructions. Declaring all functions first lets any
// method's CallStatic/CallInstance reference another method in the same
// module regardless of emission order.
func (b *ModuleBuilder) LowerMethods(order []types.MethodId, methods map[types.MethodId]*mir.Method) error {
	b.fnByID = make(map[types.MethodId]llvm.Value, len(methods))
	for _, id := range order {
		m := methods[id]
		if m == nil {
			continue
		}
		argTypes := make([]llvm.Type, len(m.Arguments))
		for i := range argTypes {
			argTypes[i] = b.wordType
		}
		fnType := llvm.FunctionType(b.wordType, argTypes, false)
		b.fnByID[id] = llvm.AddFunction(b.mod, symbolNameOf(m), fnType)
	}

	for _, id := range order {
		m := methods[id]
		if m == nil {
			continue
		}
		if err := b.lowerMethod(m); err != nil {
			return fmt.Errorf("codegen: lowering %s: %w", m.Name, err)
		}
	}
	return nil
}

func symbolNameOf(m *mir.Method) string {
	return fmt.Sprintf("%d$%s", m.Module, m.Name)
}

// SetupClassesSymbol and SetupConstantsSymbol name the per-module
// initialization functions spec.md §4.6 step 4 requires: one registers the
// module's classes with the runtime's class table, the other evaluates and
// installs its constants, both called in order from $main before any
// process is spawned (step 2).
func SetupClassesSymbol(id types.ModuleId) string   { return fmt.Sprintf("%d$setup_classes", id) }
func SetupConstantsSymbol(id types.ModuleId) string { return fmt.Sprintf("%d$setup_constants", id) }

// EmitSetupFunctions defines mod's setup_classes and setup_constants
// functions: each registers its module's classes/constants with the
// runtime one at a time via an immediate-class/constant-id runtime call,
// the same call shape OpAllocate already uses for a class id (spec.md
// §4.6 step 4).
func (b *ModuleBuilder) EmitSetupFunctions(mod *mir.Module) {
	b.emitSetupFunction(SetupClassesSymbol(mod.Id), "RegisterClass", len(mod.Classes), func(i int) int64 {
		return int64(mod.Classes[i])
	})
	b.emitSetupFunction(SetupConstantsSymbol(mod.Id), "RegisterConstant", len(mod.Constants), func(i int) int64 {
		return int64(mod.Constants[i])
	})
}

func (b *ModuleBuilder) emitSetupFunction(symbol, runtimeCall string, count int, idAt func(int) int64) {
	fnType := llvm.FunctionType(b.wordType, nil, false)
	fn := llvm.AddFunction(b.mod, symbol, fnType)
	entry := b.ctx.AddBasicBlock(fn, "entry")
	b.builder.SetInsertPointAtEnd(entry)

	for i := 0; i < count; i++ {
		b.runtimeCallImm(runtimeCall, idAt(i))
	}
	b.builder.CreateRet(llvm.ConstInt(b.wordType, 0, false))
}

func (b *ModuleBuilder) lowerMethod(m *mir.Method) error {
	fn := b.fnByID[m.Id]
	b.blockByID = make(map[mir.BlockId]llvm.BasicBlock, m.Blocks.Len())
	b.regByID = make(map[mir.RegisterId]llvm.Value, m.Registers.Len())

	for i := 0; i < m.Blocks.Len(); i++ {
		id := mir.BlockId(i)
		label := fmt.Sprintf("bb%d", id)
		b.blockByID[id] = b.ctx.AddBasicBlock(fn, label)
	}

	for i, reg := range m.Arguments {
		b.regByID[reg] = fn.Param(i)
	}

	for i := 0; i < m.Blocks.Len(); i++ {
		id := mir.BlockId(i)
		blk := m.Blocks.Get(id)
		b.builder.SetInsertPointAtEnd(b.blockByID[id])
		for idx := range blk.Instructions {
			if err := b.lowerInstruction(m, &blk.Instructions[idx]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *ModuleBuilder) reg(id mir.RegisterId) llvm.Value {
	if v, ok := b.regByID[id]; ok {
		return v
	}
	zero := llvm.ConstInt(b.wordType, 0, false)
	b.regByID[id] = zero
	return zero
}

func (b *ModuleBuilder) setReg(id mir.RegisterId, v llvm.Value) { b.regByID[id] = v }

func (b *ModuleBuilder) lowerInstruction(m *mir.Method, ins *mir.Instruction) error {
	switch ins.Op {
	case mir.OpLoadImmediate:
		b.setReg(ins.Const.Dst, llvm.ConstInt(b.wordType, uint64(ins.Const.IntValue), true))

	case mir.OpIntAdd:
		b.setReg(ins.Bin.Dst, b.builder.CreateAdd(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntSub:
		b.setReg(ins.Bin.Dst, b.builder.CreateSub(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntMul:
		b.setReg(ins.Bin.Dst, b.builder.CreateMul(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntDiv:
		b.setReg(ins.Bin.Dst, b.builder.CreateSDiv(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntMod:
		b.setReg(ins.Bin.Dst, b.builder.CreateSRem(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntBitAnd:
		b.setReg(ins.Bin.Dst, b.builder.CreateAnd(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntBitOr:
		b.setReg(ins.Bin.Dst, b.builder.CreateOr(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntBitXor:
		b.setReg(ins.Bin.Dst, b.builder.CreateXor(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntShl:
		b.setReg(ins.Bin.Dst, b.builder.CreateShl(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntShr:
		b.setReg(ins.Bin.Dst, b.builder.CreateAShr(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntUshr:
		b.setReg(ins.Bin.Dst, b.builder.CreateLShr(b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), ""))
	case mir.OpIntEq:
		cmp := b.builder.CreateICmp(llvm.IntEQ, b.reg(ins.Bin.Lhs), b.reg(ins.Bin.Rhs), "")
		b.setReg(ins.Bin.Dst, b.builder.CreateZExt(cmp, b.wordType, ""))

	case mir.OpCallBuiltin, mir.OpCallExtern:
		fn := b.runtimeFunc(ins.Call.Builtin, len(ins.Call.Args))
		args := make([]llvm.Value, len(ins.Call.Args))
		for i, a := range ins.Call.Args {
			args[i] = b.reg(a)
		}
		call := b.builder.CreateCall(fn.GlobalValueType(), fn, args, "")
		if ins.Call.HasDst {
			b.setReg(ins.Call.Dst, call)
		}

	case mir.OpCallStatic, mir.OpCallInstance:
		fn, ok := b.fnByID[ins.Call.Method]
		if !ok {
			fn = b.runtimeFunc(fmt.Sprintf("method_%d", ins.Call.Method), len(ins.Call.Args)+1)
		}
		args := make([]llvm.Value, 0, len(ins.Call.Args)+1)
		args = append(args, b.reg(ins.Call.Receiver))
		for _, a := range ins.Call.Args {
			args = append(args, b.reg(a))
		}
		call := b.builder.CreateCall(fn.GlobalValueType(), fn, args, "")
		if ins.Call.HasDst {
			b.setReg(ins.Call.Dst, call)
		}

	case mir.OpSend:
		fn := b.runtimeFunc("ProcessSendMessage", len(ins.Send.Args)+1)
		args := make([]llvm.Value, 0, len(ins.Send.Args)+1)
		args = append(args, b.reg(ins.Send.Receiver))
		for _, a := range ins.Send.Args {
			args = append(args, b.reg(a))
		}
		b.builder.CreateCall(fn.GlobalValueType(), fn, args, "")

	case mir.OpIncrement:
		b.runtimeCall1("RefcountIncrement", ins.Un.Src)
	case mir.OpDecrement:
		b.runtimeCall1("RefcountDecrement", ins.Un.Src)
	case mir.OpIncrementAtomic:
		b.runtimeCall1("RefcountIncrementAtomic", ins.Un.Src)
	case mir.OpDecrementAtomic:
		b.runtimeCall1("RefcountDecrementAtomic", ins.Un.Src)
	case mir.OpCheckRefs:
		b.setReg(ins.Un.Dst, b.runtimeCall1("RefcountIsZero", ins.Un.Src))
	case mir.OpFree:
		b.runtimeCallMem("Free", ins.Mem.Src)
	case mir.OpCallDropper:
		fn, ok := b.fnByID[ins.Call.Method]
		if !ok {
			fn = b.runtimeFunc("NoopDropper", 1)
		}
		b.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{b.reg(ins.Call.Receiver)}, "")

	case mir.OpAllocate:
		b.setReg(ins.Mem.Dst, b.runtimeCallImm("Allocate", int64(ins.Mem.Class)))
	case mir.OpSpawn:
		b.setReg(ins.Mem.Dst, b.runtimeCallImm("Spawn", int64(ins.Mem.Class)))
	case mir.OpGetField:
		b.setReg(ins.Mem.Dst, b.runtimeCallField("GetField", ins.Mem.Src, ins.Mem.Field))
	case mir.OpSetField:
		fn := b.runtimeFunc("SetField", 3)
		field := llvm.ConstInt(b.wordType, uint64(ins.Mem.Field), false)
		b.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{b.reg(ins.Mem.Src), field, b.reg(ins.Mem.Value)}, "")

	case mir.OpGoto:
		b.builder.CreateBr(b.blockByID[ins.Control.Targets[0]])
	case mir.OpBranch:
		cond := b.builder.CreateICmp(llvm.IntNE, b.reg(ins.Control.Cond), llvm.ConstInt(b.wordType, 0, false), "")
		b.builder.CreateCondBr(cond, b.blockByID[ins.Control.Targets[0]], b.blockByID[ins.Control.Targets[1]])
	case mir.OpSwitchKind, mir.OpSwitch:
		sw := b.builder.CreateSwitch(b.reg(ins.Control.Cond), b.blockByID[ins.Control.Targets[0]], len(ins.Control.Targets))
		for i, t := range ins.Control.Targets {
			sw.AddCase(llvm.ConstInt(b.wordType, uint64(i), false), b.blockByID[t])
		}
	case mir.OpReturn:
		b.builder.CreateRet(b.reg(ins.Control.Value))
	case mir.OpFinish:
		if ins.Control.Finish == mir.FinishTerminate {
			b.runtimeFunc("ProcessTerminate", 0)
		}
		b.builder.CreateRet(b.reg(ins.Control.Value))

	case mir.OpPreempt:
		// Compares this process's epoch against the scheduler's global
		// epoch and yields when they diverge (spec.md line 188).
		epoch := b.runtimeCall1("ProcessEpoch", ins.Un.Src)
		global := b.runtimeFunc("SchedulerEpoch", 0)
		globalVal := b.builder.CreateCall(global.GlobalValueType(), global, nil, "")
		diverged := b.builder.CreateICmp(llvm.IntNE, epoch, globalVal, "")
		cur := b.builder.GetInsertBlock()
		fn := cur.Parent()
		yieldBlk := b.ctx.AddBasicBlock(fn, "preempt.yield")
		contBlk := b.ctx.AddBasicBlock(fn, "preempt.cont")
		b.builder.CreateCondBr(diverged, yieldBlk, contBlk)

		b.builder.SetInsertPointAtEnd(yieldBlk)
		b.runtimeCall1("ProcessYield", ins.Un.Src)
		b.builder.CreateBr(contBlk)

		b.builder.SetInsertPointAtEnd(contBlk)

	case mir.OpCast, mir.OpPointerLoad, mir.OpPointerStore, mir.OpMoveRegister:
		// Pure bookkeeping at this lowering stage: a move/cast/pointer
		// op's destination aliases its source register's LLVM value.
		if ins.Un.Dst != 0 {
			b.setReg(ins.Un.Dst, b.reg(ins.Un.Src))
		}
	}
	return nil
}

func (b *ModuleBuilder) runtimeCall1(name string, reg mir.RegisterId) llvm.Value {
	fn := b.runtimeFunc(name, 1)
	return b.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{b.reg(reg)}, "")
}

func (b *ModuleBuilder) runtimeCallMem(name string, reg mir.RegisterId) llvm.Value {
	return b.runtimeCall1(name, reg)
}

func (b *ModuleBuilder) runtimeCallImm(name string, imm int64) llvm.Value {
	fn := b.runtimeFunc(name, 1)
	return b.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{llvm.ConstInt(b.wordType, uint64(imm), true)}, "")
}

func (b *ModuleBuilder) runtimeCallField(name string, reg mir.RegisterId, field types.FieldId) llvm.Value {
	fn := b.runtimeFunc(name, 2)
	f := llvm.ConstInt(b.wordType, uint64(field), false)
	return b.builder.CreateCall(fn.GlobalValueType(), fn, []llvm.Value{b.reg(reg), f}, "")
}
