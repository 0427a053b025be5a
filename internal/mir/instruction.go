package mir

import "forge.dev/emberc/internal/types"

// Op enumerates every MIR instruction kind named in spec.md §3. The set is
// closed; all traversal (C4 expansion, C6 lowering) switches on Op rather
// than using virtual dispatch, per the "tagged polymorphism" guidance in
// spec.md §9.
type Op uint8

const (
	// Arithmetic / bitwise intrinsics.
	OpIntAdd Op = iota
	OpIntSub
	OpIntMul
	OpIntDiv
	OpIntMod
	OpIntBitAnd
	OpIntBitOr
	OpIntBitXor
	OpIntShl
	OpIntShr
	OpIntUshr
	OpIntPow
	OpIntCheckedAdd
	OpIntCheckedSub
	OpIntCheckedMul
	OpIntCheckedShl
	OpIntCheckedShr
	OpFloatAdd
	OpFloatSub
	OpFloatMul
	OpFloatDiv
	OpFloatMod
	OpFloatPow
	OpIntEq
	OpStringEq

	// Memory.
	OpAllocate
	OpSpawn
	OpFree
	OpGetField
	OpSetField
	OpFieldPointer

	// Control.
	OpGoto
	OpBranch
	OpSwitch
	OpSwitchKind
	OpReturn
	OpFinish

	// Calls.
	OpCallStatic
	OpCallInstance
	OpCallDynamic
	OpCallClosure
	OpCallDropper
	OpCallExtern
	OpCallBuiltin

	// Ownership.
	OpMoveRegister
	OpReference
	OpDrop
	OpIncrement
	OpDecrement
	OpIncrementAtomic
	OpDecrementAtomic
	OpCheckRefs

	// Casts / pointers / concurrency.
	OpCast
	OpPointerLoad
	OpPointerStore
	OpPreempt
	OpSend

	// Immediate materialization: load a literal int/float/string/bool into
	// a fresh register, the MIR counterpart of an LLVM ConstantInt/
	// ConstantFP/global string constant (C6 lowers this straight to the
	// target code builder's constant API).
	OpLoadImmediate
)

// FinishKind distinguishes a normal Finish from Finish(terminate) emitted
// for async methods' implicit return (spec.md §4.3.1 Return/Throw).
type FinishKind uint8

const (
	FinishNormal FinishKind = iota
	FinishTerminate
)

// BinOp is the payload shared by every two-operand arithmetic/bitwise/
// comparison instruction.
type BinOp struct {
	Dst RegisterId
	Lhs RegisterId
	Rhs RegisterId
}

// UnOp is the payload shared by single-operand instructions: casts,
// reference/drop/increment/decrement, pointer loads.
type UnOp struct {
	Dst RegisterId
	Src RegisterId
}

// MemOp is the payload for Allocate/Spawn/Free/GetField/SetField/
// FieldPointer.
type MemOp struct {
	Dst    RegisterId
	Src    RegisterId
	Class  types.ClassId
	Field  types.FieldId
	Value  RegisterId
}

// ControlOp is the payload for Goto/Branch/Switch/SwitchKind/Return/
// Finish.
type ControlOp struct {
	Cond     RegisterId
	Targets  []BlockId // Goto: len 1. Branch: [then, else]. Switch/SwitchKind: indexed by tag/kind.
	Fallback *BlockId  // Switch: optional default arm.
	Value    RegisterId
	Finish   FinishKind
}

// CallOp is the payload for every Call* instruction.
type CallOp struct {
	Dst      RegisterId
	HasDst   bool
	Method   types.MethodId
	Receiver RegisterId
	Args     []RegisterId
	// Builtin names the runtime function symbol for CallExtern/CallBuiltin,
	// e.g. "StringConcat", "ProcessSendMessage" (§6 runtime-function
	// contract).
	Builtin string
}

// SendOp is the payload for Send: allocate a message, populate its
// argument array, call ProcessSendMessage (spec.md §4.6 step 3).
type SendOp struct {
	Receiver RegisterId
	Method   types.MethodId
	Args     []RegisterId
}

// ConstOp is the payload for LoadImmediate.
type ConstOp struct {
	Dst         RegisterId
	IntValue    int64
	FloatValue  float64
	StringValue string
	BoolValue   bool
}

// Instruction is a single MIR instruction: a closed tagged union over the
// payload structs above, selected by Op.
type Instruction struct {
	Op   Op
	Type types.TypeRef // result/operand type context, used by SwitchKind dispatch and drop/reference expansion

	Bin     BinOp
	Un      UnOp
	Mem     MemOp
	Control ControlOp
	Call    CallOp
	Send    SendOp
	Const   ConstOp

	// Location is an opaque source-location token threaded through from
	// HIR for diagnostics; zero when synthesized.
	Location uint32
}

func Goto(target BlockId) Instruction {
	return Instruction{Op: OpGoto, Control: ControlOp{Targets: []BlockId{target}}}
}

func Branch(cond RegisterId, then, els BlockId) Instruction {
	return Instruction{Op: OpBranch, Control: ControlOp{Cond: cond, Targets: []BlockId{then, els}}}
}

func Return(value RegisterId) Instruction {
	return Instruction{Op: OpReturn, Control: ControlOp{Value: value}}
}

func Finish(kind FinishKind) Instruction {
	return Instruction{Op: OpFinish, Control: ControlOp{Finish: kind}}
}

// IsTerminator reports whether the instruction ends a block.
func (i Instruction) IsTerminator() bool {
	switch i.Op {
	case OpGoto, OpBranch, OpSwitch, OpSwitchKind, OpReturn, OpFinish:
		return true
	default:
		return false
	}
}

// IsAbstractDrop reports whether the instruction is one of the two
// pseudo-instructions expanded by C4 (spec.md §4.4).
func (i Instruction) IsAbstractDrop() bool {
	return i.Op == OpDrop || i.Op == OpReference
}
