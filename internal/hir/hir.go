// Package hir defines the shape of the typed HIR the core consumes at its
// input boundary (spec.md §6: "Typed HIR ... from the type checker's
// earlier phases"). The surface-syntax parser that produces it is an
// external collaborator; this package only names the tree shape C1/C2/C3
// walk.
package hir

import "forge.dev/emberc/internal/types"

// ExprKind is the closed set of HIR node kinds the core understands.
type ExprKind uint8

const (
	ExprIntLiteral ExprKind = iota
	ExprFloatLiteral
	ExprStringLiteral
	ExprBoolLiteral
	ExprArrayLiteral
	ExprConstantRef
	ExprVariableRef
	ExprFieldRef
	ExprSelf
	ExprBinary
	ExprAssignVariable
	ExprAssignField
	ExprCall
	ExprIf
	ExprLoop
	ExprBreak
	ExprNext
	ExprReturn
	ExprThrow
	ExprTry
	ExprMatch
	ExprClosure
	ExprRef
	ExprMut
	ExprRecover
	ExprBlock
)

// BinOp is the set of surface binary operators the checker and constant
// evaluator understand.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpUshr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpPow
	OpConcat // string concatenation
)

// Expr is one HIR node. Like mir.Instruction, it is a closed tagged union:
// Kind selects which payload fields are meaningful.
type Expr struct {
	Kind ExprKind
	Type types.TypeRef

	// Literals.
	IntValue    int64
	FloatValue  float64
	StringValue string
	BoolValue   bool
	Elements    []*Expr // ExprArrayLiteral

	// References.
	Constant types.ConstantId
	Variable types.VariableId
	Field    types.FieldId
	Receiver *Expr // ExprFieldRef/ExprAssignField/ExprCall

	// Binary.
	Op          BinOp
	Left, Right *Expr

	// Assignment.
	Value *Expr

	// Call.
	Method    types.MethodId
	Arguments []Argument

	// Control flow.
	Condition  *Expr
	Then, Else *Expr
	Body       *Expr
	Statements []*Expr // ExprBlock

	// Try/throw/match.
	Cases []MatchCase

	// Closure.
	Closure *ClosureLiteral

	// Ref/Mut/Recover.
	Inner *Expr
	Move  bool // ExprClosure / ExprRecover: whether this is `fn move`
}

// Argument is a positional or named call argument.
type Argument struct {
	Name  string
	Named bool
	Value *Expr
}

// MatchCase is one arm of a match expression: a pattern, optional guard,
// and body (spec.md §4.3.2).
type MatchCase struct {
	Pattern *Pattern
	Guard   *Expr
	Body    *Expr
}

// PatternKind is the closed set of pattern shapes the decision-tree
// compiler (§4.3.2) dispatches on.
type PatternKind uint8

const (
	PatternWildcard PatternKind = iota
	PatternBinding
	PatternBool
	PatternInt
	PatternString
	PatternTuple
	PatternClass
	PatternVariant
)

// Pattern is one HIR pattern node.
type Pattern struct {
	Kind PatternKind
	Type types.TypeRef

	Variable types.VariableId // PatternBinding
	BoolVal  bool
	IntVal   int64
	StrVal   string

	Class   types.ClassId     // PatternClass/PatternVariant
	Variant int               // PatternVariant: ordinal index into the enum's variant fields
	Fields  []*Pattern        // PatternTuple/PatternClass/PatternVariant sub-patterns, in field order
	NonIncrement []bool       // parallel to Fields: true if a sub-binding must not increment refcount
}

// ClosureLiteral captures the declared captures and body of a closure
// expression (spec.md §4.2 Closures).
type ClosureLiteral struct {
	Class    types.ClosureId
	Captures []Capture
	Params   []types.VariableId
	Body     *Expr
	Moving   bool // `fn move`
}

// Capture describes one variable captured by a closure.
type Capture struct {
	Variable types.VariableId
	Field    types.FieldId
	ByMove   bool
}

// Method is a HIR method body together with its declared signature
// information needed by the checker and lowerer.
type Method struct {
	Id       types.MethodId
	Receiver types.TypeRef
	Body     *Expr // nil for an extern/abstract method; a method with no
	                // expressions returns Nil per spec.md §8.
}

// ConstantDef is a top-level constant's HIR initializer.
type ConstantDef struct {
	Id   types.ConstantId
	Init *Expr
}
