// Package consteval implements C1: resolving typed HIR top-level constants
// (literals, binary ops, array/string) with fixed-point resolution over
// dependency order (spec.md §4.1).
package consteval

import "forge.dev/emberc/internal/types"

// ValueKind is the closed set of constant value shapes.
type ValueKind uint8

const (
	ValueInt ValueKind = iota
	ValueFloat
	ValueString
	ValueArray
)

// Value is a resolved constant value.
type Value struct {
	Kind ValueKind

	Int    int64
	Float  float64
	String string
	Array  []Value
}

func Int(v int64) Value      { return Value{Kind: ValueInt, Int: v} }
func Float(v float64) Value  { return Value{Kind: ValueFloat, Float: v} }
func String(v string) Value  { return Value{Kind: ValueString, String: v} }
func Array(v []Value) Value  { return Value{Kind: ValueArray, Array: v} }

// Table is the ConstantId → ConstantValue output of C1.
type Table map[types.ConstantId]Value
