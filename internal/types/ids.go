// Package types holds the data model shared by every compiler phase: type
// references, the entities stored in the symbol database, and the shape
// categories used to key generic specialization.
//
// Identifiers are small integers so they stay Copy, hashable, and cheap to
// store in the arena-style tables used throughout the MIR and back end,
// mirroring how the teacher's backend IR keys functions and globals by
// integer index rather than by pointer (tinyrange-rtg std/compiler/ir.go).
package types

// ClassId identifies a class entity in the Database.
type ClassId uint32

// TraitId identifies a trait entity in the Database.
type TraitId uint32

// MethodId identifies a method entity in the Database.
type MethodId uint32

// FieldId identifies a field entity in the Database.
type FieldId uint16

// VariableId identifies a local variable entity.
type VariableId uint32

// ConstantId identifies a top-level constant entity.
type ConstantId uint32

// ModuleId identifies a source module.
type ModuleId uint32

// TypeParameterId identifies a generic type parameter, rigid or free.
type TypeParameterId uint32

// ClosureId identifies a synthesized closure class.
type ClosureId uint32

// ForeignId identifies a foreign (extern) type.
type ForeignId uint32

// Limits from §7: fatal if exceeded.
const (
	MaxModules    = ^uint32(0)
	MaxClasses    = ^uint32(0)
	MaxMethods    = ^uint32(0)
	MaxFields     = ^uint16(0)
	MaxMethodsPer = ^uint16(0) - 1
)
