package types

import "fmt"

// Kind tags a TypeRef's variant. TypeRef is a closed sum type, per the
// "tagged polymorphism" guidance in spec.md §9: a single integer tag plus a
// payload big enough for the largest variant, matched on everywhere instead
// of being modeled as an interface with virtual dispatch.
type Kind uint8

const (
	KindOwned Kind = iota
	KindRef
	KindMut
	KindUni
	KindPointer
	KindAny
	KindPlaceholder
	KindNever
	KindError
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindOwned:
		return "owned"
	case KindRef:
		return "ref"
	case KindMut:
		return "mut"
	case KindUni:
		return "uni"
	case KindPointer:
		return "pointer"
	case KindAny:
		return "any"
	case KindPlaceholder:
		return "placeholder"
	case KindNever:
		return "never"
	case KindError:
		return "error"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// TypeId is the payload of an Owned/Ref/Mut/Uni/Pointer/Any TypeRef: the
// entity the reference denotes. It is itself a tagged union over the
// concrete entity kinds a type can resolve to.
type TypeId struct {
	Entity EntityKind
	Class  ClassId
	Trait  TraitId
	Closure ClosureId
	Param   TypeParameterId
	Foreign ForeignId
	Module  ModuleId
}

// EntityKind discriminates what a TypeId names.
type EntityKind uint8

const (
	EntityClass EntityKind = iota
	EntityTrait
	EntityClosure
	EntityRigidParameter
	EntityFreeParameter
	EntityForeign
	EntityModule
)

// PlaceholderId identifies a not-yet-resolved inference placeholder
// allocated during method-call construction (§4.2 step 1).
type PlaceholderId uint32

// TypeRef is a fully-tagged type reference. Every HIR and MIR node carries
// one; by the time code generation begins none may be Placeholder/Unknown
// (data-model invariant, spec.md §3).
type TypeRef struct {
	Kind        Kind
	Id          TypeId
	Placeholder PlaceholderId
}

func Owned(id TypeId) TypeRef { return TypeRef{Kind: KindOwned, Id: id} }
func Ref(id TypeId) TypeRef   { return TypeRef{Kind: KindRef, Id: id} }
func Mut(id TypeId) TypeRef   { return TypeRef{Kind: KindMut, Id: id} }
func Uni(id TypeId) TypeRef   { return TypeRef{Kind: KindUni, Id: id} }
func Pointer(id TypeId) TypeRef { return TypeRef{Kind: KindPointer, Id: id} }
func Any(id TypeId) TypeRef   { return TypeRef{Kind: KindAny, Id: id} }
func Placeholder(p PlaceholderId) TypeRef {
	return TypeRef{Kind: KindPlaceholder, Placeholder: p}
}

var Never = TypeRef{Kind: KindNever}
var ErrorType = TypeRef{Kind: KindError}
var Unknown = TypeRef{Kind: KindUnknown}

// IsResolved reports whether t carries no Placeholder/Unknown payload,
// i.e. whether it satisfies the data-model invariant required before code
// generation begins.
func (t TypeRef) IsResolved() bool {
	return t.Kind != KindPlaceholder && t.Kind != KindUnknown
}

// AsOwned returns the owned form of a reference-like TypeRef, used when
// re-typing a recovered or uniquely-owned value (§4.2 recover handling).
func (t TypeRef) AsOwned() TypeRef {
	switch t.Kind {
	case KindRef, KindMut, KindUni, KindPointer, KindAny:
		return Owned(t.Id)
	default:
		return t
	}
}

// WithKind returns a copy of t re-tagged with k, keeping the same Id. Used
// to rewrite a captured variable's exposed type to mut/ref under closure
// capture (§4.2 Closures).
func (t TypeRef) WithKind(k Kind) TypeRef {
	t.Kind = k
	return t
}

func (t TypeRef) String() string {
	switch t.Kind {
	case KindNever, KindError, KindUnknown:
		return t.Kind.String()
	case KindPlaceholder:
		return fmt.Sprintf("placeholder(%d)", t.Placeholder)
	default:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Id.String())
	}
}

func (id TypeId) String() string {
	switch id.Entity {
	case EntityClass:
		return fmt.Sprintf("class#%d", id.Class)
	case EntityTrait:
		return fmt.Sprintf("trait#%d", id.Trait)
	case EntityClosure:
		return fmt.Sprintf("closure#%d", id.Closure)
	case EntityRigidParameter:
		return fmt.Sprintf("rigid#%d", id.Param)
	case EntityFreeParameter:
		return fmt.Sprintf("param#%d", id.Param)
	case EntityForeign:
		return fmt.Sprintf("foreign#%d", id.Foreign)
	case EntityModule:
		return fmt.Sprintf("module#%d", id.Module)
	default:
		return "?"
	}
}

// IsRigidParameter reports whether t names a rigid generic parameter
// belonging to the enclosing method/class, as opposed to a free (caller
// supplied) one. Used throughout §4.2 for bound propagation.
func (t TypeRef) IsRigidParameter() bool {
	return (t.Kind == KindOwned || t.Kind == KindRef || t.Kind == KindMut || t.Kind == KindUni) &&
		t.Id.Entity == EntityRigidParameter
}

func ClassType(k Kind, id ClassId) TypeRef {
	return TypeRef{Kind: k, Id: TypeId{Entity: EntityClass, Class: id}}
}

func TraitType(k Kind, id TraitId) TypeRef {
	return TypeRef{Kind: k, Id: TypeId{Entity: EntityTrait, Trait: id}}
}

func RigidParam(k Kind, id TypeParameterId) TypeRef {
	return TypeRef{Kind: k, Id: TypeId{Entity: EntityRigidParameter, Param: id}}
}

func FreeParam(k Kind, id TypeParameterId) TypeRef {
	return TypeRef{Kind: k, Id: TypeId{Entity: EntityFreeParameter, Param: id}}
}
