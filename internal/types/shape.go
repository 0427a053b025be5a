package types

// Shape is the runtime representation category assigned to a generic type
// parameter during specialization. Specialization of a generic class is
// keyed by the ordered tuple of shapes of its parameters (spec.md §3).
type Shape uint8

const (
	ShapeInt Shape = iota
	ShapeFloat
	ShapeString
	ShapeBoolean
	ShapeRef
	ShapeMut
	ShapeOwned
	ShapeAtomic
	ShapePointer
)

func (s Shape) String() string {
	switch s {
	case ShapeInt:
		return "I"
	case ShapeFloat:
		return "F"
	case ShapeString:
		return "S"
	case ShapeBoolean:
		return "B"
	case ShapeRef:
		return "R"
	case ShapeMut:
		return "M"
	case ShapeOwned:
		return "O"
	case ShapeAtomic:
		return "A"
	case ShapePointer:
		return "P"
	default:
		return "?"
	}
}

// ShapeKey is the ordered tuple of a specialization's parameter shapes,
// usable as a Go map key.
type ShapeKey string

// NewShapeKey packs shapes into a comparable key preserving order.
func NewShapeKey(shapes []Shape) ShapeKey {
	b := make([]byte, len(shapes))
	for i, s := range shapes {
		b[i] = byte(s)
	}
	return ShapeKey(b)
}

func (k ShapeKey) Shapes() []Shape {
	out := make([]Shape, len(k))
	for i := 0; i < len(k); i++ {
		out[i] = Shape(k[i])
	}
	return out
}

// RuntimeKind is the 6-way runtime tag a SwitchKind instruction dispatches
// on when the static type of a value isn't known precisely enough to pick a
// drop/reference strategy at compile time (§4.4).
type RuntimeKind uint8

const (
	RuntimeOwned RuntimeKind = iota
	RuntimeRef
	RuntimeAtomic
	RuntimePermanent
	RuntimeInt
	RuntimeFloat
)

// Sendability classifies a value's transferability between processes
// (spec.md §4.2, GLOSSARY).
type Sendability uint8

const (
	Sendable Sendability = iota
	SendableRef
	SendableMut
	NotSendable
)

// AllowsBorrow reports whether a borrow of this sendability may cross a
// process boundary under the given call's allow-borrows rule.
func (s Sendability) AllowsBorrow(allowBorrows bool) bool {
	switch s {
	case Sendable:
		return true
	case SendableRef, SendableMut:
		return allowBorrows
	default:
		return false
	}
}
