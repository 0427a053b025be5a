package split

import (
	"forge.dev/emberc/internal/mir"
	"forge.dev/emberc/internal/symbolname"
	"forge.dev/emberc/internal/types"
)

// Specialization describes one concrete instantiation of a generic class
// discovered during code generation: the base class, the shape tuple it
// was specialized for, and the methods that belong to it.
type Specialization struct {
	Base    types.ClassId
	Shapes  []types.Shape
	Methods []types.MethodId
}

// Split synthesizes one new mir.Module per Specialization, named via
// symbolname.Split from the base module's name, the specialized class's
// name, and the shape tuple — so two specializations of the same generic
// class in the same module never collide (spec.md §4.5 "module splitting
// for generic specialization").
func Split(base *mir.Module, className func(types.ClassId) string, specializations []Specialization) []*mir.Module {
	out := make([]*mir.Module, 0, len(specializations))
	for i, spec := range specializations {
		shapeTuple := shapeTupleString(spec.Shapes)
		name := symbolname.Split(base.Name, className(spec.Base), shapeTuple)

		mod := &mir.Module{
			Id:           types.ModuleId(uint32(base.Id)<<16 | uint32(i+1)),
			Name:         name,
			OriginalName: base.Name,
			Classes:      []types.ClassId{spec.Base},
			Methods:      append([]types.MethodId(nil), spec.Methods...),
		}
		out = append(out, mod)
	}
	return out
}

func shapeTupleString(shapes []types.Shape) string {
	b := make([]byte, 0, len(shapes)*2)
	for i, s := range shapes {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, s.String()...)
	}
	return string(b)
}

// Changed hashes mod with HashModule and returns that hash together with
// Cache.Changed's verdict for it. The driver marks a module reported as
// changed in internal/symbols' dependency graph, which propagates the change
// to every module depending on it (spec.md §4.5).
func Changed(cache *Cache, mod *mir.Module, methods map[types.MethodId]*mir.Method) (Hash, bool) {
	h := HashModule(mod, methods)
	return h, cache.Changed(h)
}
