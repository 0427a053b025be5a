package check

import "forge.dev/emberc/internal/types"

// TypeArguments maps a method/class's type parameters to the concrete (or
// still-placeholder) TypeRef supplied for this call, per spec.md §4.2 step
// 1.
type TypeArguments map[types.TypeParameterId]types.TypeRef

func (a TypeArguments) Clone() TypeArguments {
	out := make(TypeArguments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Bounds is the set of trait bounds a rigid type parameter must satisfy,
// unioned across caller and callee per spec.md §4.2 step 2.
type Bounds map[types.TypeParameterId][]types.TraitId

func (b Bounds) union(other Bounds) Bounds {
	out := make(Bounds, len(b)+len(other))
	for k, v := range b {
		out[k] = append([]types.TraitId(nil), v...)
	}
	for k, v := range other {
		out[k] = unionTraitIds(out[k], v)
	}
	return out
}

func unionTraitIds(a, b []types.TraitId) []types.TraitId {
	seen := make(map[types.TraitId]bool, len(a))
	out := append([]types.TraitId(nil), a...)
	for _, t := range a {
		seen[t] = true
	}
	for _, t := range b {
		if !seen[t] {
			out = append(out, t)
			seen[t] = true
		}
	}
	return out
}

// PlaceholderAllocator hands out fresh inference placeholders during
// method-call construction (spec.md §4.2 step 1).
type PlaceholderAllocator struct {
	next types.PlaceholderId
}

func (p *PlaceholderAllocator) Fresh() types.TypeRef {
	p.next++
	return types.Placeholder(p.next)
}
