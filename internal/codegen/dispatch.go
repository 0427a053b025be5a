package codegen

import (
	"github.com/cespare/xxhash/v2"

	"forge.dev/emberc/internal/types"
)

// DispatchTable assigns every method of a class a slot in a fixed-size
// array, indexed by a hash of the method's name, so dynamic dispatch (a
// call through a trait object or a process's async mailbox) costs one
// array load instead of a string/name lookup (spec.md §4.6 "dynamic
// dispatch"). Collisions are resolved by linear probing at table-build
// time; colliding methods are flagged (types.Method.Collision), and Lookup
// probes forward from the hash slot until the stored hash matches.
type DispatchTable struct {
	slots  []types.MethodId
	hashes []uint64
	used   []bool
}

// nextPowerOfTwo rounds n up to the nearest power of two, so a table's
// slot count always supports masking (spec.md §4.6: `slot = hash &
// (size-1)`) instead of a modulo.
func nextPowerOfTwo(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// BuildDispatchTable hashes every method's name with xxhash, placing it at
// hash&(size-1), linearly probing forward on collision. size is rounded up
// to next_power_of_two(max(size, len(methods))) per spec.md §4.6, so the
// mask is always valid and probe chains stay short. Both the probing
// method and the occupant whose slot it probed past are flagged
// Collision, since a lookup through either's hash slot has to probe.
func BuildDispatchTable(methods []*types.Method, size int) *DispatchTable {
	if size < len(methods) {
		size = len(methods)
	}
	size = nextPowerOfTwo(size)
	mask := uint64(size - 1)

	t := &DispatchTable{
		slots:  make([]types.MethodId, size),
		hashes: make([]uint64, size),
		used:   make([]bool, size),
	}
	occupant := make([]*types.Method, size)

	for _, m := range methods {
		h := xxhash.Sum64String(m.Name)
		idx := h & mask
		start := idx
		for occupant[idx] != nil {
			m.Collision = true
			occupant[idx].Collision = true
			idx = (idx + 1) & mask
			if idx == start {
				// Table is full; caller must rebuild with a larger size.
				break
			}
		}
		occupant[idx] = m
		t.slots[idx] = m.Id
		t.hashes[idx] = h
		t.used[idx] = true
		m.DispatchHash = h
		m.TableIndex = uint32(idx)
	}
	return t
}

// Lookup probes forward from hash(name)'s slot until it reaches the slot
// whose stored hash equals hash(name), and returns that slot's method and
// index. When no slot matches, it returns the hash slot itself.
func (t *DispatchTable) Lookup(name string) (types.MethodId, uint32) {
	h := xxhash.Sum64String(name)
	mask := uint64(len(t.slots) - 1)
	idx := h & mask
	for i := 0; i < len(t.slots); i++ {
		if t.used[idx] && t.hashes[idx] == h {
			break
		}
		idx = (idx + 1) & mask
	}
	return t.slots[idx], uint32(idx)
}

// Len reports the table's slot count.
func (t *DispatchTable) Len() int { return len(t.slots) }
