package codegen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"forge.dev/emberc/internal/types"
)

func TestBuildDispatchTableAssignsEverySlot(t *testing.T) {
	methods := make([]*types.Method, 0, 50)
	for i := 0; i < 50; i++ {
		methods = append(methods, &types.Method{Id: types.MethodId(i), Name: fmt.Sprintf("method_%d", i)})
	}

	table := BuildDispatchTable(methods, 128)
	seen := make(map[uint32]bool)
	for _, m := range methods {
		assert.False(t, seen[m.TableIndex], "table index %d reused", m.TableIndex)
		seen[m.TableIndex] = true
		got, idx := table.Lookup(m.Name)
		assert.Equal(t, m.Id, got)
		assert.Equal(t, m.TableIndex, idx)
	}
}

func TestBuildDispatchTableFlagsCollisions(t *testing.T) {
	// The requested size of 4 is raised to 32 slots for 20 methods; at that
	// load at least one hash collision is overwhelmingly likely (birthday
	// paradox), which is
	// what exercises the linear-probing/Collision-flag path below.
	methods := make([]*types.Method, 0, 20)
	for i := 0; i < 20; i++ {
		methods = append(methods, &types.Method{Id: types.MethodId(i), Name: fmt.Sprintf("m%d", i)})
	}
	BuildDispatchTable(methods, 4)

	var anyCollision bool
	for _, m := range methods {
		if m.Collision {
			anyCollision = true
			break
		}
	}
	assert.True(t, anyCollision)
}
