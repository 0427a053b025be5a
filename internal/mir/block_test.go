package mir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge.dev/emberc/internal/mir"
)

func TestBlockArenaLinkAndUnlink(t *testing.T) {
	arena := mir.NewBlockArena()
	a := arena.New()
	b := arena.New()

	arena.Link(a, b)
	assert.Equal(t, []mir.BlockId{b}, arena.Get(a).Successors)
	assert.Equal(t, []mir.BlockId{a}, arena.Get(b).Predecessors)

	arena.Unlink(a, b)
	assert.Empty(t, arena.Get(a).Successors)
	assert.Empty(t, arena.Get(b).Predecessors)
}

func TestBlockTerminatorReportsAbsence(t *testing.T) {
	block := mir.Block{}
	_, ok := block.Terminator()
	assert.False(t, ok)
}

func TestBlockTerminatorFindsReturn(t *testing.T) {
	block := mir.Block{Instructions: []mir.Instruction{mir.Return(1)}}

	term, ok := block.Terminator()
	assert.True(t, ok)
	assert.Equal(t, mir.Return(1), term)
}

func TestBlockArenaNewAssignsSequentialIds(t *testing.T) {
	arena := mir.NewBlockArena()
	a := arena.New()
	b := arena.New()

	assert.Equal(t, mir.BlockId(0), a)
	assert.Equal(t, mir.BlockId(1), b)
	assert.Equal(t, 2, arena.Len())
}
