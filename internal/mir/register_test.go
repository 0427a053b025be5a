package mir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge.dev/emberc/internal/mir"
)

func TestJoinMoveStates(t *testing.T) {
	assert.Equal(t, mir.Available, mir.Join(mir.Available, mir.Available))
	assert.Equal(t, mir.Moved, mir.Join(mir.Moved, mir.Moved))
	assert.Equal(t, mir.MaybeMoved, mir.Join(mir.Available, mir.Moved))
	assert.Equal(t, mir.MaybeMoved, mir.Join(mir.Moved, mir.Available))
	assert.Equal(t, mir.MaybeMoved, mir.Join(mir.PartiallyMoved, mir.Moved))
	assert.Equal(t, mir.PartiallyMoved, mir.Join(mir.PartiallyMoved, mir.Available))
}

func TestRegisterStateJoinIntoReportsChange(t *testing.T) {
	s := mir.RegisterState{1: mir.Available}
	other := mir.RegisterState{1: mir.Moved, 2: mir.Available}

	changed := s.JoinInto(other)

	assert.True(t, changed)
	assert.Equal(t, mir.MaybeMoved, s[1])
	assert.Equal(t, mir.Available, s[2])

	// A second merge of the same state is a fixed point.
	assert.False(t, s.JoinInto(other))
}

func TestRegisterStateCloneIsIndependent(t *testing.T) {
	s := mir.RegisterState{1: mir.Available}
	clone := s.Clone()
	clone[1] = mir.Moved

	assert.Equal(t, mir.Available, s[1])
	assert.Equal(t, mir.Moved, clone[1])
}
