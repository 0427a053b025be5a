package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge.dev/emberc/internal/types"
)

func TestIsResolved(t *testing.T) {
	assert.True(t, types.Owned(types.TypeId{Entity: types.EntityClass, Class: 1}).IsResolved())
	assert.False(t, types.Unknown.IsResolved())
	assert.False(t, types.Placeholder(3).IsResolved())
}

func TestAsOwnedConvertsReferenceKinds(t *testing.T) {
	id := types.TypeId{Entity: types.EntityClass, Class: 1}

	assert.Equal(t, types.Owned(id), types.Ref(id).AsOwned())
	assert.Equal(t, types.Owned(id), types.Mut(id).AsOwned())
	assert.Equal(t, types.Owned(id), types.Owned(id).AsOwned(), "already-owned is left alone")
}

func TestWithKindKeepsId(t *testing.T) {
	id := types.TypeId{Entity: types.EntityClass, Class: 7}
	owned := types.Owned(id)

	mut := owned.WithKind(types.KindMut)

	assert.Equal(t, types.KindMut, mut.Kind)
	assert.Equal(t, id, mut.Id)
}
