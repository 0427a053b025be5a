package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forge.dev/emberc/internal/types"
)

func TestShapeKeyRoundTripsOrderedShapes(t *testing.T) {
	shapes := []types.Shape{types.ShapeInt, types.ShapeOwned, types.ShapeRef}
	key := types.NewShapeKey(shapes)

	assert.Equal(t, shapes, key.Shapes())
}

func TestShapeKeyDistinguishesOrder(t *testing.T) {
	a := types.NewShapeKey([]types.Shape{types.ShapeInt, types.ShapeOwned})
	b := types.NewShapeKey([]types.Shape{types.ShapeOwned, types.ShapeInt})

	assert.NotEqual(t, a, b)
}

func TestSendabilityAllowsBorrow(t *testing.T) {
	assert.True(t, types.Sendable.AllowsBorrow(false))
	assert.True(t, types.SendableRef.AllowsBorrow(true))
	assert.False(t, types.SendableRef.AllowsBorrow(false))
	assert.False(t, types.NotSendable.AllowsBorrow(true))
}
