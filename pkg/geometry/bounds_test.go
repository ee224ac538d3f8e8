package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxExtend(t *testing.T) {
	bbox := NewBoundingBox()
	assert.True(t, bbox.IsEmpty())

	bbox.Extend(NewVector3(1, 2, 3))
	bbox.Extend(NewVector3(4, 5, 6))
	bbox.Extend(NewVector3(-1, 0, 2))

	assert.False(t, bbox.IsEmpty())
	assert.Equal(t, NewVector3(-1, 0, 2), bbox.Min)
	assert.Equal(t, NewVector3(4, 5, 6), bbox.Max)
}

func TestBoundingBoxMeasures(t *testing.T) {
	bbox := NewBoundingBox()
	bbox.Extend(NewVector3(0, 0, 0))
	bbox.Extend(NewVector3(2, 3, 4))

	assert.Equal(t, NewVector3(2, 3, 4), bbox.Size())
	assert.Equal(t, NewVector3(1, 1.5, 2), bbox.Center())
	assert.InDelta(t, 24.0, bbox.Volume(), 1e-10)
	assert.InDelta(t, 4.0, bbox.MaxDimension(), 1e-10)
	assert.True(t, bbox.Contains(NewVector3(1, 1, 1)))
	assert.False(t, bbox.Contains(NewVector3(3, 1, 1)))
}

func TestBoundingBoxEmptyMeasures(t *testing.T) {
	bbox := NewBoundingBox()
	assert.Equal(t, Vector3{}, bbox.Size())
	assert.Equal(t, Vector3{}, bbox.Center())
	assert.Equal(t, 0.0, bbox.Diagonal())
}

func TestBoundingBoxUnion(t *testing.T) {
	a := NewBoundingBox()
	a.Extend(NewVector3(0, 0, 0))
	a.Extend(NewVector3(1, 1, 1))
	b := NewBoundingBox()
	b.Extend(NewVector3(5, -1, 0))

	u := a.Union(b)
	assert.Equal(t, NewVector3(0, -1, 0), u.Min)
	assert.Equal(t, NewVector3(5, 1, 1), u.Max)

	assert.Equal(t, a, a.Union(NewBoundingBox()))
	assert.Equal(t, a, NewBoundingBox().Union(a))
}
