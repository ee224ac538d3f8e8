package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector3Arithmetic(t *testing.T) {
	v1 := NewVector3(1, 2, 3)
	v2 := NewVector3(4, 5, 6)

	assert.Equal(t, NewVector3(5, 7, 9), v1.Add(v2))
	assert.Equal(t, NewVector3(3, 3, 3), v2.Sub(v1))
	assert.Equal(t, NewVector3(2, 4, 6), v1.Mul(2))
	assert.InDelta(t, 32.0, v1.Dot(v2), 1e-10) // 1*4 + 2*5 + 3*6
}

func TestVector3Cross(t *testing.T) {
	result := NewVector3(1, 0, 0).Cross(NewVector3(0, 1, 0))
	assert.Equal(t, NewVector3(0, 0, 1), result)
}

func TestVector3Length(t *testing.T) {
	assert.InDelta(t, 5.0, NewVector3(3, 4, 0).Length(), 1e-10)
	assert.InDelta(t, 5.0, NewVector3(0, 0, 0).Distance(NewVector3(3, 4, 0)), 1e-10)
}

func TestVector3Normalize(t *testing.T) {
	assert.InDelta(t, 1.0, NewVector3(3, 4, 0).Normalize().Length(), 1e-10)
	assert.Equal(t, Vector3{}, Vector3{}.Normalize())
}

func TestVector3ApproxEqual(t *testing.T) {
	a := NewVector3(1, 1, 1)
	assert.True(t, a.ApproxEqual(NewVector3(1.0000001, 1, 1), 1e-6))
	assert.False(t, a.ApproxEqual(NewVector3(1.1, 1, 1), 1e-6))
}

func TestVector3String(t *testing.T) {
	assert.Equal(t, "(1.000000, 2.500000, -3.000000)", NewVector3(1, 2.5, -3).String())
}
