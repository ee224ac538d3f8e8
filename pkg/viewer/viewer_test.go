package viewer

import (
	"math"
	"testing"

	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/stretchr/testify/assert"
)

func cube(x, y, z float64) geometry.BoundingBox {
	return geometry.BoundingBox{
		Min: geometry.NewVector3(x, y, z),
		Max: geometry.NewVector3(x+1, y+1, z+1),
	}
}

func TestOrbitProjectsTargetToCenter(t *testing.T) {
	o := NewOrbit(geometry.NewVector3(5, 5, 5), 20)

	x, y, depth, ok := o.Project(o.Target, 800, 600)
	assert.True(t, ok)
	assert.InDelta(t, 400, x, 1e-6)
	assert.InDelta(t, 300, y, 1e-6)
	assert.InDelta(t, 20, depth, 1e-6)
	assert.InDelta(t, 20, o.Position().Distance(o.Target), 1e-9)
}

func TestOrbitRejectsPointsBehindEye(t *testing.T) {
	o := NewOrbit(geometry.Vector3{}, 10)
	behind := o.Position().Add(o.Position().Sub(o.Target))

	_, _, _, ok := o.Project(behind, 800, 600)
	assert.False(t, ok)
}

func TestOrbitZoomAndRotateLimits(t *testing.T) {
	o := NewOrbit(geometry.Vector3{}, 1)
	o.Zoom(-5)
	assert.Equal(t, minDistance, o.Distance)

	o.Rotate(10, 0)
	assert.InDelta(t, math.Pi/2-0.1, o.RotationX, 1e-9)

	o.Focus(geometry.NewVector3(1, 2, 3), 0)
	assert.Equal(t, geometry.NewVector3(1, 2, 3), o.Target)
	assert.Equal(t, minDistance, o.Distance)
}

func TestBoxEdges(t *testing.T) {
	b := geometry.BoundingBox{Min: geometry.NewVector3(0, 0, 0), Max: geometry.NewVector3(1, 2, 3)}

	total := 0.0
	for _, e := range boxEdges(b) {
		total += e[0].Distance(e[1])
	}
	assert.InDelta(t, 4*(1+2+3), total, 1e-9)

	assert.Equal(t, [12][2]geometry.Vector3{}, boxEdges(geometry.NewBoundingBox()))
}

func TestWireframeSkipsHidden(t *testing.T) {
	o := NewOrbit(geometry.NewVector3(0.5, 0.5, 0.5), 10)
	boxes := []Box{
		{ID: "wall1", Bounds: cube(0, 0, 0), State: scene.State{Visible: true}},
		{ID: "wall2", Bounds: cube(0, 0, 0), State: scene.State{Visible: true, Xrayed: true}},
		{ID: "door1", Bounds: cube(0, 0, 0), State: scene.State{}},
	}

	lines := wireframe(o, boxes, 800, 600)
	assert.Len(t, lines, 24)
	// x-rayed boxes come first
	assert.Equal(t, xrayColor, lines[0].StrokeColor)
	assert.Equal(t, normalColor, lines[12].StrokeColor)
}

func TestPickAt(t *testing.T) {
	o := NewOrbit(geometry.NewVector3(0.5, 0.5, 0.5), 10)
	center := func(b geometry.BoundingBox) (float64, float64) {
		x, y, _, _ := o.Project(b.Center(), 800, 600)
		return x, y
	}

	wall := cube(0, 0, 0)
	boxes := []Box{
		{ID: "roof1", Bounds: wall, State: scene.State{Visible: true, Xrayed: true}},
		{ID: "wall1", Bounds: wall, State: scene.State{Visible: true}},
		{ID: "ghost", Bounds: wall, State: scene.State{}},
	}

	x, y := center(wall)
	assert.Equal(t, "wall1", pickAt(o, boxes, x, y, 800, 600))
	assert.Equal(t, "roof1", pickAt(o, boxes[:1], x, y, 800, 600))
	assert.Equal(t, "", pickAt(o, boxes[2:], x, y, 800, 600))
	assert.Equal(t, "", pickAt(o, boxes, x+200, y, 800, 600))
}
