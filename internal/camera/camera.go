// Package camera implements the framing side of the viewer camera: it turns a
// bounding volume into a look-at target and viewing distance.
package camera

import (
	"log/slog"
	"math"
	"sync"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// Framer accepts framing requests. Implementations must return immediately and
// tolerate overlapping requests; the latest request wins.
type Framer interface {
	Frame(box geometry.BoundingBox)
}

// View is a camera placement
type View struct {
	Position geometry.Vector3
	Target   geometry.Vector3
	Up       geometry.Vector3
	FOV      float64 // Field of view in radians
	Distance float64
}

// FitView computes a view looking at the center of box from a distance of
// twice its largest dimension. Flat or point-sized boxes get a minimum distance.
func FitView(box geometry.BoundingBox) View {
	center := box.Center()
	distance := math.Max(box.MaxDimension()*2.0, minDistance)

	return View{
		Position: center.Add(geometry.NewVector3(0, 0, distance)),
		Target:   center,
		Up:       geometry.NewVector3(0, 1, 0),
		FOV:      math.Pi / 4, // 45 degrees
		Distance: distance,
	}
}

const minDistance = 0.1

// Camera keeps the most recently requested view. Animation toward it is left
// to the renderer, which polls View and Generation.
type Camera struct {
	mu         sync.Mutex
	view       View
	generation uint64
	logger     *slog.Logger
}

// New creates a camera initially framing box
func New(box geometry.BoundingBox, logger *slog.Logger) *Camera {
	if logger == nil {
		logger = slog.Default()
	}
	return &Camera{view: FitView(box), logger: logger}
}

// Frame retargets the camera to box. Empty boxes are ignored.
func (c *Camera) Frame(box geometry.BoundingBox) {
	if box.IsEmpty() {
		c.logger.Debug("ignoring framing request for empty bounds")
		return
	}
	view := FitView(box)

	c.mu.Lock()
	c.view = view
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	c.logger.Debug("camera framing requested",
		"generation", gen,
		"target", view.Target.String(),
		"distance", view.Distance)
}

// View returns the current target view
func (c *Camera) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Generation counts accepted framing requests. A renderer that sees the
// generation change mid-transition simply retargets.
func (c *Camera) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}
