package viewer

import (
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// Box is one scene object as drawn by SceneView
type Box struct {
	ID     string
	Bounds geometry.BoundingBox
	State  scene.State
}

var (
	normalColor    = color.RGBA{200, 200, 200, 255}
	xrayColor      = color.RGBA{120, 120, 160, 70}
	highlightColor = color.RGBA{255, 140, 0, 255}
)

// pickRadius is the screen distance in pixels within which a tap hits a box
const pickRadius = 30.0

// SceneView draws the bounding boxes of scene objects as wireframes colored
// by their visual state. Tapping a box reports its id, tapping empty space
// reports "".
type SceneView struct {
	widget.BaseWidget

	mu         sync.Mutex
	orbit      *Orbit
	boxes      []Box
	lines      []*canvas.Line
	dragStart  *fyne.Position
	isDragging bool
	width      float64
	height     float64
	onPick     func(id string)
}

// NewSceneView creates an empty scene view
func NewSceneView() *SceneView {
	v := &SceneView{orbit: NewOrbit(geometry.Vector3{}, 10)}
	v.ExtendBaseWidget(v)
	return v
}

// SetOnPick sets the callback for taps
func (v *SceneView) SetOnPick(callback func(id string)) {
	v.onPick = callback
}

// SetBoxes replaces the drawn objects
func (v *SceneView) SetBoxes(boxes []Box) {
	v.mu.Lock()
	v.boxes = boxes
	v.mu.Unlock()
	v.redraw()
}

// Focus points the view at target from distance
func (v *SceneView) Focus(target geometry.Vector3, distance float64) {
	v.mu.Lock()
	v.orbit.Focus(target, distance)
	v.mu.Unlock()
	v.redraw()
}

func (v *SceneView) redraw() {
	v.mu.Lock()
	if v.width == 0 || v.height == 0 {
		v.mu.Unlock()
		return
	}
	v.lines = wireframe(v.orbit, v.boxes, v.width, v.height)
	v.mu.Unlock()
	v.Refresh()
}

// wireframe projects the twelve edges of every visible box. X-rayed boxes
// are drawn first so opaque ones stay on top.
func wireframe(o *Orbit, boxes []Box, width, height float64) []*canvas.Line {
	var lines []*canvas.Line
	draw := func(b Box, col color.Color, stroke float32) {
		for _, edge := range boxEdges(b.Bounds) {
			x1, y1, _, ok1 := o.Project(edge[0], width, height)
			x2, y2, _, ok2 := o.Project(edge[1], width, height)
			if !ok1 || !ok2 {
				continue
			}
			line := canvas.NewLine(col)
			line.StrokeWidth = stroke
			line.Position1 = fyne.NewPos(float32(x1), float32(y1))
			line.Position2 = fyne.NewPos(float32(x2), float32(y2))
			lines = append(lines, line)
		}
	}

	for _, b := range boxes {
		if b.State.Visible && b.State.Xrayed && !b.State.Highlighted {
			draw(b, xrayColor, 1)
		}
	}
	for _, b := range boxes {
		switch {
		case !b.State.Visible:
		case b.State.Highlighted:
			draw(b, highlightColor, 2)
		case !b.State.Xrayed:
			draw(b, normalColor, 1)
		}
	}
	return lines
}

// boxEdges returns the twelve edges of b
func boxEdges(b geometry.BoundingBox) [12][2]geometry.Vector3 {
	if b.IsEmpty() {
		return [12][2]geometry.Vector3{}
	}
	c := [8]geometry.Vector3{}
	for i := range c {
		x, y, z := b.Min.X, b.Min.Y, b.Min.Z
		if i&1 != 0 {
			x = b.Max.X
		}
		if i&2 != 0 {
			y = b.Max.Y
		}
		if i&4 != 0 {
			z = b.Max.Z
		}
		c[i] = geometry.NewVector3(x, y, z)
	}
	return [12][2]geometry.Vector3{
		{c[0], c[1]}, {c[2], c[3]}, {c[4], c[5]}, {c[6], c[7]},
		{c[0], c[2]}, {c[1], c[3]}, {c[4], c[6]}, {c[5], c[7]},
		{c[0], c[4]}, {c[1], c[5]}, {c[2], c[6]}, {c[3], c[7]},
	}
}

// pickAt returns the visible box whose projected center is nearest to the
// screen position, preferring opaque boxes over x-rayed ones.
func pickAt(o *Orbit, boxes []Box, x, y, width, height float64) string {
	best, bestDist := "", math.MaxFloat64
	bestXray := true
	for _, b := range boxes {
		if !b.State.Visible || b.Bounds.IsEmpty() {
			continue
		}
		sx, sy, _, ok := o.Project(b.Bounds.Center(), width, height)
		if !ok {
			continue
		}
		dist := math.Hypot(sx-x, sy-y)
		if dist > pickRadius {
			continue
		}
		if (bestXray && !b.State.Xrayed) || (bestXray == b.State.Xrayed && dist < bestDist) {
			best, bestDist, bestXray = b.ID, dist, b.State.Xrayed
		}
	}
	return best
}

// Dragged handles mouse drag events for rotation
func (v *SceneView) Dragged(event *fyne.DragEvent) {
	v.mu.Lock()
	if v.dragStart != nil {
		deltaX := event.Position.X - v.dragStart.X
		deltaY := event.Position.Y - v.dragStart.Y
		v.orbit.Rotate(float64(deltaY)*0.01, float64(-deltaX)*0.01)
	}
	pos := event.Position
	v.dragStart = &pos
	v.isDragging = true
	v.mu.Unlock()
	v.redraw()
}

// DragEnd handles the end of a drag event
func (v *SceneView) DragEnd() {
	v.mu.Lock()
	v.dragStart = nil
	v.isDragging = false
	v.mu.Unlock()
}

// Tapped picks the box under the pointer
func (v *SceneView) Tapped(event *fyne.PointEvent) {
	v.mu.Lock()
	if v.isDragging {
		v.mu.Unlock()
		return
	}
	id := pickAt(v.orbit, v.boxes, float64(event.Position.X), float64(event.Position.Y), v.width, v.height)
	v.mu.Unlock()

	if v.onPick != nil {
		v.onPick(id)
	}
}

// Scrolled handles scroll events for zooming
func (v *SceneView) Scrolled(event *fyne.ScrollEvent) {
	v.mu.Lock()
	v.orbit.Zoom(-float64(event.Scrolled.DY) * 0.001)
	v.mu.Unlock()
	v.redraw()
}

// CreateRenderer creates the renderer for the widget
func (v *SceneView) CreateRenderer() fyne.WidgetRenderer {
	return &sceneViewRenderer{view: v}
}

// sceneViewRenderer implements fyne.WidgetRenderer
type sceneViewRenderer struct {
	view    *SceneView
	objects []fyne.CanvasObject
}

func (r *sceneViewRenderer) Layout(size fyne.Size) {
	r.view.mu.Lock()
	r.view.width = float64(size.Width)
	r.view.height = float64(size.Height)
	r.view.mu.Unlock()
	r.view.redraw()
}

func (r *sceneViewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 400)
}

func (r *sceneViewRenderer) Refresh() {
	r.view.mu.Lock()
	r.objects = make([]fyne.CanvasObject, 0, len(r.view.lines))
	for _, line := range r.view.lines {
		r.objects = append(r.objects, line)
	}
	r.view.mu.Unlock()

	canvas.Refresh(r.view)
}

func (r *sceneViewRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *sceneViewRenderer) Destroy() {}
