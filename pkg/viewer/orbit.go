package viewer

import (
	"math"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// Orbit is a camera circling a target point
type Orbit struct {
	Target    geometry.Vector3
	Up        geometry.Vector3
	FOV       float64 // Field of view in radians
	Distance  float64
	RotationX float64 // Rotation around X axis (vertical)
	RotationY float64 // Rotation around Y axis (horizontal)
}

const minDistance = 0.1

// NewOrbit creates an orbit looking at target from distance, slightly from
// above so stories stack visibly.
func NewOrbit(target geometry.Vector3, distance float64) *Orbit {
	return &Orbit{
		Target:    target,
		Up:        geometry.NewVector3(0, 0, 1),
		FOV:       math.Pi / 4, // 45 degrees
		Distance:  math.Max(distance, minDistance),
		RotationX: math.Pi / 6,
		RotationY: math.Pi / 4,
	}
}

// Position returns the eye position derived from the rotation angles
func (o *Orbit) Position() geometry.Vector3 {
	x := o.Distance * math.Cos(o.RotationX) * math.Sin(o.RotationY)
	y := -o.Distance * math.Cos(o.RotationX) * math.Cos(o.RotationY)
	z := o.Distance * math.Sin(o.RotationX)
	return o.Target.Add(geometry.NewVector3(x, y, z))
}

// Focus moves the target and distance while keeping the viewing angle
func (o *Orbit) Focus(target geometry.Vector3, distance float64) {
	o.Target = target
	o.Distance = math.Max(distance, minDistance)
}

// Rotate rotates the orbit by the given angles
func (o *Orbit) Rotate(deltaX, deltaY float64) {
	o.RotationX += deltaX
	o.RotationY += deltaY

	// Clamp X rotation to prevent gimbal lock
	maxAngle := math.Pi/2 - 0.1
	o.RotationX = math.Max(-maxAngle, math.Min(maxAngle, o.RotationX))
}

// Zoom changes the distance by a relative amount
func (o *Orbit) Zoom(delta float64) {
	o.Distance = math.Max(o.Distance*(1.0+delta), minDistance)
}

// Project projects a 3D point to 2D screen coordinates. ok is false for
// points behind the eye.
func (o *Orbit) Project(point geometry.Vector3, width, height float64) (x, y, depth float64, ok bool) {
	position := o.Position()
	forward := o.Target.Sub(position).Normalize()
	right := forward.Cross(o.Up).Normalize()
	up := right.Cross(forward).Normalize()

	relative := point.Sub(position)
	cx := relative.Dot(right)
	cy := relative.Dot(up)
	depth = relative.Dot(forward)
	if depth <= 0.01 {
		return 0, 0, depth, false
	}

	aspect := width / height
	fovScale := math.Tan(o.FOV / 2)

	x = (cx/(depth*fovScale*aspect))*(width/2) + (width / 2)
	y = (-cy/(depth*fovScale))*(height/2) + (height / 2)
	return x, y, depth, true
}
