// Package measurement stores distance and angle measurements and resolves the
// plugin payloads that refer to them.
package measurement

import (
	"errors"
	"fmt"
	"math"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// Kind tells the two measurement variants apart
type Kind int

const (
	KindDistance Kind = iota
	KindAngle
)

func (k Kind) String() string {
	switch k {
	case KindDistance:
		return "distance"
	case KindAngle:
		return "angle"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Ref identifies a measurement: Angle(id) or Distance(id)
type Ref struct {
	Kind Kind
	ID   string
}

// Angle refers to an angle measurement
func Angle(id string) Ref {
	return Ref{Kind: KindAngle, ID: id}
}

// Distance refers to a distance measurement
func Distance(id string) Ref {
	return Ref{Kind: KindDistance, ID: id}
}

func (r Ref) String() string {
	return fmt.Sprintf("%s(%s)", r.Kind, r.ID)
}

var (
	// ErrNoMeasurement is returned for payloads that name no measurement
	ErrNoMeasurement = errors.New("payload carries no measurement")
	// ErrPointCount is returned when a measurement has the wrong number of points
	ErrPointCount = errors.New("wrong number of points")
)

// Payload is the loosely typed event body of the measurement plugins, which
// set exactly one of the two fields.
type Payload struct {
	AngleMeasurement    string `json:"angleMeasurement,omitempty"`
	DistanceMeasurement string `json:"distanceMeasurement,omitempty"`
}

// ResolveRef turns a payload into a Ref. An angle id wins when both are set.
func ResolveRef(p Payload) (Ref, error) {
	switch {
	case p.AngleMeasurement != "":
		return Angle(p.AngleMeasurement), nil
	case p.DistanceMeasurement != "":
		return Distance(p.DistanceMeasurement), nil
	default:
		return Ref{}, ErrNoMeasurement
	}
}

// Measurement is a measured value with the points it was taken from
type Measurement struct {
	Ref    Ref
	Points []geometry.Vector3
	Value  float64 // length in model units, or angle in degrees
}

// New builds the measurement for ref from its points: two for a distance,
// three (origin, corner, target) for an angle.
func New(ref Ref, points []geometry.Vector3) (*Measurement, error) {
	m := &Measurement{Ref: ref, Points: append([]geometry.Vector3(nil), points...)}

	switch ref.Kind {
	case KindDistance:
		if len(points) != 2 {
			return nil, fmt.Errorf("%s: %w: expected 2, got %d", ref, ErrPointCount, len(points))
		}
		m.Value = points[0].Distance(points[1])
	case KindAngle:
		if len(points) != 3 {
			return nil, fmt.Errorf("%s: %w: expected 3, got %d", ref, ErrPointCount, len(points))
		}
		m.Value = geometry.AngleAt(points[0], points[1], points[2]) * 180 / math.Pi
	default:
		return nil, fmt.Errorf("unsupported measurement %s", ref)
	}
	return m, nil
}

// Label formats the value the way the viewer annotations show it
func (m *Measurement) Label() string {
	if m.Ref.Kind == KindAngle {
		return fmt.Sprintf("%.2f°", m.Value)
	}
	return fmt.Sprintf("%.3f", m.Value)
}
