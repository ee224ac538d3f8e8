package stl

import (
	"github.com/philipparndt/gobim/pkg/geometry"
)

// Solid is one named body inside an STL file. ASCII files may hold several
// solids; binary files always hold exactly one.
type Solid struct {
	Name      string
	Triangles []geometry.Triangle
}

// BoundingBox calculates the bounding box of the solid
func (s *Solid) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, triangle := range s.Triangles {
		bbox = bbox.Union(triangle.Bounds())
	}
	return bbox
}

// SurfaceArea calculates the total surface area of the solid
func (s *Solid) SurfaceArea() float64 {
	totalArea := 0.0
	for _, triangle := range s.Triangles {
		totalArea += triangle.Area()
	}
	return totalArea
}

// Model represents a complete STL file
type Model struct {
	Name   string
	Solids []*Solid
}

// NewModel creates a new STL model
func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddSolid appends an empty solid and returns it
func (m *Model) AddSolid(name string) *Solid {
	s := &Solid{Name: name}
	m.Solids = append(m.Solids, s)
	return s
}

// Solid looks up a solid by name. An empty name selects the first solid.
func (m *Model) Solid(name string) (*Solid, bool) {
	if len(m.Solids) == 0 {
		return nil, false
	}
	if name == "" {
		return m.Solids[0], true
	}
	for _, s := range m.Solids {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// TriangleCount returns the number of triangles across all solids
func (m *Model) TriangleCount() int {
	n := 0
	for _, s := range m.Solids {
		n += len(s.Triangles)
	}
	return n
}

// BoundingBox calculates the bounding box of the entire model
func (m *Model) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, s := range m.Solids {
		bbox = bbox.Union(s.BoundingBox())
	}
	return bbox
}
