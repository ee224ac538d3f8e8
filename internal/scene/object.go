// Package scene holds the registered scene objects of all loaded models, their
// containment hierarchy and per-object visual state flags.
package scene

import "github.com/philipparndt/gobim/pkg/geometry"

// State holds the four independent visual flags of a scene object
type State struct {
	Visible     bool `json:"visible"`
	Xrayed      bool `json:"xrayed"`
	Highlighted bool `json:"highlighted"`
	Selected    bool `json:"selected"`
}

// DefaultState is the state of every object at registration
func DefaultState() State {
	return State{Visible: true}
}

// Object is an individually addressable renderable unit of a loaded model
type Object struct {
	ID          string
	ModelID     string
	Parent      string
	Bounds      geometry.BoundingBox
	Triangles   int
	SurfaceArea float64
	State       State
}

// Node is an entry of the containment hierarchy (project, building, story,
// space, element). Only nodes with geometry are also scene objects.
type Node struct {
	ID       string
	Name     string
	Kind     string
	ModelID  string
	Parent   string
	Children []string
	IsObject bool
}

// Geometry describes the renderable part of a node
type Geometry struct {
	Bounds      geometry.BoundingBox
	Triangles   int
	SurfaceArea float64
}

// NodeSpec is the loader's description of a hierarchy node
type NodeSpec struct {
	ID       string
	Name     string
	Kind     string
	Geometry *Geometry
	Children []*NodeSpec
}

// ModelSpec is the loader's description of a whole model
type ModelSpec struct {
	ID     string
	Name   string
	Source string
	Root   *NodeSpec
}

// ModelInfo summarizes a registered model
type ModelInfo struct {
	ID      string
	Name    string
	Source  string
	Root    string
	Objects int
}
