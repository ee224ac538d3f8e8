package controller

import (
	"time"

	"github.com/google/uuid"
	"github.com/philipparndt/gobim/internal/measurement"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// Op names a completed controller operation
type Op string

const (
	OpIsolate     Op = "isolateSubtree"
	OpReset       Op = "resetAll"
	OpHighlight   Op = "setHighlighted"
	OpPick        Op = "pickAndHighlight"
	OpToggleXray  Op = "toggleXray"
	OpSelect      Op = "setSelected"
	OpVisible     Op = "setVisible"
	OpHideSubtree Op = "hideSubtree"
	OpRestore     Op = "restore"
	OpSync        Op = "sync"
)

// StateChanged is emitted after every completed operation so toolbars and
// tree views can resynchronize.
type StateChanged struct {
	ID      uuid.UUID
	Op      Op
	Mode    Mode
	Objects []string
	At      time.Time
}

// Event is an inbound notification from the loader, the picking service or
// the UI. Session.Handle adapts each one to controller calls.
type Event interface {
	isEvent()
}

// ModelLoaded reports a finished model load. Loading a model id that is
// already registered replaces it.
type ModelLoaded struct {
	Model *scene.ModelSpec
}

// SceneLoaded replaces every loaded model with Models in one step. Nodes
// may move between models. A rejected set leaves the scene as it was.
type SceneLoaded struct {
	Models []*scene.ModelSpec
}

// ModelUnloaded reports that a model was removed
type ModelUnloaded struct {
	ModelID string
}

// NodeClicked is a click on a tree-view node
type NodeClicked struct {
	NodeID string
}

// Picked is a pick in the 3D view. An empty ObjectID means nothing was hit.
type Picked struct {
	ObjectID string
}

// HighlightRequested sets or clears the highlight of one object
type HighlightRequested struct {
	ObjectID string
	On       bool
}

// XrayToggled flips the x-ray flag of one object
type XrayToggled struct {
	ObjectID string
}

// ResetRequested is the toolbar's reset button
type ResetRequested struct{}

// MeasurementCreated carries a new measurement from the measurement plugin
type MeasurementCreated struct {
	Payload measurement.Payload
	Points  []geometry.Vector3
}

// MeasurementDeleted carries a context-menu delete of a measurement
type MeasurementDeleted struct {
	Payload measurement.Payload
}

func (ModelLoaded) isEvent()        {}
func (SceneLoaded) isEvent()        {}
func (ModelUnloaded) isEvent()      {}
func (NodeClicked) isEvent()        {}
func (Picked) isEvent()             {}
func (HighlightRequested) isEvent() {}
func (XrayToggled) isEvent()        {}
func (ResetRequested) isEvent()     {}
func (MeasurementCreated) isEvent() {}
func (MeasurementDeleted) isEvent() {}
