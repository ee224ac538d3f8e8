// Package controller keeps the visibility, highlight, x-ray and selection
// flags of all scene objects consistent and offers the bulk transitions the
// toolbar, tree view and picking callbacks need.
//
// A nil *Controller is valid: every method is a silent no-op, which is what
// callers get before the first model has finished loading.
package controller

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/philipparndt/gobim/internal/camera"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// Scene is the object registry the controller works on
type Scene interface {
	RegisteredObjectIDs() []string
	Subtree(nodeID string) []string
	BoundsOf(ids ...string) geometry.BoundingBox
	SceneBounds() geometry.BoundingBox
	Has(id string) bool
	State(id string) (scene.State, bool)
	Update(ids []string, fn func(id string, state scene.State) scene.State)
	ApplyAll(fn func(id string, state scene.State) scene.State)
}

// Controller is the scene object state controller
type Controller struct {
	mu        sync.Mutex
	scene     Scene
	framer    camera.Framer
	policy    Policy
	logger    *slog.Logger
	mode      Mode
	selection map[string]bool

	subsMu  sync.Mutex
	subs    map[int]func(StateChanged)
	nextSub int

	now func() time.Time
}

// New creates a controller over sc. framer may be nil when no camera is attached.
func New(sc Scene, framer camera.Framer, opts ...Option) *Controller {
	c := &Controller{
		scene:     sc,
		framer:    framer,
		policy:    DefaultPolicy(),
		logger:    slog.Default(),
		selection: make(map[string]bool),
		subs:      make(map[int]func(StateChanged)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the active policy
func (c *Controller) Policy() Policy {
	if c == nil {
		return DefaultPolicy()
	}
	return c.policy
}

// Mode returns the current interaction mode
func (c *Controller) Mode() Mode {
	if c == nil {
		return Free
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// State returns the flags of one object
func (c *Controller) State(id string) (scene.State, bool) {
	if c == nil {
		return scene.State{}, false
	}
	return c.scene.State(id)
}

// Selection returns the highlighted objects in sorted order
func (c *Controller) Selection() []string {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectionLocked()
}

func (c *Controller) selectionLocked() []string {
	ids := make([]string, 0, len(c.selection))
	for id := range c.selection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsolateSubtree x-rays every object outside the subtree of rootID and
// frames the subtree. If the subtree holds no objects it resets the scene
// instead and returns ErrEmptySubtree.
func (c *Controller) IsolateSubtree(rootID string) error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	if c.policy.ReclickTogglesIsolation && c.mode.Isolated && c.mode.Root == rootID {
		c.resetLocked()
		mode := c.mode
		c.mu.Unlock()
		c.logger.Debug("re-click on isolated node leaves isolation", "node", rootID)
		c.frame(c.scene.SceneBounds())
		c.emit(OpReset, mode, nil)
		return nil
	}

	desc := c.scene.Subtree(rootID)
	if len(desc) == 0 {
		c.resetLocked()
		mode := c.mode
		c.mu.Unlock()
		c.logger.Debug("isolation of empty subtree falls back to reset", "node", rootID)
		c.frame(c.scene.SceneBounds())
		c.emit(OpReset, mode, nil)
		return fmt.Errorf("isolate %q: %w", rootID, ErrEmptySubtree)
	}

	// Highlight is cleared before the x-ray pass
	if c.policy.ClearHighlightOnIsolate {
		c.clearSelectionLocked()
	}

	inside := make(map[string]bool, len(desc))
	for _, id := range desc {
		inside[id] = true
	}
	c.scene.ApplyAll(func(id string, st scene.State) scene.State {
		st.Xrayed = !inside[id]
		return st
	})
	c.mode = Isolated(rootID)
	mode := c.mode
	c.mu.Unlock()

	c.logger.Debug("isolated subtree", "node", rootID, "objects", len(desc))
	c.frame(c.scene.BoundsOf(desc...))
	c.emit(OpIsolate, mode, desc)
	return nil
}

// ResetAll restores every object to the default flags, leaves isolation and
// frames the whole scene.
func (c *Controller) ResetAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.resetLocked()
	mode := c.mode
	c.mu.Unlock()

	c.frame(c.scene.SceneBounds())
	c.emit(OpReset, mode, nil)
}

func (c *Controller) resetLocked() {
	c.scene.ApplyAll(func(string, scene.State) scene.State {
		return scene.DefaultState()
	})
	c.selection = make(map[string]bool)
	c.mode = Free
}

// SetHighlighted highlights objectID as the only member of the selection, or
// clears it when on is false and it is the current sole member. Unknown ids
// are ignored.
func (c *Controller) SetHighlighted(objectID string, on bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	changed := c.setHighlightedLocked(objectID, on)
	mode := c.mode
	c.mu.Unlock()

	if changed {
		c.emit(OpHighlight, mode, []string{objectID})
	}
}

func (c *Controller) setHighlightedLocked(objectID string, on bool) bool {
	if !c.scene.Has(objectID) {
		c.logger.Debug("highlight ignored", "object", objectID, "err", ErrUnknownObject)
		return false
	}

	if !on {
		if len(c.selection) != 1 || !c.selection[objectID] {
			return false
		}
		c.clearSelectionLocked()
		return true
	}

	// Old and new highlight flip under one scene write so no reader sees
	// zero or two highlighted objects.
	ids := append(c.selectionLocked(), objectID)
	c.scene.Update(ids, func(id string, st scene.State) scene.State {
		st.Highlighted = id == objectID
		return st
	})
	c.selection = map[string]bool{objectID: true}
	return true
}

func (c *Controller) clearSelectionLocked() {
	if len(c.selection) == 0 {
		return
	}
	c.scene.Update(c.selectionLocked(), func(_ string, st scene.State) scene.State {
		st.Highlighted = false
		return st
	})
	c.selection = make(map[string]bool)
}

// PickAndHighlight handles a pick result. An empty id clears the selection;
// otherwise the object is highlighted and framed.
func (c *Controller) PickAndHighlight(objectID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if objectID == "" {
		c.clearSelectionLocked()
		mode := c.mode
		c.mu.Unlock()
		c.emit(OpPick, mode, nil)
		return
	}
	changed := c.setHighlightedLocked(objectID, true)
	mode := c.mode
	c.mu.Unlock()

	if !changed {
		return
	}
	c.frame(c.scene.BoundsOf(objectID))
	c.emit(OpPick, mode, []string{objectID})
}

// ToggleXray flips the x-ray flag of a single object
func (c *Controller) ToggleXray(objectID string) {
	c.updateOne(OpToggleXray, objectID, func(st scene.State) scene.State {
		st.Xrayed = !st.Xrayed
		return st
	})
}

// SetSelected sets the selected flag of one object. Selection is independent
// of highlight and allows several objects.
func (c *Controller) SetSelected(objectID string, on bool) {
	c.updateOne(OpSelect, objectID, func(st scene.State) scene.State {
		st.Selected = on
		return st
	})
}

// SetVisible shows or hides one object
func (c *Controller) SetVisible(objectID string, on bool) {
	c.updateOne(OpVisible, objectID, func(st scene.State) scene.State {
		st.Visible = on
		return st
	})
}

func (c *Controller) updateOne(op Op, objectID string, fn func(scene.State) scene.State) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if !c.scene.Has(objectID) {
		c.mu.Unlock()
		c.logger.Debug("operation ignored", "op", op, "object", objectID, "err", ErrUnknownObject)
		return
	}
	c.scene.Update([]string{objectID}, func(_ string, st scene.State) scene.State {
		return fn(st)
	})
	mode := c.mode
	c.mu.Unlock()
	c.emit(op, mode, []string{objectID})
}

// HideSubtree hides every object below nodeID without changing the mode
func (c *Controller) HideSubtree(nodeID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	desc := c.scene.Subtree(nodeID)
	if len(desc) == 0 {
		c.mu.Unlock()
		return
	}
	c.scene.Update(desc, func(_ string, st scene.State) scene.State {
		st.Visible = false
		return st
	})
	mode := c.mode
	c.mu.Unlock()
	c.emit(OpHideSubtree, mode, desc)
}

// Sync brings the controller in line with objects that were just registered
// or unregistered. Removed objects leave the selection unless they were
// registered again in the same step, in which case they stay highlighted.
// While isolated, new objects outside the isolated subtree are x-rayed; if
// the isolated node lost all of its objects the scene is reset.
func (c *Controller) Sync(added, removed []string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	back := make(map[string]bool, len(added))
	for _, id := range added {
		back[id] = true
	}
	for _, id := range removed {
		if !back[id] {
			delete(c.selection, id)
		}
	}
	if len(c.selection) > 0 && len(added) > 0 {
		c.scene.Update(c.selectionLocked(), func(_ string, st scene.State) scene.State {
			st.Highlighted = true
			return st
		})
	}

	if c.mode.Isolated {
		desc := c.scene.Subtree(c.mode.Root)
		if len(desc) == 0 {
			root := c.mode.Root
			c.resetLocked()
			mode := c.mode
			c.mu.Unlock()
			c.logger.Debug("isolated node vanished, resetting", "node", root)
			c.frame(c.scene.SceneBounds())
			c.emit(OpReset, mode, nil)
			return
		}
		inside := make(map[string]bool, len(desc))
		for _, id := range desc {
			inside[id] = true
		}
		c.scene.Update(added, func(id string, st scene.State) scene.State {
			st.Xrayed = !inside[id]
			return st
		})
	}
	mode := c.mode
	c.mu.Unlock()

	c.emit(OpSync, mode, added)
}

// Subscribe registers fn for StateChanged notifications. The returned
// function removes the subscription.
func (c *Controller) Subscribe(fn func(StateChanged)) func() {
	if c == nil || fn == nil {
		return func() {}
	}
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsMu.Unlock()

	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

// emit notifies subscribers. mode is captured by the caller while holding
// mu so the event carries the mode the operation produced.
func (c *Controller) emit(op Op, mode Mode, objects []string) {
	ev := StateChanged{
		ID:      uuid.New(),
		Op:      op,
		Mode:    mode,
		Objects: objects,
		At:      c.now(),
	}

	c.subsMu.Lock()
	keys := make([]int, 0, len(c.subs))
	for k := range c.subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fns := make([]func(StateChanged), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, c.subs[k])
	}
	c.subsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (c *Controller) frame(box geometry.BoundingBox) {
	if c.framer == nil || box.IsEmpty() {
		return
	}
	c.framer.Frame(box)
}
