package controller

import (
	"github.com/philipparndt/gobim/internal/scene"
)

// Snapshot captures the complete controller state for saved views
type Snapshot struct {
	Mode      Mode                   `json:"mode"`
	Selection []string               `json:"selection"`
	Objects   map[string]scene.State `json:"objects"`
}

// Snapshot captures the flags of every registered object together with the
// mode and selection.
func (c *Controller) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{Objects: map[string]scene.State{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Mode:      c.mode,
		Selection: c.selectionLocked(),
		Objects:   make(map[string]scene.State),
	}
	for _, id := range c.scene.RegisteredObjectIDs() {
		if st, ok := c.scene.State(id); ok {
			snap.Objects[id] = st
		}
	}
	return snap
}

// Restore applies a snapshot to the objects that are still registered.
// Objects missing from the snapshot get default flags. Highlight flags are
// rebuilt from the snapshot selection so the single-highlight rule holds even
// for hand-edited snapshots.
func (c *Controller) Restore(snap Snapshot) {
	if c == nil {
		return
	}
	c.mu.Lock()

	var highlighted string
	for _, id := range snap.Selection {
		if c.scene.Has(id) {
			highlighted = id
			break
		}
	}

	mode := snap.Mode
	var inside map[string]bool
	if mode.Isolated {
		desc := c.scene.Subtree(mode.Root)
		if len(desc) == 0 {
			mode = Free
		} else {
			inside = make(map[string]bool, len(desc))
			for _, id := range desc {
				inside[id] = true
			}
		}
	}

	c.scene.ApplyAll(func(id string, _ scene.State) scene.State {
		st, ok := snap.Objects[id]
		if !ok {
			st = scene.DefaultState()
			if mode.Isolated {
				st.Xrayed = !inside[id]
			}
		}
		st.Highlighted = id == highlighted
		return st
	})

	c.mode = mode
	c.selection = make(map[string]bool)
	if highlighted != "" {
		c.selection[highlighted] = true
	}
	c.mu.Unlock()

	c.emit(OpRestore, mode, nil)
}
