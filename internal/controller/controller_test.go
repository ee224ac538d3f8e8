package controller

import (
	"sync"
	"testing"

	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFramer struct {
	mu    sync.Mutex
	boxes []geometry.BoundingBox
}

func (f *recordingFramer) Frame(box geometry.BoundingBox) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boxes = append(f.boxes, box)
}

func (f *recordingFramer) last() geometry.BoundingBox {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boxes[len(f.boxes)-1]
}

func unitAt(x float64) *scene.Geometry {
	b := geometry.NewBoundingBox()
	b.Extend(geometry.NewVector3(x, 0, 0))
	b.Extend(geometry.NewVector3(x+1, 1, 1))
	return &scene.Geometry{Bounds: b, Triangles: 12}
}

func element(id string, x float64) *scene.NodeSpec {
	return &scene.NodeSpec{ID: id, Kind: "element", Geometry: unitAt(x)}
}

// house: project1 -> building1 -> story1 {wall1, wall2, door1}, story2 {}
func house() *scene.ModelSpec {
	return &scene.ModelSpec{
		ID: "house",
		Root: &scene.NodeSpec{ID: "project1", Kind: "project", Children: []*scene.NodeSpec{
			{ID: "building1", Kind: "building", Children: []*scene.NodeSpec{
				{ID: "story1", Kind: "story", Children: []*scene.NodeSpec{
					element("wall1", 0), element("wall2", 2), element("door1", 4),
				}},
				{ID: "story2", Kind: "story"},
			}},
		}},
	}
}

func roofModel() *scene.ModelSpec {
	return &scene.ModelSpec{
		ID:   "roof",
		Root: &scene.NodeSpec{ID: "roofproject", Kind: "project", Children: []*scene.NodeSpec{element("roof1", 10)}},
	}
}

func newController(t *testing.T, opts ...Option) (*Controller, *scene.Scene, *recordingFramer) {
	t.Helper()
	sc := scene.New()
	_, err := sc.Register(house())
	require.NoError(t, err)
	framer := &recordingFramer{}
	return New(sc, framer, opts...), sc, framer
}

func allStates(sc *scene.Scene) map[string]scene.State {
	return sc.States()
}

func highlightedCount(sc *scene.Scene) int {
	n := 0
	for _, st := range allStates(sc) {
		if st.Highlighted {
			n++
		}
	}
	return n
}

func TestIsolateSubtree(t *testing.T) {
	c, sc, framer := newController(t)

	require.NoError(t, c.IsolateSubtree("story1"))

	for _, id := range []string{"wall1", "wall2", "door1"} {
		st, ok := c.State(id)
		require.True(t, ok)
		assert.False(t, st.Xrayed, id)
		assert.True(t, st.Visible, id)
	}
	assert.Equal(t, Isolated("story1"), c.Mode())
	assert.Equal(t, sc.BoundsOf("wall1", "wall2", "door1"), framer.last())

	// roof1 registered later lies outside story1
	added, err := sc.Register(roofModel())
	require.NoError(t, err)
	c.Sync(added, nil)

	st, _ := c.State("roof1")
	assert.True(t, st.Xrayed)
	st, _ = c.State("wall1")
	assert.False(t, st.Xrayed)
}

func TestIsolateXraysEverythingOutside(t *testing.T) {
	c, sc, _ := newController(t)
	added, err := sc.Register(roofModel())
	require.NoError(t, err)
	c.Sync(added, nil)

	require.NoError(t, c.IsolateSubtree("wall2"))

	for id, st := range allStates(sc) {
		assert.Equal(t, id != "wall2", st.Xrayed, id)
	}
}

func TestIsolateClearsHighlight(t *testing.T) {
	c, sc, _ := newController(t)
	c.SetHighlighted("roof1", true) // unknown, ignored
	c.SetHighlighted("wall1", true)

	require.NoError(t, c.IsolateSubtree("story1"))

	assert.Empty(t, c.Selection())
	assert.Equal(t, 0, highlightedCount(sc))

	// a highlight right after isolating sticks
	c.SetHighlighted("door1", true)
	st, _ := c.State("door1")
	assert.True(t, st.Highlighted)
}

func TestIsolateKeepsHighlightWhenPolicySaysSo(t *testing.T) {
	c, _, _ := newController(t, WithPolicy(Policy{ClearHighlightOnIsolate: false}))
	c.SetHighlighted("wall1", true)

	require.NoError(t, c.IsolateSubtree("story1"))

	assert.Equal(t, []string{"wall1"}, c.Selection())
	st, _ := c.State("wall1")
	assert.True(t, st.Highlighted)
}

func TestReisolateReplaces(t *testing.T) {
	c, sc, _ := newController(t)

	require.NoError(t, c.IsolateSubtree("story1"))
	require.NoError(t, c.IsolateSubtree("door1"))

	assert.Equal(t, Isolated("door1"), c.Mode())
	for id, st := range allStates(sc) {
		assert.Equal(t, id != "door1", st.Xrayed, id)
	}

	// default policy re-applies on re-click
	require.NoError(t, c.IsolateSubtree("door1"))
	assert.Equal(t, Isolated("door1"), c.Mode())
}

func TestReclickTogglesIsolation(t *testing.T) {
	c, sc, _ := newController(t, WithPolicy(Policy{ReclickTogglesIsolation: true}))

	require.NoError(t, c.IsolateSubtree("story1"))
	require.NoError(t, c.IsolateSubtree("story1"))

	assert.Equal(t, Free, c.Mode())
	for id, st := range allStates(sc) {
		assert.Equal(t, scene.DefaultState(), st, id)
	}
}

func TestIsolateEmptySubtreeResets(t *testing.T) {
	for _, node := range []string{"nonexistent", "story2"} {
		t.Run(node, func(t *testing.T) {
			c, sc, framer := newController(t)
			c.SetHighlighted("wall1", true)
			c.ToggleXray("door1")
			c.SetVisible("wall2", false)

			err := c.IsolateSubtree(node)
			assert.ErrorIs(t, err, ErrEmptySubtree)

			reference, refScene, _ := newController(t)
			reference.ResetAll()
			assert.Equal(t, allStates(refScene), allStates(sc))
			assert.Equal(t, Free, c.Mode())
			assert.Equal(t, sc.SceneBounds(), framer.last())
		})
	}
}

func TestResetAll(t *testing.T) {
	c, sc, framer := newController(t)
	require.NoError(t, c.IsolateSubtree("story1"))
	c.SetHighlighted("wall1", true)
	c.SetSelected("wall2", true)
	c.SetVisible("door1", false)

	c.ResetAll()

	for id, st := range allStates(sc) {
		assert.Equal(t, scene.DefaultState(), st, id)
	}
	assert.Empty(t, c.Selection())
	assert.Equal(t, Free, c.Mode())
	assert.Equal(t, sc.SceneBounds(), framer.last())

	before := allStates(sc)
	c.ResetAll()
	assert.Equal(t, before, allStates(sc))
}

func TestIsolateThenResetEqualsReset(t *testing.T) {
	a, sa, _ := newController(t)
	require.NoError(t, a.IsolateSubtree("story1"))
	a.ResetAll()

	b, sb, _ := newController(t)
	b.ResetAll()

	assert.Equal(t, allStates(sb), allStates(sa))
	assert.Equal(t, b.Mode(), a.Mode())
}

func TestSetHighlightedSingleSelect(t *testing.T) {
	c, sc, _ := newController(t)

	c.SetHighlighted("wall1", true)
	c.SetHighlighted("wall2", true)

	a, _ := c.State("wall1")
	b, _ := c.State("wall2")
	assert.False(t, a.Highlighted)
	assert.True(t, b.Highlighted)
	assert.Equal(t, []string{"wall2"}, c.Selection())

	// clearing an object that is not the sole member does nothing
	c.SetHighlighted("wall1", false)
	assert.Equal(t, []string{"wall2"}, c.Selection())

	c.SetHighlighted("wall2", false)
	assert.Empty(t, c.Selection())
	assert.Equal(t, 0, highlightedCount(sc))
}

func TestSetHighlightedSequenceInvariant(t *testing.T) {
	c, sc, _ := newController(t)
	seq := []struct {
		id string
		on bool
	}{
		{"wall1", true}, {"door1", true}, {"door1", true}, {"ghost", true},
		{"wall2", false}, {"wall2", true}, {"wall2", false}, {"wall1", true},
	}
	for _, step := range seq {
		c.SetHighlighted(step.id, step.on)
		assert.LessOrEqual(t, highlightedCount(sc), 1)

		sel := c.Selection()
		for id, st := range allStates(sc) {
			assert.Equal(t, st.Highlighted, len(sel) == 1 && sel[0] == id, id)
		}
	}
}

func TestPickAndHighlight(t *testing.T) {
	c, sc, framer := newController(t)

	c.SetHighlighted("wall1", true)
	c.PickAndHighlight("")

	st, _ := c.State("wall1")
	assert.False(t, st.Highlighted)
	assert.Empty(t, c.Selection())

	c.PickAndHighlight("door1")
	st, _ = c.State("door1")
	assert.True(t, st.Highlighted)
	assert.Equal(t, sc.BoundsOf("door1"), framer.last())

	n := len(framer.boxes)
	c.PickAndHighlight("ghost")
	assert.Len(t, framer.boxes, n)
	assert.Equal(t, []string{"door1"}, c.Selection())
}

func TestToggleXray(t *testing.T) {
	c, sc, _ := newController(t)

	c.ToggleXray("wall1")
	st, _ := c.State("wall1")
	assert.True(t, st.Xrayed)

	for id, other := range allStates(sc) {
		if id != "wall1" {
			assert.False(t, other.Xrayed, id)
		}
	}

	c.ToggleXray("wall1")
	st, _ = c.State("wall1")
	assert.False(t, st.Xrayed)
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	c, sc, _ := newController(t)
	c.SetHighlighted("wall1", true)
	before := allStates(sc)

	assert.NotPanics(t, func() {
		c.SetHighlighted("ghost", true)
		c.SetHighlighted("ghost", false)
		c.PickAndHighlight("ghost")
		c.ToggleXray("ghost")
		c.SetSelected("ghost", true)
		c.SetVisible("ghost", false)
		c.HideSubtree("ghost")
	})

	assert.Equal(t, before, allStates(sc))
	_, ok := c.State("ghost")
	assert.False(t, ok)
}

func TestNilControllerIsNoOp(t *testing.T) {
	var c *Controller

	assert.NotPanics(t, func() {
		assert.NoError(t, c.IsolateSubtree("story1"))
		c.ResetAll()
		c.SetHighlighted("wall1", true)
		c.PickAndHighlight("wall1")
		c.PickAndHighlight("")
		c.ToggleXray("wall1")
		c.SetSelected("wall1", true)
		c.SetVisible("wall1", true)
		c.HideSubtree("story1")
		c.Sync([]string{"a"}, []string{"b"})
		c.Restore(Snapshot{})
		c.Subscribe(func(StateChanged) {})()
	})
	assert.Equal(t, Free, c.Mode())
	assert.Nil(t, c.Selection())
	assert.Empty(t, c.Snapshot().Objects)
}

func TestHideSubtree(t *testing.T) {
	c, _, _ := newController(t)

	c.HideSubtree("story1")

	for _, id := range []string{"wall1", "wall2", "door1"} {
		st, _ := c.State(id)
		assert.False(t, st.Visible, id)
		assert.False(t, st.Xrayed, id)
	}
	assert.Equal(t, Free, c.Mode())
}

func TestSyncPrunesSelectionAndIsolation(t *testing.T) {
	c, sc, _ := newController(t)
	added, err := sc.Register(roofModel())
	require.NoError(t, err)
	c.Sync(added, nil)

	c.SetHighlighted("roof1", true)
	removed, ok := sc.Unload("roof")
	require.True(t, ok)
	c.Sync(nil, removed)
	assert.Empty(t, c.Selection())

	require.NoError(t, c.IsolateSubtree("story1"))
	removed, ok = sc.Unload("house")
	require.True(t, ok)
	c.Sync(nil, removed)
	assert.Equal(t, Free, c.Mode())
}

func TestSubscribe(t *testing.T) {
	c, _, _ := newController(t)

	var events []StateChanged
	cancel := c.Subscribe(func(ev StateChanged) {
		// listeners may query the controller
		_ = c.Mode()
		events = append(events, ev)
	})

	require.NoError(t, c.IsolateSubtree("story1"))
	c.PickAndHighlight("wall1")
	c.ResetAll()
	cancel()
	c.ToggleXray("wall1")

	require.Len(t, events, 3)
	assert.Equal(t, OpIsolate, events[0].Op)
	assert.Equal(t, Isolated("story1"), events[0].Mode)
	assert.ElementsMatch(t, []string{"wall1", "wall2", "door1"}, events[0].Objects)
	assert.Equal(t, OpPick, events[1].Op)
	assert.Equal(t, OpReset, events[2].Op)
	assert.Equal(t, Free, events[2].Mode)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestSnapshotRestore(t *testing.T) {
	c, sc, _ := newController(t, WithPolicy(Policy{}))
	c.SetHighlighted("wall1", true)
	require.NoError(t, c.IsolateSubtree("story1"))
	c.SetSelected("door1", true)
	snap := c.Snapshot()
	want := allStates(sc)

	c.ResetAll()
	c.Restore(snap)

	assert.Equal(t, want, allStates(sc))
	assert.Equal(t, Isolated("story1"), c.Mode())
	assert.Equal(t, []string{"wall1"}, c.Selection())
}

func TestRestoreEnforcesSingleHighlight(t *testing.T) {
	c, sc, _ := newController(t)
	snap := Snapshot{
		Mode:      Isolated("ghost-node"),
		Selection: []string{"ghost", "wall2", "wall1"},
		Objects: map[string]scene.State{
			"wall1": {Visible: true, Highlighted: true},
			"wall2": {Visible: true, Highlighted: true},
		},
	}

	c.Restore(snap)

	assert.Equal(t, 1, highlightedCount(sc))
	assert.Equal(t, []string{"wall2"}, c.Selection())
	assert.Equal(t, Free, c.Mode())
	st, _ := c.State("door1")
	assert.Equal(t, scene.DefaultState(), st)
}

func TestConcurrentHighlightKeepsInvariant(t *testing.T) {
	c, sc, _ := newController(t)
	ids := []string{"wall1", "wall2", "door1"}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	violations := 0
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				if highlightedCount(sc) > 1 {
					violations++
				}
			}
		}
	}()

	var writers sync.WaitGroup
	for i := 0; i < 4; i++ {
		writers.Add(1)
		go func(i int) {
			defer writers.Done()
			for j := 0; j < 200; j++ {
				c.SetHighlighted(ids[(i+j)%len(ids)], true)
			}
		}(i)
	}
	writers.Wait()
	close(stop)
	wg.Wait()

	assert.Equal(t, 0, violations)
	assert.Equal(t, 1, highlightedCount(sc))
}

func TestEventsCarryTheModeOfTheirOperation(t *testing.T) {
	c, _, _ := newController(t)

	var mu sync.Mutex
	mismatches := 0
	c.Subscribe(func(ev StateChanged) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Op {
		case OpIsolate:
			if ev.Mode != Isolated("story1") {
				mismatches++
			}
		case OpReset:
			if ev.Mode != Free {
				mismatches++
			}
		}
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = c.IsolateSubtree("story1")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.ResetAll()
		}
	}()
	wg.Wait()

	assert.Equal(t, 0, mismatches)
}

func TestSyncKeepsHighlightOfReregisteredObjects(t *testing.T) {
	c, sc, _ := newController(t)
	c.SetHighlighted("wall1", true)

	added, removed, err := sc.Replace(house())
	require.NoError(t, err)
	c.Sync(added, removed)

	assert.Equal(t, []string{"wall1"}, c.Selection())
	st, _ := c.State("wall1")
	assert.True(t, st.Highlighted)
	assert.Equal(t, 1, highlightedCount(sc))
}
