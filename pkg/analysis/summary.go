package analysis

import (
	"fmt"

	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// Summary holds scene-wide statistics
type Summary struct {
	Models      int
	Nodes       int
	Objects     int
	Triangles   int
	SurfaceArea float64
	Bounds      geometry.BoundingBox
	Kinds       map[string]int

	Visible     int
	Xrayed      int
	Highlighted int
	Selected    int
}

// Summarize computes statistics over every loaded model of sc
func Summarize(sc *scene.Scene) Summary {
	s := Summary{Bounds: sc.SceneBounds(), Kinds: make(map[string]int)}

	var walk func(id string)
	walk = func(id string) {
		n, ok := sc.Node(id)
		if !ok {
			return
		}
		s.Nodes++
		if n.Kind != "" {
			s.Kinds[n.Kind]++
		}
		for _, c := range sc.Children(id) {
			walk(c)
		}
	}
	for _, m := range sc.Models() {
		s.Models++
		walk(m.Root)
	}

	states := sc.States()
	for _, id := range sc.RegisteredObjectIDs() {
		o, ok := sc.Object(id)
		if !ok {
			continue
		}
		s.Objects++
		s.Triangles += o.Triangles
		s.SurfaceArea += o.SurfaceArea

		st := states[id]
		if st.Visible {
			s.Visible++
		}
		if st.Xrayed {
			s.Xrayed++
		}
		if st.Highlighted {
			s.Highlighted++
		}
		if st.Selected {
			s.Selected++
		}
	}
	return s
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}
