package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/philipparndt/gobim/internal/scene"
)

// printTree writes the containment hierarchy of every model. With states set,
// objects are followed by their visual flags.
func printTree(w io.Writer, sc *scene.Scene, states bool) {
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n, ok := sc.Node(id)
		if !ok {
			return
		}
		line := strings.Repeat("  ", depth+1) + n.ID
		if n.Kind != "" {
			line += " [" + n.Kind + "]"
		}
		if n.Name != "" && n.Name != n.ID {
			line += " " + n.Name
		}
		if states && n.IsObject {
			if st, ok := sc.State(id); ok {
				line += "  " + formatState(st)
			}
		}
		fmt.Fprintln(w, line)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, root := range sc.Roots() {
		walk(root, 0)
	}
}

func formatState(st scene.State) string {
	var flags []string
	if st.Visible {
		flags = append(flags, "visible")
	} else {
		flags = append(flags, "hidden")
	}
	if st.Xrayed {
		flags = append(flags, "xray")
	}
	if st.Highlighted {
		flags = append(flags, "highlighted")
	}
	if st.Selected {
		flags = append(flags, "selected")
	}
	return strings.Join(flags, ",")
}
