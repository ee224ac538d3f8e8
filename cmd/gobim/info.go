package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/philipparndt/gobim/internal/loader"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/analysis"
	"github.com/philipparndt/gobim/pkg/openscad"
	"github.com/philipparndt/gobim/pkg/stl"
	"github.com/spf13/cobra"
)

var longestEdges int

var infoCmd = &cobra.Command{
	Use:   "info [manifest|file]",
	Short: "Display the hierarchy and statistics of a scene or a geometry file",
	Long: `Show the containment hierarchy and scene statistics of a manifest, or the
solids, dimensions and edge statistics of a single STL or OpenSCAD file.`,
	Args: cobra.ExactArgs(1),
	Run:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().IntVar(&longestEdges, "edges", 0, "list the N longest edges of a geometry file")
}

func runInfo(cmd *cobra.Command, args []string) {
	cfg, logger := setup()
	path := args[0]

	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl", ".scad":
		var (
			model *stl.Model
			err   error
		)
		if strings.EqualFold(filepath.Ext(path), ".scad") {
			r := openscad.NewRenderer(filepath.Dir(path), cfg.OpenSCAD)
			model, err = r.Render(cmd.Context(), path)
		} else {
			model, err = stl.Parse(path)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading geometry: %v\n", err)
			os.Exit(1)
		}
		printModelInfo(path, model)
		return
	}

	models, err := loader.Load(cmd.Context(), path, loaderOptions(cfg, logger)...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	sc := scene.New()
	for _, m := range models {
		if _, err := sc.Register(m); err != nil {
			fmt.Fprintf(os.Stderr, "Error registering model: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("Scene Information")
	fmt.Println("=================")
	fmt.Printf("Manifest: %s\n\n", path)

	fmt.Println("Hierarchy:")
	printTree(os.Stdout, sc, false)
	fmt.Println()
	printSummary(analysis.Summarize(sc))
}

func printSummary(s analysis.Summary) {
	fmt.Println("Scene Statistics:")
	fmt.Printf("  Models: %d\n", s.Models)
	fmt.Printf("  Nodes: %d\n", s.Nodes)
	fmt.Printf("  Objects: %d\n", s.Objects)
	fmt.Printf("  Triangles: %d\n", s.Triangles)
	fmt.Printf("  Surface Area: %s\n\n", analysis.FormatMeasurement(s.SurfaceArea, "square units"))

	if len(s.Kinds) > 0 {
		kinds := make([]string, 0, len(s.Kinds))
		for k := range s.Kinds {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		fmt.Println("Node Kinds:")
		for _, k := range kinds {
			fmt.Printf("  %s: %d\n", k, s.Kinds[k])
		}
		fmt.Println()
	}

	if !s.Bounds.IsEmpty() {
		fmt.Println("Bounding Box:")
		fmt.Printf("  Min: %s\n", s.Bounds.Min)
		fmt.Printf("  Max: %s\n", s.Bounds.Max)
		fmt.Printf("  Center: %s\n\n", s.Bounds.Center())
	}

	fmt.Println("Object State:")
	fmt.Printf("  Visible: %d\n", s.Visible)
	fmt.Printf("  X-rayed: %d\n", s.Xrayed)
	fmt.Printf("  Highlighted: %d\n", s.Highlighted)
	fmt.Printf("  Selected: %d\n", s.Selected)
}

func printModelInfo(filename string, model *stl.Model) {
	result := analysis.AnalyzeModel(model)

	fmt.Println("Geometry File Information")
	fmt.Println("=========================")
	if model.Name != "" {
		fmt.Printf("Name: %s\n", model.Name)
	}
	fmt.Printf("File: %s\n\n", filename)

	fmt.Println("Model Statistics:")
	fmt.Printf("  Solids: %d\n", len(result.Solids))
	fmt.Printf("  Triangles: %d\n", result.TriangleCount)
	fmt.Printf("  Edges: %d\n", result.EdgeCount)
	fmt.Printf("  Surface Area: %.6f square units\n\n", result.SurfaceArea)

	fmt.Println("Solids:")
	for _, s := range result.Solids {
		name := s.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  %-20s %6d triangles  size %s\n", name, s.TriangleCount, s.Dimensions)
	}
	fmt.Println()

	fmt.Println("Bounding Box:")
	fmt.Printf("  Min: %s\n", result.BoundingBox.Min)
	fmt.Printf("  Max: %s\n", result.BoundingBox.Max)
	fmt.Printf("  Center: %s\n\n", result.BoundingBox.Center())

	fmt.Println("Dimensions:")
	fmt.Printf("  Width (X): %.6f units\n", result.Dimensions.X)
	fmt.Printf("  Depth (Y): %.6f units\n", result.Dimensions.Y)
	fmt.Printf("  Height (Z): %.6f units\n", result.Dimensions.Z)
	fmt.Printf("  Diagonal: %.6f units\n", result.BoundingBox.Diagonal())
	fmt.Printf("  Volume: %.6f cubic units\n\n", result.Volume)

	fmt.Println("Edge Lengths:")
	fmt.Printf("  Minimum: %.6f units\n", result.MinEdgeLength)
	fmt.Printf("  Maximum: %.6f units\n", result.MaxEdgeLength)
	fmt.Printf("  Average: %.6f units\n", result.AvgEdgeLength)

	if longestEdges > 0 {
		fmt.Printf("\nLongest %d Edges:\n", longestEdges)
		for i, e := range analysis.FindLongestEdges(result, longestEdges) {
			fmt.Printf("  %3d. %.6f  %s -> %s  (solid %q, triangle %d)\n",
				i+1, e.Length, e.Start, e.End, e.Solid, e.TriangleID)
		}
	}
}
