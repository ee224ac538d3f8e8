package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/philipparndt/gobim/internal/measurement"
	"github.com/philipparndt/gobim/pkg/analysis"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/stl"
	"github.com/spf13/cobra"
)

var snapFile string

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Measure distances and angles between points",
	Long: `Measure the distance between two points or the angle at a corner point.
Points are written as x,y,z. With --snap each point is moved to the nearest
vertex of the given STL file first.`,
}

var measureDistanceCmd = &cobra.Command{
	Use:   "distance [p1] [p2]",
	Short: "Measure the straight-line distance between two points",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runMeasure(measurement.Distance("cli"), args)
	},
}

var measureAngleCmd = &cobra.Command{
	Use:   "angle [origin] [corner] [target]",
	Short: "Measure the angle at corner between origin and target",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		runMeasure(measurement.Angle("cli"), args)
	},
}

func init() {
	rootCmd.AddCommand(measureCmd)
	measureCmd.PersistentFlags().StringVar(&snapFile, "snap", "", "STL file whose nearest vertices replace the points")
	measureCmd.AddCommand(measureDistanceCmd, measureAngleCmd)
}

// parsePoint parses "x,y,z"
func parsePoint(text string) (geometry.Vector3, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return geometry.Vector3{}, fmt.Errorf("point %q: expected x,y,z", text)
	}
	var c [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Vector3{}, fmt.Errorf("point %q: %w", text, err)
		}
		c[i] = v
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}

func runMeasure(ref measurement.Ref, args []string) {
	setup()

	points := make([]geometry.Vector3, 0, len(args))
	for _, arg := range args {
		p, err := parsePoint(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		points = append(points, p)
	}

	title := "Point-to-Point Measurement"
	if ref.Kind == measurement.KindAngle {
		title = "Angle Measurement"
	}
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", len(title)))

	if snapFile != "" {
		model, err := stl.Parse(snapFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing STL file: %v\n", err)
			os.Exit(1)
		}
		for i, p := range points {
			nearest, dist := analysis.FindNearestVertex(model, p)
			fmt.Printf("\nPoint %d: %s\n", i+1, p)
			fmt.Printf("  Nearest vertex: %s (distance: %.6f)\n", nearest, dist)
			points[i] = nearest
		}
	}

	m, err := measurement.New(ref, points)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if ref.Kind == measurement.KindAngle {
		fmt.Printf("\nAngle: %s\n", m.Label())
		return
	}
	fmt.Printf("\nDirect distance: %s\n", analysis.FormatMeasurement(m.Value, "units"))
	delta := points[1].Sub(points[0])
	fmt.Printf("  Along X: %.6f\n", delta.X)
	fmt.Printf("  Along Y: %.6f\n", delta.Y)
	fmt.Printf("  Along Z: %.6f\n", delta.Z)
}
