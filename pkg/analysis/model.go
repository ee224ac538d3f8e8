package analysis

import (
	"math"
	"sort"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/stl"
)

// EdgeInfo contains information about an edge of a solid
type EdgeInfo struct {
	Solid      string
	Start      geometry.Vector3
	End        geometry.Vector3
	Length     float64
	TriangleID int
}

// SolidResult contains the measurements of one solid
type SolidResult struct {
	Name          string
	BoundingBox   geometry.BoundingBox
	Dimensions    geometry.Vector3
	SurfaceArea   float64
	TriangleCount int
}

// ModelResult contains the measurements of an STL model
type ModelResult struct {
	BoundingBox   geometry.BoundingBox
	Dimensions    geometry.Vector3
	Volume        float64
	SurfaceArea   float64
	TriangleCount int
	Solids        []SolidResult
	EdgeCount     int
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64
	AllEdges      []EdgeInfo
}

// AnalyzeModel measures every solid of model and collects its edges
func AnalyzeModel(model *stl.Model) *ModelResult {
	result := &ModelResult{
		BoundingBox:   model.BoundingBox(),
		TriangleCount: model.TriangleCount(),
	}
	result.Dimensions = result.BoundingBox.Size()
	result.Volume = result.BoundingBox.Volume()

	minLength := math.MaxFloat64
	maxLength := 0.0
	totalLength := 0.0

	for _, solid := range model.Solids {
		bbox := solid.BoundingBox()
		area := solid.SurfaceArea()
		result.SurfaceArea += area
		result.Solids = append(result.Solids, SolidResult{
			Name:          solid.Name,
			BoundingBox:   bbox,
			Dimensions:    bbox.Size(),
			SurfaceArea:   area,
			TriangleCount: len(solid.Triangles),
		})

		for i, triangle := range solid.Triangles {
			lengths := triangle.EdgeLengths()
			ends := [3][2]geometry.Vector3{
				{triangle.V1, triangle.V2},
				{triangle.V2, triangle.V3},
				{triangle.V3, triangle.V1},
			}
			for e, length := range lengths {
				result.AllEdges = append(result.AllEdges, EdgeInfo{
					Solid:      solid.Name,
					Start:      ends[e][0],
					End:        ends[e][1],
					Length:     length,
					TriangleID: i,
				})
				totalLength += length
				minLength = math.Min(minLength, length)
				maxLength = math.Max(maxLength, length)
			}
		}
	}

	result.EdgeCount = len(result.AllEdges)
	if result.EdgeCount > 0 {
		result.MinEdgeLength = minLength
		result.MaxEdgeLength = maxLength
		result.AvgEdgeLength = totalLength / float64(result.EdgeCount)
	}

	return result
}

// FindLongestEdges returns the N longest edges in the model
func FindLongestEdges(result *ModelResult, count int) []EdgeInfo {
	return sortedEdges(result, count, func(a, b float64) bool { return a > b })
}

// FindShortestEdges returns the N shortest edges in the model
func FindShortestEdges(result *ModelResult, count int) []EdgeInfo {
	return sortedEdges(result, count, func(a, b float64) bool { return a < b })
}

func sortedEdges(result *ModelResult, count int, less func(a, b float64) bool) []EdgeInfo {
	edges := make([]EdgeInfo, len(result.AllEdges))
	copy(edges, result.AllEdges)

	sort.SliceStable(edges, func(i, j int) bool {
		return less(edges[i].Length, edges[j].Length)
	})

	if count > len(edges) {
		count = len(edges)
	}
	return edges[:count]
}

// FindNearestVertex finds the vertex of any solid nearest to point
func FindNearestVertex(model *stl.Model, point geometry.Vector3) (geometry.Vector3, float64) {
	var nearestVertex geometry.Vector3
	minDistance := math.MaxFloat64

	for _, solid := range model.Solids {
		for _, triangle := range solid.Triangles {
			for _, vertex := range [3]geometry.Vector3{triangle.V1, triangle.V2, triangle.V3} {
				if distance := point.Distance(vertex); distance < minDistance {
					minDistance = distance
					nearestVertex = vertex
				}
			}
		}
	}

	return nearestVertex, minDistance
}
