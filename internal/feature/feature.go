// Package feature computes global machining features of a mesh. The
// feature vector feeds the strategy advisor; its slot order and count
// are part of the model card contract.
package feature

import (
	"math"

	"github.com/piwi3910/cnc-toolpath/internal/model"
)

const featureEps = 1e-6

// SlopeBinCount is the number of slope histogram bins.
const SlopeBinCount = 5

// Count is the number of slots produced by Vector.
const Count = 15

// ModelInputCount is Count plus the two user parameter slots appended
// for model input (step-over, then tool diameter).
const ModelInputCount = Count + 2

// Bins align with common machining breakpoints: 0-15 deg for flats,
// 15-30 deg for shallow walls, and so on, so the planner can map
// geometry statistics directly to strategy templates.
var slopeBinBoundariesDeg = [SlopeBinCount + 1]float64{0, 15, 30, 45, 60, 90.1}

// Features holds the global geometry statistics of one mesh. The slope
// histogram is stored normalized by total surface area.
type Features struct {
	BBoxExtent        model.Vec3
	SurfaceArea       float64
	Volume            float64
	SlopeHistogram    [SlopeBinCount]float64
	MeanCurvature     float64
	CurvatureVariance float64
	FlatAreaRatio     float64
	SteepAreaRatio    float64
	PocketDepth       float64
	Valid             bool
}

func normalizeSafe(v model.Vec3) model.Vec3 {
	length := v.Length()
	if length < featureEps {
		return model.Vec3{}
	}
	return v.Scale(1.0 / length)
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func slopeBinIndex(slopeDeg float64) int {
	for i := 0; i+1 < len(slopeBinBoundariesDeg); i++ {
		if slopeDeg >= slopeBinBoundariesDeg[i] && slopeDeg < slopeBinBoundariesDeg[i+1] {
			return min(i, SlopeBinCount-1)
		}
	}
	return SlopeBinCount - 1
}

// Compute walks every triangle of the mesh and accumulates the global
// features. An empty mesh, or one whose triangles are all degenerate,
// yields the zero value with Valid false.
func Compute(mesh *model.Mesh) Features {
	var features Features

	vertices := mesh.Vertices()
	indices := mesh.Indices()
	if len(vertices) == 0 || len(indices) < 3 {
		return features
	}

	bounds := mesh.Bounds()
	features.BBoxExtent = bounds.Size()

	var surfaceArea float64
	var enclosedVolume float64
	var slopeArea [SlopeBinCount]float64
	var flatArea, steepArea float64
	curvatureSamples := make([]float64, 0, len(indices))

	minZ := math.MaxFloat64
	for i := range vertices {
		minZ = math.Min(minZ, vertices[i].Position.Z)
	}

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := int(indices[i]), int(indices[i+1]), int(indices[i+2])
		if i0 >= len(vertices) || i1 >= len(vertices) || i2 >= len(vertices) {
			continue
		}

		p0 := vertices[i0].Position
		p1 := vertices[i1].Position
		p2 := vertices[i2].Position

		cross := p1.Sub(p0).Cross(p2.Sub(p0))
		triArea := 0.5 * cross.Length()
		if triArea < featureEps {
			continue
		}

		surfaceArea += triArea

		faceNormal := normalizeSafe(cross)
		slopeDeg := math.Acos(math.Min(math.Abs(faceNormal.Z), 1.0)) * 180.0 / math.Pi
		slopeArea[slopeBinIndex(slopeDeg)] += triArea

		if slopeDeg < 15.0 {
			flatArea += triArea
		}
		if slopeDeg >= 60.0 {
			steepArea += triArea
		}

		enclosedVolume += p0.Dot(p1.Cross(p2)) / 6.0

		for _, vi := range [3]int{i0, i1, i2} {
			normal := normalizeSafe(vertices[vi].Normal)
			if normal.Length() < featureEps {
				continue
			}
			cosAngle := math.Max(-1.0, math.Min(1.0, normal.Dot(faceNormal)))
			curvatureSamples = append(curvatureSamples, math.Acos(cosAngle))
		}
	}

	if surfaceArea <= 0 {
		return Features{}
	}

	for i := range slopeArea {
		features.SlopeHistogram[i] = slopeArea[i] / surfaceArea
	}

	features.SurfaceArea = surfaceArea
	features.Volume = math.Abs(enclosedVolume)
	features.FlatAreaRatio = clamp01(flatArea / surfaceArea)
	features.SteepAreaRatio = clamp01(steepArea / surfaceArea)

	if len(curvatureSamples) > 0 {
		var sum float64
		for _, v := range curvatureSamples {
			sum += v
		}
		mean := sum / float64(len(curvatureSamples))
		var varAccum float64
		for _, v := range curvatureSamples {
			diff := v - mean
			varAccum += diff * diff
		}
		features.MeanCurvature = mean
		features.CurvatureVariance = varAccum / float64(len(curvatureSamples))
	}

	features.PocketDepth = math.Max(bounds.Max.Z-minZ, 0)
	features.Valid = true
	return features
}

// Vector flattens the features into the canonical slot order: bbox
// extents, surface area, volume, the five slope bins, mean curvature,
// curvature variance, flat ratio, steep ratio, pocket depth.
func (f Features) Vector() []float64 {
	result := make([]float64, 0, Count)
	result = append(result,
		f.BBoxExtent.X,
		f.BBoxExtent.Y,
		f.BBoxExtent.Z,
		f.SurfaceArea,
		f.Volume,
	)
	result = append(result, f.SlopeHistogram[:]...)
	result = append(result,
		f.MeanCurvature,
		f.CurvatureVariance,
		f.FlatAreaRatio,
		f.SteepAreaRatio,
		f.PocketDepth,
	)
	return result
}

// Names returns the canonical slot names matching Vector order.
func Names() []string {
	return []string{
		"bbox_x_mm",
		"bbox_y_mm",
		"bbox_z_mm",
		"surface_area_mm2",
		"volume_mm3",
		"slope_bin_0_15",
		"slope_bin_15_30",
		"slope_bin_30_45",
		"slope_bin_45_60",
		"slope_bin_60_90",
		"mean_curvature_rad",
		"curvature_variance",
		"flat_area_ratio",
		"steep_area_ratio",
		"pocket_depth_mm",
	}
}

// ModelInputNames returns the slot names of the full model input: the
// canonical features plus the appended user step-over and tool
// diameter.
func ModelInputNames() []string {
	return append(Names(), "user_step_over_mm", "tool_diameter_mm")
}

// ModelInput assembles the full input vector for a strategy model by
// appending the user step-over and tool diameter to the feature vector.
func ModelInput(f Features, params model.UserParams) []float64 {
	input := make([]float64, 0, ModelInputCount)
	input = append(input, f.Vector()...)
	return append(input, params.StepOver, params.ToolDiameter)
}
