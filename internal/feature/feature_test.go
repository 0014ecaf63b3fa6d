package feature

import (
	"math"
	"testing"

	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// flatTriangleMesh returns a single right triangle in the z=0 plane
// with up-facing vertex normals.
func flatTriangleMesh() *model.Mesh {
	up := model.Vec3{Z: 1}
	vertices := []model.Vertex{
		{Position: model.Vec3{X: 0, Y: 0, Z: 0}, Normal: up},
		{Position: model.Vec3{X: 1, Y: 0, Z: 0}, Normal: up},
		{Position: model.Vec3{X: 0, Y: 1, Z: 0}, Normal: up},
	}
	mesh := &model.Mesh{}
	mesh.SetMeshData(vertices, []uint32{0, 1, 2})
	return mesh
}

// unitCubeMesh returns a closed unit cube with outward winding.
func unitCubeMesh() *model.Mesh {
	corners := []model.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	vertices := make([]model.Vertex, len(corners))
	for i, c := range corners {
		vertices[i] = model.Vertex{Position: c}
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2, // bottom
		4, 5, 6, 4, 6, 7, // top
		0, 1, 5, 0, 5, 4, // front
		3, 7, 6, 3, 6, 2, // back
		0, 4, 7, 0, 7, 3, // left
		1, 2, 6, 1, 6, 5, // right
	}
	mesh := &model.Mesh{}
	mesh.SetMeshData(vertices, indices)
	return mesh
}

func TestComputeFlatTriangle(t *testing.T) {
	f := Compute(flatTriangleMesh())
	if !f.Valid {
		t.Fatal("flat triangle should produce valid features")
	}

	if math.Abs(f.SurfaceArea-0.5) > 1e-9 {
		t.Errorf("SurfaceArea = %v, want 0.5", f.SurfaceArea)
	}
	if math.Abs(f.FlatAreaRatio-1.0) > 1e-9 {
		t.Errorf("FlatAreaRatio = %v, want 1", f.FlatAreaRatio)
	}
	if f.SteepAreaRatio != 0 {
		t.Errorf("SteepAreaRatio = %v, want 0", f.SteepAreaRatio)
	}
	if math.Abs(f.SlopeHistogram[0]-1.0) > 1e-9 {
		t.Errorf("SlopeHistogram[0] = %v, want 1", f.SlopeHistogram[0])
	}
	if f.PocketDepth != 0 {
		t.Errorf("PocketDepth = %v, want 0", f.PocketDepth)
	}
	// Vertex normals equal the face normal, so curvature is flat zero.
	if f.MeanCurvature != 0 || f.CurvatureVariance != 0 {
		t.Errorf("curvature = %v/%v, want 0/0", f.MeanCurvature, f.CurvatureVariance)
	}
}

func TestComputeUnitCube(t *testing.T) {
	f := Compute(unitCubeMesh())
	if !f.Valid {
		t.Fatal("cube should produce valid features")
	}

	if math.Abs(f.SurfaceArea-6.0) > 1e-9 {
		t.Errorf("SurfaceArea = %v, want 6", f.SurfaceArea)
	}
	if math.Abs(f.Volume-1.0) > 1e-9 {
		t.Errorf("Volume = %v, want 1", f.Volume)
	}
	if math.Abs(f.FlatAreaRatio-2.0/6.0) > 1e-9 {
		t.Errorf("FlatAreaRatio = %v, want 1/3", f.FlatAreaRatio)
	}
	if math.Abs(f.SteepAreaRatio-4.0/6.0) > 1e-9 {
		t.Errorf("SteepAreaRatio = %v, want 2/3", f.SteepAreaRatio)
	}
	if math.Abs(f.SlopeHistogram[4]-4.0/6.0) > 1e-9 {
		t.Errorf("SlopeHistogram[4] = %v, want 2/3", f.SlopeHistogram[4])
	}
	if math.Abs(f.PocketDepth-1.0) > 1e-9 {
		t.Errorf("PocketDepth = %v, want 1", f.PocketDepth)
	}
	if f.BBoxExtent.X != 1 || f.BBoxExtent.Y != 1 || f.BBoxExtent.Z != 1 {
		t.Errorf("BBoxExtent = %+v, want unit extents", f.BBoxExtent)
	}
}

func TestComputeInvalidMeshes(t *testing.T) {
	tests := []struct {
		name string
		mesh func() *model.Mesh
	}{
		{"empty mesh", func() *model.Mesh { return &model.Mesh{} }},
		{"too few indices", func() *model.Mesh {
			mesh := &model.Mesh{}
			mesh.SetMeshData([]model.Vertex{{Position: model.Vec3{X: 1}}}, []uint32{0, 0})
			return mesh
		}},
		{"all degenerate", func() *model.Mesh {
			mesh := &model.Mesh{}
			mesh.SetMeshData([]model.Vertex{
				{Position: model.Vec3{X: 0}},
				{Position: model.Vec3{X: 1}},
				{Position: model.Vec3{X: 2}},
			}, []uint32{0, 1, 2})
			return mesh
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if f := Compute(tt.mesh()); f.Valid {
				t.Errorf("Compute(%s).Valid = true, want false", tt.name)
			}
		})
	}
}

func TestSlopeBinIndex(t *testing.T) {
	tests := []struct {
		slopeDeg float64
		want     int
	}{
		{0, 0},
		{10, 0},
		{15, 1},
		{29.9, 1},
		{45, 3},
		{60, 4},
		{89, 4},
		{95, 4},
	}

	for _, tt := range tests {
		if got := slopeBinIndex(tt.slopeDeg); got != tt.want {
			t.Errorf("slopeBinIndex(%v) = %d, want %d", tt.slopeDeg, got, tt.want)
		}
	}
}

func TestVectorLayout(t *testing.T) {
	f := Compute(unitCubeMesh())
	vec := f.Vector()

	if len(vec) != Count {
		t.Fatalf("len(Vector()) = %d, want %d", len(vec), Count)
	}
	if len(Names()) != Count {
		t.Fatalf("len(Names()) = %d, want %d", len(Names()), Count)
	}

	if vec[0] != f.BBoxExtent.X || vec[1] != f.BBoxExtent.Y || vec[2] != f.BBoxExtent.Z {
		t.Error("vector slots 0..2 should carry the bbox extents")
	}
	if vec[3] != f.SurfaceArea || vec[4] != f.Volume {
		t.Error("vector slots 3..4 should carry area and volume")
	}
	if vec[Count-1] != f.PocketDepth {
		t.Error("last vector slot should carry pocket depth")
	}
}

func TestModelInputAppendsUserSlots(t *testing.T) {
	params := model.UserParams{StepOver: 2.5, ToolDiameter: 8}
	input := ModelInput(Compute(unitCubeMesh()), params)

	if len(input) != ModelInputCount {
		t.Fatalf("len(ModelInput) = %d, want %d", len(input), ModelInputCount)
	}
	if input[ModelInputCount-2] != 2.5 || input[ModelInputCount-1] != 8 {
		t.Errorf("appended slots = %v/%v, want 2.5/8", input[ModelInputCount-2], input[ModelInputCount-1])
	}
	if names := ModelInputNames(); len(names) != ModelInputCount ||
		names[ModelInputCount-2] != "user_step_over_mm" || names[ModelInputCount-1] != "tool_diameter_mm" {
		t.Errorf("ModelInputNames tail = %v", names[len(names)-2:])
	}
}
