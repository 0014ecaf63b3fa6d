package heightfield

import (
	"math"
	"testing"

	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// slopeMesh returns a 10x10 mm patch whose surface follows
// z = 0.1x + 0.2y, split into two triangles.
func slopeMesh() *model.Mesh {
	height := func(x, y float64) float64 { return 0.1*x + 0.2*y }

	corners := []model.Vec3{
		{X: 0, Y: 0},
		{X: 10, Y: 0},
		{X: 10, Y: 10},
		{X: 0, Y: 10},
	}

	vertices := make([]model.Vertex, 0, len(corners))
	for _, c := range corners {
		c.Z = height(c.X, c.Y)
		vertices = append(vertices, model.Vertex{Position: c})
	}

	mesh := &model.Mesh{}
	mesh.SetMeshData(vertices, []uint32{0, 1, 2, 0, 2, 3})
	return mesh
}

// ribMesh returns a flat 10x10 plate at z=2 with a raised rib at z=5
// spanning x in [4,6]. The rib overlaps the plate in XY, so queries in
// the overlap must report the higher surface.
func ribMesh() *model.Mesh {
	quad := func(vertices []model.Vertex, indices []uint32, x0, y0, x1, y1, z float64) ([]model.Vertex, []uint32) {
		base := uint32(len(vertices))
		vertices = append(vertices,
			model.Vertex{Position: model.Vec3{X: x0, Y: y0, Z: z}},
			model.Vertex{Position: model.Vec3{X: x1, Y: y0, Z: z}},
			model.Vertex{Position: model.Vec3{X: x1, Y: y1, Z: z}},
			model.Vertex{Position: model.Vec3{X: x0, Y: y1, Z: z}},
		)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
		return vertices, indices
	}

	var vertices []model.Vertex
	var indices []uint32
	vertices, indices = quad(vertices, indices, 0, 0, 10, 10, 2)
	vertices, indices = quad(vertices, indices, 4, 0, 6, 10, 5)

	mesh := &model.Mesh{}
	mesh.SetMeshData(vertices, indices)
	return mesh
}

func TestMaxZAtOnSlope(t *testing.T) {
	grid := NewGrid(slopeMesh(), 2.0)

	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"origin corner", 0, 0, 0},
		{"far corner", 10, 10, 3.0},
		{"center", 5, 5, 1.5},
		{"interior", 2.5, 7.5, 1.75},
		{"x edge", 10, 0, 1.0},
		{"y edge", 0, 10, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, ok := grid.MaxZAt(tt.x, tt.y)
			if !ok {
				t.Fatalf("MaxZAt(%v, %v) reported no surface", tt.x, tt.y)
			}
			if math.Abs(z-tt.want) > 1e-6 {
				t.Errorf("MaxZAt(%v, %v) = %v, want %v", tt.x, tt.y, z, tt.want)
			}
		})
	}
}

func TestMaxZAtOutsideBounds(t *testing.T) {
	grid := NewGrid(slopeMesh(), 2.0)

	tests := []struct {
		name string
		x, y float64
	}{
		{"left of bounds", -1, 5},
		{"right of bounds", 11, 5},
		{"below bounds", 5, -0.5},
		{"above bounds", 5, 10.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if z, ok := grid.MaxZAt(tt.x, tt.y); ok {
				t.Errorf("MaxZAt(%v, %v) = %v, want miss", tt.x, tt.y, z)
			}
		})
	}
}

func TestMaxZAtEmptyMesh(t *testing.T) {
	grid := NewGrid(&model.Mesh{}, 1.0)
	if !grid.Empty() {
		t.Fatal("grid built from empty mesh should be empty")
	}
	if _, ok := grid.MaxZAt(0, 0); ok {
		t.Error("MaxZAt on empty grid should miss")
	}
}

func TestMaxZAtPicksHighestSurface(t *testing.T) {
	grid := NewGrid(ribMesh(), 1.0)

	z, ok := grid.MaxZAt(5, 5)
	if !ok {
		t.Fatal("MaxZAt(5, 5) reported no surface")
	}
	if math.Abs(z-5.0) > 1e-6 {
		t.Errorf("MaxZAt(5, 5) = %v, want 5 (rib above plate)", z)
	}

	z, ok = grid.MaxZAt(1, 5)
	if !ok {
		t.Fatal("MaxZAt(1, 5) reported no surface")
	}
	if math.Abs(z-2.0) > 1e-6 {
		t.Errorf("MaxZAt(1, 5) = %v, want 2 (plate only)", z)
	}
}

func TestCellSizeClamped(t *testing.T) {
	grid := NewGrid(slopeMesh(), 0.0001)
	// 10 mm span at the minimum cell size gives at most 100 cells per axis.
	if grid.Columns() > 100 || grid.Rows() > 100 {
		t.Errorf("cell size not clamped: %dx%d cells", grid.Columns(), grid.Rows())
	}
	if grid.TriangleCount() != 2 {
		t.Errorf("TriangleCount() = %d, want 2", grid.TriangleCount())
	}
}

func TestAutoGridQueries(t *testing.T) {
	grid := NewAutoGrid(ribMesh())
	if grid.Columns() < 1 || grid.Rows() < 1 {
		t.Fatalf("auto grid has degenerate dimensions %dx%d", grid.Columns(), grid.Rows())
	}
	z, ok := grid.MaxZAt(5, 5)
	if !ok || math.Abs(z-5.0) > 1e-6 {
		t.Errorf("MaxZAt(5, 5) = %v, %v; want 5, true", z, ok)
	}
}

func TestCandidatesDeduplicated(t *testing.T) {
	// Cell size 2 on a 10 mm patch: both triangles span many cells, so
	// the gathers must still return each index exactly once.
	grid := NewGrid(slopeMesh(), 2.0)

	seen := func(indices []uint32) map[uint32]int {
		counts := make(map[uint32]int)
		for _, idx := range indices {
			counts[idx]++
		}
		return counts
	}

	all := grid.CandidatesAABB(0, 0, 10, 10, nil)
	counts := seen(all)
	if len(counts) != 2 {
		t.Fatalf("CandidatesAABB covering the mesh returned %d unique triangles, want 2", len(counts))
	}
	for idx, n := range counts {
		if n != 1 {
			t.Errorf("triangle %d gathered %d times, want once", idx, n)
		}
	}

	near := grid.CandidatesXY(5, 5, 1, nil)
	if len(near) == 0 {
		t.Fatal("CandidatesXY(5, 5, 1) returned nothing")
	}
	for idx, n := range seen(near) {
		if n != 1 {
			t.Errorf("triangle %d gathered %d times, want once", idx, n)
		}
	}
}

func TestCandidatesReuseBuffer(t *testing.T) {
	grid := NewGrid(slopeMesh(), 2.0)

	buf := make([]uint32, 0, 8)
	first := grid.CandidatesXY(1, 1, 0, buf)
	second := grid.CandidatesXY(9, 9, 0, first)
	if len(second) == 0 {
		t.Fatal("CandidatesXY with reused buffer returned nothing")
	}
}
