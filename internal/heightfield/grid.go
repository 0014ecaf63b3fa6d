// Package heightfield indexes a triangle mesh for fast "highest surface
// Z at (x,y)" queries and builds sampled height rasters on top of the
// index. The index is immutable once built; queries are safe to run from
// many goroutines at once.
package heightfield

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/piwi3910/cnc-toolpath/internal/logger"
	"github.com/piwi3910/cnc-toolpath/internal/model"
)

const (
	epsilon           = 1e-9
	barycentricEps    = 1e-7
	// MinCellSize is the smallest allowed grid cell edge length in mm.
	MinCellSize = 0.1
)

// Triangle is one precomputed mesh triangle. Derived terms (plane,
// barycentric denominators, bounding radius) are cached at build time so
// queries touch no square roots on the reject path.
type Triangle struct {
	V0, V1, V2 model.Vec3
	Normal     model.Vec3
	BBoxMin    model.Vec3
	BBoxMax    model.Vec3
	Centroid   model.Vec3
	MaxZ       float64
	MinZ       float64

	// Squared distance from the centroid to the farthest vertex.
	BoundingRadiusSq float64

	edge0, edge1     model.Vec3
	dot00            float64
	dot01            float64
	dot11            float64
	invDet           float64
	planeD           float64
	invNormalZ       float64
	validBarycentric bool
	validNormalZ     bool
}

// planeHeightAt solves the triangle plane for Z at (x, y). NaN when the
// plane is too close to vertical.
func (t *Triangle) planeHeightAt(x, y float64) float64 {
	if !t.validNormalZ {
		return math.NaN()
	}
	return (-t.planeD - t.Normal.X*x - t.Normal.Y*y) * t.invNormalZ
}

// barycentricContains tests point membership with the given tolerance.
func (t *Triangle) barycentricContains(p model.Vec3, eps float64) bool {
	if !t.validBarycentric {
		return false
	}

	v2 := p.Sub(t.V0)
	d20 := v2.Dot(t.edge0)
	d21 := v2.Dot(t.edge1)

	v := (t.dot11*d20 - t.dot01*d21) * t.invDet
	w := (t.dot00*d21 - t.dot01*d20) * t.invDet
	u := 1.0 - v - w

	return u >= -eps && v >= -eps && w >= -eps && u <= 1.0+eps && v <= 1.0+eps && w <= 1.0+eps
}

// cellRange is one cell's contiguous run inside the flat index array.
type cellRange struct {
	offset uint32
	count  uint32
}

// Grid is the uniform 2D acceleration structure. Triangles live in one
// dense arena; each cell holds an (offset,count) run into a shared flat
// index array, sorted by descending max Z so searches can stop early.
type Grid struct {
	triangles []Triangle

	minX, minY   float64
	maxX, maxY   float64
	cellsX       int
	cellsY       int
	cellSizeX    float64
	cellSizeY    float64
	invCellSizeX float64
	invCellSizeY float64

	cellRanges  []cellRange
	cellIndices []uint32

	scratch sync.Pool

	log *zap.Logger
}

// GridOption adjusts grid construction.
type GridOption func(*gridConfig)

type gridConfig struct {
	log *zap.Logger
}

// WithGridLogger routes the build summary to a specific logger instead
// of the process default.
func WithGridLogger(log *zap.Logger) GridOption {
	return func(c *gridConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// NewGrid builds the index with the given cell edge length, clamped to
// MinCellSize. Degenerate triangles are still bucketed; their validity
// flags keep them out of query results.
func NewGrid(mesh *model.Mesh, cellSize float64, opts ...GridOption) *Grid {
	return buildGrid(mesh, math.Max(MinCellSize, cellSize), opts...)
}

// NewAutoGrid builds the index with a cell count derived from the
// triangle count (roughly sqrt(n) cells per axis, aspect-corrected).
// Used where no natural sampling resolution exists, e.g. gouge checking.
func NewAutoGrid(mesh *model.Mesh, opts ...GridOption) *Grid {
	return buildGrid(mesh, 0, opts...)
}

func buildGrid(mesh *model.Mesh, targetCellSize float64, opts ...GridOption) *Grid {
	cfg := gridConfig{log: logger.Log}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Grid{
		cellsX:    1,
		cellsY:    1,
		cellSizeX: 1,
		cellSizeY: 1,
		log:       cfg.log,
	}
	g.scratch.New = func() any { return &gridScratch{} }

	vertices := mesh.Vertices()
	indices := mesh.Indices()
	if len(vertices) == 0 || len(indices) < 3 {
		return g
	}

	bounds := mesh.Bounds()
	g.minX, g.minY = bounds.Min.X, bounds.Min.Y
	g.maxX, g.maxY = bounds.Max.X, bounds.Max.Y

	g.triangles = make([]Triangle, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		ia, ib, ic := int(indices[i]), int(indices[i+1]), int(indices[i+2])
		if ia >= len(vertices) || ib >= len(vertices) || ic >= len(vertices) {
			continue
		}

		tri := Triangle{
			V0: vertices[ia].Position,
			V1: vertices[ib].Position,
			V2: vertices[ic].Position,
		}
		tri.edge0 = tri.V1.Sub(tri.V0)
		tri.edge1 = tri.V2.Sub(tri.V0)
		tri.Normal = tri.edge0.Cross(tri.edge1)

		normalLenSq := tri.Normal.LengthSq()
		if normalLenSq > epsilon {
			tri.Normal = tri.Normal.Scale(1.0 / math.Sqrt(normalLenSq))
		}

		tri.Centroid = tri.V0.Add(tri.V1).Add(tri.V2).Scale(1.0 / 3.0)
		tri.BBoxMin = model.Vec3{
			X: math.Min(math.Min(tri.V0.X, tri.V1.X), tri.V2.X),
			Y: math.Min(math.Min(tri.V0.Y, tri.V1.Y), tri.V2.Y),
			Z: math.Min(math.Min(tri.V0.Z, tri.V1.Z), tri.V2.Z),
		}
		tri.BBoxMax = model.Vec3{
			X: math.Max(math.Max(tri.V0.X, tri.V1.X), tri.V2.X),
			Y: math.Max(math.Max(tri.V0.Y, tri.V1.Y), tri.V2.Y),
			Z: math.Max(math.Max(tri.V0.Z, tri.V1.Z), tri.V2.Z),
		}
		tri.MaxZ = tri.BBoxMax.Z
		tri.MinZ = tri.BBoxMin.Z

		r0 := tri.V0.Sub(tri.Centroid).LengthSq()
		r1 := tri.V1.Sub(tri.Centroid).LengthSq()
		r2 := tri.V2.Sub(tri.Centroid).LengthSq()
		tri.BoundingRadiusSq = math.Max(math.Max(r0, r1), r2)

		if normalLenSq > epsilon {
			tri.dot00 = tri.edge0.Dot(tri.edge0)
			tri.dot01 = tri.edge0.Dot(tri.edge1)
			tri.dot11 = tri.edge1.Dot(tri.edge1)
			denom := tri.dot00*tri.dot11 - tri.dot01*tri.dot01
			if math.Abs(denom) > epsilon {
				tri.invDet = 1.0 / denom
				tri.validBarycentric = true
			}

			tri.planeD = -tri.Normal.Dot(tri.V0)
			if math.Abs(tri.Normal.Z) > epsilon {
				tri.invNormalZ = 1.0 / tri.Normal.Z
				tri.validNormalZ = true
			}
		}

		g.triangles = append(g.triangles, tri)
	}

	if len(g.triangles) == 0 {
		return g
	}

	spanX := math.Max(g.maxX-g.minX, epsilon)
	spanY := math.Max(g.maxY-g.minY, epsilon)

	if targetCellSize > epsilon {
		g.cellsX = max(1, int(math.Ceil(spanX/targetCellSize)))
		g.cellsY = max(1, int(math.Ceil(spanY/targetCellSize)))
	} else {
		// Aim for about sqrt(n) cells per axis, corrected for aspect.
		approx := math.Sqrt(float64(len(g.triangles)))
		base := max(1, int(math.Round(approx)))
		aspect := 1.0
		if spanY > epsilon {
			aspect = spanX / spanY
		}
		if aspect >= 1.0 {
			g.cellsX = base
			g.cellsY = max(1, int(math.Round(float64(base)/aspect)))
		} else {
			g.cellsY = base
			g.cellsX = max(1, int(math.Round(float64(base)/math.Max(aspect, epsilon))))
		}
	}

	g.cellSizeX = spanX / float64(g.cellsX)
	g.cellSizeY = spanY / float64(g.cellsY)
	if g.cellSizeX < epsilon {
		g.cellSizeX = spanX
	}
	if g.cellSizeY < epsilon {
		g.cellSizeY = spanY
	}
	if g.cellSizeX > epsilon {
		g.invCellSizeX = 1.0 / g.cellSizeX
	}
	if g.cellSizeY > epsilon {
		g.invCellSizeY = 1.0 / g.cellSizeY
	}

	g.bucketTriangles()

	g.log.Info("height field grid built",
		zap.Int("columns", g.cellsX),
		zap.Int("rows", g.cellsY),
		zap.Int("triangles", len(g.triangles)),
		zap.String("memory", formatBytes(g.memoryFootprint())),
	)

	return g
}

// bucketTriangles assigns every triangle to each cell its XY bounding
// box touches: a count pass, an exclusive scan into offsets, then a
// cursor write pass into one flat array, followed by the per-cell sort.
func (g *Grid) bucketTriangles() {
	cellCount := g.cellsX * g.cellsY
	counts := make([]uint32, cellCount)

	forEachCell := func(tri *Triangle, visit func(cell int)) {
		ixMin, ixMax := 0, g.cellsX-1
		iyMin, iyMax := 0, g.cellsY-1

		if g.invCellSizeX > 0 && g.cellsX > 1 {
			ixMin = clampIndex(int(math.Floor((tri.BBoxMin.X-g.minX)*g.invCellSizeX)), g.cellsX)
			ixMax = clampIndex(int(math.Floor((tri.BBoxMax.X-g.minX)*g.invCellSizeX+epsilon)), g.cellsX)
		}
		if g.invCellSizeY > 0 && g.cellsY > 1 {
			iyMin = clampIndex(int(math.Floor((tri.BBoxMin.Y-g.minY)*g.invCellSizeY)), g.cellsY)
			iyMax = clampIndex(int(math.Floor((tri.BBoxMax.Y-g.minY)*g.invCellSizeY+epsilon)), g.cellsY)
		}

		for iy := iyMin; iy <= iyMax; iy++ {
			for ix := ixMin; ix <= ixMax; ix++ {
				visit(iy*g.cellsX + ix)
			}
		}
	}

	for i := range g.triangles {
		forEachCell(&g.triangles[i], func(cell int) { counts[cell]++ })
	}

	offsets := make([]uint32, cellCount)
	var running uint32
	for i, c := range counts {
		offsets[i] = running
		running += c
	}

	g.cellIndices = make([]uint32, running)
	g.cellRanges = make([]cellRange, cellCount)
	cursor := make([]uint32, cellCount)
	copy(cursor, offsets)

	for i := range g.triangles {
		triIndex := uint32(i)
		forEachCell(&g.triangles[i], func(cell int) {
			g.cellIndices[cursor[cell]] = triIndex
			cursor[cell]++
		})
	}

	for cell := 0; cell < cellCount; cell++ {
		g.cellRanges[cell] = cellRange{offset: offsets[cell], count: counts[cell]}
		run := g.cellIndices[offsets[cell] : offsets[cell]+counts[cell]]
		sort.Slice(run, func(a, b int) bool {
			lhs, rhs := run[a], run[b]
			lhsMax := g.triangles[lhs].MaxZ
			rhsMax := g.triangles[rhs].MaxZ
			if math.Abs(lhsMax-rhsMax) < epsilon {
				return lhs < rhs
			}
			return lhsMax > rhsMax
		})
	}
}

// Empty reports whether the grid holds no triangles.
func (g *Grid) Empty() bool {
	return len(g.triangles) == 0
}

// TriangleCount returns the number of indexed triangles.
func (g *Grid) TriangleCount() int {
	return len(g.triangles)
}

// Triangle returns the precomputed triangle at index i.
func (g *Grid) Triangle(i int) *Triangle {
	return &g.triangles[i]
}

// Bounds returns the XY extent the grid covers.
func (g *Grid) Bounds() (minX, minY, maxX, maxY float64) {
	return g.minX, g.minY, g.maxX, g.maxY
}

// Columns returns the cell count along X.
func (g *Grid) Columns() int {
	return g.cellsX
}

// Rows returns the cell count along Y.
func (g *Grid) Rows() int {
	return g.cellsY
}

func (g *Grid) memoryFootprint() int {
	const triangleSize = 21*8 + 2 // float64 payload plus two flags, padded in practice
	return len(g.triangles)*triangleSize + len(g.cellIndices)*4 + len(g.cellRanges)*8
}

func clampIndex(value, maxExclusive int) int {
	if maxExclusive <= 1 || value < 0 {
		return 0
	}
	if value >= maxExclusive {
		return maxExclusive - 1
	}
	return value
}

func formatBytes(bytes int) string {
	const (
		kibi = 1024.0
		mebi = 1024.0 * 1024.0
	)
	b := float64(bytes)
	if b >= mebi {
		return fmt.Sprintf("%.2f MiB", b/mebi)
	}
	if b >= kibi {
		return fmt.Sprintf("%.2f KiB", b/kibi)
	}
	return fmt.Sprintf("%d B", bytes)
}
