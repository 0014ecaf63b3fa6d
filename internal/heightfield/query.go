package heightfield

import (
	"math"

	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// gridScratch carries the per-query visit marks and candidate buffer.
// Instances are pooled so concurrent queries never share or reallocate
// them; marks are generation-stamped so a new query costs no clearing.
type gridScratch struct {
	marks []uint32
	stamp uint32
	out   []uint32
}

// begin starts a new visit generation sized for n triangles.
func (s *gridScratch) begin(n int) {
	if len(s.marks) < n {
		s.marks = make([]uint32, n)
		s.stamp = 0
	}
	s.stamp++
	if s.stamp == 0 {
		for i := range s.marks {
			s.marks[i] = 0
		}
		s.stamp = 1
	}
	s.out = s.out[:0]
}

// cellCoords maps a point to clamped cell coordinates.
func (g *Grid) cellCoords(x, y float64) (int, int) {
	ix, iy := 0, 0
	if g.invCellSizeX > 0 {
		ix = clampIndex(int(math.Floor((x-g.minX)*g.invCellSizeX)), g.cellsX)
	}
	if g.invCellSizeY > 0 {
		iy = clampIndex(int(math.Floor((y-g.minY)*g.invCellSizeY)), g.cellsY)
	}
	return ix, iy
}

// gatherCellRange collects the deduplicated triangle indices of every
// cell in the (clamped) rectangle into the scratch buffer.
func (g *Grid) gatherCellRange(s *gridScratch, ixMin, iyMin, ixMax, iyMax int) {
	s.begin(len(g.triangles))

	ixMin = max(0, ixMin)
	iyMin = max(0, iyMin)
	ixMax = min(g.cellsX-1, ixMax)
	iyMax = min(g.cellsY-1, iyMax)

	for iy := iyMin; iy <= iyMax; iy++ {
		for ix := ixMin; ix <= ixMax; ix++ {
			r := g.cellRanges[iy*g.cellsX+ix]
			run := g.cellIndices[r.offset : r.offset+r.count]
			for _, idx := range run {
				if s.marks[idx] == s.stamp {
					continue
				}
				s.marks[idx] = s.stamp
				s.out = append(s.out, idx)
			}
		}
	}
}

// gatherAll falls back to every triangle when the grid cannot resolve
// cell coordinates.
func (g *Grid) gatherAll(s *gridScratch) {
	s.begin(len(g.triangles))
	for i := range g.triangles {
		s.out = append(s.out, uint32(i))
	}
}

// CandidatesXY appends to dst the indices of all triangles registered
// within the given cell radius of the cell containing (x, y), without
// duplicates. A degenerate grid yields every triangle. The result order
// follows the per-cell runs, so indices arrive roughly highest-first.
func (g *Grid) CandidatesXY(x, y float64, radius int, dst []uint32) []uint32 {
	dst = dst[:0]
	if len(g.triangles) == 0 {
		return dst
	}

	s := g.scratch.Get().(*gridScratch)
	if g.invCellSizeX <= 0 || g.invCellSizeY <= 0 {
		g.gatherAll(s)
	} else {
		ix, iy := g.cellCoords(x, y)
		radius = max(0, radius)
		g.gatherCellRange(s, ix-radius, iy-radius, ix+radius, iy+radius)
	}
	dst = append(dst, s.out...)
	g.scratch.Put(s)
	return dst
}

// CandidatesAABB appends to dst the indices of all triangles registered
// in cells overlapping the XY rectangle, without duplicates. A
// degenerate grid yields every triangle.
func (g *Grid) CandidatesAABB(minX, minY, maxX, maxY float64, dst []uint32) []uint32 {
	dst = dst[:0]
	if len(g.triangles) == 0 {
		return dst
	}

	s := g.scratch.Get().(*gridScratch)
	if g.invCellSizeX <= 0 || g.invCellSizeY <= 0 {
		g.gatherAll(s)
	} else {
		ixMin, iyMin := g.cellCoords(minX, minY)
		ixMax, iyMax := g.cellCoords(maxX+epsilon, maxY+epsilon)
		g.gatherCellRange(s, ixMin, iyMin, ixMax, iyMax)
	}
	dst = append(dst, s.out...)
	g.scratch.Put(s)
	return dst
}

// surfaceZ evaluates the triangle surface at (x, y). It rejects
// vertical or degenerate triangles, plane heights outside the
// triangle's own Z slab, and points outside the barycentric footprint.
func surfaceZ(tri *Triangle, x, y float64) (float64, bool) {
	if !tri.validNormalZ || !tri.validBarycentric {
		return 0, false
	}

	z := tri.planeHeightAt(x, y)
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, false
	}
	if z < tri.MinZ-epsilon || z > tri.MaxZ+epsilon {
		return 0, false
	}

	if !tri.barycentricContains(model.Vec3{X: x, Y: y, Z: z}, barycentricEps) {
		return 0, false
	}
	return z, true
}

// scanCells walks the per-cell runs of the (clamped) cell rectangle and
// returns the highest surface Z found at (x, y). Runs are stored sorted
// by descending max Z, so a run is abandoned as soon as its next
// triangle cannot beat the best hit. Visit marks stop triangles spanning
// several cells from being evaluated twice.
func (g *Grid) scanCells(s *gridScratch, x, y float64, ixMin, iyMin, ixMax, iyMax int) (float64, bool) {
	ixMin = max(0, ixMin)
	iyMin = max(0, iyMin)
	ixMax = min(g.cellsX-1, ixMax)
	iyMax = min(g.cellsY-1, iyMax)

	best := math.Inf(-1)
	hit := false

	for iy := iyMin; iy <= iyMax; iy++ {
		for ix := ixMin; ix <= ixMax; ix++ {
			r := g.cellRanges[iy*g.cellsX+ix]
			run := g.cellIndices[r.offset : r.offset+r.count]
			for _, idx := range run {
				tri := &g.triangles[idx]
				if tri.MaxZ+epsilon < best {
					break
				}
				if s.marks[idx] == s.stamp {
					continue
				}
				s.marks[idx] = s.stamp

				dx := x - tri.Centroid.X
				dy := y - tri.Centroid.Y
				if dx*dx+dy*dy > tri.BoundingRadiusSq+epsilon {
					continue
				}
				if x < tri.BBoxMin.X-epsilon || x > tri.BBoxMax.X+epsilon ||
					y < tri.BBoxMin.Y-epsilon || y > tri.BBoxMax.Y+epsilon {
					continue
				}

				if z, ok := surfaceZ(tri, x, y); ok && z > best {
					best = z
					hit = true
				}
			}
		}
	}

	return best, hit
}

// MaxZAt returns the highest surface Z of the mesh at (x, y), or false
// when the point lies outside the indexed bounds or no triangle covers
// it. The home cell is tried first; only on a miss does the search widen
// to the surrounding ring, which covers points sitting on cell borders.
func (g *Grid) MaxZAt(x, y float64) (float64, bool) {
	if len(g.triangles) == 0 {
		return 0, false
	}
	if x < g.minX-epsilon || x > g.maxX+epsilon || y < g.minY-epsilon || y > g.maxY+epsilon {
		return 0, false
	}

	s := g.scratch.Get().(*gridScratch)
	defer g.scratch.Put(s)
	s.begin(len(g.triangles))

	if g.invCellSizeX <= 0 || g.invCellSizeY <= 0 {
		return g.scanCells(s, x, y, 0, 0, g.cellsX-1, g.cellsY-1)
	}

	ix, iy := g.cellCoords(x, y)
	if z, ok := g.scanCells(s, x, y, ix, iy, ix, iy); ok {
		return z, true
	}
	return g.scanCells(s, x, y, ix-1, iy-1, ix+1, iy+1)
}
