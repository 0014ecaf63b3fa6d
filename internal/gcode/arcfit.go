package gcode

import (
	"math"

	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// Arc fitting tolerances. All geometry stays in millimeters; unit
// conversion happens only at formatting time, so fit decisions are
// identical for metric and imperial output.
const (
	// zPlaneTolerance bounds how far cut points may drift in Z while
	// still counting as one constant-Z run eligible for arc fitting.
	zPlaneTolerance = 1e-4
	// degenerateDistance is the spacing below which consecutive points
	// collapse into one.
	degenerateDistance = 1e-6
	// collinearArea rejects pivot candidates whose triangle against the
	// window endpoints is numerically flat.
	collinearArea = 1e-12
	// minArcRadius and maxArcRadius bound fitted circles; anything
	// outside is emitted as linear moves.
	minArcRadius = 1e-3
	maxArcRadius = 1e6
	// minSweepRadians discards arcs too short to be meaningful, and
	// fullCircleGuard stops a window before it closes into a full
	// revolution, which a single arc command cannot encode.
	minSweepRadians = 1e-4
	fullCircleGuard = 1e-3
)

// arcCommand is one fitted arc: the window's last point index, the
// circle center in the XY plane, and the turn direction.
type arcCommand struct {
	endIndex  int
	centerX   float64
	centerY   float64
	clockwise bool
}

// sanitizePolyline copies the pass points, dropping consecutive
// duplicates closer than degenerateDistance.
func sanitizePolyline(poly model.Polyline) []model.Vec3 {
	points := make([]model.Vec3, 0, len(poly.Pts))
	for _, candidate := range poly.Pts {
		if len(points) > 0 && candidate.Sub(points[len(points)-1]).Length() <= degenerateDistance {
			continue
		}
		points = append(points, candidate)
	}
	return points
}

// circleFromPoints computes the circumcircle of three XY points.
func circleFromPoints(ax, ay, bx, by, cx, cy float64) (centerX, centerY, radius float64, ok bool) {
	d := 2 * (ax*(by-cy) + bx*(cy-ay) + cx*(ay-by))
	if math.Abs(d) <= collinearArea {
		return 0, 0, 0, false
	}

	aSq := ax*ax + ay*ay
	bSq := bx*bx + by*by
	cSq := cx*cx + cy*cy

	centerX = (aSq*(by-cy) + bSq*(cy-ay) + cSq*(ay-by)) / d
	centerY = (aSq*(cx-bx) + bSq*(ax-cx) + cSq*(bx-ax)) / d
	radius = math.Hypot(ax-centerX, ay-centerY)

	if !isFiniteFloat(radius) || radius < minArcRadius || radius > maxArcRadius {
		return 0, 0, 0, false
	}
	return centerX, centerY, radius, true
}

// tryFitArc tests whether points[start..end] lie on one circular arc
// within maxChordError. The circle runs through the window endpoints
// and the interior point spanning the largest triangle against them;
// the fit holds when every point's radial deviation and every chord's
// sagitta stay within tolerance, the turn direction is consistent, and
// the total sweep is below a full revolution.
func tryFitArc(points []model.Vec3, start, end int, maxChordError float64, out *arcCommand) bool {
	if end <= start+1 {
		return false
	}

	startPt := points[start]
	endPt := points[end]
	if endPt.Sub(startPt).Length() <= degenerateDistance {
		return false
	}

	p0x, p0y := startPt.X, startPt.Y
	pnx, pny := endPt.X, endPt.Y

	pivot := start + 1
	maxArea := 0.0
	for idx := start + 1; idx < end; idx++ {
		area := math.Abs(cross2(points[idx].X-p0x, points[idx].Y-p0y, pnx-p0x, pny-p0y))
		if area > maxArea {
			maxArea = area
			pivot = idx
		}
	}
	if maxArea <= collinearArea {
		return false
	}

	centerX, centerY, radius, ok := circleFromPoints(p0x, p0y, points[pivot].X, points[pivot].Y, pnx, pny)
	if !ok {
		return false
	}

	// Radial deviation check; the vectors double as angle samples for
	// the direction and sweep checks below.
	maxRadialError := 0.0
	vx := make([]float64, 0, end-start+1)
	vy := make([]float64, 0, end-start+1)
	for idx := start; idx <= end; idx++ {
		dx := points[idx].X - centerX
		dy := points[idx].Y - centerY
		dist := math.Hypot(dx, dy)
		if !isFiniteFloat(dist) || dist <= degenerateDistance {
			return false
		}
		maxRadialError = math.Max(maxRadialError, math.Abs(dist-radius))
		if maxRadialError > maxChordError {
			return false
		}
		vx = append(vx, dx)
		vy = append(vy, dy)
	}

	// Sagitta check per chord: the bulge between the chord and the
	// fitted circle must also stay within tolerance.
	for idx := start; idx < end; idx++ {
		chord := math.Hypot(points[idx+1].X-points[idx].X, points[idx+1].Y-points[idx].Y)
		if chord <= degenerateDistance {
			continue
		}
		term := radius*radius - chord*chord*0.25
		if term < 0 {
			return false
		}
		sagitta := radius - math.Sqrt(term)
		if sagitta > maxChordError+1e-9 {
			return false
		}
	}

	crossSum := 0.0
	for i := 0; i+1 < len(vx); i++ {
		crossSum += cross2(vx[i], vy[i], vx[i+1], vy[i+1])
	}
	if math.Abs(crossSum) <= collinearArea {
		return false
	}
	clockwise := crossSum < 0

	previousAngle := math.Atan2(vy[0], vx[0])
	cumulative := 0.0
	for i := 1; i < len(vx); i++ {
		angle := math.Atan2(vy[i], vx[i])
		delta := angle - previousAngle
		if clockwise {
			for delta >= 0 {
				delta -= 2 * math.Pi
			}
		} else {
			for delta <= 0 {
				delta += 2 * math.Pi
			}
		}
		cumulative += delta
		previousAngle = angle
	}

	sweep := math.Abs(cumulative)
	if sweep < minSweepRadians || sweep >= 2*math.Pi-fullCircleGuard {
		return false
	}

	out.endIndex = end
	out.centerX = centerX
	out.centerY = centerY
	out.clockwise = clockwise
	return true
}

func cross2(ax, ay, bx, by float64) float64 {
	return ax*by - ay*bx
}

func isFiniteFloat(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
