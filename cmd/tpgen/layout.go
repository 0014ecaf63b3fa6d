package main

import (
	"math"

	"github.com/piwi3910/cnc-toolpath/internal/heightfield"
	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// layoutToolpath turns a strategy schedule into concrete passes over
// the indexed surface. Raster steps serpentine across the stock
// footprint at the step angle, rough steps repeating at descending Z
// levels; waterline steps trace concentric loops shrinking toward the
// footprint center. Every cut point rides the draped surface, so the
// result clears the part by construction.
func layoutToolpath(field *heightfield.Field, checker *heightfield.GougeChecker, decision model.StrategyDecision, params model.UserParams, machine model.Machine, stock model.Stock) model.Toolpath {
	tp := model.Toolpath{
		Feed:          params.Feed,
		Spindle:       params.Spindle,
		RapidFeed:     machine.RapidFeed,
		Machine:       machine,
		Stock:         stock,
		StrategySteps: decision.Steps,
	}

	safeZ := machine.SafeZ
	if minSafe := stock.TopZ + machine.ClearanceZ; safeZ < minSafe {
		safeZ = minSafe
	}

	sample := field.Step()
	if sample <= 0 {
		sample = heightfield.MinFieldStep
	}

	l := &passLayout{
		field:     field,
		checker:   checker,
		stock:     stock,
		safeZ:     safeZ,
		leave:     params.LeaveStock,
		allowance: params.StockAllowance,
		radius:    params.ToolDiameter / 2,
		sample:    sample,
	}

	pos := model.Vec3{X: stock.Origin.X, Y: stock.Origin.Y, Z: safeZ}
	for i, step := range decision.Steps {
		var cuts []model.Polyline
		if step.Type == model.StrategyWaterline {
			cuts = l.waterlinePasses(i, step)
		} else {
			cuts = l.rasterPasses(i, step)
		}
		for _, cut := range cuts {
			pos = l.link(&tp, pos, cut)
		}
	}
	return tp
}

// passLayout holds the shared geometry of one layout run.
type passLayout struct {
	field     *heightfield.Field
	checker   *heightfield.GougeChecker
	stock     model.Stock
	safeZ     float64
	leave     float64
	allowance float64
	radius    float64
	sample    float64
}

// footprint is the stock top face inset by the tool radius.
func (l *passLayout) footprint() (minX, minY, maxX, maxY float64) {
	minX = l.stock.Origin.X + l.radius
	minY = l.stock.Origin.Y + l.radius
	maxX = l.stock.Origin.X + l.stock.Size.X - l.radius
	maxY = l.stock.Origin.Y + l.stock.Size.Y - l.radius
	return minX, minY, maxX, maxY
}

// stepOffset is the height kept above the surface for one step: the
// permanent leave-stock, plus the roughing allowance on rough steps.
func (l *passLayout) stepOffset(step model.StrategyStep) float64 {
	if step.FinishPass {
		return l.leave
	}
	return l.leave + l.allowance
}

// drapeZ returns the cut height at (x, y): the bilinear field sample
// or the conservative cell maximum, whichever is higher, plus offset.
// Points without surface coverage sit at stock top.
func (l *passLayout) drapeZ(x, y, offset float64) float64 {
	z, ok := l.field.Interpolate(x, y)
	if s, sok := l.checker.SurfaceHeightAt(x, y); sok && (!ok || s > z) {
		z, ok = s, true
	}
	if !ok {
		z = l.stock.TopZ
	}
	return z + offset
}

// link appends a cut pass with its connecting moves: rapid traverse at
// safe height, plunge to the first point, the cut itself, then a
// retract back to safe height. Returns the new tool position.
func (l *passLayout) link(tp *model.Toolpath, from model.Vec3, cut model.Polyline) model.Vec3 {
	if len(cut.Pts) == 0 {
		return from
	}
	start := cut.Pts[0]
	end := cut.Pts[len(cut.Pts)-1]
	above := model.Vec3{X: start.X, Y: start.Y, Z: l.safeZ}
	parked := model.Vec3{X: end.X, Y: end.Y, Z: l.safeZ}

	tp.Passes = append(tp.Passes,
		model.Polyline{Pts: []model.Vec3{from, above}, Motion: model.MotionRapid, StrategyStep: -1},
		model.Polyline{Pts: []model.Vec3{above, start}, Motion: model.MotionLink, StrategyStep: -1},
		cut,
		model.Polyline{Pts: []model.Vec3{end, parked}, Motion: model.MotionLink, StrategyStep: -1},
	)
	return parked
}

// rasterPasses lays serpentine passes across the footprint at the step
// angle. Finish steps drape the surface in a single pass; rough steps
// repeat the pattern at descending Z levels one stepdown apart, each
// level clamped to the draped surface.
func (l *passLayout) rasterPasses(stepIdx int, step model.StrategyStep) []model.Polyline {
	frame, ok := l.frame(step.AngleDeg)
	if !ok {
		return nil
	}
	offset := l.stepOffset(step)

	if step.FinishPass || step.Stepdown <= 0 {
		if pass := l.serpentine(frame, stepIdx, step, math.Inf(-1), offset); len(pass.Pts) >= 2 {
			return []model.Polyline{pass}
		}
		return nil
	}

	floor := l.stock.Origin.Z + offset
	var passes []model.Polyline
	for level := l.stock.TopZ - step.Stepdown; ; level -= step.Stepdown {
		if level < floor {
			level = floor
		}
		if pass := l.serpentine(frame, stepIdx, step, level, offset); len(pass.Pts) >= 2 {
			passes = append(passes, pass)
		}
		if level <= floor {
			break
		}
	}
	return passes
}

// serpentine builds one continuous back-and-forth pass over the frame,
// scanlines one stepover apart, alternating direction. Cut height is
// the draped surface clamped to the level (pass -Inf to drape freely).
func (l *passLayout) serpentine(frame rasterFrame, stepIdx int, step model.StrategyStep, level, offset float64) model.Polyline {
	stepover := step.Stepover
	if stepover <= 0 {
		stepover = l.sample
	}

	pass := model.Polyline{Motion: model.MotionCut, StrategyStep: stepIdx}
	forward := true
	for v := frame.vMin; v <= frame.vMax+1e-9; v += stepover {
		line := l.scanline(frame, v, level, offset)
		if len(line) < 2 {
			continue
		}
		if !forward {
			reversePoints(line)
		}
		pass.Pts = append(pass.Pts, line...)
		forward = !forward
	}
	return pass
}

// scanline samples one line of constant v, clipped to the footprint.
func (l *passLayout) scanline(frame rasterFrame, v, level, offset float64) []model.Vec3 {
	steps := int(math.Ceil((frame.uMax - frame.uMin) / l.sample))
	if steps < 1 {
		steps = 1
	}
	pts := make([]model.Vec3, 0, steps+1)
	for i := 0; i <= steps; i++ {
		u := frame.uMin + float64(i)*(frame.uMax-frame.uMin)/float64(steps)
		x, y := frame.point(u, v)
		if !frame.inside(x, y) {
			continue
		}
		z := math.Max(level, l.drapeZ(x, y, offset))
		pts = append(pts, model.Vec3{X: x, Y: y, Z: z})
	}
	return pts
}

// waterlinePasses traces closed rectangular loops shrinking from the
// footprint edge toward its center, one stepover apart, each draped
// onto the surface. A stand-in for constant-Z contouring that follows
// the part profile without side loads the surface index cannot check.
func (l *passLayout) waterlinePasses(stepIdx int, step model.StrategyStep) []model.Polyline {
	offset := l.stepOffset(step)
	stepover := step.Stepover
	if stepover <= 0 {
		stepover = l.sample
	}

	baseMinX, baseMinY, baseMaxX, baseMaxY := l.footprint()

	var passes []model.Polyline
	for inset := 0.0; ; inset += stepover {
		minX, minY := baseMinX+inset, baseMinY+inset
		maxX, maxY := baseMaxX-inset, baseMaxY-inset
		if minX >= maxX || minY >= maxY {
			break
		}
		pass := l.loopPass(stepIdx, minX, minY, maxX, maxY, offset)
		if len(pass.Pts) >= 2 {
			passes = append(passes, pass)
		}
	}
	return passes
}

// loopPass samples one closed rectangular loop draped onto the
// surface. The last point repeats the first so the loop closes.
func (l *passLayout) loopPass(stepIdx int, minX, minY, maxX, maxY, offset float64) model.Polyline {
	corners := [5][2]float64{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}

	pass := model.Polyline{Motion: model.MotionCut, StrategyStep: stepIdx}
	for i := 0; i < 4; i++ {
		from, to := corners[i], corners[i+1]
		dx, dy := to[0]-from[0], to[1]-from[1]
		steps := int(math.Ceil(math.Hypot(dx, dy) / l.sample))
		if steps < 1 {
			steps = 1
		}
		start := 1
		if i == 0 {
			start = 0
		}
		for k := start; k <= steps; k++ {
			fr := float64(k) / float64(steps)
			x, y := from[0]+fr*dx, from[1]+fr*dy
			pass.Pts = append(pass.Pts, model.Vec3{X: x, Y: y, Z: l.drapeZ(x, y, offset)})
		}
	}
	return pass
}

// rasterFrame is the rotated scan coordinate frame over the machining
// footprint: u runs along the scanlines, v steps between them.
type rasterFrame struct {
	minX, minY, maxX, maxY float64
	ux, uy, vx, vy         float64
	cx, cy                 float64
	uMin, uMax, vMin, vMax float64
}

// frame builds the scan frame for one raster angle, or reports false
// when the footprint is degenerate.
func (l *passLayout) frame(angleDeg float64) (rasterFrame, bool) {
	minX, minY, maxX, maxY := l.footprint()
	if minX >= maxX || minY >= maxY {
		return rasterFrame{}, false
	}

	angle := angleDeg * math.Pi / 180
	f := rasterFrame{
		minX: minX, minY: minY, maxX: maxX, maxY: maxY,
		ux: math.Cos(angle), uy: math.Sin(angle),
		cx: (minX + maxX) / 2, cy: (minY + maxY) / 2,
		uMin: math.Inf(1), uMax: math.Inf(-1),
		vMin: math.Inf(1), vMax: math.Inf(-1),
	}
	f.vx, f.vy = -f.uy, f.ux

	for _, corner := range [4][2]float64{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}} {
		rx, ry := corner[0]-f.cx, corner[1]-f.cy
		u := rx*f.ux + ry*f.uy
		v := rx*f.vx + ry*f.vy
		f.uMin, f.uMax = math.Min(f.uMin, u), math.Max(f.uMax, u)
		f.vMin, f.vMax = math.Min(f.vMin, v), math.Max(f.vMax, v)
	}
	return f, true
}

// point maps scan coordinates back to the XY plane.
func (f rasterFrame) point(u, v float64) (x, y float64) {
	return f.cx + u*f.ux + v*f.vx, f.cy + u*f.uy + v*f.vy
}

// inside reports whether (x, y) lies on the machining footprint.
func (f rasterFrame) inside(x, y float64) bool {
	const eps = 1e-9
	return x >= f.minX-eps && x <= f.maxX+eps &&
		y >= f.minY-eps && y <= f.maxY+eps
}

func reversePoints(pts []model.Vec3) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}
