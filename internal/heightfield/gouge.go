package heightfield

import (
	"go.uber.org/zap"

	"github.com/piwi3910/cnc-toolpath/internal/logger"
	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// gougeEps absorbs float noise when comparing tool tip heights against
// the surface.
const gougeEps = 1e-6

// GougeReport summarizes a toolpath check against the indexed surface.
// FirstPass and FirstPoint locate the first offending cut point, or -1
// when the toolpath is clean.
type GougeReport struct {
	CutPoints  int
	Gouges     int
	WorstDepth float64
	FirstPass  int
	FirstPoint int
}

// Clean reports whether no cut point dips below the surface.
func (r GougeReport) Clean() bool {
	return r.Gouges == 0
}

// GougeChecker validates cut moves of a toolpath against the surface
// held by a grid index. Link and rapid moves are ignored; they travel
// at clearance height by construction.
type GougeChecker struct {
	grid      *Grid
	allowance float64
	log       *zap.Logger
}

// NewGougeChecker wraps a grid index. A negative allowance is treated
// as zero.
func NewGougeChecker(grid *Grid, allowance float64) *GougeChecker {
	if allowance < 0 {
		allowance = 0
	}
	return &GougeChecker{grid: grid, allowance: allowance, log: logger.Log}
}

// SurfaceHeightAt returns the surface height at (x, y), or false when
// the point is off the indexed surface.
func (c *GougeChecker) SurfaceHeightAt(x, y float64) (float64, bool) {
	return c.grid.MaxZAt(x, y)
}

// CheckToolpath scans every cut point and flags those sitting below
// surface minus allowance. Points with no surface coverage never gouge.
func (c *GougeChecker) CheckToolpath(tp *model.Toolpath) GougeReport {
	report := GougeReport{FirstPass: -1, FirstPoint: -1}
	if tp == nil {
		return report
	}

	for passIdx := range tp.Passes {
		pass := &tp.Passes[passIdx]
		if pass.Motion != model.MotionCut {
			continue
		}
		for ptIdx, p := range pass.Pts {
			report.CutPoints++

			surface, ok := c.grid.MaxZAt(p.X, p.Y)
			if !ok {
				continue
			}

			limit := surface - c.allowance - gougeEps
			if p.Z >= limit {
				continue
			}

			depth := limit - p.Z
			report.Gouges++
			if depth > report.WorstDepth {
				report.WorstDepth = depth
			}
			if report.FirstPass < 0 {
				report.FirstPass = passIdx
				report.FirstPoint = ptIdx
			}
		}
	}

	if report.Gouges > 0 {
		c.log.Warn("toolpath gouges surface",
			zap.Int("gouges", report.Gouges),
			zap.Int("cut_points", report.CutPoints),
			zap.Float64("worst_depth_mm", report.WorstDepth),
			zap.Int("first_pass", report.FirstPass),
			zap.Int("first_point", report.FirstPoint),
		)
	}

	return report
}

// AdjustForLeaveStock raises every cut point sitting below
// surface + leaveStock up to that floor, in place, and returns the
// number of points raised. A non-positive leaveStock leaves the
// toolpath untouched.
func (c *GougeChecker) AdjustForLeaveStock(tp *model.Toolpath, leaveStock float64) int {
	if tp == nil || leaveStock <= 0 {
		return 0
	}

	raised := 0
	for passIdx := range tp.Passes {
		pass := &tp.Passes[passIdx]
		if pass.Motion != model.MotionCut {
			continue
		}
		for ptIdx := range pass.Pts {
			p := &pass.Pts[ptIdx]
			surface, ok := c.grid.MaxZAt(p.X, p.Y)
			if !ok {
				continue
			}
			floor := surface + leaveStock
			if p.Z < floor {
				p.Z = floor
				raised++
			}
		}
	}

	if raised > 0 {
		c.log.Info("raised cut points for leave stock",
			zap.Int("points", raised),
			zap.Float64("leave_stock_mm", leaveStock),
		)
	}

	return raised
}
