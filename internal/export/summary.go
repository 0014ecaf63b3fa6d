// Package export renders job artifacts for the shop floor: a PDF setup
// sheet with a QR job code, an XLSX machining report, and a DXF
// toolpath preview.
package export

import (
	"time"

	"github.com/piwi3910/cnc-toolpath/internal/model"
	"github.com/piwi3910/cnc-toolpath/internal/units"
)

// JobSummary carries everything the exporters render: job identity,
// the machining context, the advisor outcome and the generated
// toolpath with its surface-check result.
type JobSummary struct {
	JobName        string
	CreatedAt      time.Time
	Units          units.System
	PostName       string
	ProgramFile    string
	ModelName      string
	DecisionSource string

	Machine model.Machine
	Stock   model.Stock
	Tool    model.Tool
	Params  model.UserParams

	Decision model.StrategyDecision
	Toolpath model.Toolpath

	CutPoints       int
	Gouges          int
	WorstGougeDepth float64
}

// CutLength returns the total cutting distance in millimeters.
func (s JobSummary) CutLength() float64 {
	return s.motionLength(true)
}

// TravelLength returns the total non-cutting distance in millimeters.
func (s JobSummary) TravelLength() float64 {
	return s.motionLength(false)
}

func (s JobSummary) motionLength(cut bool) float64 {
	total := 0.0
	for _, pass := range s.Toolpath.Passes {
		if (pass.Motion == model.MotionCut) != cut {
			continue
		}
		total += passLength(pass)
	}
	return total
}

// passLength returns one polyline's total segment length in millimeters.
func passLength(pass model.Polyline) float64 {
	total := 0.0
	for i := 1; i < len(pass.Pts); i++ {
		total += pass.Pts[i].Sub(pass.Pts[i-1]).Length()
	}
	return total
}

// EstimatedMinutes estimates program runtime from path lengths and the
// planned feeds.
func (s JobSummary) EstimatedMinutes() float64 {
	minutes := 0.0
	if s.Toolpath.Feed > 0 {
		minutes += s.CutLength() / s.Toolpath.Feed
	}
	rapid := s.Toolpath.RapidFeed
	if rapid <= 0 {
		rapid = s.Machine.RapidFeed
	}
	if rapid > 0 {
		minutes += s.TravelLength() / rapid
	}
	return minutes
}

// previewBounds returns the XY rectangle the drawings frame: the stock
// footprint when one is configured, otherwise the toolpath extents.
func (s JobSummary) previewBounds() (minX, minY, maxX, maxY float64) {
	if s.Stock.Size.X > 0 && s.Stock.Size.Y > 0 {
		return s.Stock.Origin.X, s.Stock.Origin.Y,
			s.Stock.Origin.X + s.Stock.Size.X, s.Stock.Origin.Y + s.Stock.Size.Y
	}

	first := true
	for _, pass := range s.Toolpath.Passes {
		for _, p := range pass.Pts {
			if first {
				minX, minY, maxX, maxY = p.X, p.Y, p.X, p.Y
				first = false
				continue
			}
			minX = min(minX, p.X)
			minY = min(minY, p.Y)
			maxX = max(maxX, p.X)
			maxY = max(maxY, p.Y)
		}
	}
	if first || maxX-minX <= 0 || maxY-minY <= 0 {
		return 0, 0, 1, 1
	}
	return minX, minY, maxX, maxY
}
