// Package gcode turns toolpaths into controller-ready machine code.
// Each post dialect is described by a data table of tokens and
// templates; one shared emitter handles unit conversion, feed and
// spindle plumbing, and tolerance-bounded linear-to-arc fitting.
package gcode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/piwi3910/cnc-toolpath/internal/model"
	"github.com/piwi3910/cnc-toolpath/internal/units"
)

// Post generates machine code text for one controller dialect.
type Post interface {
	Name() string
	FileExtension() string
	Generate(toolpath model.Toolpath, sys units.System, params model.UserParams) string
}

// dialect describes one controller's tokens, templates and
// capabilities. The shared emitter consumes it; adding a dialect means
// adding a table entry, not touching the emitter.
type dialect struct {
	name          string
	fileExtension string

	header    string
	footer    string
	stepBlock string // empty selects defaultStepBlock

	newline        string
	conversational bool // L-moves with inline feed instead of G-codes
	supportsArcs   bool
	hasSpindle     bool

	positioningMode string
	planeCode       string
	feedMode        string
	workOffset      string
	spindleOnCode   string
	spindleOffCode  string
	programEndCode  string
}

// defaultStepBlock tags the start of each schedule step in the output.
const defaultStepBlock = "(STEP {{step_number}} {{step_label}} {{pass_kind}} " +
	"stepover={{stepover_mm}}mm stepdown={{stepdown_mm}}mm" +
	"{{#if has_angle}} angle={{angle_deg}}deg{{/if}})"

// dialectPost implements Post for a dialect table entry.
type dialectPost struct {
	d dialect
}

func (p *dialectPost) Name() string {
	return p.d.name
}

func (p *dialectPost) FileExtension() string {
	return p.d.fileExtension
}

// Generate renders the program: templated header, passes with step tag
// blocks and arc fitting, templated footer. Point order is preserved
// exactly; only representation (line vs arc) changes.
func (p *dialectPost) Generate(toolpath model.Toolpath, sys units.System, params model.UserParams) string {
	var out strings.Builder

	maxChordError := math.Max(0, params.Post.MaxArcChordError)
	arcsEnabled := p.d.supportsArcs && maxChordError > 0
	feedUnits := units.FromMillimeters(toolpath.Feed, sys)
	nl := p.d.newline

	header := RenderTemplate(p.d.header, p.headerContext(toolpath, sys, params, arcsEnabled))
	writeBlock(&out, header, nl)

	currentStep := -1
	for _, poly := range toolpath.Passes {
		if poly.StrategyStep != currentStep {
			currentStep = poly.StrategyStep
			if currentStep >= 0 && currentStep < len(toolpath.StrategySteps) {
				block := RenderTemplate(p.stepTemplate(), p.stepContext(toolpath.StrategySteps[currentStep], currentStep))
				writeBlock(&out, block, nl)
			}
		}

		p.emitPolyline(&out, poly, sys, feedUnits, arcsEnabled, maxChordError)
	}

	footer := RenderTemplate(p.d.footer, p.footerContext(toolpath, sys))
	writeBlock(&out, footer, nl)

	return out.String()
}

func (p *dialectPost) stepTemplate() string {
	if p.d.stepBlock != "" {
		return p.d.stepBlock
	}
	return defaultStepBlock
}

// writeBlock appends rendered template text, terminating it with the
// dialect newline when the template did not already.
func writeBlock(out *strings.Builder, text, nl string) {
	out.WriteString(text)
	if text != "" && !strings.HasSuffix(text, nl) {
		out.WriteString(nl)
	}
}

// headerContext exposes every token a dialect header may reference.
func (p *dialectPost) headerContext(toolpath model.Toolpath, sys units.System, params model.UserParams, arcsEnabled bool) *TemplateContext {
	machine := toolpath.Machine
	spindleSupported := p.d.hasSpindle && machine.SpindleSupported

	ctx := NewTemplateContext()
	ctx.Set("post_name", p.d.name)
	ctx.Set("unit_code", unitCode(sys))
	ctx.Set("unit_suffix", sys.FeedSuffix())
	ctx.Set("unit_keyword", unitKeyword(sys))
	ctx.Set("positioning_mode", p.d.positioningMode)
	ctx.SetBool("has_plane", p.d.planeCode != "")
	ctx.Set("plane_code", p.d.planeCode)
	ctx.SetBool("has_feed_mode", p.d.feedMode != "")
	ctx.Set("feed_mode", p.d.feedMode)
	ctx.SetBool("has_work_offset", p.d.workOffset != "")
	ctx.Set("work_offset", p.d.workOffset)
	ctx.SetBool("spindle_supported", spindleSupported)
	ctx.SetBool("spindle_requested", toolpath.Spindle > 0)
	ctx.Set("spindle_speed", formatSpindle(toolpath.Spindle))
	ctx.Set("spindle_on_code", p.d.spindleOnCode)
	ctx.Set("spindle_off_code", p.d.spindleOffCode)
	ctx.Set("program_end_code", p.d.programEndCode)
	ctx.Set("feed_rate", formatNumber(units.FromMillimeters(toolpath.Feed, sys)))
	ctx.Set("rapid_feed", formatNumber(units.FromMillimeters(machine.RapidFeed, sys)))
	ctx.Set("max_feed", formatNumber(units.FromMillimeters(machine.MaxFeed, sys)))
	ctx.Set("safe_z", formatNumber(units.FromMillimeters(machine.SafeZ, sys)))
	ctx.Set("machine_summary", machineSummary(machine, sys))
	ctx.Set("machine_plain", machine.Name)
	ctx.SetBool("arcs_enabled", arcsEnabled)
	ctx.SetBool("has_toolpath", !toolpath.Empty())
	ctx.SetBool("has_strategy_steps", len(toolpath.StrategySteps) > 0)
	ctx.SetBool("has_user_arcs", params.Post.MaxArcChordError > 0)
	return ctx
}

func (p *dialectPost) footerContext(toolpath model.Toolpath, sys units.System) *TemplateContext {
	machine := toolpath.Machine

	ctx := NewTemplateContext()
	ctx.Set("post_name", p.d.name)
	ctx.Set("unit_keyword", unitKeyword(sys))
	ctx.SetBool("spindle_supported", p.d.hasSpindle && machine.SpindleSupported)
	ctx.SetBool("spindle_requested", toolpath.Spindle > 0)
	ctx.Set("spindle_speed", formatSpindle(toolpath.Spindle))
	ctx.Set("spindle_off_code", p.d.spindleOffCode)
	ctx.Set("program_end_code", p.d.programEndCode)
	ctx.Set("safe_z", formatNumber(units.FromMillimeters(machine.SafeZ, sys)))
	return ctx
}

func (p *dialectPost) stepContext(step model.StrategyStep, index int) *TemplateContext {
	ctx := NewTemplateContext()
	ctx.Set("step_number", strconv.Itoa(index+1))
	ctx.Set("step_label", step.Type.String())
	if step.FinishPass {
		ctx.Set("pass_kind", "finish")
	} else {
		ctx.Set("pass_kind", "rough")
	}
	ctx.Set("stepover_mm", formatNumber(step.Stepover))
	ctx.Set("stepdown_mm", formatNumber(step.Stepdown))
	ctx.SetBool("has_angle", step.Type == model.StrategyRaster)
	ctx.Set("angle_deg", formatAngle(step.AngleDeg))
	return ctx
}

// emitPolyline writes one pass. Cut passes open with a feed command,
// then points stream out as linear moves, with constant-Z runs
// greedily replaced by fitted arcs when the dialect allows them.
func (p *dialectPost) emitPolyline(out *strings.Builder, poly model.Polyline, sys units.System, feedUnits float64, arcsEnabled bool, maxChordError float64) {
	points := sanitizePolyline(poly)
	if len(points) < 2 {
		return
	}

	isCut := poly.Motion == model.MotionCut
	if isCut {
		p.emitFeedCommand(out, feedUnits)
	}

	p.emitLinearMove(out, points[0], poly.Motion, sys, feedUnits)

	for i := 1; i < len(points); {
		prev := points[i-1]
		current := points[i]

		if !isCut || !arcsEnabled || math.Abs(current.Z-prev.Z) > zPlaneTolerance {
			p.emitLinearMove(out, current, poly.Motion, sys, feedUnits)
			i++
			continue
		}

		runLimit := i + 1
		for runLimit < len(points) && math.Abs(points[runLimit].Z-prev.Z) <= zPlaneTolerance {
			runLimit++
		}

		// Grow the window while fits keep succeeding; keep the last
		// success. The first failure bounds the arc.
		var best arcCommand
		hasArc := false
		for end := i + 1; end < runLimit; end++ {
			var candidate arcCommand
			if tryFitArc(points, i-1, end, maxChordError, &candidate) {
				best = candidate
				hasArc = true
			} else {
				break
			}
		}

		if hasArc {
			p.emitArcMove(out, best, points[i-1], points[best.endIndex], sys)
			i = best.endIndex + 1
		} else {
			p.emitLinearMove(out, current, poly.Motion, sys, feedUnits)
			i++
		}
	}
}

// emitFeedCommand writes the standalone feed directive opening a cut
// pass. Conversational dialects embed the feed in every move instead.
func (p *dialectPost) emitFeedCommand(out *strings.Builder, feedUnits float64) {
	if p.d.conversational {
		return
	}
	out.WriteString("F")
	out.WriteString(formatNumber(feedUnits))
	out.WriteString(p.d.newline)
}

func (p *dialectPost) emitLinearMove(out *strings.Builder, point model.Vec3, motion model.MotionType, sys units.System, feedUnits float64) {
	if p.d.conversational {
		out.WriteString("L X")
		out.WriteString(formatNumber(units.FromMillimeters(point.X, sys)))
		out.WriteString(" Y")
		out.WriteString(formatNumber(units.FromMillimeters(point.Y, sys)))
		out.WriteString(" Z")
		out.WriteString(formatNumber(units.FromMillimeters(point.Z, sys)))
		if motion == model.MotionCut {
			out.WriteString(" F")
			out.WriteString(formatNumber(feedUnits))
		} else {
			out.WriteString(" FMAX")
		}
		out.WriteString(p.d.newline)
		return
	}

	code := "G0"
	if motion == model.MotionCut {
		code = "G1"
	}
	out.WriteString(code)
	out.WriteString(" X")
	out.WriteString(formatNumber(units.FromMillimeters(point.X, sys)))
	out.WriteString(" Y")
	out.WriteString(formatNumber(units.FromMillimeters(point.Y, sys)))
	out.WriteString(" Z")
	out.WriteString(formatNumber(units.FromMillimeters(point.Z, sys)))
	out.WriteString(p.d.newline)
}

// emitArcMove writes one fitted arc with the center offset relative to
// the arc's start point.
func (p *dialectPost) emitArcMove(out *strings.Builder, arc arcCommand, start, end model.Vec3, sys units.System) {
	code := "G3"
	if arc.clockwise {
		code = "G2"
	}
	out.WriteString(code)
	out.WriteString(" X")
	out.WriteString(formatNumber(units.FromMillimeters(end.X, sys)))
	out.WriteString(" Y")
	out.WriteString(formatNumber(units.FromMillimeters(end.Y, sys)))
	out.WriteString(" Z")
	out.WriteString(formatNumber(units.FromMillimeters(end.Z, sys)))
	out.WriteString(" I")
	out.WriteString(formatNumber(units.FromMillimeters(arc.centerX-start.X, sys)))
	out.WriteString(" J")
	out.WriteString(formatNumber(units.FromMillimeters(arc.centerY-start.Y, sys)))
	out.WriteString(p.d.newline)
}

func unitCode(sys units.System) string {
	if sys == units.Inches {
		return "G20"
	}
	return "G21"
}

func unitKeyword(sys units.System) string {
	if sys == units.Inches {
		return "INCH"
	}
	return "MM"
}

func machineSummary(machine model.Machine, sys units.System) string {
	return fmt.Sprintf("(Machine: %s, rapid %s %s, max feed %s %s)",
		machine.Name,
		formatNumber(units.FromMillimeters(machine.RapidFeed, sys)), sys.FeedSuffix(),
		formatNumber(units.FromMillimeters(machine.MaxFeed, sys)), sys.FeedSuffix(),
	)
}

// formatNumber renders lengths and feeds with fixed 3 decimals.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// formatAngle renders angles with 1 decimal.
func formatAngle(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// formatSpindle renders spindle speeds as whole RPM.
func formatSpindle(rpm float64) string {
	return strconv.FormatFloat(math.Round(rpm), 'f', 0, 64)
}

// Posts returns every available dialect in display order.
func Posts() []Post {
	return []Post{NewGRBLPost(), NewFanucPost(), NewMarlinPost(), NewHeidenhainPost()}
}

// PostNames returns the dialect names in display order.
func PostNames() []string {
	posts := Posts()
	names := make([]string, 0, len(posts))
	for _, p := range posts {
		names = append(names, p.Name())
	}
	return names
}

// PostByName returns the dialect with the given name
// (case-insensitive), or the GRBL post when the name is unknown.
func PostByName(name string) Post {
	for _, p := range Posts() {
		if strings.EqualFold(p.Name(), name) {
			return p
		}
	}
	return NewGRBLPost()
}
