package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/cnc-toolpath/internal/model"
	"github.com/piwi3910/cnc-toolpath/internal/units"
)

// motionColor represents an RGB color for one motion type.
type motionColor struct {
	R, G, B int
}

// motionColors maps motion types to plot colors: cuts blue, links
// gray, rapids red.
var motionColors = map[model.MotionType]motionColor{
	model.MotionCut:   {R: 33, G: 150, B: 243},
	model.MotionLink:  {R: 120, G: 144, B: 156},
	model.MotionRapid: {R: 244, G: 67, B: 54},
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0

	infoColumnWidth = 115.0
	previewLeft     = 140.0
	previewTop      = 38.0
	previewWidth    = pageWidth - previewLeft - marginRight
	previewHeight   = 122.0

	qrSize = 25.0
)

// SheetCode holds the data encoded into the setup sheet's QR code.
type SheetCode struct {
	JobName   string  `json:"job"`
	Post      string  `json:"post"`
	Program   string  `json:"program"`
	CreatedAt string  `json:"created_at"`
	Steps     int     `json:"steps"`
	CutMM     float64 `json:"cut_mm"`
	Gouges    int     `json:"gouges"`
}

// ExportSetupSheet generates a one-page PDF setup sheet for the job:
// machine, tool and cutting parameters on the left, a color-coded
// top view of the toolpath on the right, and a QR code carrying the
// job identity for the shop floor.
func ExportSetupSheet(path string, job JobSummary) error {
	if job.Toolpath.Empty() {
		return fmt.Errorf("no toolpath to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AddPage()

	if err := renderSetupPage(pdf, job); err != nil {
		return err
	}

	return pdf.OutputFileAndClose(path)
}

// renderSetupPage draws the whole sheet on the current page.
func renderSetupPage(pdf *fpdf.Fpdf, job JobSummary) error {
	sys := job.Units

	// Title
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Setup Sheet: %s", job.JobName)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	// Stats line
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Post: %s | Units: %s | Passes: %d | Cut: %s | Est. runtime: %.1f min",
		job.PostName, sys.Name(), len(job.Toolpath.Passes),
		units.FormatLength(job.CutLength(), sys, 0), job.EstimatedMinutes())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	y := previewTop

	y = renderInfoSection(pdf, y, "Machine", []infoItem{
		{"Name", job.Machine.Name},
		{"Rapid feed", units.FormatFeed(job.Machine.RapidFeed, sys, 0)},
		{"Max feed", units.FormatFeed(job.Machine.MaxFeed, sys, 0)},
		{"Safe Z", units.FormatLength(job.Machine.SafeZ, sys, 1)},
		{"Spindle", spindleSummary(job.Machine)},
	})

	y = renderInfoSection(pdf, y+3, "Tool & Cutting", []infoItem{
		{"Tool", job.Tool.DisplayLabel(sys)},
		{"Feed", units.FormatFeed(job.Toolpath.Feed, sys, 0)},
		{"Spindle speed", fmt.Sprintf("%.0f RPM", job.Toolpath.Spindle)},
		{"Step-over", units.FormatLength(job.Params.StepOver, sys, 2)},
		{"Depth per pass", units.FormatLength(job.Params.MaxDepthPerPass, sys, 2)},
		{"Stock size", stockSummary(job.Stock, sys)},
	})

	y = renderInfoSection(pdf, y+3, "Strategy", []infoItem{
		{"Advisor", job.ModelName},
		{"Source", job.DecisionSource},
	})

	y = renderScheduleTable(pdf, y+2, job.Decision.Steps, sys)
	renderGougeStatus(pdf, y+4, job)

	renderToolpathPreview(pdf, job)
	renderMotionLegend(pdf, previewLeft, previewTop+previewHeight+10)

	if err := renderJobCode(pdf, pageWidth-marginRight-qrSize, previewTop+previewHeight+6, job); err != nil {
		return err
	}

	// Footer
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by AIToolpathGenerator - CNC Toolpath Core", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	return nil
}

// infoItem is one label/value row of an information section.
type infoItem struct {
	label string
	value string
}

// renderInfoSection draws a titled label/value block and returns the y
// position below it.
func renderInfoSection(pdf *fpdf.Fpdf, y float64, title string, items []infoItem) float64 {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(infoColumnWidth, 6, title, "", 0, "L", false, 0, "")
	y += 7

	for _, item := range items {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(marginLeft+4, y)
		pdf.CellFormat(34, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(infoColumnWidth-38, 5, item.value, "", 0, "L", false, 0, "")
		y += 5
	}
	return y
}

// renderScheduleTable draws the machining schedule and returns the y
// position below it.
func renderScheduleTable(pdf *fpdf.Fpdf, y float64, steps []model.StrategyStep, sys units.System) float64 {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(infoColumnWidth, 6, "Schedule", "", 0, "L", false, 0, "")
	y += 7

	colWidths := []float64{10, 26, 17, 22, 22, 16}
	headers := []string{"#", "Strategy", "Pass", "Step-over", "Step-down", "Angle"}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 5, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 5

	pdf.SetFont("Helvetica", "", 8)
	for i, step := range steps {
		passKind := "rough"
		if step.FinishPass {
			passKind = "finish"
		}
		angle := "-"
		if step.Type == model.StrategyRaster {
			angle = fmt.Sprintf("%.1f\xb0", step.AngleDeg)
		}
		rowData := []string{
			fmt.Sprintf("%d", i+1),
			step.Type.String(),
			passKind,
			units.FormatLength(step.Stepover, sys, 2),
			units.FormatLength(step.Stepdown, sys, 2),
			angle,
		}

		// Alternate row background
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos = marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 5, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 5
	}
	return y
}

// renderGougeStatus draws the surface-check verdict.
func renderGougeStatus(pdf *fpdf.Fpdf, y float64, job JobSummary) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(marginLeft, y)
	if job.Gouges > 0 {
		pdf.SetTextColor(200, 0, 0)
		text := fmt.Sprintf("WARNING: %d gouge points, worst %.3f mm below surface", job.Gouges, job.WorstGougeDepth)
		pdf.CellFormat(infoColumnWidth, 6, text, "", 0, "L", false, 0, "")
	} else {
		pdf.SetTextColor(0, 130, 0)
		text := fmt.Sprintf("Surface check clean (%d cut points)", job.CutPoints)
		pdf.CellFormat(infoColumnWidth, 6, text, "", 0, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

// renderToolpathPreview draws the stock footprint with the passes as a
// top view, Y up, scaled to fit the preview box.
func renderToolpathPreview(pdf *fpdf.Fpdf, job JobSummary) {
	minX, minY, maxX, maxY := job.previewBounds()
	spanX := maxX - minX
	spanY := maxY - minY

	scale := math.Min(previewWidth/spanX, previewHeight/spanY)
	canvasW := spanX * scale
	canvasH := spanY * scale
	offsetX := previewLeft + (previewWidth-canvasW)/2
	offsetY := previewTop + (previewHeight-canvasH)/2

	// Stock footprint (wood color)
	pdf.SetFillColor(210, 180, 140)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	toPageX := func(x float64) float64 { return offsetX + (x-minX)*scale }
	toPageY := func(y float64) float64 { return offsetY + (maxY-y)*scale }

	for _, pass := range job.Toolpath.Passes {
		col, ok := motionColors[pass.Motion]
		if !ok {
			col = motionColors[model.MotionCut]
		}
		pdf.SetDrawColor(col.R, col.G, col.B)
		if pass.Motion == model.MotionCut {
			pdf.SetLineWidth(0.25)
		} else {
			pdf.SetLineWidth(0.15)
		}
		for i := 1; i < len(pass.Pts); i++ {
			pdf.Line(toPageX(pass.Pts[i-1].X), toPageY(pass.Pts[i-1].Y),
				toPageX(pass.Pts[i].X), toPageY(pass.Pts[i].Y))
		}
	}

	drawDimensionAnnotations(pdf, job.Units, spanX, spanY, offsetX, offsetY, canvasW, canvasH)
}

// drawDimensionAnnotations adds width and height labels outside the
// preview rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, sys units.System, spanX, spanY, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	// Width annotation (below the footprint)
	widthLabel := units.FormatLength(spanX, sys, 0)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	// Height annotation (to the left, rotated)
	heightLabel := units.FormatLength(spanY, sys, 0)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// renderMotionLegend renders the color key for the preview plot.
func renderMotionLegend(pdf *fpdf.Fpdf, x, y float64) {
	entries := []struct {
		label  string
		motion model.MotionType
	}{
		{"Cut", model.MotionCut},
		{"Link", model.MotionLink},
		{"Rapid", model.MotionRapid},
	}

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(0, 0, 0)
	for _, entry := range entries {
		col := motionColors[entry.motion]
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(x, y+0.5, 3, 3, "F")
		pdf.SetXY(x+4, y)
		labelW := pdf.GetStringWidth(entry.label) + 4
		pdf.CellFormat(labelW, 4, entry.label, "", 0, "L", false, 0, "")
		x += labelW + 8
	}
}

// renderJobCode draws the QR code carrying the job identity.
func renderJobCode(pdf *fpdf.Fpdf, x, y float64, job JobSummary) error {
	code := SheetCode{
		JobName:   job.JobName,
		Post:      job.PostName,
		Program:   job.ProgramFile,
		CreatedAt: job.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Steps:     len(job.Decision.Steps),
		CutMM:     job.CutLength(),
		Gouges:    job.Gouges,
	}

	qrData, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal job code: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_job_%s", job.JobName)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	pdf.ImageOptions(imgName, x, y, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(x, y+qrSize)
	pdf.CellFormat(qrSize, 3, "Job code", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	return nil
}

// spindleSummary renders the machine's spindle capability.
func spindleSummary(machine model.Machine) string {
	if !machine.SpindleSupported {
		return "not supported"
	}
	return fmt.Sprintf("up to %.0f RPM", machine.MaxSpindleRPM)
}

// stockSummary renders the stock block dimensions.
func stockSummary(stock model.Stock, sys units.System) string {
	if stock.Size.X <= 0 || stock.Size.Y <= 0 {
		return "from part bounds"
	}
	return fmt.Sprintf("%s x %s x %s",
		units.FormatLength(stock.Size.X, sys, 0),
		units.FormatLength(stock.Size.Y, sys, 0),
		units.FormatLength(stock.Size.Z, sys, 1))
}
