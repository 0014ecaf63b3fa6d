package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/cnc-toolpath/internal/model"
	"github.com/piwi3910/cnc-toolpath/internal/units"
)

// Sheet names of the XLSX report.
const (
	sheetSummary  = "Summary"
	sheetSchedule = "Schedule"
	sheetPasses   = "Passes"
)

// ExportReport writes a multi-sheet XLSX machining report: a job
// summary, the strategy schedule, and per-pass statistics.
func ExportReport(path string, job JobSummary) error {
	if job.Toolpath.Empty() {
		return fmt.Errorf("no toolpath to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create cell style: %w", err)
	}

	if err := writeSummarySheet(f, job, boldStyle); err != nil {
		return err
	}
	if err := writeScheduleSheet(f, job, boldStyle); err != nil {
		return err
	}
	if err := writePassSheet(f, job, boldStyle); err != nil {
		return err
	}

	idx, err := f.GetSheetIndex(sheetSummary)
	if err != nil {
		return fmt.Errorf("failed to locate summary sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// writeSummarySheet fills the summary sheet with label/value rows.
func writeSummarySheet(f *excelize.File, job JobSummary, boldStyle int) error {
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	sys := job.Units
	rows := []struct {
		label string
		value interface{}
	}{
		{"Job", job.JobName},
		{"Created", job.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
		{"Post", job.PostName},
		{"Program file", job.ProgramFile},
		{"Units", sys.Name()},
		{"Machine", job.Machine.Name},
		{"Tool", job.Tool.DisplayLabel(sys)},
		{"Feed", units.FormatFeed(job.Toolpath.Feed, sys, 0)},
		{"Spindle (RPM)", job.Toolpath.Spindle},
		{"Passes", len(job.Toolpath.Passes)},
		{"Cut length", units.FormatLength(job.CutLength(), sys, 1)},
		{"Travel length", units.FormatLength(job.TravelLength(), sys, 1)},
		{"Est. runtime (min)", job.EstimatedMinutes()},
		{"Cut points checked", job.CutPoints},
		{"Gouges", job.Gouges},
		{"Worst gouge depth (mm)", job.WorstGougeDepth},
		{"Advisor model", job.ModelName},
		{"Decision source", job.DecisionSource},
	}

	for i, row := range rows {
		f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", i+1), row.label)
		f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", i+1), row.value)
	}

	f.SetColWidth(sheetSummary, "A", "A", 24)
	f.SetColWidth(sheetSummary, "B", "B", 40)
	return f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), boldStyle)
}

// writeScheduleSheet fills the strategy schedule sheet.
func writeScheduleSheet(f *excelize.File, job JobSummary, boldStyle int) error {
	if _, err := f.NewSheet(sheetSchedule); err != nil {
		return fmt.Errorf("failed to create schedule sheet: %w", err)
	}

	headers := []string{"Step", "Strategy", "Pass", "Stepover (mm)", "Stepdown (mm)", "Angle (deg)"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetSchedule, cell, header)
	}

	for i, step := range job.Decision.Steps {
		row := i + 2
		passKind := "rough"
		if step.FinishPass {
			passKind = "finish"
		}
		f.SetCellValue(sheetSchedule, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheetSchedule, fmt.Sprintf("B%d", row), step.Type.String())
		f.SetCellValue(sheetSchedule, fmt.Sprintf("C%d", row), passKind)
		f.SetCellValue(sheetSchedule, fmt.Sprintf("D%d", row), step.Stepover)
		f.SetCellValue(sheetSchedule, fmt.Sprintf("E%d", row), step.Stepdown)
		if step.Type == model.StrategyRaster {
			f.SetCellValue(sheetSchedule, fmt.Sprintf("F%d", row), step.AngleDeg)
		}
	}

	f.SetColWidth(sheetSchedule, "A", "F", 14)
	return f.SetCellStyle(sheetSchedule, "A1", "F1", boldStyle)
}

// writePassSheet fills the per-pass statistics sheet.
func writePassSheet(f *excelize.File, job JobSummary, boldStyle int) error {
	if _, err := f.NewSheet(sheetPasses); err != nil {
		return fmt.Errorf("failed to create pass sheet: %w", err)
	}

	headers := []string{"Pass", "Motion", "Points", "Step", "Length (mm)"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetPasses, cell, header)
	}

	for i, pass := range job.Toolpath.Passes {
		row := i + 2
		f.SetCellValue(sheetPasses, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheetPasses, fmt.Sprintf("B%d", row), pass.Motion.String())
		f.SetCellValue(sheetPasses, fmt.Sprintf("C%d", row), len(pass.Pts))
		if pass.StrategyStep >= 0 {
			f.SetCellValue(sheetPasses, fmt.Sprintf("D%d", row), pass.StrategyStep+1)
		} else {
			f.SetCellValue(sheetPasses, fmt.Sprintf("D%d", row), "-")
		}
		f.SetCellValue(sheetPasses, fmt.Sprintf("E%d", row), passLength(pass))
	}

	f.SetColWidth(sheetPasses, "A", "E", 12)
	return f.SetCellStyle(sheetPasses, "A1", "E1", boldStyle)
}
