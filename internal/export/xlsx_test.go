package export

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/cnc-toolpath/internal/model"
)

func TestExportReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := ExportReport(path, buildTestJob()); err != nil {
		t.Fatalf("ExportReport failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("cannot reopen report: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue(sheetSummary, "A1"); got != "Job" {
		t.Errorf("Summary A1 = %q, want %q", got, "Job")
	}
	if got, _ := f.GetCellValue(sheetSummary, "B1"); got != "bracket-a" {
		t.Errorf("Summary B1 = %q, want %q", got, "bracket-a")
	}
	if got, _ := f.GetCellValue(sheetSummary, "B5"); got != "Millimeters" {
		t.Errorf("Summary B5 = %q, want %q", got, "Millimeters")
	}

	schedule, err := f.GetRows(sheetSchedule)
	if err != nil {
		t.Fatalf("cannot read schedule sheet: %v", err)
	}
	if len(schedule) != 3 {
		t.Fatalf("schedule has %d rows, want 3", len(schedule))
	}
	if schedule[0][0] != "Step" || schedule[0][1] != "Strategy" {
		t.Errorf("unexpected schedule header: %v", schedule[0])
	}
	if schedule[1][1] != "Raster" || schedule[1][5] != "45" {
		t.Errorf("unexpected raster row: %v", schedule[1])
	}
	if schedule[2][1] != "Waterline" || schedule[2][2] != "finish" {
		t.Errorf("unexpected waterline row: %v", schedule[2])
	}

	passes, err := f.GetRows(sheetPasses)
	if err != nil {
		t.Fatalf("cannot read pass sheet: %v", err)
	}
	if len(passes) != 4 {
		t.Fatalf("pass sheet has %d rows, want 4", len(passes))
	}
	if passes[1][1] != "Rapid" {
		t.Errorf("pass 1 motion = %q, want Rapid", passes[1][1])
	}
	if passes[2][1] != "Cut" || passes[2][3] != "1" {
		t.Errorf("unexpected cut row: %v", passes[2])
	}
	if passes[2][4] != "15" {
		t.Errorf("cut pass length = %q, want 15", passes[2][4])
	}
	if passes[3][3] != "-" {
		t.Errorf("link pass step = %q, want -", passes[3][3])
	}
}

func TestExportReportEmptyToolpath(t *testing.T) {
	job := buildTestJob()
	job.Toolpath = model.Toolpath{}

	err := ExportReport(filepath.Join(t.TempDir(), "report.xlsx"), job)
	if err == nil {
		t.Fatal("expected error for empty toolpath")
	}
	if !strings.Contains(err.Error(), "no toolpath") {
		t.Errorf("unexpected error: %v", err)
	}
}
