package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/piwi3910/cnc-toolpath/internal/model"
	"github.com/piwi3910/cnc-toolpath/internal/units"
)

// buildTestJob creates a small job with all three motion types, a
// two-step schedule and a configured stock block.
func buildTestJob() JobSummary {
	machine := model.DefaultMachine()
	stock := model.Stock{
		Shape:  model.StockBlock,
		Size:   model.Vec3{X: 100, Y: 60, Z: 20},
		Origin: model.Vec3{X: 0, Y: 0, Z: -20},
		TopZ:   0,
	}
	steps := []model.StrategyStep{
		{Type: model.StrategyRaster, Stepover: 2, Stepdown: 1.5, AngleDeg: 45},
		{Type: model.StrategyWaterline, Stepover: 0.8, Stepdown: 1.0, FinishPass: true},
	}

	tp := model.Toolpath{
		Passes: []model.Polyline{
			{
				Pts:          []model.Vec3{{X: 0, Y: 0, Z: 15}, {X: 0, Y: 0, Z: 5}},
				Motion:       model.MotionRapid,
				StrategyStep: -1,
			},
			{
				Pts:          []model.Vec3{{X: 0, Y: 0, Z: -1}, {X: 10, Y: 0, Z: -1}, {X: 10, Y: 5, Z: -1}},
				Motion:       model.MotionCut,
				StrategyStep: 0,
			},
			{
				Pts:          []model.Vec3{{X: 10, Y: 5, Z: -1}, {X: 10, Y: 5, Z: 5}},
				Motion:       model.MotionLink,
				StrategyStep: -1,
			},
		},
		Feed:          1200,
		Spindle:       10000,
		RapidFeed:     3000,
		Machine:       machine,
		Stock:         stock,
		StrategySteps: steps,
	}

	return JobSummary{
		JobName:        "bracket-a",
		CreatedAt:      time.Date(2024, 3, 14, 10, 30, 0, 0, time.UTC),
		Units:          units.Millimeters,
		PostName:       "GRBL",
		ProgramFile:    "bracket-a_grbl.gcode",
		ModelName:      "heuristic-v1",
		DecisionSource: "heuristic",
		Machine:        machine,
		Stock:          stock,
		Tool:           model.Tool{ID: "fe-6", Name: "6mm Flat", Type: "flat", DiameterMM: 6},
		Params:         model.DefaultUserParams(),
		Decision:       model.StrategyDecision{Steps: steps},
		Toolpath:       tp,
		CutPoints:      3,
	}
}

func TestExportSetupSheetCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.pdf")

	if err := ExportSetupSheet(path, buildTestJob()); err != nil {
		t.Fatalf("ExportSetupSheet failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("output file is empty")
	}
	if info.Size() < 500 {
		t.Errorf("output file suspiciously small: %d bytes", info.Size())
	}
}

func TestExportSetupSheetEmptyToolpath(t *testing.T) {
	job := buildTestJob()
	job.Toolpath = model.Toolpath{}

	err := ExportSetupSheet(filepath.Join(t.TempDir(), "sheet.pdf"), job)
	if err == nil {
		t.Fatal("expected error for empty toolpath")
	}
	if !strings.Contains(err.Error(), "no toolpath") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExportSetupSheetWithGouges(t *testing.T) {
	job := buildTestJob()
	job.Gouges = 3
	job.WorstGougeDepth = 0.25

	path := filepath.Join(t.TempDir(), "gouged.pdf")
	if err := ExportSetupSheet(path, job); err != nil {
		t.Fatalf("ExportSetupSheet failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("output file is empty")
	}
}

func TestExportSetupSheetInches(t *testing.T) {
	job := buildTestJob()
	job.Units = units.Inches

	path := filepath.Join(t.TempDir(), "imperial.pdf")
	if err := ExportSetupSheet(path, job); err != nil {
		t.Fatalf("ExportSetupSheet failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("output file missing or empty (err=%v)", err)
	}
}
