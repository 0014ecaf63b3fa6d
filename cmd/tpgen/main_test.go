package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/cnc-toolpath/internal/advisor"
	"github.com/piwi3910/cnc-toolpath/internal/config"
	"github.com/piwi3910/cnc-toolpath/internal/model"
)

func TestApplyStrategyOverride(t *testing.T) {
	params := model.DefaultUserParams()
	if err := applyStrategyOverride(&params, ""); err != nil {
		t.Fatalf("empty override: %v", err)
	}
	if params.UseStrategyOverride {
		t.Error("empty override must not force a schedule")
	}

	params = model.DefaultUserParams()
	if err := applyStrategyOverride(&params, "Waterline"); err != nil {
		t.Fatalf("waterline override: %v", err)
	}
	if !params.UseStrategyOverride || len(params.StrategyOverride) != 2 {
		t.Fatalf("override not applied: %+v", params.StrategyOverride)
	}
	for _, step := range params.StrategyOverride {
		if step.Type != model.StrategyWaterline {
			t.Errorf("step type = %v, want Waterline", step.Type)
		}
	}
	if !params.StrategyOverride[1].FinishPass {
		t.Error("second override step must be a finish pass")
	}

	params = model.DefaultUserParams()
	if err := applyStrategyOverride(&params, "spiral"); err == nil {
		t.Fatal("unknown override must fail")
	}
}

func TestForcedScheduleAngles(t *testing.T) {
	params := model.DefaultUserParams()
	params.RasterAngleDeg = 30

	raster := forcedSchedule(model.StrategyRaster, params)
	if raster[0].AngleDeg != 30 {
		t.Errorf("raster angle = %.1f, want 30", raster[0].AngleDeg)
	}

	water := forcedSchedule(model.StrategyWaterline, params)
	if water[0].AngleDeg != 0 {
		t.Errorf("waterline angle = %.1f, want 0", water[0].AngleDeg)
	}
}

func TestDecisionSource(t *testing.T) {
	params := model.DefaultUserParams()
	heuristic := advisor.NewHeuristicAdvisor()

	if got := decisionSource(params, heuristic, "heuristic"); got != "heuristic" {
		t.Errorf("source = %q, want heuristic", got)
	}
	if got := decisionSource(params, heuristic, "net-a (ONNX)"); got != "model" {
		t.Errorf("source = %q, want model", got)
	}

	failed := advisor.NewTorchAdvisor(filepath.Join(t.TempDir(), "missing.pt"))
	failed.Predict(demoPart("probe"), params)
	if got := decisionSource(params, failed, "missing (Torch)"); got != "fallback" {
		t.Errorf("source = %q, want fallback", got)
	}

	params.UseStrategyOverride = true
	params.StrategyOverride = forcedSchedule(model.StrategyRaster, params)
	if got := decisionSource(params, heuristic, "heuristic"); got != "override" {
		t.Errorf("source = %q, want override", got)
	}
}

func TestSelectAdvisorHeuristicWhenNoModels(t *testing.T) {
	cfg := config.Default()
	cfg.Advisor.ModelsDir = t.TempDir()

	adv, name, err := selectAdvisor(cfg)
	if err != nil {
		t.Fatalf("selectAdvisor failed: %v", err)
	}
	if adv == nil {
		t.Fatal("selectAdvisor returned nil advisor")
	}
	if name != "heuristic" {
		t.Errorf("model name = %q, want heuristic", name)
	}
}

func TestSelectAdvisorPrefersConfiguredModel(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"alpha.onnx", "beta.pt"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("stub"), 0644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}

	cfg := config.Default()
	cfg.Advisor.ModelsDir = dir

	_, name, err := selectAdvisor(cfg)
	if err != nil {
		t.Fatalf("selectAdvisor failed: %v", err)
	}
	if name != "alpha (ONNX)" {
		t.Errorf("default pick = %q, want alpha (ONNX)", name)
	}

	cfg.Advisor.Model = "beta.pt"
	_, name, err = selectAdvisor(cfg)
	if err != nil {
		t.Fatalf("selectAdvisor with preference failed: %v", err)
	}
	if name != "beta (Torch)" {
		t.Errorf("preferred pick = %q, want beta (Torch)", name)
	}

	cfg.Advisor.Model = "gamma.onnx"
	if _, _, err := selectAdvisor(cfg); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("missing model error = %v, want not found", err)
	}
}

func TestStockFromBounds(t *testing.T) {
	stock := stockFromBounds(demoPart("part").Bounds(), 5)

	if stock.Origin.X != -5 || stock.Origin.Y != -5 {
		t.Errorf("origin = (%.1f, %.1f), want (-5, -5)", stock.Origin.X, stock.Origin.Y)
	}
	if stock.Size.X != demoSizeX+10 || stock.Size.Y != demoSizeY+10 {
		t.Errorf("size = (%.1f, %.1f), want (%.0f, %.0f)",
			stock.Size.X, stock.Size.Y, demoSizeX+10, demoSizeY+10)
	}
	if stock.TopZ != demoBaseZ+demoRampRise {
		t.Errorf("TopZ = %.1f, want %.1f", stock.TopZ, demoBaseZ+demoRampRise)
	}
	if stock.Origin.Z != demoFloorZ {
		t.Errorf("Origin.Z = %.1f, want %.1f", stock.Origin.Z, demoFloorZ)
	}
}

func TestToolFromParams(t *testing.T) {
	params := model.DefaultUserParams()

	tool := toolFromParams(params)
	if !tool.Valid() {
		t.Fatalf("tool invalid: %+v", tool)
	}
	if tool.Type != "flat" || tool.DiameterMM != params.ToolDiameter {
		t.Errorf("tool = %q %.1f mm, want flat %.1f mm", tool.Type, tool.DiameterMM, params.ToolDiameter)
	}

	params.CutterType = model.BallNose
	if got := toolFromParams(params).Type; got != "ball" {
		t.Errorf("ball nose tool type = %q, want ball", got)
	}
}
