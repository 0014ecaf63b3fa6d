// Command tpgen runs the full toolpath pipeline against a built-in
// demonstration part: feature extraction, strategy advice, pass layout
// over the height-field index, gouge checking, post-processing and the
// export artifacts (setup sheet, report, preview, advice history).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/cnc-toolpath/internal/advisor"
	"github.com/piwi3910/cnc-toolpath/internal/config"
	"github.com/piwi3910/cnc-toolpath/internal/export"
	"github.com/piwi3910/cnc-toolpath/internal/feature"
	"github.com/piwi3910/cnc-toolpath/internal/gcode"
	"github.com/piwi3910/cnc-toolpath/internal/heightfield"
	"github.com/piwi3910/cnc-toolpath/internal/history"
	"github.com/piwi3910/cnc-toolpath/internal/logger"
	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// stockMargin is the material left around the demo part footprint.
const stockMargin = 5.0

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("tpgen starting",
		zap.String("job", cfg.Job.Name),
		zap.String("post", cfg.Post.Dialect),
		zap.String("units", cfg.Job.Units))

	if err := run(cfg); err != nil {
		logger.Error("toolpath generation failed", zap.Error(err))
		os.Exit(1)
	}
}

// run drives the pipeline end to end. Any error aborts the job; export
// artifacts and history are best-effort once the program is written.
func run(cfg *config.Config) error {
	sys := cfg.UnitSystem()

	params := model.DefaultUserParams()
	params.Post.MaxArcChordError = cfg.Post.MaxArcChordError
	if err := applyStrategyOverride(&params, cfg.Advisor.Override); err != nil {
		return err
	}

	mesh := demoPart(cfg.Job.Name)
	bounds := mesh.Bounds()
	logger.Info("demo part built",
		zap.String("name", mesh.Name()),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Float64("size_x", bounds.Size().X),
		zap.Float64("size_y", bounds.Size().Y),
		zap.Float64("size_z", bounds.Size().Z))

	machine := model.DefaultMachine()
	stock := stockFromBounds(bounds, stockMargin)
	params.Machine = machine
	params.Stock = stock
	params.Sanitize()

	feats := feature.Compute(mesh)

	adv, modelName, err := selectAdvisor(cfg)
	if err != nil {
		return err
	}
	decision := adv.Predict(mesh, params)
	if len(decision.Steps) == 0 {
		return fmt.Errorf("advisor %s produced an empty schedule", modelName)
	}
	source := decisionSource(params, adv, modelName)
	logger.Info("strategy decided",
		zap.String("model", modelName),
		zap.String("source", source),
		zap.Int("steps", len(decision.Steps)))

	grid := heightfield.NewGrid(mesh, params.ToolDiameter)
	fieldStep := params.StepOver / 2
	if fieldStep < heightfield.MinFieldStep {
		fieldStep = heightfield.MinFieldStep
	}
	field, stats, err := heightfield.BuildField(context.Background(), grid, fieldStep)
	if err != nil {
		return fmt.Errorf("height field build failed: %w", err)
	}
	logger.Info("height field ready",
		zap.Int("cols", stats.Cols),
		zap.Int("rows", stats.Rows),
		zap.Int("valid_samples", stats.ValidSamples),
		zap.Duration("elapsed", stats.Duration))

	checker := heightfield.NewGougeChecker(grid, 0)
	tp := layoutToolpath(field, checker, decision, params, machine, stock)
	if tp.Empty() {
		return fmt.Errorf("pass layout produced no cut moves")
	}
	if raised := checker.AdjustForLeaveStock(&tp, params.LeaveStock); raised > 0 {
		logger.Info("cut points raised to leave-stock floor", zap.Int("points", raised))
	}
	report := checker.CheckToolpath(&tp)

	post := gcode.PostByName(cfg.Post.Dialect)
	program := post.Generate(tp, sys, params)
	fileName := gcode.SuggestedFileName(post, cfg.Job.Name)
	programPath := filepath.Join(cfg.Export.OutputDir, fileName)
	if err := gcode.WriteProgram(programPath, program); err != nil {
		return err
	}

	job := export.JobSummary{
		JobName:         cfg.Job.Name,
		CreatedAt:       time.Now().UTC(),
		Units:           sys,
		PostName:        post.Name(),
		ProgramFile:     fileName,
		ModelName:       modelName,
		DecisionSource:  source,
		Machine:         machine,
		Stock:           stock,
		Tool:            toolFromParams(params),
		Params:          params,
		Decision:        decision,
		Toolpath:        tp,
		CutPoints:       report.CutPoints,
		Gouges:          report.Gouges,
		WorstGougeDepth: report.WorstDepth,
	}
	writeArtifacts(cfg, job)

	if cfg.History.Enabled {
		entry := history.Entry{
			JobName:   cfg.Job.Name,
			ModelName: modelName,
			Source:    source,
			Post:      post.Name(),
			Features:  feature.ModelInput(feats, params),
			Decision:  decision,
		}
		if err := appendHistory(cfg.History.Path, entry); err != nil {
			logger.Warn("history append failed", zap.Error(err))
		}
	}

	logger.Info("toolpath generated",
		zap.String("program", programPath),
		zap.Int("passes", len(tp.Passes)),
		zap.Int("cut_points", report.CutPoints),
		zap.Int("gouges", report.Gouges))
	return nil
}

// applyStrategyOverride turns the -strategy flag into a forced
// two-step schedule of the requested family.
func applyStrategyOverride(params *model.UserParams, override string) error {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case "":
		return nil
	case "raster":
		params.UseStrategyOverride = true
		params.StrategyOverride = forcedSchedule(model.StrategyRaster, *params)
	case "waterline":
		params.UseStrategyOverride = true
		params.StrategyOverride = forcedSchedule(model.StrategyWaterline, *params)
	default:
		return fmt.Errorf("unknown strategy override %q (want raster or waterline)", override)
	}
	return nil
}

// forcedSchedule builds a rough plus finish schedule of one strategy
// family from the current cutting parameters.
func forcedSchedule(t model.StrategyType, params model.UserParams) []model.StrategyStep {
	angle := 0.0
	if t == model.StrategyRaster {
		angle = params.RasterAngleDeg
	}
	return []model.StrategyStep{
		{Type: t, Stepover: params.StepOver, Stepdown: params.MaxDepthPerPass, AngleDeg: angle},
		{Type: t, Stepover: params.StepOver / 2, Stepdown: params.MaxDepthPerPass, AngleDeg: angle, FinishPass: true},
	}
}

// selectAdvisor picks the advisor backend: the configured model file
// when present, otherwise the first discovered artifact, otherwise the
// heuristic rules.
func selectAdvisor(cfg *config.Config) (advisor.Advisor, string, error) {
	mgr := advisor.NewManager(cfg.Advisor.ModelsDir)

	models := mgr.Models()
	if len(models) == 0 {
		return mgr.DefaultAdvisor(), "heuristic", nil
	}

	if cfg.Advisor.Model != "" {
		for _, info := range models {
			if strings.EqualFold(info.FileName, cfg.Advisor.Model) {
				return mgr.AdvisorFor(info), info.DisplayName(), nil
			}
		}
		return nil, "", fmt.Errorf("model %q not found in %s", cfg.Advisor.Model, cfg.Advisor.ModelsDir)
	}

	info := models[0]
	return mgr.AdvisorFor(info), info.DisplayName(), nil
}

// decisionSource labels where the schedule came from for the history
// record and setup sheet.
func decisionSource(params model.UserParams, adv advisor.Advisor, modelName string) string {
	switch {
	case params.UseStrategyOverride && len(params.StrategyOverride) > 0:
		return "override"
	case adv.LastError() != "":
		return "fallback"
	case modelName == "heuristic":
		return "heuristic"
	default:
		return "model"
	}
}

// stockFromBounds sizes a block around the part: margin on every side
// in XY, flush top and bottom.
func stockFromBounds(b model.Bounds, margin float64) model.Stock {
	stock := model.Stock{
		Shape:  model.StockBlock,
		Margin: margin,
		Size: model.Vec3{
			X: b.Size().X + 2*margin,
			Y: b.Size().Y + 2*margin,
			Z: b.Size().Z,
		},
		Origin: model.Vec3{
			X: b.Min.X - margin,
			Y: b.Min.Y - margin,
			Z: b.Min.Z,
		},
		TopZ: b.Max.Z,
	}
	stock.EnsureValid()
	return stock
}

// toolFromParams describes the cutter implied by the parameter set.
func toolFromParams(params model.UserParams) model.Tool {
	kind := "flat"
	if params.CutterType == model.BallNose {
		kind = "ball"
	}
	return model.Tool{
		ID:         fmt.Sprintf("demo-%s-%.0f", kind, params.ToolDiameter),
		Name:       fmt.Sprintf("%.0fmm %s", params.ToolDiameter, params.CutterType),
		Type:       kind,
		DiameterMM: params.ToolDiameter,
	}
}

// writeArtifacts emits the enabled export documents. Failures are
// logged but do not abort the job: the program file already exists.
func writeArtifacts(cfg *config.Config, job export.JobSummary) {
	base := filepath.Join(cfg.Export.OutputDir, gcode.SafeBaseName(cfg.Job.Name))

	if cfg.Export.SetupSheet {
		path := base + "_setup.pdf"
		if err := export.ExportSetupSheet(path, job); err != nil {
			logger.Warn("setup sheet export failed", zap.Error(err))
		} else {
			logger.Info("setup sheet written", zap.String("path", path))
		}
	}
	if cfg.Export.Report {
		path := base + "_report.xlsx"
		if err := export.ExportReport(path, job); err != nil {
			logger.Warn("report export failed", zap.Error(err))
		} else {
			logger.Info("report written", zap.String("path", path))
		}
	}
	if cfg.Export.Preview {
		path := base + "_preview.dxf"
		if err := export.ExportPreview(path, job); err != nil {
			logger.Warn("preview export failed", zap.Error(err))
		} else {
			logger.Info("preview written", zap.String("path", path))
		}
	}
}

// appendHistory records the advisor run in the advice database.
func appendHistory(path string, entry history.Entry) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	stored, err := store.Append(entry)
	if err != nil {
		return err
	}
	logger.Info("advice recorded", zap.String("id", stored.ID))
	return nil
}
