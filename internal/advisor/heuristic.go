package advisor

import (
	"go.uber.org/zap"

	"github.com/piwi3910/cnc-toolpath/internal/feature"
	"github.com/piwi3910/cnc-toolpath/internal/logger"
	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// Thresholds for the rule-based schedule. A part is treated as wall
// dominated when more than a third of its surface is steep, and as deep
// when the pocket depth spans more than three rough passes.
const (
	heuristicSteepRatio  = 0.35
	heuristicDepthPasses = 3.0
)

// HeuristicAdvisor selects a schedule from raw mesh features without
// any model artifact. It never fails closed: invalid features simply
// produce the fallback schedule.
type HeuristicAdvisor struct {
	lastError string
	log       *zap.Logger
}

// NewHeuristicAdvisor returns the rule-based advisor.
func NewHeuristicAdvisor(opts ...BackendOption) *HeuristicAdvisor {
	cfg := backendConfig{log: logger.Log}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &HeuristicAdvisor{log: cfg.log}
}

// Predict applies the machining rules: steep or deep parts rough with
// waterline, flat-dominant parts with raster, and a raster finishing
// step is always appended.
func (h *HeuristicAdvisor) Predict(mesh *model.Mesh, params model.UserParams) model.StrategyDecision {
	if decision, ok := overrideDecision(params); ok {
		h.lastError = ""
		return decision
	}

	features := feature.Compute(mesh)
	if !features.Valid {
		h.lastError = "Feature extraction produced an invalid descriptor."
		h.log.Warn("feature extraction failed, using fallback schedule",
			zap.String("backend", "Heuristic"),
		)
		return FallbackDecision(params)
	}

	roughType := model.StrategyRaster
	roughAngle := params.RasterAngleDeg
	deep := params.MaxDepthPerPass > 0 && features.PocketDepth > heuristicDepthPasses*params.MaxDepthPerPass
	if features.SteepAreaRatio >= heuristicSteepRatio || deep {
		roughType = model.StrategyWaterline
		roughAngle = 0
	}

	var steps []model.StrategyStep
	if params.EnableRoughPass {
		steps = append(steps, model.StrategyStep{
			Type:     roughType,
			Stepover: params.StepOver,
			Stepdown: params.MaxDepthPerPass,
			AngleDeg: roughAngle,
		})
	}
	steps = append(steps, model.StrategyStep{
		Type:       model.StrategyRaster,
		Stepover:   params.StepOver / 2,
		Stepdown:   params.MaxDepthPerPass,
		AngleDeg:   params.RasterAngleDeg,
		FinishPass: true,
	})

	h.lastError = ""
	return model.StrategyDecision{Steps: steps}
}

// LastError returns the most recent prediction failure message.
func (h *HeuristicAdvisor) LastError() string {
	return h.lastError
}
