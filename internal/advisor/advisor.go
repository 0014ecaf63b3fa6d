// Package advisor selects a machining schedule for a mesh. Backends
// wrap trained model artifacts gated by their validated sidecar cards;
// a rule-based heuristic serves as the runtime-free default. Every
// advisor honors the same contract: when anything in the prediction
// path cannot be trusted, it returns the deterministic fallback
// schedule and records a retrievable error message.
package advisor

import (
	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// Advisor produces a machining schedule for a mesh under the given
// user parameters. LastError returns the failure message of the most
// recent Predict, or an empty string when the prediction was trusted.
type Advisor interface {
	Predict(mesh *model.Mesh, params model.UserParams) model.StrategyDecision
	LastError() string
}

const fallbackAngleDeg = 45.0

// FallbackDecision is the schedule returned whenever a backend cannot
// be trusted: a raster rough step carrying the caller's step-over and
// depth per pass, then a raster finishing step at half the step-over.
// It always holds at least two steps.
func FallbackDecision(params model.UserParams) model.StrategyDecision {
	return model.StrategyDecision{Steps: []model.StrategyStep{
		{
			Type:     model.StrategyRaster,
			Stepover: params.StepOver,
			Stepdown: params.MaxDepthPerPass,
			AngleDeg: fallbackAngleDeg,
		},
		{
			Type:       model.StrategyRaster,
			Stepover:   params.StepOver / 2,
			Stepdown:   params.MaxDepthPerPass,
			AngleDeg:   fallbackAngleDeg,
			FinishPass: true,
		},
	}}
}

// overrideDecision returns the user-supplied schedule when the
// override flag is set and non-empty. The override bypasses feature
// extraction and inference entirely.
func overrideDecision(params model.UserParams) (model.StrategyDecision, bool) {
	if !params.UseStrategyOverride || len(params.StrategyOverride) == 0 {
		return model.StrategyDecision{}, false
	}
	steps := make([]model.StrategyStep, len(params.StrategyOverride))
	copy(steps, params.StrategyOverride)
	return model.StrategyDecision{Steps: steps}, true
}
