package advisor

import (
	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// Slot positions inside the model input vector. The layout is the
// feature vector contract plus the two appended user slots.
const (
	slotSteepBin    = 9
	slotFlatRatio   = 12
	slotSteepRatio  = 13
	slotPocketDepth = 14
)

// scoreDecision maps a card-normalized input vector to a schedule. It
// stands in for the inference runtimes, which are not linked into this
// build: a fixed linear read-out of the normalized slots, so the same
// input always yields the same schedule. Flat-dominant parts cut as
// raster; steep or deep parts start with a waterline rough step.
func scoreDecision(normalized []float64, params model.UserParams) model.StrategyDecision {
	at := func(i int) float64 {
		if i >= 0 && i < len(normalized) {
			return normalized[i]
		}
		return 0
	}

	rasterScore := at(slotFlatRatio) + 0.5*at(5) + 0.25*at(6)
	waterlineScore := at(slotSteepRatio) + 0.5*at(slotPocketDepth) + 0.25*at(slotSteepBin)

	roughType := model.StrategyRaster
	roughAngle := params.RasterAngleDeg
	if waterlineScore > rasterScore {
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
	if params.EnableFinishPass {
		steps = append(steps, model.StrategyStep{
			Type:       model.StrategyRaster,
			Stepover:   params.StepOver / 2,
			Stepdown:   params.MaxDepthPerPass,
			AngleDeg:   params.RasterAngleDeg,
			FinishPass: true,
		})
	}
	if len(steps) == 0 {
		steps = append(steps, model.StrategyStep{
			Type:     roughType,
			Stepover: params.StepOver,
			Stepdown: params.MaxDepthPerPass,
			AngleDeg: roughAngle,
		})
	}

	return model.StrategyDecision{Steps: steps}
}
