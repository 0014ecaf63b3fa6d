package model

import "encoding/json"

// StrategyType selects the machining pattern of one schedule step.
type StrategyType int

const (
	StrategyRaster StrategyType = iota
	StrategyWaterline
)

// String returns the display name of the strategy.
func (t StrategyType) String() string {
	if t == StrategyWaterline {
		return "Waterline"
	}
	return "Raster"
}

// StrategyStep is one entry of a machining schedule: the pattern to cut,
// its lateral step-over and depth per pass, the raster angle, and whether
// the step is a finishing pass.
type StrategyStep struct {
	Type       StrategyType `json:"type"`
	Stepover   float64      `json:"stepover"`
	Stepdown   float64      `json:"stepdown"`
	AngleDeg   float64      `json:"angle_deg"`
	FinishPass bool         `json:"finish"`
}

// StrategyDecision is the advisor output: an ordered machining schedule.
type StrategyDecision struct {
	Steps []StrategyStep `json:"steps"`
}

// MarshalDecision serializes a decision for persistence or transport.
func MarshalDecision(d StrategyDecision) ([]byte, error) {
	return json.Marshal(d)
}

// UnmarshalDecision parses a decision previously produced by
// MarshalDecision. Steps whose type field is missing or out of range are
// dropped rather than failing the whole decision, so a schedule written
// by a newer build degrades instead of erroring.
func UnmarshalDecision(data []byte) (StrategyDecision, error) {
	var raw struct {
		Steps []rawStrategyStep `json:"steps"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return StrategyDecision{}, err
	}

	decision := StrategyDecision{}
	for _, rs := range raw.Steps {
		if step, ok := rs.toStep(); ok {
			decision.Steps = append(decision.Steps, step)
		}
	}
	return decision, nil
}

// rawStrategyStep tolerates partial step objects during decode.
type rawStrategyStep struct {
	Type       *int     `json:"type"`
	Stepover   *float64 `json:"stepover"`
	Stepdown   *float64 `json:"stepdown"`
	AngleDeg   *float64 `json:"angle_deg"`
	FinishPass *bool    `json:"finish"`
}

func (rs rawStrategyStep) toStep() (StrategyStep, bool) {
	var step StrategyStep
	if rs.Type == nil {
		return step, false
	}
	switch StrategyType(*rs.Type) {
	case StrategyRaster:
		step.Type = StrategyRaster
	case StrategyWaterline:
		step.Type = StrategyWaterline
	default:
		return step, false
	}
	if rs.Stepover != nil {
		step.Stepover = *rs.Stepover
	}
	if rs.Stepdown != nil {
		step.Stepdown = *rs.Stepdown
	}
	if rs.AngleDeg != nil {
		step.AngleDeg = *rs.AngleDeg
	}
	if rs.FinishPass != nil {
		step.FinishPass = *rs.FinishPass
	}
	return step, true
}
