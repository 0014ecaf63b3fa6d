package model

// CutterType enumerates supported cutter geometries.
type CutterType int

const (
	FlatEndmill CutterType = iota
	BallNose
)

// String returns the cutter display name.
func (c CutterType) String() string {
	if c == BallNose {
		return "Ball nose"
	}
	return "Flat endmill"
}

// PostParams carries post-processor tuning.
type PostParams struct {
	// MaxArcChordError is the arc fitting tolerance in mm. Zero or
	// negative disables arc fitting entirely (every move stays linear).
	MaxArcChordError float64 `json:"max_arc_chord_error_mm"`
}

// UserParams collects every user-tunable machining parameter. Lengths
// are mm, feeds mm/min, spindle RPM.
type UserParams struct {
	ToolDiameter    float64    `json:"tool_diameter_mm"`
	StepOver        float64    `json:"step_over_mm"`
	MaxDepthPerPass float64    `json:"max_depth_per_pass_mm"`
	Feed            float64    `json:"feed_mm_min"`
	Spindle         float64    `json:"spindle_rpm"`
	RasterAngleDeg  float64    `json:"raster_angle_deg"`
	UseHeightField  bool       `json:"use_height_field"`
	CutterType      CutterType `json:"cutter_type"`

	EnableRoughPass  bool    `json:"enable_rough_pass"`
	EnableFinishPass bool    `json:"enable_finish_pass"`
	StockAllowance   float64 `json:"stock_allowance_mm"`
	LeaveStock       float64 `json:"leave_stock_mm"`

	// UseStrategyOverride replaces advisor output with StrategyOverride.
	UseStrategyOverride bool           `json:"use_strategy_override"`
	StrategyOverride    []StrategyStep `json:"strategy_override,omitempty"`

	Post    PostParams `json:"post"`
	Stock   Stock      `json:"stock"`
	Machine Machine    `json:"machine"`
}

// DefaultUserParams returns the parameter set new jobs start from.
func DefaultUserParams() UserParams {
	return UserParams{
		ToolDiameter:     6,
		StepOver:         3,
		MaxDepthPerPass:  1,
		Feed:             800,
		Spindle:          12000,
		RasterAngleDeg:   0,
		UseHeightField:   true,
		CutterType:       FlatEndmill,
		EnableRoughPass:  true,
		EnableFinishPass: true,
		Post:             PostParams{MaxArcChordError: 0.02},
		Stock:            DefaultStock(),
		Machine:          DefaultMachine(),
	}
}

// Sanitize clamps out-of-range numeric parameters back to their
// defaults so a corrupt config cannot produce a zero-feed program.
func (p *UserParams) Sanitize() {
	defaults := DefaultUserParams()
	if p.ToolDiameter <= 0 {
		p.ToolDiameter = defaults.ToolDiameter
	}
	if p.StepOver <= 0 {
		p.StepOver = defaults.StepOver
	}
	if p.MaxDepthPerPass <= 0 {
		p.MaxDepthPerPass = defaults.MaxDepthPerPass
	}
	if p.Feed <= 0 {
		p.Feed = defaults.Feed
	}
	if p.Spindle < 0 {
		p.Spindle = defaults.Spindle
	}
	if p.StockAllowance < 0 {
		p.StockAllowance = 0
	}
	if p.LeaveStock < 0 {
		p.LeaveStock = 0
	}
	if p.Post.MaxArcChordError < 0 {
		p.Post.MaxArcChordError = 0
	}
	p.Stock.EnsureValid()
	p.Machine.EnsureValid()
}
