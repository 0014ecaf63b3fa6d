package model

// MotionType tags how a polyline is traversed.
type MotionType int

const (
	// MotionCut is a material-removing move at cutting feed.
	MotionCut MotionType = iota
	// MotionLink repositions between cuts at safe height.
	MotionLink
	// MotionRapid is a full-speed positioning move.
	MotionRapid
)

// String returns the motion tag name.
func (m MotionType) String() string {
	switch m {
	case MotionLink:
		return "Link"
	case MotionRapid:
		return "Rapid"
	default:
		return "Cut"
	}
}

// Polyline is one ordered run of points sharing a motion type.
// StrategyStep indexes into Toolpath.StrategySteps; -1 marks a pass that
// does not belong to a schedule step.
type Polyline struct {
	Pts          []Vec3
	Motion       MotionType
	StrategyStep int
}

// NewPolyline returns an empty polyline with the given motion tag and no
// schedule step association.
func NewPolyline(motion MotionType) Polyline {
	return Polyline{Motion: motion, StrategyStep: -1}
}

// IsRapid reports whether the polyline repositions rather than cuts.
func (p Polyline) IsRapid() bool {
	return p.Motion != MotionCut
}

// Toolpath is the immutable input to a post-processor: ordered passes
// plus the feed, spindle and machine/stock context they were planned
// for. Point order defines machine motion order and is never reordered.
type Toolpath struct {
	Passes        []Polyline
	Feed          float64
	Spindle       float64
	RapidFeed     float64
	Machine       Machine
	Stock         Stock
	StrategySteps []StrategyStep
}

// Empty reports whether the toolpath holds no passes.
func (t Toolpath) Empty() bool {
	return len(t.Passes) == 0
}
