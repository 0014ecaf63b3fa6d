package model

import "testing"

func TestToolpathEmpty(t *testing.T) {
	if !(Toolpath{}).Empty() {
		t.Error("zero toolpath must be empty")
	}

	tp := Toolpath{Passes: []Polyline{{Motion: MotionCut, Pts: []Vec3{{}, {X: 1}}}}}
	if tp.Empty() {
		t.Error("toolpath with a pass must not be empty")
	}
}

func TestNewPolyline(t *testing.T) {
	p := NewPolyline(MotionLink)
	if p.Motion != MotionLink {
		t.Errorf("motion = %v, want Link", p.Motion)
	}
	if p.StrategyStep != -1 {
		t.Errorf("StrategyStep = %d, want -1", p.StrategyStep)
	}
	if len(p.Pts) != 0 {
		t.Errorf("new polyline has %d points", len(p.Pts))
	}
}

func TestPolylineIsRapid(t *testing.T) {
	if (Polyline{Motion: MotionCut}).IsRapid() {
		t.Error("cut move reported as rapid")
	}
	if !(Polyline{Motion: MotionLink}).IsRapid() {
		t.Error("link move not reported as rapid")
	}
	if !(Polyline{Motion: MotionRapid}).IsRapid() {
		t.Error("rapid move not reported as rapid")
	}
}

func TestMotionTypeNames(t *testing.T) {
	cases := []struct {
		motion MotionType
		want   string
	}{
		{MotionCut, "Cut"},
		{MotionLink, "Link"},
		{MotionRapid, "Rapid"},
	}
	for _, tc := range cases {
		if got := tc.motion.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
