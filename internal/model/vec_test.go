package model

import (
	"math"
	"testing"
)

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: -2, Z: 1}

	if got := a.Add(b); got != (Vec3{X: 5, Y: 0, Z: 4}) {
		t.Errorf("Add = %+v", got)
	}
	if got := a.Sub(b); got != (Vec3{X: -3, Y: 4, Z: 2}) {
		t.Errorf("Sub = %+v", got)
	}
	if got := a.Scale(2); got != (Vec3{X: 2, Y: 4, Z: 6}) {
		t.Errorf("Scale = %+v", got)
	}
	if got := a.Dot(b); got != 3 {
		t.Errorf("Dot = %v, want 3", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{X: 1}
	y := Vec3{Y: 1}
	if got := x.Cross(y); got != (Vec3{Z: 1}) {
		t.Errorf("x cross y = %+v, want +z", got)
	}
	if got := y.Cross(x); got != (Vec3{Z: -1}) {
		t.Errorf("y cross x = %+v, want -z", got)
	}
}

func TestVec3LengthAndNormalize(t *testing.T) {
	v := Vec3{X: 3, Y: 4}
	if v.Length() != 5 || v.LengthSq() != 25 {
		t.Errorf("length = %v, sq = %v", v.Length(), v.LengthSq())
	}

	n := v.Normalized()
	if math.Abs(n.Length()-1) > 1e-12 {
		t.Errorf("normalized length = %v", n.Length())
	}
	if math.Abs(n.X-0.6) > 1e-12 || math.Abs(n.Y-0.8) > 1e-12 {
		t.Errorf("normalized = %+v", n)
	}

	if got := (Vec3{}).Normalized(); got != (Vec3{}) {
		t.Errorf("zero vector normalized = %+v, want zero", got)
	}
}

func TestVec3DistanceTo(t *testing.T) {
	a := Vec3{X: 1, Y: 1}
	b := Vec3{X: 4, Y: 5}
	if got := a.DistanceTo(b); got != 5 {
		t.Errorf("DistanceTo = %v, want 5", got)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{Min: Vec3{X: 0, Y: 0, Z: 0}, Max: Vec3{X: 2, Y: 4, Z: 6}}

	if got := b.Center(); got != (Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Center = %+v", got)
	}
	if got := b.Size(); got != (Vec3{X: 2, Y: 4, Z: 6}) {
		t.Errorf("Size = %+v", got)
	}

	grown := b.Expand(Vec3{X: -1, Y: 5, Z: 3})
	if grown.Min != (Vec3{X: -1, Y: 0, Z: 0}) || grown.Max != (Vec3{X: 2, Y: 5, Z: 6}) {
		t.Errorf("Expand = %+v", grown)
	}
}
