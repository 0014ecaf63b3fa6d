package model

import "math"

// StockShape enumerates supported stock geometries.
type StockShape int

const (
	// StockBlock is a rectangular block; the only shape currently cut.
	StockBlock StockShape = iota
)

// Stock describes the workpiece blank the toolpath was planned against.
type Stock struct {
	Shape  StockShape `json:"shape"`
	Size   Vec3       `json:"size_mm"`
	Origin Vec3       `json:"origin_mm"`
	TopZ   float64    `json:"top_z_mm"`
	Margin float64    `json:"margin_mm"`
}

// EnsureValid clamps negative dimensions to zero.
func (s *Stock) EnsureValid() {
	s.Size.X = math.Max(s.Size.X, 0)
	s.Size.Y = math.Max(s.Size.Y, 0)
	s.Size.Z = math.Max(s.Size.Z, 0)
	s.Margin = math.Max(s.Margin, 0)
}

// DefaultStock returns an empty block stock; callers size it from the
// mesh bounds before planning.
func DefaultStock() Stock {
	return Stock{Shape: StockBlock}
}
