package model

import "math"

// Machine is the read-only capability record of the target controller.
// Feeds are mm/min, heights are mm.
type Machine struct {
	Name             string  `json:"name"`
	RapidFeed        float64 `json:"rapid_feed_mm_min"`
	MaxFeed          float64 `json:"max_feed_mm_min"`
	MaxSpindleRPM    float64 `json:"max_spindle_rpm"`
	ClearanceZ       float64 `json:"clearance_z_mm"`
	SafeZ            float64 `json:"safe_z_mm"`
	SpindleSupported bool    `json:"spindle_supported"`
}

// EnsureValid clamps negative fields to zero and keeps the safe height
// at or above the clearance height.
func (m *Machine) EnsureValid() {
	m.RapidFeed = math.Max(m.RapidFeed, 0)
	m.MaxFeed = math.Max(m.MaxFeed, 0)
	m.MaxSpindleRPM = math.Max(m.MaxSpindleRPM, 0)
	m.ClearanceZ = math.Max(m.ClearanceZ, 0)
	m.SafeZ = math.Max(m.SafeZ, m.ClearanceZ)
}

// DefaultMachine returns the generic router profile used when no machine
// has been configured.
func DefaultMachine() Machine {
	m := Machine{
		Name:             "Generic Router",
		RapidFeed:        3000,
		MaxFeed:          2000,
		MaxSpindleRPM:    12000,
		ClearanceZ:       5,
		SafeZ:            15,
		SpindleSupported: true,
	}
	m.EnsureValid()
	return m
}
