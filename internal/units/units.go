// Package units converts and formats lengths and feed rates between the
// metric and imperial unit systems used by post-processors.
package units

import (
	"fmt"
	"strings"
)

// System selects the measurement system for values exposed to the user
// or written into G-code. All internal computation stays in millimeters.
type System int

const (
	Millimeters System = iota
	Inches
)

// MMPerInch is the exact definition of the international inch.
const MMPerInch = 25.4

// ToMillimeters converts a value expressed in the given system to millimeters.
func ToMillimeters(value float64, sys System) float64 {
	if sys == Inches {
		return value * MMPerInch
	}
	return value
}

// FromMillimeters converts a millimeter value into the given system.
func FromMillimeters(mm float64, sys System) float64 {
	if sys == Inches {
		return mm / MMPerInch
	}
	return mm
}

// Suffix returns the short length suffix ("mm" or "in").
func (s System) Suffix() string {
	if s == Inches {
		return "in"
	}
	return "mm"
}

// FeedSuffix returns the feed rate suffix ("mm/min" or "in/min").
func (s System) FeedSuffix() string {
	if s == Inches {
		return "in/min"
	}
	return "mm/min"
}

// Name returns the full system name.
func (s System) Name() string {
	if s == Inches {
		return "Inches"
	}
	return "Millimeters"
}

func (s System) String() string {
	return s.Name()
}

// Parse maps a user-supplied unit name onto a System. Unrecognized
// input falls back to Millimeters.
func Parse(text string) System {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "in", "inch", "inches":
		return Inches
	default:
		return Millimeters
	}
}

// FormatLength renders a millimeter value in the given system with the
// requested number of decimals and the system suffix, e.g. "12.70 mm".
func FormatLength(mm float64, sys System, decimals int) string {
	return fmt.Sprintf("%.*f %s", decimals, FromMillimeters(mm, sys), sys.Suffix())
}

// FormatFeed renders a mm/min feed rate in the given system with the
// feed suffix, e.g. "39.37 in/min".
func FormatFeed(mmPerMin float64, sys System, decimals int) string {
	return fmt.Sprintf("%.*f %s", decimals, FromMillimeters(mmPerMin, sys), sys.FeedSuffix())
}
