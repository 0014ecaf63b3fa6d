package gcode

import (
	"regexp"
	"strconv"
	"strings"
)

// CommandKind classifies a parsed motion command.
type CommandKind int

const (
	KindRapid CommandKind = iota
	KindLinear
	KindArcCW
	KindArcCCW
)

// String returns the display name of the command kind.
func (k CommandKind) String() string {
	switch k {
	case KindRapid:
		return "rapid"
	case KindLinear:
		return "linear"
	case KindArcCW:
		return "arc-cw"
	case KindArcCCW:
		return "arc-ccw"
	default:
		return "unknown"
	}
}

// Command is a single parsed motion with its resolved modal state.
// X, Y and Z are absolute target coordinates. I and J are the arc
// center offsets from the move's start point and are zero for linear
// moves.
type Command struct {
	Kind CommandKind
	X    float64
	Y    float64
	Z    float64
	I    float64
	J    float64
	Feed float64
}

// ParseProgram parses generated machine code back into motion
// commands. It understands what the posts emit: G0/G1 linear moves,
// G2/G3 arcs with I/J center offsets, standalone F feed lines, and
// Heidenhain L blocks where FMAX marks a rapid. Comments and
// non-motion blocks are skipped; omitted coordinates carry over from
// the previous command.
func ParseProgram(text string) []Command {
	var commands []Command

	curX, curY, curZ := 0.0, 0.0, 0.0
	curFeed := 0.0

	wordRe := regexp.MustCompile(`([XYZIJF])(-?\d+\.?\d*)`)

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		// Strip inline comments (semicolon or parenthetical).
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = line[:idx]
		}
		if idx := strings.Index(line, "("); idx >= 0 {
			if end := strings.Index(line, ")"); end > idx {
				line = line[:idx] + line[end+1:]
			} else {
				line = line[:idx]
			}
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)

		// Standalone feed line opening a cut pass.
		if strings.HasPrefix(upper, "F") {
			if v, err := strconv.ParseFloat(strings.TrimSpace(upper[1:]), 64); err == nil {
				curFeed = v
			}
			continue
		}

		kind, ok := commandKind(upper)
		if !ok {
			continue
		}

		newX, newY, newZ, newFeed := curX, curY, curZ, curFeed
		arcI, arcJ := 0.0, 0.0
		for _, m := range wordRe.FindAllStringSubmatch(upper, -1) {
			val, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			switch m[1] {
			case "X":
				newX = val
			case "Y":
				newY = val
			case "Z":
				newZ = val
			case "I":
				arcI = val
			case "J":
				arcJ = val
			case "F":
				newFeed = val
			}
		}

		commands = append(commands, Command{
			Kind: kind,
			X:    newX,
			Y:    newY,
			Z:    newZ,
			I:    arcI,
			J:    arcJ,
			Feed: newFeed,
		})

		curX, curY, curZ, curFeed = newX, newY, newZ, newFeed
	}

	return commands
}

// commandKind maps the leading word of an uppercased block to a motion
// kind. The second result is false for non-motion blocks.
func commandKind(upper string) (CommandKind, bool) {
	word := upper
	if idx := strings.IndexByte(upper, ' '); idx >= 0 {
		word = upper[:idx]
	}

	switch word {
	case "G0", "G00":
		return KindRapid, true
	case "G1", "G01":
		return KindLinear, true
	case "G2", "G02":
		return KindArcCW, true
	case "G3", "G03":
		return KindArcCCW, true
	case "L":
		// Heidenhain conversational move; FMAX marks a rapid.
		if strings.Contains(upper, "FMAX") {
			return KindRapid, true
		}
		return KindLinear, true
	default:
		return KindRapid, false
	}
}
