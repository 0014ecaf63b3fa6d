package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/piwi3910/cnc-toolpath/internal/units"
)

// Tool is one cutter from the shop tool library.
type Tool struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	DiameterMM float64 `json:"diameter_mm"`
	Notes      string  `json:"notes,omitempty"`
}

// Valid reports whether the entry is complete enough to machine with.
func (t Tool) Valid() bool {
	return strings.TrimSpace(t.ID) != "" && strings.TrimSpace(t.Name) != "" && t.DiameterMM > 0
}

// RecommendedStepOver returns the conventional 40% of diameter step-over.
func (t Tool) RecommendedStepOver() float64 {
	return t.DiameterMM * 0.4
}

// RecommendedMaxDepth returns the conventional 50% of diameter depth per pass.
func (t Tool) RecommendedMaxDepth() float64 {
	return t.DiameterMM * 0.5
}

// DisplayLabel renders the tool name with its diameter in the given unit
// system, e.g. `6mm Flat ("0.236 in")` style labels for pickers.
func (t Tool) DisplayLabel(sys units.System) string {
	if t.DiameterMM <= 0 {
		return t.Name
	}
	decimals := 2
	if sys == units.Inches {
		decimals = 3
	}
	return fmt.Sprintf("%s (%s)", t.Name, units.FormatLength(t.DiameterMM, sys, decimals))
}

// ToolLibrary holds the parsed shop tool list.
type ToolLibrary struct {
	tools []Tool
}

// toolLibraryFile is the on-disk JSON shape.
type toolLibraryFile struct {
	Tools []json.RawMessage `json:"tools"`
}

// LoadJSON parses a tool library document. Invalid entries are skipped
// and reported through the returned warnings; the call fails only when
// no valid tool survives.
func (l *ToolLibrary) LoadJSON(data []byte) ([]string, error) {
	var warnings []string
	l.tools = nil

	if len(data) == 0 {
		return warnings, fmt.Errorf("tool library JSON is empty")
	}

	var file toolLibraryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return warnings, fmt.Errorf("failed to parse tool library: %w", err)
	}
	if len(file.Tools) == 0 {
		return warnings, fmt.Errorf("tool library contains no tools")
	}

	for _, raw := range file.Tools {
		var tool Tool
		if err := json.Unmarshal(raw, &tool); err != nil {
			warnings = append(warnings, "skipping malformed tool entry (expected object)")
			continue
		}
		if !tool.Valid() {
			label := tool.Name
			if label == "" {
				label = tool.ID
			}
			warnings = append(warnings, fmt.Sprintf("skipping invalid tool entry: %q", label))
			continue
		}
		l.tools = append(l.tools, tool)
	}

	if len(l.tools) == 0 {
		return warnings, fmt.Errorf("no valid tools were loaded")
	}
	return warnings, nil
}

// Tools returns the loaded tools in file order.
func (l *ToolLibrary) Tools() []Tool {
	return l.tools
}

// Count returns the number of loaded tools.
func (l *ToolLibrary) Count() int {
	return len(l.tools)
}

// Add appends a valid tool to the library.
func (l *ToolLibrary) Add(tool Tool) error {
	if !tool.Valid() {
		return fmt.Errorf("tool %q is not valid", tool.Name)
	}
	l.tools = append(l.tools, tool)
	return nil
}

// ToolByID looks a tool up by case-insensitive id.
func (l *ToolLibrary) ToolByID(id string) (Tool, bool) {
	for _, tool := range l.tools {
		if strings.EqualFold(tool.ID, id) {
			return tool, true
		}
	}
	return Tool{}, false
}

// IndexOf returns the position of the tool with the given id, or -1.
func (l *ToolLibrary) IndexOf(id string) int {
	for i, tool := range l.tools {
		if strings.EqualFold(tool.ID, id) {
			return i
		}
	}
	return -1
}

// MarshalJSON writes the library in its on-disk shape.
func (l ToolLibrary) MarshalJSON() ([]byte, error) {
	out := struct {
		Tools []Tool `json:"tools"`
	}{Tools: l.tools}
	if out.Tools == nil {
		out.Tools = []Tool{}
	}
	return json.Marshal(out)
}
