// Package importer reads shop tool lists from CSV, Excel, and JSON
// files. It supports automatic delimiter detection, flexible column
// mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/cnc-toolpath/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Tools    []model.Tool
	Errors   []string
	Warnings []string
}

// Library bundles the imported tools into a ToolLibrary.
func (r ImportResult) Library() *model.ToolLibrary {
	lib := &model.ToolLibrary{}
	for _, tool := range r.Tools {
		if err := lib.Add(tool); err != nil {
			continue
		}
	}
	return lib
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	ID       int
	Name     int
	Type     int
	Diameter int
	Notes    int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":       {"id", "tool id", "tool #", "number", "no", "code"},
	"name":     {"name", "tool", "tool name", "label", "description", "desc"},
	"type":     {"type", "tool type", "style", "cutter", "cutter type", "geometry"},
	"diameter": {"diameter", "dia", "d", "diameter (mm)", "diameter mm", "size"},
	"notes":    {"notes", "note", "comment", "comments", "remarks"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1 // Allow variable field counts

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		// Score: count how many rows have the same column count as the first row
		// Only consider delimiters that produce more than 1 column
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a default positional
// mapping and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{
		ID:       -1,
		Name:     -1,
		Type:     -1,
		Diameter: -1,
		Notes:    -1,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					isHeader = true
					switch role {
					case "id":
						if mapping.ID == -1 {
							mapping.ID = i
						}
					case "name":
						if mapping.Name == -1 {
							mapping.Name = i
						}
					case "type":
						if mapping.Type == -1 {
							mapping.Type = i
						}
					case "diameter":
						if mapping.Diameter == -1 {
							mapping.Diameter = i
						}
					case "notes":
						if mapping.Notes == -1 {
							mapping.Notes = i
						}
					}
				}
			}
		}
	}

	if !isHeader {
		// Fall back to positional mapping: Name, Diameter, Type, Notes
		return ColumnMapping{
			ID:       -1,
			Name:     0,
			Diameter: 1,
			Type:     2,
			Notes:    3,
		}, false
	}

	return mapping, true
}

// parseToolType normalizes a cutter geometry string. It returns the
// canonical name and a boolean indicating whether the string was recognized.
func parseToolType(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "flat end", "flatend", "endmill", "end mill", "square":
		return "flat", true
	case "ball", "ballnose", "ball nose", "ball-nose":
		return "ball", true
	case "vee", "v", "v-bit", "vbit", "engraver":
		return "vee", true
	case "":
		return "flat", true
	default:
		return "flat", false
	}
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseToolRow extracts a Tool from a row using the given column mapping.
// Returns the tool, any error message, and any warning message.
func parseToolRow(row []string, mapping ColumnMapping, rowLabel string, toolCount int) (model.Tool, string, string) {
	name := getCell(row, mapping.Name)
	if name == "" {
		name = fmt.Sprintf("Tool %d", toolCount+1)
	}

	diaStr := getCell(row, mapping.Diameter)
	if diaStr == "" {
		return model.Tool{}, fmt.Sprintf("%s: Missing diameter value", rowLabel), ""
	}
	diameter, err := strconv.ParseFloat(diaStr, 64)
	if err != nil {
		return model.Tool{}, fmt.Sprintf("%s: Invalid diameter '%s'", rowLabel, diaStr), ""
	}
	if diameter <= 0 {
		return model.Tool{}, fmt.Sprintf("%s: Diameter must be positive", rowLabel), ""
	}

	id := getCell(row, mapping.ID)
	if id == "" {
		id = uuid.New().String()[:8]
	}

	tool := model.Tool{
		ID:         id,
		Name:       name,
		DiameterMM: diameter,
		Notes:      getCell(row, mapping.Notes),
	}

	// Optional cutter geometry
	var warning string
	toolType, ok := parseToolType(getCell(row, mapping.Type))
	tool.Type = toolType
	if !ok {
		warning = fmt.Sprintf("%s: Unknown tool type '%s', defaulting to flat", rowLabel, getCell(row, mapping.Type))
	}

	return tool, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports tools from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	result = importFromRows(records, "Line", result.Warnings)
	return result
}

// ImportCSVFromReader imports tools from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports tools from an Excel (.xlsx, .xls) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// ImportJSON imports tools from a tool library JSON document
// ({"tools": [...]}). Entries skipped by the library loader surface as
// warnings.
func ImportJSON(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	var lib model.ToolLibrary
	warnings, err := lib.LoadJSON(data)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read tool library: %v", err))
		return result
	}

	result.Tools = lib.Tools()
	return result
}

// ImportFile imports tools from path, picking the format by extension.
func ImportFile(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ImportCSV(path)
	case ".xlsx", ".xls":
		return ImportExcel(path)
	case ".json":
		return ImportJSON(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported tool list format '%s'", filepath.Ext(path))}}
	}
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into tools.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	// Detect columns from first row
	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		// Validate that required columns were found
		if mapping.Diameter == -1 {
			result.Errors = append(result.Errors, "Required column not found in header: Diameter")
			return result
		}
	} else {
		// No header: check if first row is numeric (positional mapping)
		if len(rows[0]) >= 2 {
			if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
				// First column after name is not numeric - might be an unrecognized header
				// Skip it as a header but use positional mapping
				startRow = 1
				result.Warnings = append(result.Warnings, "Detected header row, skipping")
			}
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		tool, errMsg, warning := parseToolRow(row, mapping, rowLabel, len(result.Tools))

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.Tools = append(result.Tools, tool)
	}

	return result
}
