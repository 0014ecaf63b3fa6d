// Package config handles application configuration loading and management.
package config

import (
	"path/filepath"

	"github.com/piwi3910/cnc-toolpath/internal/units"
)

// Config holds all toolpath generator settings.
type Config struct {
	Job     JobConfig     `yaml:"job"`
	Post    PostConfig    `yaml:"post"`
	Advisor AdvisorConfig `yaml:"advisor"`
	History HistoryConfig `yaml:"history"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// JobConfig holds per-job naming and display settings.
type JobConfig struct {
	Name  string `yaml:"name"`
	Units string `yaml:"units"` // "mm" or "inch"
}

// PostConfig selects and tunes the output dialect.
type PostConfig struct {
	Dialect          string  `yaml:"dialect"`
	MaxArcChordError float64 `yaml:"max_arc_chord_error_mm"`
}

// AdvisorConfig holds strategy advisor settings.
type AdvisorConfig struct {
	ModelsDir string `yaml:"models_dir"`
	Model     string `yaml:"model"`    // preferred model file, empty picks the first found
	Override  string `yaml:"override"` // "", "raster" or "waterline"
}

// HistoryConfig holds the advice history database location.
type HistoryConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// ExportConfig holds output locations and report toggles.
type ExportConfig struct {
	OutputDir  string `yaml:"output_dir"`
	SetupSheet bool   `yaml:"setup_sheet"`
	Report     bool   `yaml:"report"`
	Preview    bool   `yaml:"preview"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Job: JobConfig{
			Name:  "demo-part",
			Units: "mm",
		},
		Post: PostConfig{
			Dialect:          "GRBL",
			MaxArcChordError: 0.02,
		},
		Advisor: AdvisorConfig{
			ModelsDir: "models",
		},
		History: HistoryConfig{
			Path:    filepath.Join("output", "history.db"),
			Enabled: true,
		},
		Export: ExportConfig{
			OutputDir:  "output",
			SetupSheet: true,
			Report:     true,
			Preview:    true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// UnitSystem resolves the configured unit name; unknown names fall
// back to millimeters.
func (c *Config) UnitSystem() units.System {
	return units.Parse(c.Job.Units)
}
