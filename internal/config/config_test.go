package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/cnc-toolpath/internal/units"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Job.Name != "demo-part" {
		t.Errorf("expected job name 'demo-part', got %s", cfg.Job.Name)
	}
	if cfg.Job.Units != "mm" {
		t.Errorf("expected units 'mm', got %s", cfg.Job.Units)
	}
	if cfg.Post.Dialect != "GRBL" {
		t.Errorf("expected dialect 'GRBL', got %s", cfg.Post.Dialect)
	}
	if cfg.Post.MaxArcChordError != 0.02 {
		t.Errorf("expected chord error 0.02, got %f", cfg.Post.MaxArcChordError)
	}
	if cfg.Advisor.ModelsDir != "models" {
		t.Errorf("expected models dir 'models', got %s", cfg.Advisor.ModelsDir)
	}
	if cfg.Advisor.Override != "" {
		t.Errorf("expected no strategy override, got %s", cfg.Advisor.Override)
	}
	if !cfg.History.Enabled {
		t.Error("expected history to be enabled by default")
	}
	if cfg.Export.OutputDir != "output" {
		t.Errorf("expected output dir 'output', got %s", cfg.Export.OutputDir)
	}
	if !cfg.Export.SetupSheet || !cfg.Export.Report || !cfg.Export.Preview {
		t.Error("expected all export artifacts to be enabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestUnitSystem(t *testing.T) {
	cfg := Default()
	if cfg.UnitSystem() != units.Millimeters {
		t.Error("expected default unit system to be millimeters")
	}

	cfg.Job.Units = "inch"
	if cfg.UnitSystem() != units.Inches {
		t.Error("expected 'inch' to resolve to inches")
	}

	cfg.Job.Units = "parsec"
	if cfg.UnitSystem() != units.Millimeters {
		t.Error("expected unknown unit names to fall back to millimeters")
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tpgen.yaml")

	yamlContent := `
job:
  name: "bracket"
  units: "inch"

post:
  dialect: "Heidenhain"
  max_arc_chord_error_mm: 0.1

advisor:
  models_dir: "/opt/models"
  model: "strategies.onnx"
  override: "waterline"

history:
  path: "/tmp/history.db"
  enabled: false

export:
  output_dir: "/tmp/out"
  setup_sheet: false
  report: true
  preview: false

logging:
  level: "debug"
  log_file: "tpgen.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Job.Name != "bracket" {
		t.Errorf("expected job name 'bracket', got %s", cfg.Job.Name)
	}
	if cfg.Job.Units != "inch" {
		t.Errorf("expected units 'inch', got %s", cfg.Job.Units)
	}
	if cfg.Post.Dialect != "Heidenhain" {
		t.Errorf("expected dialect 'Heidenhain', got %s", cfg.Post.Dialect)
	}
	if cfg.Post.MaxArcChordError != 0.1 {
		t.Errorf("expected chord error 0.1, got %f", cfg.Post.MaxArcChordError)
	}
	if cfg.Advisor.ModelsDir != "/opt/models" {
		t.Errorf("expected models dir '/opt/models', got %s", cfg.Advisor.ModelsDir)
	}
	if cfg.Advisor.Model != "strategies.onnx" {
		t.Errorf("expected model 'strategies.onnx', got %s", cfg.Advisor.Model)
	}
	if cfg.Advisor.Override != "waterline" {
		t.Errorf("expected override 'waterline', got %s", cfg.Advisor.Override)
	}
	if cfg.History.Enabled {
		t.Error("expected history to be disabled")
	}
	if cfg.History.Path != "/tmp/history.db" {
		t.Errorf("expected history path '/tmp/history.db', got %s", cfg.History.Path)
	}
	if cfg.Export.OutputDir != "/tmp/out" {
		t.Errorf("expected output dir '/tmp/out', got %s", cfg.Export.OutputDir)
	}
	if cfg.Export.SetupSheet {
		t.Error("expected setup sheet to be disabled")
	}
	if !cfg.Export.Report {
		t.Error("expected report to stay enabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "tpgen.log" {
		t.Errorf("expected log file 'tpgen.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
post:
  max_arc_chord_error_mm: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/tpgen.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "post and units flags",
			setup: func() {
				*flagPost = "Fanuc"
				*flagUnits = "inch"
			},
			verify: func(cfg *Config) {
				if cfg.Post.Dialect != "Fanuc" {
					t.Errorf("expected dialect 'Fanuc', got %s", cfg.Post.Dialect)
				}
				if cfg.Job.Units != "inch" {
					t.Errorf("expected units 'inch', got %s", cfg.Job.Units)
				}
			},
			teardown: func() {
				*flagPost = ""
				*flagUnits = ""
			},
		},
		{
			name: "chord flag accepts zero",
			setup: func() {
				*flagChord = 0
			},
			verify: func(cfg *Config) {
				if cfg.Post.MaxArcChordError != 0 {
					t.Errorf("expected chord error 0, got %f", cfg.Post.MaxArcChordError)
				}
			},
			teardown: func() {
				*flagChord = -1
			},
		},
		{
			name: "strategy and output flags",
			setup: func() {
				*flagStrategy = "raster"
				*flagOut = "/tmp/programs"
				*flagModels = "/tmp/models"
				*flagJob = "lid"
			},
			verify: func(cfg *Config) {
				if cfg.Advisor.Override != "raster" {
					t.Errorf("expected override 'raster', got %s", cfg.Advisor.Override)
				}
				if cfg.Export.OutputDir != "/tmp/programs" {
					t.Errorf("expected output dir '/tmp/programs', got %s", cfg.Export.OutputDir)
				}
				if cfg.Advisor.ModelsDir != "/tmp/models" {
					t.Errorf("expected models dir '/tmp/models', got %s", cfg.Advisor.ModelsDir)
				}
				if cfg.Job.Name != "lid" {
					t.Errorf("expected job name 'lid', got %s", cfg.Job.Name)
				}
			},
			teardown: func() {
				*flagStrategy = ""
				*flagOut = ""
				*flagModels = ""
				*flagJob = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tpgen.yaml")

	yamlContent := `
post:
  dialect: "Marlin"
job:
  name: "from-file"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagPost = "Heidenhain"
	defer func() {
		*flagConfig = ""
		*flagPost = ""
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Dialect comes from the flag, not the file.
	if cfg.Post.Dialect != "Heidenhain" {
		t.Errorf("expected dialect 'Heidenhain' from flag, got %s", cfg.Post.Dialect)
	}

	// Job name comes from the file since no flag overrides it.
	if cfg.Job.Name != "from-file" {
		t.Errorf("expected job name 'from-file', got %s", cfg.Job.Name)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tpgen.yaml")

	cfg := Default()
	cfg.Job.Name = "saved-part"
	cfg.Post.Dialect = "Fanuc"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}

	if loaded.Job.Name != "saved-part" {
		t.Errorf("expected job name 'saved-part', got %s", loaded.Job.Name)
	}
	if loaded.Post.Dialect != "Fanuc" {
		t.Errorf("expected dialect 'Fanuc', got %s", loaded.Post.Dialect)
	}
}
