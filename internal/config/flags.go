package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagJob      = flag.String("job", "", "Job name used in file names and reports")
	flagUnits    = flag.String("units", "", "Output units: mm or inch")
	flagPost     = flag.String("post", "", "Post dialect: GRBL, Fanuc, Marlin or Heidenhain")
	flagChord    = flag.Float64("chord", -1, "Max arc chord error in mm (0 disables arcs)")
	flagModels   = flag.String("models", "", "Strategy model directory")
	flagStrategy = flag.String("strategy", "", "Force strategy: raster or waterline")
	flagOut      = flag.String("out", "", "Output directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagJob != "" {
		cfg.Job.Name = *flagJob
	}
	if *flagUnits != "" {
		cfg.Job.Units = *flagUnits
	}
	if *flagPost != "" {
		cfg.Post.Dialect = *flagPost
	}
	if *flagChord >= 0 {
		cfg.Post.MaxArcChordError = *flagChord
	}
	if *flagModels != "" {
		cfg.Advisor.ModelsDir = *flagModels
	}
	if *flagStrategy != "" {
		cfg.Advisor.Override = *flagStrategy
	}
	if *flagOut != "" {
		cfg.Export.OutputDir = *flagOut
	}
}
