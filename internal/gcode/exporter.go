package gcode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/piwi3910/cnc-toolpath/internal/logger"
)

// SuggestedFileName builds a file name for a job exported through the
// given post, replacing characters that are unsafe in file names.
func SuggestedFileName(p Post, jobName string) string {
	return SafeBaseName(jobName) + "_" + strings.ToLower(p.Name()) + p.FileExtension()
}

// SafeBaseName reduces a job name to characters that are safe in file
// names, falling back to "toolpath" for blank names.
func SafeBaseName(jobName string) string {
	name := strings.TrimSpace(jobName)
	if name == "" {
		name = "toolpath"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// WriteProgram writes a generated program to path, creating parent
// directories as needed. An existing file at the path is replaced.
func WriteProgram(path, program string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(program), 0644); err != nil {
		return fmt.Errorf("failed to write G-code file %s: %w", path, err)
	}

	logger.Log.Info("g-code written",
		zap.String("path", path),
		zap.Int("bytes", len(program)))
	return nil
}
