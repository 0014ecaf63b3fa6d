package advisor

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/cnc-toolpath/internal/logger"
	"github.com/piwi3910/cnc-toolpath/internal/modelcard"
)

// ModelInfo describes one discovered model artifact.
type ModelInfo struct {
	FileName  string
	Path      string
	Backend   modelcard.Backend
	Modified  time.Time
	SizeBytes int64
}

// DisplayName returns the artifact name with its backend for menus and
// reports.
func (m ModelInfo) DisplayName() string {
	base := strings.TrimSuffix(m.FileName, filepath.Ext(m.FileName))
	return base + " (" + m.Backend.String() + ")"
}

// Manager discovers model artifacts in a directory and constructs
// advisors for them. Centralizing the directory walking here keeps the
// rest of the pipeline agnostic to on-disk layout.
type Manager struct {
	modelsDir string
	models    []ModelInfo
	log       *zap.Logger
}

// NewManager scans the given directory immediately. A missing
// directory is created and yields an empty model list.
func NewManager(modelsDir string, opts ...BackendOption) *Manager {
	cfg := backendConfig{log: logger.Log}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Manager{modelsDir: modelsDir, log: cfg.log}
	m.Refresh()
	return m
}

// Refresh rescans the models directory.
func (m *Manager) Refresh() {
	m.models = nil

	entries, err := os.ReadDir(m.modelsDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(m.modelsDir, 0755); mkErr != nil {
				m.log.Warn("failed to create models directory",
					zap.String("dir", m.modelsDir), zap.Error(mkErr))
			}
			return
		}
		m.log.Warn("failed to scan models directory",
			zap.String("dir", m.modelsDir), zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		var backend modelcard.Backend
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pt":
			backend = modelcard.BackendTorch
		case ".onnx":
			backend = modelcard.BackendONNX
		default:
			continue
		}

		info := ModelInfo{
			FileName: entry.Name(),
			Path:     filepath.Join(m.modelsDir, entry.Name()),
			Backend:  backend,
		}
		if fi, err := entry.Info(); err == nil {
			info.Modified = fi.ModTime()
			info.SizeBytes = fi.Size()
		}
		m.models = append(m.models, info)
	}

	sort.Slice(m.models, func(a, b int) bool {
		return strings.ToLower(m.models[a].FileName) < strings.ToLower(m.models[b].FileName)
	})

	m.log.Info("model directory scanned",
		zap.String("dir", m.modelsDir),
		zap.Int("models", len(m.models)),
	)
}

// Models returns the discovered artifacts sorted by lowercase filename.
func (m *Manager) Models() []ModelInfo {
	return m.models
}

// AdvisorFor constructs the advisor matching the artifact's backend.
func (m *Manager) AdvisorFor(info ModelInfo, opts ...BackendOption) Advisor {
	if info.Backend == modelcard.BackendONNX {
		return NewOnnxAdvisor(info.Path, opts...)
	}
	return NewTorchAdvisor(info.Path, opts...)
}

// DefaultAdvisor returns an advisor for the first discovered artifact,
// or the heuristic advisor when the directory holds none.
func (m *Manager) DefaultAdvisor(opts ...BackendOption) Advisor {
	if len(m.models) == 0 {
		m.log.Info("no model artifacts found, using heuristic advisor",
			zap.String("dir", m.modelsDir))
		return NewHeuristicAdvisor(opts...)
	}
	return m.AdvisorFor(m.models[0], opts...)
}
