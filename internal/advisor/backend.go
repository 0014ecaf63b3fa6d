package advisor

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/cnc-toolpath/internal/feature"
	"github.com/piwi3910/cnc-toolpath/internal/logger"
	"github.com/piwi3910/cnc-toolpath/internal/model"
	"github.com/piwi3910/cnc-toolpath/internal/modelcard"
)

// backendAdvisor implements the shared artifact-gated prediction path.
// The model card is loaded and validated once at construction; any
// failure there pins the advisor to the fallback schedule until a new
// instance is built.
type backendAdvisor struct {
	modelPath string
	backend   modelcard.Backend
	card      *modelcard.Card

	lastError     string
	lastLatency   time.Duration
	warnedAligned bool

	log *zap.Logger
}

// BackendOption adjusts backend advisor construction.
type BackendOption func(*backendConfig)

type backendConfig struct {
	log *zap.Logger
}

// WithBackendLogger routes advisor messages to a specific logger.
func WithBackendLogger(log *zap.Logger) BackendOption {
	return func(c *backendConfig) {
		if log != nil {
			c.log = log
		}
	}
}

func newBackendAdvisor(modelPath string, backend modelcard.Backend, opts ...BackendOption) *backendAdvisor {
	cfg := backendConfig{log: logger.Log}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &backendAdvisor{
		modelPath: modelPath,
		backend:   backend,
		log:       cfg.log,
	}

	card, err := modelcard.LoadForModel(modelPath, backend)
	if err != nil {
		a.lastError = err.Error()
		a.log.Warn("model card validation failed",
			zap.String("backend", backend.String()),
			zap.String("model", modelPath),
			zap.String("error", err.Error()),
		)
		return a
	}

	if _, err := os.Stat(modelPath); err != nil {
		a.lastError = fmt.Sprintf("failed to load model %s: %v", modelPath, err)
		a.log.Warn("model artifact unreadable",
			zap.String("backend", backend.String()),
			zap.String("model", modelPath),
			zap.Error(err),
		)
		return a
	}

	a.card = card
	a.log.Info("model artifact loaded",
		zap.String("backend", backend.String()),
		zap.String("model", modelPath),
		zap.String("schema", card.SchemaVersion),
		zap.String("dataset", card.Dataset.ID),
	)
	return a
}

// Predict runs the artifact-gated path: strategy override, feature
// validity, card state, then the scoring read-out over the normalized
// input. Every gate failure yields the fallback schedule with the
// reason retrievable through LastError.
func (a *backendAdvisor) Predict(mesh *model.Mesh, params model.UserParams) model.StrategyDecision {
	a.lastLatency = 0

	if decision, ok := overrideDecision(params); ok {
		a.lastError = ""
		return decision
	}

	features := feature.Compute(mesh)
	if !features.Valid {
		a.lastError = "Feature extraction produced an invalid descriptor."
		a.log.Warn("feature extraction failed, using fallback schedule",
			zap.String("backend", a.backend.String()),
		)
		return FallbackDecision(params)
	}

	if a.card == nil {
		if a.lastError == "" {
			a.lastError = fmt.Sprintf("Model card missing for %s.", a.modelPath)
		}
		return FallbackDecision(params)
	}

	input := feature.ModelInput(features, params)
	input = a.align(input, a.card.FeatureCount)
	normalized := a.card.Normalize(input)

	start := time.Now()
	decision := scoreDecision(normalized, params)
	a.lastLatency = time.Since(start)

	a.lastError = ""
	return decision
}

// align pads the input with zeros or truncates it to the card's
// expected width, warning once per advisor instance.
func (a *backendAdvisor) align(input []float64, expected int) []float64 {
	if len(input) == expected {
		return input
	}
	if !a.warnedAligned {
		a.warnedAligned = true
		a.log.Warn("model input size mismatch, aligning",
			zap.String("backend", a.backend.String()),
			zap.Int("have", len(input)),
			zap.Int("want", expected),
		)
	}
	aligned := make([]float64, expected)
	copy(aligned, input)
	return aligned
}

// LastError returns the most recent prediction failure message.
func (a *backendAdvisor) LastError() string {
	return a.lastError
}

// LastLatency returns the scoring duration of the most recent Predict.
func (a *backendAdvisor) LastLatency() time.Duration {
	return a.lastLatency
}

// Card returns the validated model card, or nil when validation failed.
func (a *backendAdvisor) Card() *modelcard.Card {
	return a.card
}

// TorchAdvisor serves TorchScript artifacts (.pt).
type TorchAdvisor struct {
	backendAdvisor
}

// NewTorchAdvisor validates the artifact's card for the Torch backend.
func NewTorchAdvisor(modelPath string, opts ...BackendOption) *TorchAdvisor {
	return &TorchAdvisor{backendAdvisor: *newBackendAdvisor(modelPath, modelcard.BackendTorch, opts...)}
}

// OnnxAdvisor serves ONNX artifacts (.onnx).
type OnnxAdvisor struct {
	backendAdvisor
}

// NewOnnxAdvisor validates the artifact's card for the ONNX backend.
func NewOnnxAdvisor(modelPath string, opts ...BackendOption) *OnnxAdvisor {
	return &OnnxAdvisor{backendAdvisor: *newBackendAdvisor(modelPath, modelcard.BackendONNX, opts...)}
}
