// Package modelcard loads and validates the JSON sidecar describing a
// strategy model artifact. Validation is all-or-nothing: a card that
// fails any check is rejected with a diagnostic naming the offending
// field, and callers must not trust partial data.
package modelcard

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/cnc-toolpath/internal/feature"
)

// Backend identifies the inference runtime a model artifact targets.
type Backend int

const (
	BackendTorch Backend = iota
	BackendONNX
)

// String returns the display name of the backend.
func (b Backend) String() string {
	switch b {
	case BackendTorch:
		return "Torch"
	case BackendONNX:
		return "ONNX"
	default:
		return "Unknown"
	}
}

// Normalization holds the per-slot (x-mean)/std transform parameters.
type Normalization struct {
	Mean []float64
	Std  []float64
}

// Training describes how the artifact was produced.
type Training struct {
	Framework string
	Versions  []string
}

// Dataset identifies the training dataset.
type Dataset struct {
	ID     string
	SHA256 string
}

// Card is a fully validated model sidecar.
type Card struct {
	Path          string
	SchemaVersion string
	ModelType     string
	FeatureCount  int
	FeatureNames  []string
	Normalization Normalization
	Training      Training
	Dataset       Dataset
	CreatedAt     string
}

var sha256Pattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// CandidatePaths returns the sidecar locations probed for a model file:
// the full filename plus ".model.json", then the extension-stripped
// filename plus ".model.json" when that differs.
func CandidatePaths(modelPath string) []string {
	appended := modelPath + ".model.json"
	candidates := []string{appended}

	ext := filepath.Ext(modelPath)
	if ext != "" {
		replaced := strings.TrimSuffix(modelPath, ext) + ".model.json"
		if replaced != appended {
			candidates = append(candidates, replaced)
		}
	}
	return candidates
}

// LoadForModel locates and validates the sidecar for a model artifact.
// A candidate that exists but fails validation surfaces its own error;
// there is no fallthrough to the next candidate in that case.
func LoadForModel(modelPath string, backend Backend) (*Card, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("Model path is empty.")
	}

	candidates := CandidatePaths(modelPath)
	for _, candidate := range candidates {
		card, err := LoadFromPath(candidate, backend)
		if err == nil {
			return card, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("Model card not found for %s. Expected %s.",
		modelPath, strings.Join(candidates, " or "))
}

// LoadFromPath reads and validates one sidecar file. A missing file
// reports an error satisfying errors.Is(err, os.ErrNotExist).
func LoadFromPath(cardPath string, backend Backend) (*Card, error) {
	data, err := os.ReadFile(cardPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("Unable to open model card %s: %v.", cardPath, err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("Model card %s is not valid JSON: %v.", cardPath, err)
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("Model card %s must contain a JSON object at the root.", cardPath)
	}

	schemaVersion := trimmedString(root["schema_version"])
	if schemaVersion == "" {
		return nil, fmt.Errorf("Model card %s is missing a valid schema_version string.", cardPath)
	}

	modelType := trimmedString(root["model_type"])
	if modelType == "" {
		return nil, fmt.Errorf("Model card %s is missing a valid model_type string.", cardPath)
	}
	modelTypeLower := strings.ToLower(modelType)

	featuresObj, ok := root["features"].(map[string]any)
	if !ok || len(featuresObj) == 0 {
		return nil, fmt.Errorf("Model card %s is missing the features block.", cardPath)
	}

	countValue, ok := featuresObj["count"].(float64)
	if !ok || countValue != math.Trunc(countValue) || countValue <= 0 {
		return nil, fmt.Errorf("Model card %s must specify a positive features.count.", cardPath)
	}
	featureCount := int(countValue)
	if featureCount != feature.ModelInputCount {
		return nil, fmt.Errorf("Model card %s features.count=%d does not match expected %d.",
			cardPath, featureCount, feature.ModelInputCount)
	}

	namesArray, _ := featuresObj["names"].([]any)
	if len(namesArray) != featureCount {
		return nil, fmt.Errorf("Model card %s features.names size (%d) must equal features.count (%d).",
			cardPath, len(namesArray), featureCount)
	}
	featureNames := make([]string, 0, len(namesArray))
	for i, value := range namesArray {
		name := trimmedString(value)
		if name == "" {
			return nil, fmt.Errorf("Model card %s features.names[%d] must be a non-empty string.", cardPath, i)
		}
		featureNames = append(featureNames, name)
	}

	normalizeObj, ok := featuresObj["normalize"].(map[string]any)
	if !ok || len(normalizeObj) == 0 {
		return nil, fmt.Errorf("Model card %s is missing features.normalize.", cardPath)
	}

	mean, msg := numberVector(normalizeObj["mean"], featureCount, "features.normalize.mean")
	if msg != "" {
		return nil, fmt.Errorf("Model card %s %s", cardPath, msg)
	}
	std, msg := numberVector(normalizeObj["std"], featureCount, "features.normalize.std")
	if msg != "" {
		return nil, fmt.Errorf("Model card %s %s", cardPath, msg)
	}
	for i, value := range std {
		if value <= 0 {
			return nil, fmt.Errorf("Model card %s features.normalize.std[%d] must be positive.", cardPath, i)
		}
	}

	trainingObj, ok := root["training"].(map[string]any)
	if !ok || len(trainingObj) == 0 {
		return nil, fmt.Errorf("Model card %s is missing the training block.", cardPath)
	}
	framework := trimmedString(trainingObj["framework"])
	if framework == "" {
		return nil, fmt.Errorf("Model card %s training.framework must be a non-empty string.", cardPath)
	}

	versionsArray, _ := trainingObj["versions"].([]any)
	if len(versionsArray) == 0 {
		return nil, fmt.Errorf("Model card %s training.versions must list at least one entry.", cardPath)
	}
	versions := make([]string, 0, len(versionsArray))
	for i, value := range versionsArray {
		version := trimmedString(value)
		if version == "" {
			return nil, fmt.Errorf("Model card %s training.versions[%d] must be a non-empty string.", cardPath, i)
		}
		versions = append(versions, version)
	}

	frameworkLower := strings.ToLower(framework)
	switch backend {
	case BackendTorch:
		if !strings.Contains(frameworkLower, "torch") {
			return nil, fmt.Errorf("Model card %s training.framework %q does not match Torch backend.",
				cardPath, framework)
		}
		if modelTypeLower != "torchscript" {
			return nil, fmt.Errorf("Model card %s model_type %q must be \"torchscript\" for Torch models.",
				cardPath, modelType)
		}
	default:
		if !strings.Contains(frameworkLower, "onnx") {
			return nil, fmt.Errorf("Model card %s training.framework %q does not match ONNX backend.",
				cardPath, framework)
		}
		if modelTypeLower != "onnx" {
			return nil, fmt.Errorf("Model card %s model_type %q must be \"onnx\" for ONNX models.",
				cardPath, modelType)
		}
	}

	datasetObj, ok := root["dataset"].(map[string]any)
	if !ok || len(datasetObj) == 0 {
		return nil, fmt.Errorf("Model card %s is missing the dataset block.", cardPath)
	}
	datasetID := trimmedString(datasetObj["id"])
	if datasetID == "" {
		return nil, fmt.Errorf("Model card %s dataset.id must be a non-empty string.", cardPath)
	}
	sha := trimmedString(datasetObj["sha256"])
	if !sha256Pattern.MatchString(sha) {
		return nil, fmt.Errorf("Model card %s dataset.sha256 must be a 64 character hex string.", cardPath)
	}

	createdAt := trimmedString(root["created_at"])
	if createdAt == "" {
		return nil, fmt.Errorf("Model card %s created_at must be a non-empty ISO8601 string.", cardPath)
	}

	return &Card{
		Path:          cardPath,
		SchemaVersion: schemaVersion,
		ModelType:     modelType,
		FeatureCount:  featureCount,
		FeatureNames:  featureNames,
		Normalization: Normalization{Mean: mean, Std: std},
		Training:      Training{Framework: framework, Versions: versions},
		Dataset:       Dataset{ID: datasetID, SHA256: sha},
		CreatedAt:     createdAt,
	}, nil
}

// Normalize applies the card's (x-mean)/std transform slot-wise.
// Slots beyond the stored parameters pass through unchanged.
func (c *Card) Normalize(features []float64) []float64 {
	out := make([]float64, len(features))
	for i, v := range features {
		if i < len(c.Normalization.Mean) && i < len(c.Normalization.Std) && c.Normalization.Std[i] > 0 {
			out[i] = (v - c.Normalization.Mean[i]) / c.Normalization.Std[i]
		} else {
			out[i] = v
		}
	}
	return out
}

func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// numberVector validates a normalize array: numeric entries and numeric
// strings are accepted, anything else is rejected.
func numberVector(raw any, expected int, fieldName string) ([]float64, string) {
	arr, _ := raw.([]any)
	if len(arr) != expected {
		return nil, fmt.Sprintf("%s expected %d entries but found %d.", fieldName, expected, len(arr))
	}

	values := make([]float64, 0, len(arr))
	for i, value := range arr {
		switch n := value.(type) {
		case float64:
			values = append(values, n)
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, fmt.Sprintf("%s[%d] is not a numeric value.", fieldName, i)
			}
			values = append(values, parsed)
		default:
			return nil, fmt.Sprintf("%s[%d] is not a numeric value.", fieldName, i)
		}
	}
	return values, ""
}
