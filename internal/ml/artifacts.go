package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quality-predictor/internal/features"

	"github.com/rs/zerolog/log"
)

// ArtifactConfig locates the two artifacts on disk.
type ArtifactConfig struct {
	ScalerPath string
	ModelPath  string
	// ModelMetadataPath is required for ONNX models. Empty means the model
	// path with its extension replaced by ".json".
	ModelMetadataPath string
	ONNXLibraryPath   string
}

// ArtifactInfo describes what was loaded, for health reporting.
type ArtifactInfo struct {
	ScalerPath   string    `json:"scaler_path"`
	ModelPath    string    `json:"model_path"`
	ModelFormat  string    `json:"model_format"`
	ModelCreated time.Time `json:"model_created"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// Artifacts is the process-wide, read-only prediction context. It is built
// once at startup, shared by every request, and released with Close at
// shutdown.
type Artifacts struct {
	scaler     Scaler
	classifier Classifier
	info       ArtifactInfo
}

// NewArtifacts wraps already constructed artifacts.
func NewArtifacts(scaler Scaler, classifier Classifier) (*Artifacts, error) {
	if scaler == nil || classifier == nil {
		return nil, errors.New("scaler and classifier are required")
	}
	return &Artifacts{
		scaler:     scaler,
		classifier: classifier,
		info:       ArtifactInfo{ModelFormat: "custom", LoadedAt: time.Now()},
	}, nil
}

// LoadArtifacts reads the scaler and classifier named by cfg. The model
// format is chosen by extension: ".onnx" runs through onnxruntime,
// anything else is read as a JSON logistic regression export.
func LoadArtifacts(cfg ArtifactConfig) (*Artifacts, error) {
	names := features.Names()

	scaler, err := LoadScaler(cfg.ScalerPath, names)
	if err != nil {
		return nil, &ArtifactError{Stage: StageLoad, Path: cfg.ScalerPath, Err: err}
	}

	var (
		classifier Classifier
		format     string
	)
	switch strings.ToLower(filepath.Ext(cfg.ModelPath)) {
	case ".onnx":
		metaPath := cfg.ModelMetadataPath
		if metaPath == "" {
			metaPath = strings.TrimSuffix(cfg.ModelPath, filepath.Ext(cfg.ModelPath)) + ".json"
		}
		classifier, err = LoadONNX(cfg.ModelPath, metaPath, cfg.ONNXLibraryPath, names)
		format = "onnx"
	default:
		classifier, err = LoadLogistic(cfg.ModelPath, names)
		format = "logistic"
	}
	if err != nil {
		return nil, &ArtifactError{Stage: StageLoad, Path: cfg.ModelPath, Err: err}
	}

	info := ArtifactInfo{
		ScalerPath:  cfg.ScalerPath,
		ModelPath:   cfg.ModelPath,
		ModelFormat: format,
		LoadedAt:    time.Now(),
	}
	if st, err := os.Stat(cfg.ModelPath); err == nil {
		info.ModelCreated = st.ModTime()
	} else {
		log.Warn().Err(err).Str("model_path", cfg.ModelPath).Msg("Failed to get model file info")
	}

	log.Info().
		Str("scaler_path", cfg.ScalerPath).
		Str("model_path", cfg.ModelPath).
		Str("model_format", format).
		Msg("artifacts loaded")

	return &Artifacts{scaler: scaler, classifier: classifier, info: info}, nil
}

func (a *Artifacts) Scaler() Scaler {
	return a.scaler
}

func (a *Artifacts) Classifier() Classifier {
	return a.classifier
}

func (a *Artifacts) Info() ArtifactInfo {
	return a.info
}

// ModelAge returns how long ago the model file was written, or zero if
// unknown.
func (a *Artifacts) ModelAge() time.Duration {
	if a.info.ModelCreated.IsZero() {
		return 0
	}
	return time.Since(a.info.ModelCreated)
}

// Close releases native resources held by either artifact.
func (a *Artifacts) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if c, ok := a.classifier.(Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close classifier: %w", err))
		}
	}
	if c, ok := a.scaler.(Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close scaler: %w", err))
		}
	}
	return errors.Join(errs...)
}
