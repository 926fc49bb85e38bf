package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXMetadata is the sidecar file describing an ONNX classifier export.
// The model must be exported without a zipmap so the probability output is
// a plain float tensor of shape [1, len(Classes)].
type ONNXMetadata struct {
	InputName    string   `json:"input_name"`
	OutputName   string   `json:"output_name"`
	Classes      []string `json:"classes"`
	FeatureNames []string `json:"feature_names,omitempty"`
	NumFeatures  int64    `json:"num_features"`
}

var (
	ortMu    sync.Mutex
	ortUsers int
)

func acquireEnvironment(libPath string) error {
	ortMu.Lock()
	defer ortMu.Unlock()

	if ortUsers == 0 {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	ortUsers++
	return nil
}

func releaseEnvironment() {
	ortMu.Lock()
	defer ortMu.Unlock()

	ortUsers--
	if ortUsers == 0 {
		ort.DestroyEnvironment()
	}
}

// ONNXClassifier runs an ONNX model through onnxruntime and labels the input
// with the class of highest probability. The session binds one input and one
// output tensor, so calls are serialized.
type ONNXClassifier struct {
	mu       sync.Mutex
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
	metadata ONNXMetadata
}

// LoadONNX opens modelPath with the metadata at metadataPath. libPath points
// at the onnxruntime shared library; empty uses the binding's default.
func LoadONNX(modelPath, metadataPath, libPath string, wantNames []string) (*ONNXClassifier, error) {
	metadata, err := loadONNXMetadata(metadataPath)
	if err != nil {
		return nil, err
	}
	if err := checkFeatureNames(metadata.FeatureNames, wantNames); err != nil {
		return nil, err
	}
	if len(wantNames) > 0 && metadata.NumFeatures != int64(len(wantNames)) {
		return nil, fmt.Errorf("model expects %d features, form provides %d", metadata.NumFeatures, len(wantNames))
	}

	if err := acquireEnvironment(libPath); err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, metadata.NumFeatures))
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(metadata.Classes))))
	if err != nil {
		input.Destroy()
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXClassifier{
		session:  session,
		input:    input,
		output:   output,
		metadata: *metadata,
	}, nil
}

func loadONNXMetadata(path string) (*ONNXMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var m ONNXMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if m.InputName == "" {
		m.InputName = "float_input"
	}
	if m.OutputName == "" {
		m.OutputName = "probabilities"
	}
	if len(m.Classes) < 2 {
		return nil, fmt.Errorf("metadata lists %d classes, need at least 2", len(m.Classes))
	}
	if m.NumFeatures == 0 {
		m.NumFeatures = int64(len(m.FeatureNames))
	}
	if m.NumFeatures <= 0 {
		return nil, fmt.Errorf("metadata does not declare the number of features")
	}
	return &m, nil
}

func (c *ONNXClassifier) Predict(x []float64) (string, error) {
	if int64(len(x)) != c.metadata.NumFeatures {
		return "", fmt.Errorf("model expects %d features, got %d", c.metadata.NumFeatures, len(x))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	in := c.input.GetData()
	for i, v := range x {
		in[i] = float32(v)
	}

	if err := c.session.Run(); err != nil {
		return "", fmt.Errorf("inference failed: %w", err)
	}

	idx, err := argmax(c.output.GetData())
	if err != nil {
		return "", err
	}
	return c.metadata.Classes[idx], nil
}

// Metadata returns the sidecar description of the model.
func (c *ONNXClassifier) Metadata() ONNXMetadata {
	return c.metadata
}

func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	c.input.Destroy()
	c.output.Destroy()
	err := c.session.Destroy()
	c.session = nil
	releaseEnvironment()
	return err
}

func argmax(probs []float32) (int, error) {
	if len(probs) == 0 {
		return 0, fmt.Errorf("empty model output")
	}
	maxIdx := 0
	maxVal := probs[0]
	for i, v := range probs {
		if v != v {
			return 0, fmt.Errorf("model output %d is NaN", i)
		}
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
	}
	return maxIdx, nil
}
