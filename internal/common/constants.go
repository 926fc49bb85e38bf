package common

import "time"

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvEnvFile        = "ENV_FILE"
	EnvListenAddr     = "LISTEN_ADDR"
	EnvMetricsPort    = "METRICS_PORT"
	EnvModelPath      = "MODEL_PATH"
	EnvModelMetadata  = "MODEL_METADATA_PATH"
	EnvScalerPath     = "SCALER_PATH"
	EnvONNXLibrary    = "ONNXRUNTIME_LIB"
	EnvStrictLabels   = "STRICT_LABELS"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
)

// Configuration defaults
const (
	DefaultEnvFile        = ".env"
	DefaultListenAddr     = ":8501"
	DefaultMetricsPort    = 9090
	DefaultModelPath      = "models/pass_model.json"
	DefaultScalerPath     = "models/scaler_model.json"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultRequestTimeout = 5 * time.Second
)

// Classifier labels
const (
	LabelPass = "Pass"
	LabelFail = "Fail"
)

// Page text
const (
	PageTitle       = "Quality Prediction"
	PageHeading     = "Machine Quality Prediction System"
	ResultHeading   = "Prediction Result"
	EnteredHeading  = "Entered Input Values"
	ResultPrefix    = "Predicted Quality: "
	ErrorPrefix     = "Error: "
	PageDescription = "This app predicts whether a machine's product will Pass or Fail based on five input features. The input data is scaled before being fed into the trained ML model."
)

// Validation constants
const (
	MinMetricsPort    = 1024
	MaxMetricsPort    = 65535
	MinRequestTimeout = 100 * time.Millisecond
	MaxRequestTimeout = time.Minute
)
