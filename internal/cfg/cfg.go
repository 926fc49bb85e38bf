package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"quality-predictor/internal/common"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenAddr        string
	MetricsPort       int
	RequestTimeout    time.Duration
	ModelPath         string
	ModelMetadataPath string
	ScalerPath        string
	ONNXLibrary       string
	StrictLabels      bool
	LogLevel          string
	LogFormat         string
}

type ConfigFile struct {
	Server struct {
		ListenAddr     string `yaml:"listenAddr"`
		MetricsPort    int    `yaml:"metricsPort"`
		RequestTimeout string `yaml:"requestTimeout"`
	} `yaml:"server"`

	ML struct {
		ModelPath         string `yaml:"modelPath"`
		ModelMetadataPath string `yaml:"modelMetadataPath"`
		ScalerPath        string `yaml:"scalerPath"`
		ONNXLibrary       string `yaml:"onnxLibrary"`
		StrictLabels      bool   `yaml:"strictLabels"`
	} `yaml:"ml"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func Load() (Settings, error) {
	if err := loadEnvFile(getEnvOrDefault(common.EnvEnvFile, common.DefaultEnvFile)); err != nil {
		return Settings{}, err
	}

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

// loadEnvFile exports the variables in path without overriding ones that
// are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	requestTimeout, err := time.ParseDuration(config.Server.RequestTimeout)
	if err != nil {
		requestTimeout = common.DefaultRequestTimeout
	}

	// Override with environment variables if they exist
	settings := Settings{
		ListenAddr:        getEnvOrDefault(common.EnvListenAddr, orDefault(config.Server.ListenAddr, common.DefaultListenAddr)),
		MetricsPort:       getIntFromEnvOrConfig(common.EnvMetricsPort, config.Server.MetricsPort, common.DefaultMetricsPort),
		RequestTimeout:    getDurationOrDefault(common.EnvRequestTimeout, requestTimeout),
		ModelPath:         getEnvOrDefault(common.EnvModelPath, orDefault(config.ML.ModelPath, common.DefaultModelPath)),
		ModelMetadataPath: getEnvOrDefault(common.EnvModelMetadata, config.ML.ModelMetadataPath),
		ScalerPath:        getEnvOrDefault(common.EnvScalerPath, orDefault(config.ML.ScalerPath, common.DefaultScalerPath)),
		ONNXLibrary:       getEnvOrDefault(common.EnvONNXLibrary, config.ML.ONNXLibrary),
		StrictLabels:      getBoolFromEnvOrConfig(common.EnvStrictLabels, config.ML.StrictLabels),
		LogLevel:          getEnvOrDefault(common.EnvLogLevel, orDefault(config.Log.Level, common.DefaultLogLevel)),
		LogFormat:         getEnvOrDefault(common.EnvLogFormat, orDefault(config.Log.Format, common.DefaultLogFormat)),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ListenAddr:        getEnvOrDefault(common.EnvListenAddr, common.DefaultListenAddr),
		MetricsPort:       getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		RequestTimeout:    getDurationOrDefault(common.EnvRequestTimeout, common.DefaultRequestTimeout),
		ModelPath:         getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		ModelMetadataPath: os.Getenv(common.EnvModelMetadata), // optional
		ScalerPath:        getEnvOrDefault(common.EnvScalerPath, common.DefaultScalerPath),
		ONNXLibrary:       os.Getenv(common.EnvONNXLibrary), // optional
		StrictLabels:      getBoolOrDefault(common.EnvStrictLabels, false),
		LogLevel:          getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:         getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

var validLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if !strings.Contains(settings.ListenAddr, ":") {
		return fmt.Errorf("listen address must be host:port or :port, got %q", settings.ListenAddr)
	}

	if settings.MetricsPort < common.MinMetricsPort || settings.MetricsPort > common.MaxMetricsPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d",
			common.MinMetricsPort, common.MaxMetricsPort, settings.MetricsPort)
	}

	if settings.RequestTimeout < common.MinRequestTimeout || settings.RequestTimeout > common.MaxRequestTimeout {
		return fmt.Errorf("request timeout must be between %v and %v, got %v",
			common.MinRequestTimeout, common.MaxRequestTimeout, settings.RequestTimeout)
	}

	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if settings.ScalerPath == "" {
		return fmt.Errorf("scaler path cannot be empty")
	}

	level := strings.ToLower(settings.LogLevel)
	valid := false
	for _, l := range validLogLevels {
		if l == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("log level must be one of %s, got %q", strings.Join(validLogLevels, ", "), settings.LogLevel)
	}
	settings.LogLevel = level

	switch settings.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", settings.LogFormat)
	}

	return nil
}
