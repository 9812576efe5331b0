// Package config - Application configuration for the pose commands: a JSON file, an optional
// .env file and POSE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"

	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/nvr-ai/go-pose/logger"
	"github.com/nvr-ai/go-pose/models"
	"github.com/nvr-ai/go-pose/models/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MQTT configures the worker's broker connection and topics.
type MQTT struct {
	Broker         string `json:"broker" yaml:"broker" validate:"required"`
	Username       string `json:"username" yaml:"username"`
	Password       string `json:"password" yaml:"password"`
	ClientID       string `json:"client_id" yaml:"client_id"`
	RequestTopic   string `json:"request_topic" yaml:"request_topic" validate:"required"`
	ResponsePrefix string `json:"response_prefix" yaml:"response_prefix" validate:"required"`
	QoS            byte   `json:"qos" yaml:"qos" validate:"lte=2"`
}

// AppConfig is the full configuration of a pose command.
type AppConfig struct {
	// Model names the preset the pipeline starts from.
	Model model.Name `json:"model" yaml:"model"`
	// Pipeline, when set, replaces the preset named by Model. The "pipeline" section of a config
	// file and POSE_PRESENCE_THRESHOLD are instead kept as overrides on top of the preset.
	Pipeline *model.Config `json:"-" yaml:"-"`
	// Engine selects the network backend.
	Engine inference.EngineConfig `json:"engine" yaml:"engine"`
	// Workers bounds the number of pairs processed at once.
	Workers int `json:"workers" yaml:"workers" validate:"gte=0"`
	// Log configures logging.
	Log logger.Options `json:"log" yaml:"log"`
	// MQTT configures the worker. Only required by the worker command.
	MQTT *MQTT `json:"mqtt,omitempty" yaml:"mqtt,omitempty"`

	// pipelineOverrides are partial model.Config documents applied in order by PipelineConfig.
	pipelineOverrides []jsoniter.RawMessage
}

// Default returns a configuration using the upper-body preset on the onnx engine.
func Default() AppConfig {
	return AppConfig{
		Model: model.ModelNamePoseUpperBody,
		Engine: inference.EngineConfig{
			Type: inference.EngineONNX,
			ONNX: providers.DefaultConfig("./models/pose_landmark_upper_body.onnx"),
		},
		Log: logger.Options{Level: "info"},
	}
}

// Load builds the configuration from defaults, path (if non-empty), .env and the environment,
// then validates it.
//
// Arguments:
//   - path: The JSON config file, or empty for defaults only.
//
// Returns:
//   - AppConfig: The configuration.
//   - error: An error if reading, decoding or validation fails.
func Load(path string) (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := Decode(data, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Decode unmarshals JSON data over cfg. A "pipeline" section is recorded as an override of the
// preset that Model finally resolves to.
func Decode(data []byte, cfg *AppConfig) error {
	var section struct {
		Pipeline jsoniter.RawMessage `json:"pipeline"`
	}
	if err := json.Unmarshal(data, &section); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if len(section.Pipeline) > 0 && string(section.Pipeline) != "null" {
		cfg.OverridePipeline(section.Pipeline)
	}
	return nil
}

// OverridePipeline records a partial model.Config JSON document. Overrides are applied on top of
// the resolved preset in the order they were added.
func (c *AppConfig) OverridePipeline(doc []byte) {
	overrides := make([]jsoniter.RawMessage, len(c.pipelineOverrides), len(c.pipelineOverrides)+1)
	copy(overrides, c.pipelineOverrides)
	c.pipelineOverrides = append(overrides, append(jsoniter.RawMessage(nil), doc...))
}

// ApplyEnv overrides cfg with the POSE_* variables returned by getenv.
func ApplyEnv(cfg *AppConfig, getenv func(string) string) error {
	if v := getenv("POSE_MODEL"); v != "" {
		cfg.Model = model.Name(v)
	}
	if v := getenv("POSE_ENGINE"); v != "" {
		cfg.Engine.Type = inference.EngineType(v)
	}
	if v := getenv("POSE_MODEL_PATH"); v != "" {
		cfg.Engine.ONNX.ModelPath = v
	}
	if v := getenv("POSE_PROVIDER"); v != "" {
		cfg.Engine.ONNX.Backend = providers.ProviderBackend(strings.ToLower(v))
	}
	if v := getenv("POSE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid POSE_WORKERS %q: %w", v, err)
		}
		cfg.Workers = n
	}
	if v := getenv("POSE_PRESENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid POSE_PRESENCE_THRESHOLD %q: %w", v, err)
		}
		cfg.OverridePipeline([]byte(`{"presence_threshold":` + strconv.FormatFloat(f, 'g', -1, 32) + `}`))
	}
	if v := getenv("POSE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("POSE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := getenv("POSE_MQTT_BROKER"); v != "" {
		if cfg.MQTT == nil {
			cfg.MQTT = &MQTT{}
		}
		cfg.MQTT.Broker = v
	}
	return nil
}

var validate = validator.New()

// Validate checks the struct tags, the engine and the resolved pipeline config.
func (c AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	pipeline, err := c.PipelineConfig()
	if err != nil {
		return err
	}
	if err := pipeline.Validate(); err != nil {
		return err
	}

	switch c.Engine.Type {
	case inference.EngineONNX:
		if err := validate.Struct(c.Engine.ONNX); err != nil {
			return fmt.Errorf("invalid onnx config: %w", err)
		}
		if err := c.Engine.ONNX.Check(); err != nil {
			return fmt.Errorf("invalid onnx config: %w", err)
		}
		if got, want := c.Engine.ONNX.OutputSize(), pipeline.OutputSize(); got != want {
			return fmt.Errorf("onnx outputs hold %d values, pipeline expects %d", got, want)
		}
	case inference.EngineGraph:
		if err := validate.Struct(c.Engine.Graph); err != nil {
			return fmt.Errorf("invalid graph config: %w", err)
		}
		if c.Engine.Graph.InputSize != pipeline.InputSize || c.Engine.Graph.OutputSize != pipeline.OutputSize() {
			return fmt.Errorf("graph head is %d -> %d, pipeline expects %d -> %d",
				c.Engine.Graph.InputSize, c.Engine.Graph.OutputSize, pipeline.InputSize, pipeline.OutputSize())
		}
	}
	return nil
}

// PipelineConfig resolves the preset named by Model, replaces it with Pipeline when set, then
// applies the recorded overrides. The result keeps the preset's name.
func (c AppConfig) PipelineConfig() (model.Config, error) {
	out, err := models.NewConfig(c.Model)
	if err != nil {
		return model.Config{}, err
	}
	name := out.Name
	if c.Pipeline != nil {
		out = *c.Pipeline
	}
	for _, doc := range c.pipelineOverrides {
		if err := json.Unmarshal(doc, &out); err != nil {
			return model.Config{}, fmt.Errorf("invalid pipeline override: %w", err)
		}
	}
	out.Name = name
	return out, nil
}
