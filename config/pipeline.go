package config

import (
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/pose"
)

// NewPipeline builds the configured engine and a pipeline around it. The caller owns the engine
// and must Close it.
//
// Arguments:
//   - log: The logger for the pipeline stages.
//
// Returns:
//   - *pose.Pipeline: The pipeline.
//   - inference.Engine: The engine backing it.
//   - error: An error if the config is invalid or the engine can't be created.
func (c AppConfig) NewPipeline(log logrus.FieldLogger) (*pose.Pipeline, inference.Engine, error) {
	cfg, err := c.PipelineConfig()
	if err != nil {
		return nil, nil, err
	}
	engine, err := inference.NewEngine(c.Engine)
	if err != nil {
		return nil, nil, err
	}
	p, err := pose.NewPipeline(cfg, engine, pose.WithLogger(log))
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	return p, engine, nil
}
