package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-pose/models/model"
)

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(model.ModelNamePoseUpperBody)
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	def, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, cfg, def)

	def.OutputBlocks[0] = 1
	again, _ := NewConfig("")
	assert.Equal(t, 124, again.OutputBlocks[0], "presets are not shared")

	_, err = NewConfig("yolov4")
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []model.Name{model.ModelNamePoseUpperBody}, Names())
}

func TestRegister(t *testing.T) {
	assert.Error(t, Register("", model.DefaultConfig))
	assert.Error(t, Register("pose_custom", nil))
	assert.Error(t, Register(model.ModelNamePoseUpperBody, model.DefaultConfig), "names are unique")
}
