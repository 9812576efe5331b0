// Package models - Registry of named pose model presets.
package models

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nvr-ai/go-pose/models/model"
)

var (
	mu      sync.RWMutex
	presets = map[model.Name]func() model.Config{
		model.ModelNamePoseUpperBody: model.DefaultConfig,
	}
)

// Register adds a named preset. fn must return a fresh config on every call.
//
// Arguments:
//   - name: The preset name.
//   - fn: The preset constructor.
//
// Returns:
//   - error: An error if the name is empty, fn is nil or the name is taken.
func Register(name model.Name, fn func() model.Config) error {
	if name == "" || fn == nil {
		return fmt.Errorf("preset needs a name and a constructor")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := presets[name]; ok {
		return fmt.Errorf("preset %s already registered", name)
	}
	presets[name] = fn
	return nil
}

// NewConfig returns the configuration of a named preset.
//
// Arguments:
//   - name: The preset name. Empty selects model.ModelNamePoseUpperBody.
//
// Returns:
//   - model.Config: A fresh copy of the preset.
//   - error: An error if the preset is unknown.
func NewConfig(name model.Name) (model.Config, error) {
	if name == "" {
		name = model.ModelNamePoseUpperBody
	}
	mu.RLock()
	preset, ok := presets[name]
	mu.RUnlock()
	if !ok {
		return model.Config{}, fmt.Errorf("unsupported model name: %s", name)
	}
	return preset(), nil
}

// Names returns the registered preset names in order.
func Names() []model.Name {
	mu.RLock()
	names := make([]model.Name, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	mu.RUnlock()
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
