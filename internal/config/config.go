package config

import (
	"fmt"
	"os"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHorizon   = 20.0
	DefaultFrameRate = 60
	DefaultKp        = 1.0
	MaxFrameRate     = 240
)

type Config struct {
	Horizon     float64            `yaml:"horizon"`
	FrameRate   int                `yaml:"frame_rate"`
	Realtime    bool               `yaml:"realtime"`
	Environment dynamo.Environment `yaml:"environment"`
	Models      []ModelConfig      `yaml:"models"`
}

type ModelConfig struct {
	Name     string  `yaml:"name"`
	Kp       float64 `yaml:"kp"`
	Ki       float64 `yaml:"ki"`
	Kd       float64 `yaml:"kd"`
	MaxAccel float64 `yaml:"max_accel"`
}

func DefaultConfig() *Config {
	return &Config{
		Horizon:     DefaultHorizon,
		FrameRate:   DefaultFrameRate,
		Environment: dynamo.DefaultEnvironment(),
		Models: []ModelConfig{
			{Name: "Model 1", Kp: DefaultKp},
		},
	}
}

// Load reads a YAML session file over the defaults. Keys absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !dynamo.Finite(c.Horizon) || c.Horizon <= 0 {
		return &dynamo.ConfigError{Field: "horizon", Value: c.Horizon, Wrapped: dynamo.ErrParameterBounds}
	}
	if c.FrameRate < 1 || c.FrameRate > MaxFrameRate {
		return &dynamo.ConfigError{Field: "frame_rate", Value: float64(c.FrameRate), Wrapped: dynamo.ErrParameterBounds}
	}
	if err := c.Environment.Validate(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	for i, m := range c.Models {
		for name, v := range m.params() {
			if !dynamo.Finite(v) {
				return fmt.Errorf("models[%d]: %w", i, &dynamo.ConfigError{Field: name, Value: v, Wrapped: dynamo.ErrParameterBounds})
			}
		}
		if m.MaxAccel != 0 && !dynamo.MaxAccelRange.Contains(m.MaxAccel) {
			return fmt.Errorf("models[%d]: %w", i, &dynamo.ConfigError{Field: models.ParamMaxAccel, Value: m.MaxAccel, Wrapped: dynamo.ErrParameterBounds})
		}
	}
	return nil
}

func (m ModelConfig) params() map[string]float64 {
	return map[string]float64{
		control.ParamKp:      m.Kp,
		control.ParamKi:      m.Ki,
		control.ParamKd:      m.Kd,
		models.ParamMaxAccel: m.MaxAccel,
	}
}

// Build validates the config and returns a registry holding its models in
// file order.
func (c *Config) Build(log *zap.Logger) (*experiment.Registry, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	reg := experiment.NewRegistry(c.Environment, log)
	for i, mc := range c.Models {
		name := mc.Name
		if name == "" {
			name = fmt.Sprintf("Model %d", i+1)
		}
		id := reg.Add(name)
		for param, v := range mc.params() {
			if v == 0 {
				continue
			}
			if err := reg.Tune(id, param, v); err != nil {
				return nil, fmt.Errorf("models[%d]: %w", i, err)
			}
		}
	}
	return reg, nil
}
