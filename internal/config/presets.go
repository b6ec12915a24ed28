package config

import (
	"sort"

	"github.com/san-kum/pidlab/internal/dynamo"
)

func session(env dynamo.Environment, ms ...ModelConfig) *Config {
	cfg := DefaultConfig()
	cfg.Environment = env
	cfg.Models = ms
	return cfg
}

func withForce(f float64) dynamo.Environment {
	env := dynamo.DefaultEnvironment()
	env.AppliedForce = f
	return env
}

// Presets are built-in starting sessions. They are read-only.
var Presets = map[string]*Config{
	"p-only": session(dynamo.DefaultEnvironment(),
		ModelConfig{Name: "P", Kp: 1},
	),
	"gain-sweep": session(dynamo.DefaultEnvironment(),
		ModelConfig{Name: "Kp 0.5", Kp: 0.5},
		ModelConfig{Name: "Kp 1", Kp: 1},
		ModelConfig{Name: "Kp 2", Kp: 2},
	),
	"pd": session(dynamo.DefaultEnvironment(),
		ModelConfig{Name: "P", Kp: 2},
		ModelConfig{Name: "PD", Kp: 2, Kd: 1.5},
	),
	"pid": session(withForce(-2),
		ModelConfig{Name: "PD", Kp: 2, Kd: 1.5},
		ModelConfig{Name: "PID", Kp: 2, Ki: 0.1, Kd: 1.5},
	),
	"windup": session(withForce(-2),
		ModelConfig{Name: "PI", Kp: 1, Ki: 0.5},
		ModelConfig{Name: "PI limited", Kp: 1, Ki: 0.5, MaxAccel: 3},
	),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Models = append([]ModelConfig(nil), p.Models...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
