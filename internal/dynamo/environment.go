package dynamo

import "fmt"

const (
	DefaultDamping      = 0.5
	DefaultAppliedForce = 0.0
	DefaultTimestep     = 0.016
	DefaultSetpoint     = 100.0
	DefaultMaxAccel     = 10.0
)

// Parameter names understood by Environment.SetParam.
const (
	ParamDamping      = "damping"
	ParamAppliedForce = "applied_force"
	ParamTimestep     = "timestep"
	ParamSetpoint     = "setpoint"
	ParamMaxAccel     = "max_accel"
)

// Safe ranges for environment and per-model parameters.
var (
	DampingRange      = Range{Min: 0, Max: 100}
	AppliedForceRange = Range{Min: -10, Max: 10}
	TimestepRange     = Range{Min: 0.001, Max: 1.0}
	SetpointRange     = Range{Min: 0, Max: 150}
	MaxAccelRange     = Range{Min: 0.1, Max: 50}
)

// Environment is the physical configuration shared by every model in a
// registry. It is passed by value into Step and Evaluate.
type Environment struct {
	Damping      float64 `yaml:"damping" json:"damping"`
	AppliedForce float64 `yaml:"applied_force" json:"applied_force"`
	Timestep     float64 `yaml:"timestep" json:"timestep"`
	Setpoint     float64 `yaml:"setpoint" json:"setpoint"`
	// MaxAccel is the acceleration limit for models without an override.
	MaxAccel float64 `yaml:"max_accel" json:"max_accel"`
}

func DefaultEnvironment() Environment {
	return Environment{
		Damping:      DefaultDamping,
		AppliedForce: DefaultAppliedForce,
		Timestep:     DefaultTimestep,
		Setpoint:     DefaultSetpoint,
		MaxAccel:     DefaultMaxAccel,
	}
}

// Validate reports the first field that is not finite or lies outside its
// safe range. A non-positive timestep is reported as ErrInvalidTimestep.
func (e Environment) Validate() error {
	if !finite(e.Timestep) || e.Timestep <= 0 {
		return &ConfigError{Field: ParamTimestep, Value: e.Timestep, Wrapped: ErrInvalidTimestep}
	}
	for _, f := range []struct {
		name  string
		value float64
		r     Range
	}{
		{ParamTimestep, e.Timestep, TimestepRange},
		{ParamDamping, e.Damping, DampingRange},
		{ParamAppliedForce, e.AppliedForce, AppliedForceRange},
		{ParamSetpoint, e.Setpoint, SetpointRange},
		{ParamMaxAccel, e.MaxAccel, MaxAccelRange},
	} {
		if !finite(f.value) || !f.r.Contains(f.value) {
			return &ConfigError{Field: f.name, Value: f.value, Wrapped: ErrParameterBounds}
		}
	}
	return nil
}

func (e Environment) GetParams() map[string]float64 {
	return map[string]float64{
		ParamDamping:      e.Damping,
		ParamAppliedForce: e.AppliedForce,
		ParamTimestep:     e.Timestep,
		ParamSetpoint:     e.Setpoint,
		ParamMaxAccel:     e.MaxAccel,
	}
}

// SetParam clamps value into the parameter's safe range. Non-finite values
// and non-positive timesteps are rejected and leave the environment unchanged.
func (e *Environment) SetParam(name string, value float64) error {
	if !finite(value) {
		return &ConfigError{Field: name, Value: value, Wrapped: ErrParameterBounds}
	}
	switch name {
	case ParamDamping:
		e.Damping = DampingRange.Clamp(value)
	case ParamAppliedForce:
		e.AppliedForce = AppliedForceRange.Clamp(value)
	case ParamTimestep:
		if value <= 0 {
			return &ConfigError{Field: name, Value: value, Wrapped: ErrInvalidTimestep}
		}
		e.Timestep = TimestepRange.Clamp(value)
	case ParamSetpoint:
		e.Setpoint = SetpointRange.Clamp(value)
	case ParamMaxAccel:
		e.MaxAccel = MaxAccelRange.Clamp(value)
	default:
		return fmt.Errorf("environment %q: %w", name, ErrUnknownParam)
	}
	return nil
}
