package models

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/physics"
)

// ParamMaxAccel is the per-model acceleration limit. Zero means the model
// follows the environment's limit.
const ParamMaxAccel = "max_accel"

// ID identifies a model within a session. IDs start at 1.
type ID int

// Model binds one controller and one plant into a tunable unit.
type Model struct {
	id         ID
	name       string
	controller *control.PID
	plant      physics.PointMass
	accelLimit float64
}

func New(id ID, name string) *Model {
	return &Model{
		id:         id,
		name:       name,
		controller: control.NewPID(0, 0, 0),
		plant:      physics.NewPointMass(),
	}
}

func (m *Model) ID() ID                      { return m.id }
func (m *Model) Name() string                { return m.name }
func (m *Model) SetName(name string)         { m.name = name }
func (m *Model) Controller() *control.PID    { return m.controller }
func (m *Model) Plant() physics.PointMass    { return m.plant }
func (m *Model) Value() float64              { return m.plant.Value }
func (m *Model) Elapsed() float64            { return m.plant.Elapsed }
func (m *Model) AccelLimitOverride() float64 { return m.accelLimit }

// AccelLimit returns the limit in force for env.
func (m *Model) AccelLimit(env dynamo.Environment) float64 {
	if m.accelLimit > 0 {
		return m.accelLimit
	}
	return env.MaxAccel
}

// SetElapsed moves the simulated clock. The sliding window uses it to pin
// the clock at the horizon.
func (m *Model) SetElapsed(t float64) {
	m.plant.Elapsed = t
}

// Reset zeroes the physical state and the controller's error state. Gains,
// name, identity and the limit override are kept.
func (m *Model) Reset() {
	m.controller.Reset()
	m.plant.Reset()
}

// Step advances the model by dt. dt must be positive.
func (m *Model) Step(env dynamo.Environment, dt float64) {
	u := m.controller.Update(env.Setpoint, m.plant.Value, dt)
	m.plant.Step(u, m.AccelLimit(env), env, dt)
}

// Evaluate steps with env.Timestep from the current clock until more than
// horizon has elapsed, recording (elapsed, value) after every step.
func (m *Model) Evaluate(horizon float64, env dynamo.Environment) (dynamo.Series, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate model %d: %w", m.id, err)
	}
	if !dynamo.Finite(horizon) || horizon <= 0 {
		return nil, &dynamo.ConfigError{Field: "horizon", Value: horizon, Wrapped: dynamo.ErrParameterBounds}
	}

	steps := int(horizon/env.Timestep) + 2
	result := make(dynamo.Series, 0, steps)
	start := m.plant.Elapsed

	for {
		m.Step(env, env.Timestep)
		result = append(result, dynamo.Sample{T: m.plant.Elapsed, V: m.plant.Value})
		if m.plant.Elapsed-start > horizon {
			break
		}
	}

	return result, nil
}

// Clone copies tuning (gains and limit override) into a new model with
// zeroed state.
func (m *Model) Clone(id ID, name string) *Model {
	return &Model{
		id:         id,
		name:       name,
		controller: m.controller.Clone(),
		plant:      physics.NewPointMass(),
		accelLimit: m.accelLimit,
	}
}

func (m *Model) GetParams() map[string]float64 {
	params := m.controller.GetParams()
	params[ParamMaxAccel] = m.accelLimit
	return params
}

// SetParam tunes a gain or the limit override. A max_accel of 0 clears the
// override; other values are clamped into the safe range.
func (m *Model) SetParam(name string, value float64) error {
	if name != ParamMaxAccel {
		return m.controller.SetParam(name, value)
	}
	if !dynamo.Finite(value) || value < 0 {
		return &dynamo.ConfigError{Field: name, Value: value, Wrapped: dynamo.ErrParameterBounds}
	}
	if value == 0 {
		m.accelLimit = 0
		return nil
	}
	m.accelLimit = dynamo.MaxAccelRange.Clamp(value)
	return nil
}
