package control

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
)

const (
	ParamKp = "kp"
	ParamKi = "ki"
	ParamKd = "kd"
)

type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	integral float64
	prevErr  float64
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp: kp,
		Ki: ki,
		Kd: kd,
	}
}

// Update returns the control command for one step of length dt.
// dt must be positive; callers validate it before it gets here.
func (p *PID) Update(setpoint, measured, dt float64) float64 {
	err := setpoint - measured
	derivative := (err - p.prevErr) / dt

	p.prevErr = err
	p.integral += err * dt

	return err*p.Kp + p.integral*p.Ki + derivative*p.Kd
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
}

func (p *PID) Integral() float64 { return p.integral }
func (p *PID) PrevErr() float64  { return p.prevErr }

// Clone copies the gains into a controller with fresh state.
func (p *PID) Clone() *PID {
	return NewPID(p.Kp, p.Ki, p.Kd)
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		ParamKp: p.Kp,
		ParamKi: p.Ki,
		ParamKd: p.Kd,
	}
}

// SetParam adjusts a PID gain. Gains are unconstrained but must be finite.
func (p *PID) SetParam(name string, value float64) error {
	if !dynamo.Finite(value) {
		return &dynamo.ConfigError{Field: name, Value: value, Wrapped: dynamo.ErrParameterBounds}
	}
	switch name {
	case ParamKp:
		p.Kp = value
	case ParamKi:
		p.Ki = value
	case ParamKd:
		p.Kd = value
	default:
		return fmt.Errorf("pid %q: %w", name, dynamo.ErrUnknownParam)
	}
	return nil
}
