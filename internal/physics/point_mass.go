package physics

import (
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/integrators"
)

type PointMass struct {
	Accel   float64
	Vel     float64
	Value   float64
	Elapsed float64

	integ integrators.Euler
}

func NewPointMass() PointMass {
	return PointMass{}
}

// Step applies command u for dt. The command is clamped to ±limit before
// damping and the applied force are added.
func (p *PointMass) Step(u, limit float64, env dynamo.Environment, dt float64) {
	p.Accel = Clamp(u, limit) - p.Vel*env.Damping + env.AppliedForce

	p.Value, p.Vel = p.integ.Step(p.Value, p.Vel, p.Accel, dt)

	p.Elapsed += dt
}

func (p *PointMass) Reset() {
	p.Accel = 0
	p.Vel = 0
	p.Value = 0
	p.Elapsed = 0
}

// Clamp bounds u into [-limit, limit].
func Clamp(u, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, u))
}
