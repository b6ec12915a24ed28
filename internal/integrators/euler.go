package integrators

// Euler is the fixed-step semi-implicit Euler scheme: velocity is updated
// first and the new velocity moves the position.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(pos, vel, acc, dt float64) (float64, float64) {
	vel += acc * dt
	pos += vel * dt
	return pos, vel
}
