// Package physics provides the plant driven by the controller.
//
// [PointMass] is a damped, force-driven point mass. Its acceleration is
// the clamped control command minus viscous damping plus an external
// applied force:
//
//	a = clamp(u, -limit, limit) - v*damping + force
//
// Velocity and position are advanced with fixed-step semi-implicit Euler.
package physics
