// Package control provides the feedback controller that drives a plant
// toward its setpoint.
//
// [PID] is a discrete proportional-integral-derivative law. It keeps the
// previous error and the integral accumulator between calls; both are
// cleared together by [PID.Reset].
//
// # Usage
//
//	pid := control.NewPID(2.0, 0.0, 0.5)
//	u := pid.Update(setpoint, measured, dt) // dt must be > 0
//
// PID implements [dynamo.Configurable] for live tuning.
package control
