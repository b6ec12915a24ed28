// Package dynamo provides core simulation primitives shared by the
// controller, plant and driver packages.
//
//   - [Sample] and [Series]: recorded (time, value) history of a model
//   - [Environment]: shared physical configuration passed by value into
//     every step and evaluation
//   - [Range]: safe bounds used to clamp user-tunable parameters
//   - [Configurable]: string-keyed parameter access used for live tuning
//
// # Example
//
//	env := dynamo.DefaultEnvironment()
//	if err := env.SetParam("damping", 1.2); err != nil {
//		return err
//	}
//	series, err := model.Evaluate(20, env)
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent mutation. The simulation
// is driven cooperatively from a single frame callback.
package dynamo
