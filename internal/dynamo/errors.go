package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidTimestep indicates a timestep that is zero, negative or not finite.
	ErrInvalidTimestep = errors.New("dynamo: timestep must be positive")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParam indicates a parameter name that the target does not expose.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrUnknownModel indicates a model identity that is not registered.
	ErrUnknownModel = errors.New("dynamo: unknown model")

	// ErrNotRunning indicates an action that is only valid in real-time mode.
	ErrNotRunning = errors.New("dynamo: simulation is not running")
)

// ConfigError wraps an error with the offending parameter.
type ConfigError struct {
	Field   string
	Value   float64
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s=%g: %v", e.Field, e.Value, e.Wrapped)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}
