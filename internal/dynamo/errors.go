package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrNotFound indicates an operation on an unknown particle id.
	ErrNotFound = errors.New("dynamo: oscillator not found")

	// ErrDuplicateID indicates a create with a particle id already in use.
	ErrDuplicateID = errors.New("dynamo: oscillator id already exists")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrZeroSeed indicates a derived seed of 0, which NewSource replaces with
	// the wall clock.
	ErrZeroSeed = errors.New("dynamo: seed 0 is not reproducible")
)

// ParamError wraps ErrParameterBounds with the offending field.
type ParamError struct {
	Field string
	Value float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s=%v", ErrParameterBounds, e.Field, e.Value)
}

func (e *ParamError) Unwrap() error {
	return ErrParameterBounds
}
