package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrNumerical indicates overflow, a domain error or an undefined value
	// (NaN or Inf) in a state vector or likelihood.
	ErrNumerical = errors.New("dynamo: numerical failure (NaN or Inf detected)")

	// ErrConvergence indicates the step limit was reached before the end of
	// the integration interval. The partial trajectory must not be used.
	ErrConvergence = errors.New("dynamo: maximum step count reached before end of interval")

	// ErrDimensionMismatch indicates mismatched state or parameter dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)

// IsRecoverable reports whether err is a failure a sampler may count and
// continue past instead of terminating the chain.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNumerical) || errors.Is(err, ErrConvergence)
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
