// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental types shared by the integrators, the
// adaptive driver and the sampler:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE right-hand sides (dX/dt = f(X, t))
//   - [Trajectory]: evenly spaced (time, state) samples of one run
//   - [SimulationError]: failure with step/time context
//
// # Errors
//
// Numerical failures ([ErrNumerical]) and step-limit failures
// ([ErrConvergence]) are recoverable from the sampler's point of view; use
// [IsRecoverable] rather than comparing errors directly.
//
// # Example
//
//	osc := dynamo.SystemFunc(func(x dynamo.State, t float64) dynamo.State {
//	    return dynamo.State{x[1], -x[0]}
//	})
//	x := integrators.NewRK4().Step(osc, dynamo.State{1, 0}, 0, 0.01)
package dynamo
