// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Controller]: input provider (the applied cell current)
//   - [Event]: terminating condition checked after every step
//   - [Simulator]: orchestrates simulation runs
//
// # Example
//
//	sim := dynamo.New(bound, integrators.NewRK45(), control.NewConstant(5))
//	cfg := dynamo.DefaultConfig()
//	result, err := sim.Run(ctx, bound.InitialState(), cfg)
//
// # Time Span
//
// [Simulator.Run] always records cfg.T0 first and, unless an event fires,
// cfg.TFinal last. Events stop the run at the located crossing and set
// [Result.Termination] to "event: <name>".
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Run independent simulators in
// separate goroutines instead.
package dynamo
