package simulation

import (
	"github.com/sirupsen/logrus"

	"github.com/san-kum/cellsim/internal/dynamo"
)

type Option func(*Simulation)

// WithSolver selects the integrator by name (euler, rk4, rk45).
func WithSolver(name string) Option {
	return func(s *Simulation) { s.solver = name }
}

// WithTolerance sets the relative error target of adaptive stepping.
func WithTolerance(tol float64) Option {
	return func(s *Simulation) { s.tolerance = tol }
}

// WithMaxStep caps the step size in seconds.
func WithMaxStep(dt float64) Option {
	return func(s *Simulation) { s.maxStep = dt }
}

// WithFixedStep disables adaptive stepping and integrates with dt.
func WithFixedStep(dt float64) Option {
	return func(s *Simulation) { s.fixedStep = dt }
}

// WithDerating cuts the applied current while the cell is above limit [K].
func WithDerating(limit float64) Option {
	return func(s *Simulation) { s.derateAbove = limit }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Simulation) { s.log = log }
}

// WithMetrics adds metrics on top of the defaults. Metrics are reset at
// the start of every solve.
func WithMetrics(m ...dynamo.Metric) Option {
	return func(s *Simulation) { s.extra = append(s.extra, m...) }
}
