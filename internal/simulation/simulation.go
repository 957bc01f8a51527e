// Package simulation binds a cell model to parameter values, solves it
// over a time span and hands the result to plotting and storage.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/cellsim/internal/control"
	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/integrators"
	"github.com/san-kum/cellsim/internal/metrics"
	"github.com/san-kum/cellsim/internal/params"
	"github.com/san-kum/cellsim/internal/physics"
	"github.com/san-kum/cellsim/internal/solution"
	"github.com/san-kum/cellsim/internal/storage"
	"github.com/san-kum/cellsim/internal/viz"
)

const (
	DefaultSolver    = "rk45"
	DefaultTolerance = 1e-6
	DefaultMaxStep   = 60.0

	// Operating window used by the thermal_window metric.
	windowLow  = 273.15
	windowHigh = 318.15
)

var (
	ErrNotSolved   = errors.New("simulation: not solved")
	ErrInvalidSpan = errors.New("simulation: invalid time span")
	ErrBadOption   = errors.New("simulation: invalid option")
)

// DefaultPlotVariables are plotted when Plot is called without names.
var DefaultPlotVariables = []string{physics.VarVoltage, physics.VarCurrent, physics.VarTemperatureC}

// Simulation owns one bound model. It is not safe for concurrent use;
// sweeps build one Simulation per goroutine.
type Simulation struct {
	model  physics.Model
	bound  physics.Bound
	params *params.ParameterValues

	solver      string
	tolerance   float64
	maxStep     float64
	fixedStep   float64
	derateAbove float64
	log         logrus.FieldLogger
	extra       []dynamo.Metric

	sol *solution.Solution
}

// New binds pv to model. The parameter set is copied; later changes to pv
// do not reach the simulation. Parameter problems surface here.
func New(model physics.Model, pv *params.ParameterValues, opts ...Option) (*Simulation, error) {
	s := &Simulation{
		model:     model,
		params:    pv.Copy(),
		solver:    DefaultSolver,
		tolerance: DefaultTolerance,
		maxStep:   DefaultMaxStep,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := integrators.ByName(s.solver); err != nil {
		return nil, err
	}
	if s.tolerance <= 0 || math.IsNaN(s.tolerance) {
		return nil, fmt.Errorf("%w: tolerance must be positive, got %g", ErrBadOption, s.tolerance)
	}
	if s.maxStep <= 0 || math.IsNaN(s.maxStep) {
		return nil, fmt.Errorf("%w: max step must be positive, got %g", ErrBadOption, s.maxStep)
	}
	if s.fixedStep < 0 {
		return nil, fmt.Errorf("%w: fixed step must not be negative, got %g", ErrBadOption, s.fixedStep)
	}

	bound, err := model.Bind(s.params)
	if err != nil {
		return nil, err
	}
	s.bound = bound

	if _, err := control.Drive(s.params, bound.ControlDim()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulation) Model() physics.Model { return s.model }
func (s *Simulation) Bound() physics.Bound { return s.bound }
func (s *Simulation) Solver() string       { return s.solver }

// Parameters returns a copy of the bound parameter set.
func (s *Simulation) Parameters() *params.ParameterValues { return s.params.Copy() }

// Solution returns the last successful solve, or nil.
func (s *Simulation) Solution() *solution.Solution { return s.sol }

// Solve integrates over tspan. A two element span [t0, tf] returns every
// accepted solver step; a longer increasing list is also used as the
// output times. Without a terminating event the solution ends exactly at
// tf.
func (s *Simulation) Solve(ctx context.Context, tspan []float64) (*solution.Solution, error) {
	t0, tf, err := parseSpan(tspan)
	if err != nil {
		return nil, err
	}

	integ, err := integrators.ByName(s.solver)
	if err != nil {
		return nil, err
	}

	drive, err := control.Drive(s.params, s.bound.ControlDim())
	if err != nil {
		return nil, err
	}

	thermal, isThermal := s.bound.(physics.Thermal)
	if s.derateAbove > 0 && isThermal {
		drive = control.NewDerate(drive, thermal.TemperatureIndex(), s.derateAbove)
	}

	sim := dynamo.New(s.bound, integ, drive)
	for _, m := range s.defaultMetrics(thermal, isThermal) {
		sim.AddMetric(m)
	}
	for _, m := range s.extra {
		sim.AddMetric(m)
	}
	sim.AddObserver(newProgress(s.log, t0, tf))

	cfg := dynamo.DefaultConfig()
	cfg.T0, cfg.TFinal = t0, tf
	cfg.Tolerance = s.tolerance
	cfg.MaxDt = s.maxStep
	cfg.Dt = math.Min(s.maxStep, (tf-t0)/100)
	if s.fixedStep > 0 {
		cfg.Adaptive = false
		cfg.Dt = s.fixedStep
	}

	log := s.log.WithFields(logrus.Fields{
		"model":  s.model.Name(),
		"solver": s.solver,
		"t0":     t0,
		"tf":     tf,
	})
	log.Info("solving")
	start := time.Now()

	res, err := sim.Run(ctx, s.bound.InitialState(), cfg)
	if err != nil {
		log.WithError(err).Error("solve failed")
		return nil, fmt.Errorf("simulation: solve %s: %w", s.model.Name(), err)
	}
	if res.Rejected > 0 {
		log.Debugf("%d steps rejected", res.Rejected)
	}

	sol, err := solution.New(s.bound, res, [2]float64{t0, tf})
	if err != nil {
		return nil, err
	}

	if len(tspan) > 2 {
		last := sol.Times[sol.Len()-1]
		evalTimes := make([]float64, 0, len(tspan))
		for _, t := range tspan {
			if t <= last {
				evalTimes = append(evalTimes, t)
			}
		}
		if sol, err = sol.Interpolate(evalTimes); err != nil {
			return nil, err
		}
	}

	fields := logrus.Fields{
		"steps":    res.StepsTaken,
		"rejected": res.Rejected,
		"points":   sol.Len(),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}
	if sol.Event != "" {
		log.WithFields(fields).Warnf("solve stopped by event %q at t=%g", sol.Event, res.Times[len(res.Times)-1])
	} else {
		log.WithFields(fields).Info("solved")
	}

	s.sol = sol
	return sol, nil
}

func (s *Simulation) defaultMetrics(thermal physics.Thermal, isThermal bool) []dynamo.Metric {
	out := []dynamo.Metric{
		metrics.NewChargeThroughput(),
		metrics.NewMeanCurrent(),
		metrics.NewEnergy(func(x dynamo.State, u dynamo.Control, t float64) float64 {
			v, err := s.bound.Evaluate(physics.VarVoltage, x, u, t)
			if err != nil {
				return math.NaN()
			}
			return v
		}),
	}
	if isThermal {
		idx := thermal.TemperatureIndex()
		out = append(out,
			metrics.NewMaxTemperature(idx),
			metrics.NewStability("thermal_window", idx, windowLow, windowHigh),
		)
	}
	return out
}

// Plot renders the named channels of the last solution. It never solves.
// All names are checked before anything is drawn.
func (s *Simulation) Plot(names []string, opts ...viz.Option) error {
	if s.sol == nil {
		return ErrNotSolved
	}
	if len(names) == 0 {
		names = DefaultPlotVariables
	}

	series, err := Series(s.sol, names)
	if err != nil {
		return err
	}

	p, err := viz.New(opts...)
	if err != nil {
		return err
	}
	return p.Plot(series)
}

// Series extracts plottable channels against time in seconds.
func Series(sol *solution.Solution, names []string) ([]viz.Series, error) {
	for _, name := range names {
		if !sol.Has(name) {
			return nil, fmt.Errorf("%w: %q", solution.ErrUnknownVariable, name)
		}
	}

	out := make([]viz.Series, 0, len(names))
	for _, name := range names {
		y, err := sol.Variable(name)
		if err != nil {
			return nil, err
		}
		out = append(out, viz.Series{Name: name, XLabel: physics.VarTimeS, X: sol.Times, Y: y})
	}
	return out, nil
}

// Save persists the last solution with every channel.
func (s *Simulation) Save(store *storage.Store) (string, error) {
	if s.sol == nil {
		return "", ErrNotSolved
	}

	table, err := Table(s.sol)
	if err != nil {
		return "", err
	}

	meta := storage.RunMetadata{
		Model:       s.model.Name(),
		TSpan:       s.sol.TSpan,
		Solver:      s.solver,
		Tolerance:   s.tolerance,
		Steps:       s.sol.StepsTaken,
		Rejected:    s.sol.Rejected,
		Termination: s.sol.Termination,
		Parameters:  s.params.Numbers(),
		Metrics:     s.sol.Metrics,
	}

	id, err := store.Save(meta, table)
	if err != nil {
		return "", err
	}
	s.log.WithField("run", id).Info("saved")
	return id, nil
}

// Table lays out every channel of sol with time first.
func Table(sol *solution.Solution) (*storage.Table, error) {
	names := sol.Names()
	sort.SliceStable(names, func(i, j int) bool { return names[i] == physics.VarTimeS && names[j] != physics.VarTimeS })

	data, err := sol.Table(names)
	if err != nil {
		return nil, err
	}
	return &storage.Table{Columns: names, Data: data}, nil
}

func parseSpan(tspan []float64) (float64, float64, error) {
	if len(tspan) < 2 {
		return 0, 0, fmt.Errorf("%w: need at least [t0, tf], got %v", ErrInvalidSpan, tspan)
	}
	for i, t := range tspan {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, 0, fmt.Errorf("%w: non-finite time %g", ErrInvalidSpan, t)
		}
		if i > 0 && t <= tspan[i-1] {
			return 0, 0, fmt.Errorf("%w: times must be strictly increasing, got %v", ErrInvalidSpan, tspan)
		}
	}
	return tspan[0], tspan[len(tspan)-1], nil
}
