package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"
)

const (
	eventBisections = 48
	// spanEpsilon absorbs accumulated rounding so a run does not end with a
	// sliver step just short of TFinal.
	spanEpsilon = 1e-9
)

type Simulator struct {
	dyn        System
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

func New(dyn System, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates from cfg.T0 to cfg.TFinal. The final step is shortened so
// the last recorded time equals cfg.TFinal unless an event stops the run
// first. On cancellation the partial result is returned with the error.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(x0, cfg); err != nil {
		return nil, err
	}

	var events []Event
	if es, ok := s.dyn.(EventSystem); ok {
		events = es.Events()
	}

	estimate := int(math.Ceil(cfg.Duration()/cfg.Dt)) + 1
	if cfg.Adaptive || estimate > 1<<16 {
		estimate = 256
	}
	result := &Result{
		States:      make([]State, 0, estimate),
		Controls:    make([]Control, 0, estimate),
		Times:       make([]float64, 0, estimate),
		Metrics:     make(map[string]float64),
		Termination: TerminationFinalTime,
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := cfg.T0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for step := 0; t < cfg.TFinal; step++ {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		default:
		}

		u := s.controller.Compute(x, t)
		if len(u) != s.dyn.ControlDim() {
			return result, &SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: ErrDimensionMismatch}
		}

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		remaining := cfg.TFinal - t
		h := math.Min(dt, remaining)
		if remaining-h <= spanEpsilon*math.Max(1, math.Abs(cfg.TFinal)) {
			h = remaining
		}
		last := h >= remaining

		var newX State
		next := cfg.Dt
		if cfg.Adaptive {
			var err error
			var rejected int
			newX, h, next, rejected, err = s.adaptiveStep(x, u, t, h, cfg)
			result.Rejected += rejected
			if err != nil {
				return result, &SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: err}
			}
			last = h >= remaining
		} else {
			newX = s.integrator.Step(s.dyn, x, u, t, h)
		}

		if cfg.ValidateState && !newX.IsValid() {
			return result, &SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
		}

		if name, hEvent, ok := s.firstCrossing(events, x, newX, u, t, h); ok {
			xe := s.integrator.Step(s.dyn, x, u, t, hEvent)
			result.States = append(result.States, xe)
			result.Controls = append(result.Controls, u)
			result.Times = append(result.Times, t+hEvent)
			result.StepsTaken++
			result.Termination = terminationEvent + name
			break
		}

		x = newX
		if last {
			t = cfg.TFinal
		} else {
			t += h
		}
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)

		dt = next
	}

	// Metrics see every stored point; the last one carries the control of
	// the step that reached it.
	if last := len(result.Controls) - 1; last >= 0 {
		for _, m := range s.metrics {
			m.Observe(result.States[last+1], result.Controls[last], result.Times[last+1])
		}
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validateConfig(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if math.IsNaN(cfg.T0) || math.IsInf(cfg.T0, 0) || math.IsNaN(cfg.TFinal) || math.IsInf(cfg.TFinal, 0) {
		return fmt.Errorf("%w: non-finite bound", ErrInvalidSpan)
	}
	if cfg.TFinal <= cfg.T0 {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidSpan, cfg.T0, cfg.TFinal)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: state has %d entries, system expects %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	if cfg.ValidateState && !x0.IsValid() {
		return ErrInvalidState
	}
	return nil
}

// adaptiveStep returns the accepted state, the step actually taken and the
// suggested next step.
func (s *Simulator) adaptiveStep(x State, u Control, t, h float64, cfg Config) (State, float64, float64, int, error) {
	maxDt := cfg.MaxDt
	if maxDt <= 0 {
		maxDt = math.Inf(1)
	}
	rejected := 0

	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		for {
			newX, next, err := adaptive.StepAdaptive(s.dyn, x, u, t, h, cfg.Tolerance)
			if errors.Is(err, ErrStepRejected) {
				rejected++
				h = next
				if h < cfg.MinDt {
					return nil, h, next, rejected, ErrStepTooSmall
				}
				continue
			}
			if err != nil {
				return nil, h, next, rejected, err
			}
			return newX, h, math.Min(next, maxDt), rejected, nil
		}
	}

	// Step doubling for integrators without an embedded error estimate.
	for {
		x1 := s.integrator.Step(s.dyn, x, u, t, h)
		xHalf := s.integrator.Step(s.dyn, x, u, t, h/2)
		x2 := s.integrator.Step(s.dyn, xHalf, u, t+h/2, h/2)

		scale := x2.Norm() + 1
		err := x1.Sub(x2).Norm() / scale

		if err > cfg.Tolerance {
			rejected++
			h /= 2
			if h < cfg.MinDt {
				return nil, h, h, rejected, ErrStepTooSmall
			}
			continue
		}

		next := h
		if err < cfg.Tolerance/10 {
			next = math.Min(h*2, maxDt)
		}
		return x2, h, next, rejected, nil
	}
}

// firstCrossing reports the earliest event that changes sign within the
// step and the sub-step at which it does so.
func (s *Simulator) firstCrossing(events []Event, x, newX State, u Control, t, h float64) (string, float64, bool) {
	name := ""
	best := math.Inf(1)

	for _, ev := range events {
		v0 := ev.Value(x, u, t)
		v1 := ev.Value(newX, u, t+h)
		if !(v0 > 0 && v1 <= 0) {
			continue
		}

		lo, hi := 0.0, h
		for i := 0; i < eventBisections; i++ {
			mid := 0.5 * (lo + hi)
			xm := s.integrator.Step(s.dyn, x, u, t, mid)
			if ev.Value(xm, u, t+mid) > 0 {
				lo = mid
			} else {
				hi = mid
			}
		}

		if hi < best {
			best = hi
			name = ev.Name
		}
	}

	return name, best, name != ""
}
