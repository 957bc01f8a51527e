package dynamo

import (
	"math"
	"strings"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Lerp returns s + frac*(other-s).
func (s State) Lerp(other State, frac float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + frac*(other[i]-s[i])
	}
	return result
}

type Control []float64

func (c Control) Clone() Control {
	out := make(Control, len(c))
	copy(out, c)
	return out
}

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Event is a scalar condition watched during a run. The run stops when
// Value crosses from positive to zero or below.
type Event struct {
	Name  string
	Value func(x State, u Control, t float64) float64
}

type EventSystem interface {
	System
	Events() []Event
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, error)
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Config struct {
	Dt            float64
	T0            float64
	TFinal        float64
	Tolerance     float64
	MaxDt         float64
	MinDt         float64
	Adaptive      bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            1.0,
		T0:            0,
		TFinal:        3600,
		Tolerance:     1e-6,
		MaxDt:         60,
		MinDt:         1e-8,
		Adaptive:      true,
		ValidateState: true,
	}
}

// Duration is the length of the integration span.
func (c Config) Duration() float64 {
	return c.TFinal - c.T0
}

const (
	TerminationFinalTime = "final time"
	terminationEvent     = "event: "
)

type Result struct {
	States      []State
	Controls    []Control
	Times       []float64
	Metrics     map[string]float64
	StepsTaken  int
	Rejected    int
	Termination string
}

// EventName returns the triggering event or "" when the run reached its final time.
func (r *Result) EventName() string {
	name, ok := strings.CutPrefix(r.Termination, terminationEvent)
	if !ok {
		return ""
	}
	return name
}
