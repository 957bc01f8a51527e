// Package solution holds solved trajectories and evaluates named output
// channels on them.
package solution

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/physics"
)

var (
	ErrUnknownVariable = errors.New("solution: unknown variable")
	ErrOutOfRange      = errors.New("solution: time outside solved span")
	ErrEmpty           = errors.New("solution: no solved points")
)

const evalChunk = 256

// Solution is the trajectory of one solve. Channel values are computed on
// first request and cached.
type Solution struct {
	Times       []float64
	States      []dynamo.State
	Controls    []dynamo.Control
	TSpan       [2]float64
	Termination string
	Event       string
	Metrics     map[string]float64
	StepsTaken  int
	Rejected    int

	model physics.Bound

	mu    sync.Mutex
	cache map[string][]float64
}

// Summary describes one channel over the solved span.
type Summary struct {
	Name  string
	Min   float64
	Max   float64
	Mean  float64
	Final float64
}

// New wraps a solver result. Controls are realigned so every stored time
// has the drive that was applied from it; the last point repeats the
// final step's drive.
func New(model physics.Bound, res *dynamo.Result, tspan [2]float64) (*Solution, error) {
	if len(res.Times) == 0 {
		return nil, ErrEmpty
	}

	controls := make([]dynamo.Control, len(res.Times))
	for i := range controls {
		switch {
		case i < len(res.Controls):
			controls[i] = res.Controls[i]
		case len(res.Controls) > 0:
			controls[i] = res.Controls[len(res.Controls)-1]
		default:
			controls[i] = make(dynamo.Control, model.ControlDim())
		}
	}

	metrics := make(map[string]float64, len(res.Metrics))
	for k, v := range res.Metrics {
		metrics[k] = v
	}

	return &Solution{
		Times:       res.Times,
		States:      res.States,
		Controls:    controls,
		TSpan:       tspan,
		Termination: res.Termination,
		Event:       res.EventName(),
		Metrics:     metrics,
		StepsTaken:  res.StepsTaken,
		Rejected:    res.Rejected,
		model:       model,
		cache:       make(map[string][]float64),
	}, nil
}

// Len is the number of stored points.
func (s *Solution) Len() int { return len(s.Times) }

// Names returns the available channel names, sorted.
func (s *Solution) Names() []string {
	names := s.model.Variables()
	sort.Strings(names)
	return names
}

func (s *Solution) Has(name string) bool {
	for _, n := range s.model.Variables() {
		if n == name {
			return true
		}
	}
	return false
}

// Variable returns the time series of one channel. The returned slice is
// shared with the cache and must not be modified.
func (s *Solution) Variable(name string) ([]float64, error) {
	if !s.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache[name]; ok {
		return v, nil
	}

	out := make([]float64, len(s.Times))
	var (
		errOnce  sync.Once
		firstErr error
	)
	dynamo.ParallelFor(len(s.Times), evalChunk, func(start, end int) {
		for i := start; i < end; i++ {
			v, err := s.model.Evaluate(name, s.States[i], s.Controls[i], s.Times[i])
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			out[i] = v
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}

	s.cache[name] = out
	return out, nil
}

// At interpolates a channel linearly at time t.
func (s *Solution) At(name string, t float64) (float64, error) {
	values, err := s.Variable(name)
	if err != nil {
		return math.NaN(), err
	}
	i, frac, err := s.locate(t)
	if err != nil {
		return math.NaN(), err
	}
	if frac == 0 {
		return values[i], nil
	}
	return values[i]*(1-frac) + values[i+1]*frac, nil
}

// Final returns the last value of a channel.
func (s *Solution) Final(name string) (float64, error) {
	values, err := s.Variable(name)
	if err != nil {
		return math.NaN(), err
	}
	return values[len(values)-1], nil
}

func (s *Solution) Summary(name string) (Summary, error) {
	values, err := s.Variable(name)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Name:  name,
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Mean:  stat.Mean(values, nil),
		Final: values[len(values)-1],
	}, nil
}

// Interpolate resamples the trajectory onto the given increasing times,
// which must lie inside the solved span.
func (s *Solution) Interpolate(times []float64) (*Solution, error) {
	if len(times) == 0 {
		return nil, ErrEmpty
	}
	if !sort.Float64sAreSorted(times) {
		return nil, fmt.Errorf("solution: output times must be increasing")
	}

	states := make([]dynamo.State, len(times))
	controls := make([]dynamo.Control, len(times))
	for k, t := range times {
		i, frac, err := s.locate(t)
		if err != nil {
			return nil, err
		}
		if frac == 0 {
			states[k] = s.States[i].Clone()
		} else {
			states[k] = s.States[i].Lerp(s.States[i+1], frac)
		}
		controls[k] = s.Controls[i].Clone()
	}

	out := &Solution{
		Times:       append([]float64(nil), times...),
		States:      states,
		Controls:    controls,
		TSpan:       s.TSpan,
		Termination: s.Termination,
		Event:       s.Event,
		Metrics:     s.Metrics,
		StepsTaken:  s.StepsTaken,
		Rejected:    s.Rejected,
		model:       s.model,
		cache:       make(map[string][]float64),
	}
	return out, nil
}

// Table evaluates several channels at once, keyed by name.
func (s *Solution) Table(names []string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(names))
	for _, name := range names {
		v, err := s.Variable(name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// locate finds the segment containing t and the fraction along it.
func (s *Solution) locate(t float64) (int, float64, error) {
	n := len(s.Times)
	first, last := s.Times[0], s.Times[n-1]
	tol := 1e-9 * math.Max(1, math.Abs(last))
	if math.IsNaN(t) || t < first-tol || t > last+tol {
		return 0, 0, fmt.Errorf("%w: %g not in [%g, %g]", ErrOutOfRange, t, first, last)
	}
	if t <= first {
		return 0, 0, nil
	}
	if t >= last {
		return n - 1, 0, nil
	}

	j := sort.SearchFloat64s(s.Times, t)
	if s.Times[j] == t {
		return j, 0, nil
	}
	i := j - 1
	return i, (t - s.Times[i]) / (s.Times[j] - s.Times[i]), nil
}
