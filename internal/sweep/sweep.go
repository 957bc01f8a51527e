// Package sweep solves families of simulations that differ in their
// parameters. Runs are independent and execute concurrently.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/cellsim/internal/params"
	"github.com/san-kum/cellsim/internal/physics"
	"github.com/san-kum/cellsim/internal/simulation"
	"github.com/san-kum/cellsim/internal/solution"
)

var (
	ErrEmptySweep    = errors.New("sweep: no values")
	ErrInvalidSpread = errors.New("sweep: invalid spread")
)

// Sweep varies one parameter over Values.
type Sweep struct {
	Parameter string
	Values    []float64
	// Channel is summarised for every run; defaults to the cell temperature.
	Channel string
	TSpan   []float64
	// Workers bounds concurrency; zero means one per CPU.
	Workers int
	// Options are applied to every simulation. They must not share state
	// between runs, so per-run metrics do not belong here.
	Options []simulation.Option
}

// Result summarises one run. Results keep the order of the input values.
type Result struct {
	Value   float64
	Final   float64
	Max     float64
	Min     float64
	End     float64
	Event   string
	Metrics map[string]float64
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Run solves one simulation per value. The first failure cancels the
// remaining runs.
func Run(ctx context.Context, model physics.Model, base *params.ParameterValues, sw Sweep) ([]Result, error) {
	if len(sw.Values) == 0 {
		return nil, ErrEmptySweep
	}
	if !base.Has(sw.Parameter) {
		return nil, fmt.Errorf("%w: %q", params.ErrUnknownParameter, sw.Parameter)
	}

	results := make([]Result, len(sw.Values))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(sw.Workers))

	for i, v := range sw.Values {
		g.Go(func() error {
			pv := base.Copy()
			if err := pv.Update(map[string]any{sw.Parameter: v}, true); err != nil {
				return err
			}
			sol, err := solve(gctx, model, pv, sw.TSpan, sw.Options)
			if err != nil {
				return fmt.Errorf("sweep: %s=%g: %w", sw.Parameter, v, err)
			}
			r, err := summarise(sol, channel(sw.Channel))
			if err != nil {
				return err
			}
			r.Value = v
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Best returns the index of the result minimising key.
func Best(results []Result, key func(Result) float64) int {
	best, idx := math.Inf(1), -1
	for i, r := range results {
		if v := key(r); v < best {
			best, idx = v, i
		}
	}
	return idx
}

func solve(ctx context.Context, model physics.Model, pv *params.ParameterValues, tspan []float64, opts []simulation.Option) (*solution.Solution, error) {
	sim, err := simulation.New(model, pv, opts...)
	if err != nil {
		return nil, err
	}
	if len(tspan) == 0 {
		tspan = []float64{0, 3600}
	}
	return sim.Solve(ctx, tspan)
}

func summarise(sol *solution.Solution, name string) (Result, error) {
	s, err := sol.Summary(name)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Final:   s.Final,
		Max:     s.Max,
		Min:     s.Min,
		End:     sol.Times[sol.Len()-1],
		Event:   sol.Event,
		Metrics: sol.Metrics,
	}, nil
}

func channel(name string) string {
	if name == "" {
		return physics.VarTemperatureC
	}
	return name
}

func workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
