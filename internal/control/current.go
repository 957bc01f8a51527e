package control

import (
	"fmt"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/params"
)

// Current drives the cell with the applied current as a function of time.
// Positive values discharge.
type Current struct {
	fn params.Function
}

func NewConstant(amps float64) *Current {
	return &Current{fn: func(...float64) float64 { return amps }}
}

// FromParameters reads the current function parameter. A number gives a
// constant drive; a Function is evaluated at the solver time.
func FromParameters(pv *params.ParameterValues) (*Current, error) {
	fn, err := pv.Func(params.CurrentFunction)
	if err != nil {
		return nil, fmt.Errorf("current drive: %w", err)
	}
	return &Current{fn: fn}, nil
}

func (c *Current) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{c.fn(t)}
}

// Drive picks the controller for a parameter set: open circuit when the
// current is the number zero, otherwise the current function.
func Drive(pv *params.ParameterValues, dim int) (dynamo.Controller, error) {
	if v, ok := pv.Get(params.CurrentFunction); ok {
		if amps, isNumber := v.(float64); isNumber && amps == 0 {
			return NewNone(dim), nil
		}
	}
	return FromParameters(pv)
}
