package physics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/params"
)

// ErrUnknownModel is returned by ByName.
var ErrUnknownModel = errors.New("physics: unknown model")

// ErrUnknownVariable is returned when a model has no output channel of the
// requested name.
var ErrUnknownVariable = errors.New("physics: unknown variable")

// Model is an unparameterised cell model. Binding it to parameter values
// yields a solvable system.
type Model interface {
	Name() string
	RequiredParameters() []string
	Variables() []string
	Bind(pv *params.ParameterValues) (Bound, error)
}

// Bound is a model with numbers attached. Evaluate must be safe to call
// concurrently for different points.
type Bound interface {
	dynamo.EventSystem
	InitialState() dynamo.State
	Variables() []string
	Evaluate(name string, x dynamo.State, u dynamo.Control, t float64) (float64, error)
}

// Thermal is implemented by bound models that carry a cell temperature
// in their state vector.
type Thermal interface {
	TemperatureIndex() int
}

var models = map[string]func() Model{
	ThermalDFNName: func() Model { return NewThermalDFN() },
}

func ByName(name string) (Model, error) {
	fn, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownModel, name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
