package params

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Function is a functional parameter such as an open-circuit potential
// curve. Arguments are model defined; OCP curves take the stoichiometry.
type Function func(args ...float64) float64

// ParameterValues maps parameter names to numbers or Functions. A value is
// not safe for concurrent mutation; use Copy to hand one to another goroutine.
type ParameterValues struct {
	values map[string]any
}

// New builds a parameter set from raw values. Accepted value types are the
// Go numeric kinds, Function, func(float64) float64 and
// func(float64, float64) float64.
func New(values map[string]any) (*ParameterValues, error) {
	pv := &ParameterValues{values: make(map[string]any, len(values))}
	for name, raw := range values {
		v, err := normalize(name, raw)
		if err != nil {
			return nil, err
		}
		pv.values[name] = v
	}
	return pv, nil
}

// FromPreset builds a parameter set from a named preset.
func FromPreset(name string) (*ParameterValues, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, name, Presets())
	}
	return New(build())
}

// Update overrides existing values. With checkAlreadyExists every key must
// already be present; the first unknown key fails the whole update and
// nothing is applied. Without it, unknown keys are added.
func (pv *ParameterValues) Update(values map[string]any, checkAlreadyExists bool) error {
	normalized := make(map[string]any, len(values))
	var unknown []string

	for name, raw := range values {
		v, err := normalize(name, raw)
		if err != nil {
			return err
		}
		if _, ok := pv.values[name]; !ok && checkAlreadyExists {
			unknown = append(unknown, name)
		}
		normalized[name] = v
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s (pass checkAlreadyExists=false to add new parameters)",
			ErrUnknownParameter, strings.Join(quoteAll(unknown), ", "))
	}

	for name, v := range normalized {
		pv.values[name] = v
	}
	return nil
}

func (pv *ParameterValues) Get(name string) (any, bool) {
	v, ok := pv.values[name]
	return v, ok
}

func (pv *ParameterValues) Has(name string) bool {
	_, ok := pv.values[name]
	return ok
}

// Float returns a numeric parameter.
func (pv *ParameterValues) Float(name string) (float64, error) {
	v, ok := pv.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingParameter, name)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %q is a function, expected a number", ErrWrongKind, name)
	}
	return f, nil
}

// Func returns a functional parameter. A numeric value is returned as a
// constant function.
func (pv *ParameterValues) Func(name string) (Function, error) {
	v, ok := pv.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingParameter, name)
	}
	switch fn := v.(type) {
	case Function:
		return fn, nil
	case float64:
		return func(...float64) float64 { return fn }, nil
	default:
		return nil, fmt.Errorf("%w: %q has type %T", ErrWrongKind, name, v)
	}
}

// IsFunction reports whether name holds a Function.
func (pv *ParameterValues) IsFunction(name string) bool {
	_, ok := pv.values[name].(Function)
	return ok
}

func (pv *ParameterValues) Keys() []string {
	keys := make([]string, 0, len(pv.values))
	for k := range pv.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (pv *ParameterValues) Len() int { return len(pv.values) }

// Search returns the sorted keys containing substr, ignoring case.
func (pv *ParameterValues) Search(substr string) []string {
	needle := strings.ToLower(substr)
	var out []string
	for _, k := range pv.Keys() {
		if strings.Contains(strings.ToLower(k), needle) {
			out = append(out, k)
		}
	}
	return out
}

// Copy returns an independent parameter set. Functions are shared; they
// must be pure.
func (pv *ParameterValues) Copy() *ParameterValues {
	out := &ParameterValues{values: make(map[string]any, len(pv.values))}
	for k, v := range pv.values {
		out.values[k] = v
	}
	return out
}

// Numbers returns the numeric parameters only, for display and persistence.
func (pv *ParameterValues) Numbers() map[string]float64 {
	out := make(map[string]float64)
	for k, v := range pv.values {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}

// Format renders a value for display.
func (pv *ParameterValues) Format(name string) string {
	switch v := pv.values[name].(type) {
	case float64:
		return fmt.Sprintf("%g", v)
	case Function:
		return "<function>"
	default:
		return "<missing>"
	}
}

func normalize(name string, raw any) (any, error) {
	var f float64
	switch v := raw.(type) {
	case Function:
		if v == nil {
			return nil, fmt.Errorf("%w: %q is a nil function", ErrInvalidValue, name)
		}
		return v, nil
	case func(float64) float64:
		return Function(func(args ...float64) float64 { return v(arg(args, 0)) }), nil
	case func(float64, float64) float64:
		return Function(func(args ...float64) float64 { return v(arg(args, 0), arg(args, 1)) }), nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	default:
		return nil, fmt.Errorf("%w: %q has type %T", ErrInvalidValue, name, raw)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %q is not finite", ErrInvalidValue, name)
	}
	return f, nil
}

func arg(args []float64, i int) float64 {
	if i < len(args) {
		return args[i]
	}
	return 0
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
