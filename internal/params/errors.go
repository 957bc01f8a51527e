package params

import "errors"

var (
	// ErrUnknownParameter is returned by Update when a key is not already
	// present and new keys are not allowed.
	ErrUnknownParameter = errors.New("params: unknown parameter")

	// ErrMissingParameter is returned when a model needs a key the set lacks.
	ErrMissingParameter = errors.New("params: missing parameter")

	// ErrWrongKind is returned when a value is a number where a function is
	// expected or the other way round.
	ErrWrongKind = errors.New("params: wrong parameter kind")

	// ErrInvalidValue is returned for values that are neither numbers nor functions.
	ErrInvalidValue = errors.New("params: invalid parameter value")

	ErrUnknownPreset = errors.New("params: unknown preset")
)
