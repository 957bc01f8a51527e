package metrics

import (
	"math"

	"github.com/san-kum/cellsim/internal/dynamo"
)

// MaxTemperature tracks the peak of one state entry, in kelvin.
type MaxTemperature struct {
	name  string
	index int
	max   float64
}

func NewMaxTemperature(index int) *MaxTemperature {
	return &MaxTemperature{
		name:  "max_temperature",
		index: index,
		max:   math.Inf(-1),
	}
}

func (m *MaxTemperature) Name() string { return m.name }

func (m *MaxTemperature) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if m.index < len(x) && x[m.index] > m.max {
		m.max = x[m.index]
	}
}

func (m *MaxTemperature) Value() float64 {
	if math.IsInf(m.max, -1) {
		return math.NaN()
	}
	return m.max
}

func (m *MaxTemperature) Reset() {
	m.max = math.Inf(-1)
}
