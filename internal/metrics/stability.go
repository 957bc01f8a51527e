package metrics

import "github.com/san-kum/cellsim/internal/dynamo"

// Stability is the fraction of samples with one state entry inside
// [lo, hi], e.g. the cell temperature inside its operating window.
type Stability struct {
	name       string
	index      int
	lo, hi     float64
	violations int
	samples    int
}

func NewStability(name string, index int, lo, hi float64) *Stability {
	return &Stability{
		name:  name,
		index: index,
		lo:    lo,
		hi:    hi,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if s.index >= len(x) {
		return
	}
	s.samples++
	if v := x[s.index]; v < s.lo || v > s.hi {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
