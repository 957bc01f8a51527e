package dynamo

import "math"

// LookupTable holds precomputed samples of a scalar function on [lo, hi].
// Values between samples are linearly interpolated and arguments outside
// the range are clamped to the nearest end.
type LookupTable struct {
	values []float64
	lo, hi float64
	n      int
}

// NewLookupTable samples fn at n+1 evenly spaced points over [lo, hi].
func NewLookupTable(fn func(float64) float64, lo, hi float64, n int) *LookupTable {
	if n < 1 {
		n = 1
	}
	t := &LookupTable{
		values: make([]float64, n+1),
		lo:     lo,
		hi:     hi,
		n:      n,
	}

	step := (hi - lo) / float64(n)
	for i := 0; i <= n; i++ {
		t.values[i] = fn(lo + float64(i)*step)
	}

	return t
}

// At returns the interpolated table value at x.
func (t *LookupTable) At(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	if x <= t.lo {
		return t.values[0]
	}
	if x >= t.hi {
		return t.values[t.n]
	}

	idx := (x - t.lo) * float64(t.n) / (t.hi - t.lo)
	i := int(idx)
	if i >= t.n {
		return t.values[t.n]
	}
	frac := idx - float64(i)

	return t.values[i]*(1-frac) + t.values[i+1]*frac
}

// Range returns the sampled interval.
func (t *LookupTable) Range() (float64, float64) {
	return t.lo, t.hi
}
