package metrics

import "github.com/san-kum/cellsim/internal/dynamo"

// Probe evaluates a scalar output at a solver point.
type Probe func(x dynamo.State, u dynamo.Control, t float64) float64

// Energy integrates V*I in watt-hours delivered by the cell.
type Energy struct {
	name    string
	voltage Probe
	sum     float64
	prevP   float64
	prevT   float64
	first   bool
}

func NewEnergy(voltage Probe) *Energy {
	return &Energy{
		name:    "energy",
		voltage: voltage,
		first:   true,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) == 0 {
		return
	}
	p := e.voltage(x, u, t) * u[0]
	if !e.first {
		e.sum += 0.5 * (p + e.prevP) * (t - e.prevT) / 3600
	}
	e.prevP = p
	e.prevT = t
	e.first = false
}

func (e *Energy) Value() float64 { return e.sum }

func (e *Energy) Reset() {
	e.sum = 0
	e.first = true
}
