package control

import (
	"math"

	"github.com/san-kum/cellsim/internal/dynamo"
)

// Derate wraps a current drive with a PID loop on one state entry,
// usually the cell temperature. Above Limit the drive is reduced; the
// output never reverses the sign of the base current.
type Derate struct {
	Base  dynamo.Controller
	Index int
	Limit float64

	Kp, Ki, Kd float64

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewDerate(base dynamo.Controller, index int, limit float64) *Derate {
	return &Derate{
		Base:  base,
		Index: index,
		Limit: limit,
		Kp:    0.5,
		Ki:    0.01,
		Kd:    0,
		first: true,
	}
}

func (d *Derate) Compute(x dynamo.State, t float64) dynamo.Control {
	u := d.Base.Compute(x, t)
	if d.Index >= len(x) || len(u) == 0 {
		return u
	}

	err := x[d.Index] - d.Limit
	cut := d.Kp * err

	if d.first {
		d.prevErr = err
		d.prevT = t
		d.first = false
	} else if dt := t - d.prevT; dt > 0 {
		d.integral += err * dt
		// anti-windup: only accumulate while hot
		if d.integral < 0 {
			d.integral = 0
		}
		cut += d.Ki*d.integral + d.Kd*(err-d.prevErr)/dt
		d.prevErr = err
		d.prevT = t
	}

	if cut <= 0 {
		return u
	}
	base := u[0]
	out := u.Clone()
	out[0] = math.Copysign(math.Max(math.Abs(base)-cut, 0), base)
	return out
}

// Reset clears integral and derivative state
func (d *Derate) Reset() {
	d.integral = 0
	d.prevErr = 0
	d.first = true
}
