package metrics

import (
	"math"

	"github.com/san-kum/cellsim/internal/dynamo"
)

// ChargeThroughput integrates |I| in ampere-hours. Each sample's current
// is held until the next sample.
type ChargeThroughput struct {
	name  string
	sum   float64
	prevU float64
	prevT float64
	first bool
}

func NewChargeThroughput() *ChargeThroughput {
	return &ChargeThroughput{
		name:  "charge_throughput",
		first: true,
	}
}

func (c *ChargeThroughput) Name() string { return c.name }

func (c *ChargeThroughput) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if !c.first {
		c.sum += math.Abs(c.prevU) * (t - c.prevT) / 3600
	}
	if len(u) > 0 {
		c.prevU = u[0]
	}
	c.prevT = t
	c.first = false
}

func (c *ChargeThroughput) Value() float64 { return c.sum }

func (c *ChargeThroughput) Reset() {
	c.sum = 0
	c.prevU = 0
	c.first = true
}

// MeanCurrent is the sample average of |I|.
type MeanCurrent struct {
	name    string
	sum     float64
	samples int
}

func NewMeanCurrent() *MeanCurrent {
	return &MeanCurrent{
		name: "mean_current",
	}
}

func (c *MeanCurrent) Name() string {
	return c.name
}

func (c *MeanCurrent) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) > 0 {
		c.sum += math.Abs(u[0])
	}
	c.samples++
}

func (c *MeanCurrent) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *MeanCurrent) Reset() {
	c.sum = 0
	c.samples = 0
}
