package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/cellsim/internal/dynamo"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

// decay is dx/dt = -k x + u, a first order lag like a lumped thermal node.
type decay struct{ k float64 }

func (d *decay) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	in := 0.0
	if len(u) > 0 {
		in = u[0]
	}
	return dynamo.State{-d.k*x[0] + in}
}

func (d *decay) StateDim() int   { return 1 }
func (d *decay) ControlDim() int { return 1 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x0 := dynamo.State{1.0, 0.0}
	u := dynamo.Control{}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK4_FirstOrderLagWithInput(t *testing.T) {
	dyn := &decay{k: 1.0 / 120}
	integ := NewRK4()
	u := dynamo.Control{0.5 / 120}

	x := dynamo.State{0}
	dt := 1.0
	for i := 0; i < 600; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	expected := 0.5 * (1 - math.Exp(-600.0/120))
	if math.Abs(x[0]-expected) > 1e-8 {
		t.Errorf("got %.10f, expected %.10f", x[0], expected)
	}
}

func TestEulerFirstOrderConvergence(t *testing.T) {
	dyn := &decay{k: 1}
	integ := NewEuler()

	errAt := func(dt float64) float64 {
		x := dynamo.State{1}
		n := int(1 / dt)
		for i := 0; i < n; i++ {
			x = integ.Step(dyn, x, dynamo.Control{0}, float64(i)*dt, dt)
		}
		return math.Abs(x[0] - math.Exp(-1))
	}

	ratio := errAt(0.01) / errAt(0.005)
	if ratio < 1.8 || ratio > 2.2 {
		t.Errorf("expected error ratio ~2 for a first order method, got %.3f", ratio)
	}
}
