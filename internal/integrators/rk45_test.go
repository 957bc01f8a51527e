package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cellsim/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int   { return 2 }
func (h *harmonicOscillator) ControlDim() int { return 0 }

func (h *harmonicOscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		x = integrator.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	assert.True(t, x.IsValid(), "RK45 produced invalid state")
	assert.InDelta(t, math.Cos(10), x[0], 1e-8)
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x = integrator.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	drift := math.Abs(dyn.Energy(x)-initialEnergy) / initialEnergy
	assert.Less(t, drift, 1e-6, "RK45 energy drift too high")
}

func TestRK45_AdaptiveStepAccepted(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, newDt, err := integrator.StepAdaptive(dyn, x0, nil, 0, 0.01, 1e-6)
	require.NoError(t, err)
	assert.True(t, x.IsValid())
	assert.Greater(t, newDt, 0.01, "an easy step should suggest growing dt")
}

func TestRK45_AdaptiveStepRejected(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, newDt, err := integrator.StepAdaptive(dyn, x0, nil, 0, 2.0, 1e-12)
	require.True(t, errors.Is(err, dynamo.ErrStepRejected))
	assert.Equal(t, x0, x, "rejected step must return the input state")
	assert.Less(t, newDt, 2.0)
	assert.GreaterOrEqual(t, newDt, 2.0*0.2)
}

func TestByName(t *testing.T) {
	for _, name := range []string{"euler", "rk4", "rk45"} {
		integ, err := ByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, integ)
	}

	_, err := ByName("verlet")
	assert.ErrorIs(t, err, ErrUnknownIntegrator)
	assert.Equal(t, []string{"euler", "rk4", "rk45"}, Names())
}
