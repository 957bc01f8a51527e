package integrators

import (
	"testing"

	"github.com/san-kum/cellsim/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int   { return 4 }
func (b *benchDynamics) ControlDim() int { return 1 }
func (b *benchDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-u[0] * 1e-4, u[0] * 1e-4, (u[0]*u[0]*0.01 - (x[2]-298.15)/2) / 60, u[0] / 3600}
}

func benchmarkIntegrator(b *testing.B, integrator dynamo.Integrator) {
	dyn := &benchDynamics{}
	x := dynamo.State{0.9, 0.27, 298.15, 0}
	u := dynamo.Control{5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, u, 0, 1)
	}
}

func BenchmarkEuler(b *testing.B) { benchmarkIntegrator(b, NewEuler()) }
func BenchmarkRK4(b *testing.B)   { benchmarkIntegrator(b, NewRK4()) }
func BenchmarkRK45(b *testing.B)  { benchmarkIntegrator(b, NewRK45()) }
