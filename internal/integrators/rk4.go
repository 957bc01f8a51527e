package integrators

import "github.com/san-kum/cellsim/internal/dynamo"

// RK4 is the classic fixed-step fourth order Runge-Kutta method. Stage
// buffers are reused between steps, so an RK4 value must not be shared
// between goroutines.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.ensureScratch(len(x))

	copy(r.k1, dyn.Derive(x, u, t))

	axpy(r.scratch, x, 0.5*dt, r.k1)
	copy(r.k2, dyn.Derive(r.scratch, u, t+0.5*dt))

	axpy(r.scratch, x, 0.5*dt, r.k2)
	copy(r.k3, dyn.Derive(r.scratch, u, t+0.5*dt))

	axpy(r.scratch, x, dt, r.k3)
	copy(r.k4, dyn.Derive(r.scratch, u, t+dt))

	result := make(dynamo.State, len(x))
	dt6 := dt / 6.0
	for i := range x {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}

// axpy writes x + a*k into dst.
func axpy(dst, x dynamo.State, a float64, k dynamo.State) {
	for i := range x {
		dst[i] = x[i] + a*k[i]
	}
}
