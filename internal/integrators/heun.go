package integrators

import "github.com/san-kum/chemosim/internal/dynamo"

// Heun is the explicit trapezoid rule: an Euler predictor, then the average
// of the slopes at both ends.
type Heun struct {
	k1      dynamo.State
	scratch dynamo.State
}

func NewHeun() *Heun {
	return &Heun{}
}

func (h *Heun) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	if len(h.k1) != n {
		h.k1 = make(dynamo.State, n)
		h.scratch = make(dynamo.State, n)
	}

	copy(h.k1, sys.Derive(x, t))
	for i := 0; i < n; i++ {
		h.scratch[i] = x[i] + dt*h.k1[i]
	}
	k2 := sys.Derive(h.scratch, t+dt)

	result := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		result[i] = x[i] + 0.5*dt*(h.k1[i]+k2[i])
	}
	return result
}

func (h *Heun) Order() int   { return 2 }
func (h *Heun) Name() string { return string(KindHeun) }
