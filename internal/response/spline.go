package response

import (
	"fmt"
	"slices"

	"github.com/san-kum/chemosim/internal/spline"
)

type SplineSettings struct {
	XMax float64 `yaml:"x_max"`
	NX   int     `yaml:"nx"`
}

func DefaultSplineSettings() SplineSettings {
	return SplineSettings{XMax: 90, NX: 64}
}

// Spline is a response curve parameterised by minus its second derivative at
// NX evenly spaced nodes on [0, XMax], with g(0) = 0 and g'(XMax) = 0.
type Spline struct {
	solver *spline.Solver
	w      []float64
}

func NewSpline(s SplineSettings) (*Spline, error) {
	solver, err := spline.NewSolver(s.XMax, s.NX)
	if err != nil {
		return nil, err
	}
	sp := &Spline{solver: solver, w: make([]float64, s.NX)}
	if err := solver.Solve(sp.w); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Spline) Name() string { return "Spline" }

func (s *Spline) SetParams(p []float64) error {
	if len(p) != s.solver.N {
		return fmt.Errorf("%w: got %d, want %d", ErrParamCount, len(p), s.solver.N)
	}
	s.w = slices.Clone(p)
	return s.solver.Solve(s.w)
}

func (s *Spline) Params() []float64 { return slices.Clone(s.w) }

func (s *Spline) Eval(y float64) float64 { return s.solver.Interpolate(y) }

func (s *Spline) EvalDerivs(y float64) (float64, float64, float64) {
	return s.solver.InterpolateDerivs(y)
}

// Grid returns the node positions.
func (s *Spline) Grid() []float64 { return s.solver.Nodes() }

func (s *Spline) XMax() float64 { return s.solver.XMax }

// SetParamsFromResponse fits the spline to fn by taking finite-difference
// second derivatives of fn at the nodes, one-sided at both ends. It returns
// the resulting parameter vector.
func (s *Spline) SetParamsFromResponse(fn interface{ Eval(float64) float64 }) ([]float64, error) {
	x := s.Grid()
	nx := len(x)
	xMax := s.solver.XMax
	eps := 1e-7 * xMax
	eps2 := eps * eps

	w := make([]float64, nx)
	w[0] = -(2*fn.Eval(0) - 5*fn.Eval(eps) + 4*fn.Eval(2*eps) - fn.Eval(3*eps)) / eps2
	for i := 1; i < nx-1; i++ {
		w[i] = (2*fn.Eval(x[i]) - fn.Eval(x[i]-eps) - fn.Eval(x[i]+eps)) / eps2
	}
	w[nx-1] = -(2*fn.Eval(xMax) - 5*fn.Eval(xMax-eps) + 4*fn.Eval(xMax-2*eps) - fn.Eval(xMax-3*eps)) / eps2

	if err := s.SetParams(w); err != nil {
		return nil, err
	}
	return slices.Clone(w), nil
}
