// Package spline builds piecewise-cubic functions on a uniform grid from
// their (negated) second derivative.
package spline

import (
	"fmt"
	"math"
)

// Solver holds a cubic spline on [0, XMax] with N nodes and N-1 intervals.
// Interval i covers [i*h, (i+1)*h] and stores f = c0 + c1 t + c2 t^2 + c3 t^3
// in the local coordinate t = (x - i*h)/h.
type Solver struct {
	XMax   float64
	N      int
	h      float64
	coeffs []float64
}

func NewSolver(xMax float64, nx int) (*Solver, error) {
	if nx < 2 {
		return nil, fmt.Errorf("spline: need at least 2 nodes, got %d", nx)
	}
	if xMax <= 0 {
		return nil, fmt.Errorf("spline: x_max must be positive, got %g", xMax)
	}
	return &Solver{
		XMax:   xMax,
		N:      nx,
		h:      xMax / float64(nx-1),
		coeffs: make([]float64, 4*(nx-1)),
	}, nil
}

// Nodes returns the grid points i*h, i = 0..N-1.
func (s *Solver) Nodes() []float64 {
	x := make([]float64, s.N)
	for i := range x {
		x[i] = float64(i) * s.h
	}
	return x
}

func (s *Solver) Spacing() float64 { return s.h }

// Solve computes the spline whose second derivative is the linear interpolant
// of -w, with f(0) = 0 and f'(XMax) = 0.
func (s *Solver) Solve(w []float64) error {
	if len(w) != s.N {
		return fmt.Errorf("spline: got %d node values, want %d", len(w), s.N)
	}
	n, h, c := s.N, s.h, s.coeffs

	for i := 0; i < n-1; i++ {
		c[4*i+2] = -(h * h / 2) * w[i]
		c[4*i+3] = -(h * h / 6) * (w[i+1] - w[i])
	}

	last := 4 * (n - 2)
	c[last+1] = -2*c[last+2] - 3*c[last+3]
	for i := n - 3; i >= 0; i-- {
		c[4*i+1] = c[4*(i+1)+1] - 2*c[4*i+2] - 3*c[4*i+3]
	}

	c[0] = 0
	for i := 0; i < n-2; i++ {
		c[4*(i+1)] = c[4*i] + c[4*i+1] + c[4*i+2] + c[4*i+3]
	}
	return nil
}

// locate returns the interval index holding x, -1 below the grid and N-1 at
// or beyond its last node.
func (s *Solver) locate(x float64) int {
	if x < 0 {
		return -1
	}
	i := int(math.Floor(x / s.h))
	if i > s.N-1 {
		i = s.N - 1
	}
	return i
}

func (s *Solver) interval(i int) (c0, c1, c2, c3 float64) {
	c := s.coeffs[4*i : 4*i+4]
	return c[0], c[1], c[2], c[3]
}

func (s *Solver) endValue() float64 {
	c0, c1, c2, c3 := s.interval(s.N - 2)
	return c0 + c1 + c2 + c3
}

func (s *Solver) Interpolate(x float64) float64 {
	i := s.locate(x)
	switch {
	case i < 0:
		return 0
	case i >= s.N-1:
		return s.endValue()
	}
	t := (x - float64(i)*s.h) / s.h
	c0, c1, c2, c3 := s.interval(i)
	return c0 + t*(c1+t*(c2+t*c3))
}

// InterpolateDerivs returns f, f' and f'' at x. Beyond the grid the
// function is held constant.
func (s *Solver) InterpolateDerivs(x float64) (f, df, d2f float64) {
	i := s.locate(x)
	switch {
	case i < 0:
		return 0, 0, 0
	case i >= s.N-1:
		return s.endValue(), 0, 0
	}
	t := (x - float64(i)*s.h) / s.h
	c0, c1, c2, c3 := s.interval(i)
	f = c0 + t*(c1+t*(c2+t*c3))
	df = (c1 + t*(2*c2+t*3*c3)) / s.h
	d2f = (2*c2 + t*6*c3) / s.h / s.h
	return f, df, d2f
}

func (s *Solver) Deriv1(x float64) float64 {
	_, df, _ := s.InterpolateDerivs(x)
	return df
}

func (s *Solver) Deriv2(x float64) float64 {
	_, _, d2f := s.InterpolateDerivs(x)
	return d2f
}

// LinearInterp evaluates the piecewise-linear interpolant of w at x, zero
// outside the grid.
func (s *Solver) LinearInterp(w []float64, x float64) float64 {
	i := s.locate(x)
	if i < 0 || i >= s.N-1 {
		return 0
	}
	x0 := float64(i) * s.h
	x1 := float64(i+1) * s.h
	return (x-x0)/s.h*w[i+1] - (x-x1)/s.h*w[i]
}
