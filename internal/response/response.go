// Package response implements the predator functional-response families g(y)
// plugged into the chemostat model.
package response

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var ErrParamCount = errors.New("response: wrong number of parameters")

// Function is a parameterised response curve. SetParams replaces the
// parameter vector; Params returns a copy.
type Function interface {
	Eval(y float64) float64
	EvalDerivs(y float64) (f, df, d2f float64)
	SetParams(p []float64) error
	Params() []float64
	Name() string
}

type twoParam struct {
	a, b float64
}

func (tp *twoParam) set(p []float64) error {
	if len(p) != 2 {
		return fmt.Errorf("%w: got %d, want 2", ErrParamCount, len(p))
	}
	tp.a, tp.b = p[0], p[1]
	return nil
}

func (tp *twoParam) Params() []float64 { return []float64{tp.a, tp.b} }

// Holling is the type II response a*y/(1+b*y).
type Holling struct{ twoParam }

func NewHolling() *Holling { return &Holling{twoParam{0.015, 0.18}} }

func (h *Holling) Name() string                { return "Holling" }
func (h *Holling) SetParams(p []float64) error { return h.set(p) }

func (h *Holling) Eval(y float64) float64 {
	return h.a * y / (1 + h.b*y)
}

func (h *Holling) EvalDerivs(y float64) (float64, float64, float64) {
	den := 1 + h.b*y
	f := h.a / den
	return f * y, f / den, -2 * h.b * f / den / den
}

// Ivlev is a/b*(1-exp(-b*y)).
type Ivlev struct{ twoParam }

func NewIvlev() *Ivlev { return &Ivlev{twoParam{0.011, 0.15}} }

func (iv *Ivlev) Name() string                { return "Ivlev" }
func (iv *Ivlev) SetParams(p []float64) error { return iv.set(p) }

func (iv *Ivlev) Eval(y float64) float64 {
	return iv.a / iv.b * (1 - math.Exp(-iv.b*y))
}

func (iv *Ivlev) EvalDerivs(y float64) (float64, float64, float64) {
	ex := math.Exp(-iv.b * y)
	return iv.a / iv.b * (1 - ex), iv.a * ex, -iv.a * iv.b * ex
}

// Tanh is a/b*tanh(b*y).
type Tanh struct{ twoParam }

func NewTanh() *Tanh { return &Tanh{twoParam{0.0082, 0.11}} }

func (th *Tanh) Name() string                { return "Tanh" }
func (th *Tanh) SetParams(p []float64) error { return th.set(p) }

func (th *Tanh) Eval(y float64) float64 {
	return th.a / th.b * math.Tanh(th.b*y)
}

func (th *Tanh) EvalDerivs(y float64) (float64, float64, float64) {
	t := math.Tanh(th.b * y)
	s := 1 / math.Cosh(th.b*y)
	return th.a / th.b * t, th.a * s * s, -2 * th.a * th.b * t * s * s
}

// Combination averages Holling, Ivlev and Tanh. Its six parameters are the
// three pairs in that order.
type Combination struct {
	holling *Holling
	ivlev   *Ivlev
	tanh    *Tanh
}

func NewCombination() *Combination {
	return &Combination{holling: NewHolling(), ivlev: NewIvlev(), tanh: NewTanh()}
}

func (c *Combination) Name() string { return "Combination" }

func (c *Combination) parts() []Function { return []Function{c.holling, c.ivlev, c.tanh} }

func (c *Combination) SetParams(p []float64) error {
	if len(p) != 6 {
		return fmt.Errorf("%w: got %d, want 6", ErrParamCount, len(p))
	}
	for i, fn := range c.parts() {
		if err := fn.SetParams(p[2*i : 2*i+2]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Combination) Params() []float64 {
	var p []float64
	for _, fn := range c.parts() {
		p = append(p, fn.Params()...)
	}
	return p
}

func (c *Combination) Eval(y float64) float64 {
	sum := 0.0
	for _, fn := range c.parts() {
		sum += fn.Eval(y)
	}
	return sum / 3
}

func (c *Combination) EvalDerivs(y float64) (float64, float64, float64) {
	var f, df, d2f float64
	for _, fn := range c.parts() {
		a, b, cc := fn.EvalDerivs(y)
		f += a
		df += b
		d2f += cc
	}
	return f / 3, df / 3, d2f / 3
}

// DefaultParams returns the default parameter vector of an analytic family.
func DefaultParams(kind Kind) ([]float64, error) {
	fn, err := New(kind, DefaultSplineSettings())
	if err != nil {
		return nil, err
	}
	return slices.Clone(fn.Params()), nil
}
