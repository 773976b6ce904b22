package proposal

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

type SplineSettings struct {
	// LimiterSigmas is the half-width of the proposal window in smoothed sigmas.
	LimiterSigmas float64 `yaml:"limiter_sigmas"`
	// FilterWidth is the Gaussian smoothing width in grid points.
	FilterWidth float64 `yaml:"filter_width"`
	// PreviousWeight in [0, 1] blends the current point into each proposal.
	PreviousWeight float64 `yaml:"previous_weight"`
}

func DefaultSplineSettings() SplineSettings {
	return SplineSettings{LimiterSigmas: 5, FilterWidth: 4, PreviousWeight: 0.1}
}

// SplineBeta proposes spline node values by drawing each log component from
// a symmetric Beta window around a fitted initial curve, blending with the
// current point and smoothing along the grid.
type SplineBeta struct {
	grid     []float64
	settings SplineSettings
	a, b     []float64
	sigma    []float64
	beta     []distuv.Beta
}

func NewSplineBeta(grid []float64, s SplineSettings, src rand.Source) (*SplineBeta, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("proposal: empty spline grid")
	}
	if s.LimiterSigmas <= 1 {
		return nil, fmt.Errorf("proposal: limiter must exceed 1 sigma, got %g", s.LimiterSigmas)
	}
	if s.PreviousWeight < 0 || s.PreviousWeight > 1 {
		return nil, fmt.Errorf("proposal: previous weight %g outside [0, 1]", s.PreviousWeight)
	}

	n := len(grid)
	g := &SplineBeta{
		grid:     grid,
		settings: s,
		a:        make([]float64, n),
		b:        make([]float64, n),
		beta:     make([]distuv.Beta, n),
	}

	raw := make([]float64, n)
	for i, x := range grid {
		raw[i] = sigLogFit(x)
	}
	g.sigma = gaussianFilter1D(raw, s.FilterWidth)

	for i, x := range grid {
		logInit := logInitFit(x)
		g.a[i] = logInit - s.LimiterSigmas*g.sigma[i]
		g.b[i] = logInit + s.LimiterSigmas*g.sigma[i]
		r := (g.b[i] - g.a[i]) / g.sigma[i]
		shape := (r*r - 4) / 8
		g.beta[i] = distuv.Beta{Alpha: shape, Beta: shape, Src: src}
	}
	return g, nil
}

// logInitFit is a quadratic fit to the log of typical node values.
func logInitFit(x float64) float64 {
	return -6.37288 + x*(-0.17217+0.000925601*x)
}

func sigLogFit(x float64) float64 {
	return 3.273 + 0.0297*x + 4.7269/(1+x)
}

func (g *SplineBeta) Init() []float64 {
	out := make([]float64, len(g.grid))
	for i, x := range g.grid {
		out[i] = math.Exp(logInitFit(x))
	}
	return out
}

// Bounds returns the log-space window [a, b] of every component.
func (g *SplineBeta) Bounds() (a, b []float64) {
	return append([]float64(nil), g.a...), append([]float64(nil), g.b...)
}

func (g *SplineBeta) Proposal(current []float64) []float64 {
	w := g.settings.PreviousWeight
	logf := logVec(current)
	for i := range logf {
		xi := g.beta[i].Rand()
		logf[i] = w*logf[i] + (1-w)*(g.a[i]+(g.b[i]-g.a[i])*xi)
	}
	return expVec(gaussianFilter1D(logf, g.settings.FilterWidth))
}
