// Package proposal generates candidate parameter vectors for the
// Metropolis-Hastings sampler. All generators work in log space so every
// component of a proposal is positive.
package proposal

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/san-kum/chemosim/internal/response"
)

// Generator proposes a new point from the current one. Proposal never
// modifies or returns current.
type Generator interface {
	Proposal(current []float64) []float64
	Init() []float64
}

type Kind string

const (
	KindLogNormal Kind = "lognormal"
	KindSpline    Kind = "spline"
)

type Settings struct {
	Type   Kind           `yaml:"type"`
	Sigma  []float64      `yaml:"sigma"`
	Spline SplineSettings `yaml:"spline"`
}

func DefaultSettings() Settings {
	return Settings{
		Sigma:  []float64{0.1, 0.1},
		Spline: DefaultSplineSettings(),
	}
}

// New picks the generator for fn. An empty type selects the spline generator
// for spline responses and the log-normal walk otherwise.
func New(s Settings, fn response.Function, src rand.Source) (Generator, error) {
	kind := Kind(strings.ToLower(string(s.Type)))
	sp, isSpline := fn.(*response.Spline)
	if kind == "" {
		kind = KindLogNormal
		if isSpline {
			kind = KindSpline
		}
	}

	switch kind {
	case KindLogNormal, "multiparam":
		return NewLogNormal(fn.Params(), s.Sigma, src)
	case KindSpline:
		if !isSpline {
			return nil, fmt.Errorf("proposal: spline generator needs a spline response, got %s", fn.Name())
		}
		return NewSplineBeta(sp.Grid(), s.Spline, src)
	default:
		return nil, fmt.Errorf("proposal: unknown generator type %q", s.Type)
	}
}

func logVec(f []float64) []float64 {
	out := make([]float64, len(f))
	for i, v := range f {
		out[i] = math.Log(v)
	}
	return out
}

func expVec(f []float64) []float64 {
	out := make([]float64, len(f))
	for i, v := range f {
		out[i] = math.Exp(v)
	}
	return out
}
