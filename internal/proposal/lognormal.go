package proposal

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// LogNormal is a random walk in log space. A relative step size delta maps to
// sigma = ln(|1+delta| / |1-delta|); a single delta applies to every component.
type LogNormal struct {
	init   []float64
	sigma  []float64
	normal distuv.Normal
}

func NewLogNormal(init, delta []float64, src rand.Source) (*LogNormal, error) {
	n := len(init)
	switch {
	case n == 0:
		return nil, fmt.Errorf("proposal: empty initial point")
	case len(delta) == 1:
		delta = slices.Repeat(delta, n)
	case len(delta) != n:
		return nil, fmt.Errorf("proposal: %d step sizes for %d parameters", len(delta), n)
	}

	sigma := make([]float64, n)
	for i, d := range delta {
		sigma[i] = math.Log(math.Abs(1+d) / math.Abs(1-d))
	}
	return &LogNormal{
		init:   slices.Clone(init),
		sigma:  sigma,
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}, nil
}

func (g *LogNormal) Init() []float64 { return slices.Clone(g.init) }

func (g *LogNormal) Sigma() []float64 { return slices.Clone(g.sigma) }

func (g *LogNormal) Proposal(current []float64) []float64 {
	logf := logVec(current)
	for i := range logf {
		logf[i] += g.sigma[i] * g.normal.Rand()
	}
	return expVec(logf)
}
