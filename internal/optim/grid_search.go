// Package optim scans response parameters on a grid for a good starting point.
package optim

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/chemosim/internal/dynamo"
)

// Objective scores one parameter vector. Larger is better.
type Objective func(params []float64) (float64, error)

type GridSearch struct {
	ranges [][]float64
}

// NewGridSearch searches the product of ranges, one range per parameter.
func NewGridSearch(ranges [][]float64) *GridSearch {
	return &GridSearch{ranges: ranges}
}

// LogSpace returns n values spaced evenly in log scale between lo and hi.
func LogSpace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	a, b := math.Log(lo), math.Log(hi)
	for i := range out {
		out[i] = math.Exp(a + (b-a)*float64(i)/float64(n-1))
	}
	return out
}

// Result is the best grid point and how many points were scored.
type Result struct {
	Params    []float64
	Score     float64
	Evaluated int
	Failed    int
}

// Search evaluates obj at every grid point. Recoverable failures are counted
// and skipped; other errors stop the search.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (Result, error) {
	res := Result{Score: math.Inf(-1)}
	if len(g.ranges) == 0 {
		return res, fmt.Errorf("optim: empty grid")
	}
	current := make([]float64, len(g.ranges))
	if err := g.searchRecursive(ctx, 0, current, obj, &res); err != nil {
		return res, err
	}
	if res.Params == nil {
		return res, fmt.Errorf("%w: no grid point could be scored", dynamo.ErrNumerical)
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current []float64, obj Objective, res *Result) error {
	if depth == len(g.ranges) {
		if err := ctx.Err(); err != nil {
			return err
		}
		score, err := obj(current)
		res.Evaluated++
		if err != nil {
			if dynamo.IsRecoverable(err) {
				res.Failed++
				return nil
			}
			return err
		}
		if score > res.Score {
			res.Score = score
			res.Params = slices.Clone(current)
		}
		return nil
	}

	for _, val := range g.ranges[depth] {
		current[depth] = val
		if err := g.searchRecursive(ctx, depth+1, current, obj, res); err != nil {
			return err
		}
	}
	return nil
}
