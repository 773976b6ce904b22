// Package dataset loads the experimental grazing-response measurements and
// scores response curves against them.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/chemosim/internal/dynamo"
	"github.com/san-kum/chemosim/internal/response"
)

const (
	// Measurements are in cells/ml and per-hour rates; the model works in
	// scaled prey density and per-day grazing.
	xScaleUp   = 360.0
	rScaleDown = 1.225

	slopePoint  = 0.1
	slopeCutoff = 0.02
)

var ErrEmpty = errors.New("dataset: no data rows")

type Settings struct {
	File        string  `yaml:"file"`
	Delimiter   string  `yaml:"delimiter"`
	SigmaFactor float64 `yaml:"sigma_factor"`
}

func DefaultSettings() Settings {
	return Settings{Delimiter: ",", SigmaFactor: 1.0}
}

// Data is the scaled reference curve and the noise level used by the likelihood.
type Data struct {
	X     []float64
	R     []float64
	Sigma float64
}

// Load reads a two-column delimited file. Lines starting with '#' are skipped.
func Load(s Settings) (*Data, error) {
	f, err := os.Open(s.File)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()

	x, r, err := parse(f, s.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", s.File, err)
	}
	return New(x, r, s.SigmaFactor)
}

func parse(rd io.Reader, delim string) (x, r []float64, err error) {
	cr := csv.NewReader(rd)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if delim != "" {
		cr.Comma = []rune(delim)[0]
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(rec) < 2 {
			line, _ := cr.FieldPos(0)
			return nil, nil, fmt.Errorf("line %d: want 2 columns, got %d", line, len(rec))
		}
		xv, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			return nil, nil, err
		}
		rv, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, nil, err
		}
		x = append(x, xv)
		r = append(r, rv)
	}
	return x, r, nil
}

// New scales raw measurements and derives sigma from the spread of the
// residuals against the default Ivlev curve.
func New(rawX, rawR []float64, sigmaFactor float64) (*Data, error) {
	if len(rawX) == 0 {
		return nil, ErrEmpty
	}
	if len(rawX) != len(rawR) {
		return nil, fmt.Errorf("%w: %d x values, %d responses", dynamo.ErrDimensionMismatch, len(rawX), len(rawR))
	}

	d := &Data{X: make([]float64, len(rawX)), R: make([]float64, len(rawR))}
	ivlev := response.NewIvlev()
	resid := make([]float64, len(rawX))
	for i := range rawX {
		d.X[i] = rawX[i] * xScaleUp
		d.R[i] = rawR[i] / rScaleDown
		resid[i] = ivlev.Eval(d.X[i]) - d.R[i]
	}
	d.Sigma = sigmaFactor * math.Sqrt(stat.PopVariance(resid, nil))
	if d.Sigma <= 0 || math.IsNaN(d.Sigma) {
		return nil, fmt.Errorf("%w: sigma %g", dynamo.ErrNumerical, d.Sigma)
	}
	return d, nil
}

// Likelihood is the Gaussian misfit of fn against the data, penalised when
// the slope at small prey density exceeds the cutoff.
func (d *Data) Likelihood(fn response.Function) (float64, error) {
	_, df, _ := fn.EvalDerivs(slopePoint)
	factor := 1.0
	if math.Abs(df) > slopeCutoff {
		factor = math.Exp(-2 * (df - slopeCutoff) / slopeCutoff)
	}

	sum := 0.0
	scale := d.Sigma * math.Sqrt2
	for i, x := range d.X {
		dr := (fn.Eval(x) - d.R[i]) / scale
		sum += dr * dr
	}
	l := factor * math.Exp(-sum)
	if math.IsNaN(l) || math.IsInf(l, 0) {
		return 0, fmt.Errorf("%w: likelihood %g", dynamo.ErrNumerical, l)
	}
	return l, nil
}
