package analysis

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/chemosim/internal/dynamo"
)

// Label is the long-run behaviour of a trajectory.
type Label int

const (
	LimitPoint Label = iota
	LimitCycle
)

func (l Label) String() string {
	switch l {
	case LimitPoint:
		return "limit point"
	case LimitCycle:
		return "limit cycle"
	default:
		return "unknown"
	}
}

// Spread returns the largest per-component range (max - min) over the last
// min(rows, window) rows of m.
func Spread(m mat.Matrix, window int) float64 {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 || window <= 0 {
		return 0
	}
	n := min(rows, window)

	col := make([]float64, n)
	spread := 0.0
	for j := 0; j < cols; j++ {
		for i := 0; i < n; i++ {
			col[i] = m.At(rows-n+i, j)
		}
		spread = max(spread, floats.Max(col)-floats.Min(col))
	}
	return spread
}

// Classify labels a trajectory, one state per row, as a limit point when
// every component of the final window varies by at most tol.
func Classify(m mat.Matrix, window int, tol float64) Label {
	if Spread(m, window) <= tol {
		return LimitPoint
	}
	return LimitCycle
}

type ClassifierSettings struct {
	NumStepsToCheck     int     `yaml:"num_steps_to_check"`
	LimitPointTolerance float64 `yaml:"limit_point_tolerance"`
	Verbosity           int     `yaml:"verbosity"`
}

func DefaultClassifierSettings() ClassifierSettings {
	return ClassifierSettings{NumStepsToCheck: 100, LimitPointTolerance: 0.01}
}

// Classifier sorts sampled parameter sets by the behaviour of their runs.
// The parameter collections are append-only.
type Classifier struct {
	settings ClassifierSettings
	log      *slog.Logger

	SampleCount     int
	LimitPointCount int
	LimitPoints     [][]float64
	LimitCycles     [][]float64
}

func NewClassifier(settings ClassifierSettings, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{settings: settings, log: logger}
}

// Process classifies one run and files a copy of its parameters.
func (c *Classifier) Process(params []float64, traj *dynamo.Trajectory) error {
	c.SampleCount++
	if c.SampleCount%100 == 0 && c.settings.Verbosity > 0 {
		c.log.Info("classifier progress", "limit_points", c.LimitPointCount, "samples", c.SampleCount)
	}

	switch Classify(traj.Matrix(), c.settings.NumStepsToCheck, c.settings.LimitPointTolerance) {
	case LimitPoint:
		c.LimitPointCount++
		c.LimitPoints = append(c.LimitPoints, slices.Clone(params))
	default:
		c.LimitCycles = append(c.LimitCycles, slices.Clone(params))
	}
	return nil
}

func (c *Classifier) Report() {
	c.log.Info("classification", "limit_points", len(c.LimitPoints), "limit_cycles", len(c.LimitCycles))
}

func (c *Classifier) Finalize() error {
	if c.settings.Verbosity > 0 {
		c.log.Info("classification done", "samples", c.SampleCount,
			"limit_points", len(c.LimitPoints), "limit_cycles", len(c.LimitCycles))
	}
	return nil
}
