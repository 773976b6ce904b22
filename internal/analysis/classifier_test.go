package analysis

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/chemosim/internal/dynamo"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		rows   [][]float64
		window int
		tol    float64
		want   Label
	}{
		{"settled", [][]float64{{10, 10}, {10.005, 10.005}}, 100, 0.01, LimitPoint},
		{"oscillating", [][]float64{{5, 5}, {25, 25}}, 100, 0.01, LimitCycle},
		{"exactly at tolerance", [][]float64{{1, 0}, {1.5, 0}}, 10, 0.5, LimitPoint},
		{"transient outside window", [][]float64{{0, 0}, {50, 9}, {3, 3}, {3, 3}}, 2, 0.01, LimitPoint},
		{"single component moves", [][]float64{{1, 1, 1}, {1, 1, 2}}, 5, 0.1, LimitCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data []float64
			for _, r := range tt.rows {
				data = append(data, r...)
			}
			m := mat.NewDense(len(tt.rows), len(tt.rows[0]), data)
			assert.Equal(t, tt.want, Classify(m, tt.window, tt.tol))
		})
	}
}

func TestSpreadEmpty(t *testing.T) {
	assert.Zero(t, Spread(&mat.Dense{}, 10))
}

func trajectoryOf(rows ...dynamo.State) *dynamo.Trajectory {
	tr := dynamo.NewTrajectory(len(rows))
	for i, r := range rows {
		tr.Append(float64(i), r)
	}
	return tr
}

func TestClassifierProcess(t *testing.T) {
	c := NewClassifier(DefaultClassifierSettings(), nil)

	point := trajectoryOf(dynamo.State{10, 10, 10}, dynamo.State{10, 10, 10})
	cycle := trajectoryOf(dynamo.State{5, 5, 5}, dynamo.State{25, 25, 25})

	params := []float64{0.1, 0.2}
	require.NoError(t, c.Process(params, point))
	params[0] = 99
	require.NoError(t, c.Process([]float64{0.3, 0.4}, cycle))
	require.NoError(t, c.Process([]float64{0.5, 0.6}, point))

	assert.Equal(t, 3, c.SampleCount)
	assert.Equal(t, 2, c.LimitPointCount)
	assert.Equal(t, [][]float64{{0.1, 0.2}, {0.5, 0.6}}, c.LimitPoints)
	assert.Equal(t, [][]float64{{0.3, 0.4}}, c.LimitCycles)
}

func TestClassifierLogsEveryHundred(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	settings := DefaultClassifierSettings()
	settings.Verbosity = 1
	c := NewClassifier(settings, logger)

	traj := trajectoryOf(dynamo.State{1}, dynamo.State{1})
	for i := 0; i < 250; i++ {
		require.NoError(t, c.Process([]float64{1}, traj))
	}

	assert.Equal(t, 2, strings.Count(buf.String(), "classifier progress"))
	assert.Contains(t, buf.String(), "samples=200")

	buf.Reset()
	c.Report()
	assert.Contains(t, buf.String(), "limit_points=250")
	assert.Contains(t, buf.String(), "limit_cycles=0")
}

func TestClassifierQuiet(t *testing.T) {
	var buf bytes.Buffer
	c := NewClassifier(DefaultClassifierSettings(), slog.New(slog.NewTextHandler(&buf, nil)))
	traj := trajectoryOf(dynamo.State{1})
	for i := 0; i < 100; i++ {
		require.NoError(t, c.Process([]float64{1}, traj))
	}
	assert.Empty(t, buf.String())
}

func TestLabelString(t *testing.T) {
	assert.Equal(t, "limit point", LimitPoint.String())
	assert.Equal(t, "limit cycle", LimitCycle.String())
}

func TestDistinctExtrema(t *testing.T) {
	var v []float64
	for i := 0; i < 400; i++ {
		v = append(v, 3+2*math.Sin(float64(i)*0.1))
	}
	ext := distinctExtrema(v)
	require.NotEmpty(t, ext)
	for _, e := range ext {
		assert.True(t, math.Abs(e-5) < 1e-2 || math.Abs(e-1) < 1e-2, "extremum %v", e)
	}
}
