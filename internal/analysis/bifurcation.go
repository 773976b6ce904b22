package analysis

import (
	"context"
	"strings"

	"github.com/san-kum/chemosim/internal/dynamo"
)

// BifurcationPoint records the long-run behaviour found at one parameter value.
type BifurcationPoint struct {
	Param  float64
	Label  Label
	Values []float64 // distinct extrema of the recorded component over the final window
	Err    error     // recoverable run failure, if any
}

// RunFunc integrates the model with its swept parameter set to param.
type RunFunc func(ctx context.Context, param float64) (*dynamo.Trajectory, error)

// BifurcationDiagram sweeps a parameter over [paramMin, paramMax] and records
// the extrema of one state component over the final window of each run.
// Runs that fail numerically are kept with Err set; any other error stops the sweep.
func BifurcationDiagram(
	ctx context.Context,
	run RunFunc,
	paramMin, paramMax float64,
	paramSteps int,
	stateIndex int,
	window int,
	tol float64,
) ([]BifurcationPoint, error) {
	if paramSteps <= 1 {
		paramSteps = 2 // Prevent division by zero
	}
	paramStep := (paramMax - paramMin) / float64(paramSteps-1)
	results := make([]BifurcationPoint, 0, paramSteps)

	for i := 0; i < paramSteps; i++ {
		param := paramMin + float64(i)*paramStep
		traj, err := run(ctx, param)
		if err != nil {
			if !dynamo.IsRecoverable(err) {
				return results, err
			}
			results = append(results, BifurcationPoint{Param: param, Err: err})
			continue
		}

		m := traj.Matrix()
		label := Classify(m, window, tol)
		var values []float64
		if stateIndex < traj.Dim() {
			col := traj.Column(stateIndex)
			col = col[len(col)-min(len(col), window):]
			if label == LimitPoint {
				values = []float64{col[len(col)-1]}
			} else {
				values = distinctExtrema(col)
			}
		}
		results = append(results, BifurcationPoint{Param: param, Label: label, Values: values})
	}

	return results, nil
}

// distinctExtrema returns the local maxima and minima of v, quantized to
// 1e-3 to merge repeated visits of the same turning point.
func distinctExtrema(v []float64) []float64 {
	values := make([]float64, 0, 8)
	seen := make(map[int]bool)
	for i := 1; i+1 < len(v); i++ {
		peak := v[i] >= v[i-1] && v[i] > v[i+1]
		trough := v[i] <= v[i-1] && v[i] < v[i+1]
		if !peak && !trough {
			continue
		}
		key := int(v[i] * 1000)
		if !seen[key] {
			seen[key] = true
			values = append(values, v[i])
		}
	}
	return values
}

// BifurcationToASCII converts bifurcation data to ASCII art
func BifurcationToASCII(data []BifurcationPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	// Find value range - need at least one valid value
	var minVal, maxVal float64
	foundFirst := false
	for _, p := range data {
		for _, v := range p.Values {
			if !foundFirst {
				minVal, maxVal = v, v
				foundFirst = true
			} else {
				minVal = min(minVal, v)
				maxVal = max(maxVal, v)
			}
		}
	}
	if !foundFirst {
		return "" // No values to plot
	}

	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := newCanvas(width, height)
	for i, p := range data {
		col := min(i*width/len(data), width-1)
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}
	return renderCanvas(canvas)
}

func newCanvas(width, height int) [][]rune {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}
	return canvas
}

func renderCanvas(canvas [][]rune) string {
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
