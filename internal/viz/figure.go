package viz

import (
	"fmt"
	"image/color"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/chemosim/internal/dataset"
	"github.com/san-kum/chemosim/internal/dynamo"
	"github.com/san-kum/chemosim/internal/response"
)

const curvePoints = 200

var (
	limitPointColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x60}
	limitCycleColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0x60}
	dataColor       = color.RGBA{A: 0xff}
	seriesColors    = []color.Color{
		color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
		color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
		color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	}
)

type ResponseFigureOptions struct {
	Title     string
	XMax      float64
	NumCurves int
	Data      *dataset.Data
}

// SaveResponseFigure draws fn for up to NumCurves limit-point and limit-cycle
// parameter sets over [0, XMax], with the data as points when present. The
// file format follows the extension of path. fn's parameters are restored
// before returning.
func SaveResponseFigure(path string, fn response.Function, limitPoints, limitCycles [][]float64, opts ResponseFigureOptions) error {
	if opts.XMax <= 0 {
		return fmt.Errorf("viz: x range must be positive, got %g", opts.XMax)
	}
	saved := fn.Params()
	defer fn.SetParams(saved)

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "prey density"
	p.Y.Label.Text = "grazing rate"

	groups := []struct {
		label string
		rows  [][]float64
		color color.Color
	}{
		{"limit point", limitPoints, limitPointColor},
		{"limit cycle", limitCycles, limitCycleColor},
	}
	for _, g := range groups {
		for i, params := range subsample(g.rows, opts.NumCurves) {
			if err := fn.SetParams(params); err != nil {
				return err
			}
			line, err := plotter.NewLine(curve(fn, opts.XMax))
			if err != nil {
				return err
			}
			line.Color = g.color
			line.Width = vg.Points(0.5)
			p.Add(line)
			if i == 0 {
				p.Legend.Add(g.label, line)
			}
		}
	}

	if opts.Data != nil {
		pts := make(plotter.XYs, len(opts.Data.X))
		for i := range opts.Data.X {
			pts[i] = plotter.XY{X: opts.Data.X[i], Y: opts.Data.R[i]}
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		scatter.Color = dataColor
		p.Add(scatter)
		p.Legend.Add("data", scatter)
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

func curve(fn response.Function, xMax float64) plotter.XYs {
	pts := make(plotter.XYs, curvePoints+1)
	for i := range pts {
		x := xMax * float64(i) / curvePoints
		pts[i] = plotter.XY{X: x, Y: fn.Eval(x)}
	}
	return pts
}

// subsample keeps at most n rows, evenly strided.
func subsample(rows [][]float64, n int) [][]float64 {
	if n <= 0 || len(rows) <= n {
		return rows
	}
	out := make([][]float64, 0, n)
	for i := range n {
		out = append(out, rows[i*len(rows)/n])
	}
	return slices.Clip(out)
}

// SaveTrajectoryFigure draws every state component against time.
func SaveTrajectoryFigure(path string, traj *dynamo.Trajectory, labels []string, title string) error {
	if traj.Len() == 0 {
		return fmt.Errorf("viz: empty trajectory")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = "concentration"

	for j := range traj.Dim() {
		pts := make(plotter.XYs, traj.Len())
		for i, x := range traj.States {
			pts[i] = plotter.XY{X: traj.Times[i], Y: x[j]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = seriesColors[j%len(seriesColors)]
		line.Width = vg.Points(1)
		p.Add(line)

		label := fmt.Sprintf("x%d", j)
		if j < len(labels) {
			label = labels[j]
		}
		p.Legend.Add(label, line)
	}

	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}
