package dynamo

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// MaxAbsDiff returns the infinity norm of s-other. NaN components propagate.
func (s State) MaxAbsDiff(other State) float64 {
	m := 0.0
	for i := range s {
		d := math.Abs(s[i] - other[i])
		if math.IsNaN(d) {
			return d
		}
		if d > m {
			m = d
		}
	}
	return m
}

// System is the right-hand side of an autonomous or time-dependent ODE, dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(x State, t float64) State

func (f SystemFunc) Derive(x State, t float64) State { return f(x, t) }

// Trajectory is an evenly sampled solution: Times[k] pairs with States[k].
type Trajectory struct {
	Times  []float64
	States []State
}

func NewTrajectory(capacity int) *Trajectory {
	return &Trajectory{
		Times:  make([]float64, 0, capacity),
		States: make([]State, 0, capacity),
	}
}

func (tr *Trajectory) Append(t float64, x State) {
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, x.Clone())
}

func (tr *Trajectory) Len() int { return len(tr.States) }

func (tr *Trajectory) Dim() int {
	if len(tr.States) == 0 {
		return 0
	}
	return len(tr.States[0])
}

func (tr *Trajectory) Last() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// Column returns component j of every sample.
func (tr *Trajectory) Column(j int) []float64 {
	col := make([]float64, len(tr.States))
	for i, x := range tr.States {
		col[i] = x[j]
	}
	return col
}

// Matrix returns the states as a Len() x Dim() dense matrix, one row per sample.
func (tr *Trajectory) Matrix() *mat.Dense {
	rows, cols := tr.Len(), tr.Dim()
	if rows == 0 || cols == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, 0, rows*cols)
	for _, x := range tr.States {
		data = append(data, x...)
	}
	return mat.NewDense(rows, cols, data)
}

func (tr *Trajectory) IsValid() bool {
	for _, x := range tr.States {
		if !x.IsValid() {
			return false
		}
	}
	return true
}
