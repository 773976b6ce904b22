package dynamo

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2, 3}
	b := State{4, 5, 6}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 7 || sum[2] != 9 {
		t.Errorf("Add failed: got %v", sum)
	}

	if short := a.Add(State{1}); short[0] != 2 || short[1] != 2 || short[2] != 3 {
		t.Errorf("Add with shorter operand: got %v", short)
	}

	scaled := a.Scale(2)
	if scaled[0] != 2 || scaled[1] != 4 || scaled[2] != 6 {
		t.Errorf("Scale failed: got %v", scaled)
	}

	if a[0] != 1 || b[0] != 4 {
		t.Error("arithmetic mutated its operands")
	}
}

func TestState_MaxAbsDiff(t *testing.T) {
	a := State{1, -2, 3}
	b := State{1.5, 2, 3}
	if got := a.MaxAbsDiff(b); got != 4 {
		t.Errorf("MaxAbsDiff = %v, want 4", got)
	}
	if got := a.MaxAbsDiff(State{1, math.NaN(), 3}); !math.IsNaN(got) {
		t.Errorf("MaxAbsDiff with NaN = %v, want NaN", got)
	}
}

func TestTrajectory(t *testing.T) {
	tr := NewTrajectory(3)
	x := State{1, 2}
	tr.Append(0, x)
	x[0] = 99
	tr.Append(0.5, State{3, 4})
	tr.Append(1.0, State{5, 6})

	if tr.States[0][0] != 1 {
		t.Error("Append did not copy the state")
	}
	if tr.Len() != 3 || tr.Dim() != 2 {
		t.Fatalf("Len/Dim = %d/%d, want 3/2", tr.Len(), tr.Dim())
	}

	col := tr.Column(1)
	if col[0] != 2 || col[1] != 4 || col[2] != 6 {
		t.Errorf("Column(1) = %v", col)
	}

	m := tr.Matrix()
	r, c := m.Dims()
	if r != 3 || c != 2 || m.At(2, 0) != 5 {
		t.Errorf("Matrix dims %dx%d, At(2,0)=%v", r, c, m.At(2, 0))
	}

	if last := tr.Last(); last[1] != 6 {
		t.Errorf("Last = %v", last)
	}
}

func TestIsRecoverable(t *testing.T) {
	wrapped := &SimulationError{Step: 3, Time: 1.5, Wrapped: ErrNumerical}
	if !IsRecoverable(wrapped) {
		t.Error("wrapped numerical failure should be recoverable")
	}
	if !IsRecoverable(fmt.Errorf("run: %w", ErrConvergence)) {
		t.Error("convergence failure should be recoverable")
	}
	if IsRecoverable(errors.New("disk full")) {
		t.Error("arbitrary error should not be recoverable")
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Time: 1.5, Step: 150, Wrapped: ErrConvergence}
	expected := "step 150 (t=1.5000): " + ErrConvergence.Error()
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrConvergence) {
		t.Error("errors.Is should see the wrapped error")
	}
}
