package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/chemosim/internal/dynamo"
	"github.com/san-kum/chemosim/internal/integrators"
)

var oscillator = dynamo.SystemFunc(func(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
})

func runOscillator(t *testing.T, stepper integrators.Stepper, settings Settings, tFinal float64, nReport int) (*dynamo.Trajectory, Stats) {
	t.Helper()
	rec, err := NewMemoryRecorder(0, tFinal, nReport)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := NewDriver(stepper, settings, nil).Run(context.Background(), oscillator, 0, tFinal, dynamo.State{1, 0}, rec)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return rec.Trajectory(), stats
}

func TestDriverReportTimes(t *testing.T) {
	tests := []struct {
		name    string
		tFinal  float64
		nReport int
	}{
		{"coarse", 5.0, 10},
		{"finer than steps", 5.0, 997},
		{"single interval", 2.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			traj, _ := runOscillator(t, integrators.NewHeun(), DefaultSettings(), tt.tFinal, tt.nReport)

			if traj.Len() != tt.nReport+1 {
				t.Fatalf("recorded %d points, want %d", traj.Len(), tt.nReport+1)
			}
			interval := tt.tFinal / float64(tt.nReport)
			for k, tk := range traj.Times {
				if want := float64(k) * interval; tk != want {
					t.Errorf("slot %d: time %v, want %v", k, tk, want)
				}
			}
			for k, x := range traj.States {
				tk := traj.Times[k]
				if d := x.MaxAbsDiff(dynamo.State{math.Cos(tk), -math.Sin(tk)}); d > 1e-2 {
					t.Errorf("slot %d (t=%v): error %v", k, tk, d)
				}
			}
		})
	}
}

func TestDriverConvergence(t *testing.T) {
	tolerances := []float64{1e-4, 1e-5, 1e-6, 1e-7}
	errs := make([]float64, len(tolerances))

	for i, tau := range tolerances {
		settings := DefaultSettings()
		settings.Tolerance = tau
		traj, _ := runOscillator(t, integrators.NewHeun(), settings, 5.0, 10)
		errs[i] = traj.Last().MaxAbsDiff(dynamo.State{math.Cos(5), -math.Sin(5)})
		if errs[i] > 100*tau {
			t.Errorf("tau=%g: global error %g", tau, errs[i])
		}
	}

	for i := 1; i < len(errs); i++ {
		ratio := errs[i-1] / errs[i]
		if ratio < 1.5 || ratio > 100 {
			t.Errorf("tau %g -> %g: error ratio %.2f outside [1.5, 100]", tolerances[i-1], tolerances[i], ratio)
		}
	}
}

func TestDriverStats(t *testing.T) {
	_, stats := runOscillator(t, integrators.NewRK4(), DefaultSettings(), 5.0, 10)

	if stats.Evals != 3*(stats.Steps+stats.Shrinks) {
		t.Errorf("evals %d, want 3*(steps %d + shrinks %d)", stats.Evals, stats.Steps, stats.Shrinks)
	}
	if stats.FinalTime != 5.0 {
		t.Errorf("final time %v, want 5", stats.FinalTime)
	}
	if stats.MinStep <= 0 || stats.MinStep > stats.MaxStep {
		t.Errorf("min/max step %v/%v", stats.MinStep, stats.MaxStep)
	}
}

func TestDriverZeroLengthInterval(t *testing.T) {
	rec, _ := NewMemoryRecorder(1, 1, 4)
	stats, err := NewDriver(integrators.NewEuler(), DefaultSettings(), nil).
		Run(context.Background(), oscillator, 1, 1, dynamo.State{1, 0}, rec)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Evals != 0 || stats.Steps != 0 {
		t.Errorf("expected no attempts, got %+v", stats)
	}
	if rec.Trajectory().Len() != 1 {
		t.Errorf("expected a single write, got %d", rec.Trajectory().Len())
	}
}

func TestDriverMaxSteps(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxSteps = 3
	settings.MaxStepsizeFactor = 1

	rec, _ := NewMemoryRecorder(0, 5, 10)
	stats, err := NewDriver(integrators.NewHeun(), settings, nil).
		Run(context.Background(), oscillator, 0, 5, dynamo.State{1, 0}, rec)

	if !errors.Is(err, dynamo.ErrConvergence) {
		t.Fatalf("expected convergence failure, got %v", err)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) || simErr.Step != 3 {
		t.Errorf("expected SimulationError at step 3, got %v", err)
	}
	if stats.Steps != 3 {
		t.Errorf("steps = %d, want 3", stats.Steps)
	}
}

func TestDriverNumericalFailure(t *testing.T) {
	blowup := dynamo.SystemFunc(func(x dynamo.State, t float64) dynamo.State {
		return dynamo.State{math.NaN()}
	})
	rec, _ := NewMemoryRecorder(0, 1, 10)
	_, err := NewDriver(integrators.NewEuler(), DefaultSettings(), nil).
		Run(context.Background(), blowup, 0, 1, dynamo.State{1}, rec)
	if !errors.Is(err, dynamo.ErrNumerical) {
		t.Errorf("expected numerical failure, got %v", err)
	}
	if !dynamo.IsRecoverable(err) {
		t.Error("numerical failure should be recoverable")
	}
}

func TestDriverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, _ := NewMemoryRecorder(0, 5, 10)
	_, err := NewDriver(integrators.NewHeun(), DefaultSettings(), nil).
		Run(ctx, oscillator, 0, 5, dynamo.State{1, 0}, rec)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDriverInvalidSettings(t *testing.T) {
	settings := DefaultSettings()
	settings.Tolerance = 0
	rec, _ := NewMemoryRecorder(0, 1, 1)
	_, err := NewDriver(integrators.NewHeun(), settings, nil).
		Run(context.Background(), oscillator, 0, 1, dynamo.State{1, 0}, rec)
	if !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestDriverDoesNotMutateInitialState(t *testing.T) {
	u0 := dynamo.State{1, 0}
	rec, _ := NewMemoryRecorder(0, 1, 4)
	if _, err := NewDriver(integrators.NewRK4(), DefaultSettings(), nil).
		Run(context.Background(), oscillator, 0, 1, u0, rec); err != nil {
		t.Fatal(err)
	}
	if u0[0] != 1 || u0[1] != 0 {
		t.Errorf("initial state mutated: %v", u0)
	}
}

func TestInterpolateQuadratic(t *testing.T) {
	f := func(t float64) float64 { return 3*t*t - 2*t + 1 }
	t0, dt := 2.0, 0.5
	u0 := dynamo.State{f(t0)}
	u1 := dynamo.State{f(t0 + dt/2)}
	u2 := dynamo.State{f(t0 + dt)}

	for _, tw := range []float64{2.0, 2.1, 2.25, 2.4, 2.5} {
		got := interpolate(t0, dt, tw, u0, u1, u2)[0]
		if math.Abs(got-f(tw)) > 1e-12 {
			t.Errorf("interpolate(%v) = %v, want %v", tw, got, f(tw))
		}
	}
}

// ramp has Euler step-doubling error dt^2/4 everywhere, exact in binary for dt = 1.
var ramp = dynamo.SystemFunc(func(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{t}
})

var constant = dynamo.SystemFunc(func(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{0}
})

func TestDriverStepControl(t *testing.T) {
	tests := []struct {
		name      string
		stepper   integrators.Stepper
		sys       dynamo.System
		u0        dynamo.State
		tFinal    float64
		adjust    func(*Settings)
		steps     int
		shrinks   int
		grows     int
		minStep   float64
		maxStep   float64
		anyShrink bool
	}{
		{
			name: "error equal to tolerance is accepted", stepper: integrators.NewEuler(),
			sys: ramp, u0: dynamo.State{0}, tFinal: 8,
			adjust: func(s *Settings) { s.HInit = 0.125; s.Tolerance = 0.25 },
			steps: 8, minStep: 1, maxStep: 1,
		},
		{
			name: "error above tolerance shrinks", stepper: integrators.NewEuler(),
			sys: ramp, u0: dynamo.State{0}, tFinal: 8,
			adjust: func(s *Settings) { s.HInit = 0.125; s.Tolerance = 0.24 },
			anyShrink: true, steps: -1, grows: -1,
		},
		{
			name: "floor latches and accepts steps above tolerance", stepper: integrators.NewEuler(),
			sys: oscillator, u0: dynamo.State{1, 0}, tFinal: 8,
			adjust: func(s *Settings) {
				s.HInit = 0.125
				s.Tolerance = 1e-12
				s.MinStepsizeFactor = 1
				s.MaxStepsizeFactor = 1
			},
			steps: 8, shrinks: 1, minStep: 1, maxStep: 1,
		},
		{
			name: "zero error shrinks down to the floor", stepper: integrators.NewRK4(),
			sys: constant, u0: dynamo.State{1}, tFinal: 8,
			adjust: func(s *Settings) { s.HInit = 0.125; s.MinStepsizeFactor = 1.0 / 1024 },
			steps: 8192, shrinks: 29, minStep: 1.0 / 1024, maxStep: 1.0 / 1024,
		},
		{
			name: "growth is clamped at the ceiling", stepper: integrators.NewEuler(),
			sys: ramp, u0: dynamo.State{0}, tFinal: 64,
			adjust: func(s *Settings) { s.HInit = 0.0625; s.Tolerance = 1e6; s.MaxStepsizeFactor = 4 },
			steps: 5, grows: 1, minStep: 4, maxStep: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.adjust(&settings)
			rec, err := NewMemoryRecorder(0, tt.tFinal, 8)
			if err != nil {
				t.Fatal(err)
			}
			stats, err := NewDriver(tt.stepper, settings, nil).
				Run(context.Background(), tt.sys, 0, tt.tFinal, tt.u0, rec)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}

			if stats.FinalTime != tt.tFinal {
				t.Errorf("final time %v, want %v", stats.FinalTime, tt.tFinal)
			}
			if stats.Evals != 3*(stats.Steps+stats.Shrinks) {
				t.Errorf("evals %d, want 3*(steps %d + shrinks %d)", stats.Evals, stats.Steps, stats.Shrinks)
			}
			if tt.anyShrink {
				if stats.Shrinks == 0 {
					t.Errorf("expected at least one shrink, got %+v", stats)
				}
				return
			}
			if stats.Steps != tt.steps || stats.Shrinks != tt.shrinks || stats.Grows != tt.grows {
				t.Errorf("steps/shrinks/grows = %d/%d/%d, want %d/%d/%d",
					stats.Steps, stats.Shrinks, stats.Grows, tt.steps, tt.shrinks, tt.grows)
			}
			if stats.MinStep != tt.minStep || stats.MaxStep != tt.maxStep {
				t.Errorf("min/max step = %v/%v, want %v/%v", stats.MinStep, stats.MaxStep, tt.minStep, tt.maxStep)
			}
		})
	}
}

func TestDriverStepStatsExcludeClippedStep(t *testing.T) {
	settings := DefaultSettings()
	settings.HInit = 0.3
	settings.MinStepsizeFactor = 1
	settings.MaxStepsizeFactor = 1

	rec, _ := NewMemoryRecorder(0, 1, 4)
	stats, err := NewDriver(integrators.NewRK4(), settings, nil).
		Run(context.Background(), oscillator, 0, 1, dynamo.State{1, 0}, rec)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Steps != 4 {
		t.Fatalf("steps = %d, want 4", stats.Steps)
	}
	if stats.MinStep != 0.3 || stats.MaxStep != 0.3 {
		t.Errorf("min/max step = %v/%v, want the unclipped 0.3", stats.MinStep, stats.MaxStep)
	}
}

func TestProposeStep(t *testing.T) {
	d := NewDriver(integrators.NewHeun(), DefaultSettings(), nil)
	tau := d.settings.Tolerance

	if got := d.propose(0.5, tau, 2); got != 0.5 {
		t.Errorf("error equal to tolerance: proposed %v, want 0.5", got)
	}
	if got, want := d.propose(0.5, 0, 2), 0.5*math.Pow(0.5, 1.0/3); got != want {
		t.Errorf("zero error: proposed %v, want %v", got, want)
	}
	if got := d.propose(0.5, tau/8, 2); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("small error: proposed %v, want 1", got)
	}
	if got := d.propose(0.5, 4*tau, 2); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("large error: proposed %v, want 0.25", got)
	}
}
