package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/chemosim/internal/dynamo"
	"github.com/san-kum/chemosim/internal/integrators"
)

// Stats summarises one integration. MinStep and MaxStep cover accepted steps
// that were not shortened to land on the interval end; both are zero when
// there were none.
type Stats struct {
	Steps     int
	Shrinks   int
	Grows     int
	Evals     int
	MinStep   float64
	MaxStep   float64
	FinalTime float64
}

// Driver integrates a system with step doubling: every attempt takes one full
// step and two half steps with the same stepper, and the max-norm of their
// difference is the local error estimate.
type Driver struct {
	stepper  integrators.Stepper
	settings Settings
	log      *slog.Logger
}

func NewDriver(stepper integrators.Stepper, settings Settings, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{stepper: stepper, settings: settings, log: logger}
}

// Run integrates sys from uInit over [tInit, tFinal], writing every report
// slot of rec. uInit is not modified.
func (d *Driver) Run(ctx context.Context, sys dynamo.System, tInit, tFinal float64, uInit dynamo.State, rec Recorder) (Stats, error) {
	var stats Stats
	if err := d.settings.Validate(); err != nil {
		return stats, err
	}
	if tFinal < tInit {
		return stats, fmt.Errorf("sim: interval end %g precedes start %g", tFinal, tInit)
	}

	cfg := d.settings
	p := float64(d.stepper.Order())
	verb := cfg.Verbosity

	t := tInit
	u := uInit.Clone()
	stats.FinalTime = t

	if err := rec.Write(t, u); err != nil {
		return stats, err
	}
	if tFinal == tInit {
		return stats, nil
	}

	dt := cfg.HInit * (tFinal - tInit)
	minStep := dt * cfg.MinStepsizeFactor
	maxStep := dt * cfg.MaxStepsizeFactor
	atMin, atMax := false, false

	for t < tFinal {
		if stats.Steps >= cfg.MaxSteps {
			return stats, &dynamo.SimulationError{Step: stats.Steps, Time: t, State: u, Wrapped: dynamo.ErrConvergence}
		}

		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		tEnd := t + dt
		clipped := false
		if tEnd >= tFinal {
			clipped = tFinal-t < dt
			dt = tFinal - t
			tEnd = tFinal
		}
		if verb >= 3 {
			d.log.Debug("attempt", "step", stats.Steps, "t", t, "dt", dt)
		}

		uFull := d.stepper.Step(sys, u, t, dt)
		uMid := d.stepper.Step(sys, u, t, dt/2)
		uTwoHalf := d.stepper.Step(sys, uMid, t+dt/2, dt/2)
		stats.Evals += 3

		errEst := uFull.MaxAbsDiff(uTwoHalf)
		if math.IsNaN(errEst) || math.IsInf(errEst, 0) || !uTwoHalf.IsValid() {
			return stats, &dynamo.SimulationError{Step: stats.Steps, Time: t, State: u, Wrapped: dynamo.ErrNumerical}
		}

		dtNew := d.propose(dt, errEst, p)

		if dtNew < dt && !atMin {
			if cfg.Safety*dtNew <= minStep {
				dt = minStep
				atMin = true
			} else {
				dt = cfg.Safety * dtNew
			}
			atMax = false
			stats.Shrinks++
			if verb >= 3 {
				d.log.Debug("shrink", "err", errEst, "dt", dt)
			}
			continue
		}

		for rec.NeedToWrite(t, dt) {
			tw := rec.NextTime()
			if err := rec.Write(tw, interpolate(t, dt, tw, u, uMid, uTwoHalf)); err != nil {
				return stats, err
			}
		}

		if !clipped {
			if stats.MinStep == 0 || dt < stats.MinStep {
				stats.MinStep = dt
			}
			stats.MaxStep = max(stats.MaxStep, dt)
		}

		u = uTwoHalf
		t = tEnd
		stats.Steps++

		if t < tFinal && dtNew > dt && !atMax {
			if dtNew >= maxStep {
				dt = maxStep
				atMax = true
			} else {
				dt = dtNew
			}
			atMin = false
			stats.Grows++
		}
	}

	// The last scheduled time can land an ulp past tFinal and be missed by
	// the interpolation window.
	for rec.NeedToWrite(t, 1e-9*(tFinal-tInit)) {
		if err := rec.Write(rec.NextTime(), u); err != nil {
			return stats, err
		}
	}

	stats.FinalTime = t
	if verb >= 2 {
		d.log.Info("integration done",
			"final_time", t,
			"steps", stats.Steps,
			"min_step", stats.MinStep,
			"max_step", stats.MaxStep,
			"evals", stats.Evals,
			"shrinks", stats.Shrinks,
			"grows", stats.Grows)
	}
	return stats, nil
}

// propose returns the step suggested by the error estimate of an attempt of size dt.
func (d *Driver) propose(dt, errEst, p float64) float64 {
	tau := d.settings.Tolerance
	switch {
	case errEst == 0:
		return dt * math.Pow(0.5, 1/(p+1))
	case errEst < tau:
		return dt * math.Pow(tau/errEst, 1/(p+1))
	default:
		return dt * math.Pow(tau/errEst, 1/p)
	}
}

// interpolate evaluates the quadratic through (t, u0), (t+dt/2, u1) and
// (t+dt, u2) at tw using Lagrange weights.
func interpolate(t, dt, tw float64, u0, u1, u2 dynamo.State) dynamo.State {
	t0, t1, t2 := t, t+dt/2, t+dt
	phi0 := (tw - t1) * (tw - t2) / ((t0 - t1) * (t0 - t2))
	phi1 := (tw - t0) * (tw - t2) / ((t1 - t0) * (t1 - t2))
	phi2 := (tw - t1) * (tw - t0) / ((t2 - t1) * (t2 - t0))

	return u0.Scale(phi0).Add(u1.Scale(phi1)).Add(u2.Scale(phi2))
}
