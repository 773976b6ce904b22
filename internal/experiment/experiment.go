// Package experiment wires the chemostat model, the data and the sampler into
// complete calibration runs.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/chemosim/internal/dataset"
	"github.com/san-kum/chemosim/internal/dynamo"
	"github.com/san-kum/chemosim/internal/integrators"
	"github.com/san-kum/chemosim/internal/physics"
	"github.com/san-kum/chemosim/internal/response"
	"github.com/san-kum/chemosim/internal/sim"
)

var ErrNoData = errors.New("experiment: no experimental data loaded")

type RunSettings struct {
	IntegrationTime float64
	NumToStore      int
	InitialValue    []float64
	Stepper         integrators.Kind
	Control         sim.Settings
}

// ChemostatManager evaluates parameter sets for the sampler. It owns its
// response function and driver and is not safe for concurrent use.
type ChemostatManager struct {
	fn        response.Function
	data      *dataset.Data
	settings  RunSettings
	chemostat *physics.Chemostat
	driver    *sim.Driver
}

// NewChemostatManager builds a manager. data may be nil when only runs are needed.
func NewChemostatManager(fn response.Function, data *dataset.Data, dilution float64, settings RunSettings, logger *slog.Logger) (*ChemostatManager, error) {
	if len(settings.InitialValue) != 3 {
		return nil, fmt.Errorf("%w: initial value has %d components, want 3", dynamo.ErrDimensionMismatch, len(settings.InitialValue))
	}
	if settings.NumToStore < 1 {
		return nil, fmt.Errorf("experiment: num_to_store must be at least 1, got %d", settings.NumToStore)
	}
	if err := settings.Control.Validate(); err != nil {
		return nil, err
	}
	stepper, err := integrators.New(settings.Stepper)
	if err != nil {
		return nil, err
	}

	return &ChemostatManager{
		fn:        fn,
		data:      data,
		settings:  settings,
		chemostat: physics.NewChemostat(fn, dilution),
		driver:    sim.NewDriver(stepper, settings.Control, logger),
	}, nil
}

func (m *ChemostatManager) Name() string { return m.fn.Name() }

func (m *ChemostatManager) Response() response.Function { return m.fn }

func (m *ChemostatManager) Dilution() float64 { return m.chemostat.D }

func (m *ChemostatManager) SetDilution(d float64) { m.chemostat.D = d }

// Likelihood sets the response parameters and scores them against the data.
func (m *ChemostatManager) Likelihood(params []float64) (float64, error) {
	if m.data == nil {
		return 0, ErrNoData
	}
	if err := m.fn.SetParams(params); err != nil {
		return 0, err
	}
	return m.data.Likelihood(m.fn)
}

// Run sets the response parameters and integrates the chemostat over
// [0, IntegrationTime]. The response keeps the new parameters afterwards.
func (m *ChemostatManager) Run(ctx context.Context, params []float64) (*dynamo.Trajectory, error) {
	rec, err := sim.NewMemoryRecorder(0, m.settings.IntegrationTime, m.settings.NumToStore)
	if err != nil {
		return nil, err
	}
	if _, err := m.Integrate(ctx, params, rec); err != nil {
		return nil, err
	}

	traj := rec.Trajectory()
	if !traj.IsValid() {
		return nil, fmt.Errorf("%w: trajectory contains NaN or Inf", dynamo.ErrNumerical)
	}
	return traj, nil
}

// Integrate runs the model into an arbitrary recorder.
func (m *ChemostatManager) Integrate(ctx context.Context, params []float64, rec sim.Recorder) (sim.Stats, error) {
	if params != nil {
		if err := m.fn.SetParams(params); err != nil {
			return sim.Stats{}, err
		}
	}
	return m.driver.Run(ctx, m.chemostat, 0, m.settings.IntegrationTime, dynamo.State(m.settings.InitialValue), rec)
}
