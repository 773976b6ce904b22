package mcmc

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chemosim/internal/dynamo"
)

type fixedGen struct{ p []float64 }

func (g *fixedGen) Init() []float64                 { return g.p }
func (g *fixedGen) Proposal(_ []float64) []float64 { return g.p }

// scriptedGen returns its candidates in order and remembers the point each
// proposal was made from.
type scriptedGen struct {
	init []float64
	seq  [][]float64
	i    int
	from [][]float64
}

func (g *scriptedGen) Init() []float64 { return slices.Clone(g.init) }

func (g *scriptedGen) Proposal(cur []float64) []float64 {
	g.from = append(g.from, slices.Clone(cur))
	p := g.seq[g.i%len(g.seq)]
	g.i++
	return slices.Clone(p)
}

type stubModel struct {
	likelihood func(p []float64) (float64, error)
	run        func(ctx context.Context, p []float64) (*dynamo.Trajectory, error)
	runs       int
}

func (m *stubModel) Likelihood(p []float64) (float64, error) {
	if m.likelihood == nil {
		return 1.0, nil
	}
	return m.likelihood(p)
}

func (m *stubModel) Run(ctx context.Context, p []float64) (*dynamo.Trajectory, error) {
	m.runs++
	if m.run == nil {
		tr := dynamo.NewTrajectory(1)
		tr.Append(0, dynamo.State{p[0]})
		return tr, nil
	}
	return m.run(ctx, p)
}

type recordingHandler struct {
	processed  [][]float64
	reports    int
	preprocess int
	finalized  bool
}

func (h *recordingHandler) Process(p []float64, _ *dynamo.Trajectory) error {
	h.processed = append(h.processed, p)
	return nil
}
func (h *recordingHandler) Report()           { h.reports++ }
func (h *recordingHandler) Preprocess() error { h.preprocess++; return nil }
func (h *recordingHandler) Finalize() error   { h.finalized = true; return nil }

func quietSettings() Settings {
	s := DefaultSettings()
	s.Verbosity = 0
	s.WarnOnProposalFailure = false
	s.WarnOnRunFailure = false
	return s
}

func src() rand.Source { return rand.NewPCG(1, 2) }

func TestSamplerEndToEnd(t *testing.T) {
	fixed := []float64{0.015, 0.18}
	model := &stubModel{}
	handler := &recordingHandler{}

	s := quietSettings()
	s.BurnLength = 0
	s.DecorrelationLength = 0
	s.NumSamples = 1

	stats, err := NewSampler(model, &fixedGen{p: fixed}, handler, s, src(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Samples)
	assert.Equal(t, 1, model.runs)
	require.Len(t, handler.processed, 1)
	assert.Equal(t, fixed, handler.processed[0])
	assert.Equal(t, 1, handler.preprocess)
	assert.True(t, handler.finalized)
}

func TestSamplerRunFailureNeverTerminates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := &stubModel{}
	model.run = func(context.Context, []float64) (*dynamo.Trajectory, error) {
		if model.runs >= 500 {
			cancel()
		}
		return nil, &dynamo.SimulationError{Wrapped: dynamo.ErrNumerical}
	}
	handler := &recordingHandler{}

	s := quietSettings()
	s.BurnLength = 0
	s.DecorrelationLength = 0
	s.NumSamples = 1

	stats, err := NewSampler(model, &fixedGen{p: []float64{1}}, handler, s, src(), nil).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 500, stats.RunFailures)
	assert.Zero(t, stats.Samples)
	assert.Empty(t, handler.processed)
	assert.False(t, handler.finalized)
}

func TestSamplerAbortOnRunFailure(t *testing.T) {
	model := &stubModel{run: func(context.Context, []float64) (*dynamo.Trajectory, error) {
		return nil, dynamo.ErrConvergence
	}}

	s := quietSettings()
	s.BurnLength = 2
	s.DecorrelationLength = 1
	s.AbortOnRunFailure = true

	stats, err := NewSampler(model, &fixedGen{p: []float64{1}}, &recordingHandler{}, s, src(), nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrRunFailure)
	assert.ErrorIs(t, err, dynamo.ErrConvergence)
	assert.Equal(t, 2, stats.Burns, "partial stats are returned")
}

func TestSamplerFatalRunError(t *testing.T) {
	disk := errors.New("disk full")
	model := &stubModel{run: func(context.Context, []float64) (*dynamo.Trajectory, error) { return nil, disk }}

	s := quietSettings()
	s.BurnLength = 0
	s.DecorrelationLength = 0

	_, err := NewSampler(model, &fixedGen{p: []float64{1}}, &recordingHandler{}, s, src(), nil).Run(context.Background())
	assert.ErrorIs(t, err, disk)
}

func TestSamplerRunsMostRecentlyAccepted(t *testing.T) {
	gen := &scriptedGen{
		init: []float64{1},
		seq:  [][]float64{{2}, {3}},
	}
	model := &stubModel{likelihood: func(p []float64) (float64, error) {
		if p[0] == 2 {
			return 0, nil
		}
		return 1, nil
	}}
	handler := &recordingHandler{}

	s := quietSettings()
	s.BurnLength = 0
	s.DecorrelationLength = 1
	s.NumSamples = 1

	stats, err := NewSampler(model, gen, handler, s, src(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Rejects)
	assert.Equal(t, [][]float64{{3}}, handler.processed)
	// The rejected candidate does not move the chain.
	assert.Equal(t, [][]float64{{1}, {1}}, gen.from)
}

func TestSamplerProposalFailureTeleports(t *testing.T) {
	gen := &scriptedGen{
		init: []float64{1},
		seq:  [][]float64{{-1}, {2}, {3}},
	}
	model := &stubModel{likelihood: func(p []float64) (float64, error) {
		if p[0] < 0 {
			return 0, dynamo.ErrNumerical
		}
		return 1, nil
	}}

	s := quietSettings()
	s.BurnLength = 2
	s.DecorrelationLength = 0
	s.NumSamples = 1
	handler := &recordingHandler{}

	stats, err := NewSampler(model, gen, handler, s, src(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.BurnFailures)
	assert.Equal(t, 2, stats.Burns, "failures do not count as acceptances")
	assert.Equal(t, []float64{-1}, gen.from[1], "chain jumps to the failing candidate")
	assert.Equal(t, [][]float64{{3}}, handler.processed)
}

func TestSamplerAbortOnProposalFailure(t *testing.T) {
	gen := &scriptedGen{init: []float64{1}, seq: [][]float64{{-1}}}
	model := &stubModel{likelihood: func(p []float64) (float64, error) {
		if p[0] < 0 {
			return 0, dynamo.ErrNumerical
		}
		return 1, nil
	}}
	s := quietSettings()
	s.AbortOnProposalFailure = true

	_, err := NewSampler(model, gen, &recordingHandler{}, s, src(), nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrProposalFailure)
}

func TestSamplerInitialLikelihoodFailure(t *testing.T) {
	model := &stubModel{likelihood: func([]float64) (float64, error) { return 0, dynamo.ErrNumerical }}
	handler := &recordingHandler{}

	_, err := NewSampler(model, &fixedGen{p: []float64{1}}, handler, quietSettings(), src(), nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrProposalFailure)
	assert.Zero(t, handler.preprocess)
}

func TestSamplerZeroLikelihoodsReject(t *testing.T) {
	gen := &scriptedGen{init: []float64{1}, seq: [][]float64{{2}}}
	model := &stubModel{likelihood: func([]float64) (float64, error) { return 0, nil }}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := quietSettings()
	s.BurnLength = 1
	sampler := NewSampler(model, gen, &recordingHandler{}, s, src(), nil)

	// Every candidate is rejected; stop the chain once enough have been seen.
	model.likelihood = func([]float64) (float64, error) {
		if gen.i >= 100 {
			cancel()
		}
		return 0, nil
	}
	stats, err := sampler.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Burns)
	assert.Equal(t, 100, stats.BurnRejects)
}

func TestSamplerReportInterval(t *testing.T) {
	handler := &recordingHandler{}
	s := quietSettings()
	s.BurnLength = 0
	s.DecorrelationLength = 0
	s.NumSamples = 15
	s.OutputInterval = 10

	stats, err := NewSampler(&stubModel{}, &fixedGen{p: []float64{1}}, handler, s, src(), nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, stats.Samples)
	assert.Equal(t, 2, handler.reports)
}

func TestSamplerProcessedParamsAreCopies(t *testing.T) {
	gen := &fixedGen{p: []float64{1, 2}}
	handler := &recordingHandler{}
	s := quietSettings()
	s.BurnLength = 1
	s.DecorrelationLength = 1
	s.NumSamples = 2

	_, err := NewSampler(&stubModel{}, gen, handler, s, src(), nil).Run(context.Background())
	require.NoError(t, err)

	handler.processed[0][0] = 99
	assert.Equal(t, 1.0, gen.p[0])
	assert.Equal(t, 1.0, handler.processed[1][0])
}

func TestAcceptanceProbability(t *testing.T) {
	assert.Equal(t, 0.0, AcceptanceProbability(0, 0))
	assert.Equal(t, 1.0, AcceptanceProbability(1, 0))
	assert.Equal(t, 1.0, AcceptanceProbability(2, 1))
	assert.InDelta(t, 0.25, AcceptanceProbability(0.5, 2), 1e-15)

	for _, lPrev := range []float64{1e-300, 0.1, 1, 7} {
		for _, pair := range [][2]float64{{0.9, 0.1}, {5, 4}, {1e-5, 1e-6}, {3, 0}} {
			l1, l2 := pair[0], pair[1]
			assert.GreaterOrEqual(t, AcceptanceProbability(l1, lPrev), AcceptanceProbability(l2, lPrev),
				"L1=%g L2=%g Lprev=%g", l1, l2, lPrev)
		}
	}
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.OutputInterval = 0
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.NumSamples = -1
	assert.Error(t, s.Validate())
}
