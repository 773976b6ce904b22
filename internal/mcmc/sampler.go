package mcmc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/chemosim/internal/dynamo"
	"github.com/san-kum/chemosim/internal/proposal"
)

var (
	ErrProposalFailure = errors.New("mcmc: likelihood evaluation failed")
	ErrRunFailure      = errors.New("mcmc: model run failed")
)

// Model scores and runs parameter sets. Likelihood must be deterministic
// for fixed params.
type Model interface {
	Likelihood(params []float64) (float64, error)
	Run(ctx context.Context, params []float64) (*dynamo.Trajectory, error)
}

// Handler consumes one accepted sample and its trajectory.
type Handler interface {
	Process(params []float64, traj *dynamo.Trajectory) error
}

type Preprocessor interface {
	Preprocess() error
}

type Reporter interface {
	Report()
}

type Finalizer interface {
	Finalize() error
}

type Settings struct {
	NumSamples             int  `yaml:"num_samples"`
	BurnLength             int  `yaml:"burn_length"`
	DecorrelationLength    int  `yaml:"decorrelation_length"`
	OutputInterval         int  `yaml:"output_interval"`
	WarnOnProposalFailure  bool `yaml:"warn_on_proposal_failure"`
	AbortOnProposalFailure bool `yaml:"abort_on_proposal_failure"`
	WarnOnRunFailure       bool `yaml:"warn_on_run_failure"`
	AbortOnRunFailure      bool `yaml:"abort_on_run_failure"`
	Verbosity              int  `yaml:"verbosity"`
}

func DefaultSettings() Settings {
	return Settings{
		NumSamples:             100,
		BurnLength:             100,
		DecorrelationLength:    10,
		OutputInterval:         10,
		WarnOnProposalFailure:  true,
		AbortOnProposalFailure: false,
		WarnOnRunFailure:       true,
		AbortOnRunFailure:      false,
		Verbosity:              2,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.NumSamples < 0:
		return fmt.Errorf("mcmc: num_samples must be non-negative, got %d", s.NumSamples)
	case s.BurnLength < 0:
		return fmt.Errorf("mcmc: burn_length must be non-negative, got %d", s.BurnLength)
	case s.DecorrelationLength < 0:
		return fmt.Errorf("mcmc: decorrelation_length must be non-negative, got %d", s.DecorrelationLength)
	case s.OutputInterval <= 0:
		return fmt.Errorf("mcmc: output_interval must be positive, got %d", s.OutputInterval)
	}
	return nil
}

// Stats counts the outcome of every phase.
type Stats struct {
	Burns            int
	BurnRejects      int
	BurnFailures     int
	Samples          int
	Rejects          int
	ProposalFailures int
	RunFailures      int
}

// AcceptanceProbability is min(1, lCand/lPrev). Two zero likelihoods give 0.
func AcceptanceProbability(lCand, lPrev float64) float64 {
	if lCand == 0 && lPrev == 0 {
		return 0
	}
	return math.Min(1, lCand/lPrev)
}

type Sampler struct {
	model    Model
	gen      proposal.Generator
	handler  Handler
	settings Settings
	uniform  distuv.Uniform
	log      *slog.Logger

	fPrev []float64
	lPrev float64
	stats Stats
}

func NewSampler(model Model, gen proposal.Generator, handler Handler, settings Settings, src rand.Source, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sampler{
		model:    model,
		gen:      gen,
		handler:  handler,
		settings: settings,
		uniform:  distuv.Uniform{Min: 0, Max: 1, Src: src},
		log:      logger,
	}
}

type outcome int

const (
	accepted outcome = iota
	rejected
	failed
)

// step proposes one candidate from the current point and applies the
// acceptance test. A recoverable likelihood failure moves the chain to the
// candidate anyway.
func (s *Sampler) step() (outcome, error) {
	cand := s.gen.Proposal(s.fPrev)

	lCand, err := s.model.Likelihood(cand)
	if err == nil && (math.IsNaN(lCand) || math.IsInf(lCand, 0)) {
		err = fmt.Errorf("%w: likelihood %g", dynamo.ErrNumerical, lCand)
	}
	if err != nil {
		if !dynamo.IsRecoverable(err) || s.settings.AbortOnProposalFailure {
			return failed, fmt.Errorf("%w: %w", ErrProposalFailure, err)
		}
		if s.settings.WarnOnProposalFailure {
			s.log.Warn("likelihood calculation failed", "err", err)
		}
		s.fPrev = slices.Clone(cand)
		return failed, nil
	}

	if s.uniform.Rand() < AcceptanceProbability(lCand, s.lPrev) {
		s.lPrev = lCand
		s.fPrev = slices.Clone(cand)
		return accepted, nil
	}
	return rejected, nil
}

func (s *Sampler) Run(ctx context.Context) (Stats, error) {
	s.stats = Stats{}
	if err := s.settings.Validate(); err != nil {
		return s.stats, err
	}
	verb := s.settings.Verbosity

	s.fPrev = slices.Clone(s.gen.Init())
	lInit, err := s.model.Likelihood(s.fPrev)
	if err == nil && (math.IsNaN(lInit) || math.IsInf(lInit, 0)) {
		err = fmt.Errorf("%w: likelihood %g", dynamo.ErrNumerical, lInit)
	}
	if err != nil {
		return s.stats, fmt.Errorf("%w: initial point: %w", ErrProposalFailure, err)
	}
	s.lPrev = lInit

	if pre, ok := s.handler.(Preprocessor); ok {
		if err := pre.Preprocess(); err != nil {
			return s.stats, err
		}
	}

	if verb > 0 {
		s.log.Info("starting burn-in phase", "burn_length", s.settings.BurnLength)
	}
	for s.stats.Burns < s.settings.BurnLength {
		if err := ctx.Err(); err != nil {
			return s.stats, err
		}
		res, err := s.step()
		if err != nil {
			return s.stats, err
		}
		switch res {
		case accepted:
			s.stats.Burns++
		case rejected:
			s.stats.BurnRejects++
		case failed:
			s.stats.BurnFailures++
		}
	}
	if verb > 0 {
		s.log.Info("burn-in phase done",
			"burns", s.stats.Burns, "rejects", s.stats.BurnRejects, "failures", s.stats.BurnFailures)
		s.log.Info("starting main sample loop", "num_samples", s.settings.NumSamples)
	}

	for s.stats.Samples < s.settings.NumSamples {
		skipped, curRejects := 0, 0
		for skipped < s.settings.DecorrelationLength {
			if err := ctx.Err(); err != nil {
				return s.stats, err
			}
			res, err := s.step()
			if err != nil {
				return s.stats, err
			}
			switch res {
			case accepted:
				skipped++
			case rejected:
				curRejects++
				s.stats.Rejects++
			case failed:
				s.stats.ProposalFailures++
			}
		}

		if err := ctx.Err(); err != nil {
			return s.stats, err
		}
		params := slices.Clone(s.fPrev)
		traj, err := s.model.Run(ctx, params)
		if err != nil {
			if !dynamo.IsRecoverable(err) || s.settings.AbortOnRunFailure {
				return s.stats, fmt.Errorf("%w: %w", ErrRunFailure, err)
			}
			if s.settings.WarnOnRunFailure {
				s.log.Warn("run failed", "err", err)
			}
			s.stats.RunFailures++
			continue
		}

		if err := s.handler.Process(params, traj); err != nil {
			return s.stats, err
		}

		if s.stats.Samples%s.settings.OutputInterval == 0 {
			if verb > 0 {
				s.log.Info("sample", "n", s.stats.Samples, "cur_rejects", curRejects, "tot_rejects", s.stats.Rejects)
			}
			if rep, ok := s.handler.(Reporter); ok {
				rep.Report()
			}
		}
		s.stats.Samples++
	}

	if verb > 0 {
		s.log.Info("done main sampling loop",
			"samples", s.stats.Samples,
			"rejects", s.stats.Rejects,
			"proposal_failures", s.stats.ProposalFailures,
			"run_failures", s.stats.RunFailures)
	}
	if fin, ok := s.handler.(Finalizer); ok {
		if err := fin.Finalize(); err != nil {
			return s.stats, err
		}
	}
	return s.stats, nil
}
