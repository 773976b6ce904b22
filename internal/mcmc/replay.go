package mcmc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/chemosim/internal/dynamo"
)

// ParamReader loads the parameter rows stored in one file.
type ParamReader func(path string) ([][]float64, error)

// Replay re-runs previously stored parameter sets through a model and
// handler instead of sampling new ones.
type Replay struct {
	model    Model
	handler  Handler
	files    []string
	read     ParamReader
	settings Settings
	log      *slog.Logger
}

func NewReplay(model Model, handler Handler, files []string, read ParamReader, settings Settings, logger *slog.Logger) *Replay {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if settings.OutputInterval <= 0 {
		settings.OutputInterval = 10
	}
	return &Replay{model: model, handler: handler, files: files, read: read, settings: settings, log: logger}
}

func (r *Replay) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	verb := r.settings.Verbosity

	if pre, ok := r.handler.(Preprocessor); ok {
		if err := pre.Preprocess(); err != nil {
			return stats, err
		}
	}
	if verb > 0 {
		r.log.Info("starting replay", "files", len(r.files))
	}

	for _, path := range r.files {
		if verb > 0 {
			r.log.Info("reading parameters", "file", path)
		}
		rows, err := r.read(path)
		if err != nil {
			return stats, fmt.Errorf("mcmc: replay %s: %w", path, err)
		}

		for _, params := range rows {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if l, err := r.model.Likelihood(params); err == nil {
				r.log.Debug("stored sample", "likelihood", l)
			}

			traj, err := r.model.Run(ctx, params)
			if err != nil {
				if !dynamo.IsRecoverable(err) || r.settings.AbortOnRunFailure {
					return stats, fmt.Errorf("%w: %w", ErrRunFailure, err)
				}
				if r.settings.WarnOnRunFailure {
					r.log.Warn("run failed", "err", err)
				}
				stats.RunFailures++
				continue
			}

			if err := r.handler.Process(params, traj); err != nil {
				return stats, err
			}
			if stats.Samples%r.settings.OutputInterval == 0 {
				if verb > 0 {
					r.log.Info("sample", "n", stats.Samples)
				}
				if rep, ok := r.handler.(Reporter); ok {
					rep.Report()
				}
			}
			stats.Samples++
		}
	}

	if verb > 0 {
		r.log.Info("done replay", "samples", stats.Samples, "run_failures", stats.RunFailures)
	}
	if fin, ok := r.handler.(Finalizer); ok {
		if err := fin.Finalize(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
