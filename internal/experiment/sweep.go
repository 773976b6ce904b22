package experiment

import (
	"cmp"
	"context"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/san-kum/chemosim/internal/config"
	"github.com/san-kum/chemosim/internal/storage"
	"github.com/san-kum/chemosim/internal/taskfarm"
)

// SweepUnit is the outcome of one dilution in a sweep.
type SweepUnit struct {
	Worker   int
	Dilution float64
	Result   *Result
	Err      error
}

type SweepOptions struct {
	NX int
	// Progress is called from the boss goroutine as each unit finishes.
	Progress func(SweepUnit)
	Logger   *slog.Logger
}

// Sweep runs one independent sampler pipeline per configured dilution on
// cfg.Sweep.Workers workers and indexes the finished runs in the catalog.
// Units are returned in dilution order.
func (r *Runner) Sweep(ctx context.Context, cfg *config.Config, opts SweepOptions) ([]SweepUnit, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	catalogPath := cfg.Sweep.Catalog
	if !filepath.IsAbs(catalogPath) {
		catalogPath = filepath.Join(cfg.OutputDir, catalogPath)
	}
	store := storage.New(cfg.OutputDir)
	if err := store.Init(); err != nil {
		return nil, err
	}
	catalog := storage.NewCatalog(catalogPath)
	if err := catalog.Init(ctx); err != nil {
		return nil, err
	}
	defer catalog.Close()

	// Every worker builds its own pipeline from a private copy of the config.
	factory := func(worker int) (taskfarm.Function[float64, *Result], error) {
		runner := &Runner{registry: NewRegistry(), Now: r.Now}
		local := cfg.Clone()
		return taskfarm.FunctionFunc[float64, *Result](func(ctx context.Context, d float64) (*Result, error) {
			return runner.Sample(ctx, local, d, opts.NX)
		}), nil
	}

	// Units drained after a cancel are still indexed.
	recordCtx := context.WithoutCancel(ctx)
	var units []SweepUnit
	analyzer := taskfarm.AnalyzerFunc[float64, *Result](func(rep taskfarm.Reply[float64, *Result]) {
		unit := SweepUnit{Worker: rep.Worker, Dilution: rep.Arg, Result: rep.Result, Err: rep.Err}
		if rep.Result != nil {
			m := rep.Result.Meta
			err := catalog.Record(recordCtx, storage.SweepRecord{
				RunID:       m.ID,
				Name:        m.Name,
				Response:    m.Response,
				Dilution:    m.Dilution,
				NX:          m.NX,
				Samples:     m.Stats.Samples,
				LimitPoints: m.LimitPoints,
				LimitCycles: m.LimitCycles,
				Created:     m.Finished,
			})
			if err != nil {
				logger.Warn("catalog record failed", "run", m.ID, "err", err)
			}
		}
		units = append(units, unit)
		if opts.Progress != nil {
			opts.Progress(unit)
		}
	})

	boss := taskfarm.NewBoss(factory, cfg.Sweep.Workers, logger)
	err := boss.Loop(ctx, cfg.Sweep.Dilutions, analyzer)

	slices.SortStableFunc(units, func(a, b SweepUnit) int { return cmp.Compare(a.Dilution, b.Dilution) })
	return units, err
}
