package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/chemosim/internal/analysis"
	"github.com/san-kum/chemosim/internal/config"
	"github.com/san-kum/chemosim/internal/dataset"
	"github.com/san-kum/chemosim/internal/mcmc"
	"github.com/san-kum/chemosim/internal/response"
	"github.com/san-kum/chemosim/internal/runlog"
	"github.com/san-kum/chemosim/internal/storage"
	"github.com/san-kum/chemosim/internal/viz"
)

// Result is everything one sampler pipeline produced.
type Result struct {
	RunID       string
	Dir         string
	LogPath     string
	Meta        storage.RunMetadata
	Stats       mcmc.Stats
	LimitPoints [][]float64
	LimitCycles [][]float64
	Response    response.Function
	Data        *dataset.Data
}

type Runner struct {
	registry *Registry
	// Console, when set, mirrors the run log to this writer.
	Console io.Writer
	Now     func() time.Time
}

func NewRunner(registry *Registry) *Runner {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Runner{registry: registry, Now: time.Now}
}

// Settings converts the model section of a configuration.
func Settings(cfg *config.Config) RunSettings {
	return RunSettings{
		IntegrationTime: cfg.Model.IntegrationTime,
		NumToStore:      cfg.Model.NumToStore,
		InitialValue:    cfg.Model.InitialValue,
		Stepper:         cfg.Model.Stepper,
		Control:         cfg.Model.StepperControl,
	}
}

// Source returns the random stream of a run. Runs with different dilutions
// get different streams from the same seed.
func Source(seed uint64, dilution float64) rand.Source {
	return rand.NewPCG(seed, math.Float64bits(dilution))
}

// Sample runs one complete calibration at the given dilution and spline
// resolution (nx <= 0 keeps the configured value). Parameter files and
// metadata are written even when the sampler stops with an error.
func (r *Runner) Sample(ctx context.Context, base *config.Config, dilution float64, nx int) (*Result, error) {
	cfg := base.Clone()
	cfg.Dilution = dilution
	if nx > 0 {
		cfg.Response.Spline.NX = nx
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.CreateDir {
		if _, err := os.Stat(cfg.OutputDir); err != nil {
			return nil, fmt.Errorf("%w: output_dir %s does not exist and create_dir is false", config.ErrInvalid, cfg.OutputDir)
		}
	}
	store := storage.New(cfg.OutputDir)
	if err := store.Init(); err != nil {
		return nil, err
	}
	runID, err := store.NewRun(cfg.RunName)
	if err != nil {
		return nil, err
	}
	dir := store.RunDir(runID)

	logPath := filepath.Join(dir, "run.log")
	rl, err := runlog.Open(logPath, cfg, runlog.Options{
		Console:       r.Console != nil,
		ConsoleWriter: r.Console,
		Level:         runlog.LevelFor(max(cfg.Sampler.MH.Verbosity, 1)),
		Now:           r.Now,
	})
	if err != nil {
		return nil, err
	}
	defer rl.Close()
	log := rl.With("run", runID)

	res := &Result{RunID: runID, Dir: dir, LogPath: logPath}
	res.Meta = storage.RunMetadata{
		ID:       runID,
		Name:     cfg.RunName,
		Sampler:  cfg.Sampler.Type,
		Dilution: dilution,
		NX:       cfg.Response.Spline.NX,
		Seed:     cfg.Seed,
		LogFile:  logPath,
		Started:  r.Now(),
	}

	fn, err := r.registry.GetResponse(string(cfg.Response.Type), cfg.Response.Spline)
	if err != nil {
		return nil, err
	}
	if len(cfg.Response.Params) > 0 {
		if err := fn.SetParams(cfg.Response.Params); err != nil {
			return nil, err
		}
	}
	res.Response = fn
	res.Meta.Response = fn.Name()

	if cfg.Data.File != "" {
		if res.Data, err = dataset.Load(cfg.Data); err != nil {
			return nil, err
		}
		log.Info("loaded data", "file", cfg.Data.File, "points", len(res.Data.X), "sigma", res.Data.Sigma)
	}

	manager, err := NewChemostatManager(fn, res.Data, dilution, Settings(cfg), log)
	if err != nil {
		return nil, err
	}
	classifier := analysis.NewClassifier(cfg.Classifier, log)
	src := Source(cfg.Seed, dilution)

	log.Info("starting sampler", "type", cfg.Sampler.Type, "response", fn.Name(), "dilution", dilution, "nx", cfg.Response.Spline.NX)
	var runErr error
	switch cfg.Sampler.Type {
	case config.SamplerStored:
		replay := mcmc.NewReplay(manager, classifier, cfg.Sampler.StoredFiles, storage.ReadParams, cfg.Sampler.MH, log)
		res.Stats, runErr = replay.Run(ctx)
	default:
		gen, err := r.registry.GetProposal(cfg.Sampler.Proposal, fn, src)
		if err != nil {
			return nil, err
		}
		sampler := mcmc.NewSampler(manager, gen, classifier, cfg.Sampler.MH, src, log)
		res.Stats, runErr = sampler.Run(ctx)
	}

	res.LimitPoints = classifier.LimitPoints
	res.LimitCycles = classifier.LimitCycles
	res.Meta.Stats = res.Stats
	res.Meta.LimitPoints = len(res.LimitPoints)
	res.Meta.LimitCycles = len(res.LimitCycles)
	res.Meta.Finished = r.Now()
	if runErr != nil {
		res.Meta.Error = runErr.Error()
		log.Error("sampler stopped", "err", runErr)
	}

	log.Info("results",
		"burns", res.Stats.Burns,
		"burn_rejects", res.Stats.BurnRejects,
		"burn_failures", res.Stats.BurnFailures,
		"samples", res.Stats.Samples,
		"rejects", res.Stats.Rejects,
		"proposal_failures", res.Stats.ProposalFailures,
		"run_failures", res.Stats.RunFailures,
		"limit_points", res.Meta.LimitPoints,
		"limit_cycles", res.Meta.LimitCycles,
	)

	if err := r.persist(store, cfg, res); err != nil {
		return res, errors.Join(runErr, err)
	}

	if runErr == nil && cfg.Visualization.ShowCurves {
		r.figures(cfg, res, log)
	}
	return res, runErr
}

func (r *Runner) persist(store *storage.Store, cfg *config.Config, res *Result) error {
	nx := cfg.Response.Spline.NX
	res.Meta.LimitPointFile = filepath.Join(res.Dir, storage.ParamsFileName("limitPoint", cfg.RunName, nx, res.Meta.Dilution))
	res.Meta.LimitCycleFile = filepath.Join(res.Dir, storage.ParamsFileName("limitCycle", cfg.RunName, nx, res.Meta.Dilution))

	header := "Limit Point Parameters from run logged in " + res.LogPath
	if err := storage.SaveParams(res.Meta.LimitPointFile, header, res.LimitPoints); err != nil {
		return err
	}
	header = "Limit Cycle Parameters from run logged in " + res.LogPath
	if err := storage.SaveParams(res.Meta.LimitCycleFile, header, res.LimitCycles); err != nil {
		return err
	}
	return store.SaveMetadata(res.Meta)
}

// figures renders the response curves. Failures are logged, not returned.
func (r *Runner) figures(cfg *config.Config, res *Result, log *slog.Logger) {
	xMax := cfg.Response.Spline.XMax
	if sp, ok := res.Response.(*response.Spline); ok {
		xMax = sp.XMax()
	}
	path := filepath.Join(res.Dir, fmt.Sprintf("responses-%s-D-%g.%s", cfg.RunName, res.Meta.Dilution, cfg.Visualization.Format))

	err := viz.SaveResponseFigure(path, res.Response, res.LimitPoints, res.LimitCycles, viz.ResponseFigureOptions{
		Title:     fmt.Sprintf("%s responses, D = %g", res.Response.Name(), res.Meta.Dilution),
		XMax:      xMax,
		NumCurves: cfg.Visualization.NumCurves,
		Data:      res.Data,
	})
	if err != nil {
		log.Warn("response figure failed", "path", path, "err", err)
		return
	}
	log.Info("wrote response figure", "path", path)
}
