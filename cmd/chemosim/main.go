package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/chemosim/internal/analysis"
	"github.com/san-kum/chemosim/internal/config"
	"github.com/san-kum/chemosim/internal/dataset"
	"github.com/san-kum/chemosim/internal/dynamo"
	"github.com/san-kum/chemosim/internal/experiment"
	"github.com/san-kum/chemosim/internal/integrators"
	"github.com/san-kum/chemosim/internal/optim"
	"github.com/san-kum/chemosim/internal/response"
	"github.com/san-kum/chemosim/internal/runlog"
	"github.com/san-kum/chemosim/internal/sim"
	"github.com/san-kum/chemosim/internal/storage"
	"github.com/san-kum/chemosim/internal/viz"
)

var (
	dataDir      string
	configFile   string
	preset       string
	responseName string
	verbose      bool

	dilution  float64
	nx        int
	samples   int
	seed      uint64
	dataFile  string
	workers   int
	dilutions []float64
	noTUI     bool

	params     []float64
	duration   float64
	numToStore int
	stepper    string
	jsonOut    bool
	stream     bool
	figurePath string
	saveRun    bool
	showPhase  bool
	scanMin    float64
	scanMax    float64
	scanSteps  int
	component  int
	forceWrite bool
	gridPoints int
	gridSpan   float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "chemosim",
		Short:         "chemostat predator-prey calibration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "runs", "output directory (overrides output_dir)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a named preset of the response family")
	rootCmd.PersistentFlags().StringVar(&responseName, "response", "", "response function (spline, tanh, ivlev, holling, combination)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "run the Metropolis-Hastings calibration at one dilution rate",
		Args:  cobra.NoArgs,
		RunE:  runSample,
	}
	sampleCmd.Flags().Float64Var(&dilution, "dilution", config.DefaultDilution, "dilution rate D")
	sampleCmd.Flags().IntVar(&nx, "nx", 0, "spline grid size")
	sampleCmd.Flags().IntVar(&samples, "samples", 0, "number of samples")
	sampleCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed")
	sampleCmd.Flags().StringVar(&dataFile, "data-file", "", "experimental data file")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one calibration per dilution rate on a pool of workers",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64SliceVar(&dilutions, "dilutions", nil, "dilution rates to sweep")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "number of workers")
	sweepCmd.Flags().IntVar(&nx, "nx", 0, "spline grid size")
	sweepCmd.Flags().IntVar(&samples, "samples", 0, "number of samples per dilution")
	sweepCmd.Flags().StringVar(&dataFile, "data-file", "", "experimental data file")
	sweepCmd.Flags().BoolVar(&noTUI, "no-tui", false, "print plain progress lines")

	integrateCmd := &cobra.Command{
		Use:   "integrate",
		Short: "integrate the chemostat for one parameter set",
		Args:  cobra.NoArgs,
		RunE:  runIntegrate,
	}
	addModelFlags(integrateCmd)
	integrateCmd.Flags().BoolVar(&jsonOut, "json", false, "print the trajectory as JSON")
	integrateCmd.Flags().BoolVar(&stream, "stream", false, "stream report lines to stdout")
	integrateCmd.Flags().StringVar(&figurePath, "figure", "", "write a time-series figure")
	integrateCmd.Flags().BoolVar(&saveRun, "save", false, "store the trajectory as a run")
	integrateCmd.Flags().BoolVar(&showPhase, "phase", false, "draw the prey/predator phase portrait")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "classify the long-run behaviour over a range of dilution rates",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	addModelFlags(scanCmd)
	scanCmd.Flags().Float64Var(&scanMin, "min", 0.01, "smallest dilution rate")
	scanCmd.Flags().Float64Var(&scanMax, "max", 0.1, "largest dilution rate")
	scanCmd.Flags().IntVar(&scanSteps, "steps", 20, "number of dilution rates")
	scanCmd.Flags().IntVar(&component, "component", 2, "state component to record")

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "scan the likelihood of an analytic response on a log grid",
		Args:  cobra.NoArgs,
		RunE:  runGrid,
	}
	gridCmd.Flags().IntVar(&gridPoints, "points", 25, "grid points per parameter")
	gridCmd.Flags().Float64Var(&gridSpan, "span", 10, "grid covers default/span .. default*span")
	gridCmd.Flags().StringVar(&dataFile, "data-file", "", "experimental data file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	figureCmd := &cobra.Command{
		Use:   "figure [run_id]",
		Short: "render the response curves of a sampling run",
		Args:  cobra.ExactArgs(1),
		RunE:  figureRun,
	}
	figureCmd.Flags().StringVar(&figurePath, "out", "", "output file (default: run directory)")
	figureCmd.Flags().StringVar(&dataFile, "data-file", "", "experimental data file to overlay")

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "list the sweep catalog",
		Args:  cobra.NoArgs,
		RunE:  listCatalog,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  configInit,
	}
	configInitCmd.Flags().BoolVar(&forceWrite, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(sampleCmd, sweepCmd, integrateCmd, scanCmd, gridCmd, listCmd, plotCmd,
		figureCmd, catalogCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&params, "params", nil, "response parameters (default: family defaults)")
	cmd.Flags().Float64Var(&dilution, "dilution", config.DefaultDilution, "dilution rate D")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultIntegrationTime, "integration time")
	cmd.Flags().IntVar(&numToStore, "store", config.DefaultNumToStore, "number of report intervals")
	cmd.Flags().StringVar(&stepper, "stepper", string(integrators.KindHeun), "stepper (euler, midpoint, heun, rk4)")
	cmd.Flags().IntVar(&nx, "nx", 0, "spline grid size")
}

func consoleLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return runlog.NewConsole(os.Stderr, level)
}

// loadConfig resolves the preset, then the config file, then explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		family := responseName
		if family == "" {
			family = string(response.KindSpline)
		}
		cfg = config.GetPreset(family, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(family))
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("response") {
		cfg.Response.Type = response.Kind(responseName)
	}
	if flags.Changed("data") {
		cfg.OutputDir = dataDir
	}
	if flags.Changed("dilution") {
		cfg.Dilution = dilution
	}
	if flags.Changed("nx") {
		cfg.Response.Spline.NX = nx
	}
	if flags.Changed("samples") {
		cfg.Sampler.MH.NumSamples = samples
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("data-file") {
		cfg.Data.File = dataFile
	}
	if flags.Changed("workers") {
		cfg.Sweep.Workers = workers
	}
	if flags.Changed("dilutions") {
		cfg.Sweep.Dilutions = dilutions
	}
	if flags.Changed("params") {
		cfg.Response.Params = params
	}
	if flags.Changed("time") {
		cfg.Model.IntegrationTime = duration
	}
	if flags.Changed("store") {
		cfg.Model.NumToStore = numToStore
	}
	if flags.Changed("stepper") {
		cfg.Model.Stepper = integrators.Kind(stepper)
	}
	return cfg, nil
}

func runnerFor() *experiment.Runner {
	runner := experiment.NewRunner(nil)
	if verbose {
		runner.Console = os.Stderr
	}
	return runner
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := runnerFor().Sample(ctx, cfg, cfg.Dilution, 0)
	if res != nil {
		fmt.Println(sampleSummary(res))
	}
	return err
}

func sampleSummary(res *experiment.Result) string {
	s := res.Stats
	return viz.Summary("run "+res.RunID, []viz.Metric{
		viz.M("response", "%s", res.Meta.Response),
		viz.M("dilution", "%g", res.Meta.Dilution),
		viz.M("burn-in", "%d accepted, %d rejected, %d failed", s.Burns, s.BurnRejects, s.BurnFailures),
		viz.M("samples", "%d (%d rejects, %d proposal failures, %d run failures)",
			s.Samples, s.Rejects, s.ProposalFailures, s.RunFailures),
		viz.M("limit points", "%d", len(res.LimitPoints)),
		viz.M("limit cycles", "%d", len(res.LimitCycles)),
		viz.M("log", "%s", res.LogPath),
	})
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.Sweep.Dilutions) == 0 {
		return fmt.Errorf("%w: no dilutions to sweep", config.ErrInvalid)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	runner := experiment.NewRunner(nil)
	opts := experiment.SweepOptions{NX: cfg.Response.Spline.NX, Logger: consoleLogger()}

	var units []experiment.SweepUnit
	if noTUI {
		opts.Progress = func(u experiment.SweepUnit) {
			if u.Err != nil {
				fmt.Printf("D=%g failed: %v\n", u.Dilution, u.Err)
				return
			}
			fmt.Printf("D=%g done: %d limit points, %d limit cycles\n",
				u.Dilution, len(u.Result.LimitPoints), len(u.Result.LimitCycles))
		}
		units, err = runner.Sweep(ctx, cfg, opts)
	} else {
		ctx, detach := context.WithCancel(ctx)
		defer detach()

		p := tea.NewProgram(viz.NewSweepProgress(cfg.Sweep.Dilutions))
		opts.Logger = nil
		opts.Progress = func(u experiment.SweepUnit) { p.Send(unitMsg(u)) }

		done := make(chan struct{})
		go func() {
			defer close(done)
			units, err = runner.Sweep(ctx, cfg, opts)
			p.Send(viz.SweepDoneMsg{Err: err})
		}()

		if _, tuiErr := p.Run(); tuiErr != nil {
			detach()
			<-done
			return tuiErr
		}
		detach()
		<-done
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "D\tRUN\tSAMPLES\tLIMIT POINTS\tLIMIT CYCLES\tERROR")
	for _, u := range units {
		if u.Result == nil {
			fmt.Fprintf(w, "%g\t-\t-\t-\t-\t%v\n", u.Dilution, u.Err)
			continue
		}
		errText := ""
		if u.Err != nil {
			errText = u.Err.Error()
		}
		fmt.Fprintf(w, "%g\t%s\t%d\t%d\t%d\t%s\n", u.Dilution, u.Result.RunID, u.Result.Stats.Samples,
			len(u.Result.LimitPoints), len(u.Result.LimitCycles), errText)
	}
	if flushErr := w.Flush(); flushErr != nil {
		return flushErr
	}
	return err
}

func unitMsg(u experiment.SweepUnit) viz.UnitDoneMsg {
	msg := viz.UnitDoneMsg{Dilution: u.Dilution, Worker: u.Worker, Err: u.Err}
	if u.Result != nil {
		msg.Samples = u.Result.Stats.Samples
		msg.LimitPoints = len(u.Result.LimitPoints)
		msg.LimitCycles = len(u.Result.LimitCycles)
	}
	return msg
}

// newManager builds a data-free manager for direct integration.
func newManager(cfg *config.Config) (*experiment.ChemostatManager, error) {
	fn, err := experiment.NewRegistry().GetResponse(string(cfg.Response.Type), cfg.Response.Spline)
	if err != nil {
		return nil, err
	}
	return experiment.NewChemostatManager(fn, nil, cfg.Dilution, experiment.Settings(cfg), consoleLogger())
}

func runIntegrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	manager, err := newManager(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if stream {
		rec, err := sim.NewStreamRecorder(os.Stdout, 0, cfg.Model.IntegrationTime, cfg.Model.NumToStore)
		if err != nil {
			return err
		}
		_, err = manager.Integrate(ctx, cfg.Response.Params, rec)
		return err
	}

	started := time.Now()
	traj, err := manager.Run(ctx, cfg.Response.Params)
	if err != nil {
		return err
	}
	label := analysis.Classify(traj.Matrix(), cfg.Classifier.NumStepsToCheck, cfg.Classifier.LimitPointTolerance)
	fn := manager.Response()

	if jsonOut {
		return storage.ExportJSON(os.Stdout, storage.ExportData{
			Response: fn.Name(),
			Stepper:  string(cfg.Model.Stepper),
			Dilution: cfg.Dilution,
			Duration: cfg.Model.IntegrationTime,
			Params:   fn.Params(),
		}, traj)
	}

	fmt.Println(viz.Summary("integration", []viz.Metric{
		viz.M("response", "%s", fn.Name()),
		viz.M("dilution", "%g", cfg.Dilution),
		viz.M("stepper", "%s", cfg.Model.Stepper),
		viz.M("samples", "%d", traj.Len()),
		viz.M("final state", "%.4g", traj.Last()),
		viz.M("prey", "%s", viz.Sparkline(traj.Column(1), 40)),
		viz.M("predator", "%s", viz.Sparkline(traj.Column(2), 40)),
		viz.M("behaviour", "%s", label),
	}))
	fmt.Println()
	fmt.Print(viz.PlotTrajectory(traj, viz.ChemostatLabels, 80, 10))

	if showPhase {
		portrait := analysis.GeneratePhasePortrait(traj, 1, 2)
		fmt.Println(analysis.PhasePortraitToASCII(portrait, 60, 20))
	}

	if figurePath != "" {
		title := fmt.Sprintf("%s, D = %g", fn.Name(), cfg.Dilution)
		if err := viz.SaveTrajectoryFigure(figurePath, traj, viz.ChemostatLabels, title); err != nil {
			return err
		}
		fmt.Println("figure:", figurePath)
	}

	if saveRun {
		st := storage.New(cfg.OutputDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.NewRun("integrate")
		if err != nil {
			return err
		}
		if err := st.SaveTrajectory(runID, traj); err != nil {
			return err
		}
		err = st.SaveMetadata(storage.RunMetadata{
			ID:       runID,
			Name:     "integrate",
			Response: fn.Name(),
			Sampler:  "none",
			Dilution: cfg.Dilution,
			NX:       cfg.Response.Spline.NX,
			Started:  started,
			Finished: time.Now(),
		})
		if err != nil {
			return err
		}
		fmt.Println("saved:", runID)
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	manager, err := newManager(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run := func(ctx context.Context, d float64) (*dynamo.Trajectory, error) {
		manager.SetDilution(d)
		return manager.Run(ctx, cfg.Response.Params)
	}
	points, err := analysis.BifurcationDiagram(ctx, run, scanMin, scanMax, scanSteps, component,
		cfg.Classifier.NumStepsToCheck, cfg.Classifier.LimitPointTolerance)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "D\tBEHAVIOUR\tEXTREMA")
	for _, pt := range points {
		if pt.Err != nil {
			fmt.Fprintf(w, "%.4g\tfailed\t%v\n", pt.Param, pt.Err)
			continue
		}
		fmt.Fprintf(w, "%.4g\t%s\t%.4g\n", pt.Param, pt.Label, pt.Values)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(analysis.BifurcationToASCII(points, 70, 20))
	return nil
}

func runGrid(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Response.Type == response.KindSpline {
		return fmt.Errorf("grid search needs an analytic response, got %s", cfg.Response.Type)
	}
	if cfg.Data.File == "" {
		return fmt.Errorf("%w: data.file is required", config.ErrInvalid)
	}
	data, err := dataset.Load(cfg.Data)
	if err != nil {
		return err
	}
	fn, err := experiment.NewRegistry().GetResponse(string(cfg.Response.Type), cfg.Response.Spline)
	if err != nil {
		return err
	}
	manager, err := experiment.NewChemostatManager(fn, data, cfg.Dilution, experiment.Settings(cfg), consoleLogger())
	if err != nil {
		return err
	}

	center := fn.Params()
	if len(cfg.Response.Params) > 0 {
		center = cfg.Response.Params
	}
	ranges := make([][]float64, len(center))
	for i, p := range center {
		ranges[i] = optim.LogSpace(p/gridSpan, p*gridSpan, gridPoints)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := optim.NewGridSearch(ranges).Search(ctx, manager.Likelihood)
	if err != nil {
		return err
	}

	fmt.Println(viz.Summary("likelihood grid", []viz.Metric{
		viz.M("response", "%s", fn.Name()),
		viz.M("evaluated", "%d (%d failed)", res.Evaluated, res.Failed),
		viz.M("best likelihood", "%.6g", res.Score),
		viz.M("best params", "%v", res.Params),
	}))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.OutputDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRESPONSE\tSAMPLER\tD\tNX\tSAMPLES\tLP\tLC\tSTARTED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Response,
			run.Sampler,
			run.Dilution,
			run.NX,
			run.Stats.Samples,
			run.LimitPoints,
			run.LimitCycles,
			run.Started.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.OutputDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if traj.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("response: %s\n", meta.Response)
	fmt.Printf("samples: %d\n\n", traj.Len())
	fmt.Print(viz.PlotTrajectory(traj, viz.ChemostatLabels, 80, 10))
	return nil
}

func figureRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.OutputDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if meta.LimitPointFile == "" {
		return fmt.Errorf("run %s has no sampled parameters", meta.ID)
	}

	points, err := storage.ReadParams(meta.LimitPointFile)
	if err != nil {
		return err
	}
	cycles, err := storage.ReadParams(meta.LimitCycleFile)
	if err != nil {
		return err
	}

	spline := cfg.Response.Spline
	if meta.NX > 0 {
		spline.NX = meta.NX
	}
	fn, err := experiment.NewRegistry().GetResponse(meta.Response, spline)
	if err != nil {
		return err
	}

	var data *dataset.Data
	if cfg.Data.File != "" {
		if data, err = dataset.Load(cfg.Data); err != nil {
			return err
		}
	}

	out := figurePath
	if out == "" {
		out = filepath.Join(st.RunDir(meta.ID), fmt.Sprintf("responses-%s-D-%g.%s", meta.Name, meta.Dilution, cfg.Visualization.Format))
	}
	err = viz.SaveResponseFigure(out, fn, points, cycles, viz.ResponseFigureOptions{
		Title:     fmt.Sprintf("%s responses, D = %g", meta.Response, meta.Dilution),
		XMax:      spline.XMax,
		NumCurves: cfg.Visualization.NumCurves,
		Data:      data,
	})
	if err != nil {
		return err
	}
	fmt.Println("figure:", out)
	return nil
}

func listCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := cfg.Sweep.Catalog
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.OutputDir, path)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Println("no sweeps recorded")
		return nil
	}

	ctx := context.Background()
	cat := storage.NewCatalog(path)
	if err := cat.Init(ctx); err != nil {
		return err
	}
	defer cat.Close()

	recs, err := cat.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "D\tRUN\tRESPONSE\tNX\tSAMPLES\tLP\tLC\tCREATED")
	for _, r := range recs {
		fmt.Fprintf(w, "%g\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n", r.Dilution, r.RunID, r.Response, r.NX,
			r.Samples, r.LimitPoints, r.LimitCycles, r.Created.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	families := config.Families()
	if len(args) == 1 {
		families = args
	}
	for _, family := range families {
		names := config.ListPresets(family)
		if names == nil {
			return fmt.Errorf("unknown response family: %s", family)
		}
		fmt.Printf("%s: %s\n", family, strings.Join(names, ", "))
	}
	return nil
}

func configInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := "chemosim.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !forceWrite {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}
