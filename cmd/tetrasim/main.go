package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/tetrasim/internal/analysis"
	"github.com/san-kum/tetrasim/internal/automation"
	"github.com/san-kum/tetrasim/internal/config"
	"github.com/san-kum/tetrasim/internal/dynamo"
	"github.com/san-kum/tetrasim/internal/export"
	"github.com/san-kum/tetrasim/internal/logging"
	"github.com/san-kum/tetrasim/internal/metrics"
	"github.com/san-kum/tetrasim/internal/optim"
	"github.com/san-kum/tetrasim/internal/sim"
	"github.com/san-kum/tetrasim/internal/storage"
	"github.com/san-kum/tetrasim/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	preset     string

	seed     int64
	ticks    int
	runName  string
	scenario string

	port      int
	dbPath    string
	autostart bool
	noRestore bool

	particle  string
	dimension int
	xAxis     int
	yAxis     int
	section   bool
	threshold float64
	format    string
	series    bool

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	benchRuns  int
	benchTicks int
	benchSeed  int64

	trials       int
	trialTicks   int
	trialSeed    int64
	perturbation float64

	grid      []string
	metric    string
	maximize  bool
	tuneTicks int
	tuneSeed  int64

	apiURL   string
	interval time.Duration
	theme    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tetrasim",
		Short:         "4D particle oscillation simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run storage directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the HTTP and websocket API",
		RunE:  serve,
	}
	serveCmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "sqlite database for simulation state")
	serveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	serveCmd.Flags().BoolVar(&autostart, "autostart", false, "start the simulation immediately")
	serveCmd.Flags().BoolVar(&noRestore, "no-restore", false, "ignore saved simulation state")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save it",
		RunE:  runSimulation,
	}
	runCmd.Flags().IntVar(&ticks, "ticks", 600, "number of ticks")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the config seed or the clock)")
	runCmd.Flags().StringVar(&runName, "name", "run", "run name prefix")
	runCmd.Flags().StringVar(&scenario, "scenario", "", "scenario file (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&particle, "particle", "", "particle to plot (default first)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "csv", "csv, json or svg")
	exportCmd.Flags().StringVar(&particle, "particle", "", "particle for svg phase portraits (default first)")
	exportCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for the svg x-axis")
	exportCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for the svg y-axis")
	exportCmd.Flags().BoolVar(&series, "series", false, "svg of total energy over time instead of a phase portrait")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and divergence analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&particle, "particle", "", "particle to analyze (default first)")
	analyzeCmd.Flags().IntVar(&dimension, "dim", 1, "state component 0-3")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of one particle",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&particle, "particle", "", "particle to plot (default first)")
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	phaseCmd.Flags().BoolVar(&section, "section", false, "plot upward crossings of w3 through --threshold")
	phaseCmd.Flags().Float64Var(&threshold, "threshold", 0, "crossing threshold for --section")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one oscillator parameter",
		RunE:  sweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "base_frequency", "parameter name")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.2, "minimum value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 3.0, "maximum value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 60, "number of values")
	sweepCmd.Flags().IntVar(&dimension, "dim", 1, "state component 0-3")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "run seeded simulations in parallel",
		RunE:  bench,
	}
	benchCmd.Flags().IntVar(&benchRuns, "runs", 8, "number of runs")
	benchCmd.Flags().IntVar(&benchTicks, "ticks", 2000, "ticks per run")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 1, "seed of the first run")
	benchCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run trials with perturbed parameters",
		RunE:  monteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	monteCarloCmd.Flags().IntVar(&trialTicks, "ticks", 1000, "ticks per trial")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 0.2, "relative parameter perturbation")
	monteCarloCmd.Flags().Int64Var(&trialSeed, "seed", 1, "random seed")
	monteCarloCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search parameters against a run metric",
		RunE:  tune,
	}
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&metric, "metric", "stable_fraction", "metric to optimise")
	tuneCmd.Flags().BoolVar(&maximize, "maximize", true, "maximize instead of minimize")
	tuneCmd.Flags().IntVar(&tuneTicks, "ticks", 600, "ticks per evaluation")
	tuneCmd.Flags().Int64Var(&tuneSeed, "seed", 1, "random seed shared by every evaluation")
	tuneCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "watch a running server in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.Watch(apiURL, interval, theme)
		},
	}
	watchCmd.Flags().StringVar(&apiURL, "url", fmt.Sprintf("http://localhost:%d", config.DefaultPort), "server base url")
	watchCmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "poll interval")
	watchCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(serveCmd, runCmd, listCmd, plotCmd, exportCmd, analyzeCmd, phaseCmd, sweepCmd, benchCmd, monteCarloCmd, tuneCmd, watchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration: defaults, then preset,
// then config file, then environment, then flags.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logging.Setup(cfg.Logging.Level, os.Stderr)
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Simulation.Seed = seed
	}

	ctx, cancel := signalContext()
	defer cancel()

	var (
		c      *sim.Controller
		result *sim.Result
	)
	start := time.Now()

	if scenario != "" {
		sc, err := automation.LoadScenario(scenario)
		if err != nil {
			return fmt.Errorf("failed to load scenario: %w", err)
		}
		if sc.Seed != 0 && !cmd.Flags().Changed("seed") {
			cfg.Simulation.Seed = sc.Seed
		}
		if !cmd.Flags().Changed("name") && sc.Name != "" {
			runName = sc.Name
		}

		c = sim.New(cfg.Simulation, sim.WithMetrics(metrics.Defaults()...))
		fmt.Printf("running scenario %s (%d steps)...\n", sc.Name, len(sc.Steps))
		results, err := automation.RunScenario(ctx, sc, c)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("scenario %s has no run steps", sc.Name)
		}
		result = mergeResults(results)
	} else {
		c = sim.New(cfg.Simulation, sim.WithMetrics(metrics.Defaults()...))
		if err := sim.Populate(c, cfg.ParticleSpecs()); err != nil {
			return err
		}
		fmt.Printf("running %d particles for %d ticks...\n", c.Len(), ticks)
		result, err = c.RunFor(ctx, ticks, true)
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	st := storage.New(cfg.Storage.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.Capture(runName, c, result))
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("seed: %d\n", result.Seed)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("simulation time: %.3fs\n", c.Time())
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	return nil
}

// mergeResults joins the results of consecutive run steps into one.
func mergeResults(results []*sim.Result) *sim.Result {
	last := results[len(results)-1]
	merged := &sim.Result{
		Seed:    last.Seed,
		Metrics: last.Metrics,
		Final:   last.Final,
	}
	for _, r := range results {
		merged.StepsTaken += r.StepsTaken
		merged.Samples = append(merged.Samples, r.Samples...)
	}
	return merged
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func openStore() (*storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.Storage.DataDir), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTEPS\tPARTICLES\tRATE\tCOUPLING\tNOISE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.3f\t%.3f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			len(run.Particles),
			run.Settings.UpdateRate,
			run.Settings.GlobalCoupling,
			run.Settings.EnvironmentalNoise,
		)
	}

	return w.Flush()
}

// loadParticle returns the run metadata and the recorded history of one
// particle, defaulting to the first.
func loadParticle(runID string) (*storage.RunMetadata, string, []sim.HistoryPoint, error) {
	st, err := openStore()
	if err != nil {
		return nil, "", nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, "", nil, err
	}
	states, err := st.LoadStates(runID)
	if err != nil {
		return nil, "", nil, err
	}

	id := particle
	if id == "" {
		if len(meta.Particles) == 0 {
			return nil, "", nil, fmt.Errorf("run %s has no particles", runID)
		}
		id = meta.Particles[0]
	}
	history, ok := states[id]
	if !ok || len(history) == 0 {
		return nil, "", nil, fmt.Errorf("particle %s: %w", id, dynamo.ErrNotFound)
	}
	return meta, id, history, nil
}

var componentNames = [4]string{"w1 projection", "w2 energy", "w3 spin", "w4 mass"}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	meta, id, history, err := loadParticle(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d\n", len(meta.Particles))
	fmt.Printf("samples: %d\n\n", len(samples))

	if len(samples) > 1 {
		energy := make([]float64, len(samples))
		stability := make([]float64, len(samples))
		for i, s := range samples {
			energy[i] = s.TotalEnergy
			stability[i] = s.AverageStability
		}
		fmt.Println(asciigraph.Plot(energy, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("total energy")))
		fmt.Println()
		fmt.Println(asciigraph.Plot(stability, asciigraph.Height(6), asciigraph.Width(80), asciigraph.Caption("average stability")))
		fmt.Println()
	}

	for k := 0; k < 4; k++ {
		data := analysis.Component(history, k)
		graph := asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s: %s", id, componentNames[k])),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	switch format {
	case "csv":
		return st.ExportCSV(os.Stdout, args[0])
	case "json":
		return st.ExportJSON(os.Stdout, args[0])
	case "svg":
		return exportSVG(st, args[0])
	default:
		return fmt.Errorf("unknown format %q (csv, json or svg)", format)
	}
}

func exportSVG(st *storage.Store, runID string) error {
	if series {
		samples, err := st.LoadSamples(runID)
		if err != nil {
			return err
		}
		energy := make([]float64, len(samples))
		for i, s := range samples {
			energy[i] = s.TotalEnergy
		}
		return export.SeriesSVG(os.Stdout, energy, 800, 400, "#00ffff", runID+": total energy")
	}

	_, id, history, err := loadParticle(runID)
	if err != nil {
		return err
	}
	portrait, err := analysis.NewPhasePortrait(history, xAxis, yAxis)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s: %s vs %s", id, componentNames[xAxis], componentNames[yAxis])
	return export.TrajectorySVG(os.Stdout, portrait.Points, 600, 600, "#ff00ff", title)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	if dimension < 0 || dimension > 3 {
		return fmt.Errorf("dim must be 0-3, got %d", dimension)
	}
	meta, id, history, err := loadParticle(args[0])
	if err != nil {
		return err
	}

	dt := meta.Settings.Dt
	data := analysis.Component(history, dimension)

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("particle: %s, component: %s\n\n", id, componentNames[dimension])

	ps := analysis.PowerSpectrum(data)
	if len(ps) < 8 {
		return fmt.Errorf("not enough samples (%d)", len(history))
	}
	plotData := ps[:len(ps)/4]

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", componentNames[dimension])),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(data, dt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	bands := analysis.SpectralBands(ps)
	fmt.Printf("band power: low %.3e  mid %.3e  high %.3e\n", bands.Low, bands.Mid, bands.High)

	if params, ok := meta.Parameters[id]; ok {
		lambda := analysis.Divergence(params, dt, len(history), 1e-8)
		fmt.Printf("divergence rate: %.4f /s\n", lambda)
	}

	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, id, history, err := loadParticle(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("particle: %s\n", id)

	if section {
		points := analysis.Crossings(history, 2, threshold, xAxis, yAxis)
		fmt.Printf("section: w3 = %.3f, %d crossings\n\n", threshold, len(points))
		fmt.Println(analysis.CrossingsToASCII(points, 70, 20))
		return nil
	}

	portrait, err := analysis.NewPhasePortrait(history, xAxis, yAxis)
	if err != nil {
		return err
	}
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", componentNames[xAxis], componentNames[yAxis])
	fmt.Println(portrait.ToASCII(70, 20))

	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sc := analysis.SweepConfig{
		Param:     sweepParam,
		Min:       sweepMin,
		Max:       sweepMax,
		Steps:     sweepSteps,
		Dimension: dimension,
		Dt:        1.0 / float64(cfg.Simulation.UpdateRate),
		Transient: 600,
		Record:    300,
	}
	points, err := analysis.Sweep(dynamo.DefaultParams(), sc)
	if err != nil {
		return err
	}

	fmt.Printf("sweep of %s over [%.3f, %.3f], component %d\n\n", sweepParam, sweepMin, sweepMax, dimension)
	fmt.Println(analysis.SweepToASCII(points, 70, 20))
	return nil
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	particles := cfg.ParticleSpecs()
	ens := sim.NewEnsemble(cfg.Simulation, particles, benchRuns, benchSeed)

	fmt.Printf("benchmarking %d runs of %d particles x %d ticks\n\n", benchRuns, len(particles), benchTicks)
	start := time.Now()
	results, err := ens.Run(ctx, benchTicks)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tMEAN_ENERGY\tENERGY_DRIFT\tSTABLE_FRACTION")
	total := 0
	for _, r := range results {
		total += r.StepsTaken
		fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%.3f\n",
			r.Seed, r.StepsTaken,
			r.Metrics["mean_energy"], r.Metrics["energy_drift"], r.Metrics["stable_fraction"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d ticks in %v (%.0f ticks/sec)\n", total, elapsed, float64(total)/elapsed.Seconds())
	return nil
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Simulation:   cfg.Simulation,
		Particles:    cfg.ParticleSpecs(),
		Perturbation: perturbation,
		NumTrials:    trials,
		Ticks:        trialTicks,
		Seed:         trialSeed,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	stability := make([]float64, len(results))
	for i, r := range results {
		stability[i] = r.MeanStability
	}

	fmt.Printf("%d trials, perturbation ±%.0f%%\n", len(results), perturbation*100)
	fmt.Printf("stable: %d  unstable: %d\n\n", stable, unstable)
	if len(stability) > 1 {
		fmt.Println(asciigraph.Plot(stability, asciigraph.Height(8), asciigraph.Width(70), asciigraph.Caption("mean stability per trial")))
	}
	return nil
}

// parseGrid turns "name=v1,v2" flags into parallel name and value slices.
func parseGrid(flags []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(flags))
	ranges := make([][]float64, 0, len(flags))
	for _, f := range flags {
		name, list, ok := strings.Cut(f, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("bad grid %q, want name=v1,v2", f)
		}
		var values []float64
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func tune(cmd *cobra.Command, args []string) error {
	if len(grid) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	simCfg := cfg.Simulation
	simCfg.Seed = tuneSeed
	gs := optim.NewGridSearch(names, ranges)

	start := time.Now()
	best, err := gs.Search(ctx, optim.ParticleBuilder(simCfg, cfg.ParticleSpecs()), tuneTicks, metric, maximize)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d combinations in %v\n", best.Evaluated, time.Since(start))
	fmt.Printf("best %s: %.6f\n", metric, best.Value)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best.Params[name])
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRATE\tCOUPLING\tNOISE\tPARTICLES")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%d\n",
			name,
			p.Simulation.UpdateRate,
			p.Simulation.GlobalCoupling,
			p.Simulation.EnvironmentalNoise,
			len(p.ParticleSpecs()),
		)
	}
	return w.Flush()
}
