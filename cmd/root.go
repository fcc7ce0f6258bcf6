package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/biofilm-sim/biofilm-sim/sim/batch"
	"github.com/biofilm-sim/biofilm-sim/sim/report"
	"github.com/biofilm-sim/biofilm-sim/sim/store"
	"github.com/biofilm-sim/biofilm-sim/sim/trace"
)

// runOptions holds the values of the run command's flags.
type runOptions struct {
	configPath string  // defaults.yaml location
	preset     string  // named MIC distribution
	scale      float64 // MIC log-normal scale (overrides preset)
	sigma      float64 // MIC log-normal shape (overrides preset)
	alpha      float64 // antimicrobial decay constant
	cMax       float64 // surface antimicrobial concentration
	reps       int     // replicates
	duration   float64 // simulated hours per replicate
	sections   int     // sequential sections of replicates
	workers    int     // concurrent replicates per section
	seed       int64   // master seed
	snapshots  int     // progress snapshots per replicate

	outputDir   string // counters and time-series directory
	dbPath      string // SQLite result store, empty to skip
	metricsFile string // Prometheus textfile, empty to skip
	histogram   string // edge histogram image, empty to skip
	timeseries  bool   // write averaged snapshot time series
	logLevel    string // log verbosity
}

var opts runOptions

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "biofilm-sim",
	Short: "Stochastic simulator of biofilm growth under an antimicrobial gradient",
}

// runCmd runs a batch of replicates using parameters from defaults.yaml and flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch of biofilm replicates",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(opts.logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", opts.logLevel)
		}
		logrus.SetLevel(level)

		defaults, err := loadDefaultsConfig(opts.configPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) || cmd.Flags().Changed("config") {
				logrus.Fatalf("%v", err)
			}
			logrus.Debugf("no defaults file at %s, using built-in defaults", opts.configPath)
		}

		cfg, err := resolveRunConfig(opts, cmd.Flags().Changed, defaults)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runBatch(ctx, cfg, opts, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// presetsCmd lists the MIC distribution presets
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the MIC distribution presets",
	Run: func(cmd *cobra.Command, args []string) {
		defaults, err := loadDefaultsConfig(opts.configPath)
		if err != nil && (!errors.Is(err, os.ErrNotExist) || cmd.Flags().Changed("config")) {
			logrus.Fatalf("%v", err)
		}
		printPresets(os.Stdout, defaults)
	},
}

// resolveRunConfig layers flags that were set explicitly over the defaults
// file. changed reports whether a flag was given on the command line.
func resolveRunConfig(o runOptions, changed func(string) bool, defaults Config) (batch.RunConfig, error) {
	presetName := defaults.Run.Preset
	if changed("preset") {
		presetName = o.preset
	}
	preset, err := defaults.lookupPreset(presetName)
	if err != nil {
		return batch.RunConfig{}, err
	}

	model := defaults.Model
	model.MICScale, model.MICShape = preset.Scale, preset.Sigma
	if changed("scale") {
		model.MICScale = o.scale
	}
	if changed("sigma") {
		model.MICShape = o.sigma
	}
	if changed("alpha") {
		model.Alpha = o.alpha
	}
	if changed("c-max") {
		model.CMax = o.cMax
	}

	cfg := batch.RunConfig{
		Model:      model,
		Duration:   defaults.Run.Duration,
		Replicates: defaults.Run.Replicates,
		Sections:   defaults.Run.Sections,
		Workers:    defaults.Run.Workers,
		Seed:       defaults.Run.Seed,
		Trace:      trace.TraceLevelNone,
		Snapshots:  defaults.Run.Snapshots,
	}
	if changed("reps") {
		cfg.Replicates = o.reps
	}
	if changed("duration") {
		cfg.Duration = o.duration
	}
	if changed("sections") {
		cfg.Sections = o.sections
	}
	if changed("workers") {
		cfg.Workers = o.workers
	}
	if changed("seed") {
		cfg.Seed = o.seed
	}
	if changed("snapshots") {
		cfg.Snapshots = o.snapshots
	}
	if o.timeseries {
		cfg.Trace = trace.TraceLevelSnapshots
	}

	if err := cfg.Validate(); err != nil {
		return batch.RunConfig{}, err
	}
	return cfg, nil
}

// runBatch runs the replicates and writes every requested output. The
// summary goes to out.
func runBatch(ctx context.Context, cfg batch.RunConfig, o runOptions, out io.Writer) error {
	logrus.Infof("Starting %d replicates: duration=%gh alpha=%g c_max=%g scale=%g sigma=%g seed=%d",
		cfg.Replicates, cfg.Duration, cfg.Model.Alpha, cfg.Model.CMax, cfg.Model.MICScale, cfg.Model.MICShape, cfg.Seed)
	startTime := time.Now()

	metrics := batch.NewMetrics(cfg.Duration)
	results, err := batch.Run(ctx, cfg, metrics)
	if err != nil {
		return fmt.Errorf("running batch: %w", err)
	}

	path, err := report.WriteCountersFile(o.outputDir, report.CountersFilename(cfg.Duration, cfg.Model.MICShape), results)
	if err != nil {
		return err
	}
	logrus.Infof("results written to %s", path)

	if o.timeseries {
		traces := make([]*trace.SimulationTrace, len(results))
		for i, r := range results {
			traces[i] = r.Trace
		}
		name := fmt.Sprintf("pyrithione-t=%g-timeseries_sigma=%.5f.txt", cfg.Duration, cfg.Model.MICShape)
		tsPath, err := report.WriteTimeSeriesFile(o.outputDir, name, trace.Average(traces))
		if err != nil {
			return err
		}
		logrus.Infof("time series written to %s", tsPath)
	}

	if o.histogram != "" {
		title := fmt.Sprintf("biofilm edge, sigma=%.5f", cfg.Model.MICShape)
		if err := report.PlotEdgeHistogram(results, title, o.histogram); err != nil {
			return err
		}
		logrus.Infof("histogram written to %s", o.histogram)
	}

	if o.metricsFile != "" {
		if err := metrics.WriteTextfile(o.metricsFile); err != nil {
			return err
		}
		logrus.Infof("metrics written to %s", o.metricsFile)
	}

	if o.dbPath != "" {
		if err := saveToStore(ctx, o.dbPath, cfg, results); err != nil {
			return err
		}
	}

	report.Summarize(results).Print(out)
	fmt.Fprintf(out, "Time taken: %s\n", report.FormatElapsed(time.Since(startTime)))
	return nil
}

func saveToStore(ctx context.Context, path string, cfg batch.RunConfig, results []batch.Result) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	id, err := st.SaveRun(ctx, cfg, results)
	if closeErr := st.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing store: %w", closeErr)
	}
	if err != nil {
		return err
	}
	logrus.Infof("run %d stored in %s", id, path)
	return nil
}

// printPresets writes the presets as an aligned table.
func printPresets(w io.Writer, defaults Config) {
	fmt.Fprintf(w, "%-16s %-12s %-12s %s\n", "NAME", "SCALE", "SIGMA", "DESCRIPTION")
	for _, name := range defaults.presetNames() {
		p := defaults.Presets[name]
		fmt.Fprintf(w, "%-16s %-12.8g %-12.8g %s\n", name, p.Scale, p.Sigma, p.Description)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	def := builtinDefaults()
	p := builtinPresets[def.Run.Preset]

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "defaults.yaml", "Defaults file with run settings, presets and model overrides")

	runCmd.Flags().StringVar(&opts.logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// MIC distribution and antimicrobial gradient
	runCmd.Flags().StringVar(&opts.preset, "preset", def.Run.Preset, "Named MIC distribution (see the presets command)")
	runCmd.Flags().Float64Var(&opts.scale, "scale", p.Scale, "MIC log-normal scale (overrides the preset)")
	runCmd.Flags().Float64Var(&opts.sigma, "sigma", p.Sigma, "MIC log-normal shape (overrides the preset)")
	runCmd.Flags().Float64Var(&opts.alpha, "alpha", def.Model.Alpha, "Antimicrobial decay constant")
	runCmd.Flags().Float64Var(&opts.cMax, "c-max", def.Model.CMax, "Antimicrobial concentration at the surface")

	// Batch settings
	runCmd.Flags().IntVar(&opts.reps, "reps", def.Run.Replicates, "Number of replicates")
	runCmd.Flags().Float64Var(&opts.duration, "duration", def.Run.Duration, "Simulated hours per replicate")
	runCmd.Flags().IntVar(&opts.sections, "sections", def.Run.Sections, "Sections the replicates are run in")
	runCmd.Flags().IntVar(&opts.workers, "workers", def.Run.Workers, "Concurrent replicates per section (0 = GOMAXPROCS)")
	runCmd.Flags().Int64Var(&opts.seed, "seed", def.Run.Seed, "Master seed; replicate streams derive from it")
	runCmd.Flags().IntVar(&opts.snapshots, "snapshots", def.Run.Snapshots, "Progress snapshots per replicate")

	// Outputs
	runCmd.Flags().StringVar(&opts.outputDir, "output-dir", ".", "Directory for the counters and time-series files")
	runCmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database to append the run to")
	runCmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Prometheus textfile for batch metrics")
	runCmd.Flags().StringVar(&opts.histogram, "histogram", "", "Image file for the biofilm edge histogram (.png, .svg, .pdf)")
	runCmd.Flags().BoolVar(&opts.timeseries, "timeseries", false, "Write the replicate-averaged snapshot time series")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(presetsCmd)
}
