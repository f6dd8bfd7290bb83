package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hfjet-gen/hfjet/sim"
	"github.com/hfjet-gen/hfjet/sim/jets"
	"github.com/hfjet-gen/hfjet/sim/output"
	"github.com/hfjet-gen/hfjet/sim/source"
)

var (
	// Output and configuration
	outFile    string // ROOT output file
	configPath string // YAML run configuration
	logLevel   string // Log verbosity level
	plotsDir   string // Directory for flavor comparison plots

	// Generation
	ptHatMin float64 // Lowest pT-hat of the hard process (GeV)
	ptHatMax float64 // Highest pT-hat; <= pt-hat-min means unbounded
	events   int     // Accepted events to produce
	seed     int64   // Master seed; -1 derives one from time and pid

	// Jets and detector
	radius             float64 // Anti-kt radius
	ptJetMin           float64 // Lowest accepted jet pT (GeV)
	ptJetMax           float64 // Highest accepted jet pT (GeV)
	ptTrackMax         float64 // Highest accepted track pT (GeV)
	trackingEfficiency float64 // Probability of reconstructing a track when smearing
	smear              bool    // Enable detector smearing
	pileup             bool    // Mix one pileup event into each primary event
	unmatched          string  // Unmatched-jet policy

	// Publication
	s3Bucket   string
	s3Prefix   string
	s3Endpoint string
	s3Region   string
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "hfjet",
	Short: "Heavy-flavor jet training data generator",
}

// generateCmd produces a ROOT training file using parameters from the run
// configuration and CLI flags
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate labeled jets and write them to a ROOT file",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := DefaultRunConfig()
		if configPath != "" {
			cfg, err = LoadRunConfig(configPath)
			if err != nil {
				logrus.Fatalf("Failed to load run config: %v", err)
			}
		}
		applyFlags(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		startTime := time.Now()
		summary, err := runGenerate(ctx, cfg)
		if err != nil {
			logrus.Fatalf("Generation failed: %v", err)
		}
		summary.Print()
		logrus.Infof("Generation complete in %v.", time.Since(startTime).Round(time.Millisecond))
	},
}

// applyFlags overrides configuration values with the flags the user set.
// Flag defaults never overwrite values from the run configuration.
func applyFlags(cmd *cobra.Command, cfg *RunConfig) {
	flags := cmd.Flags()
	det, jc, gen := &cfg.Pipeline.Detector, &cfg.Pipeline.Jets, &cfg.Generator
	if flags.Changed("out-file") {
		cfg.OutFile = outFile
	}
	if flags.Changed("plots-dir") {
		cfg.PlotsDir = plotsDir
	}
	if flags.Changed("pt-hat-min") {
		gen.Toy.PtHatMin = ptHatMin
	}
	if flags.Changed("pt-hat-max") {
		gen.Toy.PtHatMax = ptHatMax
	}
	if flags.Changed("events") {
		gen.Events = events
	}
	if flags.Changed("seed") {
		gen.Seed = seed
	}
	if flags.Changed("r") {
		jc.Radius = radius
	}
	if flags.Changed("pt-jet-min") {
		jc.PtJetMin = ptJetMin
	}
	if flags.Changed("pt-jet-max") {
		jc.PtJetMax = ptJetMax
	}
	if flags.Changed("unmatched") {
		jc.Unmatched = sim.UnmatchedPolicy(unmatched)
	}
	if flags.Changed("pt-track-max") {
		det.PtTrackMax = ptTrackMax
	}
	if flags.Changed("tracking-efficiency") {
		det.TrackingEfficiency = trackingEfficiency
	}
	if flags.Changed("smear") {
		det.Smear = smear
	}
	if flags.Changed("pileup") {
		det.Pileup = pileup
	}
	if flags.Changed("s3-bucket") {
		cfg.S3.Bucket = s3Bucket
	}
	if flags.Changed("s3-prefix") {
		cfg.S3.Prefix = s3Prefix
	}
	if flags.Changed("s3-endpoint") {
		cfg.S3.Endpoint = s3Endpoint
	}
	if flags.Changed("s3-region") {
		cfg.S3.Region = s3Region
	}
}

// runGenerate runs the whole generation: event loop, ROOT output, manifest
// and optional upload. The output is flushed even when the event loop stops
// early.
func runGenerate(ctx context.Context, cfg RunConfig) (sim.RunSummary, error) {
	runSeed := resolveSeed(cfg.Generator.Seed, time.Now().Unix(), os.Getpid())
	logrus.Infof("Starting generation of %d events into %s, seed=%d, R=%.2f, jet pT [%.1f, %.1f], smear=%v, pileup=%v",
		cfg.Generator.Events, cfg.OutFile, runSeed, cfg.Pipeline.Jets.Radius,
		cfg.Pipeline.Jets.PtJetMin, cfg.Pipeline.Jets.PtJetMax,
		cfg.Pipeline.Detector.Smear, cfg.Pipeline.Detector.Pileup)

	key := sim.NewSimulationKey(runSeed)
	rngs := sim.NewPartitionedRNG(key)

	primary, closePrimary, err := openPrimary(cfg.Generator, rngs)
	if err != nil {
		return sim.RunSummary{}, err
	}
	defer closePrimary()

	var pileupGen sim.Generator
	if cfg.Pipeline.Detector.Pileup {
		var closePileup func()
		pileupGen, closePileup, err = openPileup(cfg.Generator.Pileup, rngs)
		if err != nil {
			return sim.RunSummary{}, err
		}
		defer closePileup()
	}

	sink, err := output.NewRootSink(cfg.OutFile)
	if err != nil {
		return sim.RunSummary{}, err
	}
	p, err := sim.NewPipeline(cfg.Pipeline, primary, pileupGen, jets.NewAntiKt(), sink, key)
	if err != nil {
		_ = sink.Flush(nil)
		return sim.RunSummary{}, err
	}

	runErr := p.Run(ctx, cfg.Generator.Events)
	summary, err := p.Finish()
	if err != nil {
		return summary, err
	}

	manifestPath := output.ManifestPath(cfg.OutFile)
	manifest := output.NewManifest(cfg.OutFile, runSeed, cfg)
	manifest.Complete(summary)
	if err := manifest.Write(manifestPath); err != nil {
		return summary, err
	}
	logrus.Infof("Wrote %d jets to %s (run %s)", sink.Entries(), cfg.OutFile, manifest.RunID)

	if cfg.PlotsDir != "" {
		files, err := output.PlotFlavorComparison(p.Monitor, cfg.PlotsDir)
		if err != nil {
			return summary, err
		}
		logrus.Infof("Wrote %d comparison plots to %s", len(files), cfg.PlotsDir)
	}

	if runErr != nil {
		return summary, fmt.Errorf("generation stopped after %d accepted events: %w", summary.Counters.EventsAccepted, runErr)
	}

	if cfg.S3.Enabled() {
		pub, err := output.NewS3Publisher(ctx, cfg.S3)
		if err != nil {
			return summary, err
		}
		if err := pub.Publish(ctx, cfg.OutFile, manifestPath); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func openPrimary(cfg GeneratorConfig, rngs *sim.PartitionedRNG) (sim.Generator, func(), error) {
	if cfg.Input == "" {
		return source.NewToy(cfg.Toy, rngs.ForSubsystem(sim.SubsystemGenerator)), func() {}, nil
	}
	r, err := source.OpenHepMC(cfg.Input)
	if err != nil {
		return nil, nil, err
	}
	return r, closer(r), nil
}

func openPileup(cfg PileupConfig, rngs *sim.PartitionedRNG) (sim.Generator, func(), error) {
	if cfg.Input == "" {
		return source.NewMinBias(cfg.Multiplicity, 0, rngs.ForSubsystem(sim.SubsystemPileupGenerator)), func() {}, nil
	}
	r, err := source.OpenHepMC(cfg.Input)
	if err != nil {
		return nil, nil, fmt.Errorf("pileup input: %w", err)
	}
	return r, closer(r), nil
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logrus.Warnf("closing input: %v", err)
		}
	}
}

// resolveSeed returns seed unless it is negative, in which case a seed is
// derived from the wall clock and the process id so that array jobs started
// together still differ.
func resolveSeed(seed, now int64, pid int) int64 {
	if seed >= 0 {
		return seed
	}
	derived := ((now * 181) * ((int64(pid) - 83) * 359)) % 104729
	if derived < 0 {
		derived = -derived
	}
	return derived
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {

	generateCmd.Flags().StringVarP(&outFile, "out-file", "o", "test.root", "Output ROOT file name")
	generateCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML run configuration")
	generateCmd.Flags().StringVar(&plotsDir, "plots-dir", "", "Write light/charm/bottom comparison plots to this directory")
	generateCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Generation
	generateCmd.Flags().Float64Var(&ptHatMin, "pt-hat-min", 10, "Minimum pT hat of the hard process")
	generateCmd.Flags().Float64Var(&ptHatMax, "pt-hat-max", -1, "Maximum pT hat of the hard process (-1: unbounded)")
	generateCmd.Flags().IntVar(&events, "events", 1000, "Number of accepted events")
	generateCmd.Flags().Int64Var(&seed, "seed", -1, "Seed for event generation and detector simulation (-1: derive from time and pid)")

	// Jets and detector
	generateCmd.Flags().Float64Var(&radius, "r", 0.4, "Jet radius")
	generateCmd.Flags().Float64Var(&ptJetMin, "pt-jet-min", 10, "Minimum jet pT")
	generateCmd.Flags().Float64Var(&ptJetMax, "pt-jet-max", 200, "Maximum jet pT")
	generateCmd.Flags().Float64Var(&ptTrackMax, "pt-track-max", 30, "Maximum pT of accepted tracks")
	generateCmd.Flags().Float64Var(&trackingEfficiency, "tracking-efficiency", 0.8, "Tracking efficiency")
	generateCmd.Flags().BoolVar(&smear, "smear", false, "Use fast detector simulation")
	generateCmd.Flags().BoolVar(&pileup, "pileup", false, "Mix one pileup event into each event")
	generateCmd.Flags().StringVar(&unmatched, "unmatched", string(sim.UnmatchedSkipJet), "Unmatched-jet policy (skip-jet, abort-event)")

	// Publication
	generateCmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "Upload the output and manifest to this S3 bucket")
	generateCmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "Object key prefix")
	generateCmd.Flags().StringVar(&s3Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL (e.g. MinIO)")
	generateCmd.Flags().StringVar(&s3Region, "s3-region", "", "S3 region (default us-east-1)")

	// Attach `generate` as a subcommand to `root`
	rootCmd.AddCommand(generateCmd)
}
