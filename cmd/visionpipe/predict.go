package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/visionpipe/visionpipe/internal/annotate"
	"github.com/visionpipe/visionpipe/internal/config"
	"github.com/visionpipe/visionpipe/internal/database"
	"github.com/visionpipe/visionpipe/internal/engine"
	"github.com/visionpipe/visionpipe/internal/log"
	"github.com/visionpipe/visionpipe/internal/model"
	"github.com/visionpipe/visionpipe/internal/pipeline"
	"github.com/visionpipe/visionpipe/internal/report"
	"github.com/visionpipe/visionpipe/internal/source"
)

// NewPredictCmd creates the predict command.
func NewPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict [image-or-directory...]",
		Short: "Run images through the inference engine",
		Long: `Predict resolves the given image files and directories into a frame
sequence, runs every frame through the remote inference engine, and
collects the detection results. Frames can be annotated and written as
PNG files to a destination directory.

Sources may be image files (.jpg, .jpeg, .png, .gif) or directories,
which are enumerated in lexical order. A single image always runs
sequentially regardless of the selected strategy.

Examples:
  # Predict a directory of frames with the default concurrent pipeline
  visionpipe predict -e http://127.0.0.1:8500 ./frames

  # Sequential processing of a single image
  visionpipe predict -e http://127.0.0.1:8500 photo.jpg

  # Annotate and persist results, with a Markdown report
  visionpipe predict -e http://127.0.0.1:8500 -a -d ./out -m ./frames

  # Tune the batched pipeline
  visionpipe predict -e http://127.0.0.1:8500 -s batch-sequential -b 8 ./frames

Run-config file (.visionpipe) example:
  engine: http://127.0.0.1:8500
  strategy: channel-pipeline
  batch: 8
  conf: 0.4
  annotate: true
  annotateCfg:
    showConf: true
  saveDir: ./out`,
		Args: cobra.ArbitraryArgs,
		RunE: runPredictCmd,
	}

	// Engine flags
	cmd.Flags().StringP("engine", "e", "",
		"Base URL of the remote inference engine (e.g., http://127.0.0.1:8500)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultEngineTimeout,
		"Per-request timeout for engine calls")

	// Strategy flags
	cmd.Flags().StringP("strategy", "s", config.DefaultStrategy,
		"Execution strategy: sequential, batch-sequential, channel-pipeline, batch-channel-pipeline")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Inference batch size for batched strategies")
	cmd.Flags().Int("channel-capacity", config.DefaultChannelCapacity,
		"Inter-stage channel capacity for concurrent strategies")

	// Inference parameters
	cmd.Flags().Float64("conf", config.DefaultConfidence,
		"Minimum detection confidence threshold")
	cmd.Flags().Float64("iou", config.DefaultIoU,
		"IoU threshold for non-maximum suppression")
	cmd.Flags().Int("max-det", config.DefaultMaxDetections,
		"Maximum detections per frame")
	cmd.Flags().Int("imgsz", 0,
		"Inference image size (0 uses the engine default)")
	cmd.Flags().Bool("half", false,
		"Request FP16 half-precision inference")
	cmd.Flags().String("device", "",
		"Compute device (e.g., cpu, cuda:0; empty uses the engine default)")

	// Annotation flags
	cmd.Flags().BoolP("annotate", "a", false,
		"Annotate frames (required for persisting output images)")
	cmd.Flags().Bool("annotate-blank", false,
		"Draw annotations on a blank canvas instead of the source frame")
	cmd.Flags().Bool("show-label", false,
		"Draw class labels")
	cmd.Flags().Bool("show-conf", false,
		"Append confidence scores to labels")
	cmd.Flags().Int("top-k", 0,
		"Limit annotations to the K most confident detections (0 for all)")

	// Output flags
	cmd.Flags().StringP("save-dir", "d", "",
		"Destination directory for annotated images (wiped before every run)")
	cmd.Flags().BoolP("retain", "r", false,
		"Keep per-frame results in memory for reports and history")
	cmd.Flags().Bool("exif", false,
		"Probe EXIF capture info of source files")
	cmd.Flags().Bool("no-progress", false,
		"Disable the terminal progress bar")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Run-config file path (default: .visionpipe in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runPredictCmd executes the predict command.
func runPredictCmd(cmd *cobra.Command, args []string) error {
	// Build config from the run-config file and flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling. Cancellation stops the run
	// between frames or batches for the sequential strategies; a running
	// concurrent invocation drains to completion.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runPredict(ctx, cmd, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the run-config file and cobra flags.
// File values override defaults; flags the user actually set override
// the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPath

	// Load run-config file settings first.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	foundPath := config.FindConfigFile(cfg.ConfigFilePath)

	if foundPath != "" {
		cf, err := config.LoadConfigFile(foundPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", foundPath, err)
		}
		if err := cf.Apply(cfg); err != nil {
			return nil, err
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Always record runs using the XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Positional arguments (image files or directories)
	cfg.Targets = args

	return cfg, nil
}

// applyFlags copies flag values the user actually set onto the config,
// so flag values take precedence over run-config file values.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("engine") {
		if cfg.EngineURL, err = flags.GetString("engine"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.EngineTimeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("strategy") {
		if cfg.Strategy, err = flags.GetString("strategy"); err != nil {
			return err
		}
	}
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return err
		}
	}
	if flags.Changed("channel-capacity") {
		if cfg.ChannelCapacity, err = flags.GetInt("channel-capacity"); err != nil {
			return err
		}
	}
	if flags.Changed("conf") {
		if cfg.Confidence, err = flags.GetFloat64("conf"); err != nil {
			return err
		}
	}
	if flags.Changed("iou") {
		if cfg.IoU, err = flags.GetFloat64("iou"); err != nil {
			return err
		}
	}
	if flags.Changed("max-det") {
		if cfg.MaxDetections, err = flags.GetInt("max-det"); err != nil {
			return err
		}
	}
	if flags.Changed("imgsz") {
		if cfg.ImageSize, err = flags.GetInt("imgsz"); err != nil {
			return err
		}
	}
	if flags.Changed("half") {
		if cfg.Half, err = flags.GetBool("half"); err != nil {
			return err
		}
	}
	if flags.Changed("device") {
		if cfg.Device, err = flags.GetString("device"); err != nil {
			return err
		}
	}
	if flags.Changed("annotate") {
		if cfg.Annotate, err = flags.GetBool("annotate"); err != nil {
			return err
		}
	}
	if flags.Changed("annotate-blank") {
		if cfg.AnnotateOnBlank, err = flags.GetBool("annotate-blank"); err != nil {
			return err
		}
	}
	if flags.Changed("show-label") {
		if cfg.AnnotateShowLabel, err = flags.GetBool("show-label"); err != nil {
			return err
		}
	}
	if flags.Changed("show-conf") {
		if cfg.AnnotateShowConf, err = flags.GetBool("show-conf"); err != nil {
			return err
		}
	}
	if flags.Changed("top-k") {
		if cfg.AnnotateTopK, err = flags.GetInt("top-k"); err != nil {
			return err
		}
	}
	if flags.Changed("save-dir") {
		if cfg.SaveDir, err = flags.GetString("save-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("retain") {
		if cfg.RetainResults, err = flags.GetBool("retain"); err != nil {
			return err
		}
	}
	if flags.Changed("json") {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return err
		}
	}
	if flags.Changed("markdown") {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return err
		}
	}
	if flags.Changed("output") {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}

	return nil
}

// buildSource resolves the positional targets into a Source.
// A single target may be a file or a directory; multiple targets are
// treated as an explicit list of image files.
func buildSource(targets []string) source.Source {
	if len(targets) == 1 {
		return source.FromPath(targets[0])
	}
	return source.FromPaths(targets)
}

// runPredict executes the prediction run.
func runPredict(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	strategy, err := pipeline.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	logger.Info("starting prediction",
		"targets", cfg.Targets,
		"strategy", strategy.String(),
		"batchSize", cfg.BatchSize,
		"engine", cfg.EngineURL,
	)

	// Open database connection for run history
	var db *database.RunDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck // Best effort cleanup
		logger.Debug("database opened", "dir", cfg.DBDir)
	}

	eng := engine.NewHTTPEngine(cfg.EngineURL,
		engine.Options{
			Confidence:    cfg.Confidence,
			IoU:           cfg.IoU,
			MaxDetections: cfg.MaxDetections,
			ImageSize:     cfg.ImageSize,
			Half:          cfg.Half,
			Device:        cfg.Device,
		},
		engine.WithTimeout(cfg.EngineTimeout),
		engine.WithMaxBodySize(cfg.MaxBodySize),
	)

	exifEnabled, _ := cmd.Flags().GetBool("exif")         //nolint:errcheck // Flag is registered above
	noProgress, _ := cmd.Flags().GetBool("no-progress")   //nolint:errcheck // Flag is registered above

	// Reports and history frames need retained results.
	retain := cfg.RetainResults || cfg.JSONReport || cfg.MarkdownReport

	opts := []pipeline.RunnerOption{
		pipeline.WithStrategy(strategy),
		pipeline.WithBatchSize(cfg.BatchSize),
		pipeline.WithChannelCapacity(cfg.ChannelCapacity),
		pipeline.WithSaveDir(cfg.SaveDir),
		pipeline.WithRetainResults(retain),
		pipeline.WithCaptureInfo(exifEnabled),
		pipeline.WithProgress(!noProgress),
		pipeline.WithRunnerLogger(logger),
	}
	if cfg.Annotate {
		opts = append(opts, pipeline.WithAnnotator(annotate.Passthrough, annotate.Config{
			OnBlank:   cfg.AnnotateOnBlank,
			ShowBox:   cfg.AnnotateShowBox,
			ShowLabel: cfg.AnnotateShowLabel,
			ShowConf:  cfg.AnnotateShowConf,
			TopK:      cfg.AnnotateTopK,
		}))
	}

	runner, err := pipeline.NewRunner(eng, opts...)
	if err != nil {
		return err
	}

	results, summary, err := runner.Run(ctx, buildSource(cfg.Targets))
	if err != nil {
		return fmt.Errorf("prediction run failed: %w", err)
	}

	// Generate and output the report
	if err := outputReport(cfg, summary, results); err != nil {
		logger.Error("report failed", "error", err)
	}

	// Record the run in the history database
	if db != nil {
		if _, err := db.SaveRun(ctx, summary, results); err != nil {
			logger.Error("failed to record run", "error", err)
		} else {
			logger.Debug("run recorded", "dir", cfg.DBDir)
		}
	}

	return nil
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, summary *model.RunSummary, results []model.FrameResult) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Best effort cleanup
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		// Human-readable report (default)
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(summary, results)
	return err
}
