package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBatchSize is the inference batch size for batched strategies.
	// Four frames per batch keeps per-request payloads small while still
	// amortizing engine round-trip overhead.
	DefaultBatchSize = 4

	// DefaultChannelCapacity bounds each inter-stage channel in the
	// concurrent strategies. Peak memory between any two stages is
	// capacity * average frame size.
	DefaultChannelCapacity = 8

	// DefaultConfidence is the minimum detection confidence threshold
	// forwarded to the inference engine.
	DefaultConfidence = 0.25

	// DefaultIoU is the IoU threshold for non-maximum suppression,
	// forwarded to the inference engine.
	DefaultIoU = 0.45

	// DefaultMaxDetections caps the number of detections per frame,
	// forwarded to the inference engine.
	DefaultMaxDetections = 300

	// DefaultEngineTimeout is the per-request timeout for the remote
	// inference engine. Batched requests carry several encoded images, so
	// this is generous.
	DefaultEngineTimeout = 60 * time.Second

	// DefaultMaxBodySize limits the maximum engine response body size.
	// 10MB covers even very dense detection results while preventing
	// memory exhaustion from a misbehaving server.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// AppName is the application name used for XDG directory paths.
	AppName = "visionpipe"

	// DefaultStrategy is the pipeline strategy used when none is
	// configured. The batched concurrent pipeline is the fastest path for
	// multi-image sources.
	DefaultStrategy = "batch-channel-pipeline"
)

// Config holds all configuration options for a visionpipe invocation.
// This struct is populated from CLI flags (optionally pre-seeded from a
// .visionpipe run-config file) and passed through the application via
// dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., EngineConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// EngineURL is the base URL of the remote inference engine
	// (e.g., "http://127.0.0.1:8500"). Required for prediction runs.
	EngineURL string

	// Strategy names the pipeline strategy: "sequential",
	// "batch-sequential", "channel-pipeline", or "batch-channel-pipeline".
	// A single-image source always runs sequentially regardless of this
	// setting.
	Strategy string

	// BatchSize is the inference batch size for the batched strategies.
	// Values below 1 fall back to 1.
	BatchSize int

	// ChannelCapacity bounds every inter-stage channel in the concurrent
	// strategies. Values below 1 fall back to DefaultChannelCapacity.
	ChannelCapacity int

	// Annotate enables the annotation stage. When false, frames pass
	// through with no annotated image and nothing is persisted.
	Annotate bool

	// AnnotateOnBlank draws annotations on a blank canvas instead of the
	// source image. Forwarded to the annotator unchanged.
	AnnotateOnBlank bool

	// AnnotateShowBox, AnnotateShowLabel, AnnotateShowConf select which
	// elements the annotator renders. Forwarded unchanged.
	AnnotateShowBox   bool
	AnnotateShowLabel bool
	AnnotateShowConf  bool

	// AnnotateTopK limits classification annotations to the top K classes.
	// Zero means annotator default.
	AnnotateTopK int

	// SaveDir is the destination directory for annotated images. The
	// directory is wiped and recreated at the start of every invocation
	// that persists. Empty disables persistence.
	SaveDir string

	// RetainResults keeps every surviving frame's outcome (and annotated
	// image) in memory and returns the full ordered list to the caller.
	// When false, frames are freed as soon as the collect stage consumes
	// them, bounding peak memory to channel capacity times frame size.
	RetainResults bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Confidence, IoU, MaxDetections, ImageSize, Half, and Device are
	// inference parameters forwarded to the engine without interpretation.
	Confidence    float64
	IoU           float64
	MaxDetections int
	ImageSize     int
	Half          bool
	Device        string

	// EngineTimeout is the per-request timeout for engine calls.
	EngineTimeout time.Duration

	// MaxBodySize is the maximum engine response body size in bytes to
	// read. Set to 0 to use the default.
	MaxBodySize int64

	// JSONReport enables JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ConfigFilePath is the path to the run-config file.
	// If empty, the tool searches for .visionpipe in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// DBDir is the directory path for storing the SQLite run database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to record the run in the database.
	SaveToDB bool

	// Targets is the list of input paths (image files or directories).
	Targets []string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults; users override specific
// values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (thresholds, batch size,
// channel capacity). This also serves as documentation of the defaults.
func NewConfig() *Config {
	return &Config{
		Strategy:        DefaultStrategy,
		BatchSize:       DefaultBatchSize,
		ChannelCapacity: DefaultChannelCapacity,
		Confidence:      DefaultConfidence,
		IoU:             DefaultIoU,
		MaxDetections:   DefaultMaxDetections,
		EngineTimeout:   DefaultEngineTimeout,
		MaxBodySize:     DefaultMaxBodySize,
		AnnotateShowBox: true,
	}
}

// XDGDataDir returns the XDG data directory for visionpipe.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/visionpipe
// On macOS: ~/Library/Application Support/visionpipe
// On Windows: %LOCALAPPDATA%\visionpipe
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for visionpipe.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any processing begins.
// The first error found is returned rather than collecting all errors,
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoSource
	}

	if c.EngineURL == "" {
		return ErrNoEngine
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.ChannelCapacity <= 0 {
		return ErrInvalidChannelCapacity
	}

	if c.Confidence < 0 || c.Confidence > 1 {
		return ErrInvalidConfidence
	}

	if c.IoU < 0 || c.IoU > 1 {
		return ErrInvalidIoU
	}

	if c.EngineTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
