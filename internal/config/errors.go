package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSource is returned when no input path is specified.
	// At least one image file or directory argument is required.
	ErrNoSource = errors.New("no source specified: provide one or more image files or directories")

	// ErrNoEngine is returned when no inference engine URL is configured.
	ErrNoEngine = errors.New("no inference engine specified: set --engine or the engine key in the config file")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidChannelCapacity is returned when the channel capacity is
	// not positive. Unbuffered stage channels would serialize the pipeline.
	ErrInvalidChannelCapacity = errors.New("invalid channel capacity: must be positive")

	// ErrInvalidConfidence is returned when the confidence threshold is
	// outside [0, 1].
	ErrInvalidConfidence = errors.New("invalid confidence threshold: must be in [0, 1]")

	// ErrInvalidIoU is returned when the IoU threshold is outside [0, 1].
	ErrInvalidIoU = errors.New("invalid iou threshold: must be in [0, 1]")

	// ErrInvalidTimeout is returned when the engine timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid engine timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
