package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default run-config file name.
const DefaultConfigFile = ".visionpipe"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .visionpipe run-config file.
// Every field is optional; absent fields leave the corresponding Config
// value (default or flag-provided) untouched. Pointer types distinguish
// "not set" from an explicit zero value.
type File struct {
	// Engine is the base URL of the remote inference engine.
	Engine *string `yaml:"engine,omitempty"`

	// Strategy names the pipeline strategy.
	Strategy *string `yaml:"strategy,omitempty"`

	// Batch is the inference batch size.
	Batch *int `yaml:"batch,omitempty"`

	// ChannelCapacity bounds the inter-stage channels.
	ChannelCapacity *int `yaml:"channelCapacity,omitempty"`

	// Conf, IoU, MaxDet, ImgSz, Half, and Device are inference parameters
	// forwarded to the engine.
	Conf   *float64 `yaml:"conf,omitempty"`
	IoU    *float64 `yaml:"iou,omitempty"`
	MaxDet *int     `yaml:"maxDet,omitempty"`
	ImgSz  *int     `yaml:"imgsz,omitempty"`
	Half   *bool    `yaml:"half,omitempty"`
	Device *string  `yaml:"device,omitempty"`

	// Timeout is the per-request engine timeout in time.ParseDuration
	// syntax (e.g. "60s").
	Timeout *string `yaml:"timeout,omitempty"`

	// Annotate enables the annotation stage.
	Annotate *bool `yaml:"annotate,omitempty"`

	// AnnotateCfg customizes annotation rendering.
	AnnotateCfg *AnnotateFileConfig `yaml:"annotateCfg,omitempty"`

	// SaveDir is the destination directory for annotated images.
	SaveDir *string `yaml:"saveDir,omitempty"`

	// RetainResults keeps per-frame outcomes in memory.
	RetainResults *bool `yaml:"retainResults,omitempty"`
}

// AnnotateFileConfig mirrors the annotation options of the run-config file.
type AnnotateFileConfig struct {
	OnBlank   *bool `yaml:"onBlank,omitempty"`
	ShowBox   *bool `yaml:"showBox,omitempty"`
	ShowLabel *bool `yaml:"showLabel,omitempty"`
	ShowConf  *bool `yaml:"showConf,omitempty"`
	TopK      *int  `yaml:"topK,omitempty"`
}

// LoadConfigFile loads run settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the run-config file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .visionpipe in the current directory
//  3. Look for .visionpipe in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if
// not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply copies every set field of the file onto the config.
// Flag values applied after this call take precedence over file values.
// An unparseable timeout string is the only way Apply can fail.
func (cf *File) Apply(c *Config) error {
	if cf.Engine != nil {
		c.EngineURL = *cf.Engine
	}
	if cf.Strategy != nil {
		c.Strategy = *cf.Strategy
	}
	if cf.Batch != nil {
		c.BatchSize = *cf.Batch
	}
	if cf.ChannelCapacity != nil {
		c.ChannelCapacity = *cf.ChannelCapacity
	}
	if cf.Conf != nil {
		c.Confidence = *cf.Conf
	}
	if cf.IoU != nil {
		c.IoU = *cf.IoU
	}
	if cf.MaxDet != nil {
		c.MaxDetections = *cf.MaxDet
	}
	if cf.ImgSz != nil {
		c.ImageSize = *cf.ImgSz
	}
	if cf.Half != nil {
		c.Half = *cf.Half
	}
	if cf.Device != nil {
		c.Device = *cf.Device
	}
	if cf.Timeout != nil {
		d, err := time.ParseDuration(*cf.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q in config file: %w", *cf.Timeout, err)
		}
		c.EngineTimeout = d
	}
	if cf.Annotate != nil {
		c.Annotate = *cf.Annotate
	}
	if cf.SaveDir != nil {
		c.SaveDir = *cf.SaveDir
	}
	if cf.RetainResults != nil {
		c.RetainResults = *cf.RetainResults
	}
	if cf.AnnotateCfg != nil {
		if cf.AnnotateCfg.OnBlank != nil {
			c.AnnotateOnBlank = *cf.AnnotateCfg.OnBlank
		}
		if cf.AnnotateCfg.ShowBox != nil {
			c.AnnotateShowBox = *cf.AnnotateCfg.ShowBox
		}
		if cf.AnnotateCfg.ShowLabel != nil {
			c.AnnotateShowLabel = *cf.AnnotateCfg.ShowLabel
		}
		if cf.AnnotateCfg.ShowConf != nil {
			c.AnnotateShowConf = *cf.AnnotateCfg.ShowConf
		}
		if cf.AnnotateCfg.TopK != nil {
			c.AnnotateTopK = *cf.AnnotateCfg.TopK
		}
	}

	return nil
}
