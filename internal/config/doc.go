// Package config provides configuration structures and utilities for
// visionpipe. It defines the main options for source selection, inference
// strategy, batching, annotation, persistence, and report generation.
package config
