// Package config handles application configuration and setup
package config

import (
	"github.com/retroenv/retrogolib/log"
)

// Defaults of the command line options.
const (
	DefaultFrames               = 600
	DefaultInstructionsPerFrame = 11
	DefaultScale                = 8
)

// CreateLogger creates a logger with appropriate settings, debug takes
// precedence over quiet.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	switch {
	case debug:
		cfg.Level = log.DebugLevel
	case quiet:
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
