// Package logging provides structured logging configuration for routemock.
//
// This package wraps log/slog so every routemock component logs the same way.
// It supports configurable log levels and output formats.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("routes reloaded", "generation", gen, "routes", 12)
//
// # Components
//
// Components accept a *slog.Logger through a functional option and default
// to Nop(). Component() tags a logger with the subsystem name so reload,
// watch, and request output can be told apart:
//
//	log := logging.Component(base, "mount")
//
// # Output Formats
//
//   - Text: human-readable format for development
//   - JSON: structured format for log aggregation systems
package logging
