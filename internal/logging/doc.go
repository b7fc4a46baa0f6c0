// Package logging provides centralized zerolog-based structured logging for
// the marker engine daemon.
//
// This package implements a unified logging layer using zerolog, providing
// zero-allocation structured JSON logging for production and human-readable
// console output for development.
//
// # Quick Start
//
//	import "github.com/sceneindex/markerd/internal/logging"
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("parent", parentID).Msg("marker added")
//	logging.Error().Err(err).Msg("add failed")
//
//	logging.Ctx(ctx).Info().Str("request_id", reqID).Msg("processing")
//
// # Configuration
//
// Level, format, caller and output are set through the Config passed to
// Init (markerd's main takes the level from the log_level config option).
// This package reads no LOG_* environment variables; the only variable it
// consults is FUZZ_MODE=1, which raises the initial level to fatal.
//
// # Structured Logging Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// # Component Loggers
//
//	engineLogger := logging.With().Str("component", "engine").Logger()
//	engineLogger.Info().Msg("shift applied")
//
// # Context-Aware Logging
//
//	logger := logging.Ctx(ctx)
//	logger.Info().Msg("processing request")
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger is
// protected by sync.RWMutex for configuration changes.
package logging
