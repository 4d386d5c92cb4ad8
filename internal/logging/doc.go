// Package logging provides centralized zerolog-based structured logging.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production, console output for development
//   - Global logger configuration via Init(Config)
//   - Context-aware logging with request/correlation ID propagation
//
// # Quick Start
//
//	import "github.com/Betucciny/predictive-module/internal/logging"
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("client", clientID).Msg("recommendation served")
//	logging.Error().Err(err).Msg("artifact reload failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Info().Msg("request handled")
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger is
// protected by sync.RWMutex for configuration changes.
package logging
