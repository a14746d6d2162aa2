// Package logging provides a minimal logging interface and adapters for AgentLaunch.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the deployment client, the local app and the CLI use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - AgentLaunchLogger with component/resource context helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	client, err := engine.NewClient(ctx, cfg, func(o *engine.Options) {
//		o.Logger = logger
//	})
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
