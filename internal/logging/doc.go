// Package logging provides structured logging with per-module log level configuration.
//
// The logging system uses Go's slog package with automatic output routing:
//   - systemd journal when available (Linux systems with journald)
//   - stdout when a terminal, pipe, or file is connected
//   - an in-memory ring buffer that feeds the SSE log stream
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"player": "debug",
//			"api":    "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("player")
//	logger.Info("Pattern started", "led", "blue", "pattern", "1000")
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("player").With("led", name)
//
// When running under systemd:
//
//	journalctl -t blinkd              # All blinkd logs
//	journalctl -t blinkd -f           # Follow live
//	journalctl -t blinkd MODULE=player LED=blue
//
// Module-specific levels override the global level for that module only.
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	player = "debug"
//	gpio = "warn"
package logging
