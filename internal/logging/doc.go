// Package logging provides structured logging with per-module log levels.
//
// Loggers are plain *slog.Logger values tagged with a module attribute:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"supervisor": "debug",
//			"api":        "warn",
//		},
//	})
//
//	logger := logging.GetLogger("supervisor")
//	logger.Info("Run started", "session_id", id)
//
// Records go to stdout when it is connected, to the systemd journal when
// journald is present (SYSLOG_IDENTIFIER=rodopt), and always to an in-memory
// ring buffer that the HTTP API replays to log stream clients.
//
//	journalctl -t rodopt MODULE=supervisor
package logging
