// Package logging configures the operational slog loggers used by portmock.
//
// Operational logs are developer-facing (route registration, chunk delivery,
// upstream failures). They are distinct from the request log kept by
// package requestlog, which records what the mocks served.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("listener started", "port", 8080)
//
// Components accept a *slog.Logger through an option and fall back to
// Nop() when none is given.
package logging
