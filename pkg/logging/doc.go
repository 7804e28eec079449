// Package logging configures the structured loggers used across reqlab.
//
// It is a thin layer over log/slog. Components accept a *slog.Logger in their
// constructor; when none is given they fall back to Nop().
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel(cfg.LogLevel),
//	    Format: logging.ParseFormat(cfg.LogFormat),
//	})
//	logger.Info("api listening", "addr", cfg.Listen)
//
// Text output is meant for terminals, JSON output for log collectors. Tee
// fans a record out to several handlers, e.g. stderr plus a log file.
package logging
