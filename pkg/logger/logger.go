// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithRun: it creates a logger with the
// run ID already attached, so every log line emitted while a suite executes
// is automatically correlated:
//
//	log := logger.WithRun(runID)
//	log.Info("scenario passed", "scenario", "coupon_lifecycle")
//	// → time=... level=INFO msg="scenario passed" run_id=a1b2c3d4 scenario=coupon_lifecycle
package logger

import (
	"log/slog"
	"os"

	"github.com/shashiranjanraj/mediaprobe/config"
)

var L *slog.Logger

func init() {
	var level slog.Level
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: level}

	switch config.AppEnv() {
	case "production", "prod", "ci":
		level = slog.LevelInfo
		opts.Level = level
		handler = slog.NewJSONHandler(os.Stdout, opts) // structured JSON for log aggregators
	default:
		level = slog.LevelDebug
		opts.Level = level
		handler = slog.NewTextHandler(os.Stdout, opts) // human-readable for dev
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// WithRun returns a *slog.Logger pre-tagged with the given run ID.
func WithRun(runID string) *slog.Logger {
	if runID == "" {
		return L
	}
	return L.With("run_id", runID)
}

// SetHandler swaps the handler on the package logger. Used to fan out to
// the Mongo archive handler when MONGO_URI is configured.
func SetHandler(h slog.Handler) {
	L = slog.New(h)
	slog.SetDefault(L)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
