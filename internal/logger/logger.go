package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// process is the logger installed by the last successful Initialize.
var process *zap.Logger

// Initialize builds the process logger at level and installs it as zap's
// global. An empty level means info; "debug" switches to the development
// encoder. Everything is written to stderr so report output on stdout stays
// machine-readable.
func Initialize(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	built, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	process = built
	zap.ReplaceGlobals(built)
	return nil
}

// Bootstrap installs a logger before the configuration has been read, so
// that configuration loading itself is logged. An unusable level falls back
// to info; the configured level is applied by a later Initialize.
func Bootstrap(level string) {
	if Initialize(level) != nil {
		_ = Initialize("info")
	}
}

// Sync flushes the process logger, if one was installed.
func Sync() {
	if process != nil {
		_ = process.Sync()
	}
}

// For returns the global logger scoped to a package name. Components call it
// when no logger was injected.
func For(packageName string) *zap.Logger {
	return zap.L().With(zap.String("package", packageName))
}
