// Package observability holds the process-wide loggers. CLI commands
// use a console logger; the server uses a structured JSON logger.
package observability

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// CLILogger is used for CLI commands (console encoding)
	CLILogger *zap.Logger

	// ServerLogger is used for the HTTP server (JSON encoding)
	ServerLogger *zap.Logger

	// serverLevel gates the server logger and can be adjusted at
	// runtime without rebuilding the logger.
	serverLevel zap.AtomicLevel
)

// InitCLILogger initializes the CLI logger with console output on
// stderr so command output on stdout stays clean.
func InitCLILogger(serviceName string, verbose bool) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	logger, err := cfg.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to initialize CLI logger: %v\n", err)
		os.Exit(1)
	}

	CLILogger = logger
}

// InitServerLogger initializes the server logger with JSON output.
func InitServerLogger(serviceName string, logLevel string) {
	serverLevel = zap.NewAtomicLevelAt(parseLogLevel(logLevel))

	cfg := zap.NewProductionConfig()
	cfg.Level = serverLevel
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to initialize server logger: %v\n", err)
		os.Exit(1)
	}

	ServerLogger = logger
}

// SetServerLevel adjusts the running server logger's level. A no-op
// before InitServerLogger.
func SetServerLevel(logLevel string) {
	if ServerLogger == nil {
		return
	}
	serverLevel.SetLevel(parseLogLevel(logLevel))
}

// Logger returns whichever logger has been initialized, preferring the
// server logger, falling back to a no-op logger so library code never
// nil-checks.
func Logger() *zap.Logger {
	if ServerLogger != nil {
		return ServerLogger
	}
	if CLILogger != nil {
		return CLILogger
	}
	return zap.NewNop()
}

// Sync flushes any buffered log entries. Called on shutdown.
func Sync() {
	if CLILogger != nil {
		_ = CLILogger.Sync()
	}
	if ServerLogger != nil {
		_ = ServerLogger.Sync()
	}
}

// parseLogLevel converts a config string to a zap level.
func parseLogLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
