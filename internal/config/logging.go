package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger creates a dual-output logger: text to stderr at consoleLevel,
// JSON appended to logFile at fileLevel.
// Returns the logger and a cleanup function to close the file.
func SetupLogger(logFile string, consoleLevel, fileLevel slog.Level) (*slog.Logger, func() error) {
	// Stderr handler (text, quiet by default so prompts stay readable)
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: consoleLevel,
	})

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Fall back to stderr-only if file fails
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return slog.New(stderrHandler), func() error { return nil }
	}

	// File handler (JSON for machine parsing)
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: fileLevel,
	})

	logger := slog.New(slogmulti.Fanout(stderrHandler, fileHandler))

	cleanup := func() error {
		return file.Close()
	}

	return logger, cleanup
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
func SetupLoggerWithWriters(stderr, file io.Writer, consoleLevel, fileLevel slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: consoleLevel})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: fileLevel})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}
