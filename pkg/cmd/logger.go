package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// initLogger configures the process-wide slog default from the CLI flags:
// level parsed from --log-level, text or JSON handler per --log-text, with
// the app version attached to every record.
func initLogger(flags *cmdFlags) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flags.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", flags.LogLevel, err)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if flags.TextFormat {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	if flags.version != "" {
		logger = logger.With("version", flags.version)
	}

	slog.SetDefault(logger)

	return nil
}
