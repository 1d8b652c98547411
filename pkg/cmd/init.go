// Package cmd wires the command-line interface: a cobra command tree over
// the embeddable index, with configuration loaded from flags, a YAML file,
// and environment variables via viper.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// BuildInfo holds the build metadata injected at compile time.
type BuildInfo struct {
	Version string
	AppName string
}

type cmdFlags struct {
	version    string
	appName    string
	ConfigPath string `mapstructure:"config"`
	LogLevel   string `mapstructure:"log_level"`
	TextFormat bool   `mapstructure:"log_text"`
}

// InitCommand initializes the root command of the CLI application with its
// subcommands and flags.
func InitCommand(build BuildInfo) cobra.Command {
	flags := cmdFlags{
		version: build.Version,
		appName: build.AppName,
	}

	cmd := cobra.Command{
		Use:   flags.appName,
		Short: "Full-text search over structured text documents",
		Long:  "Searchmix indexes Markdown (and EPUB/PDF/SRT/TXT) corpora into an embedded full-text index and answers ranked queries with section-aware snippets.",
	}

	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.TextFormat, "log-text", true, "log in text format, otherwise JSON")
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to the configuration file")

	for _, name := range []string{"log_level", "log_text"} {
		if err := viper.BindEnv(name); err != nil {
			slog.Error("failed to bind env var", "name", name, "error", err)
		}
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&flags); err != nil {
		slog.Error("failed to unmarshal env vars", "error", err)
	}

	indexCmd := newIndexCmd(&flags)
	searchCmd := newSearchCmd(&flags)
	statsCmd := newStatsCmd(&flags)
	removeCmd := newRemoveCmd(&flags)

	cmd.AddCommand(indexCmd, searchCmd, statsCmd, removeCmd)

	return cmd
}
