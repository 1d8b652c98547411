package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/ksysoev/searchmix/pkg/core"
)

type appConfig struct {
	Index indexConfig `mapstructure:"index"`
}

// indexConfig holds configuration for the embedded index.
type indexConfig struct {
	DBPath            string        `mapstructure:"db_path"`
	IncludeCodeBlocks bool          `mapstructure:"include_code_blocks"`
	Weights           weightsConfig `mapstructure:"weights"`
}

// weightsConfig holds the per-field BM25 ranking weights.
type weightsConfig struct {
	Title float64 `mapstructure:"title"`
	H1    float64 `mapstructure:"h1"`
	H2    float64 `mapstructure:"h2"`
	H3    float64 `mapstructure:"h3"`
	H4    float64 `mapstructure:"h4"`
	H5    float64 `mapstructure:"h5"`
	H6    float64 `mapstructure:"h6"`
	Body  float64 `mapstructure:"body"`
}

// loadConfig loads the application configuration from the specified file
// path and environment variables. An absent config file is not an error;
// defaults apply.
func loadConfig(flags *cmdFlags) (*appConfig, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())

	if flags.ConfigPath != "" {
		v.SetConfigFile(flags.ConfigPath)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg appConfig

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	slog.Debug("Config loaded", slog.Any("config", cfg))

	return &cfg, nil
}

// toCoreConfig converts the file/env configuration to the index's Config,
// filling unset values with the library defaults.
func (c *appConfig) toCoreConfig() core.Config {
	cfg := core.DefaultConfig()

	if c.Index.DBPath != "" {
		cfg.DBPath = c.Index.DBPath
	}

	cfg.IncludeCodeBlocks = c.Index.IncludeCodeBlocks

	w := c.Index.Weights
	for _, f := range []struct {
		src float64
		dst *float64
	}{
		{w.Title, &cfg.Weights.Title}, {w.H1, &cfg.Weights.H1}, {w.H2, &cfg.Weights.H2},
		{w.H3, &cfg.Weights.H3}, {w.H4, &cfg.Weights.H4}, {w.H5, &cfg.Weights.H5},
		{w.H6, &cfg.Weights.H6}, {w.Body, &cfg.Weights.Body},
	} {
		if f.src != 0 {
			*f.dst = f.src
		}
	}

	return cfg
}
