package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksysoev/searchmix/pkg/core"
	"github.com/ksysoev/searchmix/pkg/index"
)

type indexFlags struct {
	Tags          []string
	Exclude       []string
	Recursive     bool
	Update        bool
	CheckModified bool
}

// newIndexCmd creates a cobra command that indexes files or directories
// into the configured index.
func newIndexCmd(flags *cmdFlags) *cobra.Command {
	idxFlags := &indexFlags{}
	defaults := core.DefaultAddOptions()

	cmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "Index files or directories",
		Long:  "Convert, parse, and index the given files or directories into the configured full-text index.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), flags, idxFlags, args)
		},
	}

	cmd.Flags().StringSliceVar(&idxFlags.Tags, "tag", nil, "tag(s) to attach to every indexed document")
	cmd.Flags().StringSliceVar(&idxFlags.Exclude, "exclude", defaults.Exclude, "glob pattern(s) to skip during directory scans")
	cmd.Flags().BoolVar(&idxFlags.Recursive, "recursive", defaults.Recursive, "descend into subdirectories")
	cmd.Flags().BoolVar(&idxFlags.Update, "update", defaults.Update, "force re-indexing of already indexed paths")
	cmd.Flags().BoolVar(&idxFlags.CheckModified, "check-modified", defaults.CheckModified, "re-index when the file's mtime changed")

	return cmd
}

func runIndex(ctx context.Context, flags *cmdFlags, idxFlags *indexFlags, paths []string) error {
	idx, err := openIndex(flags)
	if err != nil {
		return err
	}

	defer idx.Close()

	opts := core.DefaultAddOptions()
	opts.Tags = idxFlags.Tags
	opts.Exclude = idxFlags.Exclude
	opts.Recursive = idxFlags.Recursive
	opts.Update = idxFlags.Update
	opts.CheckModified = idxFlags.CheckModified

	var total index.AddResult

	for _, path := range paths {
		result, err := idx.Add(ctx, path, opts)
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", path, err)
		}

		total.Indexed += result.Indexed
		total.Skipped += result.Skipped
		total.Failed += result.Failed
	}

	fmt.Printf("indexed %d, skipped %d, failed %d\n", total.Indexed, total.Skipped, total.Failed) //nolint:forbidigo // CLI output is intentional

	return nil
}

// openIndex initializes the logger, loads configuration, and opens the
// embedded index.
func openIndex(flags *cmdFlags) (*index.Index, error) {
	if err := initLogger(flags); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	idx, err := index.New(cfg.toCoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	return idx, nil
}
