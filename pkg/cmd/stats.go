package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newStatsCmd creates a cobra command that prints index statistics,
// optionally scoped to one tag.
func newStatsCmd(flags *cmdFlags) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(_ *cobra.Command, _ []string) error {
			idx, err := openIndex(flags)
			if err != nil {
				return err
			}

			defer idx.Close()

			stats, err := idx.Stats(tag)
			if err != nil {
				return fmt.Errorf("failed to read stats: %w", err)
			}

			if stats.Tag != "" {
				fmt.Printf("documents tagged %q: %d\n", stats.Tag, stats.DocumentCount) //nolint:forbidigo // CLI output is intentional
			} else {
				fmt.Printf("documents: %d\n", stats.DocumentCount) //nolint:forbidigo // CLI output is intentional
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "scope the count to one tag")

	return cmd
}

// newRemoveCmd creates a cobra command that removes documents by path, by
// tag, or clears the whole index.
func newRemoveCmd(flags *cmdFlags) *cobra.Command {
	var (
		tag string
		all bool
	)

	cmd := &cobra.Command{
		Use:   "remove [paths...]",
		Short: "Remove documents from the index",
		Long:  "Remove documents by path, remove every document carrying a tag (--tag), or clear the whole index (--all).",
		RunE: func(_ *cobra.Command, args []string) error {
			if !all && tag == "" && len(args) == 0 {
				return fmt.Errorf("nothing to remove: pass paths, --tag, or --all")
			}

			idx, err := openIndex(flags)
			if err != nil {
				return err
			}

			defer idx.Close()

			if all {
				return idx.Clear()
			}

			if tag != "" {
				removed, err := idx.RemoveByTag(tag)
				if err != nil {
					return fmt.Errorf("failed to remove by tag: %w", err)
				}

				fmt.Printf("removed %d documents\n", removed) //nolint:forbidigo // CLI output is intentional

				return nil
			}

			for _, path := range args {
				if err := idx.RemoveDocument(path); err != nil {
					return fmt.Errorf("failed to remove %s: %w", path, err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "remove every document carrying this tag")
	cmd.Flags().BoolVar(&all, "all", false, "clear the whole index")

	return cmd
}
