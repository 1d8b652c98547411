package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksysoev/searchmix/pkg/core"
)

type searchFlags struct {
	Limit          int
	Tags           []string
	Count          bool
	NoSnippets     bool
	SnippetLength  int
	SnippetsPerDoc int
}

// newSearchCmd creates a cobra command that runs a query against the
// configured index and prints ranked snippets.
func newSearchCmd(flags *cmdFlags) *cobra.Command {
	sFlags := &searchFlags{}
	defaults := core.DefaultSearchOptions()

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index",
		Long:  "Run a boolean/field/phrase query against the index and print ranked, section-attributed snippets.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), flags, sFlags, args[0])
		},
	}

	cmd.Flags().IntVar(&sFlags.Limit, "limit", defaults.Limit, "maximum number of documents to return")
	cmd.Flags().StringSliceVar(&sFlags.Tags, "tag", nil, "restrict results to documents carrying the tag(s); untagged documents always match")
	cmd.Flags().BoolVar(&sFlags.Count, "count", false, "also compute the total number of matching documents")
	cmd.Flags().BoolVar(&sFlags.NoSnippets, "no-snippets", false, "return document matches without snippet extraction")
	cmd.Flags().IntVar(&sFlags.SnippetLength, "snippet-length", defaults.SnippetLength, "snippet context window size in bytes")
	cmd.Flags().IntVar(&sFlags.SnippetsPerDoc, "snippets-per-doc", defaults.SnippetsPerDoc, "maximum snippets per document")

	return cmd
}

func runSearch(ctx context.Context, flags *cmdFlags, sFlags *searchFlags, query string) error {
	idx, err := openIndex(flags)
	if err != nil {
		return err
	}

	defer idx.Close()

	opts := core.SearchOptions{
		Limit:          sFlags.Limit,
		Tags:           sFlags.Tags,
		Snippets:       !sFlags.NoSnippets,
		SnippetLength:  sFlags.SnippetLength,
		SnippetsPerDoc: sFlags.SnippetsPerDoc,
		Count:          sFlags.Count,
	}

	res, err := idx.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(res)

	return nil
}

//nolint:forbidigo // CLI output is intentional
func printResults(res *core.SearchResults) {
	if res.TotalCount != nil {
		fmt.Printf("total documents: %d\n", *res.TotalCount)
	}

	for _, s := range res.Results {
		fmt.Printf("%s", s.DocumentPath)

		if s.Heading != nil {
			fmt.Printf(" [%s %s]", s.Heading.Type, s.Heading.Text)
		}

		fmt.Printf(" (rank %.4f)\n", s.Rank)

		if s.Text != "" {
			fmt.Printf("  %s\n", s.Text)
		}
	}

	fmt.Printf("%d snippets in %d results\n", res.TotalSnippets, len(res.Results))
}
