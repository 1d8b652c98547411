package core

// FieldWeights holds the per-field BM25 weight configuration used by the
// storage layer. Unindexed columns (path, tags, structure, sections_index,
// mtime) implicitly receive weight 0 and are never matched against.
type FieldWeights struct {
	Title float64
	H1    float64
	H2    float64
	H3    float64
	H4    float64
	H5    float64
	H6    float64
	Body  float64
}

// DefaultWeights returns the default per-field ranking weights.
func DefaultWeights() FieldWeights {
	return FieldWeights{
		Title: 10,
		H1:    9,
		H2:    7,
		H3:    5,
		H4:    3,
		H5:    2,
		H6:    1.5,
		Body:  1,
	}
}

// For returns the configured weight for the given field.
func (w FieldWeights) For(f SectionType) float64 {
	switch f {
	case SectionTitle:
		return w.Title
	case SectionH1:
		return w.H1
	case SectionH2:
		return w.H2
	case SectionH3:
		return w.H3
	case SectionH4:
		return w.H4
	case SectionH5:
		return w.H5
	case SectionH6:
		return w.H6
	case SectionBody:
		return w.Body
	default:
		return 0
	}
}

// Config configures a new Index.
type Config struct {
	// DBPath is the on-disk location of the persistent full-text index.
	DBPath string
	// IncludeCodeBlocks controls whether fenced/indented code blocks are
	// attached to their owning section's content. The body field always
	// holds the full raw source, code blocks included.
	IncludeCodeBlocks bool
	// Weights are the per-field BM25 weights used for ranking.
	Weights FieldWeights
	// DetectLanguage, when set, returns a language code for a document's
	// text; a non-empty result is appended to the document's tags. Language
	// detection is an external collaborator; nil disables it.
	DetectLanguage func(text string) string
}

// DefaultConfig returns the default Index configuration.
func DefaultConfig() Config {
	return Config{
		DBPath:            "./db/searchmix.db",
		IncludeCodeBlocks: false,
		Weights:           DefaultWeights(),
	}
}

// AddOptions configures an Add call.
type AddOptions struct {
	// Tags are attached to every document indexed by this call, in addition
	// to any auto-detected language tag.
	Tags []string
	// Exclude lists glob patterns (relative to the scan root) to skip during
	// directory scans.
	Exclude []string
	// Recursive controls whether directory scans descend into
	// subdirectories.
	Recursive bool
	// SkipExisting, when true, leaves an already-indexed path untouched
	// unless Update or CheckModified triggers a re-index.
	SkipExisting bool
	// Update forces re-indexing of a path that is already present.
	Update bool
	// CheckModified re-indexes a path when its current mtime differs from
	// the stored mtime by more than the 1-second tolerance.
	CheckModified bool
}

// DefaultAddOptions returns the default AddOptions.
func DefaultAddOptions() AddOptions {
	return AddOptions{
		Exclude:       []string{"node_modules", ".git"},
		Recursive:     true,
		SkipExisting:  true,
		Update:        false,
		CheckModified: true,
	}
}

// SearchOptions configures a Search call.
type SearchOptions struct {
	Limit          int
	MinScore       *float64
	Tags           []string
	Snippets       bool
	SnippetLength  int
	SnippetsPerDoc int
	Count          bool
}

// DefaultSearchOptions returns the default SearchOptions.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:          10,
		Snippets:       true,
		SnippetLength:  200,
		SnippetsPerDoc: 3,
		Count:          false,
	}
}

// SearchResults is the response from a Search call.
type SearchResults struct {
	Results       []Snippet
	TotalCount    *int
	TotalSnippets int
}

// Stats summarizes the index, optionally scoped to a single tag.
type Stats struct {
	DocumentCount int
	Tag           string
}
