// Package index is the public facade of the search engine: it orchestrates
// the directory scanner, converters, structural parser, and storage layer
// for indexing, and the storage layer plus snippet extractor for queries.
package index

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/ksysoev/searchmix/pkg/convert"
	"github.com/ksysoev/searchmix/pkg/core"
	"github.com/ksysoev/searchmix/pkg/parser"
	"github.com/ksysoev/searchmix/pkg/repo/search"
	"github.com/ksysoev/searchmix/pkg/scan"
	"github.com/ksysoev/searchmix/pkg/snippet"
)

// Index is the embeddable entry point: one persistent full-text store plus
// the conversion and parsing pipeline feeding it.
type Index struct {
	cfg        core.Config
	engine     *search.Engine
	converters *convert.Registry
}

// New opens (or creates) the index at cfg.DBPath. Zero-valued config fields
// fall back to the defaults from core.DefaultConfig.
func New(cfg core.Config) (*Index, error) {
	defaults := core.DefaultConfig()

	if cfg.DBPath == "" {
		cfg.DBPath = defaults.DBPath
	}

	if cfg.Weights == (core.FieldWeights{}) {
		cfg.Weights = defaults.Weights
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("%w: create index directory: %w", core.ErrStorageError, err)
		}
	}

	engine, err := search.New(cfg.DBPath, cfg.Weights)
	if err != nil {
		return nil, err
	}

	return &Index{
		cfg:        cfg,
		engine:     engine,
		converters: convert.NewRegistry(),
	}, nil
}

// Close releases the underlying storage.
func (idx *Index) Close() error {
	return idx.engine.Close()
}

// AddResult summarizes one Add call.
type AddResult struct {
	Indexed int
	Skipped int
	Failed  int
}

// Add indexes the file or directory at input. A directory is scanned per
// opts (exclusion globs, recursion) and per-file failures are logged and
// absorbed; for a single file the failure is surfaced to the caller.
func (idx *Index) Add(ctx context.Context, input string, opts core.AddOptions) (AddResult, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return AddResult{}, fmt.Errorf("%w: %s", core.ErrInputNotFound, input)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return AddResult{}, fmt.Errorf("%w: %s", core.ErrInputNotFound, input)
	}

	if !info.IsDir() {
		return idx.addSingleFile(ctx, abs, opts)
	}

	files, err := scan.Scan(abs, scan.Options{
		Exclude:   opts.Exclude,
		Recursive: opts.Recursive,
		Supported: idx.converters.Supported,
	})
	if err != nil {
		return AddResult{}, fmt.Errorf("%w: scan %s: %w", core.ErrInputNotFound, input, err)
	}

	var result AddResult

	for _, path := range files {
		indexed, err := idx.indexFile(ctx, path, opts)

		switch {
		case err != nil:
			// Per-file errors inside a directory add never fail the batch.
			slog.WarnContext(ctx, "skipping file", "path", path, "error", err)

			result.Failed++
		case indexed:
			result.Indexed++
		default:
			result.Skipped++
		}
	}

	return result, nil
}

func (idx *Index) addSingleFile(ctx context.Context, abs string, opts core.AddOptions) (AddResult, error) {
	indexed, err := idx.indexFile(ctx, abs, opts)
	if err != nil {
		return AddResult{}, err
	}

	if indexed {
		return AddResult{Indexed: 1}, nil
	}

	return AddResult{Skipped: 1}, nil
}

// AddBuffer indexes an in-memory Markdown buffer under a fresh synthesized
// identity in the reserved buffer:// namespace and returns that path.
func (idx *Index) AddBuffer(ctx context.Context, data []byte, opts core.AddOptions) (string, error) {
	path := core.BufferScheme + uuid.NewString()

	doc, err := parser.Parse(data, parser.Options{IncludeCodeBlocks: idx.cfg.IncludeCodeBlocks})
	if err != nil {
		return "", err
	}

	doc.Path = path
	doc.SourceFormat = core.FormatMarkdown
	idx.applyTags(doc, opts.Tags)

	if err := idx.engine.Upsert(doc); err != nil {
		return "", err
	}

	slog.DebugContext(ctx, "indexed buffer", "path", path)

	return path, nil
}

// indexFile decides per file whether to index, re-index, or skip, and
// reports whether a write happened.
func (idx *Index) indexFile(ctx context.Context, path string, opts core.AddOptions) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("%w: %s", core.ErrInputNotFound, path)
	}

	mtimeMillis := info.ModTime().UnixMilli()

	storedMillis, hasStored, found, err := idx.engine.Get(path)
	if err != nil {
		return false, err
	}

	switch {
	case !found:
		// New path: index.
	case opts.Update:
		// Forced re-index.
	case opts.CheckModified:
		if search.CheckModifiedSkip(storedMillis, hasStored, mtimeMillis) {
			slog.DebugContext(ctx, "unchanged, skipping", "path", path)
			return false, nil
		}
	default:
		slog.DebugContext(ctx, "already indexed, skipping", "path", path)
		return false, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the caller's own scan root.
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %w", core.ErrInputNotFound, path, err)
	}

	conv, err := idx.converters.ForPath(path)
	if err != nil {
		return false, err
	}

	markdown, err := conv.Convert(bytes.NewReader(data))
	if err != nil {
		return false, err
	}

	doc, err := parser.Parse(markdown, parser.Options{IncludeCodeBlocks: idx.cfg.IncludeCodeBlocks})
	if err != nil {
		return false, err
	}

	doc.Path = path
	doc.SourceFormat = convert.FormatForPath(path)
	doc.MTimeMillis = mtimeMillis
	doc.HasMTime = true
	idx.applyTags(doc, opts.Tags)

	if err := idx.engine.Upsert(doc); err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "indexed document", "path", path, "format", doc.SourceFormat)

	return true, nil
}

// applyTags attaches the caller's tags plus, when a detector is configured
// and recognizes one, a single language-code tag.
func (idx *Index) applyTags(doc *core.Document, tags []string) {
	doc.Tags = append(doc.Tags, tags...)

	if idx.cfg.DetectLanguage == nil {
		return
	}

	if lang := idx.cfg.DetectLanguage(doc.BodyRaw); lang != "" && !doc.HasTag(lang) {
		doc.Tags = append(doc.Tags, lang)
	}
}

// Search executes q and assembles the ranked snippet list.
// When opts.Snippets is false each matching document contributes a single
// bare snippet carrying only document metadata (no extraction runs and
// TotalSnippets stays 0).
func (idx *Index) Search(ctx context.Context, q string, opts core.SearchOptions) (*core.SearchResults, error) {
	hits, totalCount, err := idx.engine.Search(q, opts)
	if err != nil {
		return nil, err
	}

	res := &core.SearchResults{
		Results:    []core.Snippet{},
		TotalCount: totalCount,
	}

	for _, hit := range hits {
		if !opts.Snippets {
			res.Results = append(res.Results, core.Snippet{
				DocumentPath:  hit.Document.Path,
				DocumentTitle: hit.Document.Title,
				Tags:          hit.Document.Tags,
				Rank:          hit.Score,
			})

			continue
		}

		snips := snippet.Extract(hit.Document, q, hit.Score, snippet.Options{
			Length:           opts.SnippetLength,
			PerDocumentLimit: opts.SnippetsPerDoc,
		})

		res.Results = append(res.Results, snips...)
		res.TotalSnippets += len(snips)
	}

	slog.DebugContext(ctx, "search complete",
		"query", q, "documents", len(hits), "snippets", res.TotalSnippets)

	return res, nil
}

// GetOptions configures Get's optional body windowing.
type GetOptions struct {
	// Position, when set, substrings the returned record's body to
	// [Position, Position+Length).
	Position *int
	// Length bounds the body window; zero means the 5000-byte default.
	Length int
}

// Get returns the stored record for path, or nil when the path is unknown.
func (idx *Index) Get(path string, opts GetOptions) (*core.Document, error) {
	doc, found, err := idx.engine.GetDocument(path)
	if err != nil || !found {
		return nil, err
	}

	if opts.Position != nil {
		length := opts.Length
		if length <= 0 {
			length = 5000
		}

		start := clamp(*opts.Position, 0, len(doc.BodyRaw))
		end := clamp(start+length, start, len(doc.BodyRaw))
		doc.BodyRaw = doc.BodyRaw[start:end]
	}

	return doc, nil
}

// GetMultiple returns every stored record whose path matches the glob
// pattern.
func (idx *Index) GetMultiple(pattern string) ([]*core.Document, error) {
	paths, err := idx.engine.AllPaths("")
	if err != nil {
		return nil, err
	}

	var docs []*core.Document

	for _, path := range paths {
		ok, err := matchPath(pattern, path)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid glob %q: %w", core.ErrQueryInvalid, pattern, err)
		}

		if !ok {
			continue
		}

		doc, found, err := idx.engine.GetDocument(path)
		if err != nil {
			return nil, err
		}

		if found {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// HeadingDetails is the resolved view returned by GetHeadingByID: the full
// section plus parent and children summaries.
type HeadingDetails struct {
	ID           string
	Type         core.SectionType
	Text         string
	Depth        int
	Position     core.Position
	ContentCount int
	Parent       *core.HeadingRef
	Children     []core.HeadingRef
	Content      []core.Content
}

// GetHeadingByID resolves one section of one document by id. An unknown
// path or id returns nil with no error.
func (idx *Index) GetHeadingByID(path, headingID string) (*HeadingDetails, error) {
	doc, found, err := idx.engine.GetDocument(path)
	if err != nil || !found {
		return nil, err
	}

	sec, ok := doc.SectionsIndex[headingID]
	if !ok {
		return nil, nil
	}

	details := &HeadingDetails{
		ID:           sec.ID,
		Type:         sec.Type,
		Text:         sec.Text,
		Depth:        sec.Depth,
		Position:     sec.Position,
		ContentCount: len(sec.Content),
		Content:      sec.Content,
	}

	if parent, ok := doc.SectionsIndex[sec.ParentID]; ok {
		details.Parent = &core.HeadingRef{ID: parent.ID, Type: parent.Type, Text: parent.Text, Depth: parent.Depth}
	}

	for _, id := range sec.ChildrenIDs {
		if child, ok := doc.SectionsIndex[id]; ok {
			details.Children = append(details.Children,
				core.HeadingRef{ID: child.ID, Type: child.Type, Text: child.Text, Depth: child.Depth})
		}
	}

	return details, nil
}

// Navigator returns a snippet Navigator over the stored record at path, or
// nil when the path is unknown.
func (idx *Index) Navigator(path string) (*snippet.Navigator, error) {
	doc, found, err := idx.engine.GetDocument(path)
	if err != nil || !found {
		return nil, err
	}

	return snippet.NewNavigator(doc), nil
}

// SnippetText implements get_text against a snippet from a previous Search:
// Section mode when the owning section carries content, Range mode
// otherwise. When the snippet's document can no longer be resolved it
// returns the snippet's own text.
func (idx *Index) SnippetText(s *core.Snippet, opts snippet.TextOptions) (string, error) {
	nav, err := idx.Navigator(s.DocumentPath)
	if err != nil {
		return "", err
	}

	if nav == nil {
		return s.Text, nil
	}

	return nav.Text(s, opts), nil
}

// HasDocument reports whether path is indexed.
func (idx *Index) HasDocument(path string) (bool, error) {
	return idx.engine.Has(path)
}

// RemoveDocument deletes the record at path.
func (idx *Index) RemoveDocument(path string) error {
	return idx.engine.Remove(path)
}

// RemoveByTag deletes every record carrying tag and returns how many were
// removed.
func (idx *Index) RemoveByTag(tag string) (int, error) {
	paths, err := idx.engine.AllPaths(tag)
	if err != nil {
		return 0, err
	}

	for _, path := range paths {
		if err := idx.engine.Remove(path); err != nil {
			return 0, err
		}
	}

	return len(paths), nil
}

// Clear deletes every record.
func (idx *Index) Clear() error {
	return idx.engine.Clear()
}

// Stats summarizes the index, optionally scoped to one tag.
func (idx *Index) Stats(tag string) (core.Stats, error) {
	count, err := idx.engine.DocCount(tag)
	if err != nil {
		return core.Stats{}, err
	}

	return core.Stats{DocumentCount: count, Tag: tag}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// matchPath matches a glob against a stored path, slash-normalized so
// patterns behave the same across platforms.
func matchPath(pattern, path string) (bool, error) {
	return doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(path))
}
