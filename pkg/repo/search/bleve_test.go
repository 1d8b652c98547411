package search

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksysoev/searchmix/pkg/core"
	"github.com/ksysoev/searchmix/pkg/parser"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	indexPath := filepath.Join(t.TempDir(), "test.bleve")

	e, err := New(indexPath, core.DefaultWeights())
	require.NoError(t, err)

	t.Cleanup(func() { _ = e.Close() })

	return e
}

func parseDoc(t *testing.T, path, src string, tags ...string) *core.Document {
	t.Helper()

	doc, err := parser.Parse([]byte(src), parser.Options{})
	require.NoError(t, err)

	doc.Path = path
	doc.Tags = tags
	doc.SourceFormat = core.FormatMarkdown

	return doc
}

func TestEngine_UpsertAndGet(t *testing.T) {
	e := newTestEngine(t)

	doc := parseDoc(t, "guide.md", "# Getting Started\n\nWelcome to the project.\n")
	require.NoError(t, e.Upsert(doc))

	got, found, err := e.GetDocument("guide.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Getting Started", got.Title)
	assert.Contains(t, got.BodyRaw, "Welcome to the project")
}

func TestEngine_UpsertReplacesPriorVersion(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "doc.md", "# One\n")))
	require.NoError(t, e.Upsert(parseDoc(t, "doc.md", "# Two\n")))

	count, err := e.DocCount("")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, found, err := e.GetDocument("doc.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Two", got.Title)
}

func TestEngine_RemoveAndHas(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "doc.md", "# Doc\n")))

	has, err := e.Has("doc.md")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, e.Remove("doc.md"))

	has, err = e.Has("doc.md")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestEngine_SearchBasicTermMatch(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "markdown-guide.md",
		"# Markdown Guide\n\nLearn markdown formatting for your documents.\n")))
	require.NoError(t, e.Upsert(parseDoc(t, "intro.md",
		"# Introduction\n\nWelcome to the project introduction.\n")))

	hits, _, err := e.Search("markdown", core.DefaultSearchOptions())
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "markdown-guide.md", hits[0].Document.Path)
}

func TestEngine_SearchTitleOutranksBody(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "title.md",
		"# Markdown Reference\n\nA general reference document.\n")))
	require.NoError(t, e.Upsert(parseDoc(t, "content.md",
		"# Reference Guide\n\nThis explains markdown syntax in detail.\n")))

	hits, _, err := e.Search("markdown", core.DefaultSearchOptions())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(hits), 2)
	assert.Equal(t, "title.md", hits[0].Document.Path)
	assert.Less(t, hits[0].Score, hits[1].Score, "lower score ranks first (lower is better)")
}

func TestEngine_SearchConjunctionOfTerms(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "markdown-guide.md",
		"# Markdown Formatting Guide\n\nLearn markdown formatting for your documents.\n")))
	require.NoError(t, e.Upsert(parseDoc(t, "intro.md",
		"# Introduction\n\nWelcome to the project introduction.\n")))

	hits, _, err := e.Search("markdown formatting", core.DefaultSearchOptions())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "markdown-guide.md", hits[0].Document.Path)
}

func TestEngine_SearchFieldScoped(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "a.md", "# Alpha\n\nbeta content here.\n")))
	require.NoError(t, e.Upsert(parseDoc(t, "b.md", "# Beta\n\nalpha content here.\n")))

	hits, _, err := e.Search("title:beta", core.DefaultSearchOptions())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.md", hits[0].Document.Path)
}

func TestEngine_SearchHeadingsMetaField(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "a.md", "# Intro\n\n## Installation\n\nsteps here.\n")))
	require.NoError(t, e.Upsert(parseDoc(t, "b.md", "# Installation\n\nother content.\n")))

	hits, _, err := e.Search("headings:installation", core.DefaultSearchOptions())
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestEngine_SearchBooleanNot(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "a.md", "# A\n\nmarkdown and yaml.\n")))
	require.NoError(t, e.Upsert(parseDoc(t, "b.md", "# B\n\nmarkdown only.\n")))

	hits, _, err := e.Search("markdown NOT yaml", core.DefaultSearchOptions())
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.md", hits[0].Document.Path)
}

func TestEngine_SearchPrefixMatch(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "a.md", "# Markdown Guide\n\ncontent.\n")))

	hits, _, err := e.Search("mark*", core.DefaultSearchOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestEngine_SearchTagFilter(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "a.md", "# A\n\nmarkdown content.\n", "public")))
	require.NoError(t, e.Upsert(parseDoc(t, "b.md", "# B\n\nmarkdown content.\n", "internal")))

	opts := core.DefaultSearchOptions()
	opts.Tags = []string{"public"}

	hits, _, err := e.Search("markdown", opts)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.md", hits[0].Document.Path)
}

func TestEngine_SearchMinScore(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "title.md",
		"# Markdown Reference\n\nA general reference document.\n")))
	require.NoError(t, e.Upsert(parseDoc(t, "body.md",
		"# Other Guide\n\nThis mentions markdown once in passing text.\n")))

	opts := core.DefaultSearchOptions()
	opts.Count = true

	hits, total, err := e.Search("markdown", opts)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.NotNil(t, total)
	require.Equal(t, 2, *total)
	require.Less(t, hits[0].Score, hits[1].Score)

	// A bound between the two ranks keeps only the better-ranked hit.
	cutoff := (hits[0].Score + hits[1].Score) / 2
	opts.MinScore = &cutoff

	filtered, total, err := e.Search("markdown", opts)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, hits[0].Document.Path, filtered[0].Document.Path)

	// total_count is the number of matching records before the limit and
	// before the min_score cut, so it is unaffected by the bound.
	require.NotNil(t, total)
	assert.Equal(t, 2, *total)

	// A bound no tighter than the worst rank keeps everything.
	loose := hits[1].Score
	opts.MinScore = &loose

	all, _, err := e.Search("markdown", opts)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEngine_SearchCount(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "a.md", "# A\n\nmarkdown content.\n")))
	require.NoError(t, e.Upsert(parseDoc(t, "b.md", "# B\n\nmarkdown content.\n")))

	opts := core.DefaultSearchOptions()
	opts.Count = true

	_, total, err := e.Search("markdown", opts)
	require.NoError(t, err)
	require.NotNil(t, total)
	assert.Equal(t, 2, *total)
}

func TestEngine_Clear(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Upsert(parseDoc(t, "a.md", "# A\n")))
	require.NoError(t, e.Upsert(parseDoc(t, "b.md", "# B\n")))

	require.NoError(t, e.Clear())

	count, err := e.DocCount("")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCheckModifiedSkip(t *testing.T) {
	assert.False(t, CheckModifiedSkip(0, false, 1000))
	assert.True(t, CheckModifiedSkip(1000, true, 1500))
	assert.False(t, CheckModifiedSkip(1000, true, 5000))
}
