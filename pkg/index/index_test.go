package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksysoev/searchmix/pkg/core"
	"github.com/ksysoev/searchmix/pkg/snippet"
)

func newTestIndex(t *testing.T, cfg core.Config) *Index {
	t.Helper()

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(t.TempDir(), "test.bleve")
	}

	idx, err := New(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = idx.Close() })

	return idx
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestIndex_AddMissingInput(t *testing.T) {
	idx := newTestIndex(t, core.Config{})

	_, err := idx.Add(t.Context(), filepath.Join(t.TempDir(), "nope.md"), core.DefaultAddOptions())
	require.ErrorIs(t, err, core.ErrInputNotFound)
}

func TestIndex_AddUnsupportedSingleFile(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	path := writeDoc(t, t.TempDir(), "slides.pptx", "binary")

	_, err := idx.Add(t.Context(), path, core.DefaultAddOptions())
	require.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestIndex_AddDirectoryAbsorbsFailures(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	dir := t.TempDir()

	writeDoc(t, dir, "good.md", "# Good\n\nIndexable content.\n")
	writeDoc(t, dir, "broken.pdf", "not really a pdf")

	result, err := idx.Add(t.Context(), dir, core.DefaultAddOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
	assert.Equal(t, 1, result.Failed)
}

// Accent-insensitive heading match: the folded query locates the original
// accented title and the snippet keeps the accent.
func TestIndex_AccentInsensitiveTitleMatch(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	path := writeDoc(t, t.TempDir(), "viaje.md", "# Viaje al Mediterráneo\n\nUn relato de viaje.\n")

	_, err := idx.Add(t.Context(), path, core.DefaultAddOptions())
	require.NoError(t, err)

	opts := core.DefaultSearchOptions()
	opts.Count = true
	opts.SnippetsPerDoc = 1

	res, err := idx.Search(t.Context(), "mediterraneo", opts)
	require.NoError(t, err)
	require.NotNil(t, res.TotalCount)
	assert.Equal(t, 1, *res.TotalCount)
	require.Len(t, res.Results, 1)
	assert.Equal(t, core.SectionTitle, res.Results[0].SectionType)
	assert.Contains(t, res.Results[0].Text, "Mediterráneo")
}

// Smart skip: re-adding an unchanged file triggers no second write.
func TestIndex_SecondAddSkipsUnchangedFile(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	path := writeDoc(t, t.TempDir(), "doc.md", "# Doc\n\nStable content.\n")

	first, err := idx.Add(t.Context(), path, core.DefaultAddOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Indexed)

	second, err := idx.Add(t.Context(), path, core.DefaultAddOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Indexed)
	assert.Equal(t, 1, second.Skipped)

	has, err := idx.HasDocument(path)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestIndex_UpdateForcesReindex(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	path := writeDoc(t, t.TempDir(), "doc.md", "# Doc\n")

	_, err := idx.Add(t.Context(), path, core.DefaultAddOptions())
	require.NoError(t, err)

	opts := core.DefaultAddOptions()
	opts.Update = true

	result, err := idx.Add(t.Context(), path, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
}

// Heading hierarchy navigation across parents, siblings, ancestors, and
// breadcrumbs.
func TestIndex_HeadingHierarchyNavigation(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	path := writeDoc(t, t.TempDir(), "tree.md", "# A\n\n## B\n\n### C\n\n### D\n\n## E\n")

	_, err := idx.Add(t.Context(), path, core.DefaultAddOptions())
	require.NoError(t, err)

	res, err := idx.Search(t.Context(), "C", core.DefaultSearchOptions())
	require.NoError(t, err)
	require.NotEmpty(t, res.Results)

	snip := res.Results[0]
	require.NotNil(t, snip.Heading)
	assert.Equal(t, "C", snip.Heading.Text)

	nav, err := idx.Navigator(path)
	require.NoError(t, err)
	require.NotNil(t, nav)

	parent := nav.Parent(&snip)
	require.NotNil(t, parent)
	assert.Equal(t, "B", parent.Text)

	assert.Empty(t, nav.Children(&snip))

	siblings := nav.Siblings(&snip)
	require.Len(t, siblings, 1)
	assert.Equal(t, "D", siblings[0].Text)

	ancestor, ok := nav.AncestorAtDepth(&snip, 1)
	require.True(t, ok)
	assert.Equal(t, "A", ancestor.Text)

	assert.Equal(t, "A > B > C", nav.BreadcrumbsText(&snip, ""))

	// "C" owns no content blocks, so extended text falls to Range mode,
	// which must slice the field the snippet's position indexes (the joined
	// h3 lines) rather than the document from the top.
	text := nav.Text(&snip, snippet.TextOptions{})
	assert.Equal(t, "C\nD", text)
}

// Boolean plus field restriction: title:alpha matches only the document
// whose title carries the term.
func TestIndex_FieldRestrictedSearch(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	dir := t.TempDir()

	writeDoc(t, dir, "d1.md", "# Doc One\n\nalpha beta\n")
	writeDoc(t, dir, "d2.md", "# alpha\n\ngamma\n")

	_, err := idx.Add(t.Context(), dir, core.DefaultAddOptions())
	require.NoError(t, err)

	res, err := idx.Search(t.Context(), "title:alpha", core.DefaultSearchOptions())
	require.NoError(t, err)

	paths := map[string]bool{}
	for _, s := range res.Results {
		paths[filepath.Base(s.DocumentPath)] = true
	}

	assert.True(t, paths["d2.md"])
	assert.False(t, paths["d1.md"])
}

// Range-mode extended text: a snippet without structured content slices
// body_raw around its position.
func TestIndex_RangeModeExtendedText(t *testing.T) {
	idx := newTestIndex(t, core.Config{})

	body := strings.Repeat("abcdefghij", 100)

	path, err := idx.AddBuffer(t.Context(), []byte(body), core.AddOptions{})
	require.NoError(t, err)

	snip := &core.Snippet{DocumentPath: path, Position: 100}

	text, err := idx.SnippetText(snip, snippet.TextOptions{Offset: -20, Length: 50})
	require.NoError(t, err)
	assert.Equal(t, body[80:130], text)
}

func TestIndex_SnippetTextUnknownDocumentFallsBack(t *testing.T) {
	idx := newTestIndex(t, core.Config{})

	snip := &core.Snippet{DocumentPath: "gone.md", Text: "remembered text"}

	text, err := idx.SnippetText(snip, snippet.TextOptions{})
	require.NoError(t, err)
	assert.Equal(t, "remembered text", text)
}

// Multi-tag filter: untagged documents are global and always returned.
func TestIndex_TagFilterKeepsUntaggedDocs(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	dir := t.TempDir()

	untagged := writeDoc(t, dir, "u.md", "# U\n\nshared topic\n")
	tagged := writeDoc(t, dir, "a.md", "# A\n\nshared topic\n")
	other := writeDoc(t, dir, "b.md", "# B\n\nshared topic\n")

	_, err := idx.Add(t.Context(), untagged, core.DefaultAddOptions())
	require.NoError(t, err)

	optsX := core.DefaultAddOptions()
	optsX.Tags = []string{"x"}
	_, err = idx.Add(t.Context(), tagged, optsX)
	require.NoError(t, err)

	optsY := core.DefaultAddOptions()
	optsY.Tags = []string{"y"}
	_, err = idx.Add(t.Context(), other, optsY)
	require.NoError(t, err)

	searchOpts := core.DefaultSearchOptions()
	searchOpts.Tags = []string{"x"}

	res, err := idx.Search(t.Context(), "shared", searchOpts)
	require.NoError(t, err)

	paths := map[string]bool{}
	for _, s := range res.Results {
		paths[filepath.Base(s.DocumentPath)] = true
	}

	assert.True(t, paths["u.md"])
	assert.True(t, paths["a.md"])
	assert.False(t, paths["b.md"])
}

func TestIndex_SearchEmptyIndex(t *testing.T) {
	idx := newTestIndex(t, core.Config{})

	opts := core.DefaultSearchOptions()
	opts.Count = true

	res, err := idx.Search(t.Context(), "anything", opts)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	require.NotNil(t, res.TotalCount)
	assert.Equal(t, 0, *res.TotalCount)
	assert.Equal(t, 0, res.TotalSnippets)
}

func TestIndex_SearchInvalidQuery(t *testing.T) {
	idx := newTestIndex(t, core.Config{})

	_, err := idx.Search(t.Context(), "(unbalanced", core.DefaultSearchOptions())
	require.ErrorIs(t, err, core.ErrQueryInvalid)
}

func TestIndex_GetWithWindow(t *testing.T) {
	idx := newTestIndex(t, core.Config{})

	body := "# Title\n\n" + strings.Repeat("0123456789", 10)

	path, err := idx.AddBuffer(t.Context(), []byte(body), core.AddOptions{})
	require.NoError(t, err)

	doc, err := idx.Get(path, GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, body, doc.BodyRaw)

	pos := 9

	windowed, err := idx.Get(path, GetOptions{Position: &pos, Length: 10})
	require.NoError(t, err)
	require.NotNil(t, windowed)
	assert.Equal(t, body[9:19], windowed.BodyRaw)
}

func TestIndex_GetUnknownPath(t *testing.T) {
	idx := newTestIndex(t, core.Config{})

	doc, err := idx.Get("missing.md", GetOptions{})
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestIndex_GetMultiple(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	dir := t.TempDir()

	writeDoc(t, dir, "guides/a.md", "# A\n")
	writeDoc(t, dir, "guides/b.md", "# B\n")
	writeDoc(t, dir, "notes/c.md", "# C\n")

	_, err := idx.Add(t.Context(), dir, core.DefaultAddOptions())
	require.NoError(t, err)

	docs, err := idx.GetMultiple("**/guides/*.md")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestIndex_GetHeadingByID(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	path := writeDoc(t, t.TempDir(), "tree.md", "# Root\n\n## Child\n\nParagraph text.\n")

	_, err := idx.Add(t.Context(), path, core.DefaultAddOptions())
	require.NoError(t, err)

	doc, err := idx.Get(path, GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.Structure, 1)

	root := doc.Structure[0]
	require.Len(t, root.ChildrenIDs, 1)

	details, err := idx.GetHeadingByID(path, root.ChildrenIDs[0])
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "Child", details.Text)
	assert.Equal(t, 2, details.Depth)
	require.NotNil(t, details.Parent)
	assert.Equal(t, "Root", details.Parent.Text)
	assert.Equal(t, 1, details.ContentCount)

	missing, err := idx.GetHeadingByID(path, "s999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIndex_AddBufferNamespace(t *testing.T) {
	idx := newTestIndex(t, core.Config{})

	path, err := idx.AddBuffer(t.Context(), []byte("# In Memory\n\ncontent\n"), core.AddOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, core.BufferScheme))

	has, err := idx.HasDocument(path)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestIndex_RemoveByTagAndStats(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	dir := t.TempDir()

	a := writeDoc(t, dir, "a.md", "# A\n")
	b := writeDoc(t, dir, "b.md", "# B\n")

	opts := core.DefaultAddOptions()
	opts.Tags = []string{"obsolete"}
	_, err := idx.Add(t.Context(), a, opts)
	require.NoError(t, err)

	_, err = idx.Add(t.Context(), b, core.DefaultAddOptions())
	require.NoError(t, err)

	stats, err := idx.Stats("obsolete")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)

	removed, err := idx.RemoveByTag("obsolete")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stats, err = idx.Stats("")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)
}

func TestIndex_ClearAndRemove(t *testing.T) {
	idx := newTestIndex(t, core.Config{})
	path := writeDoc(t, t.TempDir(), "a.md", "# A\n")

	_, err := idx.Add(t.Context(), path, core.DefaultAddOptions())
	require.NoError(t, err)

	require.NoError(t, idx.RemoveDocument(path))

	has, err := idx.HasDocument(path)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = idx.AddBuffer(t.Context(), []byte("# B\n"), core.AddOptions{})
	require.NoError(t, err)

	require.NoError(t, idx.Clear())

	stats, err := idx.Stats("")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentCount)
}

func TestIndex_LanguageTagDetection(t *testing.T) {
	cfg := core.Config{
		DetectLanguage: func(string) string { return "es" },
	}

	idx := newTestIndex(t, cfg)

	path, err := idx.AddBuffer(t.Context(), []byte("# Hola\n\nTexto en español.\n"), core.AddOptions{Tags: []string{"manual"}})
	require.NoError(t, err)

	doc, err := idx.Get(path, GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.ElementsMatch(t, []string{"manual", "es"}, doc.Tags)
}
