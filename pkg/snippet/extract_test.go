package snippet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksysoev/searchmix/pkg/core"
	"github.com/ksysoev/searchmix/pkg/parser"
)

func mustParse(t *testing.T, src string) *core.Document {
	t.Helper()

	doc, err := parser.Parse([]byte(src), parser.Options{})
	require.NoError(t, err)

	doc.Path = "doc.md"

	return doc
}

func TestExtract_AccentInsensitiveTitleMatch(t *testing.T) {
	doc := mustParse(t, "# Viaje al Mediterráneo\n")

	snips := Extract(doc, "mediterraneo", 0, Options{PerDocumentLimit: 1})
	require.Len(t, snips, 1)
	assert.Equal(t, core.SectionTitle, snips[0].SectionType)
	assert.Contains(t, snips[0].Text, "Mediterráneo")
}

func TestExtract_HeadingHierarchyNavigation(t *testing.T) {
	doc := mustParse(t, "# Alpha\n\n## Bravo\n\n### Charlie\n\n### Delta\n\n## Echo\n")

	snips := Extract(doc, "Charlie", 0, Options{})
	require.NotEmpty(t, snips)
	require.NotNil(t, snips[0].Heading)
	assert.Equal(t, "Charlie", snips[0].Heading.Text)

	nav := NewNavigator(doc)

	parent := nav.Parent(&snips[0])
	require.NotNil(t, parent)
	assert.Equal(t, "Bravo", parent.Text)

	assert.Empty(t, nav.Children(&snips[0]))

	siblings := nav.Siblings(&snips[0])
	require.Len(t, siblings, 1)
	assert.Equal(t, "Delta", siblings[0].Text)

	ancestor, ok := nav.AncestorAtDepth(&snips[0], 1)
	require.True(t, ok)
	assert.Equal(t, "Alpha", ancestor.Text)

	assert.Equal(t, "Alpha > Bravo > Charlie", nav.BreadcrumbsText(&snips[0], ""))
}

func TestExtract_BodyMatchAttributedToOwningSection(t *testing.T) {
	doc := mustParse(t, "# Intro\n\nwelcome text.\n\n## Details\n\nspecific markdown content here.\n")

	snips := Extract(doc, "markdown", 0, Options{})
	require.NotEmpty(t, snips)

	body := findBySectionType(snips, core.SectionBody)
	require.NotNil(t, body)
	require.NotNil(t, body.Heading)
	assert.Equal(t, "Details", body.Heading.Text)
}

func TestExtract_FallbackWhenNoTermsMatch(t *testing.T) {
	doc := mustParse(t, "# Title\n\nsome content.\n")

	snips := Extract(doc, "zzz_no_match_zzz", 0, Options{})
	require.Len(t, snips, 1)
	assert.Contains(t, snips[0].Text, "Title")
}

func TestExtract_RespectsPerDocumentLimit(t *testing.T) {
	doc := mustParse(t, "# A\n\nalpha alpha alpha alpha alpha.\n")

	snips := Extract(doc, "alpha", 0, Options{PerDocumentLimit: 2})
	assert.LessOrEqual(t, len(snips), 2)
}

func findBySectionType(snips []core.Snippet, t core.SectionType) *core.Snippet {
	for i := range snips {
		if snips[i].SectionType == t {
			return &snips[i]
		}
	}

	return nil
}
