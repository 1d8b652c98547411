// Package snippet locates query-term occurrences inside a matched
// document's fields, attaches each occurrence to its owning Section, and
// emits the lightweight navigable Snippet objects consumed by the
// Navigator (navigate.go).
package snippet

import (
	"regexp"
	"strings"

	"github.com/ksysoev/searchmix/pkg/core"
	"github.com/ksysoev/searchmix/pkg/normalize"
	"github.com/ksysoev/searchmix/pkg/query"
)

// Options configures Extract.
type Options struct {
	// Length is the body/title snippet context-window size, in bytes of
	// the raw body. Zero uses the default from core.DefaultSearchOptions.
	Length int
	// PerDocumentLimit bounds the number of snippets emitted for one
	// document.
	PerDocumentLimit int
}

// Extract re-scans doc for every occurrence of rawQuery's terms, in the
// field order [title, h1…h6, body], stopping once opts.PerDocumentLimit
// snippets have been emitted.
func Extract(doc *core.Document, rawQuery string, rank float64, opts Options) []core.Snippet {
	terms := query.ExtractTerms(rawQuery)
	if len(terms) == 0 {
		return fallback(doc, rank)
	}

	limit := opts.PerDocumentLimit
	if limit <= 0 {
		limit = core.DefaultSearchOptions().SnippetsPerDoc
	}

	length := opts.Length
	if length <= 0 {
		length = core.DefaultSearchOptions().SnippetLength
	}

	ordered := sectionsByType(doc)

	var out []core.Snippet

	for _, field := range core.OrderedFields {
		if len(out) >= limit {
			break
		}

		switch field {
		case core.SectionH1, core.SectionH2, core.SectionH3, core.SectionH4,
			core.SectionH5, core.SectionH6:
			out = appendHeadingSnippets(out, doc, field, terms, ordered[field], limit, rank)
		case core.SectionTitle, core.SectionBody:
			out = appendWindowSnippets(out, doc, field, terms, length, limit, rank)
		}
	}

	if len(out) == 0 {
		return fallback(doc, rank)
	}

	return out
}

// sectionsByType groups every Section in doc, in document order, by type.
// Because the parser appends each heading's text to its level's field
// projection in the same order it walks the tree, the i-th Section of a
// given type corresponds to the i-th line of that field's raw/normalized
// projection.
func sectionsByType(doc *core.Document) map[core.SectionType][]*core.Section {
	out := map[core.SectionType][]*core.Section{}

	var walk func(roots []*core.Section)

	walk = func(roots []*core.Section) {
		for _, s := range roots {
			out[s.Type] = append(out[s.Type], s)

			var children []*core.Section
			for _, id := range s.ChildrenIDs {
				if c := doc.SectionsIndex[id]; c != nil {
					children = append(children, c)
				}
			}

			walk(children)
		}
	}

	walk(doc.Structure)

	return out
}

// appendHeadingSnippets scans one heading level's projection line by line
// and emits a snippet for every line a term matches.
func appendHeadingSnippets(
	out []core.Snippet, doc *core.Document, field core.SectionType,
	terms []query.Term, sections []*core.Section, limit int, rank float64,
) []core.Snippet {
	rawLines := splitLines(doc.FieldRaw(field))
	normLines := splitLines(doc.FieldNorm(field))

	for i := 0; i < len(rawLines) && i < len(normLines); i++ {
		if len(out) >= limit {
			break
		}

		if !anyTermMatches(terms, normLines[i]) {
			continue
		}

		snip := core.Snippet{
			Text:          rawLines[i],
			SectionType:   field,
			Position:      lineOffset(doc.FieldRaw(field), i),
			DocumentPath:  doc.Path,
			DocumentTitle: doc.Title,
			Tags:          doc.Tags,
			Rank:          rank,
		}

		if i < len(sections) {
			attachSection(&snip, sections[i])
		}

		out = append(out, snip)
	}

	return out
}

// appendWindowSnippets scans the title or body field and emits a context
// window around every term occurrence, re-normalizing the field's raw text
// so the raw↔norm offset map can translate each match back to a raw
// position.
func appendWindowSnippets(
	out []core.Snippet, doc *core.Document, field core.SectionType,
	terms []query.Term, length, limit int, rank float64,
) []core.Snippet {
	raw := doc.FieldRaw(field)
	if raw == "" {
		return out
	}

	result := normalize.Normalize(raw)

	for _, term := range terms {
		if len(out) >= limit {
			break
		}

		re := termRegexp(term)

		for _, loc := range re.FindAllStringIndex(result.Norm, -1) {
			if len(out) >= limit {
				break
			}

			rawIdx := result.RawOffset(loc[0])

			start := rawIdx - length/2
			if start < 0 {
				start = 0
			}

			end := start + length
			if end > len(raw) {
				end = len(raw)
			}

			text := strings.TrimSpace(raw[start:end])
			if start > 0 {
				text = "…" + text
			}

			if end < len(raw) {
				text += "…"
			}

			snip := core.Snippet{
				Text:          text,
				SectionType:   field,
				Position:      rawIdx,
				DocumentPath:  doc.Path,
				DocumentTitle: doc.Title,
				Tags:          doc.Tags,
				Rank:          rank,
			}

			if field == core.SectionBody {
				attachSection(&snip, attributeBodyPosition(doc, rawIdx))
			} else if len(doc.Structure) > 0 && doc.Structure[0].Type == core.SectionH1 {
				attachSection(&snip, doc.Structure[0])
			}

			out = append(out, snip)
		}
	}

	return out
}

// attributeBodyPosition picks the section owning a content block that
// contains idx, else the section with the greatest start offset at or
// before idx, else none.
func attributeBodyPosition(doc *core.Document, idx int) *core.Section {
	var fallbackSec *core.Section

	fallbackStart := -1

	for _, sec := range doc.SectionsIndex {
		for _, c := range sec.Content {
			if c.Position.Start <= idx && idx < c.Position.End {
				return sec
			}
		}

		if sec.Position.Start <= idx && sec.Position.Start > fallbackStart {
			fallbackStart = sec.Position.Start
			fallbackSec = sec
		}
	}

	return fallbackSec
}

func attachSection(snip *core.Snippet, sec *core.Section) {
	if sec == nil {
		return
	}

	snip.SectionID = sec.ID
	snip.ParentID = sec.ParentID
	snip.ChildrenIDs = sec.ChildrenIDs
	snip.ContentCount = len(sec.Content)
	snip.Heading = &core.HeadingRef{ID: sec.ID, Type: sec.Type, Text: sec.Text, Depth: sec.Depth}
}

// fallback covers the no-match case: emit the head of the raw body (or
// the title if the body is empty), attributed to the first structural
// section if one exists.
func fallback(doc *core.Document, rank float64) []core.Snippet {
	length := core.DefaultSearchOptions().SnippetLength

	text := doc.BodyRaw
	field := core.SectionBody

	if text == "" {
		text = doc.Title
		field = core.SectionTitle
	}

	if len(text) > length {
		text = text[:length] + "…"
	}

	snip := core.Snippet{
		Text:          text,
		SectionType:   field,
		Position:      0,
		DocumentPath:  doc.Path,
		DocumentTitle: doc.Title,
		Tags:          doc.Tags,
		Rank:          rank,
	}

	if len(doc.Structure) > 0 {
		attachSection(&snip, doc.Structure[0])
	}

	return []core.Snippet{snip}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(s, "\n")
}

// lineOffset returns the byte offset of the start of the i-th newline-split
// line within s.
func lineOffset(s string, i int) int {
	offset := 0
	lines := strings.Split(s, "\n")

	for j := 0; j < i && j < len(lines); j++ {
		offset += len(lines[j]) + 1
	}

	return offset
}

func anyTermMatches(terms []query.Term, normLine string) bool {
	for _, t := range terms {
		if termRegexp(t).MatchString(normLine) {
			return true
		}
	}

	return false
}

// termRegexp builds the `\b`-anchored boundary pattern for a term: a
// prefix term drops its trailing word boundary.
func termRegexp(t query.Term) *regexp.Regexp {
	pattern := `\b` + regexp.QuoteMeta(t.Text)
	if !t.Prefix {
		pattern += `\b`
	}

	return regexp.MustCompile(pattern)
}
