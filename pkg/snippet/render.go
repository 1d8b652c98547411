package snippet

import (
	"strings"

	"github.com/ksysoev/searchmix/pkg/core"
)

// TextOptions configures Navigator.Text's Range mode.
type TextOptions struct {
	Offset int
	Length int
}

// DefaultTextOptions returns the Range-mode defaults.
func DefaultTextOptions() TextOptions {
	return TextOptions{Offset: 0, Length: 5000}
}

// Text returns extended text for a snippet: Section mode when the
// snippet's owning section carries content (rendered as Markdown, ignoring
// opts), else Range mode (a clamped substring around the snippet's
// position).
//
// A snippet's Position indexes the raw field the match was found in: the
// raw body for body matches, the raw title for title matches, the
// newline-joined heading lines for h1…h6 matches. Range mode slices that
// same field so position and text stay in one coordinate space; a snippet
// with no field type (hand-built) reads the raw body.
func (n *Navigator) Text(s *core.Snippet, opts TextOptions) string {
	sec := n.section(s)
	if sec != nil && len(sec.Content) > 0 {
		return renderSection(sec)
	}

	if opts.Length == 0 {
		opts = DefaultTextOptions()
	}

	raw := n.doc.BodyRaw
	if s.SectionType != "" {
		raw = n.doc.FieldRaw(s.SectionType)
	}

	start := clamp(s.Position+opts.Offset, 0, len(raw))
	end := clamp(s.Position+opts.Offset+opts.Length, 0, len(raw))

	if end < start {
		end = start
	}

	return raw[start:end]
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

// renderSection is the Section-mode rendering: a heading
// prefix of '#' repeated depth times, a blank line, then each content
// block rendered by type, separated by blank lines.
func renderSection(sec *core.Section) string {
	var b strings.Builder

	if sec.Depth > 0 {
		b.WriteString(strings.Repeat("#", sec.Depth))
		b.WriteByte(' ')
		b.WriteString(sec.Text)
		b.WriteString("\n\n")
	}

	for i, c := range sec.Content {
		if i > 0 {
			b.WriteString("\n\n")
		}

		b.WriteString(renderContent(c))
	}

	return b.String()
}

func renderContent(c core.Content) string {
	switch c.Type {
	case core.ContentCode:
		return "```" + c.Language + "\n" + c.Text + "\n```"
	case core.ContentThematic:
		return "---"
	default:
		return c.Text
	}
}
