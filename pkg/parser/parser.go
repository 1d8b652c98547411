// Package parser builds a Document's heading tree, flat section index, and
// title/h1…h6/body field projections from Markdown source.
package parser

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/ksysoev/searchmix/pkg/core"
	"github.com/ksysoev/searchmix/pkg/normalize"
)

// Options configures Parse.
type Options struct {
	// IncludeCodeBlocks controls whether fenced/indented code blocks
	// contribute to their owning section's content.
	IncludeCodeBlocks bool
}

// md is the shared Goldmark instance used only for its AST parser (GFM
// extensions enabled so tables and strikethrough don't fall through to
// HTMLBlock); rendering is never invoked since this package never produces
// HTML.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Parse parses Markdown source into a Document: its heading tree,
// sections_index, and title/h1…h6/body field projections (raw and folded).
func Parse(src []byte, opts Options) (*core.Document, error) {
	reader := text.NewReader(src)
	root := md.Parser().Parse(reader)

	b := &builder{
		src:  src,
		opts: opts,
		doc: &core.Document{
			SectionsIndex: map[string]*core.Section{},
		},
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		b.visitTop(n)
	}

	b.doc.BodyRaw = string(src)
	b.assignNorms()

	return b.doc, nil
}

// builder walks the top-level blocks of a parsed Markdown AST, maintaining
// the stack of currently open heading sections.
type builder struct {
	src  []byte
	opts Options
	doc  *core.Document

	stack   []*core.Section // open heading sections, shallowest first
	current *core.Section   // section new content attaches to
	nextID  int
}

func (b *builder) newID() string {
	b.nextID++
	return "s" + strconv.Itoa(b.nextID)
}

func (b *builder) visitTop(n ast.Node) {
	if h, ok := n.(*ast.Heading); ok {
		b.onHeading(h)
		return
	}

	b.onContent(n)
}

// onHeading pops open sections at the same or deeper level, links the new
// section to its parent (or to Structure if none remain open), and pushes
// it as the new current section.
func (b *builder) onHeading(h *ast.Heading) {
	headingText := extractNodeText(h, b.src)
	if strings.TrimSpace(headingText) == "" {
		// Empty heading text creates no section.
		return
	}

	depth := h.Level
	start, end := b.headingLineBounds(h)

	for len(b.stack) > 0 && b.stack[len(b.stack)-1].Depth >= depth {
		b.stack = b.stack[:len(b.stack)-1]
	}

	sec := &core.Section{
		ID:       b.newID(),
		Type:     core.SectionTypeForDepth(depth),
		Depth:    depth,
		Text:     headingText,
		Position: core.Position{Start: start, End: end},
	}

	if len(b.stack) == 0 {
		b.doc.Structure = append(b.doc.Structure, sec)
	} else {
		parent := b.stack[len(b.stack)-1]
		sec.ParentID = parent.ID
		parent.ChildrenIDs = append(parent.ChildrenIDs, sec.ID)
	}

	b.doc.SectionsIndex[sec.ID] = sec
	b.stack = append(b.stack, sec)
	b.current = sec

	b.appendHeadingProjection(depth, headingText)
}

// appendHeadingProjection applies the field-projection rule: `title` holds
// only the first h1's text; `h1`…`h6` accumulate every heading at that
// level, newline-joined in document order.
func (b *builder) appendHeadingProjection(depth int, text string) {
	if depth == 1 && b.doc.Title == "" {
		b.doc.Title = text
	}

	switch depth {
	case 1:
		appendField(&b.doc.H1, text)
	case 2:
		appendField(&b.doc.H2, text)
	case 3:
		appendField(&b.doc.H3, text)
	case 4:
		appendField(&b.doc.H4, text)
	case 5:
		appendField(&b.doc.H5, text)
	case 6:
		appendField(&b.doc.H6, text)
	}
}

func appendField(field *string, text string) {
	if *field == "" {
		*field = text
	} else {
		*field = *field + "\n" + text
	}
}

// onContent attaches a non-heading block to the
// current section's Content, lazily creating the synthetic body root when no
// heading has opened yet.
func (b *builder) onContent(n ast.Node) {
	ctype, txt, lang, ok := b.classify(n)
	if !ok {
		return
	}

	if ctype != core.ContentThematic && strings.TrimSpace(txt) == "" {
		return
	}

	start, end := nodeBounds(n)

	if b.current == nil {
		b.ensureBodyRoot()
	}

	b.current.Content = append(b.current.Content, core.Content{
		Type:     ctype,
		Text:     txt,
		Position: core.Position{Start: start, End: end},
		Language: lang,
	})
}

// ensureBodyRoot lazily creates the synthetic body-root section at the head
// of Structure the first time content appears before any heading.
func (b *builder) ensureBodyRoot() {
	sec := &core.Section{
		ID:    b.newID(),
		Type:  core.SectionBody,
		Depth: 0,
	}

	b.doc.Structure = append([]*core.Section{sec}, b.doc.Structure...)
	b.doc.SectionsIndex[sec.ID] = sec
	b.current = sec
}

// classify maps a top-level AST node to the Content block type and text it
// contributes. ok is false for node kinds that
// contribute nothing (e.g. raw HTML blocks), or for code blocks when
// IncludeCodeBlocks is false.
func (b *builder) classify(n ast.Node) (ctype core.ContentBlockType, txt, lang string, ok bool) {
	switch node := n.(type) {
	case *ast.Paragraph:
		return core.ContentParagraph, extractNodeText(node, b.src), "", true
	case *ast.List:
		return core.ContentList, extractNodeText(node, b.src), "", true
	case *ast.Blockquote:
		return core.ContentBlockquote, extractNodeText(node, b.src), "", true
	case *ast.ThematicBreak:
		return core.ContentThematic, "", "", true
	case *east.Table:
		return core.ContentTable, extractNodeText(node, b.src), "", true
	case *ast.FencedCodeBlock:
		if !b.opts.IncludeCodeBlocks {
			return "", "", "", false
		}

		return core.ContentCode, codeLinesText(node, b.src), string(node.Language(b.src)), true
	case *ast.CodeBlock:
		if !b.opts.IncludeCodeBlocks {
			return "", "", "", false
		}

		return core.ContentCode, codeLinesText(node, b.src), "", true
	default:
		return "", "", "", false
	}
}

func (b *builder) assignNorms() {
	d := b.doc
	d.TitleNorm = normalize.Normalize(d.Title).Norm
	d.H1Norm = normalize.Normalize(d.H1).Norm
	d.H2Norm = normalize.Normalize(d.H2).Norm
	d.H3Norm = normalize.Normalize(d.H3).Norm
	d.H4Norm = normalize.Normalize(d.H4).Norm
	d.H5Norm = normalize.Normalize(d.H5).Norm
	d.H6Norm = normalize.Normalize(d.H6).Norm
	d.BodyNorm = normalize.Normalize(d.BodyRaw).Norm
}

// headingLineBounds expands a heading node's own line bounds out to the full
// source line so Position covers the heading syntax itself ("# " and all),
// not just the span Goldmark recorded for its inline children.
func (b *builder) headingLineBounds(h *ast.Heading) (start, end int) {
	start, end = nodeBounds(h)

	for start > 0 && b.src[start-1] != '\n' {
		start--
	}

	for end < len(b.src) && b.src[end] != '\n' {
		end++
	}

	return start, end
}

// linesNode is the Lines accessor every Goldmark node exposes. Only block
// nodes (those embedding ast.BaseBlock) record source lines; inline nodes
// panic when Lines is called, so nodeBounds consults it on block nodes only.
type linesNode interface {
	Lines() *text.Segments
}

// nodeBounds returns the smallest byte range in body_raw spanning every raw
// source line recorded on a block node in n's subtree.
func nodeBounds(n ast.Node) (start, end int) {
	start, end = -1, -1

	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if c.Type() != ast.TypeBlock {
			return ast.WalkSkipChildren, nil
		}

		lb, ok := c.(linesNode)
		if !ok {
			return ast.WalkContinue, nil
		}

		lines := lb.Lines()
		if lines == nil || lines.Len() == 0 {
			return ast.WalkContinue, nil
		}

		s := lines.At(0).Start
		e := lines.At(lines.Len() - 1).Stop

		if start == -1 || s < start {
			start = s
		}

		if end == -1 || e > end {
			end = e
		}

		return ast.WalkContinue, nil
	})

	if start == -1 {
		return 0, 0
	}

	return start, end
}

func codeLinesText(n linesNode, src []byte) string {
	lines := n.Lines()

	var b strings.Builder

	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}

	return b.String()
}

// extractNodeText recursively walks a node's subtree and collects the plain
// text of every inline text segment, unwrapping emphasis/strong/links/code
// spans and preserving image alt text.
func extractNodeText(n ast.Node, src []byte) string {
	var b strings.Builder

	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || child == n {
			return ast.WalkContinue, nil
		}

		switch node := child.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
		case *ast.String:
			b.Write(node.Value)
		}

		return ast.WalkContinue, nil
	})

	return b.String()
}
