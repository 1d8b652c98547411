// Package core defines the data model shared by every layer of the search
// engine: the parser that builds it, the storage layer that persists it, and
// the snippet extractor and navigation API that read it back out.
package core

// SourceFormat identifies the original format of a document's source bytes,
// before conversion to Markdown. It is carried for diagnostics only and never
// affects ranking or snippet extraction.
type SourceFormat string

const (
	FormatMarkdown SourceFormat = "markdown"
	FormatEPUB     SourceFormat = "epub"
	FormatPDF      SourceFormat = "pdf"
	FormatSRT      SourceFormat = "srt"
	FormatTXT      SourceFormat = "txt"
)

// BufferScheme is the reserved path prefix for documents indexed from an
// in-memory byte buffer rather than a file, keeping that namespace disjoint
// from filesystem paths as required by the path-identity invariant.
const BufferScheme = "buffer://"

// SectionType identifies the field a Section (or a match within it)
// belongs to, used uniformly by the parser, extractor, and snippet output
// in place of runtime-typed dispatch over heading depth.
type SectionType string

const (
	SectionTitle SectionType = "title"
	SectionH1    SectionType = "h1"
	SectionH2    SectionType = "h2"
	SectionH3    SectionType = "h3"
	SectionH4    SectionType = "h4"
	SectionH5    SectionType = "h5"
	SectionH6    SectionType = "h6"
	SectionBody  SectionType = "body"
)

// HeadingDepth maps a heading SectionType to its 1-6 depth. Returns 0 for
// SectionBody and SectionTitle, neither of which is a depth-bearing heading.
func (t SectionType) HeadingDepth() int {
	switch t {
	case SectionH1:
		return 1
	case SectionH2:
		return 2
	case SectionH3:
		return 3
	case SectionH4:
		return 4
	case SectionH5:
		return 5
	case SectionH6:
		return 6
	default:
		return 0
	}
}

// SectionTypeForDepth returns the SectionType for a heading depth 1-6.
func SectionTypeForDepth(depth int) SectionType {
	switch depth {
	case 1:
		return SectionH1
	case 2:
		return SectionH2
	case 3:
		return SectionH3
	case 4:
		return SectionH4
	case 5:
		return SectionH5
	case 6:
		return SectionH6
	default:
		return SectionBody
	}
}

// Position is a half-open byte range [Start, End) within a document's
// body_raw (or, for a heading line considered on its own, within that line).
type Position struct {
	Start int
	End   int
}

// ContentBlockType identifies the kind of content a Content block holds.
type ContentBlockType string

const (
	ContentParagraph  ContentBlockType = "paragraph"
	ContentList       ContentBlockType = "list"
	ContentCode       ContentBlockType = "code"
	ContentBlockquote ContentBlockType = "blockquote"
	ContentTable      ContentBlockType = "table"
	ContentThematic   ContentBlockType = "thematic_break"
)

// Content is a non-heading block of a document (paragraph, list, code, …)
// attached to the Section that owns it.
type Content struct {
	Type     ContentBlockType
	Text     string
	Position Position
	// Language is the fenced-code-block info-string language tag, set only
	// when Type is ContentCode and a language was declared.
	Language string
}

// Section is a node in a document's heading hierarchy, or the synthetic
// body-root holding content that precedes the first heading.
type Section struct {
	ID           string
	Type         SectionType
	Depth        int
	Text         string
	Position     Position
	ParentID     string // empty for roots of Document.Structure
	ChildrenIDs  []string
	Content      []Content
}

// Document is the unit of indexing and retrieval, identified by Path.
type Document struct {
	Path string

	Title string
	H1    string
	H2    string
	H3    string
	H4    string
	H5    string
	H6    string

	BodyRaw string

	TitleNorm string
	H1Norm    string
	H2Norm    string
	H3Norm    string
	H4Norm    string
	H5Norm    string
	H6Norm    string
	BodyNorm  string

	Structure     []*Section
	SectionsIndex map[string]*Section

	Tags []string

	// MTimeMillis is the source file's modification time in milliseconds
	// since epoch. Zero/absent for in-memory sources.
	MTimeMillis int64
	HasMTime    bool

	SourceFormat SourceFormat
}

// FieldNorm returns the normalized projection for the named field, in the
// canonical field order used by the snippet extractor: title, h1…h6, body.
func (d *Document) FieldNorm(f SectionType) string {
	switch f {
	case SectionTitle:
		return d.TitleNorm
	case SectionH1:
		return d.H1Norm
	case SectionH2:
		return d.H2Norm
	case SectionH3:
		return d.H3Norm
	case SectionH4:
		return d.H4Norm
	case SectionH5:
		return d.H5Norm
	case SectionH6:
		return d.H6Norm
	case SectionBody:
		return d.BodyNorm
	default:
		return ""
	}
}

// FieldRaw returns the raw projection for the named field.
func (d *Document) FieldRaw(f SectionType) string {
	switch f {
	case SectionTitle:
		return d.Title
	case SectionH1:
		return d.H1
	case SectionH2:
		return d.H2
	case SectionH3:
		return d.H3
	case SectionH4:
		return d.H4
	case SectionH5:
		return d.H5
	case SectionH6:
		return d.H6
	case SectionBody:
		return d.BodyRaw
	default:
		return ""
	}
}

// OrderedFields lists the fields in the order the snippet extractor scans
// them.
var OrderedFields = []SectionType{
	SectionTitle, SectionH1, SectionH2, SectionH3, SectionH4, SectionH5, SectionH6, SectionBody,
}

// HasTag reports whether the document carries the given tag.
func (d *Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}

	return false
}
