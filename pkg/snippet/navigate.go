package snippet

import (
	"strings"

	"github.com/ksysoev/searchmix/pkg/core"
)

// Navigator resolves the lazy parent/children/siblings/breadcrumb/content
// operations against one document's section tree. A Snippet carries no
// back-reference: callers pass the owning document's Navigator explicitly
// rather than dereferencing a handle stored on the snippet itself.
type Navigator struct {
	doc *core.Document
}

// NewNavigator builds a Navigator over doc's section tree.
func NewNavigator(doc *core.Document) *Navigator {
	return &Navigator{doc: doc}
}

func (n *Navigator) section(s *core.Snippet) *core.Section {
	if s == nil || s.SectionID == "" {
		return nil
	}

	return n.doc.SectionsIndex[s.SectionID]
}

func toRef(sec *core.Section) *core.HeadingRef {
	if sec == nil {
		return nil
	}

	return &core.HeadingRef{ID: sec.ID, Type: sec.Type, Text: sec.Text, Depth: sec.Depth}
}

// Parent returns the snippet's owning section's parent, or nil.
func (n *Navigator) Parent(s *core.Snippet) *core.HeadingRef {
	sec := n.section(s)
	if sec == nil || sec.ParentID == "" {
		return nil
	}

	return toRef(n.doc.SectionsIndex[sec.ParentID])
}

// Children returns the snippet's owning section's children, in order.
func (n *Navigator) Children(s *core.Snippet) []core.HeadingRef {
	sec := n.section(s)
	if sec == nil {
		return nil
	}

	out := make([]core.HeadingRef, 0, len(sec.ChildrenIDs))

	for _, id := range sec.ChildrenIDs {
		if c := n.doc.SectionsIndex[id]; c != nil {
			out = append(out, *toRef(c))
		}
	}

	return out
}

// Child returns the i-th child of the snippet's owning section.
func (n *Navigator) Child(s *core.Snippet, i int) (core.HeadingRef, bool) {
	children := n.Children(s)
	if i < 0 || i >= len(children) {
		return core.HeadingRef{}, false
	}

	return children[i], true
}

// Siblings returns the snippet owning section's parent's other children,
// excluding the section itself; empty if the section has no parent.
func (n *Navigator) Siblings(s *core.Snippet) []core.HeadingRef {
	sec := n.section(s)
	if sec == nil || sec.ParentID == "" {
		return nil
	}

	parent := n.doc.SectionsIndex[sec.ParentID]
	if parent == nil {
		return nil
	}

	out := make([]core.HeadingRef, 0, len(parent.ChildrenIDs))

	for _, id := range parent.ChildrenIDs {
		if id == sec.ID {
			continue
		}

		if c := n.doc.SectionsIndex[id]; c != nil {
			out = append(out, *toRef(c))
		}
	}

	return out
}

// AncestorAtDepth walks parent pointers from the snippet's owning section
// until it finds one at the given depth; ok is false if no such ancestor
// exists.
func (n *Navigator) AncestorAtDepth(s *core.Snippet, depth int) (ref core.HeadingRef, ok bool) {
	sec := n.section(s)

	for sec != nil {
		if sec.Depth == depth {
			return *toRef(sec), true
		}

		if sec.ParentID == "" {
			break
		}

		sec = n.doc.SectionsIndex[sec.ParentID]
	}

	return core.HeadingRef{}, false
}

// Breadcrumbs walks parent pointers to the root and returns the
// root-to-self path.
func (n *Navigator) Breadcrumbs(s *core.Snippet) []core.HeadingRef {
	sec := n.section(s)
	if sec == nil {
		return nil
	}

	var chain []*core.Section
	for sec != nil {
		chain = append(chain, sec)
		if sec.ParentID == "" {
			break
		}

		sec = n.doc.SectionsIndex[sec.ParentID]
	}

	out := make([]core.HeadingRef, len(chain))
	for i, c := range chain {
		out[len(chain)-1-i] = *toRef(c)
	}

	return out
}

// BreadcrumbsText joins Breadcrumbs with sep, defaulting to " > ".
func (n *Navigator) BreadcrumbsText(s *core.Snippet, sep string) string {
	if sep == "" {
		sep = " > "
	}

	crumbs := n.Breadcrumbs(s)
	texts := make([]string, len(crumbs))

	for i, c := range crumbs {
		texts[i] = c.Text
	}

	return strings.Join(texts, sep)
}

// HasParent reports whether the snippet's owning section has a parent.
func (n *Navigator) HasParent(s *core.Snippet) bool {
	sec := n.section(s)
	return sec != nil && sec.ParentID != ""
}

// HasChildren reports whether the snippet's owning section has children.
func (n *Navigator) HasChildren(s *core.Snippet) bool {
	sec := n.section(s)
	return sec != nil && len(sec.ChildrenIDs) > 0
}

// HasContent reports whether the snippet's owning section carries content
// blocks.
func (n *Navigator) HasContent(s *core.Snippet) bool {
	sec := n.section(s)
	return sec != nil && len(sec.Content) > 0
}

// Content returns the snippet's owning section's content blocks.
func (n *Navigator) Content(s *core.Snippet) []core.Content {
	sec := n.section(s)
	if sec == nil {
		return nil
	}

	return sec.Content
}

// Details is the fully resolved view of a snippet's section: the Section
// itself plus parent and children summaries.
type Details struct {
	Section  *core.Section
	Parent   *core.HeadingRef
	Children []core.HeadingRef
}

// Details resolves the snippet's owning section with its parent and
// children summaries.
func (n *Navigator) Details(s *core.Snippet) (Details, bool) {
	sec := n.section(s)
	if sec == nil {
		return Details{}, false
	}

	return Details{
		Section:  sec,
		Parent:   n.Parent(s),
		Children: n.Children(s),
	}, true
}
