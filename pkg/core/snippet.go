package core

// HeadingRef is a lightweight summary of a Section, used both as the
// Snippet.Heading projection and as the parent/children summaries returned
// by GetDetails.
type HeadingRef struct {
	ID    string
	Type  SectionType
	Text  string
	Depth int
}

// Snippet is a value object returned from a search: a single match occurrence
// plus enough section metadata to navigate into the owning document's
// heading hierarchy. It carries no back-reference to the index; navigation
// is performed by passing the Snippet to the Navigator explicitly.
type Snippet struct {
	Text        string
	SectionType SectionType
	Position    int

	DocumentPath  string
	DocumentTitle string
	Tags          []string
	Rank          float64

	// The following are populated only when the match could be attributed
	// to a specific Section (SectionID != "").
	SectionID    string
	ParentID     string
	ChildrenIDs  []string
	ContentCount int
	Heading      *HeadingRef
}

// HasSection reports whether this snippet could be attributed to a section.
func (s *Snippet) HasSection() bool {
	return s.SectionID != ""
}
