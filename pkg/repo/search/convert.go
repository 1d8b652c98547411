package search

import (
	"encoding/json"
	"fmt"

	"github.com/ksysoev/searchmix/pkg/core"
)

// toStoredDocument projects a core.Document onto the flat Bleve schema,
// serializing the heading tree and section index as opaque JSON since Bleve
// cannot index nested structures.
func toStoredDocument(doc *core.Document) (*storedDocument, error) {
	structureJSON, err := json.Marshal(doc.Structure)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal structure for %s: %w", core.ErrStorageError, doc.Path, err)
	}

	sectionsJSON, err := json.Marshal(doc.SectionsIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal sections_index for %s: %w", core.ErrStorageError, doc.Path, err)
	}

	return &storedDocument{
		Path: doc.Path,

		Title: doc.Title,
		H1:    doc.H1,
		H2:    doc.H2,
		H3:    doc.H3,
		H4:    doc.H4,
		H5:    doc.H5,
		H6:    doc.H6,
		Body:  doc.BodyRaw,

		TitleNormalized: doc.TitleNorm,
		H1Normalized:    doc.H1Norm,
		H2Normalized:    doc.H2Norm,
		H3Normalized:    doc.H3Norm,
		H4Normalized:    doc.H4Norm,
		H5Normalized:    doc.H5Norm,
		H6Normalized:    doc.H6Norm,
		BodyNormalized:  doc.BodyNorm,

		Collection:    doc.Tags,
		Untagged:      len(doc.Tags) == 0,
		StructureJSON: string(structureJSON),
		SectionsJSON:  string(sectionsJSON),
		MTimeMillis:   doc.MTimeMillis,
		HasMTime:      doc.HasMTime,
		SourceFormat:  string(doc.SourceFormat),
	}, nil
}

// fromStoredDocument reconstructs a core.Document from its stored
// projection, restoring the heading tree and section index from their JSON
// blobs.
func fromStoredDocument(s *storedDocument) (*core.Document, error) {
	var structure []*core.Section
	if s.StructureJSON != "" {
		if err := json.Unmarshal([]byte(s.StructureJSON), &structure); err != nil {
			return nil, fmt.Errorf("%w: unmarshal structure for %s: %w", core.ErrStorageError, s.Path, err)
		}
	}

	sectionsIndex := map[string]*core.Section{}
	if s.SectionsJSON != "" {
		if err := json.Unmarshal([]byte(s.SectionsJSON), &sectionsIndex); err != nil {
			return nil, fmt.Errorf("%w: unmarshal sections_index for %s: %w", core.ErrStorageError, s.Path, err)
		}
	}

	return &core.Document{
		Path: s.Path,

		Title: s.Title,
		H1:    s.H1,
		H2:    s.H2,
		H3:    s.H3,
		H4:    s.H4,
		H5:    s.H5,
		H6:    s.H6,
		BodyRaw: s.Body,

		TitleNorm: s.TitleNormalized,
		H1Norm:    s.H1Normalized,
		H2Norm:    s.H2Normalized,
		H3Norm:    s.H3Normalized,
		H4Norm:    s.H4Normalized,
		H5Norm:    s.H5Normalized,
		H6Norm:    s.H6Normalized,
		BodyNorm:  s.BodyNormalized,

		Structure:     structure,
		SectionsIndex: sectionsIndex,
		Tags:          s.Collection,
		MTimeMillis:   s.MTimeMillis,
		HasMTime:      s.HasMTime,
		SourceFormat:  core.SourceFormat(s.SourceFormat),
	}, nil
}

// storedFromFields rebuilds a storedDocument from a Bleve search hit's
// Fields map (the stored-field values requested via SearchRequest.Fields).
func storedFromFields(path string, fields map[string]interface{}) (*storedDocument, error) {
	s := &storedDocument{Path: path}

	s.Title = fieldString(fields, "title")
	s.H1 = fieldString(fields, "h1")
	s.H2 = fieldString(fields, "h2")
	s.H3 = fieldString(fields, "h3")
	s.H4 = fieldString(fields, "h4")
	s.H5 = fieldString(fields, "h5")
	s.H6 = fieldString(fields, "h6")
	s.Body = fieldString(fields, "body")

	s.TitleNormalized = fieldString(fields, "title_normalized")
	s.H1Normalized = fieldString(fields, "h1_normalized")
	s.H2Normalized = fieldString(fields, "h2_normalized")
	s.H3Normalized = fieldString(fields, "h3_normalized")
	s.H4Normalized = fieldString(fields, "h4_normalized")
	s.H5Normalized = fieldString(fields, "h5_normalized")
	s.H6Normalized = fieldString(fields, "h6_normalized")
	s.BodyNormalized = fieldString(fields, "body_normalized")

	s.Untagged = fieldBool(fields, "untagged")
	s.StructureJSON = fieldString(fields, "structure")
	s.SectionsJSON = fieldString(fields, "sections_index")
	s.MTimeMillis = int64(fieldFloat(fields, "mtime"))
	s.HasMTime = fieldBool(fields, "has_mtime")
	s.SourceFormat = fieldString(fields, "source_format")

	if raw, ok := fields["collection"]; ok {
		s.Collection = toStringSlice(raw)
	}

	return s, nil
}

func fieldString(fields map[string]interface{}, name string) string {
	v, ok := fields[name]
	if !ok {
		return ""
	}

	s, _ := v.(string)

	return s
}

func fieldBool(fields map[string]interface{}, name string) bool {
	v, ok := fields[name]
	if !ok {
		return false
	}

	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	default:
		return false
	}
}

func fieldFloat(fields map[string]interface{}, name string) float64 {
	v, ok := fields[name]
	if !ok {
		return 0
	}

	f, _ := v.(float64)

	return f
}

// toStringSlice normalizes Bleve's multi-valued stored-field representation:
// a single-valued keyword field round-trips as a bare string, a multi-valued
// one as []interface{}.
func toStringSlice(v interface{}) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}

		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))

		for _, e := range val {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
