// Package search implements the persistent full-text store: a
// Bleve-backed index of title/h1…h6/body raw and normalized columns,
// weighted per-field BM25 ranking, tag filtering, and path-keyed
// upsert/mtime-skip semantics.
package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	bquery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/ksysoev/searchmix/pkg/core"
)

// allStoredFields lists every field storedDocument serializes, used to
// request full reconstruction from a Bleve search hit (Bleve's point-lookup
// API does not expose stored fields directly, so every read here goes
// through Search with a path-equality query).
var allStoredFields = []string{
	"path", "title", "h1", "h2", "h3", "h4", "h5", "h6", "body",
	"title_normalized", "h1_normalized", "h2_normalized", "h3_normalized",
	"h4_normalized", "h5_normalized", "h6_normalized", "body_normalized",
	"collection", "untagged", "structure", "sections_index", "mtime",
	"has_mtime", "source_format",
}

// mtimeToleranceMillis is the incremental-skip tolerance: mtime drift
// within this window (filesystem timestamp quantization) is absorbed
// rather than triggering a re-index.
const mtimeToleranceMillis = 1000

// storedDocument is the Bleve document mapping for one core.Document:
// raw/normalized variants of title/h1-6/body, plus
// path/tags/structure/sections_index/mtime columns. Structure and
// SectionsIndex are persisted as opaque JSON blobs since Bleve only indexes
// scalar/string fields; fromStoredDocument (convert.go) reconstructs them
// into core.Section trees, and they are never queried directly.
type storedDocument struct {
	Path string `json:"path"`

	Title string `json:"title"`
	H1    string `json:"h1"`
	H2    string `json:"h2"`
	H3    string `json:"h3"`
	H4    string `json:"h4"`
	H5    string `json:"h5"`
	H6    string `json:"h6"`
	Body  string `json:"body"`

	TitleNormalized string `json:"title_normalized"`
	H1Normalized    string `json:"h1_normalized"`
	H2Normalized    string `json:"h2_normalized"`
	H3Normalized    string `json:"h3_normalized"`
	H4Normalized    string `json:"h4_normalized"`
	H5Normalized    string `json:"h5_normalized"`
	H6Normalized    string `json:"h6_normalized"`
	BodyNormalized  string `json:"body_normalized"`

	Collection    []string `json:"collection"`
	Untagged      bool     `json:"untagged"`
	StructureJSON string   `json:"structure"`
	SectionsJSON  string   `json:"sections_index"`
	MTimeMillis   int64    `json:"mtime"`
	HasMTime      bool     `json:"has_mtime"`
	SourceFormat  string   `json:"source_format"`
}

// Engine is the persistent full-text store: a Bleve index opened or created
// at a fixed path, plus the per-field weight configuration used both for
// ranking and for field-scoped query construction.
//
// Writes (Upsert, Remove, Clear) are serialized by mu so the
// delete-then-insert upsert is never interleaved with another write and a
// reader never observes a half-indexed document. Reads hold the
// shared lock only; Bleve's index handle is safe for concurrent reads.
type Engine struct {
	index   bleve.Index
	weights core.FieldWeights
	mu      sync.RWMutex
}

// New opens the Bleve index at dbPath, creating it with the full column
// mapping if it does not yet exist.
func New(dbPath string, weights core.FieldWeights) (*Engine, error) {
	idx, err := bleve.Open(dbPath)
	if err != nil {
		idx, err = bleve.New(dbPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("%w: create index: %w", core.ErrStorageError, err)
		}
	}

	return &Engine{index: idx, weights: weights}, nil
}

// Close closes the underlying Bleve index.
func (e *Engine) Close() error {
	if err := e.index.Close(); err != nil {
		return fmt.Errorf("%w: close index: %w", core.ErrStorageError, err)
	}

	return nil
}

// DocCount returns the number of documents in the index, optionally scoped
// to a single tag.
func (e *Engine) DocCount(tag string) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(tagScopeQuery(tag), 0, 0, false)

	result, err := e.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", core.ErrStorageError, err)
	}

	return int(result.Total), nil
}

// tagScopeQuery scopes stats/enumeration to documents actually carrying
// tag. Unlike the search-time tag filter it does NOT admit untagged
// documents: removing or counting by tag must touch only that tag's set.
func tagScopeQuery(tag string) bquery.Query {
	if tag == "" {
		return bleve.NewMatchAllQuery()
	}

	tq := bleve.NewTermQuery(tag)
	tq.SetField("collection")

	return tq
}

// pathQuery returns an exact-match query against the "path" keyword field,
// used by every point-lookup method below.
func pathQuery(path string) bquery.Query {
	q := bleve.NewTermQuery(path)
	q.SetField("path")

	return q
}

// fetchStored runs a path-equality search and returns the single matching
// stored document, or found=false.
func (e *Engine) fetchStored(path string) (stored *storedDocument, found bool, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(pathQuery(path), 1, 0, false)
	req.Fields = allStoredFields

	result, err := e.index.Search(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %w", core.ErrStorageError, path, err)
	}

	if len(result.Hits) == 0 {
		return nil, false, nil
	}

	stored, err = storedFromFields(path, result.Hits[0].Fields)
	if err != nil {
		return nil, false, err
	}

	return stored, true, nil
}

// Upsert enforces path identity: on re-index of an existing path, the old
// record is deleted and the new record inserted within the same Bleve
// batch, so a reader never observes a half-indexed document.
func (e *Engine) Upsert(doc *core.Document) error {
	stored, err := toStoredDocument(doc)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	batch := e.index.NewBatch()
	batch.Delete(doc.Path)

	if err := batch.Index(doc.Path, stored); err != nil {
		return fmt.Errorf("%w: index %s: %w", core.ErrStorageError, doc.Path, err)
	}

	if err := e.index.Batch(batch); err != nil {
		return fmt.Errorf("%w: commit %s: %w", core.ErrStorageError, doc.Path, err)
	}

	return nil
}

// Get returns the stored mtime for path and whether a record exists, used
// by the index manager's check-modified skip logic.
func (e *Engine) Get(path string) (mtimeMillis int64, hasMTime, found bool, err error) {
	stored, found, err := e.fetchStored(path)
	if err != nil || !found {
		return 0, false, found, err
	}

	return stored.MTimeMillis, stored.HasMTime, true, nil
}

// GetDocument returns the full reconstructed core.Document for path, or
// found=false if no record exists.
func (e *Engine) GetDocument(path string) (doc *core.Document, found bool, err error) {
	stored, found, err := e.fetchStored(path)
	if err != nil || !found {
		return nil, found, err
	}

	d, err := fromStoredDocument(stored)
	if err != nil {
		return nil, false, err
	}

	return d, true, nil
}

// Has reports whether path is present in the index.
func (e *Engine) Has(path string) (bool, error) {
	_, found, err := e.fetchStored(path)
	return found, err
}

// Remove deletes the record at path.
func (e *Engine) Remove(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.index.Delete(path); err != nil {
		return fmt.Errorf("%w: remove %s: %w", core.ErrStorageError, path, err)
	}

	return nil
}

// AllPaths returns the path of every stored document carrying the given
// tag. An empty tag matches every path.
func (e *Engine) AllPaths(tag string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(tagScopeQuery(tag), maxPathScan, 0, false)
	req.Fields = []string{"path"}

	result, err := e.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("%w: list paths: %w", core.ErrStorageError, err)
	}

	paths := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		paths = append(paths, hit.ID)
	}

	return paths, nil
}

// maxPathScan bounds tag removal / clear enumeration; a single embedded
// index never approaches it.
const maxPathScan = 1_000_000

// Clear removes every record from the index.
func (e *Engine) Clear() error {
	paths, err := e.AllPaths("")
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	batch := e.index.NewBatch()
	for _, p := range paths {
		batch.Delete(p)
	}

	if err := e.index.Batch(batch); err != nil {
		return fmt.Errorf("%w: clear: %w", core.ErrStorageError, err)
	}

	return nil
}

// CheckModifiedSkip reports whether an existing record's stored mtime is
// close enough to currentMillis that Add should skip re-indexing.
func CheckModifiedSkip(storedMillis int64, hasStoredMTime bool, currentMillis int64) bool {
	if !hasStoredMTime {
		return false
	}

	delta := storedMillis - currentMillis
	if delta < 0 {
		delta = -delta
	}

	return delta <= mtimeToleranceMillis
}

func buildIndexMapping() mapping.IndexMapping {
	normText := bleve.NewTextFieldMapping()
	normText.Store = false
	normText.IncludeInAll = false

	rawField := bleve.NewTextFieldMapping()
	rawField.Store = true
	rawField.Index = false
	rawField.IncludeInAll = false

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.IncludeInAll = false

	boolField := bleve.NewBooleanFieldMapping()
	boolField.Store = true
	boolField.IncludeInAll = false

	numField := bleve.NewNumericFieldMapping()
	numField.Store = true
	numField.Index = false
	numField.IncludeInAll = false

	stored := bleve.NewTextFieldMapping()
	stored.Store = true
	stored.Index = false
	stored.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("path", keyword)
	doc.AddFieldMappingsAt("title", rawField)
	doc.AddFieldMappingsAt("h1", rawField)
	doc.AddFieldMappingsAt("h2", rawField)
	doc.AddFieldMappingsAt("h3", rawField)
	doc.AddFieldMappingsAt("h4", rawField)
	doc.AddFieldMappingsAt("h5", rawField)
	doc.AddFieldMappingsAt("h6", rawField)
	doc.AddFieldMappingsAt("body", rawField)
	doc.AddFieldMappingsAt("title_normalized", normText)
	doc.AddFieldMappingsAt("h1_normalized", normText)
	doc.AddFieldMappingsAt("h2_normalized", normText)
	doc.AddFieldMappingsAt("h3_normalized", normText)
	doc.AddFieldMappingsAt("h4_normalized", normText)
	doc.AddFieldMappingsAt("h5_normalized", normText)
	doc.AddFieldMappingsAt("h6_normalized", normText)
	doc.AddFieldMappingsAt("body_normalized", normText)
	doc.AddFieldMappingsAt("collection", keyword)
	doc.AddFieldMappingsAt("untagged", boolField)
	doc.AddFieldMappingsAt("structure", stored)
	doc.AddFieldMappingsAt("sections_index", stored)
	doc.AddFieldMappingsAt("mtime", numField)
	doc.AddFieldMappingsAt("has_mtime", boolField)
	doc.AddFieldMappingsAt("source_format", keyword)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = "standard"

	return im
}
