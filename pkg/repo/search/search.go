package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/ksysoev/searchmix/pkg/core"
	"github.com/ksysoev/searchmix/pkg/query"
)

// Hit pairs a reconstructed document with its ranking score, surfaced in
// a lower-is-better convention: Bleve's native BM25 score is
// higher-is-better, so Score here is its negation.
type Hit struct {
	Document *core.Document
	Score    float64
}

// Search executes rawQuery against the index: the query is rewritten into
// its field-qualified normalized form, parsed into a
// Bleve query tree weighted by the configured FieldWeights, optionally
// scoped to a tag set, and optionally filtered by a minimum score.
//
// totalCount is non-nil only when opts.Count is set; it is Bleve's total
// hit count for the query, taken before the limit and before the min-score
// cut.
func (e *Engine) Search(rawQuery string, opts core.SearchOptions) (hits []Hit, totalCount *int, err error) {
	rewritten, err := query.Rewrite(rawQuery)
	if err != nil {
		return nil, nil, err
	}

	contentQuery, err := BuildContentQuery(rewritten, e.weights)
	if err != nil {
		return nil, nil, err
	}

	finalQuery := contentQuery
	if len(opts.Tags) > 0 {
		conj := bleve.NewConjunctionQuery(contentQuery, buildTagFilter(opts.Tags))
		finalQuery = conj
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = core.DefaultSearchOptions().Limit
	}

	req := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	req.Fields = allStoredFields

	e.mu.RLock()
	result, searchErr := e.index.Search(req)
	e.mu.RUnlock()

	if searchErr != nil {
		return nil, nil, fmt.Errorf("%w: search: %w", core.ErrStorageError, searchErr)
	}

	hits = make([]Hit, 0, len(result.Hits))

	for _, h := range result.Hits {
		rank := -h.Score
		if opts.MinScore != nil && rank > *opts.MinScore {
			// MinScore bounds the rank in the lower-is-better convention:
			// records ranking worse than it are dropped.
			continue
		}

		stored, convErr := storedFromFields(h.ID, h.Fields)
		if convErr != nil {
			return nil, nil, convErr
		}

		doc, convErr := fromStoredDocument(stored)
		if convErr != nil {
			return nil, nil, convErr
		}

		hits = append(hits, Hit{Document: doc, Score: rank})
	}

	if opts.Count {
		total := int(result.Total)
		totalCount = &total
	}

	return hits, totalCount, nil
}
