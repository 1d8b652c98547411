package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	bquery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/ksysoev/searchmix/pkg/core"
	"github.com/ksysoev/searchmix/pkg/query"
)

// weightedFields lists every single-value normalized column a bare
// (unscoped) term is disjuncted across, paired with the FieldWeights getter
// that supplies its boost.
var weightedFields = []struct {
	field string
	sect  core.SectionType
}{
	{"title_normalized", core.SectionTitle},
	{"h1_normalized", core.SectionH1},
	{"h2_normalized", core.SectionH2},
	{"h3_normalized", core.SectionH3},
	{"h4_normalized", core.SectionH4},
	{"h5_normalized", core.SectionH5},
	{"h6_normalized", core.SectionH6},
	{"body_normalized", core.SectionBody},
}

// headingFields lists the columns the "headings" meta-field fans out
// across; it addresses h1…h6 collectively and has no column of its own in
// the storage schema.
var headingFields = []string{
	"h1_normalized", "h2_normalized", "h3_normalized",
	"h4_normalized", "h5_normalized", "h6_normalized",
}

// buildTagFilter builds the tag-scoping filter: a document
// matches if its tag set intersects the requested tags, or if it carries
// no tags at all — untagged documents are global and always returned. An
// empty requested set means "no filtering" and is handled by the caller
// before reaching here.
func buildTagFilter(tags []string) bquery.Query {
	disj := bleve.NewDisjunctionQuery()

	for _, t := range tags {
		tq := bleve.NewTermQuery(t)
		tq.SetField("collection")
		disj.AddQuery(tq)
	}

	untagged := bleve.NewBoolFieldQuery(true)
	untagged.SetField("untagged")
	disj.AddQuery(untagged)

	return disj
}

// queryBuilder parses a Rewrite()-produced query string into a Bleve query
// tree. It operates as a recursive-descent parser over the same token
// stream pkg/query uses for rewriting (query.Tokenize), giving OR the
// lowest precedence, then AND (including the implicit AND between two
// adjacent terms with no operator between them), then NOT.
type queryBuilder struct {
	toks    []query.Token
	pos     int
	weights core.FieldWeights
}

// BuildContentQuery parses rewritten (already normalized/field-qualified)
// query text into the Bleve query tree the storage layer executes.
func BuildContentQuery(rewritten string, weights core.FieldWeights) (bquery.Query, error) {
	b := &queryBuilder{toks: query.Tokenize(rewritten), weights: weights}

	q, err := b.parseOr()
	if err != nil {
		return nil, err
	}

	if b.pos != len(b.toks) {
		return nil, fmt.Errorf("%w: unexpected token at position %d", core.ErrQueryInvalid, b.pos)
	}

	return q, nil
}

func (b *queryBuilder) peek() (query.Token, bool) {
	if b.pos >= len(b.toks) {
		return query.Token{}, false
	}

	return b.toks[b.pos], true
}

func (b *queryBuilder) parseOr() (bquery.Query, error) {
	left, err := b.parseAnd()
	if err != nil {
		return nil, err
	}

	disj := bleve.NewDisjunctionQuery(left)
	matched := false

	for {
		t, ok := b.peek()
		if !ok || t.Kind != query.TokOp || t.Text != "OR" {
			break
		}

		b.pos++

		right, err := b.parseAnd()
		if err != nil {
			return nil, err
		}

		disj.AddQuery(right)
		matched = true
	}

	if !matched {
		return left, nil
	}

	return disj, nil
}

func (b *queryBuilder) parseAnd() (bquery.Query, error) {
	left, err := b.parseNot()
	if err != nil {
		return nil, err
	}

	conj := bleve.NewConjunctionQuery(left)
	matched := false

	for {
		t, ok := b.peek()
		if !ok || t.Kind == query.TokRParen {
			break
		}

		if t.Kind == query.TokOp {
			if t.Text == "OR" {
				// Lower precedence: leave it for parseOr's loop.
				break
			}

			if t.Text == "AND" {
				b.pos++
			}
			// A bare "NOT" is left in place (implicit AND) so parseNot
			// below consumes it as a unary operator.
		}

		right, err := b.parseNot()
		if err != nil {
			return nil, err
		}

		conj.AddQuery(right)
		matched = true
	}

	if !matched {
		return left, nil
	}

	return conj, nil
}

func (b *queryBuilder) parseNot() (bquery.Query, error) {
	t, ok := b.peek()
	if ok && t.Kind == query.TokOp && t.Text == "NOT" {
		b.pos++

		operand, err := b.parseNot()
		if err != nil {
			return nil, err
		}

		bq := bleve.NewBooleanQuery()
		bq.AddMust(bleve.NewMatchAllQuery())
		bq.AddMustNot(operand)

		return bq, nil
	}

	return b.parseAtom()
}

func (b *queryBuilder) parseAtom() (bquery.Query, error) {
	t, ok := b.peek()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end of query", core.ErrQueryInvalid)
	}

	switch t.Kind {
	case query.TokLParen:
		b.pos++

		inner, err := b.parseOr()
		if err != nil {
			return nil, err
		}

		closeTok, ok := b.peek()
		if !ok || closeTok.Kind != query.TokRParen {
			return nil, fmt.Errorf("%w: expected ')'", core.ErrQueryInvalid)
		}

		b.pos++

		return inner, nil

	case query.TokPhrase:
		b.pos++

		return b.phraseAcrossWeightedFields(t.Text), nil

	case query.TokWord:
		b.pos++

		return b.wordQuery(t.Text)

	default:
		return nil, fmt.Errorf("%w: unexpected token %q", core.ErrQueryInvalid, t.Text)
	}
}

func (b *queryBuilder) wordQuery(word string) (bquery.Query, error) {
	if field, value, ok := query.FieldPrefixOf(word); ok {
		return b.fieldQuery(field, value), nil
	}

	return b.termAcrossWeightedFields(word), nil
}

// fieldQuery builds a field-scoped query for a "field:value" token already
// produced by Rewrite. The synthetic "headings_normalized" field fans out
// across h1_normalized…h6_normalized, unweighted; any other
// "*_normalized" field targets its single column with its configured
// weight as boost; an unrecognized field (Rewrite left it untouched) is
// queried literally with boost 1.
func (b *queryBuilder) fieldQuery(field, value string) bquery.Query {
	if field == "headings_normalized" {
		disj := bleve.NewDisjunctionQuery()

		for _, f := range headingFields {
			disj.AddQuery(termOrPrefix(f, value, 1))
		}

		return disj
	}

	for _, wf := range weightedFields {
		if wf.field == field {
			return termOrPrefix(field, value, b.weights.For(wf.sect))
		}
	}

	return termOrPrefix(field, value, 1)
}

// termAcrossWeightedFields builds the disjunction a bare (unscoped) term
// expands to: one boosted subquery per title/h1…h6/body column.
func (b *queryBuilder) termAcrossWeightedFields(word string) bquery.Query {
	disj := bleve.NewDisjunctionQuery()

	for _, wf := range weightedFields {
		disj.AddQuery(termOrPrefix(wf.field, word, b.weights.For(wf.sect)))
	}

	return disj
}

func (b *queryBuilder) phraseAcrossWeightedFields(phrase string) bquery.Query {
	disj := bleve.NewDisjunctionQuery()

	for _, wf := range weightedFields {
		pq := bleve.NewMatchPhraseQuery(phrase)
		pq.SetField(wf.field)
		pq.SetBoost(b.weights.For(wf.sect))
		disj.AddQuery(pq)
	}

	return disj
}

// termOrPrefix builds a match query, or a prefix query when word carries a
// trailing '*'.
func termOrPrefix(field, word string, boost float64) bquery.Query {
	if len(word) > 0 && word[len(word)-1] == '*' {
		pq := bleve.NewPrefixQuery(word[:len(word)-1])
		pq.SetField(field)
		pq.SetBoost(boost)

		return pq
	}

	mq := bleve.NewMatchQuery(word)
	mq.SetField(field)
	mq.SetBoost(boost)

	return mq
}
