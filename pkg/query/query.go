// Package query implements the public boolean/field/phrase query
// language's rewrite into the internal, field-addressed, normalized form
// consumed by the storage layer, plus the term extraction the snippet
// extractor uses to re-scan each matched document.
package query

import (
	"fmt"
	"strings"

	"github.com/ksysoev/searchmix/pkg/core"
	"github.com/ksysoev/searchmix/pkg/normalize"
)

// Fields is the recognized set of field prefixes accepted on input.
// "headings" addresses h1…h6 collectively; it has no single column of its
// own in the storage schema (see pkg/repo/search).
var Fields = map[string]bool{
	"title": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "headings": true, "body": true,
}

// TokenKind identifies the kind of a Token produced by Tokenize.
type TokenKind int

const (
	TokWord TokenKind = iota
	TokPhrase
	TokOp
	TokLParen
	TokRParen
)

// Token is one atomic unit of the public/internal query language: a bare
// word or field:value pair, a quoted phrase, an AND/OR/NOT operator, or a
// grouping parenthesis.
type Token struct {
	Kind TokenKind
	Text string
}

// Tokenize scans q into a stream preserving quoted phrases as atomic tokens
// and operators/parentheses as atomic tokens. Operator keywords are matched
// case-insensitively on input. Both Rewrite and the storage layer's query
// builder (pkg/repo/search) share this scanner: Rewrite runs it over the
// user's raw query, the storage layer runs it again over Rewrite's output
// to build the bleve query tree.
func Tokenize(q string) []Token {
	var toks []Token

	i := 0
	for i < len(q) {
		c := q[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, Token{Kind: TokLParen, Text: "("})
			i++
		case c == ')':
			toks = append(toks, Token{Kind: TokRParen, Text: ")"})
			i++
		case c == '"':
			if end := strings.IndexByte(q[i+1:], '"'); end >= 0 {
				toks = append(toks, Token{Kind: TokPhrase, Text: q[i+1 : i+1+end]})
				i += end + 2
			} else {
				toks = append(toks, Token{Kind: TokPhrase, Text: q[i+1:]})
				i = len(q)
			}
		default:
			start := i
			for i < len(q) {
				cc := q[i]
				if cc == ' ' || cc == '\t' || cc == '\n' || cc == '\r' || cc == '(' || cc == ')' || cc == '"' {
					break
				}

				i++
			}

			word := q[start:i]
			upper := strings.ToUpper(word)

			if upper == "AND" || upper == "OR" || upper == "NOT" {
				toks = append(toks, Token{Kind: TokOp, Text: upper})
			} else {
				toks = append(toks, Token{Kind: TokWord, Text: word})
			}
		}
	}

	return toks
}

// FieldPrefixOf splits a word token of the form "field:value" into its
// field and value parts. ok is false when the token carries no colon.
func FieldPrefixOf(word string) (field, value string, ok bool) {
	idx := strings.IndexByte(word, ':')
	if idx < 0 {
		return "", "", false
	}

	return word[:idx], word[idx+1:], true
}

// normalizeTerm folds s, preserving a trailing prefix-match '*' outside
// the fold.
func normalizeTerm(s string) string {
	star := strings.HasSuffix(s, "*")
	base := strings.TrimSuffix(s, "*")
	folded := normalize.Term(base)

	if star {
		return folded + "*"
	}

	return folded
}

// Rewrite transforms a user query q in the public language into the
// internal form consumed by the storage layer: every recognized field
// prefix becomes its normalized-column form, and every term/phrase/value is
// folded with the diacritic/case normalizer.
func Rewrite(q string) (string, error) {
	toks := Tokenize(q)

	var b strings.Builder

	depth := 0

	for i, t := range toks {
		if i > 0 {
			b.WriteByte(' ')
		}

		switch t.Kind {
		case TokOp:
			b.WriteString(t.Text)
		case TokLParen:
			depth++

			b.WriteString("(")
		case TokRParen:
			depth--
			if depth < 0 {
				return "", fmt.Errorf("%w: unmatched ')' at token %d", core.ErrQueryInvalid, i)
			}

			b.WriteString(")")
		case TokPhrase:
			b.WriteByte('"')
			b.WriteString(normalize.Term(t.Text))
			b.WriteByte('"')
		case TokWord:
			if field, value, ok := FieldPrefixOf(t.Text); ok && Fields[strings.ToLower(field)] {
				b.WriteString(strings.ToLower(field))
				b.WriteString("_normalized:")
				b.WriteString(normalizeTerm(value))
			} else if ok {
				// Unrecognized field prefix: normalize the value only, leave
				// the field name untouched.
				b.WriteString(field)
				b.WriteByte(':')
				b.WriteString(normalizeTerm(value))
			} else {
				b.WriteString(normalizeTerm(t.Text))
			}
		}
	}

	if depth != 0 {
		return "", fmt.Errorf("%w: unbalanced parentheses", core.ErrQueryInvalid)
	}

	return b.String(), nil
}

// Term is a single term extracted from a user query for snippet scanning.
type Term struct {
	// Text is the normalized term, without any trailing '*'.
	Text string
	// Prefix is true when the token ended with '*' (prefix-match mode).
	Prefix bool
}

// ExtractTerms derives the term list the snippet extractor scans for from
// the ORIGINAL (not rewritten) user query: operator keywords, parentheses,
// and field prefixes are stripped; the remainder is split on whitespace;
// tokens of length ≤ 1 (after removing a trailing '*') are discarded unless
// no longer token remains, in which case only the short ones are returned;
// the returned terms are normalized.
func ExtractTerms(q string) []Term {
	toks := Tokenize(q)

	var words []string

	for _, t := range toks {
		switch t.Kind {
		case TokOp, TokLParen, TokRParen:
			continue
		case TokPhrase:
			words = append(words, strings.Fields(t.Text)...)
		case TokWord:
			word := t.Text
			if _, value, ok := FieldPrefixOf(word); ok {
				word = value
			}

			words = append(words, strings.Fields(word)...)
		}
	}

	var terms, short []Term

	for _, w := range words {
		prefix := strings.HasSuffix(w, "*")

		base := strings.TrimSuffix(w, "*")
		if base == "" {
			continue
		}

		term := Term{Text: normalize.Term(base), Prefix: prefix}

		if len(base) <= 1 {
			short = append(short, term)
		} else {
			terms = append(terms, term)
		}
	}

	// Single-character tokens are noise next to longer terms, but when the
	// whole query is that short (e.g. a heading named "C") they are all
	// there is to scan for.
	if len(terms) == 0 {
		return short
	}

	return terms
}
