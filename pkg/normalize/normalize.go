// Package normalize implements diacritic- and case-folding for indexable
// strings and query terms: canonical (NFD) decomposition, removal of
// combining marks, and simple lowercasing, while preserving a way to
// recover the original raw byte offset of any match found in the folded
// text.
//
// Folding a composed character like "á" into its base letter "a" changes its
// UTF-8 byte width (2 bytes vs 1), so the folded string cannot be byte-for-
// byte identical to the raw string even though it is rune-for-rune aligned:
// every output rune corresponds to exactly one input rune, in the same
// order. Result records that alignment explicitly so callers can translate
// a byte offset found by scanning Norm back into the corresponding byte
// offset in the original raw string.
package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Result is the output of Normalize: the folded string plus the rune-aligned
// offset tables needed to translate a match position back to raw space.
type Result struct {
	Norm string

	// rawOffsets[k] is the byte offset in the raw string where rune k
	// begins; normOffsets[k] is the byte offset in Norm where the same
	// rune (folded) begins. Both slices have one entry per input rune, plus
	// a final sentinel entry equal to the respective string's length.
	rawOffsets  []int
	normOffsets []int
}

// Normalize folds s and returns the folded string together with the
// raw↔norm offset map.
//
// Normalize is pure, total, and idempotent: calling Normalize on the output
// of a previous Normalize call returns that same string unchanged, since the
// result already contains no combining marks and is already lowercase.
func Normalize(s string) Result {
	var b strings.Builder
	b.Grow(len(s))

	rawOffsets := make([]int, 0, len(s)+1)
	normOffsets := make([]int, 0, len(s)+1)

	for i, r := range s {
		rawOffsets = append(rawOffsets, i)
		normOffsets = append(normOffsets, b.Len())

		b.WriteRune(foldRune(r))
	}

	rawOffsets = append(rawOffsets, len(s))
	normOffsets = append(normOffsets, b.Len())

	return Result{Norm: b.String(), rawOffsets: rawOffsets, normOffsets: normOffsets}
}

// Term folds a single bare query token the same way Normalize folds a
// stored field, without producing an offset map — query terms are never
// sliced back into a raw source string.
func Term(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		b.WriteRune(foldRune(r))
	}

	return b.String()
}

// foldRune decomposes r under NFD and keeps only the first resulting rune
// (the base letter; any trailing combining marks are dropped), then
// lowercases it. Keeping exactly one output rune per input rune is what
// keeps Normalize's result rune-for-rune aligned with its input.
func foldRune(r rune) rune {
	decomposed := norm.NFD.String(string(r))

	base, _ := utf8.DecodeRuneInString(decomposed)
	if base == utf8.RuneError {
		base = r
	}

	return unicode.ToLower(base)
}

// RawOffset translates a byte offset into Norm back into the corresponding
// byte offset in the original raw string. The offset must fall on a rune
// boundary of Norm (true for any regexp match start/end on valid UTF-8).
func (res Result) RawOffset(normByteOffset int) int {
	k := sort.SearchInts(res.normOffsets, normByteOffset)

	if k >= len(res.normOffsets) || res.normOffsets[k] != normByteOffset {
		// Not an exact rune boundary hit (shouldn't happen for well-formed
		// callers); fall back to the nearest preceding boundary.
		k--
		if k < 0 {
			return 0
		}
	}

	return res.rawOffsets[k]
}

// Len returns the number of runes tracked by the offset map (equal for raw
// and normalized forms).
func (res Result) Len() int {
	if len(res.rawOffsets) == 0 {
		return 0
	}

	return len(res.rawOffsets) - 1
}
