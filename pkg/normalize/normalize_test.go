package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksysoev/searchmix/pkg/normalize"
)

func TestNormalize_AccentEquivalence(t *testing.T) {
	// P2: accented and unaccented forms normalize identically.
	assert.Equal(t, normalize.Normalize("mediterraneo").Norm, normalize.Normalize("MEDITERRÁNEO").Norm)
	assert.Equal(t, normalize.Normalize("cafe").Norm, normalize.Normalize("café").Norm)
	assert.Equal(t, normalize.Normalize("nino").Norm, normalize.Normalize("niño").Norm)
}

func TestNormalize_Idempotent(t *testing.T) {
	// P1: Normalize is a total, idempotent fold.
	inputs := []string{"", "Hello World", "MEDITERRÁNEO", "naïve café", "日本語"}

	for _, in := range inputs {
		once := normalize.Normalize(in).Norm
		twice := normalize.Normalize(once).Norm
		assert.Equal(t, once, twice, "Normalize(%q) not idempotent", in)
	}
}

func TestNormalize_PreservesRuneCount(t *testing.T) {
	for _, in := range []string{"café", "MEDITERRÁNEO", "naïve", "plain ascii"} {
		res := normalize.Normalize(in)
		assert.Equal(t, len([]rune(in)), res.Len())
	}
}

func TestNormalize_RawOffsetRoundTrip(t *testing.T) {
	raw := "El Café Mediterráneo"
	res := normalize.Normalize(raw)

	require.Equal(t, "el cafe mediterraneo", res.Norm)

	// "mediterraneo" starts right after "el cafe " in the normalized string.
	idx := len("el cafe ")
	rawIdx := res.RawOffset(idx)

	assert.Equal(t, "Mediterráneo", raw[rawIdx:])
}

func TestNormalize_Empty(t *testing.T) {
	res := normalize.Normalize("")

	assert.Equal(t, "", res.Norm)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 0, res.RawOffset(0))
}

func TestTerm(t *testing.T) {
	assert.Equal(t, "mediterraneo", normalize.Term("MEDITERRÁNEO"))
	assert.Equal(t, normalize.Term("café"), normalize.Term("CAFÉ"))
}
