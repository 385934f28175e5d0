package textmetric_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careatlas/clauseguard/internal/classify/textmetric"
)

func TestLevenshteinSimilarity_Identical(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1.0, textmetric.LevenshteinSimilarity("timely filing", "timely filing"))
}

func TestLevenshteinSimilarity_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1.0, textmetric.LevenshteinSimilarity("", ""))
	assert.Equal(t, 0.0, textmetric.LevenshteinSimilarity("claims", ""))
	assert.Equal(t, 0.0, textmetric.LevenshteinSimilarity("", "claims"))
}

func TestLevenshteinSimilarity_KnownDistance(t *testing.T) {
	t.Parallel()
	// kitten -> sitting requires 3 edits over max length 7.
	assert.InDelta(t, 1.0-3.0/7.0, textmetric.LevenshteinSimilarity("kitten", "sitting"), 1e-9)
}

func TestLevenshteinSimilarity_Symmetric(t *testing.T) {
	t.Parallel()
	a := "ninety days from the date of service"
	b := "sixty days from the date of service"
	assert.Equal(t,
		textmetric.LevenshteinSimilarity(a, b),
		textmetric.LevenshteinSimilarity(b, a),
	)
}

func TestJaroSimilarity_KnownValues(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.944444, textmetric.JaroSimilarity("martha", "marhta"), 1e-5)
	assert.InDelta(t, 0.822222, textmetric.JaroSimilarity("dwayne", "duane"), 1e-5)
	assert.Equal(t, 0.0, textmetric.JaroSimilarity("abc", "xyz"))
}

func TestJaroWinklerSimilarity_PrefixBonus(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.961111, textmetric.JaroWinklerSimilarity("martha", "marhta"), 1e-5)
	assert.InDelta(t, 0.84, textmetric.JaroWinklerSimilarity("dwayne", "duane"), 1e-5)

	// Shared prefix must never lower the base Jaro score.
	jaro := textmetric.JaroSimilarity("medicare", "medicaid")
	jw := textmetric.JaroWinklerSimilarity("medicare", "medicaid")
	assert.GreaterOrEqual(t, jw, jaro)
	assert.LessOrEqual(t, jw, 1.0)
}

func TestJaroWinklerSimilarity_Bounds(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"x", "medicare", "timely filing of claims"} {
		assert.Equal(t, 1.0, textmetric.JaroWinklerSimilarity(s, s))
	}
	assert.Equal(t, 0.0, textmetric.JaroWinklerSimilarity("", "x"))
	assert.Equal(t, 0.0, textmetric.JaroWinklerSimilarity("x", ""))
}

func TestSequenceRatio_KnownValues(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1.0, textmetric.SequenceRatio("abcd", "abcd"))
	assert.Equal(t, 0.0, textmetric.SequenceRatio("abc", ""))
	// LCS of abcd / bcde is bcd: 2*3/(4+4).
	assert.InDelta(t, 0.75, textmetric.SequenceRatio("abcd", "bcde"), 1e-9)
}

func TestTokenSortRatio_ReorderInvariant(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1.0, textmetric.TokenSortRatio("sixty days", "days sixty"))
	assert.Equal(t, 1.0, textmetric.TokenSortRatio(
		"claims must be submitted within ninety days",
		"within ninety days claims must be submitted",
	))
}

func TestTokenSortRatio_DifferentTokens(t *testing.T) {
	t.Parallel()
	score := textmetric.TokenSortRatio("sixty days", "ninety days")
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 1.0)
}

func TestNGramSimilarity_Identical(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1.0, textmetric.NGramSimilarity(
		"payment shall be made", "payment shall be made", 3))
}

func TestNGramSimilarity_ShortInputFallsBack(t *testing.T) {
	t.Parallel()
	// Inputs shorter than n fall back to the sequence ratio.
	assert.Equal(t,
		textmetric.SequenceRatio("ab", "ab"),
		textmetric.NGramSimilarity("ab", "ab", 3),
	)
	assert.Equal(t,
		textmetric.SequenceRatio("ab", "cd"),
		textmetric.NGramSimilarity("ab", "cd", 3),
	)
}

func TestNGramSimilarity_Disjoint(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, textmetric.NGramSimilarity("aaaaaa", "zzzzzz", 3))
}

func TestMatchingBlocks_IdenticalStrings(t *testing.T) {
	t.Parallel()
	blocks := textmetric.MatchingBlocks("reimbursement", "reimbursement", 1)
	require.Len(t, blocks, 1)
	assert.Equal(t, textmetric.MatchingBlock{PosA: 0, PosB: 0, Size: 13}, blocks[0])
}

func TestMatchingBlocks_PositionalOrder(t *testing.T) {
	t.Parallel()
	// Two shared substrings separated by differing middles. Blocks must come
	// back in positional order, not by size.
	a := "alpha XX omega delta"
	b := "alpha YY omega delta"
	blocks := textmetric.MatchingBlocks(a, b, 1)
	require.NotEmpty(t, blocks)
	for i := 1; i < len(blocks); i++ {
		assert.Greater(t, blocks[i].PosA, blocks[i-1].PosA)
		assert.Greater(t, blocks[i].PosB, blocks[i-1].PosB)
	}
}

func TestMatchingBlocks_MinSizeFilter(t *testing.T) {
	t.Parallel()
	blocks := textmetric.MatchingBlocks("abc stuff xyz", "abc other xyz", 3)
	for _, b := range blocks {
		assert.GreaterOrEqual(t, b.Size, 3)
	}
}

func TestMatchingBlocks_NoOverlap(t *testing.T) {
	t.Parallel()
	assert.Empty(t, textmetric.MatchingBlocks("aaa", "zzz", 1))
}
