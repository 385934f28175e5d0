package semantic_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careatlas/clauseguard/internal/classify/semantic"
)

// letterEmbedder maps each text to its letter-frequency vector, so identical
// texts embed identically and the tests stay deterministic.
type letterEmbedder struct {
	calls int
}

func (e *letterEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.calls++
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, 26)
		for _, r := range strings.ToLower(text) {
			if r >= 'a' && r <= 'z' {
				vec[r-'a']++
			}
		}
		out[i] = vec
	}
	return out, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float64, error) {
	return nil, errors.New("backend down")
}

type shortEmbedder struct{}

func (shortEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	return make([][]float64, 0), nil
}

func TestThreshold(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.65, semantic.Threshold("Medicare Fee Schedule"))
	assert.Equal(t, 0.75, semantic.Threshold("Medicaid Timely Filing"))
	assert.Equal(t, 0.7, semantic.Threshold("Termination"))
}

func TestMatch_IdenticalTextsUnknownAttribute(t *testing.T) {
	t.Parallel()
	m := semantic.NewMatcher(&letterEmbedder{}, nil, nil)
	text := "The provider network includes all contracted facilities in the region."
	res, err := m.Match(context.Background(), text, text, "Termination")
	require.NoError(t, err)

	// Chunk and document components are both 1.0, keyword component falls
	// back to 0.5 for an attribute with no keyword table.
	assert.InDelta(t, 0.9, res.Score, 1e-9)
	assert.Equal(t, 0.7, res.Threshold)
	assert.Contains(t, res.Explanation, "Semantic match found")
	assert.Contains(t, res.Details, "best_matching_chunks")

	stats, ok := res.Details["chunk_similarities"].(semantic.ChunkStats)
	require.True(t, ok)
	assert.InDelta(t, 1.0, stats.MaxSimilarity, 1e-9)
}

func TestMatch_ScoreCappedAtOne(t *testing.T) {
	t.Parallel()
	m := semantic.NewMatcher(&letterEmbedder{}, nil, nil)

	// Identical texts carrying every attribute keyword: the chunk and
	// document components are 1.0 and the keyword component's agreement
	// bonus lifts it to 1.2, so the uncapped blend would be 1.04.
	text := "Medicare timely filing requires claim submission within days of the deadline."
	res, err := m.Match(context.Background(), text, text, "Medicare Timely Filing")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.Score, 1e-9)
	assert.LessOrEqual(t, res.Score, 1.0)
	assert.Equal(t, 0.75, res.Threshold)
}

func TestMatch_NilEmbedder(t *testing.T) {
	t.Parallel()
	m := semantic.NewMatcher(nil, nil, nil)
	_, err := m.Match(context.Background(), "a", "b", "Termination")
	assert.Error(t, err)
}

func TestMatch_EmbedderFailure(t *testing.T) {
	t.Parallel()
	m := semantic.NewMatcher(failingEmbedder{}, nil, nil)
	_, err := m.Match(context.Background(), "some clause", "some template", "Termination")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding request failed")
}

func TestMatch_VectorCountMismatch(t *testing.T) {
	t.Parallel()
	m := semantic.NewMatcher(shortEmbedder{}, nil, nil)
	_, err := m.Match(context.Background(), "some clause", "some template", "Termination")
	assert.Error(t, err)
}

func TestMatch_CacheAvoidsRepeatEmbedding(t *testing.T) {
	t.Parallel()
	embedder := &letterEmbedder{}
	m := semantic.NewMatcher(embedder, nil, nil)

	contract := "Claims must be submitted within ninety days."
	template := "Claims shall be filed inside ninety days."

	_, err := m.Match(context.Background(), contract, template, "Medicare Timely Filing")
	require.NoError(t, err)
	callsAfterFirst := embedder.calls
	assert.Equal(t, 2, callsAfterFirst)

	_, err = m.Match(context.Background(), contract, template, "Medicare Timely Filing")
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, embedder.calls)
}

func TestChunkText_Short(t *testing.T) {
	t.Parallel()
	chunks := semantic.ChunkText("A short clause.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short clause.", chunks[0])
}

func TestChunkText_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, semantic.ChunkText(""))
}

func TestChunkText_LongTextOverlaps(t *testing.T) {
	t.Parallel()
	sentence := "The plan shall reimburse the provider for covered services rendered. "
	long := strings.Repeat(sentence, 30)

	chunks := semantic.ChunkText(long)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
		assert.LessOrEqual(t, len(c), 512)
	}
	// Overlapping windows repeat text across adjacent chunks.
	assert.Contains(t, chunks[1], chunks[0][len(chunks[0])-40:])
}

func TestChunkText_MultiByteRunesStayIntact(t *testing.T) {
	t.Parallel()
	// No sentence terminators, so every boundary falls at the window edge;
	// accented characters must never be split mid-sequence.
	sentence := "cláusula médica según el reglamento número cuarenta "
	long := strings.Repeat(sentence, 40)

	chunks := semantic.ChunkText(long)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 512)
	}

	// Reported chunk excerpts are truncated on rune boundaries too.
	m := semantic.NewMatcher(&letterEmbedder{}, nil, nil)
	res, err := m.Match(context.Background(), long, long, "Termination")
	require.NoError(t, err)
	pairs, ok := res.Details["best_matching_chunks"].([]semantic.ChunkPair)
	require.True(t, ok)
	require.NotEmpty(t, pairs)
	assert.True(t, utf8.ValidString(pairs[0].ContractChunk))
	assert.True(t, strings.HasSuffix(pairs[0].ContractChunk, "..."))
}
