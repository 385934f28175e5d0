// Package semantic implements the final cascade stage: embedding-based
// meaning comparison for clause pairs whose surface text diverges. Texts are
// chunked with overlap, embedded through a pluggable Embedder, and scored by
// blending chunk-level similarity, mean-pooled document similarity, and
// attribute keyword presence.
package semantic

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	apperrors "github.com/careatlas/clauseguard/pkg/errors"

	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
)

const (
	chunkSize    = 512
	chunkOverlap = 128

	chunkWeight    = 0.4
	documentWeight = 0.4
	keywordWeight  = 0.2

	defaultThreshold = 0.7

	topChunkPairs = 3
)

// Per-attribute acceptance thresholds. Fee schedule clauses sit lower
// because tabular content embeds poorly.
var attributeThresholds = map[string]float64{
	"Medicaid Timely Filing": 0.75,
	"Medicare Timely Filing": 0.75,
	"No Steerage/SOC":        0.70,
	"Medicaid Fee Schedule":  0.65,
	"Medicare Fee Schedule":  0.65,
}

var attributeKeywords = map[string][]string{
	"Medicaid Timely Filing": {"medicaid", "timely filing", "claim submission", "days", "deadline"},
	"Medicare Timely Filing": {"medicare", "timely filing", "claim submission", "days", "deadline"},
	"No Steerage/SOC":        {"network", "provider panel", "steerage", "standard of care", "referral"},
	"Medicaid Fee Schedule":  {"medicaid", "fee schedule", "reimbursement", "rate", "payment"},
	"Medicare Fee Schedule":  {"medicare", "fee schedule", "reimbursement", "rate", "payment"},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ChunkStats summarizes the pairwise chunk similarity matrix. Max, mean, and
// min are taken over each contract chunk's best template match.
type ChunkStats struct {
	MaxSimilarity  float64 `json:"max_similarity"`
	MeanSimilarity float64 `json:"mean_similarity"`
	MinSimilarity  float64 `json:"min_similarity"`
}

// ChunkPair is one contract/template chunk pairing with its similarity.
// Chunk text is truncated for reporting.
type ChunkPair struct {
	ContractChunk string  `json:"contract_chunk"`
	TemplateChunk string  `json:"template_chunk"`
	Similarity    float64 `json:"similarity"`
	ContractIdx   int     `json:"contract_idx"`
	TemplateIdx   int     `json:"template_idx"`
}

// Result carries the blended semantic score, the attribute threshold it will
// be judged against, and the component details.
type Result struct {
	Score       float64
	Threshold   float64
	Explanation string
	Details     map[string]interface{}
}

// Matcher scores meaning-level similarity between clause pairs.
type Matcher struct {
	embedder Embedder
	cache    *Cache
	logger   logging.Logger
}

// NewMatcher returns a Matcher using the given embedder. A nil cache gets an
// in-memory one; a nil logger falls back to a no-op logger.
func NewMatcher(embedder Embedder, cache *Cache, logger logging.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cache == nil {
		cache = NewCache(nil, logger)
	}
	return &Matcher{embedder: embedder, cache: cache, logger: logger}
}

// Threshold returns the acceptance threshold for an attribute.
func Threshold(attributeName string) float64 {
	if t, ok := attributeThresholds[attributeName]; ok {
		return t
	}
	return defaultThreshold
}

// Match chunks and embeds both texts and blends three components: the best
// chunk-level similarity (0.4), the mean-pooled document similarity (0.4),
// and attribute keyword presence (0.2). Embedding failures are returned as
// errors so the caller can record a failed stage.
func (m *Matcher) Match(ctx context.Context, contractText, templateText, attributeName string) (Result, error) {
	if m.embedder == nil {
		return Result{}, apperrors.New(apperrors.ErrCodeServiceUnavailable, "no embedder configured")
	}

	contractChunks := ChunkText(contractText)
	templateChunks := ChunkText(templateText)

	contractVecs, err := m.embed(ctx, contractChunks, "contract_"+attributeName)
	if err != nil {
		return Result{}, err
	}
	templateVecs, err := m.embed(ctx, templateChunks, "template_"+attributeName)
	if err != nil {
		return Result{}, err
	}

	stats := chunkSimilarities(contractVecs, templateVecs)
	docSimilarity := documentSimilarity(contractVecs, templateVecs)
	keywordScore := keywordPresence(contractText, templateText, attributeName)

	score := chunkWeight*stats.MaxSimilarity +
		documentWeight*docSimilarity +
		keywordWeight*keywordScore
	// The keyword component's agreement bonus can push it past 1, so the
	// blend must be capped to keep confidences in [0, 1].
	score = math.Min(score, 1.0)

	threshold := Threshold(attributeName)

	m.logger.Debug("semantic match scored",
		logging.String("attribute", attributeName),
		logging.Float64("score", score),
		logging.Float64("threshold", threshold),
		logging.Int("contract_chunks", len(contractChunks)),
		logging.Int("template_chunks", len(templateChunks)),
	)

	return Result{
		Score:       score,
		Threshold:   threshold,
		Explanation: buildExplanation(stats, docSimilarity, keywordScore, score, threshold),
		Details: map[string]interface{}{
			"chunk_similarities":   stats,
			"document_similarity":  docSimilarity,
			"keyword_score":        keywordScore,
			"final_score":          score,
			"threshold":            threshold,
			"best_matching_chunks": bestMatchingChunks(contractChunks, templateChunks, contractVecs, templateVecs),
		},
	}, nil
}

func (m *Matcher) embed(ctx context.Context, chunks []string, keyPrefix string) ([][]float64, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	key := Key(keyPrefix, chunks)
	if vectors, ok := m.cache.Get(ctx, key); ok {
		return vectors, nil
	}

	vectors, err := m.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEmbeddingBackend, "embedding request failed")
	}
	if len(vectors) != len(chunks) {
		return nil, apperrors.Newf(apperrors.ErrCodeEmbeddingBackend,
			"embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	m.cache.Set(ctx, key, vectors)
	return vectors, nil
}

// ChunkText splits text into overlapping windows, preferring to break at a
// sentence boundary past the window midpoint.
func ChunkText(text string) []string {
	if text == "" {
		return nil
	}
	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")

	// Chunk boundaries are rune offsets so multi-byte characters are never
	// split mid-sequence.
	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end < len(runes) {
			if idx := lastIndexRune(runes[start:end], '.'); idx >= 0 {
				sentenceEnd := start + idx
				if sentenceEnd > start+chunkSize/2 {
					end = sentenceEnd + 1
				}
			}
		} else {
			end = len(runes)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		start = end - chunkOverlap
		if start < 0 {
			start = 0
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func lastIndexRune(runes []rune, target rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == target {
			return i
		}
	}
	return -1
}

func chunkSimilarities(vecs1, vecs2 [][]float64) ChunkStats {
	if len(vecs1) == 0 || len(vecs2) == 0 {
		return ChunkStats{}
	}

	rowMax := make([]float64, len(vecs1))
	for i, v1 := range vecs1 {
		best := math.Inf(-1)
		for _, v2 := range vecs2 {
			if sim := cosineSimilarity(v1, v2); sim > best {
				best = sim
			}
		}
		rowMax[i] = best
	}

	return ChunkStats{
		MaxSimilarity:  floats.Max(rowMax),
		MeanSimilarity: floats.Sum(rowMax) / float64(len(rowMax)),
		MinSimilarity:  floats.Min(rowMax),
	}
}

func documentSimilarity(vecs1, vecs2 [][]float64) float64 {
	if len(vecs1) == 0 || len(vecs2) == 0 {
		return 0.0
	}
	return cosineSimilarity(meanPool(vecs1), meanPool(vecs2))
}

func meanPool(vecs [][]float64) []float64 {
	pooled := make([]float64, len(vecs[0]))
	for _, v := range vecs {
		floats.Add(pooled, v)
	}
	floats.Scale(1/float64(len(vecs)), pooled)
	return pooled
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0.0
	}
	normA := math.Sqrt(floats.Dot(a, a))
	normB := math.Sqrt(floats.Dot(b, b))
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return floats.Dot(a, b) / (normA * normB)
}

// keywordPresence scores how much of the attribute's keyword vocabulary
// appears in each text, plus a bonus when both sides carry a similar share.
func keywordPresence(contractText, templateText, attributeName string) float64 {
	keywords, ok := attributeKeywords[attributeName]
	if !ok || len(keywords) == 0 {
		return 0.5
	}

	contractLower := strings.ToLower(contractText)
	templateLower := strings.ToLower(templateText)

	contractCount, templateCount := 0, 0
	for _, kw := range keywords {
		if strings.Contains(contractLower, kw) {
			contractCount++
		}
		if strings.Contains(templateLower, kw) {
			templateCount++
		}
	}

	contractRatio := float64(contractCount) / float64(len(keywords))
	templateRatio := float64(templateCount) / float64(len(keywords))

	bonus := 0.0
	if contractRatio > 0 && templateRatio > 0 {
		bonus = math.Min(contractRatio, templateRatio) / math.Max(contractRatio, templateRatio)
	}

	return (contractRatio+templateRatio)/2 + bonus*0.2
}

func bestMatchingChunks(chunks1, chunks2 []string, vecs1, vecs2 [][]float64) []ChunkPair {
	if len(vecs1) == 0 || len(vecs2) == 0 {
		return nil
	}

	var pairs []ChunkPair
	for i := range chunks1 {
		for j := range chunks2 {
			pairs = append(pairs, ChunkPair{
				ContractChunk: truncateChunk(chunks1[i]),
				TemplateChunk: truncateChunk(chunks2[j]),
				Similarity:    cosineSimilarity(vecs1[i], vecs2[j]),
				ContractIdx:   i,
				TemplateIdx:   j,
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Similarity > pairs[j].Similarity
	})
	if len(pairs) > topChunkPairs {
		pairs = pairs[:topChunkPairs]
	}
	return pairs
}

func truncateChunk(chunk string) string {
	runes := []rune(chunk)
	if len(runes) > 200 {
		return string(runes[:200]) + "..."
	}
	return chunk
}

func buildExplanation(stats ChunkStats, docSimilarity, keywordScore, score, threshold float64) string {
	var parts []string

	if score >= threshold {
		parts = append(parts, fmt.Sprintf("Semantic match found (score: %.2f >= threshold: %.2f)", score, threshold))
	} else {
		parts = append(parts, fmt.Sprintf("Insufficient semantic similarity (score: %.2f < threshold: %.2f)", score, threshold))
	}

	switch {
	case stats.MaxSimilarity >= 0.9:
		parts = append(parts, "Very high similarity in some sections")
	case stats.MaxSimilarity >= 0.7:
		parts = append(parts, "Good similarity in some sections")
	case stats.MaxSimilarity >= 0.5:
		parts = append(parts, "Moderate similarity in some sections")
	default:
		parts = append(parts, "Low chunk-level similarity")
	}

	switch {
	case docSimilarity >= 0.8:
		parts = append(parts, fmt.Sprintf("Strong overall semantic alignment (%.2f)", docSimilarity))
	case docSimilarity >= 0.6:
		parts = append(parts, fmt.Sprintf("Moderate overall semantic alignment (%.2f)", docSimilarity))
	default:
		parts = append(parts, fmt.Sprintf("Weak overall semantic alignment (%.2f)", docSimilarity))
	}

	switch {
	case keywordScore >= 0.8:
		parts = append(parts, "Key terminology strongly present")
	case keywordScore >= 0.5:
		parts = append(parts, "Some key terminology present")
	default:
		parts = append(parts, "Limited key terminology")
	}

	return strings.Join(parts, "; ")
}
