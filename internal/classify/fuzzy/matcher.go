// Package fuzzy implements the fuzzy-matching cascade stage. Five string
// similarity algorithms run over preprocessed, synonym-normalized text and
// their weighted blend is topped up by a structural-similarity bonus.
package fuzzy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/careatlas/clauseguard/internal/classify/normalize"
	"github.com/careatlas/clauseguard/internal/classify/textmetric"
	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
)

// Blend weights for the five similarity algorithms.
var algorithmWeights = map[string]float64{
	"levenshtein":  0.25,
	"jaro_winkler": 0.25,
	"token_sort":   0.20,
	"sequence":     0.15,
	"ngram":        0.15,
}

const (
	ngramSize = 3

	// Best-matching segment extraction.
	segmentMinBlockSize = 10
	segmentContext      = 25
	segmentLimit        = 5
)

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	numberToken    = regexp.MustCompile(`\d+(?:\.\d+)?%?`)
	sectionMarker  = regexp.MustCompile(`(?i)(?:section|article|clause)\s*\d+`)
)

// Segment is a closely matching excerpt pair with surrounding context.
type Segment struct {
	ContractSegment string  `json:"contract_segment"`
	TemplateSegment string  `json:"template_segment"`
	MatchSize       int     `json:"match_size"`
	Similarity      float64 `json:"similarity"`
}

// Result carries the blended fuzzy score, per-algorithm scores, the
// structure bonus, and the best matching segments.
type Result struct {
	Score       float64
	Explanation string
	Details     map[string]interface{}
}

// Matcher scores approximate similarity between clause pairs.
type Matcher struct {
	logger logging.Logger
}

// NewMatcher returns a Matcher. A nil logger falls back to a no-op logger.
func NewMatcher(logger logging.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Matcher{logger: logger}
}

// Match preprocesses and synonym-normalizes both texts, runs the five
// similarity algorithms, blends them with fixed weights, and adds up to a
// 10% structural bonus, capping the result at 1.0.
func (m *Matcher) Match(contractText, templateText, attributeName string) Result {
	contractProcessed := normalize.PreprocessFuzzy(contractText)
	templateProcessed := normalize.PreprocessFuzzy(templateText)

	contractNorm := normalize.NormalizeSynonyms(contractProcessed)
	templateNorm := normalize.NormalizeSynonyms(templateProcessed)

	scores := map[string]float64{
		"levenshtein":  textmetric.LevenshteinSimilarity(contractNorm, templateNorm),
		"jaro_winkler": textmetric.JaroWinklerSimilarity(contractNorm, templateNorm),
		"token_sort":   textmetric.TokenSortRatio(contractNorm, templateNorm),
		"sequence":     textmetric.SequenceRatio(contractNorm, templateNorm),
		"ngram":        textmetric.NGramSimilarity(contractNorm, templateNorm, ngramSize),
	}

	finalScore := 0.0
	for method, score := range scores {
		finalScore += score * algorithmWeights[method]
	}

	structureBonus := structuralSimilarity(contractText, templateText)
	finalScore = min1(finalScore + structureBonus*0.1)

	m.logger.Debug("fuzzy match scored",
		logging.String("attribute", attributeName),
		logging.Float64("score", finalScore),
		logging.Float64("structure_bonus", structureBonus),
	)

	details := map[string]interface{}{
		"individual_scores": scores,
		"final_score":       finalScore,
		"structure_bonus":   structureBonus,
		"preprocessing": map[string]interface{}{
			"original_lengths": map[string]int{
				"contract": len(contractText),
				"template": len(templateText),
			},
			"processed_lengths": map[string]int{
				"contract": len(contractProcessed),
				"template": len(templateProcessed),
			},
		},
		"best_matching_segments": bestMatchingSegments(contractNorm, templateNorm),
	}

	return Result{
		Score:       finalScore,
		Explanation: buildExplanation(scores, structureBonus, finalScore),
		Details:     details,
	}
}

// structuralSimilarity awards partial credit for matching paragraph counts,
// close sentence counts, equal numeric token counts, and equal section
// marker counts, capped at 1.0.
func structuralSimilarity(contractText, templateText string) float64 {
	score := 0.0

	contractParagraphs := len(paragraphSplit.Split(contractText, -1))
	templateParagraphs := len(paragraphSplit.Split(templateText, -1))
	switch {
	case contractParagraphs == templateParagraphs:
		score += 0.3
	case absInt(contractParagraphs-templateParagraphs) <= 2:
		score += 0.1
	}

	contractSentences := len(sentenceSplit.Split(contractText, -1))
	templateSentences := len(sentenceSplit.Split(templateText, -1))
	if absInt(contractSentences-templateSentences) <= 2 {
		score += 0.2
	}

	contractNumbers := numberToken.FindAllString(contractText, -1)
	templateNumbers := numberToken.FindAllString(templateText, -1)
	if len(contractNumbers) == len(templateNumbers) {
		score += 0.2
	}

	contractSections := sectionMarker.FindAllString(contractText, -1)
	templateSections := sectionMarker.FindAllString(templateText, -1)
	if len(contractSections) == len(templateSections) {
		score += 0.3
	}

	return min1(score)
}

// bestMatchingSegments reports the most similar shared excerpts: the first
// few matching blocks longer than the minimum size, each expanded with
// context on both sides and rescored, sorted by similarity.
func bestMatchingSegments(text1, text2 string) []Segment {
	blocks := textmetric.MatchingBlocks(text1, text2, 1)
	if len(blocks) > segmentLimit {
		blocks = blocks[:segmentLimit]
	}

	r1 := []rune(text1)
	r2 := []rune(text2)

	var segments []Segment
	for _, block := range blocks {
		if block.Size <= segmentMinBlockSize {
			continue
		}
		seg1 := sliceAround(r1, block.PosA, block.Size)
		seg2 := sliceAround(r2, block.PosB, block.Size)
		segments = append(segments, Segment{
			ContractSegment: seg1,
			TemplateSegment: seg2,
			MatchSize:       block.Size,
			Similarity:      textmetric.SequenceRatio(seg1, seg2),
		})
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Similarity > segments[j].Similarity
	})
	return segments
}

func sliceAround(runes []rune, pos, size int) string {
	start := pos - segmentContext
	if start < 0 {
		start = 0
	}
	end := pos + size + segmentContext
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}

func buildExplanation(scores map[string]float64, structureBonus, finalScore float64) string {
	var parts []string

	switch {
	case finalScore >= 0.9:
		parts = append(parts, "Very high similarity - likely the same content with minor variations")
	case finalScore >= 0.8:
		parts = append(parts, "High similarity - same structure with some wording differences")
	case finalScore >= 0.7:
		parts = append(parts, "Moderate similarity - similar content but notable differences")
	default:
		parts = append(parts, "Low similarity - significant differences in content or structure")
	}

	bestMethod, bestScore := "", -1.0
	for _, method := range sortedMethods(scores) {
		if scores[method] > bestScore {
			bestMethod, bestScore = method, scores[method]
		}
	}
	parts = append(parts, fmt.Sprintf("Best match: %s (%.2f)", bestMethod, bestScore))

	if structureBonus > 0.5 {
		parts = append(parts, "Strong structural similarity")
	} else if structureBonus > 0.2 {
		parts = append(parts, "Some structural similarity")
	}

	if scores["token_sort"] > scores["sequence"] {
		parts = append(parts, "Content is similar but reordered")
	}
	if scores["ngram"] > 0.8 {
		parts = append(parts, "Many common phrases detected")
	}

	return strings.Join(parts, "; ")
}

// sortedMethods keeps "best match" reporting deterministic across runs.
func sortedMethods(scores map[string]float64) []string {
	methods := make([]string, 0, len(scores))
	for method := range scores {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func min1(f float64) float64 {
	if f > 1.0 {
		return 1.0
	}
	return f
}
