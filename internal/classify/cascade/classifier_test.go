package cascade_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careatlas/clauseguard/internal/classify/cascade"
	"github.com/careatlas/clauseguard/internal/classify/semantic"
	"github.com/careatlas/clauseguard/pkg/types/classify"
)

// letterEmbedder keeps semantic scoring deterministic by embedding each text
// as its letter-frequency vector.
type letterEmbedder struct{}

func (letterEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
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

func TestClassify_ExactMatch(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds())
	text := "Claims must be submitted within ninety (90) days of the date of service."
	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Medicare Timely Filing",
		ContractText: text,
		TemplateText: text,
	})

	assert.True(t, result.IsStandard)
	assert.Equal(t, classify.MatchExact, result.MatchType)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, "Exact text match", result.Explanation)
}

func TestClassify_PlaceholderMatch(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds())
	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Medicare Fee Schedule",
		ContractText: "Reimbursement shall be 80% of the Medicare Fee Schedule.",
		TemplateText: "Reimbursement shall be [Percent of Medicare] of the Medicare Fee Schedule.",
	})

	assert.True(t, result.IsStandard)
	assert.Equal(t, classify.MatchExact, result.MatchType)
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, "Exact match with placeholder replacement", result.Explanation)
}

func TestClassify_RegexMatch(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds())
	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Medicare Timely Filing",
		ContractText: "Medicare claims must be submitted within 60 days of the date of service for timely filing.",
		TemplateText: "Medicare claims for timely filing must be submitted within 90 days of service.",
	})

	assert.True(t, result.IsStandard)
	assert.Equal(t, classify.MatchRegex, result.MatchType)
	assert.GreaterOrEqual(t, result.Confidence, 0.9)
	assert.Contains(t, result.MatchedSections, "patterns")
}

func TestClassify_FuzzyMatch(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds())
	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Termination",
		ContractText: "Claims must be submitted within ninety (90) days of the date of service.",
		TemplateText: "Claims must be submitted within sixty (60) days of the date of service.",
	})

	assert.True(t, result.IsStandard)
	assert.Equal(t, classify.MatchFuzzy, result.MatchType)
	assert.GreaterOrEqual(t, result.Confidence, 0.8)
	assert.Contains(t, result.MatchedSections, "fuzzy_details")
}

func TestClassify_FuzzyScoreAtThresholdAccepts(t *testing.T) {
	t.Parallel()
	thresholds := classify.DefaultThresholds()
	thresholds.Fuzzy = 1.0
	o := cascade.NewOrchestrator(thresholds)

	// The texts differ only in punctuation, which the fuzzy preprocessing
	// strips, so the fuzzy score caps at exactly 1.0.
	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Termination",
		ContractText: "Claims must be submitted; within ninety days.",
		TemplateText: "Claims must be submitted, within ninety days.",
	})

	assert.True(t, result.IsStandard)
	assert.Equal(t, classify.MatchFuzzy, result.MatchType)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestClassify_BusinessRuleOverride(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds())
	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Termination",
		ContractText: "Payment follows a proprietary fee schedule under the state-mandated rate corridor.",
		TemplateText: "Payment follows a proprietary fee schedule under the state-mandated rate corridor program.",
	})

	assert.False(t, result.IsStandard)
	assert.Equal(t, classify.MatchFuzzy, result.MatchType)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Contains(t, result.Explanation, "OVERRIDE")
	assert.Equal(t, true, result.MatchedSections["business_rule_override"])
}

func TestClassify_BusinessRulesDisabled(t *testing.T) {
	t.Parallel()
	thresholds := classify.DefaultThresholds()
	thresholds.EnableBusinessRules = false
	o := cascade.NewOrchestrator(thresholds)
	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Termination",
		ContractText: "Payment follows a proprietary fee schedule under the state-mandated rate corridor.",
		TemplateText: "Payment follows a proprietary fee schedule under the state-mandated rate corridor program.",
	})

	assert.True(t, result.IsStandard)
	assert.Equal(t, classify.MatchFuzzy, result.MatchType)
	assert.Greater(t, result.Confidence, 0.8)
	assert.NotContains(t, result.Explanation, "OVERRIDE")
}

func TestClassify_MissingText(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds())

	for _, pair := range []classify.AttributePair{
		{Name: "Termination", ContractText: "", TemplateText: "some template"},
		{Name: "Termination", ContractText: "some clause", TemplateText: ""},
	} {
		result := o.Classify(context.Background(), pair)
		assert.False(t, result.IsStandard)
		assert.Equal(t, classify.MatchNone, result.MatchType)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Equal(t, "Missing text for comparison", result.Explanation)
	}
}

func TestClassify_SemanticMatch(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds(),
		cascade.WithSemanticMatcher(semantic.NewMatcher(letterEmbedder{}, nil, nil)))

	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Termination",
		ContractText: "Either party may terminate this agreement upon written notice.",
		TemplateText: "Laboratory services require prior authorization from the medical director.",
	})

	assert.Equal(t, classify.MatchSemantic, result.MatchType)
	assert.True(t, result.IsStandard)
	assert.GreaterOrEqual(t, result.Confidence, 0.7)
	assert.Contains(t, result.MatchedSections, "semantic_details")
}

func TestClassify_SemanticConfidenceCappedAtOne(t *testing.T) {
	t.Parallel()
	thresholds := classify.DefaultThresholds()
	thresholds.Fuzzy = 1.0
	o := cascade.NewOrchestrator(thresholds,
		cascade.WithSemanticMatcher(semantic.NewMatcher(letterEmbedder{}, nil, nil)))

	// The texts are word permutations of each other, so the letter-frequency
	// embeddings are identical, and they carry every attribute keyword on
	// both sides, driving the uncapped semantic blend to 1.04.
	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Medicare Timely Filing",
		ContractText: "The medicare timely filing rule requires claim submission within days of the deadline.",
		TemplateText: "Within days of the deadline, the medicare timely filing rule requires claim submission.",
	})

	assert.Equal(t, classify.MatchSemantic, result.MatchType)
	assert.True(t, result.IsStandard)
	assert.LessOrEqual(t, result.Confidence, 1.0)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestClassify_NoSemanticMatcherFallsThrough(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds())
	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Termination",
		ContractText: "Either party may terminate this agreement upon written notice.",
		TemplateText: "Laboratory services require prior authorization from the medical director.",
	})

	assert.False(t, result.IsStandard)
	assert.Equal(t, classify.MatchNone, result.MatchType)
	assert.Equal(t, "No matching method succeeded", result.Explanation)
}

func TestClassify_SemanticFailureFallsThrough(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds(),
		cascade.WithSemanticMatcher(semantic.NewMatcher(failingEmbedder{}, nil, nil)))

	result := o.Classify(context.Background(), classify.AttributePair{
		Name:         "Termination",
		ContractText: "Either party may terminate this agreement upon written notice.",
		TemplateText: "Laboratory services require prior authorization from the medical director.",
	})

	assert.False(t, result.IsStandard)
	assert.Equal(t, classify.MatchNone, result.MatchType)
	assert.Equal(t, "No matching method succeeded", result.Explanation)
}

func TestClassifyAll_PreservesOrder(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds(), cascade.WithConcurrency(2))

	text := "Claims must be submitted within ninety (90) days of the date of service."
	pairs := []classify.AttributePair{
		{Name: "Medicare Timely Filing", ContractText: text, TemplateText: text},
		{Name: "Medicaid Timely Filing", ContractText: "", TemplateText: text},
		{Name: "No Steerage/SOC", ContractText: text, TemplateText: text},
	}

	results := o.ClassifyAll(context.Background(), pairs)
	require.Len(t, results, len(pairs))
	for i, pair := range pairs {
		assert.Equal(t, pair.Name, results[i].AttributeName)
	}
	assert.Equal(t, classify.MatchExact, results[0].MatchType)
	assert.Equal(t, classify.MatchNone, results[1].MatchType)
	assert.Equal(t, classify.MatchExact, results[2].MatchType)
}

func TestClassifyAll_CancelledContext(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := o.ClassifyAll(ctx, []classify.AttributePair{
		{Name: "Termination", ContractText: "a", TemplateText: "b"},
		{Name: "Renewal", ContractText: "c", TemplateText: "d"},
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, classify.MatchNone, r.MatchType)
		assert.Contains(t, r.Explanation, "Classification aborted")
	}
}

func TestClassifyAll_Empty(t *testing.T) {
	t.Parallel()
	o := cascade.NewOrchestrator(classify.DefaultThresholds())
	assert.Empty(t, o.ClassifyAll(context.Background(), nil))
}
