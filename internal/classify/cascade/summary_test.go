package cascade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careatlas/clauseguard/internal/classify/cascade"
	"github.com/careatlas/clauseguard/pkg/types/classify"
)

func TestSummarize(t *testing.T) {
	t.Parallel()
	results := []classify.ClassificationResult{
		{AttributeName: "Medicare Timely Filing", IsStandard: true, MatchType: classify.MatchExact, Confidence: 1.0},
		{AttributeName: "Medicaid Timely Filing", IsStandard: true, MatchType: classify.MatchRegex, Confidence: 0.92},
		{AttributeName: "Medicare Fee Schedule", IsStandard: true, MatchType: classify.MatchFuzzy, Confidence: 0.88},
		{AttributeName: "Medicaid Fee Schedule", IsStandard: false, MatchType: classify.MatchFuzzy, Confidence: 0.0},
		{AttributeName: "No Steerage/SOC", IsStandard: false, MatchType: classify.MatchNone, Confidence: 0.0},
	}

	summary := cascade.Summarize(results)

	assert.Equal(t, 5, summary.TotalAttributes)
	assert.Equal(t, 3, summary.StandardCount)
	assert.Equal(t, 2, summary.NonStandardCount)
	assert.Equal(t, 60.0, summary.ComplianceRate)
	assert.InDelta(t, (1.0+0.92+0.88)/5, summary.AverageConfidence, 1e-9)

	assert.Equal(t, map[string]int{
		"EXACT":    1,
		"REGEX":    1,
		"FUZZY":    2,
		"NO_MATCH": 1,
	}, summary.MatchTypeDistribution)

	require.Contains(t, summary.AttributesByMatchType, "FUZZY")
	assert.Equal(t,
		[]string{"Medicare Fee Schedule", "Medicaid Fee Schedule"},
		summary.AttributesByMatchType["FUZZY"],
	)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()
	summary := cascade.Summarize(nil)

	assert.Equal(t, 0, summary.TotalAttributes)
	assert.Equal(t, 0.0, summary.ComplianceRate)
	assert.Equal(t, 0.0, summary.AverageConfidence)
	assert.NotNil(t, summary.MatchTypeDistribution)
	assert.NotNil(t, summary.AttributesByMatchType)
	assert.Empty(t, summary.MatchTypeDistribution)
}
