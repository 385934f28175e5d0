package cascade

import (
	"github.com/careatlas/clauseguard/pkg/types/classify"
)

// Summarize aggregates batch results: counts by outcome, the compliance
// rate as a percentage, the match-type distribution, and which attributes
// landed in each match type.
func Summarize(results []classify.ClassificationResult) classify.Summary {
	summary := classify.Summary{
		TotalAttributes:       len(results),
		MatchTypeDistribution: make(map[string]int),
		AttributesByMatchType: make(map[string][]string),
	}
	if len(results) == 0 {
		return summary
	}

	confidenceSum := 0.0
	for _, r := range results {
		if r.IsStandard {
			summary.StandardCount++
		}
		mt := r.MatchType.String()
		summary.MatchTypeDistribution[mt]++
		summary.AttributesByMatchType[mt] = append(summary.AttributesByMatchType[mt], r.AttributeName)
		confidenceSum += r.Confidence
	}

	summary.NonStandardCount = summary.TotalAttributes - summary.StandardCount
	summary.ComplianceRate = float64(summary.StandardCount) / float64(summary.TotalAttributes) * 100
	summary.AverageConfidence = confidenceSum / float64(summary.TotalAttributes)
	return summary
}
