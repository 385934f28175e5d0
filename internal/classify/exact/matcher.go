// Package exact implements the first cascade stage: normalized text
// equality, plus a placeholder-aware comparison that lets a template with
// fill-in markers match a contract where those markers were filled with
// concrete rates, percentages, or schedule names.
package exact

import (
	"regexp"
	"strings"

	"github.com/careatlas/clauseguard/internal/classify/normalize"
	"github.com/careatlas/clauseguard/internal/classify/textmetric"
	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
)

const (
	// Placeholder-substituted matches carry slightly less confidence than
	// byte-for-byte equality.
	placeholderConfidence = 0.95

	defaultPlaceholderThreshold  = 0.85
	medicarePlaceholderThreshold = 0.70
)

// Placeholder markers a template may carry: bracketed fields, XX stand-ins,
// redaction bars, masked dollar amounts, and fill-in underscores.
var placeholderMarkers = []*regexp.Regexp{
	regexp.MustCompile(`\[.*?\]`),
	regexp.MustCompile(`\(XX%?\)`),
	regexp.MustCompile(`XX%?`),
	regexp.MustCompile(`█+`),
	regexp.MustCompile(`\$X+`),
	regexp.MustCompile(`_{3,}`),
}

// medicareSubstitution pairs a template placeholder with the concrete
// contract text that legitimately fills it. When both sides match, both are
// rewritten to a common sentinel before comparison.
type medicareSubstitution struct {
	template *regexp.Regexp
	contract *regexp.Regexp
}

var medicareSubstitutions = []medicareSubstitution{
	{
		regexp.MustCompile(`(?i)\[Specific Medicare Fee Schedule\]`),
		regexp.MustCompile(`(?i)Medicare (?:Physician )?Fee Schedule`),
	},
	{
		regexp.MustCompile(`(?i)\[Percent of\s+Medicare\]`),
		regexp.MustCompile(`(?i)(?:ninety|one hundred|thirty five|sixty five|eighty|seventy|fifty)\s+percent\s*\(\d+%?\)`),
	},
	{
		regexp.MustCompile(`(?i)\[Percent of\s+Medicare\]`),
		regexp.MustCompile(`\d+(?:\.\d+)?%`),
	},
	{
		regexp.MustCompile(`(?i)\[.*?Fee Schedule.*?\]`),
		regexp.MustCompile(`(?i)Medicare.*?Fee Schedule`),
	},
	{
		regexp.MustCompile(`(?i)\[.*?percent.*?\]`),
		regexp.MustCompile(`\d+(?:\.\d+)?%`),
	},
}

var (
	numberPattern   = regexp.MustCompile(`\d+(?:\.\d+)?%?`)
	currencyPattern = regexp.MustCompile(`\$[\d,]+(?:\.\d{2})?`)

	// Document furniture that differs between a template and an executed
	// contract without changing the clause's meaning.
	boilerplatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)tennessee enterprise provider agreement.*?#`),
		regexp.MustCompile(`(?i)©.*?\d{4}.*?inc\.?`),
		regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
		regexp.MustCompile(`(?i)contraxx id #\s*`),
	}

	medicareFeeSchedulePattern = regexp.MustCompile(`(?i)medicare.*fee schedule`)
	whitespaceRun              = regexp.MustCompile(`\s+`)
)

// Result reports whether the stage accepted the pair and with what
// confidence.
type Result struct {
	Accepted    bool
	Confidence  float64
	Explanation string
}

// Matcher performs exact and placeholder-aware matching.
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

// Match compares the contract clause against the template. Normalized
// equality wins outright; otherwise a template containing placeholder
// markers is compared after substituting the markers and the contract's
// concrete values with common sentinels.
func (m *Matcher) Match(contractText, templateText string) Result {
	normContract := normalize.Normalize(contractText)
	normTemplate := normalize.Normalize(templateText)

	if normContract == normTemplate {
		return Result{Accepted: true, Confidence: 1.0, Explanation: "Exact text match"}
	}

	if m.placeholderMatch(contractText, templateText) {
		m.logger.Debug("placeholder-substituted exact match accepted")
		return Result{
			Accepted:    true,
			Confidence:  placeholderConfidence,
			Explanation: "Exact match with placeholder replacement",
		}
	}

	return Result{}
}

func (m *Matcher) placeholderMatch(contractText, templateText string) bool {
	hasPlaceholder := false
	for _, marker := range placeholderMarkers {
		if marker.MatchString(templateText) {
			hasPlaceholder = true
			break
		}
	}
	if !hasPlaceholder {
		return false
	}

	template := templateText
	contract := contractText

	// Rewrite Medicare-specific placeholder pairs first so a named fee
	// schedule and its filled-in value collapse to the same sentinel.
	for _, sub := range medicareSubstitutions {
		if sub.template.MatchString(templateText) {
			template = sub.template.ReplaceAllString(template, "MEDICARE_PLACEHOLDER")
			contract = sub.contract.ReplaceAllString(contract, "MEDICARE_PLACEHOLDER")
		}
	}

	for _, marker := range placeholderMarkers {
		template = marker.ReplaceAllString(template, "PLACEHOLDER")
	}
	contract = currencyPattern.ReplaceAllString(contract, "PLACEHOLDER")
	contract = numberPattern.ReplaceAllString(contract, "PLACEHOLDER")

	for _, bp := range boilerplatePatterns {
		template = bp.ReplaceAllString(template, "")
		contract = bp.ReplaceAllString(contract, "")
	}

	template = collapse(template)
	contract = collapse(contract)

	similarity := textmetric.SequenceRatio(template, contract)

	threshold := defaultPlaceholderThreshold
	if medicareFeeSchedulePattern.MatchString(templateText) {
		threshold = medicarePlaceholderThreshold
	}

	m.logger.Debug("placeholder comparison",
		logging.Float64("similarity", similarity),
		logging.Float64("threshold", threshold),
	)
	return similarity >= threshold
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(s), " "))
}
