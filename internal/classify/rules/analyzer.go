// Package rules implements the business-rule analyzer that vets fuzzy and
// semantic matches. Ten indicator families flag non-standard reimbursement
// language; qualifier detection and methodology analysis feed an override
// decision that can veto an otherwise-accepted match.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
	"github.com/careatlas/clauseguard/pkg/types/classify"
)

const (
	evidencePerIndicator = 3
	evidenceCap          = 5
	qualifiersCap        = 10

	multiIndicatorConfidence   = 0.90
	singleIndicatorConfidence  = 0.80
	standardTemplateConfidence = 0.95
	unknownConfidence          = 0.5

	overrideIndicatorMin = 2

	feeScheduleBoost = 1.1
)

// patternCheck finds non-standard evidence in text. Most checks are plain
// regexes; a few need post-match filtering because the original intent was a
// negative lookahead, which Go's regexp does not support.
type patternCheck func(text string) (string, bool)

func regexCheck(expr string) patternCheck {
	re := regexp.MustCompile(expr)
	return func(text string) (string, bool) {
		m := re.FindString(text)
		return m, m != ""
	}
}

// notFollowedBy rejects a match when the text immediately after it matches
// the suffix expression.
func notFollowedBy(expr, suffixExpr string) patternCheck {
	re := regexp.MustCompile(expr)
	suffix := regexp.MustCompile(`^(?:` + suffixExpr + `)`)
	return func(text string) (string, bool) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if !suffix.MatchString(text[loc[1]:]) {
				return text[loc[0]:loc[1]], true
			}
		}
		return "", false
	}
}

// notBeforeOnLine rejects a match when the rest of its line contains the
// given expression.
func notBeforeOnLine(expr, lineExpr string) patternCheck {
	re := regexp.MustCompile(expr)
	tail := regexp.MustCompile(lineExpr)
	return func(text string) (string, bool) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			rest := text[loc[1]:]
			if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
				rest = rest[:idx]
			}
			if !tail.MatchString(rest) {
				return text[loc[0]:loc[1]], true
			}
		}
		return "", false
	}
}

// indicator is one of the ten non-standard reimbursement families. Order
// matters: the first triggered indicator names the primary methodology.
type indicator struct {
	name        string
	methodology classify.MethodologyType
	summary     string
	checks      []patternCheck
}

var indicators = []indicator{
	{
		name:        "custom_rates",
		methodology: classify.MethodologyCustomRates,
		summary:     "Custom rate structure",
		checks: []patternCheck{
			regexCheck(`(?i)\$\d+(?:\.\d{2})?\s*(?:per|for)\s+\w+`),
			regexCheck(`(?i)(?:fixed|flat|set)\s+(?:rate|fee|amount)`),
			regexCheck(`(?i)\d+(?:\.\d+)?%\s*of\s*(?:charges?|billed|usual)`),
			regexCheck(`(?i)proprietary\s+(?:rate|fee|schedule)`),
		},
	},
	{
		name:        "state_specific",
		methodology: classify.MethodologyStateSpecific,
		summary:     "State-specific modifications",
		checks: []patternCheck{
			regexCheck(`(?i)state[- ](?:specific|determined|mandated)\s+(?:rate|program|schedule)`),
			regexCheck(`(?i)(?:Tennessee|Texas|California|Florida|state)\s+(?:legislation|statute|law).*?(?:rate|reimbursement)`),
			regexCheck(`(?i)rate\s+corridor`),
			regexCheck(`(?i)state[- ]administered\s+program`),
		},
	},
	{
		name:        "special_programs",
		methodology: classify.MethodologySpecialPrograms,
		summary:     "Special program/waiver rates",
		checks: []patternCheck{
			regexCheck(`(?i)1915\s*\([a-z]\)\s*(?:waiver|program)`),
			regexCheck(`(?i)\b(?:IDD|DD|HCBS|Katie\s+Beckett|TEFRA)\s+(?:waiver|program)`),
			regexCheck(`(?i)transitional\s+(?:services?|care|program)`),
			regexCheck(`(?i)behavioral\s+health\s+waiver`),
			regexCheck(`(?i)specialized?\s+waiver`),
		},
	},
	{
		name:        "unusual_time_units",
		methodology: classify.MethodologyUnusualTimeUnits,
		summary:     "Unusual time-based units",
		checks: []patternCheck{
			regexCheck(`(?i)per\s+(?:15|30|45)\s*min(?:ute)?s?`),
			notFollowedBy(`(?i)per\s+(?:service\s+)?unit`, `(?i)ed`),
			notFollowedBy(`(?i)per\s+case`, `(?i)\s+management`),
			regexCheck(`(?i)per\s+encounter`),
			regexCheck(`(?i)per\s+episode`),
		},
	},
	{
		name:        "non_standard_services",
		methodology: classify.MethodologyNonStandardServices,
		summary:     "Non-standard services",
		checks: []patternCheck{
			regexCheck(`(?i)family\s+residential\s+support`),
			regexCheck(`(?i)specialized\s+equipment`),
			regexCheck(`(?i)personal\s+emergency\s+response`),
			regexCheck(`(?i)assistive\s+technology`),
			regexCheck(`(?i)respite\s+care`),
			regexCheck(`(?i)habilitation\s+services?`),
			regexCheck(`(?i)(?:non-medical|ancillary)\s+(?:services?|supplies?)`),
		},
	},
	{
		name:        "fixed_historical",
		methodology: classify.MethodologyFixedHistorical,
		summary:     "Fixed historical references",
		checks: []patternCheck{
			regexCheck(`(?i)(?:19|20)\d{2}\s+(?:rate|fee|schedule|conversion\s+factor)`),
			regexCheck(`(?i)as\s+of\s+(?:19|20)\d{2}`),
			regexCheck(`(?i)(?:frozen|locked|fixed)\s+(?:at|as\s+of|from)\s+(?:19|20)\d{2}`),
			regexCheck(`(?i)relative\s+weight.*?(?:19|20)\d{2}`),
			regexCheck(`(?i)calendar\s+year\s+(?:19|20)\d{2}`),
		},
	},
	{
		name:        "non_federal",
		methodology: classify.MethodologyNonFederal,
		summary:     "Non-federal methodology",
		checks: []patternCheck{
			regexCheck(`(?i)(?:internal|proprietary|custom)\s+(?:methodology|fee\s+schedule)`),
			regexCheck(`(?i)state[- ]developed\s+(?:rate|schedule|methodology)`),
			regexCheck(`(?i)(?:provider|organization)[- ]specific\s+rate`),
			notBeforeOnLine(`(?i)negotiated\s+rate`, `(?i)medicare|medicaid|cms`),
		},
	},
	{
		name:        "full_coverage",
		methodology: classify.MethodologyFullCoverage,
		summary:     "Full coverage exceptions",
		checks: []patternCheck{
			regexCheck(`(?i)100%\s+(?:of|reimbursement)`),
			regexCheck(`(?i)full\s+reimbursement`),
			regexCheck(`(?i)all\s+(?:supplies?|equipment|ancillary\s+costs?)\s+(?:included|covered)`),
			regexCheck(`(?i)inclusive\s+of\s+all\s+(?:costs?|charges?)`),
		},
	},
	{
		name:        "dynamic_adjustments",
		methodology: classify.MethodologyDynamicAdjustments,
		summary:     "Dynamic adjustments",
		checks: []patternCheck{
			regexCheck(`(?i)retroactive(?:ly)?\s+adjust`),
			regexCheck(`(?i)dynamic\s+(?:adjustment|rate|pricing)`),
			regexCheck(`(?i)corridor\s+(?:monitoring|modeling|adjustment)`),
			regexCheck(`(?i)relative\s+position.*?adjust`),
			regexCheck(`(?i)reconciliation.*?based\s+on`),
		},
	},
	{
		name:        "affiliation",
		methodology: classify.MethodologySpecialAffiliation,
		summary:     "Special affiliation rules",
		checks: []patternCheck{
			regexCheck(`(?i)affiliate\s+(?:network|provider|arrangement)`),
			regexCheck(`(?i)coordinated\s+(?:care|program).*?(?:rate|reimbursement)`),
			regexCheck(`(?i)(?:ACO|accountable\s+care).*?(?:rate|methodology)`),
			regexCheck(`(?i)network[- ]specific\s+rate`),
		},
	},
}

// Phrases that settle the methodology as standard outright.
var standardIndicators = []string{
	"professional provider market master fee schedule",
	"market master fee schedule",
	"professional provider fee schedule",
	"standard fee schedule",
}

var standardMedicarePatterns = compileAll(
	`(?i)\d+(?:\.\d+)?%\s*of\s*medicare(?:\s+(?:advantage|fee\s+schedule))?`,
	`(?i)\d+(?:\.\d+)?%\s*of\s*medicaid(?:\s+fee\s+schedule)?`,
	`(?i)medicare.*?rate.*?\d+(?:\.\d+)?%`,
	`(?i)medicaid.*?rate.*?\d+(?:\.\d+)?%`,
)

var standardProvisions = compileAll(
	`(?i)CMS.*?adjust(?:ment|s)`,
	`(?i)bad\s+debt.*?exclud`,
	`(?i)interim\s+payment`,
	`(?i)retroactive.*?reconciliation`,
	`(?i)medicare.*?fee\s+schedule`,
	`(?i)percent\s+of\s+medicare`,
	`(?i)\[.*?percent.*?medicare.*?\]`,
)

var medicarePercentagePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s*of\s*(medicare|medicaid)`)

type qualifierCategory struct {
	name     string
	patterns []*regexp.Regexp
}

var qualifierCategories = []qualifierCategory{
	{"conditional", compileAll(
		`(?i)\b(?:if|when|provided that|on condition that|subject to)\b`,
		`(?i)\b(?:unless|except|excluding|but not)\b`,
		`(?i)\b(?:only if|solely|exclusively)\b`,
	)},
	{"limitations", compileAll(
		`(?i)\b(?:up to|maximum|not to exceed|cap|ceiling)\b`,
		`(?i)\b(?:minimum|at least|floor|no less than)\b`,
		`(?i)\b(?:limited to|restricted to)\b`,
	)},
	{"time_based", compileAll(
		`(?i)\b(?:after|before|within|during|following)\b.*\b(?:period|months?|years?|days?)\b`,
		`(?i)\b(?:effective|beginning|starting|ending|through)\b.*\b(?:date|period)\b`,
		`(?i)\b(?:retroactive|prospective)\b`,
	)},
	{"carve_outs", compileAll(
		`(?i)\b(?:except for|excluding|other than|aside from)\b`,
		`(?i)\b(?:carve[- ]?out|carved out|exemption)\b`,
		`(?i)\b(?:not applicable to|does not apply)\b`,
	)},
	{"special_circumstances", compileAll(
		`(?i)\b(?:in the event|in case of|upon occurrence)\b`,
		`(?i)\b(?:special|unique|specific) circumstances?\b`,
		`(?i)\b(?:case[- ]?by[- ]?case|individually determined)\b`,
	)},
}

// Extra qualifier patterns applied only to fee-schedule attributes.
var feeQualifierPatterns = compileAll(
	`(?i)except.*?(?:service|procedure|code)`,
	`(?i)excluding.*?(?:service|procedure|code)`,
	`(?i)for.*?(?:service|procedure|code).*?only`,
	`(?i)applicable.*?to.*?specific`,
)

// IndicatorHit records one triggered indicator family and its evidence.
type IndicatorHit struct {
	Name     string
	Evidence []string
}

// Analyzer detects non-standard reimbursement terms.
type Analyzer struct {
	logger logging.Logger
}

// NewAnalyzer returns an Analyzer. A nil logger falls back to a no-op
// logger.
func NewAnalyzer(logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Analyzer{logger: logger}
}

// CheckNonStandardIndicators runs all ten indicator families over the text
// and returns the triggered ones in family order, each with up to three
// pieces of evidence.
func (a *Analyzer) CheckNonStandardIndicators(text string) []IndicatorHit {
	var hits []IndicatorHit
	for _, ind := range indicators {
		var evidence []string
		for _, check := range ind.checks {
			if m, ok := check(text); ok {
				evidence = append(evidence, m)
			}
		}
		if len(evidence) > 0 {
			if len(evidence) > evidencePerIndicator {
				evidence = evidence[:evidencePerIndicator]
			}
			hits = append(hits, IndicatorHit{Name: ind.name, Evidence: evidence})
		}
	}
	return hits
}

// AnalyzeQualifiers detects conditional, limiting, time-based, carve-out,
// and special-circumstance language. Fee-schedule attributes additionally
// check fee-specific exclusions. Confidence reflects how benign the detected
// qualifiers are.
func (a *Analyzer) AnalyzeQualifiers(text, attributeName string) classify.QualifierAnalysis {
	var found []string
	var categoriesHit []string

	for _, cat := range qualifierCategories {
		for _, re := range cat.patterns {
			matches := re.FindAllString(text, -1)
			if len(matches) > 0 {
				found = append(found, matches...)
				categoriesHit = append(categoriesHit, cat.name)
			}
		}
	}

	if strings.Contains(attributeName, "Fee Schedule") {
		for _, re := range feeQualifierPatterns {
			if re.MatchString(text) {
				found = append(found, "Fee-specific qualifier: "+re.String())
				categoriesHit = append(categoriesHit, "fee_specific")
			}
		}
	}

	hasQualifiers := len(found) > 0

	var impact string
	var confidence float64
	switch {
	case !hasQualifiers:
		impact = "No qualifiers detected"
		confidence = 1.0
	case len(categoriesHit) == 1 && categoriesHit[0] == "time_based":
		impact = "Minor time-based qualifiers only"
		confidence = 0.7
	case len(found) <= 2:
		impact = "Some qualifiers present - review needed"
		confidence = 0.5
	default:
		impact = "Multiple qualifiers detected - likely non-standard"
		confidence = 0.2
	}

	if len(found) > qualifiersCap {
		found = found[:qualifiersCap]
	}

	return classify.QualifierAnalysis{
		HasQualifiers:   hasQualifiers,
		QualifiersFound: found,
		QualifierImpact: impact,
		Confidence:      confidence,
	}
}

// AnalyzeMethodology determines the reimbursement methodology in the text.
// An explicit standard phrase settles it immediately; otherwise the ten
// indicator families decide, then standard Medicare/Medicaid percentage
// templates, and finally an assume-standard fallback at low confidence.
func (a *Analyzer) AnalyzeMethodology(text, attributeName string) classify.MethodologyAnalysis {
	lower := strings.ToLower(text)

	for _, phrase := range standardIndicators {
		if strings.Contains(lower, phrase) {
			return classify.MethodologyAnalysis{
				MethodologyType: classify.MethodologyStandardFeeSchedule,
				IsStandard:      true,
				Confidence:      1.0,
				Evidence:        []string{fmt.Sprintf("Found standard indicator: '%s'", phrase)},
				Explanation:     "Uses standard Professional Provider Market Master Fee Schedule",
			}
		}
	}

	hits := a.CheckNonStandardIndicators(text)

	if len(hits) >= 2 {
		var names []string
		var evidence []string
		for _, hit := range hits {
			names = append(names, hit.Name)
			evidence = append(evidence, hit.Evidence...)
		}
		if len(evidence) > evidenceCap {
			evidence = evidence[:evidenceCap]
		}
		return classify.MethodologyAnalysis{
			MethodologyType: methodologyFor(hits[0].Name),
			IsStandard:      false,
			Confidence:      multiIndicatorConfidence,
			Evidence:        evidence,
			Explanation:     fmt.Sprintf("Non-standard: Multiple indicators found (%s)", strings.Join(names, ", ")),
		}
	}

	if len(hits) == 1 {
		hit := hits[0]
		return classify.MethodologyAnalysis{
			MethodologyType: methodologyFor(hit.Name),
			IsStandard:      false,
			Confidence:      singleIndicatorConfidence,
			Evidence:        hit.Evidence,
			Explanation:     "Non-standard: " + summaryFor(hit.Name),
		}
	}

	if result, ok := a.checkStandardTemplate(text, attributeName); ok {
		return result
	}

	return classify.MethodologyAnalysis{
		MethodologyType: classify.MethodologyUnknown,
		IsStandard:      true,
		Confidence:      unknownConfidence,
		Evidence:        []string{"No clear methodology pattern found"},
		Explanation:     "Cannot determine methodology - assuming standard",
	}
}

func (a *Analyzer) checkStandardTemplate(text, attributeName string) (classify.MethodologyAnalysis, bool) {
	matched := false
	for _, re := range standardMedicarePatterns {
		if re.MatchString(text) {
			matched = true
			break
		}
	}
	if !matched {
		return classify.MethodologyAnalysis{}, false
	}

	var provisionsFound []string
	for _, re := range standardProvisions {
		if m := re.FindString(text); m != "" {
			provisionsFound = append(provisionsFound, m)
		}
	}

	if len(provisionsFound) < 2 && !strings.Contains(attributeName, "Fee Schedule") {
		return classify.MethodologyAnalysis{}, false
	}

	groups := medicarePercentagePattern.FindStringSubmatch(text)
	if groups == nil {
		return classify.MethodologyAnalysis{}, false
	}
	percentage, base := groups[1], groups[2]

	return classify.MethodologyAnalysis{
		MethodologyType: classify.MethodologyStandardFeeSchedule,
		IsStandard:      true,
		Confidence:      standardTemplateConfidence,
		Evidence: []string{
			fmt.Sprintf("Standard template: %s%% of %s", percentage, base),
			fmt.Sprintf("Standard provisions: %d found", len(provisionsFound)),
		},
		Explanation: fmt.Sprintf("Standard template with %s%% of %s", percentage, base),
	}, true
}

// ShouldOverride decides whether an accepted fuzzy or semantic match must be
// vetoed. Exact and regex matches are never overridden. Two or more
// triggered indicators always override; fuzzy matches additionally override
// on low-confidence qualifiers, and fee-schedule attributes on a confident
// non-standard methodology finding.
func (a *Analyzer) ShouldOverride(text, attributeName string, matchType classify.MatchType) (bool, string) {
	if matchType != classify.MatchFuzzy && matchType != classify.MatchSemantic {
		return false, ""
	}

	hits := a.CheckNonStandardIndicators(text)
	if len(hits) >= overrideIndicatorMin {
		names := make([]string, 0, 3)
		for _, hit := range hits {
			names = append(names, hit.Name)
			if len(names) == 3 {
				break
			}
		}
		return true, "Multiple non-standard indicators: " + strings.Join(names, ", ")
	}

	if matchType == classify.MatchFuzzy {
		qa := a.AnalyzeQualifiers(text, attributeName)
		if qa.HasQualifiers && qa.Confidence < 0.5 {
			sample := qa.QualifiersFound
			if len(sample) > 3 {
				sample = sample[:3]
			}
			return true, "Contains non-standard qualifiers: " + strings.Join(sample, ", ")
		}
	}

	if strings.Contains(attributeName, "Fee Schedule") {
		ma := a.AnalyzeMethodology(text, attributeName)
		if !ma.IsStandard && ma.Confidence > 0.7 {
			return true, ma.Explanation
		}
	}

	return false, ""
}

// EnhanceClassification applies the override check to an accepted match.
// When the override triggers, the classification is forced non-standard with
// zero confidence. Otherwise fee-schedule attributes with a confirmed
// standard methodology get a confidence boost.
func (a *Analyzer) EnhanceClassification(text, attributeName string, matchType classify.MatchType, originalConfidence float64) (bool, float64, string) {
	if override, reason := a.ShouldOverride(text, attributeName, matchType); override {
		a.logger.Info("business rule override",
			logging.String("attribute", attributeName),
			logging.String("match_type", matchType.String()),
			logging.String("reason", reason),
		)
		return false, 0.0, reason
	}

	if strings.Contains(attributeName, "Fee Schedule") {
		if ma := a.AnalyzeMethodology(text, attributeName); ma.IsStandard {
			boosted := originalConfidence * feeScheduleBoost
			if boosted > 1.0 {
				boosted = 1.0
			}
			return true, boosted, "Standard fee schedule methodology confirmed"
		}
	}

	return true, originalConfidence, "Original classification maintained"
}

func methodologyFor(name string) classify.MethodologyType {
	for _, ind := range indicators {
		if ind.name == name {
			return ind.methodology
		}
	}
	return classify.MethodologyCustom
}

func summaryFor(name string) string {
	for _, ind := range indicators {
		if ind.name == name {
			return ind.summary
		}
	}
	return "Custom methodology"
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
