// Package pattern implements the regex-based cascade stage. It profiles the
// structural features of a clause (section numbering, bullets, legal
// terminology, dates, monetary values, time periods, tables) and scores how
// closely a contract clause's structure and attribute-specific markers track
// the template's.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
)

// Structural pattern families shared by all attributes.
var (
	sectionNumberingPatterns = compileAll(
		`\d+\.\d+(?:\.\d+)?`,
		`[A-Z]\.\s*\d+`,
		`(?i)Article\s+[IVX]+`,
		`(?i)Section\s+\d+`,
	)
	bulletPointPatterns = compileAll(
		`[•·▪▫◦‣⁃]\s*`,
		`\([a-z]\)`,
		`\d+\)`,
		`[a-z]\)`,
	)
	legalReferencePatterns = compileAll(
		`(?i)pursuant to`,
		`(?i)in accordance with`,
		`(?i)subject to`,
		`(?i)notwithstanding`,
		`(?i)hereinafter`,
		`(?i)whereas`,
	)
	datePatterns = compileAll(
		`\d{1,2}/\d{1,2}/\d{2,4}`,
		`\d{1,2}-\d{1,2}-\d{2,4}`,
		`[A-Za-z]+\s+\d{1,2},?\s+\d{4}`,
	)
	monetaryPatterns = compileAll(
		`\$\d+(?:,\d{3})*(?:\.\d{2})?`,
		`\d+(?:\.\d+)?%`,
		`(?i)percent`,
		`(?i)percentage`,
	)
	timePeriodPatterns = compileAll(
		`(?i)\d+\s*(?:days?|months?|years?)`,
		`(?i)(?:thirty|sixty|ninety)\s*\(\d+\)\s*days?`,
		`(?i)calendar\s+(?:days?|months?|years?)`,
		`(?i)business\s+(?:days?|months?|years?)`,
	)

	tableIndicatorPatterns = compileAll(
		`\|`,
		`\t.*\t`,
		`(?m)(?:^|\n)\s*\w+\s+\w+\s+\w+\s*(?:\n|$)`,
		`(?:Rate|Fee|Schedule|Percentage).*?(?:\d+%|\$\d+)`,
	)
	tableValuePattern = regexp.MustCompile(`(?:\$\d+(?:,\d{3})*(?:\.\d{2})?|\d+(?:\.\d+)?%)`)

	monetaryValuePattern   = regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d{2})?`)
	percentageValuePattern = regexp.MustCompile(`\d+(?:\.\d+)?%`)

	normalizeStripPattern = regexp.MustCompile(`[^\w\s.,;:\-()\[\]{}/%$]`)
	whitespaceRun         = regexp.MustCompile(`\s+`)
)

// Numbering style detectors, checked against the first extracted section
// marker in order.
var (
	decimalStyle      = regexp.MustCompile(`^\d+\.\d+`)
	alphaNumericStyle = regexp.MustCompile(`^[A-Z]\.\s*\d+`)
	romanStyle        = regexp.MustCompile(`^Article\s+[IVX]+`)
	sectionStyle      = regexp.MustCompile(`^Section\s+\d+`)
)

// attributeSpec lists the markers a clause for a given attribute must carry
// (required) and the phrasings it typically uses (structure). All patterns
// run against lowercased text.
type attributeSpec struct {
	required  []*regexp.Regexp
	structure []*regexp.Regexp
}

var attributePatterns = map[string]attributeSpec{
	"Medicaid Timely Filing": {
		required: compileAll(
			`medicaid`,
			`(?:timely\s+filing|submission.*?claims)`,
			`\d+\s*(?:days?|months?)`,
		),
		structure: compileAll(
			`submission\s+and\s+adjudication`,
			`claims.*?submitted`,
			`within.*?days`,
		),
	},
	"Medicare Timely Filing": {
		required: compileAll(
			`medicare`,
			`(?:timely\s+filing|submission.*?claims)`,
			`\d+\s*(?:days?|months?)`,
		),
		structure: compileAll(
			`submission.*?medicare.*?claims`,
			`claims.*?submitted`,
			`within.*?days`,
		),
	},
	"No Steerage/SOC": {
		required: compileAll(
			`(?:networks?|panels?)`,
			`provider`,
		),
		structure: compileAll(
			`networks\s+and\s+provider\s+panels`,
			`standard\s+of\s+care`,
			`steerage`,
		),
	},
	"Medicaid Fee Schedule": {
		required: compileAll(
			`medicaid`,
			`(?:fee\s+schedule|reimbursement|compensation)`,
		),
		structure: compileAll(
			`fee\s+schedule`,
			`reimbursement.*?rate`,
			`(?:professional\s+services|facility\s+services)`,
			`\d+(?:\.\d+)?%.*?(?:medicare|medicaid)`,
		),
	},
	"Medicare Fee Schedule": {
		required: compileAll(
			`medicare`,
			`(?:fee\s+schedule|reimbursement|compensation)`,
		),
		structure: compileAll(
			`fee\s+schedule`,
			`reimbursement.*?rate`,
			`medicare\s+advantage`,
			`\d+(?:\.\d+)?%.*?medicare`,
		),
	},
}

// defaultAttributeScore applies when the attribute has no pattern table.
const defaultAttributeScore = 0.5

// profile holds the structural features extracted from one clause.
type profile struct {
	Sections    []string `json:"sections"`
	Bullets     []string `json:"bullets"`
	LegalTerms  []string `json:"legal_terms"`
	Dates       []string `json:"dates"`
	Monetary    []string `json:"monetary"`
	TimePeriods []string `json:"time_periods"`
	HasTable    bool     `json:"has_table"`
}

// Result carries the blended pattern score together with the per-component
// scores used to compute it.
type Result struct {
	Score       float64
	Explanation string
	Details     map[string]interface{}
}

// Matcher scores structural similarity between clause pairs.
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

// Match profiles both texts and blends three components: structural
// similarity (0.4), attribute-specific markers (0.4), and table similarity
// (0.2). When the template has no table structure the table component is
// dropped and the remaining two are weighted 0.5 each.
func (m *Matcher) Match(contractText, templateText, attributeName string) Result {
	contractProfile := extractProfile(contractText)
	templateProfile := extractProfile(templateText)

	structureScore := compareStructures(contractProfile, templateProfile)
	attributeScore := checkAttributePatterns(contractText, attributeName)

	tableScore := 0.0
	if hasTableStructure(templateText) {
		tableScore = compareTableStructures(contractText, templateText)
	}

	var score float64
	if tableScore > 0 {
		score = 0.4*structureScore + 0.4*attributeScore + 0.2*tableScore
	} else {
		score = 0.5*structureScore + 0.5*attributeScore
	}

	m.logger.Debug("pattern match scored",
		logging.String("attribute", attributeName),
		logging.Float64("structure", structureScore),
		logging.Float64("attribute_score", attributeScore),
		logging.Float64("table", tableScore),
		logging.Float64("score", score),
	)

	return Result{
		Score:       score,
		Explanation: buildExplanation(structureScore, attributeScore, tableScore),
		Details: map[string]interface{}{
			"contract_patterns": contractProfile,
			"template_patterns": templateProfile,
			"structure_score":   structureScore,
			"attribute_score":   attributeScore,
			"table_score":       tableScore,
		},
	}
}

func buildExplanation(structureScore, attributeScore, tableScore float64) string {
	var parts []string

	switch {
	case structureScore > 0.8:
		parts = append(parts, fmt.Sprintf("Strong structural match (%.2f)", structureScore))
	case structureScore > 0.5:
		parts = append(parts, fmt.Sprintf("Moderate structural match (%.2f)", structureScore))
	default:
		parts = append(parts, fmt.Sprintf("Weak structural match (%.2f)", structureScore))
	}

	if attributeScore > 0.8 {
		parts = append(parts, fmt.Sprintf("Attribute patterns match well (%.2f)", attributeScore))
	} else if attributeScore > 0.5 {
		parts = append(parts, fmt.Sprintf("Some attribute patterns match (%.2f)", attributeScore))
	}

	if tableScore > 0 {
		parts = append(parts, fmt.Sprintf("Table structure similarity: %.2f", tableScore))
	}

	return strings.Join(parts, "; ")
}

func extractProfile(text string) profile {
	p := profile{}
	for _, re := range sectionNumberingPatterns {
		p.Sections = append(p.Sections, re.FindAllString(text, -1)...)
	}
	for _, re := range bulletPointPatterns {
		p.Bullets = append(p.Bullets, re.FindAllString(text, -1)...)
	}
	for _, re := range legalReferencePatterns {
		if re.MatchString(text) {
			p.LegalTerms = append(p.LegalTerms, re.String())
		}
	}
	for _, re := range datePatterns {
		p.Dates = append(p.Dates, re.FindAllString(text, -1)...)
	}
	for _, re := range monetaryPatterns {
		p.Monetary = append(p.Monetary, re.FindAllString(text, -1)...)
	}
	for _, re := range timePeriodPatterns {
		p.TimePeriods = append(p.TimePeriods, re.FindAllString(text, -1)...)
	}
	p.HasTable = hasTableStructure(text)
	return p
}

// compareStructures averages component scores: numbering style agreement,
// bullet style overlap, legal terminology Jaccard, and matched presence of
// dates, monetary values, and time periods. Mutual absence of a feature
// counts as agreement.
func compareStructures(a, b profile) float64 {
	var scores []float64

	switch {
	case len(a.Sections) > 0 && len(b.Sections) > 0:
		if numberingStyle(a.Sections) == numberingStyle(b.Sections) {
			scores = append(scores, 1.0)
		} else {
			scores = append(scores, 0.5)
		}
	case len(a.Sections) == 0 && len(b.Sections) == 0:
		scores = append(scores, 1.0)
	default:
		scores = append(scores, 0.0)
	}

	switch {
	case len(a.Bullets) > 0 && len(b.Bullets) > 0:
		if hasIntersection(a.Bullets, b.Bullets) {
			scores = append(scores, 1.0)
		} else {
			scores = append(scores, 0.5)
		}
	case len(a.Bullets) == 0 && len(b.Bullets) == 0:
		scores = append(scores, 1.0)
	default:
		scores = append(scores, 0.0)
	}

	if len(a.LegalTerms) > 0 && len(b.LegalTerms) > 0 {
		scores = append(scores, jaccard(a.LegalTerms, b.LegalTerms))
	}

	presencePairs := [][2][]string{
		{a.Dates, b.Dates},
		{a.Monetary, b.Monetary},
		{a.TimePeriods, b.TimePeriods},
	}
	for _, pair := range presencePairs {
		if (len(pair[0]) > 0) == (len(pair[1]) > 0) {
			scores = append(scores, 1.0)
		} else {
			scores = append(scores, 0.5)
		}
	}

	if len(scores) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func numberingStyle(sections []string) string {
	if len(sections) == 0 {
		return "none"
	}
	sample := sections[0]
	switch {
	case decimalStyle.MatchString(sample):
		return "decimal"
	case alphaNumericStyle.MatchString(sample):
		return "alpha_numeric"
	case romanStyle.MatchString(sample):
		return "roman"
	case sectionStyle.MatchString(sample):
		return "section"
	default:
		return "other"
	}
}

// checkAttributePatterns scores the contract text against the attribute's
// pattern table, weighting required elements 0.7 and structure phrasings
// 0.3. Unknown attributes score 0.5.
func checkAttributePatterns(contractText, attributeName string) float64 {
	spec, ok := attributePatterns[attributeName]
	if !ok {
		return defaultAttributeScore
	}
	lower := strings.ToLower(contractText)

	requiredFound := 0
	for _, re := range spec.required {
		if re.MatchString(lower) {
			requiredFound++
		}
	}
	requiredScore := 0.0
	if len(spec.required) > 0 {
		requiredScore = float64(requiredFound) / float64(len(spec.required))
	}

	structureFound := 0
	for _, re := range spec.structure {
		if re.MatchString(lower) {
			structureFound++
		}
	}
	structureScore := 0.0
	if len(spec.structure) > 0 {
		structureScore = float64(structureFound) / float64(len(spec.structure))
	}

	return 0.7*requiredScore + 0.3*structureScore
}

func hasTableStructure(text string) bool {
	for _, re := range tableIndicatorPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	// Several aligned monetary values or percentages also read as a table.
	return len(tableValuePattern.FindAllString(text, -1)) > 3
}

// compareTableStructures scores tables on value-count ratio (half weight)
// and value-type overlap (half for identical type sets, quarter for partial
// overlap).
func compareTableStructures(contractText, templateText string) float64 {
	contractValues := extractTableValues(contractText)
	templateValues := extractTableValues(templateText)

	if len(contractValues) == 0 && len(templateValues) == 0 {
		return 1.0
	}
	if len(contractValues) == 0 || len(templateValues) == 0 {
		return 0.0
	}

	minLen, maxLen := len(contractValues), len(templateValues)
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}
	score := float64(minLen) / float64(maxLen) * 0.5

	contractTypes := categorizeValues(contractValues)
	templateTypes := categorizeValues(templateValues)

	if setsEqual(contractTypes, templateTypes) {
		score += 0.5
	} else if setsOverlap(contractTypes, templateTypes) {
		score += 0.25
	}

	return score
}

func extractTableValues(text string) []string {
	values := monetaryValuePattern.FindAllString(text, -1)
	return append(values, percentageValuePattern.FindAllString(text, -1)...)
}

func categorizeValues(values []string) map[string]struct{} {
	types := make(map[string]struct{})
	for _, v := range values {
		if strings.HasPrefix(v, "$") {
			types["monetary"] = struct{}{}
		} else if strings.HasSuffix(v, "%") {
			types["percentage"] = struct{}{}
		}
	}
	return types
}

// NormalizeText lowercases, collapses whitespace, and strips characters
// outside the structural set kept for pattern matching.
func NormalizeText(text string) string {
	text = strings.ToLower(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = normalizeStripPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

func hasIntersection(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}
	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func setsOverlap(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
