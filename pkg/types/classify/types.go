// Package classify defines the public data model for clause classification:
// match and methodology enumerations, per-attribute results, business-rule
// analyses, and batch summaries. Only plain data types and validation live
// here; the engines that populate them are under internal/classify.
package classify

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// MatchType enumeration
// ---------------------------------------------------------------------------

// MatchType records which cascade stage produced a classification conclusion.
type MatchType int

const (
	MatchExact MatchType = iota
	MatchRegex
	MatchFuzzy
	MatchSemantic
	MatchNone
)

var matchTypeNames = map[MatchType]string{
	MatchExact:    "EXACT",
	MatchRegex:    "REGEX",
	MatchFuzzy:    "FUZZY",
	MatchSemantic: "SEMANTIC",
	MatchNone:     "NO_MATCH",
}

func (m MatchType) String() string {
	if s, ok := matchTypeNames[m]; ok {
		return s
	}
	return "UNKNOWN"
}

// MarshalJSON serialises MatchType as a JSON string.
func (m MatchType) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON deserialises a JSON string into MatchType.
func (m *MatchType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for k, v := range matchTypeNames {
		if v == s {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown match type: %s", s)
}

// ---------------------------------------------------------------------------
// MethodologyType enumeration
// ---------------------------------------------------------------------------

// MethodologyType tags the reimbursement methodology detected in contract
// language.
type MethodologyType int

const (
	MethodologyUnknown MethodologyType = iota
	MethodologyStandardFeeSchedule
	MethodologyCustomRates
	MethodologyStateSpecific
	MethodologySpecialPrograms
	MethodologyUnusualTimeUnits
	MethodologyNonStandardServices
	MethodologyFixedHistorical
	MethodologyNonFederal
	MethodologyFullCoverage
	MethodologyDynamicAdjustments
	MethodologySpecialAffiliation
	MethodologyYearLocked
	MethodologyMedicareBased
	MethodologyMedicaidLab
	MethodologyFixedDollar
	MethodologyPercentageBased
	MethodologyCustom
)

var methodologyNames = map[MethodologyType]string{
	MethodologyUnknown:             "Unknown",
	MethodologyStandardFeeSchedule: "Professional Provider Market Master Fee Schedule",
	MethodologyCustomRates:         "Custom Rates",
	MethodologyStateSpecific:       "State-Specific Modifications",
	MethodologySpecialPrograms:     "Special Programs/Waivers",
	MethodologyUnusualTimeUnits:    "Unusual Time Units",
	MethodologyNonStandardServices: "Non-Standard Services",
	MethodologyFixedHistorical:     "Fixed Historical References",
	MethodologyNonFederal:          "Non-Federal Methodology",
	MethodologyFullCoverage:        "Full Coverage/Exceptions",
	MethodologyDynamicAdjustments:  "Retroactive/Dynamic Adjustments",
	MethodologySpecialAffiliation:  "Special Affiliation Rules",
	MethodologyYearLocked:          "Year-Locked Rate",
	MethodologyMedicareBased:       "Medicare-Based",
	MethodologyMedicaidLab:         "Medicaid Lab",
	MethodologyFixedDollar:         "Fixed Dollar Amount",
	MethodologyPercentageBased:     "Percentage-Based",
	MethodologyCustom:              "Custom Methodology",
}

func (m MethodologyType) String() string {
	if s, ok := methodologyNames[m]; ok {
		return s
	}
	return "Unknown"
}

// MarshalJSON serialises MethodologyType as a JSON string.
func (m MethodologyType) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON deserialises a JSON string into MethodologyType.
func (m *MethodologyType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for k, v := range methodologyNames {
		if v == s {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown methodology type: %s", s)
}

// ---------------------------------------------------------------------------
// Input types
// ---------------------------------------------------------------------------

// AttributePair carries the isolated clause texts for one named contractual
// concept, as supplied by the external extraction collaborator. Texts are
// immutable once handed to the classifier.
type AttributePair struct {
	Name         string `json:"name"`
	ContractText string `json:"contract_text"`
	TemplateText string `json:"template_text"`
}

// ---------------------------------------------------------------------------
// Result types
// ---------------------------------------------------------------------------

// ClassificationResult is the outcome of classifying one attribute.
type ClassificationResult struct {
	AttributeName string    `json:"attribute_name"`
	IsStandard    bool      `json:"is_standard"`
	MatchType     MatchType `json:"match_type"`
	Confidence    float64   `json:"confidence"`
	Explanation   string    `json:"explanation"`

	// MatchedSections is an opaque diagnostic payload (stage-specific scores,
	// candidate spans, triggered indicators). Audit/debug only; never
	// machine-interpreted further.
	MatchedSections map[string]interface{} `json:"matched_sections,omitempty"`
}

// MethodologyAnalysis is the result of the business-rule methodology pass.
type MethodologyAnalysis struct {
	MethodologyType MethodologyType `json:"methodology_type"`
	IsStandard      bool            `json:"is_standard"`
	Confidence      float64         `json:"confidence"`
	Evidence        []string        `json:"evidence"`
	Explanation     string          `json:"explanation"`
}

// QualifierAnalysis is the result of qualifier detection.
type QualifierAnalysis struct {
	HasQualifiers   bool     `json:"has_qualifiers"`
	QualifiersFound []string `json:"qualifiers_found"`
	QualifierImpact string   `json:"qualifier_impact"`
	Confidence      float64  `json:"confidence"`
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// Summary aggregates classification results across a batch of attributes.
type Summary struct {
	TotalAttributes       int                  `json:"total_attributes"`
	StandardCount         int                  `json:"standard_count"`
	NonStandardCount      int                  `json:"non_standard_count"`
	ComplianceRate        float64              `json:"compliance_rate"`
	MatchTypeDistribution map[string]int       `json:"match_type_distribution"`
	AverageConfidence     float64              `json:"average_confidence"`
	AttributesByMatchType map[string][]string  `json:"attributes_by_match_type"`
}

// ---------------------------------------------------------------------------
// Thresholds
// ---------------------------------------------------------------------------

// Thresholds carries the per-stage acceptance thresholds and the
// business-rule toggle. All thresholds use a closed lower bound: a score
// exactly equal to the threshold is accepted.
type Thresholds struct {
	Exact               float64 `json:"exact" mapstructure:"exact"`
	Regex               float64 `json:"regex" mapstructure:"regex"`
	Fuzzy               float64 `json:"fuzzy" mapstructure:"fuzzy"`
	Semantic            float64 `json:"semantic" mapstructure:"semantic"`
	EnableBusinessRules bool    `json:"enable_business_rules" mapstructure:"enable_business_rules"`
}

// DefaultThresholds returns the reference defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Exact:               1.0,
		Regex:               0.9,
		Fuzzy:               0.8,
		Semantic:            0.7,
		EnableBusinessRules: true,
	}
}

// Validate rejects threshold values outside [0,1]. Callers must treat any
// error as fatal and refuse to classify.
func (t Thresholds) Validate() error {
	check := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %s = %g is out of range [0, 1]", name, v)
		}
		return nil
	}
	if err := check("exact", t.Exact); err != nil {
		return err
	}
	if err := check("regex", t.Regex); err != nil {
		return err
	}
	if err := check("fuzzy", t.Fuzzy); err != nil {
		return err
	}
	return check("semantic", t.Semantic)
}
