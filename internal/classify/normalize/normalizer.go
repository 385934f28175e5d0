// Package normalize canonicalises clause text for comparison: whitespace,
// case, quote characters, page-number artifacts, and legal-synonym
// substitution. All operations are pure functions over immutable
// package-level tables built once at startup.
package normalize

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	pageNumberLine  = regexp.MustCompile(`\n\s*\d+\s*\n`)
	doubleQuoteLike = regexp.MustCompile("[“”„«»]")
	singleQuoteLike = regexp.MustCompile("[‘’‚′]")
	fuzzyPunct      = regexp.MustCompile(`[^\w\s.?!]`)
)

// Normalize canonicalises text for equality-style comparison: page-number
// artifact lines are removed, quote variants are standardised, whitespace
// runs collapse to single spaces, and the result is lowercased. Empty input
// yields empty output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = pageNumberLine.ReplaceAllString(text, "\n")
	text = doubleQuoteLike.ReplaceAllString(text, `"`)
	text = singleQuoteLike.ReplaceAllString(text, "'")
	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	return strings.ToLower(text)
}

// PreprocessFuzzy prepares text for approximate string comparison: lowercase,
// punctuation stripped except sentence terminators, whitespace collapsed.
func PreprocessFuzzy(text string) string {
	text = strings.ToLower(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = fuzzyPunct.ReplaceAllString(text, " ")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// synonymRule rewrites every synonym phrase to its canonical legal form.
type synonymRule struct {
	canonical string
	pattern   *regexp.Regexp
}

type synonymEntry struct {
	canonical string
	synonyms  []string
}

// legalSynonyms holds the fixed canonical-form dictionary. Each canonical
// term maps from a small set of phrases contracts commonly substitute for it.
// Replacement is word-boundary safe and case-insensitive. Entry order is
// significant: a phrase claimed by an earlier rule ("if" → "provided that")
// is not reconsidered by later rules, so the slice keeps substitution
// deterministic.
var legalSynonyms = buildSynonymRules([]synonymEntry{
	{"shall", []string{"will", "must", "should", "is required to"}},
	{"may", []string{"can", "is permitted to", "has the option to"}},
	{"prior to", []string{"before", "preceding", "in advance of"}},
	{"subsequent to", []string{"after", "following"}},
	{"pursuant to", []string{"according to", "in accordance with", "under"}},
	{"notwithstanding", []string{"despite", "regardless of", "even though"}},
	{"provided that", []string{"on condition that", "if", "as long as"}},
	{"in the event", []string{"when", "in case"}},
	{"compensation", []string{"payment", "reimbursement", "remuneration"}},
	{"agreement", []string{"contract", "arrangement", "understanding"}},
	{"party", []string{"participant", "signatory", "entity"}},
	{"terms", []string{"conditions", "provisions", "stipulations"}},
})

func buildSynonymRules(entries []synonymEntry) []synonymRule {
	rules := make([]synonymRule, 0, len(entries))
	for _, e := range entries {
		escaped := make([]string, 0, len(e.synonyms))
		for _, s := range e.synonyms {
			escaped = append(escaped, regexp.QuoteMeta(s))
		}
		rules = append(rules, synonymRule{
			canonical: e.canonical,
			pattern:   regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`),
		})
	}
	return rules
}

// NormalizeSynonyms replaces legal synonym phrases with their canonical
// forms so that wording variants compare as equal.
func NormalizeSynonyms(text string) string {
	for _, rule := range legalSynonyms {
		text = rule.pattern.ReplaceAllString(text, rule.canonical)
	}
	return text
}

// SynonymCount reports the number of canonical entries in the synonym table.
func SynonymCount() int {
	return len(legalSynonyms)
}
