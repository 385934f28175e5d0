package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/careatlas/clauseguard/internal/classify/normalize"
)

func TestNormalize_CollapsesWhitespaceAndCase(t *testing.T) {
	t.Parallel()
	got := normalize.Normalize("  Claims   MUST be\tsubmitted\n within  90 days.  ")
	assert.Equal(t, "claims must be submitted within 90 days.", got)
}

func TestNormalize_RemovesPageNumberLines(t *testing.T) {
	t.Parallel()
	got := normalize.Normalize("end of section one.\n 14 \nstart of section two.")
	assert.Equal(t, "end of section one. start of section two.", got)
}

func TestNormalize_StandardizesQuotes(t *testing.T) {
	t.Parallel()
	got := normalize.Normalize("the “Provider” and the ‘Plan’")
	assert.Equal(t, `the "provider" and the 'plan'`, got)
}

func TestNormalize_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", normalize.Normalize(""))
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	once := normalize.Normalize("Payment  Rates “Exhibit A”\n 3 \nApply.")
	assert.Equal(t, once, normalize.Normalize(once))
}

func TestPreprocessFuzzy_StripsPunctuationKeepsTerminators(t *testing.T) {
	t.Parallel()
	got := normalize.PreprocessFuzzy("Payment, at 100% of rates; due now! Agreed?")
	assert.Equal(t, "payment at 100 of rates due now! agreed?", got)
}

func TestNormalizeSynonyms_CanonicalForms(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"provider will submit claims", "provider shall submit claims"},
		{"payment is due before the deadline", "compensation is due prior to the deadline"},
		{"according to the contract", "pursuant to the agreement"},
		{"the participant can terminate", "the party may terminate"},
		{"conditions of this arrangement", "terms of this agreement"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalize.NormalizeSynonyms(tc.in), "input: %s", tc.in)
	}
}

func TestNormalizeSynonyms_CaseInsensitive(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "shall pay", normalize.NormalizeSynonyms("Must pay"))
}

func TestNormalizeSynonyms_WordBoundarySafe(t *testing.T) {
	t.Parallel()
	// "willing" and "understanding" contain synonym substrings but must not
	// be rewritten.
	assert.Equal(t, "a willing buyer", normalize.NormalizeSynonyms("a willing buyer"))
}

func TestSynonymCount(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 12, normalize.SynonymCount())
}
