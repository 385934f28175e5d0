package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careatlas/clauseguard/pkg/types/classify"
)

// The command-executing tests share the package-level cfgFile binding, so
// they run serially.

func writePairsFile(t *testing.T, pairs []classify.AttributePair) string {
	t.Helper()
	data, err := json.Marshal(pairs)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "pairs.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCommand()
	root.SetArgs(args)
	return root.Execute()
}

func TestClassifyCommand_WritesResultsToFile(t *testing.T) {
	input := writePairsFile(t, []classify.AttributePair{
		{
			Name:         "Termination",
			ContractText: "Either party may terminate this agreement with ninety days written notice.",
			TemplateText: "Either party may terminate this agreement with ninety days written notice.",
		},
		{
			Name:         "Claims Submission",
			ContractText: "Claims must be submitted within 90 days.",
			TemplateText: "",
		},
	})
	output := filepath.Join(t.TempDir(), "results.json")

	require.NoError(t, runCommand(t, "classify", "-i", input, "-o", output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var out classifyOutput
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Results, 2)

	assert.Equal(t, "Termination", out.Results[0].AttributeName)
	assert.True(t, out.Results[0].IsStandard)
	assert.Equal(t, classify.MatchExact, out.Results[0].MatchType)

	assert.Equal(t, "Claims Submission", out.Results[1].AttributeName)
	assert.False(t, out.Results[1].IsStandard)
	assert.Equal(t, classify.MatchNone, out.Results[1].MatchType)

	assert.Equal(t, 2, out.Summary.TotalAttributes)
	assert.Equal(t, 1, out.Summary.StandardCount)
	assert.InDelta(t, 50.0, out.Summary.ComplianceRate, 0.001)
}

func TestClassifyCommand_SummaryOnly(t *testing.T) {
	input := writePairsFile(t, []classify.AttributePair{
		{
			Name:         "Termination",
			ContractText: "Either party may terminate this agreement with ninety days written notice.",
			TemplateText: "Either party may terminate this agreement with ninety days written notice.",
		},
	})
	output := filepath.Join(t.TempDir(), "summary.json")

	require.NoError(t, runCommand(t, "classify", "-i", input, "-o", output, "--summary"))

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var summary classify.Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 1, summary.TotalAttributes)
	assert.Equal(t, 1, summary.StandardCount)
	assert.InDelta(t, 100.0, summary.ComplianceRate, 0.001)

	// The summary-only payload has no results array.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "results")
}

func TestClassifyCommand_NoBusinessRules(t *testing.T) {
	pairs := []classify.AttributePair{
		{
			Name:         "Termination",
			ContractText: "Payment follows a proprietary fee schedule under the state-mandated rate corridor.",
			TemplateText: "Payment follows a proprietary fee schedule under the state-mandated rate corridor program.",
		},
	}

	vetoed := filepath.Join(t.TempDir(), "vetoed.json")
	require.NoError(t, runCommand(t, "classify", "-i", writePairsFile(t, pairs), "-o", vetoed))

	var withRules classifyOutput
	data, err := os.ReadFile(vetoed)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &withRules))
	require.Len(t, withRules.Results, 1)
	assert.False(t, withRules.Results[0].IsStandard)
	assert.Contains(t, withRules.Results[0].Explanation, "OVERRIDE")

	plain := filepath.Join(t.TempDir(), "plain.json")
	require.NoError(t, runCommand(t, "classify", "-i", writePairsFile(t, pairs), "-o", plain, "--no-business-rules"))

	var withoutRules classifyOutput
	data, err = os.ReadFile(plain)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &withoutRules))
	require.Len(t, withoutRules.Results, 1)
	assert.True(t, withoutRules.Results[0].IsStandard)
	assert.Equal(t, classify.MatchFuzzy, withoutRules.Results[0].MatchType)
}

func TestClassifyCommand_ThresholdFlagOverride(t *testing.T) {
	pairs := []classify.AttributePair{
		{
			Name:         "Records",
			ContractText: "The provider shall maintain complete medical records for each member.",
			TemplateText: "All notices shall be delivered to the administrative office of the plan.",
		},
	}

	strict := filepath.Join(t.TempDir(), "strict.json")
	require.NoError(t, runCommand(t, "classify", "-i", writePairsFile(t, pairs), "-o", strict))

	var defaultOut classifyOutput
	data, err := os.ReadFile(strict)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &defaultOut))
	require.Len(t, defaultOut.Results, 1)
	assert.False(t, defaultOut.Results[0].IsStandard)
	assert.Equal(t, classify.MatchNone, defaultOut.Results[0].MatchType)

	// Dropping the fuzzy floor lets the same dissimilar pair through.
	lenient := filepath.Join(t.TempDir(), "lenient.json")
	require.NoError(t, runCommand(t, "classify", "-i", writePairsFile(t, pairs), "-o", lenient, "--threshold-fuzzy", "0"))

	var lenientOut classifyOutput
	data, err = os.ReadFile(lenient)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &lenientOut))
	require.Len(t, lenientOut.Results, 1)
	assert.True(t, lenientOut.Results[0].IsStandard)
	assert.Equal(t, classify.MatchFuzzy, lenientOut.Results[0].MatchType)
}

func TestClassifyCommand_InvalidThresholdFlag(t *testing.T) {
	input := writePairsFile(t, []classify.AttributePair{
		{Name: "Termination", ContractText: "a", TemplateText: "a"},
	})

	err := runCommand(t, "classify", "-i", input, "--threshold-fuzzy", "1.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuzzy")
}

func TestReadPairs_FileNotFound(t *testing.T) {
	t.Parallel()
	_, err := readPairs(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open input file")
}

func TestReadPairs_InvalidJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := readPairs(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode attribute pairs")
}

func TestReadPairs_EmptyInput(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	_, err := readPairs(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no attribute pairs in input")
}
