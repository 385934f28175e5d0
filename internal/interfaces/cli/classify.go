package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/careatlas/clauseguard/internal/classify/cascade"
	"github.com/careatlas/clauseguard/internal/config"
	"github.com/careatlas/clauseguard/pkg/types/classify"
)

type classifyFlags struct {
	input           string
	output          string
	exactThreshold  float64
	regexThreshold  float64
	fuzzyThreshold  float64
	semThreshold    float64
	noBusinessRules bool
	summaryOnly     bool
}

type classifyOutput struct {
	Results []classify.ClassificationResult `json:"results"`
	Summary classify.Summary                `json:"summary"`
}

func newClassifyCommand() *cobra.Command {
	flags := classifyFlags{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify attribute pairs from a JSON file",
		Long: `Reads a JSON array of attribute pairs, each with "name",
"contract_text", and "template_text", classifies them, and writes results
plus a summary as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "-", "input JSON file of attribute pairs, - for stdin")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().Float64Var(&flags.exactThreshold, "threshold-exact", 0, "override exact threshold")
	cmd.Flags().Float64Var(&flags.regexThreshold, "threshold-regex", 0, "override regex threshold")
	cmd.Flags().Float64Var(&flags.fuzzyThreshold, "threshold-fuzzy", 0, "override fuzzy threshold")
	cmd.Flags().Float64Var(&flags.semThreshold, "threshold-semantic", 0, "override semantic threshold")
	cmd.Flags().BoolVar(&flags.noBusinessRules, "no-business-rules", false, "disable business-rule overrides")
	cmd.Flags().BoolVar(&flags.summaryOnly, "summary", false, "print only the summary")
	return cmd
}

func runClassify(cmd *cobra.Command, flags classifyFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyThresholdFlags(cmd, cfg, flags)
	if err := cfg.Classifier.Thresholds().Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	orchestrator, cleanup, err := buildOrchestrator(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer cleanup()

	pairs, err := readPairs(flags.input)
	if err != nil {
		return err
	}

	results := orchestrator.ClassifyAll(ctx, pairs)
	summary := cascade.Summarize(results)

	out := io.Writer(os.Stdout)
	if flags.output != "-" {
		f, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if flags.summaryOnly {
		return enc.Encode(summary)
	}
	return enc.Encode(classifyOutput{Results: results, Summary: summary})
}

// applyThresholdFlags lets explicit CLI flags win over file and env config.
func applyThresholdFlags(cmd *cobra.Command, cfg *config.Config, flags classifyFlags) {
	if cmd.Flags().Changed("threshold-exact") {
		cfg.Classifier.ExactThreshold = flags.exactThreshold
	}
	if cmd.Flags().Changed("threshold-regex") {
		cfg.Classifier.RegexThreshold = flags.regexThreshold
	}
	if cmd.Flags().Changed("threshold-fuzzy") {
		cfg.Classifier.FuzzyThreshold = flags.fuzzyThreshold
	}
	if cmd.Flags().Changed("threshold-semantic") {
		cfg.Classifier.SemanticThreshold = flags.semThreshold
	}
	if flags.noBusinessRules {
		cfg.Classifier.EnableBusinessRules = false
	}
}

func readPairs(path string) ([]classify.AttributePair, error) {
	var reader io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input file: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var pairs []classify.AttributePair
	if err := json.NewDecoder(reader).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("decode attribute pairs: %w", err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no attribute pairs in input")
	}
	return pairs, nil
}
