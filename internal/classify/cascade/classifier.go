// Package cascade wires the four matching stages and the business-rule
// analyzer into the hierarchical classifier. Stages run strict to lenient
// and the first one to report "standard" is terminal; fuzzy and semantic
// acceptances pass through the business-rule override first.
package cascade

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careatlas/clauseguard/internal/classify/exact"
	"github.com/careatlas/clauseguard/internal/classify/fuzzy"
	"github.com/careatlas/clauseguard/internal/classify/pattern"
	"github.com/careatlas/clauseguard/internal/classify/rules"
	"github.com/careatlas/clauseguard/internal/classify/semantic"
	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/prometheus"
	"github.com/careatlas/clauseguard/pkg/types/classify"
)

const defaultConcurrency = 4

// Medicare placeholder detection for the regex-stage threshold relaxation.
var (
	medicarePlaceholderTemplates = compileAll(
		`(?i)\[Specific Medicare Fee Schedule\]`,
		`(?i)\[Percent of\s+Medicare\]`,
		`(?i)\[.*?Medicare.*?\]`,
		`(?i)\[.*?Fee Schedule.*?\]`,
	)
	medicareValuePatterns = compileAll(
		`(?i)Medicare.*?Fee Schedule.*?(?:multiplied by|at)`,
		`(?i)\d+(?:\.\d+)?%.*?(?:of )?Medicare`,
		`(?i)(?:ninety|one hundred|thirty five|sixty five|eighty|seventy|fifty)\s+percent`,
	)
)

// Orchestrator runs the classification cascade.
type Orchestrator struct {
	thresholds classify.Thresholds

	exact    *exact.Matcher
	pattern  *pattern.Matcher
	fuzzy    *fuzzy.Matcher
	semantic *semantic.Matcher
	analyzer *rules.Analyzer

	logger      logging.Logger
	metrics     prometheus.Metrics
	concurrency int
}

// Option customises orchestrator construction.
type Option func(*Orchestrator)

// WithLogger sets the logger used by the orchestrator and its stages.
func WithLogger(logger logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m prometheus.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithSemanticMatcher enables the semantic stage. Without one, semantic
// matching reports a stage failure and the cascade ends at fuzzy.
func WithSemanticMatcher(m *semantic.Matcher) Option {
	return func(o *Orchestrator) { o.semantic = m }
}

// WithConcurrency bounds parallel attribute classification in ClassifyAll.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// NewOrchestrator builds the cascade with the given thresholds. All stages
// except semantic are constructed eagerly; thresholds must already be
// validated.
func NewOrchestrator(thresholds classify.Thresholds, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		thresholds:  thresholds,
		logger:      logging.NewNopLogger(),
		metrics:     prometheus.NewNopMetrics(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.exact = exact.NewMatcher(o.logger)
	o.pattern = pattern.NewMatcher(o.logger)
	o.fuzzy = fuzzy.NewMatcher(o.logger)
	o.analyzer = rules.NewAnalyzer(o.logger)
	return o
}

// Classify runs the cascade for one attribute pair and returns a single
// terminal result.
func (o *Orchestrator) Classify(ctx context.Context, pair classify.AttributePair) classify.ClassificationResult {
	start := time.Now()
	result := o.classify(ctx, pair)
	o.metrics.ObserveClassification(result.MatchType.String(), result.IsStandard, time.Since(start))
	return result
}

func (o *Orchestrator) classify(ctx context.Context, pair classify.AttributePair) classify.ClassificationResult {
	if pair.ContractText == "" || pair.TemplateText == "" {
		return classify.ClassificationResult{
			AttributeName: pair.Name,
			IsStandard:    false,
			MatchType:     classify.MatchNone,
			Confidence:    0.0,
			Explanation:   "Missing text for comparison",
		}
	}

	o.logger.Info("classifying attribute", logging.String("attribute", pair.Name))

	if result, ok := o.tryExact(pair); ok {
		o.logger.Info("exact match found", logging.String("attribute", pair.Name))
		return result
	}
	if result, ok := o.tryRegex(pair); ok {
		o.logger.Info("regex pattern match found", logging.String("attribute", pair.Name))
		return result
	}
	if result, ok := o.tryFuzzy(pair); ok {
		o.logger.Info("fuzzy match concluded", logging.String("attribute", pair.Name))
		return result
	}
	if result, ok := o.trySemantic(ctx, pair); ok {
		o.logger.Info("semantic match concluded", logging.String("attribute", pair.Name))
		return result
	}

	o.logger.Info("no match found", logging.String("attribute", pair.Name))
	return classify.ClassificationResult{
		AttributeName: pair.Name,
		IsStandard:    false,
		MatchType:     classify.MatchNone,
		Confidence:    0.0,
		Explanation:   "No matching method succeeded",
	}
}

func (o *Orchestrator) tryExact(pair classify.AttributePair) (classify.ClassificationResult, bool) {
	res := o.exact.Match(pair.ContractText, pair.TemplateText)
	o.metrics.ObserveStageScore("exact", res.Confidence)
	if !res.Accepted {
		return classify.ClassificationResult{}, false
	}
	return classify.ClassificationResult{
		AttributeName: pair.Name,
		IsStandard:    true,
		MatchType:     classify.MatchExact,
		Confidence:    res.Confidence,
		Explanation:   res.Explanation,
	}, true
}

func (o *Orchestrator) tryRegex(pair classify.AttributePair) (classify.ClassificationResult, bool) {
	res := o.pattern.Match(pair.ContractText, pair.TemplateText, pair.Name)
	o.metrics.ObserveStageScore("regex", res.Score)

	threshold := o.thresholds.Regex
	explanation := res.Explanation
	if strings.Contains(pair.Name, "Fee Schedule") && hasMedicarePlaceholderPattern(pair.TemplateText, pair.ContractText) {
		relaxed := o.thresholds.Regex - 0.1
		if relaxed < 0.8 {
			relaxed = 0.8
		}
		threshold = relaxed
		explanation += "; Adjusted threshold for Medicare fee schedule placeholder replacement"
	}

	if res.Score < threshold {
		return classify.ClassificationResult{}, false
	}
	return classify.ClassificationResult{
		AttributeName:   pair.Name,
		IsStandard:      true,
		MatchType:       classify.MatchRegex,
		Confidence:      res.Score,
		Explanation:     explanation,
		MatchedSections: map[string]interface{}{"patterns": res.Details},
	}, true
}

func (o *Orchestrator) tryFuzzy(pair classify.AttributePair) (classify.ClassificationResult, bool) {
	res := o.fuzzy.Match(pair.ContractText, pair.TemplateText, pair.Name)
	o.metrics.ObserveStageScore("fuzzy", res.Score)

	if res.Score < o.thresholds.Fuzzy {
		return classify.ClassificationResult{}, false
	}
	return o.applyBusinessRules(pair, classify.MatchFuzzy, res.Score, res.Explanation,
		map[string]interface{}{"fuzzy_details": res.Details}), true
}

func (o *Orchestrator) trySemantic(ctx context.Context, pair classify.AttributePair) (classify.ClassificationResult, bool) {
	if o.semantic == nil {
		return classify.ClassificationResult{}, false
	}

	res, err := o.semantic.Match(ctx, pair.ContractText, pair.TemplateText, pair.Name)
	if err != nil {
		// A backend failure degrades to a rejected semantic stage so the
		// cascade can fall through to no-match.
		o.logger.Error("semantic matching failed", logging.String("attribute", pair.Name), logging.Err(err))
		o.metrics.IncStageFailure("semantic")
		return classify.ClassificationResult{}, false
	}
	o.metrics.ObserveStageScore("semantic", res.Score)

	if res.Score < o.thresholds.Semantic {
		return classify.ClassificationResult{}, false
	}
	return o.applyBusinessRules(pair, classify.MatchSemantic, res.Score, res.Explanation,
		map[string]interface{}{"semantic_details": res.Details}), true
}

// applyBusinessRules finalizes a fuzzy or semantic acceptance: an override
// is terminal as non-standard with zero confidence, otherwise the possibly
// boosted confidence carries through.
func (o *Orchestrator) applyBusinessRules(pair classify.AttributePair, matchType classify.MatchType, score float64, explanation string, sections map[string]interface{}) classify.ClassificationResult {
	if !o.thresholds.EnableBusinessRules {
		return classify.ClassificationResult{
			AttributeName:   pair.Name,
			IsStandard:      true,
			MatchType:       matchType,
			Confidence:      score,
			Explanation:     explanation,
			MatchedSections: sections,
		}
	}

	isStandard, confidence, businessExplanation := o.analyzer.EnhanceClassification(
		pair.ContractText, pair.Name, matchType, score)

	if !isStandard {
		o.metrics.IncOverride(matchType.String())
		sections["business_rule_override"] = true
		return classify.ClassificationResult{
			AttributeName:   pair.Name,
			IsStandard:      false,
			MatchType:       matchType,
			Confidence:      confidence,
			Explanation:     fmt.Sprintf("%s; OVERRIDE: %s", explanation, businessExplanation),
			MatchedSections: sections,
		}
	}

	if confidence != score {
		explanation = fmt.Sprintf("%s; %s", explanation, businessExplanation)
	}
	return classify.ClassificationResult{
		AttributeName:   pair.Name,
		IsStandard:      true,
		MatchType:       matchType,
		Confidence:      confidence,
		Explanation:     explanation,
		MatchedSections: sections,
	}
}

// ClassifyAll classifies a batch of attribute pairs with bounded
// concurrency. Results keep the input order. Cancelling the context stops
// unstarted attributes; those report a NO_MATCH result carrying the context
// error.
func (o *Orchestrator) ClassifyAll(ctx context.Context, pairs []classify.AttributePair) []classify.ClassificationResult {
	batchID := uuid.NewString()
	o.logger.Info("classifying batch",
		logging.String("batch_id", batchID),
		logging.Int("attributes", len(pairs)),
		logging.Int("concurrency", o.concurrency),
	)

	results := make([]classify.ClassificationResult, len(pairs))
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for i, pair := range pairs {
		if ctx.Err() != nil {
			results[i] = classify.ClassificationResult{
				AttributeName: pair.Name,
				IsStandard:    false,
				MatchType:     classify.MatchNone,
				Confidence:    0.0,
				Explanation:   "Classification aborted: " + ctx.Err().Error(),
			}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, p classify.AttributePair) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = o.Classify(ctx, p)
		}(i, pair)
	}

	wg.Wait()
	o.logger.Info("batch complete", logging.String("batch_id", batchID))
	return results
}

func hasMedicarePlaceholderPattern(templateText, contractText string) bool {
	hasPlaceholder := false
	for _, re := range medicarePlaceholderTemplates {
		if re.MatchString(templateText) {
			hasPlaceholder = true
			break
		}
	}
	if !hasPlaceholder {
		return false
	}
	for _, re := range medicareValuePatterns {
		if re.MatchString(contractText) {
			return true
		}
	}
	return false
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
