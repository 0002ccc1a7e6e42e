package precheck

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/llm"
	"github.com/trustpipe/trustpipe/internal/metrics"
	"github.com/trustpipe/trustpipe/internal/model"
)

// Classifier decides whether a content item needs fact verification at all.
// The inference service is the primary path; on failure it falls back to a
// deterministic heuristic rather than failing closed. When confidence is
// low the decision defaults to needing verification: underlying-claim
// detection, not surface framing, drives the outcome, so hedging a claim
// behind "I think" does not dodge it.
type Classifier struct {
	svc    *llm.Service
	cfg    model.PrecheckConfig
	logger *zap.Logger
}

// NewClassifier creates a risk classifier
func NewClassifier(svc *llm.Service, cfg model.PrecheckConfig, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{svc: svc, cfg: cfg, logger: logger}
}

// High-risk topic keywords (+0.35)
var highRiskTopics = []string{
	"vaccine", "vaccines", "vaccination", "autism", "cancer", "cure",
	"covid", "virus", "pandemic", "medication", "treatment", "diagnosis",
	"investment", "stock", "crypto", "bitcoin", "returns", "guaranteed",
	"election", "elections", "voting", "ballot", "fraud", "government",
	"conspiracy", "immigration", "climate",
}

// High-risk terms (+0.2)
var highRiskTerms = []string{
	"causes", "cures", "prevents", "proven", "dangerous", "toxic",
	"banned", "illegal", "scam", "hoax", "cover-up", "they don't want you to know",
}

// Authority phrasing (+0.15)
var authorityPhrases = []string{
	"according to", "study shows", "studies show", "research shows",
	"scientists say", "experts say", "data shows", "evidence shows",
}

// Statistical-claim patterns (+0.2)
var statPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+(\.\d+)?\s*(%|percent)\b`),
	regexp.MustCompile(`\b\d+\s*(times|x|fold)\s+(more|less|higher|lower)\b`),
	regexp.MustCompile(`\b(doubled|tripled|halved)\b`),
	regexp.MustCompile(`\b\d+\s+(out of|in)\s+\d+\b`),
}

type precheckSchema struct {
	NeedsFactCheck bool     `json:"needs_fact_check"`
	Confidence     float64  `json:"confidence"`
	ContentType    string   `json:"content_type"`
	RiskScore      float64  `json:"risk_score"`
	Signals        []string `json:"signals"`
}

const precheckSystem = `You are a content risk classifier. Given user-authored text, decide whether it contains verifiable factual claims that need fact-checking. Hedged or first-person framing ("I think", "in my experience") does NOT exempt an underlying factual claim. Respond with a single JSON object: {"needs_fact_check": bool, "confidence": 0..1, "content_type": "factual|news|opinion|experience|other", "risk_score": 0..1, "signals": [strings]}.`

// Classify runs the pre-check for a content item. It never returns an
// error; inference failure degrades to the heuristic.
func (c *Classifier) Classify(ctx context.Context, text, imageText, quotedText string) model.PrecheckResult {
	combined := combineInputs(text, imageText, quotedText)

	if c.svc.Enabled() {
		result, err := c.classifyWithModel(ctx, combined)
		if err == nil {
			return result
		}
		c.logger.Warn("precheck inference failed, using heuristic", zap.Error(err))
		metrics.StageFallbacks.WithLabelValues(string(model.StagePrecheck)).Inc()
	}

	return c.Heuristic(combined)
}

func (c *Classifier) classifyWithModel(ctx context.Context, text string) (model.PrecheckResult, error) {
	prompt := fmt.Sprintf("Classify the following content:\n\n%s", llm.Truncate(llm.SanitizeUntrusted(text), 4000))

	var out precheckSchema
	if err := c.svc.InferJSON(ctx, llm.InferRequest{System: precheckSystem, Prompt: prompt}, &out); err != nil {
		return model.PrecheckResult{}, err
	}

	result := model.PrecheckResult{
		NeedsFactCheck: out.NeedsFactCheck,
		Confidence:     model.SanitizeDim(out.Confidence),
		ContentType:    coerceContentType(out.ContentType),
		RiskScore:      model.SanitizeDim(out.RiskScore),
		Signals:        out.Signals,
	}

	// Fail open: an ambiguous classification never silently skips verification
	if result.Confidence < c.cfg.AmbiguousConfidence && !result.NeedsFactCheck {
		result.NeedsFactCheck = true
		result.Signals = append(result.Signals, "low_confidence_fail_open")
	}

	return result, nil
}

// Heuristic is the deterministic fallback classifier. Base risk 0.1 plus
// additive bumps for risky topics, risky terms, statistical patterns and
// authority phrasing, with length adjustments, clamped to [0,1].
func (c *Classifier) Heuristic(text string) model.PrecheckResult {
	lower := strings.ToLower(text)
	risk := 0.1
	var signals []string

	if containsAny(lower, highRiskTopics) {
		risk += 0.35
		signals = append(signals, "high_risk_topic")
	}
	if containsAny(lower, highRiskTerms) {
		risk += 0.2
		signals = append(signals, "high_risk_term")
	}
	for _, p := range statPatterns {
		if p.MatchString(lower) {
			risk += 0.2
			signals = append(signals, "statistical_claim")
			break
		}
	}
	if containsAny(lower, authorityPhrases) {
		risk += 0.15
		signals = append(signals, "authority_phrasing")
	}

	// Length adjustments: very short posts carry less claim surface,
	// long-form posts carry more
	switch {
	case len(text) < 40:
		risk -= 0.05
	case len(text) > 280:
		risk += 0.05
	}

	risk = model.Clamp01(risk)

	return model.PrecheckResult{
		NeedsFactCheck: risk >= c.cfg.RiskThreshold,
		Confidence:     0.5, // Heuristic output is always moderate confidence
		ContentType:    heuristicContentType(lower),
		RiskScore:      risk,
		Signals:        append(signals, "heuristic_fallback"),
	}
}

func combineInputs(text, imageText, quotedText string) string {
	var b strings.Builder
	b.WriteString(text)
	if imageText != "" {
		b.WriteString("\n[image] ")
		b.WriteString(imageText)
	}
	if quotedText != "" {
		b.WriteString("\n[quoted] ")
		b.WriteString(quotedText)
	}
	return b.String()
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func heuristicContentType(lower string) string {
	switch {
	case strings.Contains(lower, "i think") || strings.Contains(lower, "in my opinion"):
		return "opinion"
	case strings.Contains(lower, "i had") || strings.Contains(lower, "i went") ||
		strings.Contains(lower, "my experience"):
		return "experience"
	case containsAny(lower, authorityPhrases):
		return "factual"
	default:
		return "other"
	}
}

func coerceContentType(s string) string {
	switch s {
	case "factual", "news", "opinion", "experience", "other":
		return s
	default:
		return "other"
	}
}
