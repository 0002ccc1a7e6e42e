package score

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/llm"
	"github.com/trustpipe/trustpipe/internal/model"
)

// Explainer produces the user-facing one-liner attached to a scored item.
// Model-generated when inference is available, templated otherwise; either
// way it states what was checked and what was found, never internal
// thresholds.
type Explainer struct {
	svc    *llm.Service
	logger *zap.Logger
}

// NewExplainer creates an explanation generator
func NewExplainer(svc *llm.Service, logger *zap.Logger) *Explainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Explainer{svc: svc, logger: logger}
}

const explainSystem = `You write one-sentence, neutral explanations of automated content checks for end users. State how many claims were checked and the overall finding. No scores, no thresholds, no jargon. Respond with the sentence only, no JSON.`

// Explain returns a short human-readable summary of the verification
// outcome. Never returns an error; generation failure degrades to the
// deterministic template.
func (e *Explainer) Explain(ctx context.Context, status model.PublishStatus, claims []model.Claim, checks []model.FactCheck) string {
	if e.svc.Enabled() {
		if text, err := e.explainWithModel(ctx, status, claims, checks); err == nil && text != "" {
			return text
		} else if err != nil {
			e.logger.Warn("explanation generation degraded to template", zap.Error(err))
		}
	}
	return Template(status, claims, checks)
}

func (e *Explainer) explainWithModel(ctx context.Context, status model.PublishStatus, claims []model.Claim, checks []model.FactCheck) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Outcome: %s. Claims checked: %d.\n", status, len(claims))
	for _, c := range checks {
		fmt.Fprintf(&b, "- verdict %s (confidence %.2f)\n", c.Verdict, c.Confidence)
	}

	resp, err := e.svc.Infer(ctx, llm.InferRequest{
		System:    explainSystem,
		Prompt:    b.String(),
		MaxTokens: 120,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// Template is the deterministic fallback explanation
func Template(status model.PublishStatus, claims []model.Claim, checks []model.FactCheck) string {
	counts := map[model.Verdict]int{}
	for _, c := range checks {
		counts[c.Verdict]++
	}

	switch status {
	case model.StatusBlocked:
		return fmt.Sprintf("This post was held: %d of %d checked claim(s) did not match available evidence.",
			counts[model.VerdictFalse], len(checks))
	case model.StatusNeedsReview:
		contested := counts[model.VerdictMixed] + counts[model.VerdictUnknown]
		return fmt.Sprintf("This post is under review: %d of %d checked claim(s) could not be confirmed either way.",
			contested, len(checks))
	default:
		if len(claims) == 0 {
			return "No factual claims requiring verification were found in this post."
		}
		return fmt.Sprintf("%d claim(s) were checked and no issues were found.", len(claims))
	}
}
