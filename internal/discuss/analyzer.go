package discuss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/llm"
	"github.com/trustpipe/trustpipe/internal/metrics"
	"github.com/trustpipe/trustpipe/internal/model"
)

// Analyzer scores the quality of the reply thread attached to a content
// item. When inference is unavailable it falls back to a length-based
// heuristic so the stage never blocks the pipeline.
type Analyzer struct {
	svc    *llm.Service
	cfg    model.DiscussionConfig
	logger *zap.Logger
}

// NewAnalyzer creates a discussion analyzer
func NewAnalyzer(svc *llm.Service, cfg model.DiscussionConfig, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{svc: svc, cfg: cfg, logger: logger}
}

type discussionSchema struct {
	Thread struct {
		Informativeness  float64 `json:"informativeness"`
		Civility         float64 `json:"civility"`
		ReasoningDepth   float64 `json:"reasoning_depth"`
		CrossPerspective float64 `json:"cross_perspective"`
		Summary          string  `json:"summary"`
	} `json:"thread"`
	Replies []struct {
		ID        string  `json:"id"`
		Role      string  `json:"role"`
		Epistemic float64 `json:"epistemic"`
		Insight   float64 `json:"insight"`
		Practical float64 `json:"practical"`
		Effort    float64 `json:"effort"`
	} `json:"replies"`
}

const discussSystem = `You analyze discussion threads. Score the thread on informativeness, civility, reasoning depth, and cross-perspective (each 0..1), give a one-sentence summary, and classify each reply's role as one of question|answer|evidence|opinion|moderation|other with per-reply quality scores. Respond with a single JSON object: {"thread": {"informativeness": .., "civility": .., "reasoning_depth": .., "cross_perspective": .., "summary": "..."}, "replies": [{"id": "...", "role": "...", "epistemic": .., "insight": .., "practical": .., "effort": ..}]}.`

// Analyze scores the thread for a content item with up to cfg.MaxReplies
// replies considered. Never returns an error.
func (a *Analyzer) Analyze(ctx context.Context, content *model.ContentItem, replies []model.Reply) model.DiscussionAnalysis {
	maxReplies := a.cfg.MaxReplies
	if maxReplies <= 0 {
		maxReplies = 20
	}
	if len(replies) > maxReplies {
		replies = replies[:maxReplies]
	}

	if a.svc.Enabled() && len(replies) > 0 {
		analysis, err := a.analyzeWithModel(ctx, content, replies)
		if err == nil {
			return analysis
		}
		a.logger.Warn("discussion analysis degraded to heuristic", zap.Error(err))
		metrics.StageFallbacks.WithLabelValues(string(model.StageDiscussion)).Inc()
	}

	return a.heuristic(replies)
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, content *model.ContentItem, replies []model.Reply) (model.DiscussionAnalysis, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Post:\n%s\n\nReplies:\n", llm.Truncate(llm.SanitizeUntrusted(content.Text), 1500))
	for _, r := range replies {
		fmt.Fprintf(&b, "[%s] %s\n", r.ID, llm.Truncate(llm.SanitizeUntrusted(r.Text), 400))
	}

	var out discussionSchema
	if err := a.svc.InferJSON(ctx, llm.InferRequest{System: discussSystem, Prompt: b.String(), MaxTokens: 1500}, &out); err != nil {
		return model.DiscussionAnalysis{}, err
	}

	known := make(map[string]bool, len(replies))
	for _, r := range replies {
		known[r.ID] = true
	}

	now := time.Now().UTC()
	perReply := make(map[string]model.ReplyContribution)
	for _, r := range out.Replies {
		if !known[r.ID] {
			continue // Model invented a reply ID; drop it
		}
		vec := model.ValueVector{
			Epistemic: r.Epistemic,
			Insight:   r.Insight,
			Practical: r.Practical,
			Effort:    r.Effort,
			UpdatedAt: now,
		}
		vec.Sanitize()
		perReply[r.ID] = model.ReplyContribution{
			Role:   model.CoerceReplyRole(r.Role),
			Vector: vec,
		}
	}

	return model.DiscussionAnalysis{
		Thread: model.ThreadQuality{
			Informativeness:  model.SanitizeDim(out.Thread.Informativeness),
			Civility:         model.SanitizeDim(out.Thread.Civility),
			ReasoningDepth:   model.SanitizeDim(out.Thread.ReasoningDepth),
			CrossPerspective: model.SanitizeDim(out.Thread.CrossPerspective),
			Summary:          out.Thread.Summary,
		},
		PerReply: perReply,
	}, nil
}

// heuristic scores the thread by reply length: longer replies read as more
// informative and effortful, civility and reasoning get fixed moderate
// defaults.
func (a *Analyzer) heuristic(replies []model.Reply) model.DiscussionAnalysis {
	now := time.Now().UTC()
	perReply := make(map[string]model.ReplyContribution, len(replies))

	totalLen := 0
	for _, r := range replies {
		totalLen += len(r.Text)

		effort := model.Clamp01(float64(len(r.Text)) / 400.0)
		vec := model.ValueVector{
			Epistemic: 0.4,
			Insight:   0.3,
			Practical: 0.3,
			Effort:    effort,
			UpdatedAt: now,
		}
		perReply[r.ID] = model.ReplyContribution{Role: model.RoleOther, Vector: vec}
	}

	informativeness := 0.0
	if len(replies) > 0 {
		avgLen := float64(totalLen) / float64(len(replies))
		informativeness = model.Clamp01(avgLen/400.0) * 0.8
	}

	return model.DiscussionAnalysis{
		Thread: model.ThreadQuality{
			Informativeness:  informativeness,
			Civility:         0.6,
			ReasoningDepth:   0.4,
			CrossPerspective: 0.3,
			Summary:          "heuristic estimate from reply lengths",
		},
		PerReply: perReply,
	}
}
