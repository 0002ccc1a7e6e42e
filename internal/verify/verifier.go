package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/evidence"
	"github.com/trustpipe/trustpipe/internal/llm"
	"github.com/trustpipe/trustpipe/internal/metrics"
	"github.com/trustpipe/trustpipe/internal/model"
)

// Verifier resolves each claim to a verdict with weighted evidence.
// Verdicts and confidences are always coerced into range; an unparsable
// verifier response yields unknown at low confidence with a caveat, never
// an error that aborts the pipeline.
type Verifier struct {
	svc    *llm.Service
	scorer *evidence.Scorer
	cfg    model.VerifyConfig
	logger *zap.Logger
}

// NewVerifier creates a fact verifier
func NewVerifier(svc *llm.Service, scorer *evidence.Scorer, cfg model.VerifyConfig, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{svc: svc, scorer: scorer, cfg: cfg, logger: logger}
}

type verdictSchema struct {
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Evidence   []struct {
		Source  string `json:"source"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"evidence"`
	Caveats []string `json:"caveats"`
}

const verifySystem = `You are a fact verifier. Given a claim, classify it as one of exactly "true", "false", "mixed", or "unknown", with supporting evidence citations. Respond with a single JSON object: {"verdict": "true|false|mixed|unknown", "confidence": 0..1, "evidence": [{"source": "...", "url": "...", "snippet": "..."}], "caveats": [strings]}.`

// fallbackConfidence is assigned when verifier output cannot be parsed
const fallbackConfidence = 0.25

// Verify produces one FactCheck per claim, in claim order. Opinion claims
// are recorded as unknown without an inference call - opinions are not
// fact-checkable, but the record keeps the one-to-one invariant.
func (v *Verifier) Verify(ctx context.Context, content *model.ContentItem, claims []model.Claim) []model.FactCheck {
	checks := make([]model.FactCheck, 0, len(claims))
	for _, claim := range claims {
		checks = append(checks, v.verifyOne(ctx, claim))
	}
	return checks
}

func (v *Verifier) verifyOne(ctx context.Context, claim model.Claim) model.FactCheck {
	now := time.Now().UTC()

	if claim.Type == model.ClaimTypeOpinion {
		return model.FactCheck{
			ID:         uuid.NewString(),
			ClaimID:    claim.ID,
			Verdict:    model.VerdictUnknown,
			Confidence: 0.5,
			Caveats:    []string{"opinion claims are not fact-checkable"},
			CheckedAt:  now,
		}
	}

	check, err := v.verifyWithModel(ctx, claim)
	if err != nil {
		v.logger.Warn("fact verification degraded to unknown",
			zap.String("claim_id", claim.ID), zap.Error(err))
		metrics.StageFallbacks.WithLabelValues(string(model.StageFactCheck)).Inc()
		return model.FactCheck{
			ID:         uuid.NewString(),
			ClaimID:    claim.ID,
			Verdict:    model.VerdictUnknown,
			Confidence: fallbackConfidence,
			Caveats:    []string{"automatic fallback: verifier output unavailable or unparsable"},
			CheckedAt:  now,
		}
	}
	return check
}

func (v *Verifier) verifyWithModel(ctx context.Context, claim model.Claim) (model.FactCheck, error) {
	prompt := fmt.Sprintf("Verify this claim (domain: %s, risk: %s):\n\n%s",
		claim.Domain, claim.RiskLevel, llm.SanitizeUntrusted(claim.Text))

	var out verdictSchema
	if err := v.svc.InferJSON(ctx, llm.InferRequest{System: verifySystem, Prompt: prompt}, &out); err != nil {
		return model.FactCheck{}, err
	}

	evs := make([]model.Evidence, 0, len(out.Evidence))
	for _, e := range out.Evidence {
		evs = append(evs, model.Evidence{
			Source:  e.Source,
			URL:     e.URL,
			Snippet: e.Snippet,
		})
	}

	// Score evidence quality and drop anything at or below the discard
	// threshold before the verdict is finalized
	evs = v.scorer.Filter(v.scorer.Annotate(evs))

	verdict := model.CoerceVerdict(out.Verdict)
	confidence := model.SanitizeDim(out.Confidence)
	caveats := out.Caveats

	// A definitive verdict with no surviving evidence is downgraded: the
	// verifier asserted more than its citations support
	if len(evs) == 0 && (verdict == model.VerdictTrue || verdict == model.VerdictFalse) {
		confidence = confidence * 0.5
		caveats = append(caveats, "no evidence above quality threshold")
	} else if len(evs) > 0 {
		// Weight confidence by mean evidence quality
		confidence = model.Clamp01(confidence * (0.5 + 0.5*meanQuality(evs)))
	}

	return model.FactCheck{
		ID:         uuid.NewString(),
		ClaimID:    claim.ID,
		Verdict:    verdict,
		Confidence: confidence,
		Evidence:   evs,
		Caveats:    caveats,
		CheckedAt:  time.Now().UTC(),
	}, nil
}

func meanQuality(evs []model.Evidence) float64 {
	if len(evs) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range evs {
		sum += e.Quality
	}
	return sum / float64(len(evs))
}

// ConfidentFalseCount counts fact checks whose verdict is false above the
// configured confidence threshold. The threshold and the mixed/unknown
// exemption are policy, not constants; contested verdicts only count when
// PenalizeContested is set.
func (v *Verifier) ConfidentFalseCount(checks []model.FactCheck) int {
	count := 0
	for _, c := range checks {
		if c.Verdict == model.VerdictFalse && c.Confidence > v.cfg.FalseConfidenceThreshold {
			count++
			continue
		}
		if v.cfg.PenalizeContested && c.Verdict.IsContested() && c.Confidence > v.cfg.FalseConfidenceThreshold {
			count++
		}
	}
	return count
}
