package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/trustpipe/trustpipe/internal/evidence"
	"github.com/trustpipe/trustpipe/internal/llm"
	"github.com/trustpipe/trustpipe/internal/model"
)

type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Infer(_ context.Context, _ llm.InferRequest) (*llm.InferResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.InferResponse{Content: f.response}, nil
}

func (f *fakeProvider) IsAvailable(_ context.Context) bool { return f.err == nil }

func testVerifier(provider llm.Provider) *Verifier {
	scorer := evidence.NewScorer(model.EvidenceConfig{
		DiscardThreshold: 0.2, DefaultQuality: 0.5, NoURLQuality: 0.3,
	})
	svc := llm.NewService(provider, 100, 10, nil, 0, nil)
	return NewVerifier(svc, scorer, model.VerifyConfig{FalseConfidenceThreshold: 0.7}, nil)
}

func factClaim(id, text string) model.Claim {
	return model.Claim{ID: id, Text: text, Type: model.ClaimTypeFact,
		Domain: model.DomainHealth, RiskLevel: model.RiskHigh}
}

func TestVerifyProducesOneCheckPerClaim(t *testing.T) {
	provider := &fakeProvider{
		response: `{"verdict": "true", "confidence": 0.9, "evidence": [{"source": "CDC", "url": "https://cdc.gov/data", "snippet": "..."}], "caveats": []}`,
	}
	v := testVerifier(provider)

	claims := []model.Claim{factClaim("c1", "claim one"), factClaim("c2", "claim two")}
	checks := v.Verify(context.Background(), &model.ContentItem{ID: "x"}, claims)

	if len(checks) != 2 {
		t.Fatalf("Expected 2 fact checks, got %d", len(checks))
	}
	for i, check := range checks {
		if check.ClaimID != claims[i].ID {
			t.Errorf("Expected check %d to reference claim %s, got %s", i, claims[i].ID, check.ClaimID)
		}
	}
}

func TestVerifyOpinionSkipsInference(t *testing.T) {
	provider := &fakeProvider{response: `{"verdict": "true", "confidence": 0.9}`}
	v := testVerifier(provider)

	claims := []model.Claim{{ID: "c1", Text: "Pineapple belongs on pizza", Type: model.ClaimTypeOpinion}}
	checks := v.Verify(context.Background(), &model.ContentItem{ID: "x"}, claims)

	if provider.calls != 0 {
		t.Errorf("Expected no inference call for opinion, got %d", provider.calls)
	}
	if checks[0].Verdict != model.VerdictUnknown {
		t.Errorf("Expected unknown verdict for opinion, got %s", checks[0].Verdict)
	}
}

func TestVerifyParseFailureFallsBackToUnknown(t *testing.T) {
	provider := &fakeProvider{response: "I could not really decide here, sorry."}
	v := testVerifier(provider)

	checks := v.Verify(context.Background(), &model.ContentItem{ID: "x"},
		[]model.Claim{factClaim("c1", "some claim")})

	if checks[0].Verdict != model.VerdictUnknown {
		t.Errorf("Expected unknown verdict on parse failure, got %s", checks[0].Verdict)
	}
	if checks[0].Confidence != 0.25 {
		t.Errorf("Expected fallback confidence 0.25, got %f", checks[0].Confidence)
	}
	if len(checks[0].Caveats) == 0 {
		t.Error("Expected a caveat marking the fallback")
	}
}

func TestVerifyProviderErrorFallsBackToUnknown(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream down")}
	v := testVerifier(provider)

	checks := v.Verify(context.Background(), &model.ContentItem{ID: "x"},
		[]model.Claim{factClaim("c1", "some claim")})

	if checks[0].Verdict != model.VerdictUnknown {
		t.Errorf("Expected unknown verdict on provider error, got %s", checks[0].Verdict)
	}
	if checks[0].Confidence != 0.25 {
		t.Errorf("Expected fallback confidence 0.25, got %f", checks[0].Confidence)
	}
}

func TestVerifyCoercesInvalidVerdict(t *testing.T) {
	provider := &fakeProvider{
		response: `{"verdict": "probably true", "confidence": 0.8, "evidence": [], "caveats": []}`,
	}
	v := testVerifier(provider)

	checks := v.Verify(context.Background(), &model.ContentItem{ID: "x"},
		[]model.Claim{factClaim("c1", "some claim")})

	if checks[0].Verdict != model.VerdictUnknown {
		t.Errorf("Expected invalid verdict coerced to unknown, got %s", checks[0].Verdict)
	}
}

func TestVerifyDropsLowQualityEvidence(t *testing.T) {
	provider := &fakeProvider{
		response: `{"verdict": "false", "confidence": 0.9, "evidence": [{"source": "a tweet", "url": "https://twitter.com/x/status/1", "snippet": "..."}], "caveats": []}`,
	}
	v := testVerifier(provider)

	checks := v.Verify(context.Background(), &model.ContentItem{ID: "x"},
		[]model.Claim{factClaim("c1", "some claim")})

	if len(checks[0].Evidence) != 0 {
		t.Errorf("Expected low-quality evidence dropped, got %d entries", len(checks[0].Evidence))
	}
	// Definitive verdict with no surviving evidence is downgraded
	if checks[0].Confidence >= 0.9 {
		t.Errorf("Expected confidence downgraded below 0.9, got %f", checks[0].Confidence)
	}
}

func TestVerifyWeightsConfidenceByEvidenceQuality(t *testing.T) {
	provider := &fakeProvider{
		response: `{"verdict": "true", "confidence": 0.8, "evidence": [{"source": "CDC", "url": "https://cdc.gov/page", "snippet": "..."}], "caveats": []}`,
	}
	v := testVerifier(provider)

	checks := v.Verify(context.Background(), &model.ContentItem{ID: "x"},
		[]model.Claim{factClaim("c1", "some claim")})

	// 0.8 * (0.5 + 0.5*0.95) = 0.78
	expected := 0.8 * (0.5 + 0.5*0.95)
	if diff := checks[0].Confidence - expected; diff > 0.0001 || diff < -0.0001 {
		t.Errorf("Expected confidence %f, got %f", expected, checks[0].Confidence)
	}
}

func TestConfidentFalseCount(t *testing.T) {
	v := testVerifier(nil)

	checks := []model.FactCheck{
		{Verdict: model.VerdictFalse, Confidence: 0.9},
		{Verdict: model.VerdictFalse, Confidence: 0.5}, // Below threshold
		{Verdict: model.VerdictMixed, Confidence: 0.9}, // Contested, not penalized by default
		{Verdict: model.VerdictTrue, Confidence: 0.95},
	}

	if got := v.ConfidentFalseCount(checks); got != 1 {
		t.Errorf("Expected 1 confident false, got %d", got)
	}
}

func TestConfidentFalseCountPenalizeContested(t *testing.T) {
	scorer := evidence.NewScorer(model.EvidenceConfig{DefaultQuality: 0.5, NoURLQuality: 0.3})
	v := NewVerifier(llm.NewService(nil, 1, 1, nil, 0, nil), scorer,
		model.VerifyConfig{FalseConfidenceThreshold: 0.7, PenalizeContested: true}, nil)

	checks := []model.FactCheck{
		{Verdict: model.VerdictMixed, Confidence: 0.9},
		{Verdict: model.VerdictUnknown, Confidence: 0.8},
		{Verdict: model.VerdictUnknown, Confidence: 0.3},
	}

	if got := v.ConfidentFalseCount(checks); got != 2 {
		t.Errorf("Expected 2 penalized contested verdicts, got %d", got)
	}
}
