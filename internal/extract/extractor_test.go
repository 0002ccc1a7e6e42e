package extract

import (
	"context"
	"testing"
	"time"

	"github.com/trustpipe/trustpipe/internal/llm"
	"github.com/trustpipe/trustpipe/internal/model"
)

type fakeProvider struct {
	responses []string
	calls     int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Infer(_ context.Context, _ llm.InferRequest) (*llm.InferResponse, error) {
	resp := f.responses[f.calls%len(f.responses)]
	f.calls++
	return &llm.InferResponse{Content: resp}, nil
}

func (f *fakeProvider) IsAvailable(_ context.Context) bool { return true }

func testConfig() model.ExtractConfig {
	return model.ExtractConfig{MaxClaims: 10, FallbackConfidence: 0.35}
}

func newTestExtractor(provider llm.Provider) *Extractor {
	return NewExtractor(llm.NewService(provider, 100, 10, nil, 0, nil), testConfig(), nil)
}

func TestExtractFromModel(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`[{"text": "Vitamin D deficiency affects 40% of adults", "type": "fact", "domain": "health", "risk_level": "high", "confidence": 0.9}]`,
	}}
	e := newTestExtractor(provider)

	claims := e.Extract(context.Background(), &model.ContentItem{
		ID:   "c1",
		Text: "Vitamin D deficiency affects 40% of adults, get tested!",
	}, nil)

	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	if claims[0].Type != model.ClaimTypeFact {
		t.Errorf("Expected fact claim, got %s", claims[0].Type)
	}
	if claims[0].Domain != model.DomainHealth {
		t.Errorf("Expected health domain, got %s", claims[0].Domain)
	}
	if claims[0].ID == "" {
		t.Error("Expected claim to get an ID")
	}
}

func TestExtractCoercesUnknownEnums(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`[{"text": "Something happened", "type": "speculation", "domain": "astrology", "risk_level": "extreme", "confidence": 3.5}]`,
	}}
	e := newTestExtractor(provider)

	claims := e.Extract(context.Background(), &model.ContentItem{ID: "c1", Text: "Something happened."}, nil)
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
	if claims[0].Type != model.ClaimTypeFact {
		t.Errorf("Expected unknown type to coerce to fact, got %s", claims[0].Type)
	}
	if claims[0].Domain != model.DomainGeneral {
		t.Errorf("Expected unknown domain to coerce to general, got %s", claims[0].Domain)
	}
	if claims[0].RiskLevel != model.RiskMedium {
		t.Errorf("Expected unknown risk to coerce to medium, got %s", claims[0].RiskLevel)
	}
	if claims[0].Confidence != 1.0 {
		t.Errorf("Expected confidence clamped to 1.0, got %f", claims[0].Confidence)
	}
}

func TestExtractHeuristicFallback(t *testing.T) {
	// Disabled inference forces the sentence heuristic
	e := newTestExtractor(nil)

	claims := e.Extract(context.Background(), &model.ContentItem{
		ID:   "c1",
		Text: "Coffee stunts your growth. It was proven decades ago. Everyone knows this.",
	}, nil)

	if len(claims) == 0 {
		t.Fatal("Expected heuristic claims, got none")
	}
	if len(claims) > 3 {
		t.Errorf("Expected at most 3 heuristic claims, got %d", len(claims))
	}
	for _, c := range claims {
		if c.Heuristic != "sentence_fallback" {
			t.Errorf("Expected sentence_fallback marker, got %q", c.Heuristic)
		}
		if c.Confidence != 0.35 {
			t.Errorf("Expected fallback confidence 0.35, got %f", c.Confidence)
		}
	}
}

func TestExtractHeuristicFirstPersonIsExperience(t *testing.T) {
	e := newTestExtractor(nil)

	claims := e.Extract(context.Background(), &model.ContentItem{
		ID:   "c1",
		Text: "I stopped eating sugar and my headaches vanished completely.",
	}, nil)

	if len(claims) == 0 {
		t.Fatal("Expected heuristic claims, got none")
	}
	if claims[0].Type != model.ClaimTypeExperience {
		t.Errorf("Expected first-person sentence classified as experience, got %s", claims[0].Type)
	}
}

func TestExtractHeuristicLeadingContractionIsExperience(t *testing.T) {
	e := newTestExtractor(nil)

	claims := e.Extract(context.Background(), &model.ContentItem{
		ID:   "c1",
		Text: "I'm feeling sick today after taking the supplement.",
	}, nil)

	if len(claims) == 0 {
		t.Fatal("Expected heuristic claims, got none")
	}
	if claims[0].Type != model.ClaimTypeExperience {
		t.Errorf("Expected leading contraction classified as experience, got %s", claims[0].Type)
	}
}

func TestExtractRetriesWithStrictPrompt(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`[]`,
		`[{"text": "The earth orbits the sun", "type": "fact", "domain": "general", "risk_level": "low", "confidence": 0.99}]`,
	}}
	e := newTestExtractor(provider)

	claims := e.Extract(context.Background(), &model.ContentItem{
		ID:   "c1",
		Text: "Fun fact: the earth orbits the sun.",
	}, nil)

	if provider.calls != 2 {
		t.Errorf("Expected 2 extraction attempts, got %d", provider.calls)
	}
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim from strict retry, got %d", len(claims))
	}
}

func TestExtractReusesVerifiedQuotedClaims(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`[{"text": "This take is overblown", "type": "opinion", "domain": "general", "risk_level": "low", "confidence": 0.8}]`,
	}}
	e := newTestExtractor(provider)

	now := time.Now().UTC()
	quoted := &model.ContentItem{
		ID:   "q1",
		Text: "Measles cases tripled last year.",
		Insights: &model.Insights{
			Claims: []model.Claim{{
				ID: "qc1", Text: "Measles cases tripled last year",
				Type: model.ClaimTypeFact, Domain: model.DomainHealth,
				RiskLevel: model.RiskHigh, Confidence: 0.9, ExtractedAt: now,
			}},
			FactChecks: []model.FactCheck{{ID: "f1", ClaimID: "qc1", Verdict: model.VerdictTrue}},
		},
	}

	claims := e.Extract(context.Background(), &model.ContentItem{
		ID: "c2", Text: "This take is overblown.", QuotedID: "q1",
	}, quoted)

	if len(claims) != 2 {
		t.Fatalf("Expected extracted claim plus reused quoted claim, got %d", len(claims))
	}
	foundReused := false
	for _, c := range claims {
		if c.ID == "qc1" {
			foundReused = true
		}
	}
	if !foundReused {
		t.Error("Expected quoted item's verified claim to be reused with its ID intact")
	}
}

func TestExtractSkipsNearDuplicateQuotedClaims(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`[{"text": "Measles cases tripled last year", "type": "fact", "domain": "health", "risk_level": "high", "confidence": 0.9}]`,
	}}
	e := newTestExtractor(provider)

	quoted := &model.ContentItem{
		ID:   "q1",
		Text: "Measles cases tripled last year.",
		Insights: &model.Insights{
			Claims:     []model.Claim{{ID: "qc1", Text: "Measles cases TRIPLED last year!"}},
			FactChecks: []model.FactCheck{{ID: "f1", ClaimID: "qc1"}},
		},
	}

	claims := e.Extract(context.Background(), &model.ContentItem{
		ID: "c2", Text: "Measles cases tripled last year.", QuotedID: "q1",
	}, quoted)

	if len(claims) != 1 {
		t.Fatalf("Expected near-duplicate quoted claim skipped, got %d claims", len(claims))
	}
}

func TestExtractCapsClaims(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`[{"text": "a1"}, {"text": "a2"}, {"text": "a3"}, {"text": "a4"}]`,
	}}
	e := NewExtractor(llm.NewService(provider, 100, 10, nil, 0, nil),
		model.ExtractConfig{MaxClaims: 2, FallbackConfidence: 0.35}, nil)

	claims := e.Extract(context.Background(), &model.ContentItem{ID: "c1", Text: "lots of assertions"}, nil)
	if len(claims) != 2 {
		t.Errorf("Expected claims capped at 2, got %d", len(claims))
	}
}

func TestStripHTML(t *testing.T) {
	input := `<p>Visible text</p><script>alert("nope")</script><style>.x{}</style>`
	got := StripHTML(input)
	if got != "Visible text" {
		t.Errorf("Expected 'Visible text', got %q", got)
	}
}

func TestStripHTMLPlainTextPassthrough(t *testing.T) {
	if got := StripHTML("  just text  "); got != "just text" {
		t.Errorf("Expected trimmed passthrough, got %q", got)
	}
}

func TestDedupeClaims(t *testing.T) {
	claims := dedupeClaims([]model.Claim{
		{ID: "1", Text: "Coffee is healthy"},
		{ID: "2", Text: "coffee is HEALTHY!"},
		{ID: "3", Text: "Tea is healthy"},
	})
	if len(claims) != 2 {
		t.Errorf("Expected 2 unique claims, got %d", len(claims))
	}
}
