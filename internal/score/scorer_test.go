package score

import (
	"math"
	"testing"

	"github.com/trustpipe/trustpipe/internal/model"
)

func TestWeightRowsSumToOne(t *testing.T) {
	check := func(name string, w Weights) {
		sum := w.Epistemic + w.Insight + w.Practical + w.Relational + w.Effort
		if math.Abs(sum-1.0) > 0.0001 {
			t.Errorf("Expected %s weights to sum to 1.0, got %f", name, sum)
		}
	}
	for domain, w := range domainWeights {
		check(string(domain), w)
	}
	check("default", defaultWeights)
}

func TestWeightsForDomainTable(t *testing.T) {
	if w := WeightsFor(model.DomainHealth); w.Epistemic != 0.35 {
		t.Errorf("Expected health epistemic weight 0.35, got %f", w.Epistemic)
	}
	if w := WeightsFor(model.DomainTechnology); w.Insight != 0.35 {
		t.Errorf("Expected technology insight weight 0.35, got %f", w.Insight)
	}
	if w := WeightsFor(model.DomainProductivity); w.Practical != 0.35 {
		t.Errorf("Expected productivity practical weight 0.35, got %f", w.Practical)
	}
	if w := WeightsFor(model.DomainGeneral); w.Epistemic != 0.30 {
		t.Errorf("Expected default epistemic weight 0.30, got %f", w.Epistemic)
	}
}

func TestDominantDomainRiskWeighted(t *testing.T) {
	claims := []model.Claim{
		{Domain: model.DomainHealth, RiskLevel: model.RiskHigh}, // Weight 3
		{Domain: model.DomainDesign, RiskLevel: model.RiskLow},  // Weight 1
		{Domain: model.DomainDesign, RiskLevel: model.RiskLow},  // Weight 1
	}
	got := DominantDomain(claims, model.DomainGeneral)
	if got != model.DomainHealth {
		t.Errorf("Expected one high-risk health claim to dominate two low-risk design claims, got %s", got)
	}
}

func TestDominantDomainTieFallsBackToTopic(t *testing.T) {
	claims := []model.Claim{
		{Domain: model.DomainHealth, RiskLevel: model.RiskMedium},
		{Domain: model.DomainFinance, RiskLevel: model.RiskMedium},
	}
	got := DominantDomain(claims, model.DomainStartups)
	if got != model.DomainStartups {
		t.Errorf("Expected tie to fall back to declared topic, got %s", got)
	}
}

func TestDominantDomainNoClaims(t *testing.T) {
	if got := DominantDomain(nil, model.DomainDesign); got != model.DomainDesign {
		t.Errorf("Expected declared topic with no claims, got %s", got)
	}
}

func TestScoreNoFactChecksCapsEpistemic(t *testing.T) {
	s := NewScorer(0.7)
	vec := s.Score(&model.ContentItem{Text: "a post", Topic: model.DomainGeneral}, nil, nil, nil)

	if vec.Epistemic > epistemicUncertaintyCeiling {
		t.Errorf("Expected epistemic capped at %f with no fact checks, got %f",
			epistemicUncertaintyCeiling, vec.Epistemic)
	}
}

func TestScoreConfidentFalsePenalty(t *testing.T) {
	s := NewScorer(0.7)
	content := &model.ContentItem{Text: "a post", Topic: model.DomainHealth}
	claims := []model.Claim{{ID: "c1", Domain: model.DomainHealth, RiskLevel: model.RiskHigh}}

	truthful := s.Score(content, claims,
		[]model.FactCheck{{ClaimID: "c1", Verdict: model.VerdictTrue, Confidence: 0.9}}, nil)
	debunked := s.Score(content, claims,
		[]model.FactCheck{{ClaimID: "c1", Verdict: model.VerdictFalse, Confidence: 0.9}}, nil)

	if debunked.Epistemic >= truthful.Epistemic {
		t.Errorf("Expected confident false to lower epistemic: %f vs %f",
			debunked.Epistemic, truthful.Epistemic)
	}
	if debunked.Total >= truthful.Total {
		t.Errorf("Expected confident false to lower total: %f vs %f",
			debunked.Total, truthful.Total)
	}
}

func TestScorePenaltyCapsAtEighty(t *testing.T) {
	s := NewScorer(0.7)
	// 5 confident falses: penalty factor = 1 - min(0.8, 1.25) = 0.2
	checks := make([]model.FactCheck, 5)
	for i := range checks {
		checks[i] = model.FactCheck{Verdict: model.VerdictFalse, Confidence: 0.95}
	}
	vec := s.Score(&model.ContentItem{Text: "a post"}, nil, checks, nil)
	if vec.Epistemic < 0 {
		t.Errorf("Expected epistemic to stay non-negative, got %f", vec.Epistemic)
	}
	if vec.Epistemic > 0.2 {
		t.Errorf("Expected heavily penalized epistemic, got %f", vec.Epistemic)
	}
}

func TestScoreSanitizesBadInputs(t *testing.T) {
	s := NewScorer(0.7)
	disc := &model.DiscussionAnalysis{
		Thread: model.ThreadQuality{
			Informativeness:  math.NaN(),
			Civility:         math.Inf(1),
			ReasoningDepth:   0.5,
			CrossPerspective: 0.5,
		},
	}
	vec := s.Score(&model.ContentItem{Text: "a post"}, nil,
		[]model.FactCheck{{Verdict: model.VerdictTrue, Confidence: math.NaN()}}, disc)

	dims := []float64{vec.Epistemic, vec.Insight, vec.Practical, vec.Relational, vec.Effort, vec.Total, vec.Confidence}
	for i, d := range dims {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 || d > 1 {
			t.Errorf("Expected dimension %d in [0,1], got %f", i, d)
		}
	}
}

func TestScoreTotalUsesDomainWeights(t *testing.T) {
	s := NewScorer(0.7)
	content := &model.ContentItem{Text: "a post", Topic: model.DomainGeneral}
	healthClaims := []model.Claim{{ID: "c1", Domain: model.DomainHealth, RiskLevel: model.RiskHigh}}
	checks := []model.FactCheck{{ClaimID: "c1", Verdict: model.VerdictTrue, Confidence: 0.9}}

	vec := s.Score(content, healthClaims, checks, nil)

	foundDomainDriver := false
	for _, d := range vec.Drivers {
		if d == "dominant domain: health" {
			foundDomainDriver = true
		}
	}
	if !foundDomainDriver {
		t.Errorf("Expected dominant domain driver, got %v", vec.Drivers)
	}
}

func TestScoreMissingDiscussionLowersConfidence(t *testing.T) {
	s := NewScorer(0.7)
	content := &model.ContentItem{Text: "a post"}
	checks := []model.FactCheck{{Verdict: model.VerdictTrue, Confidence: 0.9}}

	withDisc := s.Score(content, nil, checks, &model.DiscussionAnalysis{})
	withoutDisc := s.Score(content, nil, checks, nil)

	if withoutDisc.Confidence >= withDisc.Confidence {
		t.Errorf("Expected missing discussion to lower confidence: %f vs %f",
			withoutDisc.Confidence, withDisc.Confidence)
	}
}

func TestTemplateExplanations(t *testing.T) {
	claims := []model.Claim{{ID: "c1"}}
	falseChecks := []model.FactCheck{{Verdict: model.VerdictFalse, Confidence: 0.9}}

	blocked := Template(model.StatusBlocked, claims, falseChecks)
	if blocked == "" {
		t.Error("Expected non-empty blocked explanation")
	}

	clean := Template(model.StatusClean, nil, nil)
	if clean != "No factual claims requiring verification were found in this post." {
		t.Errorf("Unexpected clean explanation: %q", clean)
	}

	review := Template(model.StatusNeedsReview, claims,
		[]model.FactCheck{{Verdict: model.VerdictMixed, Confidence: 0.5}})
	if review == "" {
		t.Error("Expected non-empty review explanation")
	}
}
