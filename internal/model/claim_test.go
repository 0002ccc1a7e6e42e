package model

import (
	"math"
	"testing"
)

func TestCoerceClaimType(t *testing.T) {
	tests := []struct {
		input    string
		expected ClaimType
	}{
		{"fact", ClaimTypeFact},
		{"opinion", ClaimTypeOpinion},
		{"experience", ClaimTypeExperience},
		{"FACT", ClaimTypeFact},
		{"garbage", ClaimTypeFact},
		{"", ClaimTypeFact},
	}

	for _, tt := range tests {
		got := CoerceClaimType(tt.input)
		if got != tt.expected {
			t.Errorf("CoerceClaimType(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestCoerceDomain(t *testing.T) {
	if got := CoerceDomain("health"); got != DomainHealth {
		t.Errorf("Expected health, got %s", got)
	}
	if got := CoerceDomain("astrology"); got != DomainGeneral {
		t.Errorf("Expected unknown domain to coerce to general, got %s", got)
	}
}

func TestIsHighRiskDomain(t *testing.T) {
	highRisk := []Domain{DomainHealth, DomainFinance, DomainPolitics}
	for _, d := range highRisk {
		if !d.IsHighRiskDomain() {
			t.Errorf("Expected %s to be high risk", d)
		}
	}
	if DomainDesign.IsHighRiskDomain() {
		t.Error("Expected design to not be high risk")
	}
}

func TestRiskLevelWeight(t *testing.T) {
	if RiskHigh.Weight() != 3 {
		t.Errorf("Expected high risk weight 3, got %d", RiskHigh.Weight())
	}
	if RiskMedium.Weight() != 2 {
		t.Errorf("Expected medium risk weight 2, got %d", RiskMedium.Weight())
	}
	if RiskLow.Weight() != 1 {
		t.Errorf("Expected low risk weight 1, got %d", RiskLow.Weight())
	}
}

func TestCoerceVerdict(t *testing.T) {
	tests := []struct {
		input    string
		expected Verdict
	}{
		{"true", VerdictTrue},
		{"false", VerdictFalse},
		{"mixed", VerdictMixed},
		{"unknown", VerdictUnknown},
		{"TRUE", VerdictTrue},
		{"partially true", VerdictUnknown},
		{"", VerdictUnknown},
	}

	for _, tt := range tests {
		got := CoerceVerdict(tt.input)
		if got != tt.expected {
			t.Errorf("CoerceVerdict(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestClamp01(t *testing.T) {
	if got := Clamp01(1.5); got != 1.0 {
		t.Errorf("Expected 1.0, got %f", got)
	}
	if got := Clamp01(-0.3); got != 0.0 {
		t.Errorf("Expected 0.0, got %f", got)
	}
	if got := Clamp01(0.42); got != 0.42 {
		t.Errorf("Expected 0.42, got %f", got)
	}
}

func TestSanitizeDim(t *testing.T) {
	if got := SanitizeDim(math.NaN()); got != 0.5 {
		t.Errorf("Expected NaN to coerce to 0.5, got %f", got)
	}
	if got := SanitizeDim(math.Inf(1)); got != 0.5 {
		t.Errorf("Expected +Inf to coerce to 0.5, got %f", got)
	}
	if got := SanitizeDim(2.0); got != 1.0 {
		t.Errorf("Expected out-of-range value to clamp to 1.0, got %f", got)
	}
}

func TestStageReached(t *testing.T) {
	if !StageFactCheck.Reached(StageClaims) {
		t.Error("Expected factcheck to have reached claims")
	}
	if StageClaims.Reached(StageScoring) {
		t.Error("Expected claims to not have reached scoring")
	}
	if !StageDone.Reached(StageDone) {
		t.Error("Expected done to have reached itself")
	}
}

func TestValueVectorSanitize(t *testing.T) {
	v := ValueVector{
		Epistemic: math.NaN(),
		Insight:   1.7,
		Practical: -0.2,
		Total:     math.Inf(-1),
	}
	v.Sanitize()

	if v.Epistemic != 0.5 {
		t.Errorf("Expected NaN epistemic to become 0.5, got %f", v.Epistemic)
	}
	if v.Insight != 1.0 {
		t.Errorf("Expected insight to clamp to 1.0, got %f", v.Insight)
	}
	if v.Practical != 0.0 {
		t.Errorf("Expected practical to clamp to 0.0, got %f", v.Practical)
	}
	if v.Total != 0.5 {
		t.Errorf("Expected -Inf total to become 0.5, got %f", v.Total)
	}
}

func TestReputationVoteWeight(t *testing.T) {
	p := ReputationProfile{Score: 50}
	if got := p.VoteWeight(); got != 0.5 {
		t.Errorf("Expected neutral reputation to weigh 0.5, got %f", got)
	}
	p.Score = 100
	if got := p.VoteWeight(); got != 1.0 {
		t.Errorf("Expected max reputation to weigh 1.0, got %f", got)
	}
	p.Score = 0
	if got := p.VoteWeight(); got != 0.0 {
		t.Errorf("Expected zero reputation to weigh 0.0, got %f", got)
	}
}

func TestHasVerifiedClaims(t *testing.T) {
	item := &ContentItem{}
	if item.HasVerifiedClaims() {
		t.Error("Expected item without insights to have no verified claims")
	}

	item.Insights = &Insights{
		Claims:     []Claim{{ID: "c1"}, {ID: "c2"}},
		FactChecks: []FactCheck{{ClaimID: "c1"}},
	}
	if item.HasVerifiedClaims() {
		t.Error("Expected incomplete fact checks to not count as verified")
	}

	item.Insights.FactChecks = append(item.Insights.FactChecks, FactCheck{ClaimID: "c2"})
	if !item.HasVerifiedClaims() {
		t.Error("Expected complete claim/check pairs to count as verified")
	}
}
