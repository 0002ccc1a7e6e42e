package policy

import (
	"testing"

	"github.com/trustpipe/trustpipe/internal/model"
)

func testResolver() *Resolver {
	return NewResolver(model.VerifyConfig{FalseConfidenceThreshold: 0.7}, nil)
}

func TestDecideCleanWhenNoCheckNeeded(t *testing.T) {
	r := testResolver()
	pre := &model.PrecheckResult{NeedsFactCheck: false, Confidence: 0.9}

	if got := r.Decide(pre, nil, nil); got != model.StatusClean {
		t.Errorf("Expected clean, got %s", got)
	}
}

func TestDecideBlockedOnConfidentFalse(t *testing.T) {
	r := testResolver()
	pre := &model.PrecheckResult{NeedsFactCheck: true}
	claims := []model.Claim{{ID: "c1", Domain: model.DomainHealth, RiskLevel: model.RiskHigh}}
	checks := []model.FactCheck{{ClaimID: "c1", Verdict: model.VerdictFalse, Confidence: 0.92}}

	if got := r.Decide(pre, claims, checks); got != model.StatusBlocked {
		t.Errorf("Expected blocked, got %s", got)
	}
}

func TestDecideLowConfidenceFalseIsNotBlocked(t *testing.T) {
	r := testResolver()
	pre := &model.PrecheckResult{NeedsFactCheck: true}
	claims := []model.Claim{{ID: "c1", Domain: model.DomainDesign}}
	checks := []model.FactCheck{{ClaimID: "c1", Verdict: model.VerdictFalse, Confidence: 0.5}}

	if got := r.Decide(pre, claims, checks); got != model.StatusClean {
		t.Errorf("Expected low-confidence false in low-risk domain to stay clean, got %s", got)
	}
}

func TestDecideContestedHighRiskNeedsReview(t *testing.T) {
	r := testResolver()
	pre := &model.PrecheckResult{NeedsFactCheck: true}
	claims := []model.Claim{{ID: "c1", Domain: model.DomainHealth, RiskLevel: model.RiskHigh}}

	for _, verdict := range []model.Verdict{model.VerdictMixed, model.VerdictUnknown} {
		checks := []model.FactCheck{{ClaimID: "c1", Verdict: verdict, Confidence: 0.5}}
		if got := r.Decide(pre, claims, checks); got != model.StatusNeedsReview {
			t.Errorf("Expected %s verdict on health claim to need review, got %s", verdict, got)
		}
	}
}

func TestDecideContestedLowRiskIsClean(t *testing.T) {
	r := testResolver()
	pre := &model.PrecheckResult{NeedsFactCheck: true}
	claims := []model.Claim{{ID: "c1", Domain: model.DomainProductivity}}
	checks := []model.FactCheck{{ClaimID: "c1", Verdict: model.VerdictUnknown, Confidence: 0.4}}

	if got := r.Decide(pre, claims, checks); got != model.StatusClean {
		t.Errorf("Expected contested low-risk claim to stay clean, got %s", got)
	}
}

func TestDecideBlockedWinsOverReview(t *testing.T) {
	r := testResolver()
	pre := &model.PrecheckResult{NeedsFactCheck: true}
	claims := []model.Claim{
		{ID: "c1", Domain: model.DomainHealth},
		{ID: "c2", Domain: model.DomainHealth},
	}
	checks := []model.FactCheck{
		{ClaimID: "c1", Verdict: model.VerdictMixed, Confidence: 0.5},
		{ClaimID: "c2", Verdict: model.VerdictFalse, Confidence: 0.9},
	}

	if got := r.Decide(pre, claims, checks); got != model.StatusBlocked {
		t.Errorf("Expected blocked to take precedence over review, got %s", got)
	}
}

func TestDecideAllTrueIsClean(t *testing.T) {
	r := testResolver()
	pre := &model.PrecheckResult{NeedsFactCheck: true}
	claims := []model.Claim{{ID: "c1", Domain: model.DomainHealth, RiskLevel: model.RiskHigh}}
	checks := []model.FactCheck{{ClaimID: "c1", Verdict: model.VerdictTrue, Confidence: 0.95}}

	if got := r.Decide(pre, claims, checks); got != model.StatusClean {
		t.Errorf("Expected verified claims to be clean, got %s", got)
	}
}

func TestDecideOnFailure(t *testing.T) {
	r := testResolver()
	if got := r.DecideOnFailure(); got != model.StatusNeedsReview {
		t.Errorf("Expected pipeline failure to resolve to needs_review, got %s", got)
	}
}

func TestValidateTransition(t *testing.T) {
	// needs_review is the only non-terminal state
	if err := ValidateTransition(model.StatusNeedsReview, model.StatusClean); err != nil {
		t.Errorf("Expected needs_review -> clean allowed, got %v", err)
	}
	if err := ValidateTransition(model.StatusNeedsReview, model.StatusBlocked); err != nil {
		t.Errorf("Expected needs_review -> blocked allowed, got %v", err)
	}
	if err := ValidateTransition(model.StatusClean, model.StatusBlocked); err == nil {
		t.Error("Expected clean -> blocked rejected")
	}
	if err := ValidateTransition(model.StatusBlocked, model.StatusClean); err == nil {
		t.Error("Expected blocked -> clean rejected")
	}
	if err := ValidateTransition("", model.StatusClean); err != nil {
		t.Errorf("Expected initial resolution allowed, got %v", err)
	}
	if err := ValidateTransition(model.StatusClean, model.StatusClean); err != nil {
		t.Errorf("Expected same-status no-op allowed, got %v", err)
	}
	if err := ValidateTransition(model.StatusNeedsReview, "published"); err == nil {
		t.Error("Expected invalid target status rejected")
	}
}
