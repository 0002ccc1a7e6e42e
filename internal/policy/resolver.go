package policy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/model"
)

// Resolver maps verification outcomes to a publish status. Deterministic
// and side-effect free; the same inputs always yield the same status.
//
// Precedence: a confidently false claim blocks regardless of anything
// else; a contested (mixed/unknown) claim in a high-risk domain sends the
// item to review; everything else is clean.
type Resolver struct {
	cfg    model.VerifyConfig
	logger *zap.Logger
}

// NewResolver creates a policy resolver
func NewResolver(cfg model.VerifyConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{cfg: cfg, logger: logger}
}

// Decide resolves the publish status from the pipeline's outputs.
// The pre-check short-circuit applies only when verification was skipped
// entirely; once claims exist, verdicts decide.
func (r *Resolver) Decide(pre *model.PrecheckResult, claims []model.Claim, checks []model.FactCheck) model.PublishStatus {
	if pre != nil && !pre.NeedsFactCheck && len(claims) == 0 {
		return model.StatusClean
	}

	claimByID := make(map[string]model.Claim, len(claims))
	for _, c := range claims {
		claimByID[c.ID] = c
	}

	needsReview := false
	for _, check := range checks {
		if check.Verdict == model.VerdictFalse && check.Confidence > r.cfg.FalseConfidenceThreshold {
			return model.StatusBlocked
		}
		if check.Verdict.IsContested() {
			claim, ok := claimByID[check.ClaimID]
			if ok && claim.Domain.IsHighRiskDomain() {
				needsReview = true
			}
		}
	}

	if needsReview {
		return model.StatusNeedsReview
	}
	return model.StatusClean
}

// DecideOnFailure is the status when the pipeline could not complete
// verification at all. Failing open to clean would let unverified
// high-risk content through; failing closed to blocked punishes authors
// for infrastructure faults. Review is the middle ground.
func (r *Resolver) DecideOnFailure() model.PublishStatus {
	return model.StatusNeedsReview
}

// ValidateTransition reports whether moving from one publish status to
// another is allowed. clean and blocked are terminal for the automated
// pipeline; only needs_review items move, and only via consensus.
func ValidateTransition(from, to model.PublishStatus) error {
	if !to.Valid() {
		return fmt.Errorf("invalid target status %q", to)
	}
	if from == to {
		return nil
	}
	// An unset status accepts any initial resolution
	if from == "" {
		return nil
	}
	if from != model.StatusNeedsReview {
		return fmt.Errorf("status %q is terminal, cannot move to %q", from, to)
	}
	return nil
}
