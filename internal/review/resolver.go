package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/evidence"
	"github.com/trustpipe/trustpipe/internal/metrics"
	"github.com/trustpipe/trustpipe/internal/model"
	"github.com/trustpipe/trustpipe/internal/reputation"
	"github.com/trustpipe/trustpipe/internal/store"
)

var (
	// ErrNotReviewable is returned when voting on content that is not in
	// the needs_review state
	ErrNotReviewable = errors.New("content is not under review")

	// ErrInvalidVote is returned when a vote fails validation
	ErrInvalidVote = errors.New("invalid vote")
)

// Resolver is the review consensus engine: it accepts weighted reviewer
// votes on needs_review items and resolves them to clean or blocked once
// quorum and supermajority are met. Votes are append-only; the status
// commit is a compare-and-swap so a racing resolution wins at most once.
type Resolver struct {
	contents   store.ContentStore
	votes      store.VoteStore
	reputation *reputation.Engine
	validator  *evidence.Validator

	cfg       model.ReviewConfig
	verifyCfg model.VerifyConfig
	logger    *zap.Logger
}

// NewResolver creates a review consensus resolver. validator may be nil
// when source probing is disabled.
func NewResolver(contents store.ContentStore, votes store.VoteStore, rep *reputation.Engine,
	validator *evidence.Validator, cfg model.ReviewConfig, verifyCfg model.VerifyConfig,
	logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		contents:   contents,
		votes:      votes,
		reputation: rep,
		validator:  validator,
		cfg:        cfg,
		verifyCfg:  verifyCfg,
		logger:     logger,
	}
}

// SubmitReviewVote validates and records one reviewer's vote, then
// evaluates consensus. The vote persists even when the evaluation cannot
// resolve yet.
func (r *Resolver) SubmitReviewVote(ctx context.Context, contentID, reviewerID string, action model.VoteAction, sources []string, justification string) error {
	if err := validateVote(action, sources, justification); err != nil {
		return err
	}

	content, err := r.contents.Get(ctx, contentID)
	if err != nil {
		return fmt.Errorf("load content %s: %w", contentID, err)
	}
	if content.Status != model.StatusNeedsReview {
		return ErrNotReviewable
	}

	if r.validator != nil {
		if err := r.checkSources(ctx, sources); err != nil {
			return err
		}
	}

	vote := &model.ReviewVote{
		ID:            uuid.NewString(),
		ContentID:     contentID,
		ReviewerID:    reviewerID,
		Action:        action,
		Sources:       sources,
		Justification: strings.TrimSpace(justification),
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.votes.Insert(ctx, vote); err != nil {
		return err
	}

	return r.Evaluate(ctx, contentID)
}

// GetPublishStatus returns the current publish status of a content item
func (r *Resolver) GetPublishStatus(ctx context.Context, contentID string) (model.PublishStatus, error) {
	content, err := r.contents.Get(ctx, contentID)
	if err != nil {
		return "", err
	}
	return content.Status, nil
}

// Evaluate checks whether the votes on a content item now resolve it.
// Below quorum, or without a supermajority, nothing changes.
func (r *Resolver) Evaluate(ctx context.Context, contentID string) error {
	votes, err := r.votes.ListByContent(ctx, contentID)
	if err != nil {
		return fmt.Errorf("list votes on %s: %w", contentID, err)
	}
	if len(votes) < r.cfg.MinVotes {
		return nil
	}

	content, err := r.contents.Get(ctx, contentID)
	if err != nil {
		return fmt.Errorf("load content %s: %w", contentID, err)
	}
	if content.Status != model.StatusNeedsReview {
		return nil // Already resolved by an earlier evaluation
	}

	weighted, err := r.weigh(ctx, votes)
	if err != nil {
		return err
	}

	decision := r.decide(content, weighted)
	if decision == model.StatusNeedsReview {
		return nil // No consensus yet
	}

	// Atomic still-needs_review re-check: a concurrent evaluation may have
	// committed between the read above and here
	swapped, err := r.contents.UpdateStatusIf(ctx, contentID, model.StatusNeedsReview, decision)
	if err != nil {
		return fmt.Errorf("commit consensus on %s: %w", contentID, err)
	}
	if !swapped {
		return nil
	}

	metrics.ConsensusDecisions.WithLabelValues(string(decision)).Inc()
	r.logger.Info("review consensus resolved",
		zap.String("content_id", contentID),
		zap.String("decision", string(decision)),
		zap.Int("votes", len(votes)))

	r.settleReviewers(ctx, votes, decision)
	return nil
}

// EscalateExpired flags items that sat in review past the configured
// expiry. They stay needs_review; escalation is a signal for operators,
// never an automatic status change.
func (r *Resolver) EscalateExpired(ctx context.Context) ([]string, error) {
	if r.cfg.Expiry <= 0 {
		return nil, nil
	}
	cutoff := time.Now().Add(-r.cfg.Expiry).Unix()
	ids, err := r.contents.ListStatusOlderThan(ctx, model.StatusNeedsReview, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired review items: %w", err)
	}
	for _, id := range ids {
		metrics.ReviewEscalations.Inc()
		r.logger.Warn("review item exceeded expiry window", zap.String("content_id", id))
	}
	return ids, nil
}

type weightedVote struct {
	vote   model.ReviewVote
	weight float64
}

// weigh assigns each vote its reputation weight, damping coordinated
// lookalikes: votes sharing a source list or justification opening keep
// full weight only for the first of each group.
func (r *Resolver) weigh(ctx context.Context, votes []model.ReviewVote) ([]weightedVote, error) {
	damping := r.cfg.DampingFactor
	if damping <= 0 || damping > 1 {
		damping = 1
	}

	seen := make(map[string]bool)
	weighted := make([]weightedVote, 0, len(votes))
	for _, v := range votes {
		profile, err := r.reputation.Profile(ctx, v.ReviewerID)
		if err != nil {
			return nil, fmt.Errorf("load reputation of %s: %w", v.ReviewerID, err)
		}
		w := profile.VoteWeight()

		fp := voteFingerprint(v)
		if seen[fp] {
			w *= damping
		}
		seen[fp] = true

		weighted = append(weighted, weightedVote{vote: v, weight: w})
	}
	return weighted, nil
}

// decide applies the consensus thresholds. A confidently false verdict in
// the item's fact checks cannot be voted away: the only consensus outcome
// it admits is blocked. Contested verdicts (mixed/unknown) need more than
// the supermajority for a clean override: both the weighted fraction and
// the raw head count of validate votes must clear the override bar, so a
// handful of high-reputation reviewers cannot carry the override alone.
func (r *Resolver) decide(content *model.ContentItem, weighted []weightedVote) model.PublishStatus {
	var validate, total float64
	validateCount := 0
	for _, wv := range weighted {
		total += wv.weight
		if wv.vote.Action == model.ActionValidate {
			validate += wv.weight
			validateCount++
		}
	}
	if total <= 0 {
		return model.StatusNeedsReview
	}

	validateFrac := validate / total
	invalidateFrac := 1 - validateFrac

	hasConfidentFalse, hasContested := r.verdictFlags(content)

	if invalidateFrac >= r.cfg.Supermajority {
		return model.StatusBlocked
	}

	if validateFrac < r.cfg.Supermajority || hasConfidentFalse {
		return model.StatusNeedsReview
	}
	if hasContested {
		countFrac := float64(validateCount) / float64(len(weighted))
		if validateFrac < r.cfg.OverrideBar || countFrac < r.cfg.OverrideBar {
			return model.StatusNeedsReview
		}
	}
	return model.StatusClean
}

func (r *Resolver) verdictFlags(content *model.ContentItem) (confidentFalse, contested bool) {
	if content.Insights == nil {
		return false, false
	}
	for _, c := range content.Insights.FactChecks {
		if c.Verdict == model.VerdictFalse && c.Confidence > r.verifyCfg.FalseConfidenceThreshold {
			confidentFalse = true
		}
		if c.Verdict.IsContested() {
			contested = true
		}
	}
	return confidentFalse, contested
}

// settleReviewers adjusts voter reputation against the final decision
func (r *Resolver) settleReviewers(ctx context.Context, votes []model.ReviewVote, decision model.PublishStatus) {
	for _, v := range votes {
		matched := (decision == model.StatusClean && v.Action == model.ActionValidate) ||
			(decision == model.StatusBlocked && v.Action == model.ActionInvalidate)
		if err := r.reputation.RecordVoteOutcome(ctx, v.ReviewerID, matched); err != nil {
			r.logger.Error("record vote outcome",
				zap.String("reviewer_id", v.ReviewerID), zap.Error(err))
		}
	}
}

// checkSources HEAD-probes the cited URLs; a vote citing only dead or
// disallowed links is rejected.
func (r *Resolver) checkSources(ctx context.Context, sources []string) error {
	results := r.validator.ValidateAll(ctx, sources)
	accessible := 0
	for _, res := range results {
		if res.IsAccessible {
			accessible++
		}
	}
	if accessible == 0 {
		return fmt.Errorf("%w: no cited source is reachable", ErrInvalidVote)
	}
	return nil
}

func validateVote(action model.VoteAction, sources []string, justification string) error {
	if !action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidVote, action)
	}
	if len(sources) < model.MinVoteSources || len(sources) > model.MaxVoteSources {
		return fmt.Errorf("%w: need between %d and %d sources, got %d",
			ErrInvalidVote, model.MinVoteSources, model.MaxVoteSources, len(sources))
	}
	for _, s := range sources {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: empty source entry", ErrInvalidVote)
		}
	}
	j := strings.TrimSpace(justification)
	if len(j) < model.MinJustificationLen || len(j) > model.MaxJustificationLen {
		return fmt.Errorf("%w: justification must be %d to %d characters, got %d",
			ErrInvalidVote, model.MinJustificationLen, model.MaxJustificationLen, len(j))
	}
	return nil
}

// voteFingerprint identifies coordinated-looking votes: same source set
// or same justification opening.
func voteFingerprint(v model.ReviewVote) string {
	sources := append([]string(nil), v.Sources...)
	sort.Strings(sources)
	j := strings.ToLower(strings.TrimSpace(v.Justification))
	if len(j) > 40 {
		j = j[:40]
	}
	return strings.Join(sources, "|") + "\x00" + j
}
