package reputation

import (
	"context"

	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/model"
	"github.com/trustpipe/trustpipe/internal/store"
)

// Engine adjusts user reputation from pipeline and review outcomes.
// Scores live in [0,100] with 50 as the neutral default; the store clamps
// at the boundaries so repeated outcomes saturate instead of overflowing.
type Engine struct {
	reps   store.ReputationStore
	cfg    model.ReputationConfig
	logger *zap.Logger
}

// NewEngine creates a reputation engine
func NewEngine(reps store.ReputationStore, cfg model.ReputationConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{reps: reps, cfg: cfg, logger: logger}
}

// Profile returns the current profile, neutral when the user has none
func (e *Engine) Profile(ctx context.Context, userID string) (model.ReputationProfile, error) {
	return e.reps.GetReputation(ctx, userID)
}

// RecordContentOutcome adjusts the author's reputation from a scored
// item: above-midpoint total value raises it, below lowers it, scaled by
// the configured content weight.
func (e *Engine) RecordContentOutcome(ctx context.Context, authorID string, score model.ValueVector) error {
	delta := (score.Total - 0.5) * e.cfg.ContentWeight
	newScore, err := e.reps.Adjust(ctx, authorID, delta)
	if err != nil {
		return err
	}
	e.logger.Debug("content outcome applied to reputation",
		zap.String("author_id", authorID),
		zap.Float64("delta", delta),
		zap.Float64("score", newScore))
	return nil
}

// RecordVoteOutcome adjusts a reviewer's reputation after consensus
// resolves: matching the final decision earns the match delta, missing it
// costs the miss delta.
func (e *Engine) RecordVoteOutcome(ctx context.Context, reviewerID string, matched bool) error {
	delta := e.cfg.VoteMissDelta
	if matched {
		delta = e.cfg.VoteMatchDelta
	}
	newScore, err := e.reps.Adjust(ctx, reviewerID, delta)
	if err != nil {
		return err
	}
	e.logger.Debug("vote outcome applied to reputation",
		zap.String("reviewer_id", reviewerID),
		zap.Bool("matched", matched),
		zap.Float64("score", newScore))
	return nil
}
