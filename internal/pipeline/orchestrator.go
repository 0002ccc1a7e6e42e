package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/checkpoint"
	"github.com/trustpipe/trustpipe/internal/discuss"
	"github.com/trustpipe/trustpipe/internal/extract"
	"github.com/trustpipe/trustpipe/internal/metrics"
	"github.com/trustpipe/trustpipe/internal/model"
	"github.com/trustpipe/trustpipe/internal/policy"
	"github.com/trustpipe/trustpipe/internal/precheck"
	"github.com/trustpipe/trustpipe/internal/reputation"
	"github.com/trustpipe/trustpipe/internal/score"
	"github.com/trustpipe/trustpipe/internal/store"
	"github.com/trustpipe/trustpipe/internal/verify"
)

// ErrPipelineInProgress is returned when another run already holds the
// per-item checkpoint lock.
var ErrPipelineInProgress = errors.New("pipeline already running for this content")

// sleepFunc is swapped out in tests to avoid real backoff waits
var sleepFunc = time.Sleep

// Orchestrator drives a content item through the verification stages.
// Each stage runs under its own timeout with bounded retries; a stage
// that exhausts its budget leaves its output empty and the run continues,
// so one flaky dependency degrades the result instead of losing it. The
// checkpoint store provides resume-on-crash and per-item mutual exclusion.
type Orchestrator struct {
	contents    store.ContentStore
	replies     store.ReplyStore
	checkpoints checkpoint.Store

	classifier *precheck.Classifier
	extractor  *extract.Extractor
	verifier   *verify.Verifier
	analyzer   *discuss.Analyzer
	scorer     *score.Scorer
	explainer  *score.Explainer
	resolver   *policy.Resolver
	reputation *reputation.Engine

	cfg    model.PipelineConfig
	logger *zap.Logger
}

// Deps bundles the orchestrator's collaborators
type Deps struct {
	Contents    store.ContentStore
	Replies     store.ReplyStore
	Checkpoints checkpoint.Store
	Classifier  *precheck.Classifier
	Extractor   *extract.Extractor
	Verifier    *verify.Verifier
	Analyzer    *discuss.Analyzer
	Scorer      *score.Scorer
	Explainer   *score.Explainer
	Resolver    *policy.Resolver
	Reputation  *reputation.Engine
}

// NewOrchestrator creates a pipeline orchestrator
func NewOrchestrator(deps Deps, cfg model.PipelineConfig, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Orchestrator{
		contents:    deps.Contents,
		replies:     deps.Replies,
		checkpoints: deps.Checkpoints,
		classifier:  deps.Classifier,
		extractor:   deps.Extractor,
		verifier:    deps.Verifier,
		analyzer:    deps.Analyzer,
		scorer:      deps.Scorer,
		explainer:   deps.Explainer,
		resolver:    deps.Resolver,
		reputation:  deps.Reputation,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run processes one content item end to end. Re-running a completed item
// is a no-op; a crashed run resumes from its last completed stage.
func (o *Orchestrator) Run(ctx context.Context, contentID string) error {
	cp, err := o.checkpoints.Load(ctx, contentID)
	if err != nil && err != checkpoint.ErrNotFound {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if cp != nil && cp.Stage == model.StageDone {
		o.logger.Debug("content already processed", zap.String("content_id", contentID))
		return nil
	}

	acquired, err := o.checkpoints.Acquire(ctx, contentID)
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		return ErrPipelineInProgress
	}
	defer func() {
		if err := o.checkpoints.Release(context.WithoutCancel(ctx), contentID); err != nil {
			o.logger.Error("release run lock", zap.String("content_id", contentID), zap.Error(err))
		}
	}()

	content, err := o.contents.Get(ctx, contentID)
	if err != nil {
		return fmt.Errorf("load content %s: %w", contentID, err)
	}

	if cp == nil {
		cp = &model.PipelineCheckpoint{
			ContentID: contentID,
			StartedAt: time.Now().UTC(),
		}
	} else {
		o.logger.Info("resuming pipeline from checkpoint",
			zap.String("content_id", contentID), zap.String("stage", string(cp.Stage)))
	}

	o.runStages(ctx, content, cp)

	status := o.finalStatus(cp)
	cp.Partial.Status = status

	if err := o.commit(ctx, content, cp, status); err != nil {
		return err
	}

	now := time.Now().UTC()
	cp.Stage = model.StageDone
	cp.CompletedAt = &now
	if err := o.checkpoints.Save(ctx, cp); err != nil {
		return fmt.Errorf("save final checkpoint: %w", err)
	}

	metrics.PipelineRuns.WithLabelValues(string(status)).Inc()
	o.logger.Info("pipeline complete",
		zap.String("content_id", contentID),
		zap.String("status", string(status)))
	return nil
}

func (o *Orchestrator) runStages(ctx context.Context, content *model.ContentItem, cp *model.PipelineCheckpoint) {
	if !cp.Stage.Reached(model.StagePrecheck) || cp.Partial.Precheck == nil {
		o.runStage(ctx, cp, model.StagePrecheck, func(ctx context.Context) error {
			quotedText := ""
			if content.QuotedID != "" {
				if quoted, err := o.contents.Get(ctx, content.QuotedID); err == nil {
					quotedText = quoted.Text
				}
			}
			result := o.classifier.Classify(ctx, content.Text, content.ImageText, quotedText)
			cp.Partial.Precheck = &result
			return nil
		})
	}

	needsCheck := cp.Partial.Precheck == nil || cp.Partial.Precheck.NeedsFactCheck

	if needsCheck && !cp.Stage.Reached(model.StageClaims) {
		o.runStage(ctx, cp, model.StageClaims, func(ctx context.Context) error {
			var quoted *model.ContentItem
			if content.QuotedID != "" {
				q, err := o.contents.Get(ctx, content.QuotedID)
				if err != nil && err != store.ErrNotFound {
					return err
				}
				quoted = q
			}
			cp.Partial.Claims = o.extractor.Extract(ctx, content, quoted)
			return nil
		})
	}

	if needsCheck && !cp.Stage.Reached(model.StageFactCheck) && len(cp.Partial.Claims) > 0 {
		o.runStage(ctx, cp, model.StageFactCheck, func(ctx context.Context) error {
			checks := o.verifier.Verify(ctx, content, cp.Partial.Claims)
			for _, c := range checks {
				metrics.Verdicts.WithLabelValues(string(c.Verdict)).Inc()
			}
			cp.Partial.FactChecks = checks
			return nil
		})
	}

	if !cp.Stage.Reached(model.StageDiscussion) {
		o.runStage(ctx, cp, model.StageDiscussion, func(ctx context.Context) error {
			replies, err := o.replies.ListByParent(ctx, content.ID)
			if err != nil {
				return err
			}
			analysis := o.analyzer.Analyze(ctx, content, replies)
			cp.Partial.Discussion = &analysis
			return nil
		})
	}

	if !cp.Stage.Reached(model.StageScoring) {
		o.runStage(ctx, cp, model.StageScoring, func(ctx context.Context) error {
			vec := o.scorer.Score(content, cp.Partial.Claims, cp.Partial.FactChecks, cp.Partial.Discussion)
			cp.Partial.Score = &vec
			status := o.finalStatus(cp)
			cp.Partial.Explanation = o.explainer.Explain(ctx, status, cp.Partial.Claims, cp.Partial.FactChecks)
			return nil
		})
	}
}

// finalStatus resolves the publish status from whatever the stages
// produced. A missing pre-check means verification never happened, which
// resolves to review rather than clean.
func (o *Orchestrator) finalStatus(cp *model.PipelineCheckpoint) model.PublishStatus {
	if cp.Partial.Precheck == nil {
		return o.resolver.DecideOnFailure()
	}
	if cp.Partial.Precheck.NeedsFactCheck && len(cp.Partial.FactChecks) == 0 {
		// Verification was required but produced nothing
		return o.resolver.DecideOnFailure()
	}
	return o.resolver.Decide(cp.Partial.Precheck, cp.Partial.Claims, cp.Partial.FactChecks)
}

// commit writes the insights back to the content store and settles the
// author's reputation.
func (o *Orchestrator) commit(ctx context.Context, content *model.ContentItem, cp *model.PipelineCheckpoint, status model.PublishStatus) error {
	if err := policy.ValidateTransition(content.Status, status); err != nil {
		return fmt.Errorf("resolve status of %s: %w", content.ID, err)
	}

	insights := &model.Insights{
		Claims:          cp.Partial.Claims,
		FactChecks:      cp.Partial.FactChecks,
		FactCheckStatus: status,
		ValueScore:      cp.Partial.Score,
		Explanation:     cp.Partial.Explanation,
		AppliedAt:       time.Now().UTC(),
	}
	if err := o.contents.ApplyInsights(ctx, content.ID, insights, status); err != nil {
		return fmt.Errorf("apply insights to %s: %w", content.ID, err)
	}

	if status == model.StatusNeedsReview {
		o.logger.Info("content queued for review", zap.String("content_id", content.ID))
	}

	if cp.Partial.Score != nil {
		if err := o.reputation.RecordContentOutcome(ctx, content.AuthorID, *cp.Partial.Score); err != nil {
			// Reputation is advisory; its failure never blocks publication
			o.logger.Error("record content outcome",
				zap.String("author_id", content.AuthorID), zap.Error(err))
		}
	}
	return nil
}

// runStage executes one stage under the configured timeout and retry
// budget, checkpointing on success. Exhausting the budget logs and counts
// the failure; the caller proceeds with the stage's output missing.
func (o *Orchestrator) runStage(ctx context.Context, cp *model.PipelineCheckpoint, stage model.Stage, fn func(context.Context) error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	}()

	backoff := o.cfg.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		stageCtx := ctx
		var cancel context.CancelFunc
		if o.cfg.StageTimeout > 0 {
			stageCtx, cancel = context.WithTimeout(ctx, o.cfg.StageTimeout)
		}
		err := fn(stageCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			cp.Stage = stage
			if saveErr := o.checkpoints.Save(ctx, cp); saveErr != nil {
				o.logger.Error("save checkpoint",
					zap.String("stage", string(stage)), zap.Error(saveErr))
			}
			return
		}

		lastErr = err
		if attempt < o.cfg.MaxAttempts {
			o.logger.Warn("stage attempt failed, retrying",
				zap.String("stage", string(stage)),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			sleepFunc(backoff)
			backoff *= 2
		}
	}

	metrics.StageFailures.WithLabelValues(string(stage)).Inc()
	o.logger.Error("stage failed after all attempts",
		zap.String("stage", string(stage)),
		zap.Int("attempts", o.cfg.MaxAttempts),
		zap.Error(lastErr))
}
