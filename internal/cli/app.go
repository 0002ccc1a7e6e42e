package cli

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trustpipe/trustpipe/internal/cache"
	"github.com/trustpipe/trustpipe/internal/checkpoint"
	"github.com/trustpipe/trustpipe/internal/discuss"
	"github.com/trustpipe/trustpipe/internal/evidence"
	"github.com/trustpipe/trustpipe/internal/extract"
	"github.com/trustpipe/trustpipe/internal/llm"
	"github.com/trustpipe/trustpipe/internal/model"
	"github.com/trustpipe/trustpipe/internal/pipeline"
	"github.com/trustpipe/trustpipe/internal/policy"
	"github.com/trustpipe/trustpipe/internal/precheck"
	"github.com/trustpipe/trustpipe/internal/reputation"
	"github.com/trustpipe/trustpipe/internal/review"
	"github.com/trustpipe/trustpipe/internal/score"
	"github.com/trustpipe/trustpipe/internal/store"
	"github.com/trustpipe/trustpipe/internal/verify"
)

// App holds the wired components behind the CLI commands
type App struct {
	Config       *model.Config
	Logger       *zap.Logger
	Store        *store.SQLiteStore
	Checkpoints  checkpoint.Store
	Orchestrator *pipeline.Orchestrator
	Review       *review.Resolver
}

// buildApp wires the full pipeline from configuration. The caller owns
// Close.
func buildApp(cfg *model.Config) (*App, error) {
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM), logger)
	if err != nil {
		return nil, err
	}

	var respCache cache.Cache
	if cfg.Cache.Enabled {
		respCache = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL*2)
	}
	svc := llm.NewService(provider, cfg.Concurrency.InferRPS, cfg.Concurrency.InferBurst,
		respCache, cfg.Cache.TTL, logger)

	db, err := store.Open(cfg.Storage.Path, logger)
	if err != nil {
		return nil, err
	}

	checkpoints, err := checkpoint.NewSQLiteStoreFromDB(db.DB(), cfg.Pipeline.LockLease, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	scorer := evidence.NewScorer(cfg.Evidence)
	repEngine := reputation.NewEngine(db, cfg.Reputation, logger)

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Contents:    db,
		Replies:     db,
		Checkpoints: checkpoints,
		Classifier:  precheck.NewClassifier(svc, cfg.Precheck, logger),
		Extractor:   extract.NewExtractor(svc, cfg.Extract, logger),
		Verifier:    verify.NewVerifier(svc, scorer, cfg.Verify, logger),
		Analyzer:    discuss.NewAnalyzer(svc, cfg.Discussion, logger),
		Scorer:      score.NewScorer(cfg.Verify.FalseConfidenceThreshold),
		Explainer:   score.NewExplainer(svc, logger),
		Resolver:    policy.NewResolver(cfg.Verify, logger),
		Reputation:  repEngine,
	}, cfg.Pipeline, logger)

	var validator *evidence.Validator
	if cfg.Evidence.CheckSources {
		validator = evidence.NewValidator(cfg.Evidence, logger)
	}
	reviewer := review.NewResolver(db, db, repEngine, validator, cfg.Review, cfg.Verify, logger)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Store:        db,
		Checkpoints:  checkpoints,
		Orchestrator: orch,
		Review:       reviewer,
	}, nil
}

// Close flushes logs and closes storage
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

func newLogger(cfg model.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
