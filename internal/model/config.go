package model

import "time"

// Config is the full pipeline configuration.
// Every policy knob called out as gameable/tunable lives here rather than
// as a constant: confidence thresholds, quorum size, supermajority, the
// mixed/unknown override bar, stage timeouts and retry budgets.
type Config struct {
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Precheck    PrecheckConfig    `yaml:"precheck" mapstructure:"precheck"`
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	Verify      VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	Discussion  DiscussionConfig  `yaml:"discussion" mapstructure:"discussion"`
	Evidence    EvidenceConfig    `yaml:"evidence" mapstructure:"evidence"`
	Review      ReviewConfig      `yaml:"review" mapstructure:"review"`
	Reputation  ReputationConfig  `yaml:"reputation" mapstructure:"reputation"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// LLMConfig configures the inference service
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PipelineConfig configures orchestrator resilience
type PipelineConfig struct {
	StageTimeout   time.Duration `yaml:"stage_timeout" mapstructure:"stage_timeout"`
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	LockLease      time.Duration `yaml:"lock_lease" mapstructure:"lock_lease"` // In-progress checkpoints older than this are reclaimable
}

// PrecheckConfig configures the risk classifier
type PrecheckConfig struct {
	RiskThreshold       float64 `yaml:"risk_threshold" mapstructure:"risk_threshold"`             // Risk score at or above this needs verification
	AmbiguousConfidence float64 `yaml:"ambiguous_confidence" mapstructure:"ambiguous_confidence"` // Below this, fail open to needing verification
}

// ExtractConfig configures the claim extractor
type ExtractConfig struct {
	MaxClaims          int     `yaml:"max_claims" mapstructure:"max_claims"`
	FallbackConfidence float64 `yaml:"fallback_confidence" mapstructure:"fallback_confidence"`
}

// VerifyConfig configures the fact verifier and its penalty policy
type VerifyConfig struct {
	FalseConfidenceThreshold float64 `yaml:"false_confidence_threshold" mapstructure:"false_confidence_threshold"` // Penalties fire only above this
	PenalizeContested        bool    `yaml:"penalize_contested" mapstructure:"penalize_contested"`                 // Whether mixed/unknown verdicts also penalize
}

// DiscussionConfig configures the discussion analyzer
type DiscussionConfig struct {
	MaxReplies int `yaml:"max_replies" mapstructure:"max_replies"`
}

// EvidenceConfig configures evidence trust weights
type EvidenceConfig struct {
	DiscardThreshold float64            `yaml:"discard_threshold" mapstructure:"discard_threshold"` // Evidence at or below this is dropped
	DefaultQuality   float64            `yaml:"default_quality" mapstructure:"default_quality"`     // Unknown domains
	NoURLQuality     float64            `yaml:"no_url_quality" mapstructure:"no_url_quality"`       // Evidence without a citation URL
	DomainWeights    map[string]float64 `yaml:"domain_weights" mapstructure:"domain_weights"`       // Host suffix overrides
	CheckSources     bool               `yaml:"check_sources" mapstructure:"check_sources"`         // HEAD-probe vote source URLs
	CheckTimeout     time.Duration      `yaml:"check_timeout" mapstructure:"check_timeout"`
	CheckWorkers     int                `yaml:"check_workers" mapstructure:"check_workers"`
	UserAgent        string             `yaml:"user_agent" mapstructure:"user_agent"`
}

// ReviewConfig configures the consensus resolver
type ReviewConfig struct {
	MinVotes      int           `yaml:"min_votes" mapstructure:"min_votes"`           // Quorum before evaluating
	Supermajority float64       `yaml:"supermajority" mapstructure:"supermajority"`   // Weighted fraction declaring consensus
	OverrideBar   float64       `yaml:"override_bar" mapstructure:"override_bar"`     // Higher bar to override mixed/unknown to clean
	Expiry        time.Duration `yaml:"expiry" mapstructure:"expiry"`                 // Escalate items stuck past this
	DampingFactor float64       `yaml:"damping_factor" mapstructure:"damping_factor"` // Weight multiplier for coordinated-looking votes
}

// ReputationConfig configures reputation deltas
type ReputationConfig struct {
	ContentWeight  float64 `yaml:"content_weight" mapstructure:"content_weight"`     // Scale of per-content adjustments
	VoteMatchDelta float64 `yaml:"vote_match_delta" mapstructure:"vote_match_delta"` // Reward for a vote matching the final decision
	VoteMissDelta  float64 `yaml:"vote_miss_delta" mapstructure:"vote_miss_delta"`   // Penalty for a mismatched vote
}

// StorageConfig configures the sqlite backing store
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CacheConfig configures the inference response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig configures worker pools and inference rate limiting
type ConcurrencyConfig struct {
	PipelineWorkers int     `yaml:"pipeline_workers" mapstructure:"pipeline_workers"`
	InferRPS        float64 `yaml:"infer_rps" mapstructure:"infer_rps"`
	InferBurst      int     `yaml:"infer_burst" mapstructure:"infer_burst"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns the built-in defaults. The reference thresholds
// (0.7 false-confidence, 50 votes, 60% supermajority, 70% override bar)
// are starting points, expected to be tuned per deployment.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Pipeline: PipelineConfig{
			StageTimeout:   45 * time.Second,
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			LockLease:      15 * time.Minute,
		},
		Precheck: PrecheckConfig{
			RiskThreshold:       0.4,
			AmbiguousConfidence: 0.5,
		},
		Extract: ExtractConfig{
			MaxClaims:          10,
			FallbackConfidence: 0.35,
		},
		Verify: VerifyConfig{
			FalseConfidenceThreshold: 0.7,
			PenalizeContested:        false,
		},
		Discussion: DiscussionConfig{
			MaxReplies: 20,
		},
		Evidence: EvidenceConfig{
			DiscardThreshold: 0.2,
			DefaultQuality:   0.5,
			NoURLQuality:     0.3,
			CheckSources:     false,
			CheckTimeout:     10 * time.Second,
			CheckWorkers:     10,
			UserAgent:        "Trustpipe/0.1 (+https://github.com/trustpipe/trustpipe)",
		},
		Review: ReviewConfig{
			MinVotes:      50,
			Supermajority: 0.6,
			OverrideBar:   0.7,
			Expiry:        7 * 24 * time.Hour,
			DampingFactor: 0.5,
		},
		Reputation: ReputationConfig{
			ContentWeight:  4.0,
			VoteMatchDelta: 2.0,
			VoteMissDelta:  -3.0,
		},
		Storage: StorageConfig{
			Path: "trustpipe.db",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			PipelineWorkers: 4,
			InferRPS:        2,
			InferBurst:      5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
