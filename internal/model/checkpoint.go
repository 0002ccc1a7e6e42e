package model

import "time"

// Stage marks pipeline progress in a checkpoint
type Stage string

const (
	StagePrecheck   Stage = "precheck"
	StageClaims     Stage = "claims"
	StageFactCheck  Stage = "factcheck"
	StageDiscussion Stage = "discussion"
	StageScoring    Stage = "scoring"
	StageDone       Stage = "done"
)

// stageOrder defines resume ordering; a checkpoint at stage S means S completed.
var stageOrder = map[Stage]int{
	StagePrecheck:   0,
	StageClaims:     1,
	StageFactCheck:  2,
	StageDiscussion: 3,
	StageScoring:    4,
	StageDone:       5,
}

// Reached reports whether this stage's work is already complete at the
// checkpointed stage s.
func (s Stage) Reached(other Stage) bool {
	return stageOrder[s] >= stageOrder[other]
}

// PrecheckResult is the risk classifier's decision for a content item
type PrecheckResult struct {
	NeedsFactCheck bool     `json:"needs_fact_check"`
	Confidence     float64  `json:"confidence"`
	ContentType    string   `json:"content_type"` // factual, news, opinion, experience, other
	RiskScore      float64  `json:"risk_score"`   // In [0,1]
	Signals        []string `json:"signals,omitempty"`
}

// PartialResult accumulates stage outputs as the pipeline advances.
// Missing fields mean the stage failed or was skipped; downstream stages
// run with degraded input rather than aborting.
type PartialResult struct {
	Precheck    *PrecheckResult     `json:"precheck,omitempty"`
	Claims      []Claim             `json:"claims,omitempty"`
	FactChecks  []FactCheck         `json:"fact_checks,omitempty"`
	Discussion  *DiscussionAnalysis `json:"discussion,omitempty"`
	Score       *ValueVector        `json:"score,omitempty"`
	Explanation string              `json:"explanation,omitempty"`
	Status      PublishStatus       `json:"status,omitempty"`
}

// PipelineCheckpoint is the durable record of pipeline progress for one
// content item. One active row per item, overwritten as stages complete.
// It doubles as the mutual-exclusion marker: an in-progress checkpoint
// blocks a second concurrent pipeline run for the same item.
type PipelineCheckpoint struct {
	ContentID   string        `json:"content_id"`
	Stage       Stage         `json:"stage"`
	Partial     PartialResult `json:"partial"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}
