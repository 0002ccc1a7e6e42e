package model

import "time"

// PublishStatus is the tri-state publish-eligibility outcome.
// Mutated only by the policy resolver or the consensus resolver.
type PublishStatus string

const (
	StatusClean       PublishStatus = "clean"
	StatusNeedsReview PublishStatus = "needs_review"
	StatusBlocked     PublishStatus = "blocked"
)

// Valid reports whether s is one of the three publish statuses
func (s PublishStatus) Valid() bool {
	return s == StatusClean || s == StatusNeedsReview || s == StatusBlocked
}

// VoteAction is a reviewer's judgement on a needs_review item
type VoteAction string

const (
	ActionValidate   VoteAction = "validate"
	ActionInvalidate VoteAction = "invalidate"
)

// Valid reports whether a is a recognized vote action
func (a VoteAction) Valid() bool {
	return a == ActionValidate || a == ActionInvalidate
}

// Justification and source list bounds enforced at the vote write boundary.
const (
	MinVoteSources      = 1
	MaxVoteSources      = 10
	MinJustificationLen = 20
	MaxJustificationLen = 500
)

// ReviewVote is one reviewer's weighted vote on a needs_review item.
// Append-only: one per (reviewer, content) pair, never updated or deleted.
type ReviewVote struct {
	ID            string     `json:"id"`
	ContentID     string     `json:"content_id"`
	ReviewerID    string     `json:"reviewer_id"`
	Action        VoteAction `json:"action"`
	Sources       []string   `json:"sources"`
	Justification string     `json:"justification"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Reputation scale bounds and the neutral default for absent profiles.
const (
	ReputationMin     = 0.0
	ReputationMax     = 100.0
	ReputationNeutral = 50.0
)

// ReputationProfile holds the scalar trust weight for a user, derived from
// historical content quality and review accuracy.
type ReputationProfile struct {
	UserID      string    `json:"user_id"`
	Score       float64   `json:"score"` // In [ReputationMin, ReputationMax]
	LastUpdated time.Time `json:"last_updated"`
}

// VoteWeight converts a reputation score to the vote-weighting input in [0,1]
func (p ReputationProfile) VoteWeight() float64 {
	return Clamp01(p.Score / ReputationMax)
}
