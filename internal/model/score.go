package model

import "time"

// ValueVector is the five-dimension quality score for a content item.
// Each dimension and the weighted total live in [0,1]; values are sanitized
// before storage, never negative or above 1.
type ValueVector struct {
	Epistemic  float64   `json:"epistemic"`  // Factual grounding
	Insight    float64   `json:"insight"`    // Novel or non-obvious perspective
	Practical  float64   `json:"practical"`  // Actionable usefulness
	Relational float64   `json:"relational"` // Constructive discussion impact
	Effort     float64   `json:"effort"`     // Depth of authorship
	Total      float64   `json:"total"`      // Convex combination under domain weights
	Confidence float64   `json:"confidence"` // How much the scorer trusts its own inputs
	Drivers    []string  `json:"drivers,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Sanitize coerces every dimension through SanitizeDim
func (v *ValueVector) Sanitize() {
	v.Epistemic = SanitizeDim(v.Epistemic)
	v.Insight = SanitizeDim(v.Insight)
	v.Practical = SanitizeDim(v.Practical)
	v.Relational = SanitizeDim(v.Relational)
	v.Effort = SanitizeDim(v.Effort)
	v.Total = SanitizeDim(v.Total)
	v.Confidence = SanitizeDim(v.Confidence)
}

// ThreadQuality scores the reply thread attached to a content item
type ThreadQuality struct {
	Informativeness  float64 `json:"informativeness"`
	Civility         float64 `json:"civility"`
	ReasoningDepth   float64 `json:"reasoning_depth"`
	CrossPerspective float64 `json:"cross_perspective"`
	Summary          string  `json:"summary,omitempty"`
}

// ReplyRole classifies how a reply contributes to the discussion
type ReplyRole string

const (
	RoleQuestion   ReplyRole = "question"
	RoleAnswer     ReplyRole = "answer"
	RoleEvidence   ReplyRole = "evidence"
	RoleOpinion    ReplyRole = "opinion"
	RoleModeration ReplyRole = "moderation"
	RoleOther      ReplyRole = "other"
)

// CoerceReplyRole maps arbitrary analyzer output to a known role
func CoerceReplyRole(s string) ReplyRole {
	switch ReplyRole(s) {
	case RoleQuestion, RoleAnswer, RoleEvidence, RoleOpinion, RoleModeration, RoleOther:
		return ReplyRole(s)
	default:
		return RoleOther
	}
}

// ReplyContribution is the per-reply output of the discussion analyzer
type ReplyContribution struct {
	Role   ReplyRole   `json:"role"`
	Vector ValueVector `json:"vector"`
}

// DiscussionAnalysis is the discussion analyzer's full output
type DiscussionAnalysis struct {
	Thread   ThreadQuality                `json:"thread"`
	PerReply map[string]ReplyContribution `json:"per_reply,omitempty"` // Keyed by reply ID
}
