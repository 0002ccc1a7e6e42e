package model

import "time"

// ContentItem is a user-authored post or reply held by the content store.
// The pipeline reads it, and writes Insights plus Status back through a
// single idempotent apply.
type ContentItem struct {
	ID        string        `json:"id"`
	AuthorID  string        `json:"author_id"`
	Text      string        `json:"text"`                 // May contain rich-text HTML
	ImageText string        `json:"image_text,omitempty"` // OCR/alt text for an attached image
	QuotedID  string        `json:"quoted_id,omitempty"`  // ID of a quoted content item
	Topic     Domain        `json:"topic"`                // Author-declared topic, tie-breaker for dominant domain
	Status    PublishStatus `json:"status"`
	Insights  *Insights     `json:"insights,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// HasVerifiedClaims reports whether the item already carries a complete
// set of verified claims, reusable when it is quoted elsewhere.
func (c *ContentItem) HasVerifiedClaims() bool {
	return c.Insights != nil &&
		len(c.Insights.Claims) > 0 &&
		len(c.Insights.FactChecks) == len(c.Insights.Claims)
}

// Insights is the pipeline's full output attached to a content item
type Insights struct {
	Claims          []Claim       `json:"claims,omitempty"`
	FactChecks      []FactCheck   `json:"fact_checks,omitempty"`
	FactCheckStatus PublishStatus `json:"fact_check_status"`
	ValueScore      *ValueVector  `json:"value_score,omitempty"`
	Explanation     string        `json:"explanation,omitempty"`
	AppliedAt       time.Time     `json:"applied_at"`
}

// Reply is a comment attached to a content item
type Reply struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
