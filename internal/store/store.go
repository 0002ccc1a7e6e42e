package store

import (
	"context"
	"errors"

	"github.com/trustpipe/trustpipe/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateVote is returned on a second vote by the same reviewer
	// on the same content item
	ErrDuplicateVote = errors.New("reviewer already voted on this content")
)

// ContentStore holds content items and applies pipeline results to them
type ContentStore interface {
	Get(ctx context.Context, id string) (*model.ContentItem, error)
	GetMany(ctx context.Context, ids []string) ([]*model.ContentItem, error)
	Put(ctx context.Context, item *model.ContentItem) error

	// ApplyInsights writes the pipeline output and status to the item.
	// Idempotent: re-applying the same insights is harmless.
	ApplyInsights(ctx context.Context, id string, insights *model.Insights, status model.PublishStatus) error

	// UpdateStatusIf is an atomic compare-and-swap on the publish status.
	// Returns false when the current status is not `from`, so a consensus
	// decision racing with another resolution commits at most once.
	UpdateStatusIf(ctx context.Context, id string, from, to model.PublishStatus) (bool, error)

	// ListStatusOlderThan returns IDs of items that have sat in the given
	// status since before the cutoff, for expiry escalation.
	ListStatusOlderThan(ctx context.Context, status model.PublishStatus, cutoffUnix int64) ([]string, error)
}

// ReplyStore lists the discussion thread under a content item
type ReplyStore interface {
	ListByParent(ctx context.Context, parentID string) ([]model.Reply, error)
	PutReply(ctx context.Context, reply *model.Reply) error
}

// VoteStore holds the append-only review vote log
type VoteStore interface {
	// Insert records a vote; ErrDuplicateVote if this reviewer already
	// voted on this content.
	Insert(ctx context.Context, vote *model.ReviewVote) error
	ListByContent(ctx context.Context, contentID string) ([]model.ReviewVote, error)
}

// ReputationStore holds user reputation profiles
type ReputationStore interface {
	// GetReputation returns the profile, or a neutral default when none
	// exists
	GetReputation(ctx context.Context, userID string) (model.ReputationProfile, error)

	// Adjust applies a delta atomically, clamped to the reputation range,
	// and returns the resulting score.
	Adjust(ctx context.Context, userID string, delta float64) (float64, error)
}
