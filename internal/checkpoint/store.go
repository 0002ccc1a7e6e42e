package checkpoint

import (
	"context"
	"errors"

	"github.com/trustpipe/trustpipe/internal/model"
)

// ErrNotFound is returned by Load when no checkpoint exists for the item
var ErrNotFound = errors.New("checkpoint not found")

// Store persists pipeline checkpoints and doubles as the per-item mutex.
// Acquire marks the item in progress and reports whether the caller got
// the lock; a second Acquire before Release returns false. Save records
// completed-stage progress so a crashed run resumes instead of repeating
// inference work.
type Store interface {
	// Acquire attempts to mark contentID as having a pipeline run in
	// progress. Returns true when this caller owns the run.
	Acquire(ctx context.Context, contentID string) (bool, error)

	// Load returns the latest checkpoint for contentID, ErrNotFound if none
	Load(ctx context.Context, contentID string) (*model.PipelineCheckpoint, error)

	// Save upserts the checkpoint after a stage completes
	Save(ctx context.Context, cp *model.PipelineCheckpoint) error

	// Release clears the in-progress marker, keeping the stage record
	Release(ctx context.Context, contentID string) error

	// Close releases underlying resources
	Close() error
}
