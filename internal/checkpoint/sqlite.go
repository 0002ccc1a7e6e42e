package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/model"
)

// SQLiteStore is the durable checkpoint store. The in_progress column is
// the mutual-exclusion bit: Acquire flips it 0->1 atomically in a single
// upsert, so two concurrent runs for the same item cannot both win. A run
// that crashes never releases the bit, so rows in progress longer than the
// lease are treated as abandoned and can be reacquired.
type SQLiteStore struct {
	db     *sql.DB
	lease  time.Duration
	logger *zap.Logger
}

// DefaultLockLease bounds how long a crashed run keeps its item locked
const DefaultLockLease = 15 * time.Minute

const checkpointSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	content_id   TEXT PRIMARY KEY,
	stage        TEXT NOT NULL,
	partial      TEXT NOT NULL,
	in_progress  INTEGER NOT NULL DEFAULT 0,
	started_at   TIMESTAMP NOT NULL,
	completed_at TIMESTAMP
);
`

// NewSQLiteStore opens (creating if needed) the checkpoint table in the
// sqlite database at path. lease <= 0 falls back to DefaultLockLease.
func NewSQLiteStore(path string, lease time.Duration, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lease <= 0 {
		lease = DefaultLockLease
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}

	// WAL keeps readers unblocked while the pipeline writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	if _, err := db.Exec(checkpointSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}

	return &SQLiteStore{db: db, lease: lease, logger: logger}, nil
}

// NewSQLiteStoreFromDB wraps an already-open database handle
func NewSQLiteStoreFromDB(db *sql.DB, lease time.Duration, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lease <= 0 {
		lease = DefaultLockLease
	}
	if _, err := db.Exec(checkpointSchema); err != nil {
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}
	return &SQLiteStore{db: db, lease: lease, logger: logger}, nil
}

// Acquire inserts a fresh in-progress checkpoint, or flips an existing
// non-in-progress row to in-progress. The WHERE guard on the conflict
// branch makes the flip atomic: zero rows affected means another live run
// holds the item. A row whose started_at is older than the lease is a
// leftover from a crashed run and is reclaimed, which keeps resume working
// across restarts. started_at refreshes on every successful acquire so the
// holder keeps its lease while it runs.
func (s *SQLiteStore) Acquire(ctx context.Context, contentID string) (bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (content_id, stage, partial, in_progress, started_at)
		VALUES (?, ?, '{}', 1, ?)
		ON CONFLICT(content_id) DO UPDATE SET
			in_progress = 1,
			started_at = excluded.started_at
		WHERE checkpoints.in_progress = 0 OR checkpoints.started_at <= ?`,
		contentID, string(model.StagePrecheck), now, now.Add(-s.lease))
	if err != nil {
		return false, fmt.Errorf("acquire checkpoint for %s: %w", contentID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire checkpoint for %s: %w", contentID, err)
	}
	return n > 0, nil
}

// Load returns the checkpoint for contentID
func (s *SQLiteStore) Load(ctx context.Context, contentID string) (*model.PipelineCheckpoint, error) {
	var (
		cp        model.PipelineCheckpoint
		stage     string
		partial   string
		completed sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT content_id, stage, partial, started_at, completed_at
		FROM checkpoints WHERE content_id = ?`, contentID).
		Scan(&cp.ContentID, &stage, &partial, &cp.StartedAt, &completed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint for %s: %w", contentID, err)
	}

	cp.Stage = model.Stage(stage)
	if err := json.Unmarshal([]byte(partial), &cp.Partial); err != nil {
		// A corrupt partial means restarting from scratch, not failing
		s.logger.Warn("corrupt checkpoint partial, resetting",
			zap.String("content_id", contentID), zap.Error(err))
		cp.Partial = model.PartialResult{}
	}
	if completed.Valid {
		t := completed.Time
		cp.CompletedAt = &t
	}
	return &cp, nil
}

// Save upserts the checkpoint, preserving the in-progress bit
func (s *SQLiteStore) Save(ctx context.Context, cp *model.PipelineCheckpoint) error {
	partial, err := json.Marshal(cp.Partial)
	if err != nil {
		return fmt.Errorf("marshal checkpoint partial: %w", err)
	}

	var completed interface{}
	if cp.CompletedAt != nil {
		completed = *cp.CompletedAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (content_id, stage, partial, in_progress, started_at, completed_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(content_id) DO UPDATE SET
			stage = excluded.stage,
			partial = excluded.partial,
			completed_at = excluded.completed_at`,
		cp.ContentID, string(cp.Stage), string(partial), cp.StartedAt, completed)
	if err != nil {
		return fmt.Errorf("save checkpoint for %s: %w", cp.ContentID, err)
	}
	return nil
}

// Release clears the in-progress marker
func (s *SQLiteStore) Release(ctx context.Context, contentID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE checkpoints SET in_progress = 0 WHERE content_id = ?", contentID)
	if err != nil {
		return fmt.Errorf("release checkpoint for %s: %w", contentID, err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
