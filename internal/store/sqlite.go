package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/model"
)

// SQLiteStore backs all four stores with one sqlite database.
// Insights and vote source lists are stored as JSON columns; everything
// queried or swapped on lives in real columns.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS content (
	id         TEXT PRIMARY KEY,
	author_id  TEXT NOT NULL,
	text       TEXT NOT NULL,
	image_text TEXT NOT NULL DEFAULT '',
	quoted_id  TEXT NOT NULL DEFAULT '',
	topic      TEXT NOT NULL DEFAULT 'general',
	status     TEXT NOT NULL DEFAULT '',
	insights   TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_content_status ON content(status, updated_at);

CREATE TABLE IF NOT EXISTS replies (
	id         TEXT PRIMARY KEY,
	parent_id  TEXT NOT NULL,
	author_id  TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_replies_parent ON replies(parent_id, created_at);

CREATE TABLE IF NOT EXISTS review_votes (
	id            TEXT PRIMARY KEY,
	content_id    TEXT NOT NULL,
	reviewer_id   TEXT NOT NULL,
	action        TEXT NOT NULL,
	sources       TEXT NOT NULL,
	justification TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	UNIQUE(content_id, reviewer_id)
);
CREATE INDEX IF NOT EXISTS idx_votes_content ON review_votes(content_id);

CREATE TABLE IF NOT EXISTS reputation (
	user_id      TEXT PRIMARY KEY,
	score        REAL NOT NULL,
	last_updated TIMESTAMP NOT NULL
);
`

// Open opens (creating if needed) the sqlite database at path and prepares
// the schema.
func Open(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// DB exposes the handle so the checkpoint store can share the database
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close closes the database
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Get returns a content item by ID
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.ContentItem, error) {
	return scanContent(s.db.QueryRowContext(ctx, `
		SELECT id, author_id, text, image_text, quoted_id, topic, status, insights, created_at, updated_at
		FROM content WHERE id = ?`, id))
}

// GetMany returns the items for the given IDs, skipping missing ones
func (s *SQLiteStore) GetMany(ctx context.Context, ids []string) ([]*model.ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, author_id, text, image_text, quoted_id, topic, status, insights, created_at, updated_at
		FROM content WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	var items []*model.ContentItem
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Put upserts a content item
func (s *SQLiteStore) Put(ctx context.Context, item *model.ContentItem) error {
	insights, err := marshalInsights(item.Insights)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content (id, author_id, text, image_text, quoted_id, topic, status, insights, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			image_text = excluded.image_text,
			quoted_id = excluded.quoted_id,
			topic = excluded.topic,
			status = excluded.status,
			insights = excluded.insights,
			updated_at = excluded.updated_at`,
		item.ID, item.AuthorID, item.Text, item.ImageText, item.QuotedID,
		string(item.Topic), string(item.Status), insights, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put content %s: %w", item.ID, err)
	}
	return nil
}

// ApplyInsights writes the pipeline output and status in one statement
func (s *SQLiteStore) ApplyInsights(ctx context.Context, id string, insights *model.Insights, status model.PublishStatus) error {
	blob, err := marshalInsights(insights)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE content SET insights = ?, status = ?, updated_at = ? WHERE id = ?`,
		blob, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("apply insights to %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply insights to %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusIf is the compare-and-swap the consensus resolver commits
// through: the WHERE clause makes losing a race visible as zero rows.
func (s *SQLiteStore) UpdateStatusIf(ctx context.Context, id string, from, to model.PublishStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE content SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update status of %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update status of %s: %w", id, err)
	}
	return n > 0, nil
}

// ListStatusOlderThan returns IDs stuck in status since before cutoffUnix
func (s *SQLiteStore) ListStatusOlderThan(ctx context.Context, status model.PublishStatus, cutoffUnix int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM content WHERE status = ? AND updated_at < ?`,
		string(status), time.Unix(cutoffUnix, 0).UTC())
	if err != nil {
		return nil, fmt.Errorf("list %s content: %w", status, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByParent returns the replies under a content item, oldest first
func (s *SQLiteStore) ListByParent(ctx context.Context, parentID string) ([]model.Reply, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, author_id, text, created_at
		FROM replies WHERE parent_id = ? ORDER BY created_at ASC`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list replies of %s: %w", parentID, err)
	}
	defer rows.Close()

	var replies []model.Reply
	for rows.Next() {
		var r model.Reply
		if err := rows.Scan(&r.ID, &r.ParentID, &r.AuthorID, &r.Text, &r.CreatedAt); err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}
	return replies, rows.Err()
}

// Put inserts a reply
func (s *SQLiteStore) PutReply(ctx context.Context, reply *model.Reply) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO replies (id, parent_id, author_id, text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		reply.ID, reply.ParentID, reply.AuthorID, reply.Text, reply.CreatedAt)
	if err != nil {
		return fmt.Errorf("put reply %s: %w", reply.ID, err)
	}
	return nil
}

// Insert records a review vote; the unique index enforces one vote per
// (content, reviewer) pair.
func (s *SQLiteStore) Insert(ctx context.Context, vote *model.ReviewVote) error {
	sources, err := json.Marshal(vote.Sources)
	if err != nil {
		return fmt.Errorf("marshal vote sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO review_votes (id, content_id, reviewer_id, action, sources, justification, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		vote.ID, vote.ContentID, vote.ReviewerID, string(vote.Action),
		string(sources), vote.Justification, vote.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateVote
		}
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

// ListByContent returns all votes on a content item, oldest first
func (s *SQLiteStore) ListByContent(ctx context.Context, contentID string) ([]model.ReviewVote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_id, reviewer_id, action, sources, justification, created_at
		FROM review_votes WHERE content_id = ? ORDER BY created_at ASC`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list votes on %s: %w", contentID, err)
	}
	defer rows.Close()

	var votes []model.ReviewVote
	for rows.Next() {
		var (
			v       model.ReviewVote
			action  string
			sources string
		)
		if err := rows.Scan(&v.ID, &v.ContentID, &v.ReviewerID, &action, &sources, &v.Justification, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Action = model.VoteAction(action)
		if err := json.Unmarshal([]byte(sources), &v.Sources); err != nil {
			s.logger.Warn("corrupt vote sources", zap.String("vote_id", v.ID), zap.Error(err))
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// Get returns the reputation profile, neutral when absent
func (s *SQLiteStore) GetReputation(ctx context.Context, userID string) (model.ReputationProfile, error) {
	var p model.ReputationProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, score, last_updated FROM reputation WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Score, &p.LastUpdated)
	if err == sql.ErrNoRows {
		return model.ReputationProfile{UserID: userID, Score: model.ReputationNeutral}, nil
	}
	if err != nil {
		return model.ReputationProfile{}, fmt.Errorf("get reputation of %s: %w", userID, err)
	}
	return p, nil
}

// Adjust applies a clamped delta in one atomic upsert and reads back the
// resulting score.
func (s *SQLiteStore) Adjust(ctx context.Context, userID string, delta float64) (float64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reputation (user_id, score, last_updated)
		VALUES (?, MIN(?, MAX(?, ? + ?)), ?)
		ON CONFLICT(user_id) DO UPDATE SET
			score = MIN(?, MAX(?, reputation.score + ?)),
			last_updated = excluded.last_updated`,
		userID,
		model.ReputationMax, model.ReputationMin, model.ReputationNeutral, delta,
		time.Now().UTC(),
		model.ReputationMax, model.ReputationMin, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust reputation of %s: %w", userID, err)
	}

	var score float64
	if err := s.db.QueryRowContext(ctx,
		"SELECT score FROM reputation WHERE user_id = ?", userID).Scan(&score); err != nil {
		return 0, fmt.Errorf("read back reputation of %s: %w", userID, err)
	}
	return score, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContent(row rowScanner) (*model.ContentItem, error) {
	var (
		item     model.ContentItem
		topic    string
		status   string
		insights sql.NullString
	)
	err := row.Scan(&item.ID, &item.AuthorID, &item.Text, &item.ImageText,
		&item.QuotedID, &topic, &status, &insights, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan content: %w", err)
	}

	item.Topic = model.Domain(topic)
	item.Status = model.PublishStatus(status)
	if insights.Valid && insights.String != "" {
		var ins model.Insights
		if err := json.Unmarshal([]byte(insights.String), &ins); err == nil {
			item.Insights = &ins
		}
	}
	return &item, nil
}

func marshalInsights(insights *model.Insights) (interface{}, error) {
	if insights == nil {
		return nil, nil
	}
	blob, err := json.Marshal(insights)
	if err != nil {
		return nil, fmt.Errorf("marshal insights: %w", err)
	}
	return string(blob), nil
}
