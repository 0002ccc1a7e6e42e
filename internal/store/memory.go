package store

import (
	"context"
	"sync"
	"time"

	"github.com/trustpipe/trustpipe/internal/model"
)

// MemoryStore is the in-memory implementation of all four stores, used by
// tests. Semantics mirror the sqlite store: duplicate-vote rejection,
// compare-and-swap status updates, clamped reputation adjustments.
type MemoryStore struct {
	mu         sync.Mutex
	content    map[string]model.ContentItem
	replies    map[string][]model.Reply
	votes      map[string][]model.ReviewVote
	voteIndex  map[string]bool // contentID + "\x00" + reviewerID
	reputation map[string]model.ReputationProfile
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		content:    make(map[string]model.ContentItem),
		replies:    make(map[string][]model.Reply),
		votes:      make(map[string][]model.ReviewVote),
		voteIndex:  make(map[string]bool),
		reputation: make(map[string]model.ReputationProfile),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*model.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.content[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := item
	return &out, nil
}

func (m *MemoryStore) GetMany(ctx context.Context, ids []string) ([]*model.ContentItem, error) {
	var items []*model.ContentItem
	for _, id := range ids {
		item, err := m.Get(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (m *MemoryStore) Put(_ context.Context, item *model.ContentItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[item.ID] = *item
	return nil
}

func (m *MemoryStore) ApplyInsights(_ context.Context, id string, insights *model.Insights, status model.PublishStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.content[id]
	if !ok {
		return ErrNotFound
	}
	item.Insights = insights
	item.Status = status
	item.UpdatedAt = time.Now().UTC()
	m.content[id] = item
	return nil
}

func (m *MemoryStore) UpdateStatusIf(_ context.Context, id string, from, to model.PublishStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.content[id]
	if !ok || item.Status != from {
		return false, nil
	}
	item.Status = to
	item.UpdatedAt = time.Now().UTC()
	m.content[id] = item
	return true, nil
}

func (m *MemoryStore) ListStatusOlderThan(_ context.Context, status model.PublishStatus, cutoffUnix int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Unix(cutoffUnix, 0).UTC()
	var ids []string
	for id, item := range m.content {
		if item.Status == status && item.UpdatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MemoryStore) ListByParent(_ context.Context, parentID string) ([]model.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Reply(nil), m.replies[parentID]...), nil
}

func (m *MemoryStore) PutReply(_ context.Context, reply *model.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[reply.ParentID] = append(m.replies[reply.ParentID], *reply)
	return nil
}

func (m *MemoryStore) Insert(_ context.Context, vote *model.ReviewVote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := vote.ContentID + "\x00" + vote.ReviewerID
	if m.voteIndex[key] {
		return ErrDuplicateVote
	}
	m.voteIndex[key] = true
	m.votes[vote.ContentID] = append(m.votes[vote.ContentID], *vote)
	return nil
}

func (m *MemoryStore) ListByContent(_ context.Context, contentID string) ([]model.ReviewVote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ReviewVote(nil), m.votes[contentID]...), nil
}

func (m *MemoryStore) GetReputation(_ context.Context, userID string) (model.ReputationProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.reputation[userID]; ok {
		return p, nil
	}
	return model.ReputationProfile{UserID: userID, Score: model.ReputationNeutral}, nil
}

func (m *MemoryStore) Adjust(_ context.Context, userID string, delta float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.reputation[userID]
	if !ok {
		p = model.ReputationProfile{UserID: userID, Score: model.ReputationNeutral}
	}
	p.Score += delta
	if p.Score < model.ReputationMin {
		p.Score = model.ReputationMin
	}
	if p.Score > model.ReputationMax {
		p.Score = model.ReputationMax
	}
	p.LastUpdated = time.Now().UTC()
	m.reputation[userID] = p
	return p.Score, nil
}
