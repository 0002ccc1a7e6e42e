package checkpoint

import (
	"context"
	"sync"

	"github.com/trustpipe/trustpipe/internal/model"
)

// MemoryStore is the in-memory checkpoint store used by tests and
// single-shot CLI runs that don't need durability.
type MemoryStore struct {
	mu         sync.Mutex
	records    map[string]model.PipelineCheckpoint
	inProgress map[string]bool
}

// NewMemoryStore creates an empty in-memory checkpoint store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:    make(map[string]model.PipelineCheckpoint),
		inProgress: make(map[string]bool),
	}
}

// Acquire takes the per-item run lock
func (m *MemoryStore) Acquire(_ context.Context, contentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inProgress[contentID] {
		return false, nil
	}
	m.inProgress[contentID] = true
	return true, nil
}

// Load returns a copy of the stored checkpoint
func (m *MemoryStore) Load(_ context.Context, contentID string) (*model.PipelineCheckpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.records[contentID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cp
	return &out, nil
}

// Save stores the checkpoint
func (m *MemoryStore) Save(_ context.Context, cp *model.PipelineCheckpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[cp.ContentID] = *cp
	return nil
}

// Release clears the run lock
func (m *MemoryStore) Release(_ context.Context, contentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inProgress, contentID)
	return nil
}

// Close is a no-op for the in-memory store
func (m *MemoryStore) Close() error { return nil }
