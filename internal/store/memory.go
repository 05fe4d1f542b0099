package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/prospector/internal/model"
)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[string][]model.Candidate
	batches    map[string]Batch
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		candidates: make(map[string][]model.Candidate),
		batches:    make(map[string]Batch),
	}
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) SaveCandidates(_ context.Context, session string, cands []model.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[sessionKey(session)] = slices.Clone(cands)
	return nil
}

func (m *MemoryStore) Candidates(_ context.Context, session string) ([]model.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.candidates[sessionKey(session)]), nil
}

func (m *MemoryStore) SaveBatch(_ context.Context, session string, b Batch) (*Batch, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	b.Results = slices.Clone(b.Results)

	m.mu.Lock()
	m.batches[sessionKey(session)] = b
	m.mu.Unlock()

	out := b
	out.Results = slices.Clone(b.Results)
	return &out, nil
}

func (m *MemoryStore) LatestBatch(_ context.Context, session string) (*Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.batches[sessionKey(session)]
	if !ok {
		return nil, nil
	}
	b.Results = slices.Clone(b.Results)
	return &b, nil
}
