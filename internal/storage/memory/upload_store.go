package memory

import (
	"context"
	"sync"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// UploadStore is an in-memory implementation of storage.UploadStore.
type UploadStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.UploadRecord
}

// NewUploadStore creates a new in-memory upload store.
func NewUploadStore() *UploadStore {
	return &UploadStore{
		data: make(map[int64]*domain.UploadRecord),
	}
}

// Upsert adds or replaces the artifact reference for a block.
func (s *UploadStore) Upsert(_ context.Context, rec *domain.UploadRecord) error {
	if rec == nil || rec.Block == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *rec
	s.data[rec.Block] = &copy
	return nil
}

// GetLatest retrieves the highest-block reference. Returns ErrNotFound when empty.
func (s *UploadStore) GetLatest(_ context.Context) (*domain.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.UploadRecord
	for _, rec := range s.data {
		if latest == nil || rec.Block > latest.Block {
			latest = rec
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	copy := *latest
	return &copy, nil
}

// GetByBlock retrieves one reference. Returns ErrNotFound if not exists.
func (s *UploadStore) GetByBlock(_ context.Context, block int64) (*domain.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[block]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *rec
	return &copy, nil
}

var _ storage.UploadStore = (*UploadStore)(nil)
