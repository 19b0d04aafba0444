package memory

import (
	"context"
	"sync"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// BlockStore is an in-memory implementation of storage.BlockStore.
type BlockStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.BlockRecord
}

// NewBlockStore creates a new in-memory block store.
func NewBlockStore() *BlockStore {
	return &BlockStore{
		data: make(map[int64]*domain.BlockRecord),
	}
}

// Insert adds a new block record. Returns ErrDuplicateKey if the block exists.
func (s *BlockStore) Insert(_ context.Context, rec *domain.BlockRecord) error {
	if rec == nil || rec.Block == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.Block]; exists {
		return storage.ErrDuplicateKey
	}
	copy := *rec
	s.data[rec.Block] = &copy
	return nil
}

// GetLatest retrieves the highest-block record. Returns ErrNotFound when empty.
func (s *BlockStore) GetLatest(_ context.Context) (*domain.BlockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.BlockRecord
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

// GetByBlock retrieves one record. Returns ErrNotFound if not exists.
func (s *BlockStore) GetByBlock(_ context.Context, block int64) (*domain.BlockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[block]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *rec
	return &copy, nil
}

var _ storage.BlockStore = (*BlockStore)(nil)
