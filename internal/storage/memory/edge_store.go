package memory

import (
	"context"
	"sync"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// EdgeStore is an in-memory implementation of storage.EdgeStore.
type EdgeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ConsolidationEdge // keyed by canonical wallet pair
}

// NewEdgeStore creates a new in-memory edge store.
func NewEdgeStore() *EdgeStore {
	return &EdgeStore{
		data: make(map[string]*domain.ConsolidationEdge),
	}
}

// Insert adds a new edge. Returns ErrDuplicateKey if the wallet pair exists.
func (s *EdgeStore) Insert(_ context.Context, e *domain.ConsolidationEdge) error {
	if e == nil || e.WalletA == "" || e.WalletB == "" {
		return storage.ErrInvalidInput
	}
	key := e.PairKey()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	copy := *e
	s.data[key] = &copy
	return nil
}

// GetConfirmed retrieves all bidirectionally confirmed edges.
func (s *EdgeStore) GetConfirmed(_ context.Context) ([]*domain.ConsolidationEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ConsolidationEdge
	for _, e := range s.data {
		if e.Confirmed {
			copy := *e
			result = append(result, &copy)
		}
	}
	return result, nil
}

// GetAll retrieves every registered edge, confirmed or not.
func (s *EdgeStore) GetAll(_ context.Context) ([]*domain.ConsolidationEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ConsolidationEdge, 0, len(s.data))
	for _, e := range s.data {
		copy := *e
		result = append(result, &copy)
	}
	return result, nil
}

var _ storage.EdgeStore = (*EdgeStore)(nil)
