package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// NFTStore is an in-memory implementation of storage.NFTStore.
type NFTStore struct {
	mu   sync.RWMutex
	data map[string]*domain.NFT // keyed by contract|id
}

// NewNFTStore creates a new in-memory NFT store.
func NewNFTStore() *NFTStore {
	return &NFTStore{
		data: make(map[string]*domain.NFT),
	}
}

func nftKey(contract string, id int64) string {
	return fmt.Sprintf("%s|%d", contract, id)
}

// UpsertBulk adds or replaces tokens keyed by (contract, id).
func (s *NFTStore) UpsertBulk(_ context.Context, nfts []*domain.NFT) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range nfts {
		if n == nil || n.Contract == "" {
			return storage.ErrInvalidInput
		}
		copy := *n
		s.data[nftKey(n.Contract, n.ID)] = &copy
	}
	return nil
}

// GetAll retrieves the full universe ordered by contract, id.
func (s *NFTStore) GetAll(_ context.Context) ([]*domain.NFT, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.NFT, 0, len(s.data))
	for _, n := range s.data {
		copy := *n
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Contract != result[j].Contract {
			return result[i].Contract < result[j].Contract
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var _ storage.NFTStore = (*NFTStore)(nil)
