package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// TransferStore is an in-memory implementation of storage.TransferStore.
type TransferStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TransferEvent // keyed by composite key
}

// NewTransferStore creates a new in-memory transfer store.
func NewTransferStore() *TransferStore {
	return &TransferStore{
		data: make(map[string]*domain.TransferEvent),
	}
}

// transferKey generates a unique key for a transfer.
func transferKey(t *domain.TransferEvent) string {
	return fmt.Sprintf("%s|%d|%s|%d|%s|%s", t.TxID, t.EventIndex, t.Contract, t.TokenID, t.From, t.To)
}

// InsertBulk adds multiple transfers atomically. Fails entire batch on any duplicate.
func (s *TransferStore) InsertBulk(_ context.Context, transfers []*domain.TransferEvent) error {
	if len(transfers) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(transfers))
	for _, t := range transfers {
		if t == nil || t.TxID == "" || t.Contract == "" {
			return storage.ErrInvalidInput
		}
		key := transferKey(t)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, t := range transfers {
		copy := *t
		s.data[transferKey(t)] = &copy
	}
	return nil
}

// GetUpToBlock retrieves all transfers at or before block, ordered by timestamp ASC.
func (s *TransferStore) GetUpToBlock(_ context.Context, block int64) ([]*domain.TransferEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransferEvent
	for _, t := range s.data {
		if t.Block <= block {
			copy := *t
			result = append(result, &copy)
		}
	}
	sortTransfers(result)
	return result, nil
}

// GetByWallets retrieves transfers at or before block touching any of the wallets.
func (s *TransferStore) GetByWallets(_ context.Context, wallets []string, block int64) ([]*domain.TransferEvent, error) {
	set := make(map[string]struct{}, len(wallets))
	for _, w := range wallets {
		set[strings.ToLower(w)] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransferEvent
	for _, t := range s.data {
		if t.Block > block {
			continue
		}
		_, fromHit := set[strings.ToLower(t.From)]
		_, toHit := set[strings.ToLower(t.To)]
		if fromHit || toHit {
			copy := *t
			result = append(result, &copy)
		}
	}
	sortTransfers(result)
	return result, nil
}

// LatestBlock returns the highest block among stored transfers.
func (s *TransferStore) LatestBlock(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.data) == 0 {
		return 0, storage.ErrNotFound
	}
	var max int64
	for _, t := range s.data {
		if t.Block > max {
			max = t.Block
		}
	}
	return max, nil
}

func sortTransfers(transfers []*domain.TransferEvent) {
	sort.Slice(transfers, func(i, j int) bool {
		if transfers[i].Timestamp != transfers[j].Timestamp {
			return transfers[i].Timestamp < transfers[j].Timestamp
		}
		if transfers[i].TxID != transfers[j].TxID {
			return transfers[i].TxID < transfers[j].TxID
		}
		return transfers[i].EventIndex < transfers[j].EventIndex
	})
}

var _ storage.TransferStore = (*TransferStore)(nil)
