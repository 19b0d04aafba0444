package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// EditionStore is an in-memory implementation of storage.EditionStore.
type EditionStore struct {
	mu   sync.RWMutex
	data []domain.EditionRow
}

// NewEditionStore creates a new in-memory edition store.
func NewEditionStore() *EditionStore {
	return &EditionStore{}
}

// ReplaceAll swaps the audit table for rows of a full run.
func (s *EditionStore) ReplaceAll(_ context.Context, rows []domain.EditionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append([]domain.EditionRow(nil), rows...)
	return nil
}

// InsertBulk appends audit rows.
func (s *EditionStore) InsertBulk(_ context.Context, rows []domain.EditionRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append(s.data, rows...)
	return nil
}

// GetByOwnerKey retrieves one owner's rows ordered by contract, token, edition.
func (s *EditionStore) GetByOwnerKey(_ context.Context, key string) ([]domain.EditionRow, error) {
	key = strings.ToLower(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.EditionRow
	for _, row := range s.data {
		if strings.ToLower(row.OwnerKey) == key {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Contract != result[j].Contract {
			return result[i].Contract < result[j].Contract
		}
		if result[i].TokenID != result[j].TokenID {
			return result[i].TokenID < result[j].TokenID
		}
		return result[i].EditionID < result[j].EditionID
	})
	return result, nil
}

// Count returns the number of stored rows.
func (s *EditionStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.data)), nil
}

var _ storage.EditionStore = (*EditionStore)(nil)
