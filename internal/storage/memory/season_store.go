package memory

import (
	"context"
	"sort"
	"sync"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// SeasonStore is an in-memory implementation of storage.SeasonStore.
type SeasonStore struct {
	mu   sync.RWMutex
	data []*domain.Season
}

// NewSeasonStore creates a new in-memory season store.
func NewSeasonStore() *SeasonStore {
	return &SeasonStore{}
}

// ReplaceAll swaps the season table wholesale.
func (s *SeasonStore) ReplaceAll(_ context.Context, seasons []*domain.Season) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make([]*domain.Season, 0, len(seasons))
	for _, season := range seasons {
		if season == nil {
			return storage.ErrInvalidInput
		}
		copy := *season
		s.data = append(s.data, &copy)
	}
	return nil
}

// GetAll retrieves seasons ordered by id.
func (s *SeasonStore) GetAll(_ context.Context) ([]*domain.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Season, 0, len(s.data))
	for _, season := range s.data {
		copy := *season
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

var _ storage.SeasonStore = (*SeasonStore)(nil)
