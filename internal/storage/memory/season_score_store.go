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

// SeasonScoreStore is an in-memory implementation of storage.SeasonScoreStore.
type SeasonScoreStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SeasonScore // keyed by owner|season
}

// NewSeasonScoreStore creates a new in-memory season score store.
func NewSeasonScoreStore() *SeasonScoreStore {
	return &SeasonScoreStore{
		data: make(map[string]*domain.SeasonScore),
	}
}

func seasonScoreKey(owner string, season int) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(owner), season)
}

// ReplaceAll swaps the live season rows wholesale.
func (s *SeasonScoreStore) ReplaceAll(_ context.Context, rows []*domain.SeasonScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*domain.SeasonScore, len(rows))
	return s.putLocked(rows)
}

// UpsertBulk adds or replaces rows keyed by (owner key, season).
func (s *SeasonScoreStore) UpsertBulk(_ context.Context, rows []*domain.SeasonScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.putLocked(rows)
}

func (s *SeasonScoreStore) putLocked(rows []*domain.SeasonScore) error {
	for _, row := range rows {
		if row == nil || row.OwnerKey == "" {
			return storage.ErrInvalidInput
		}
		copy := *row
		s.data[seasonScoreKey(row.OwnerKey, row.Season)] = &copy
	}
	return nil
}

// DeleteByOwnerKeys removes all season rows of the given owners.
func (s *SeasonScoreStore) DeleteByOwnerKeys(_ context.Context, keys []string) error {
	owners := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		owners[strings.ToLower(key)] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, row := range s.data {
		if _, hit := owners[strings.ToLower(row.OwnerKey)]; hit {
			delete(s.data, key)
		}
	}
	return nil
}

// GetBySeason retrieves one season's rows ordered by rank ASC.
func (s *SeasonScoreStore) GetBySeason(_ context.Context, season int) ([]*domain.SeasonScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SeasonScore
	for _, row := range s.data {
		if row.Season == season {
			copy := *row
			result = append(result, &copy)
		}
	}
	sortSeasonScores(result)
	return result, nil
}

// GetAll retrieves every season row ordered by season, rank.
func (s *SeasonScoreStore) GetAll(_ context.Context) ([]*domain.SeasonScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SeasonScore, 0, len(s.data))
	for _, row := range s.data {
		copy := *row
		result = append(result, &copy)
	}
	sortSeasonScores(result)
	return result, nil
}

func sortSeasonScores(rows []*domain.SeasonScore) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Season != rows[j].Season {
			return rows[i].Season < rows[j].Season
		}
		if rows[i].Rank != rows[j].Rank {
			return rows[i].Rank < rows[j].Rank
		}
		return rows[i].OwnerKey < rows[j].OwnerKey
	})
}

var _ storage.SeasonScoreStore = (*SeasonScoreStore)(nil)
