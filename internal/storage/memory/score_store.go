package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// ScoreStore is an in-memory implementation of storage.ScoreStore. One
// instance backs the wallet-level table and another the identity-level
// table.
type ScoreStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScoreRecord // keyed by owner key
}

// NewScoreStore creates a new in-memory score store.
func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		data: make(map[string]*domain.ScoreRecord),
	}
}

// ReplaceAll swaps the live table for records computed in a full run.
func (s *ScoreStore) ReplaceAll(_ context.Context, records []*domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*domain.ScoreRecord, len(records))
	for _, rec := range records {
		if rec == nil || rec.OwnerKey == "" {
			return storage.ErrInvalidInput
		}
		s.data[strings.ToLower(rec.OwnerKey)] = cloneRecord(rec)
	}
	return nil
}

// UpsertBulk adds or replaces records keyed by owner key.
func (s *ScoreStore) UpsertBulk(_ context.Context, records []*domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if rec == nil || rec.OwnerKey == "" {
			return storage.ErrInvalidInput
		}
		s.data[strings.ToLower(rec.OwnerKey)] = cloneRecord(rec)
	}
	return nil
}

// DeleteByOwnerKeys removes records whose owners dropped to zero.
func (s *ScoreStore) DeleteByOwnerKeys(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.data, strings.ToLower(key))
	}
	return nil
}

// GetByOwnerKey retrieves one record. Returns ErrNotFound if not exists.
func (s *ScoreStore) GetByOwnerKey(_ context.Context, key string) (*domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[strings.ToLower(key)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// GetAll retrieves the live table ordered by rank ASC.
func (s *ScoreStore) GetAll(_ context.Context) ([]*domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ScoreRecord, 0, len(s.data))
	for _, rec := range s.data {
		result = append(result, cloneRecord(rec))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Rank != result[j].Rank {
			return result[i].Rank < result[j].Rank
		}
		return result[i].OwnerKey < result[j].OwnerKey
	})
	return result, nil
}

func cloneRecord(rec *domain.ScoreRecord) *domain.ScoreRecord {
	copy := *rec
	copy.Wallets = append([]string(nil), rec.Wallets...)
	copy.Memes = cloneTokens(rec.Memes)
	copy.Gradients = cloneTokens(rec.Gradients)
	copy.NextGen = cloneTokens(rec.NextGen)
	copy.MemesRanks = append([]domain.TokenRank(nil), rec.MemesRanks...)
	copy.GradientsRanks = append([]domain.TokenRank(nil), rec.GradientsRanks...)
	copy.NextGenRanks = append([]domain.TokenRank(nil), rec.NextGenRanks...)
	if rec.Breakdown.Seasons != nil {
		copy.Breakdown.Seasons = make(map[int]float64, len(rec.Breakdown.Seasons))
		for k, v := range rec.Breakdown.Seasons {
			copy.Breakdown.Seasons[k] = v
		}
	}
	return &copy
}

func cloneTokens(tokens []domain.TokenScore) []domain.TokenScore {
	if tokens == nil {
		return nil
	}
	out := make([]domain.TokenScore, len(tokens))
	for i, tok := range tokens {
		out[i] = tok
		out[i].DaysHeldPerEdition = append([]int64(nil), tok.DaysHeldPerEdition...)
	}
	return out
}

var _ storage.ScoreStore = (*ScoreStore)(nil)
