package postgres

import (
	"context"
	"fmt"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// SeasonStore implements storage.SeasonStore using PostgreSQL.
type SeasonStore struct {
	pool *Pool
}

// NewSeasonStore creates a new SeasonStore.
func NewSeasonStore(pool *Pool) *SeasonStore {
	return &SeasonStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SeasonStore = (*SeasonStore)(nil)

// ReplaceAll swaps the season table wholesale.
func (s *SeasonStore) ReplaceAll(ctx context.Context, seasons []*domain.Season) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM seasons`); err != nil {
		return fmt.Errorf("clear seasons: %w", err)
	}

	query := `
		INSERT INTO seasons (id, start_index, end_index, expected_count, boost_weight)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, season := range seasons {
		_, err := tx.Exec(ctx, query,
			season.ID,
			season.StartIndex,
			season.EndIndex,
			season.ExpectedCount,
			season.BoostWeight,
		)
		if err != nil {
			return fmt.Errorf("insert season: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves seasons ordered by id.
func (s *SeasonStore) GetAll(ctx context.Context) ([]*domain.Season, error) {
	query := `
		SELECT id, start_index, end_index, expected_count, boost_weight
		FROM seasons
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get seasons: %w", err)
	}
	defer rows.Close()

	var seasons []*domain.Season
	for rows.Next() {
		var season domain.Season
		err := rows.Scan(
			&season.ID,
			&season.StartIndex,
			&season.EndIndex,
			&season.ExpectedCount,
			&season.BoostWeight,
		)
		if err != nil {
			return nil, fmt.Errorf("scan season row: %w", err)
		}
		seasons = append(seasons, &season)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate season rows: %w", err)
	}
	return seasons, nil
}
