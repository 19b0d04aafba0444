package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// SeasonScoreStore implements storage.SeasonScoreStore using PostgreSQL.
type SeasonScoreStore struct {
	pool *Pool
}

// NewSeasonScoreStore creates a new SeasonScoreStore.
func NewSeasonScoreStore(pool *Pool) *SeasonScoreStore {
	return &SeasonScoreStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SeasonScoreStore = (*SeasonScoreStore)(nil)

const seasonScoreColumns = `
	owner_key, season, balance, raw_tdh, tdh, boost, boosted_tdh,
	unique_memes, card_sets, rank
`

const seasonScoreInsert = `
	INSERT INTO tdh_seasons (` + seasonScoreColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// ReplaceAll swaps the live season rows wholesale.
func (s *SeasonScoreStore) ReplaceAll(ctx context.Context, rows []*domain.SeasonScore) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tdh_seasons`); err != nil {
		return fmt.Errorf("clear tdh_seasons: %w", err)
	}
	for _, row := range rows {
		if _, err := tx.Exec(ctx, seasonScoreInsert, seasonScoreArgs(row)...); err != nil {
			return fmt.Errorf("insert season score: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpsertBulk adds or replaces rows keyed by (owner key, season).
func (s *SeasonScoreStore) UpsertBulk(ctx context.Context, rows []*domain.SeasonScore) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := seasonScoreInsert + `
		ON CONFLICT (owner_key, season) DO UPDATE SET
			balance = EXCLUDED.balance,
			raw_tdh = EXCLUDED.raw_tdh,
			tdh = EXCLUDED.tdh,
			boost = EXCLUDED.boost,
			boosted_tdh = EXCLUDED.boosted_tdh,
			unique_memes = EXCLUDED.unique_memes,
			card_sets = EXCLUDED.card_sets,
			rank = EXCLUDED.rank
	`
	for _, row := range rows {
		if _, err := tx.Exec(ctx, query, seasonScoreArgs(row)...); err != nil {
			return fmt.Errorf("upsert season score: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func seasonScoreArgs(row *domain.SeasonScore) []any {
	return []any{
		strings.ToLower(row.OwnerKey), row.Season, row.Balance, row.RawTDH,
		row.TDH, row.Boost, row.BoostedTDH, row.UniqueMemes, row.CardSets, row.Rank,
	}
}

// DeleteByOwnerKeys removes all season rows of the given owners.
func (s *SeasonScoreStore) DeleteByOwnerKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	lowered := make([]string, len(keys))
	for i, key := range keys {
		lowered[i] = strings.ToLower(key)
	}

	_, err := s.pool.Exec(ctx, `DELETE FROM tdh_seasons WHERE owner_key = ANY($1)`, lowered)
	if err != nil {
		return fmt.Errorf("delete season scores: %w", err)
	}
	return nil
}

// GetBySeason retrieves one season's rows ordered by rank ASC.
func (s *SeasonScoreStore) GetBySeason(ctx context.Context, season int) ([]*domain.SeasonScore, error) {
	query := `
		SELECT ` + seasonScoreColumns + `
		FROM tdh_seasons
		WHERE season = $1
		ORDER BY rank ASC, owner_key ASC
	`

	rows, err := s.pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("get season scores: %w", err)
	}
	defer rows.Close()

	return scanSeasonScores(rows)
}

// GetAll retrieves every season row ordered by season, rank.
func (s *SeasonScoreStore) GetAll(ctx context.Context) ([]*domain.SeasonScore, error) {
	query := `
		SELECT ` + seasonScoreColumns + `
		FROM tdh_seasons
		ORDER BY season ASC, rank ASC, owner_key ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get season scores: %w", err)
	}
	defer rows.Close()

	return scanSeasonScores(rows)
}

func scanSeasonScores(rows pgx.Rows) ([]*domain.SeasonScore, error) {
	var result []*domain.SeasonScore

	for rows.Next() {
		var row domain.SeasonScore
		err := rows.Scan(
			&row.OwnerKey, &row.Season, &row.Balance, &row.RawTDH,
			&row.TDH, &row.Boost, &row.BoostedTDH, &row.UniqueMemes,
			&row.CardSets, &row.Rank,
		)
		if err != nil {
			return nil, fmt.Errorf("scan season score row: %w", err)
		}
		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate season score rows: %w", err)
	}
	return result, nil
}
