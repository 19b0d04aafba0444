package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// Score table names. Both tables share one schema; one holds wallet-level
// rows, the other identity-level rows.
const (
	WalletScoreTable       = "tdh"
	ConsolidatedScoreTable = "tdh_consolidated"
)

// ScoreStore implements storage.ScoreStore using PostgreSQL. Token-level
// detail (per-token scores, ranks, boost breakdown) lives in JSONB
// columns; scalar totals are flat columns so leaderboards can sort in SQL.
type ScoreStore struct {
	pool  *Pool
	table string
}

// NewScoreStore creates a ScoreStore over one of the score tables.
func NewScoreStore(pool *Pool, table string) *ScoreStore {
	return &ScoreStore{pool: pool, table: table}
}

// Compile-time interface check.
var _ storage.ScoreStore = (*ScoreStore)(nil)

const scoreColumns = `
	owner_key, wallets, block,
	balance, raw_tdh, tdh, boost, boosted_tdh,
	card_sets, unique_memes, genesis, nakamoto,
	memes_balance, memes_raw_tdh, memes_tdh, boosted_memes_tdh,
	gradients_balance, gradients_raw_tdh, gradients_tdh, boosted_gradients_tdh,
	nextgen_balance, nextgen_raw_tdh, nextgen_tdh, boosted_nextgen_tdh,
	memes, gradients, nextgen,
	rank, rank_memes, rank_gradients, rank_nextgen,
	memes_ranks, gradients_ranks, nextgen_ranks,
	boost_breakdown
`

// ReplaceAll swaps the live table for records computed in a full run.
func (s *ScoreStore) ReplaceAll(ctx context.Context, records []*domain.ScoreRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+s.table); err != nil {
		return fmt.Errorf("clear %s: %w", s.table, err)
	}
	if err := s.insertAll(ctx, tx, records, false); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpsertBulk adds or replaces records keyed by owner key.
func (s *ScoreStore) UpsertBulk(ctx context.Context, records []*domain.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.insertAll(ctx, tx, records, true); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *ScoreStore) insertAll(ctx context.Context, tx pgx.Tx, records []*domain.ScoreRecord, upsert bool) error {
	placeholders := make([]string, 35)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := `INSERT INTO ` + s.table + ` (` + scoreColumns + `) VALUES (` +
		strings.Join(placeholders, ", ") + `)`
	if upsert {
		query += `
			ON CONFLICT (owner_key) DO UPDATE SET ` + upsertAssignments()
	}

	for _, rec := range records {
		args, err := scoreArgs(rec)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert score record: %w", err)
		}
	}
	return nil
}

// upsertAssignments lists every non-key column as col = EXCLUDED.col.
func upsertAssignments() string {
	cols := strings.Split(scoreColumns, ",")
	var parts []string
	for _, col := range cols {
		col = strings.TrimSpace(col)
		if col == "" || col == "owner_key" {
			continue
		}
		parts = append(parts, col+" = EXCLUDED."+col)
	}
	return strings.Join(parts, ", ")
}

func scoreArgs(rec *domain.ScoreRecord) ([]any, error) {
	memes, err := json.Marshal(rec.Memes)
	if err != nil {
		return nil, fmt.Errorf("marshal memes detail: %w", err)
	}
	gradients, err := json.Marshal(rec.Gradients)
	if err != nil {
		return nil, fmt.Errorf("marshal gradients detail: %w", err)
	}
	nextgen, err := json.Marshal(rec.NextGen)
	if err != nil {
		return nil, fmt.Errorf("marshal nextgen detail: %w", err)
	}
	memesRanks, err := json.Marshal(rec.MemesRanks)
	if err != nil {
		return nil, fmt.Errorf("marshal memes ranks: %w", err)
	}
	gradientsRanks, err := json.Marshal(rec.GradientsRanks)
	if err != nil {
		return nil, fmt.Errorf("marshal gradients ranks: %w", err)
	}
	nextgenRanks, err := json.Marshal(rec.NextGenRanks)
	if err != nil {
		return nil, fmt.Errorf("marshal nextgen ranks: %w", err)
	}
	breakdown, err := json.Marshal(rec.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("marshal boost breakdown: %w", err)
	}

	return []any{
		strings.ToLower(rec.OwnerKey), rec.Wallets, rec.Block,
		rec.Balance, rec.RawTDH, rec.TDH, rec.Boost, rec.BoostedTDH,
		rec.CardSets, rec.UniqueMemes, rec.Genesis, rec.Nakamoto,
		rec.MemesBalance, rec.MemesRawTDH, rec.MemesTDH, rec.BoostedMemesTDH,
		rec.GradientsBalance, rec.GradientsRawTDH, rec.GradientsTDH, rec.BoostedGradientsTDH,
		rec.NextGenBalance, rec.NextGenRawTDH, rec.NextGenTDH, rec.BoostedNextGenTDH,
		memes, gradients, nextgen,
		rec.Rank, rec.RankMemes, rec.RankGradients, rec.RankNextGen,
		memesRanks, gradientsRanks, nextgenRanks,
		breakdown,
	}, nil
}

// DeleteByOwnerKeys removes records whose owners dropped to zero.
func (s *ScoreStore) DeleteByOwnerKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	lowered := make([]string, len(keys))
	for i, key := range keys {
		lowered[i] = strings.ToLower(key)
	}

	_, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE owner_key = ANY($1)`, lowered)
	if err != nil {
		return fmt.Errorf("delete score records: %w", err)
	}
	return nil
}

// GetByOwnerKey retrieves one record. Returns ErrNotFound if not exists.
func (s *ScoreStore) GetByOwnerKey(ctx context.Context, key string) (*domain.ScoreRecord, error) {
	query := `SELECT ` + scoreColumns + ` FROM ` + s.table + ` WHERE owner_key = $1`

	rows, err := s.pool.Query(ctx, query, strings.ToLower(key))
	if err != nil {
		return nil, fmt.Errorf("get score record: %w", err)
	}
	defer rows.Close()

	records, err := scanScores(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records[0], nil
}

// GetAll retrieves the live table ordered by rank ASC.
func (s *ScoreStore) GetAll(ctx context.Context) ([]*domain.ScoreRecord, error) {
	query := `SELECT ` + scoreColumns + ` FROM ` + s.table + ` ORDER BY rank ASC, owner_key ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get score records: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

func scanScores(rows pgx.Rows) ([]*domain.ScoreRecord, error) {
	var records []*domain.ScoreRecord

	for rows.Next() {
		var (
			rec            domain.ScoreRecord
			memes          []byte
			gradients      []byte
			nextgen        []byte
			memesRanks     []byte
			gradientsRanks []byte
			nextgenRanks   []byte
			breakdown      []byte
		)
		err := rows.Scan(
			&rec.OwnerKey, &rec.Wallets, &rec.Block,
			&rec.Balance, &rec.RawTDH, &rec.TDH, &rec.Boost, &rec.BoostedTDH,
			&rec.CardSets, &rec.UniqueMemes, &rec.Genesis, &rec.Nakamoto,
			&rec.MemesBalance, &rec.MemesRawTDH, &rec.MemesTDH, &rec.BoostedMemesTDH,
			&rec.GradientsBalance, &rec.GradientsRawTDH, &rec.GradientsTDH, &rec.BoostedGradientsTDH,
			&rec.NextGenBalance, &rec.NextGenRawTDH, &rec.NextGenTDH, &rec.BoostedNextGenTDH,
			&memes, &gradients, &nextgen,
			&rec.Rank, &rec.RankMemes, &rec.RankGradients, &rec.RankNextGen,
			&memesRanks, &gradientsRanks, &nextgenRanks,
			&breakdown,
		)
		if err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}

		if err := json.Unmarshal(memes, &rec.Memes); err != nil {
			return nil, fmt.Errorf("unmarshal memes detail: %w", err)
		}
		if err := json.Unmarshal(gradients, &rec.Gradients); err != nil {
			return nil, fmt.Errorf("unmarshal gradients detail: %w", err)
		}
		if err := json.Unmarshal(nextgen, &rec.NextGen); err != nil {
			return nil, fmt.Errorf("unmarshal nextgen detail: %w", err)
		}
		if err := json.Unmarshal(memesRanks, &rec.MemesRanks); err != nil {
			return nil, fmt.Errorf("unmarshal memes ranks: %w", err)
		}
		if err := json.Unmarshal(gradientsRanks, &rec.GradientsRanks); err != nil {
			return nil, fmt.Errorf("unmarshal gradients ranks: %w", err)
		}
		if err := json.Unmarshal(nextgenRanks, &rec.NextGenRanks); err != nil {
			return nil, fmt.Errorf("unmarshal nextgen ranks: %w", err)
		}
		if err := json.Unmarshal(breakdown, &rec.Breakdown); err != nil {
			return nil, fmt.Errorf("unmarshal boost breakdown: %w", err)
		}

		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score rows: %w", err)
	}
	return records, nil
}
