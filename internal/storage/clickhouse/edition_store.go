package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// EditionStore implements storage.EditionStore using ClickHouse. The
// audit table is write-heavy and read rarely, which suits MergeTree;
// ReplaceAll truncates and refills since rows carry no identity beyond
// their run.
type EditionStore struct {
	conn *Conn
}

// NewEditionStore creates a new EditionStore.
func NewEditionStore(conn *Conn) *EditionStore {
	return &EditionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EditionStore = (*EditionStore)(nil)

// ReplaceAll swaps the audit table for rows of a full run.
func (s *EditionStore) ReplaceAll(ctx context.Context, rows []domain.EditionRow) error {
	if err := s.conn.Exec(ctx, `TRUNCATE TABLE tdh_editions`); err != nil {
		return fmt.Errorf("truncate tdh_editions: %w", err)
	}
	return s.InsertBulk(ctx, rows)
}

// InsertBulk appends audit rows.
func (s *EditionStore) InsertBulk(ctx context.Context, rows []domain.EditionRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO tdh_editions (
			owner_key, contract, token_id, edition_id,
			balance, days_held, hodl_rate, tdh, boost, boosted_tdh
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range rows {
		err = batch.Append(
			strings.ToLower(row.OwnerKey), row.Contract, row.TokenID, int32(row.EditionID),
			row.Balance, row.DaysHeld, row.HodlRate, row.TDH, row.Boost, row.BoostedTDH,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByOwnerKey retrieves one owner's rows ordered by contract, token, edition.
func (s *EditionStore) GetByOwnerKey(ctx context.Context, key string) ([]domain.EditionRow, error) {
	query := `
		SELECT
			owner_key, contract, token_id, edition_id,
			balance, days_held, hodl_rate, tdh, boost, boosted_tdh
		FROM tdh_editions
		WHERE owner_key = ?
		ORDER BY contract ASC, token_id ASC, edition_id ASC
	`

	rows, err := s.conn.Query(ctx, query, strings.ToLower(key))
	if err != nil {
		return nil, fmt.Errorf("query editions by owner: %w", err)
	}
	defer rows.Close()

	var result []domain.EditionRow
	for rows.Next() {
		var (
			row       domain.EditionRow
			editionID int32
		)
		err := rows.Scan(
			&row.OwnerKey, &row.Contract, &row.TokenID, &editionID,
			&row.Balance, &row.DaysHeld, &row.HodlRate, &row.TDH, &row.Boost, &row.BoostedTDH,
		)
		if err != nil {
			return nil, fmt.Errorf("scan edition row: %w", err)
		}
		row.EditionID = int(editionID)
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edition rows: %w", err)
	}
	return result, nil
}

// Count returns the number of stored rows.
func (s *EditionStore) Count(ctx context.Context) (int64, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM tdh_editions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count editions: %w", err)
	}
	return int64(count), nil
}
