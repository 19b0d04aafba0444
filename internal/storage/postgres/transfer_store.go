package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// TransferStore implements storage.TransferStore using PostgreSQL.
type TransferStore struct {
	pool *Pool
}

// NewTransferStore creates a new TransferStore.
func NewTransferStore(pool *Pool) *TransferStore {
	return &TransferStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransferStore = (*TransferStore)(nil)

// InsertBulk adds multiple transfers atomically. Fails entire batch on any duplicate.
func (s *TransferStore) InsertBulk(ctx context.Context, transfers []*domain.TransferEvent) error {
	if len(transfers) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO transfers (
			contract, token_id, from_wallet, to_wallet, quantity, block, timestamp, tx_id, event_index
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, t := range transfers {
		_, err := tx.Exec(ctx, query,
			strings.ToLower(t.Contract),
			t.TokenID,
			strings.ToLower(t.From),
			strings.ToLower(t.To),
			t.Quantity,
			t.Block,
			t.Timestamp,
			t.TxID,
			t.EventIndex,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert transfer in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetUpToBlock retrieves all transfers at or before block, ordered by timestamp ASC.
func (s *TransferStore) GetUpToBlock(ctx context.Context, block int64) ([]*domain.TransferEvent, error) {
	query := `
		SELECT id, contract, token_id, from_wallet, to_wallet, quantity, block, timestamp, tx_id, event_index
		FROM transfers
		WHERE block <= $1
		ORDER BY timestamp ASC, tx_id ASC, event_index ASC
	`

	rows, err := s.pool.Query(ctx, query, block)
	if err != nil {
		return nil, fmt.Errorf("get transfers up to block: %w", err)
	}
	defer rows.Close()

	return scanTransfers(rows)
}

// GetByWallets retrieves transfers at or before block touching any of the wallets.
func (s *TransferStore) GetByWallets(ctx context.Context, wallets []string, block int64) ([]*domain.TransferEvent, error) {
	if len(wallets) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(wallets))
	for i, w := range wallets {
		lowered[i] = strings.ToLower(w)
	}

	query := `
		SELECT id, contract, token_id, from_wallet, to_wallet, quantity, block, timestamp, tx_id, event_index
		FROM transfers
		WHERE block <= $1 AND (from_wallet = ANY($2) OR to_wallet = ANY($2))
		ORDER BY timestamp ASC, tx_id ASC, event_index ASC
	`

	rows, err := s.pool.Query(ctx, query, block, lowered)
	if err != nil {
		return nil, fmt.Errorf("get transfers by wallets: %w", err)
	}
	defer rows.Close()

	return scanTransfers(rows)
}

// LatestBlock returns the highest block among stored transfers.
func (s *TransferStore) LatestBlock(ctx context.Context) (int64, error) {
	var block *int64
	err := s.pool.QueryRow(ctx, `SELECT MAX(block) FROM transfers`).Scan(&block)
	if err != nil {
		return 0, fmt.Errorf("get latest transfer block: %w", err)
	}
	if block == nil {
		return 0, storage.ErrNotFound
	}
	return *block, nil
}

// scanTransfers scans multiple rows into a slice of TransferEvent.
func scanTransfers(rows pgx.Rows) ([]*domain.TransferEvent, error) {
	var transfers []*domain.TransferEvent

	for rows.Next() {
		var t domain.TransferEvent
		err := rows.Scan(
			&t.ID,
			&t.Contract,
			&t.TokenID,
			&t.From,
			&t.To,
			&t.Quantity,
			&t.Block,
			&t.Timestamp,
			&t.TxID,
			&t.EventIndex,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transfer row: %w", err)
		}
		transfers = append(transfers, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer rows: %w", err)
	}
	return transfers, nil
}
