package postgres

import (
	"context"
	"fmt"
	"strings"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// NFTStore implements storage.NFTStore using PostgreSQL.
type NFTStore struct {
	pool *Pool
}

// NewNFTStore creates a new NFTStore.
func NewNFTStore(pool *Pool) *NFTStore {
	return &NFTStore{pool: pool}
}

// Compile-time interface check.
var _ storage.NFTStore = (*NFTStore)(nil)

// UpsertBulk adds or replaces tokens keyed by (contract, id).
func (s *NFTStore) UpsertBulk(ctx context.Context, nfts []*domain.NFT) error {
	if len(nfts) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO nfts (contract, id, edition_size, mint_date, season)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (contract, id) DO UPDATE SET
			edition_size = EXCLUDED.edition_size,
			mint_date = EXCLUDED.mint_date,
			season = EXCLUDED.season
	`

	for _, n := range nfts {
		_, err := tx.Exec(ctx, query,
			strings.ToLower(n.Contract),
			n.ID,
			n.EditionSize,
			n.MintDate,
			n.Season,
		)
		if err != nil {
			return fmt.Errorf("upsert nft: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves the full universe ordered by contract, id.
func (s *NFTStore) GetAll(ctx context.Context) ([]*domain.NFT, error) {
	query := `
		SELECT contract, id, edition_size, mint_date, season
		FROM nfts
		ORDER BY contract ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get nfts: %w", err)
	}
	defer rows.Close()

	var nfts []*domain.NFT
	for rows.Next() {
		var n domain.NFT
		if err := rows.Scan(&n.Contract, &n.ID, &n.EditionSize, &n.MintDate, &n.Season); err != nil {
			return nil, fmt.Errorf("scan nft row: %w", err)
		}
		nfts = append(nfts, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nft rows: %w", err)
	}
	return nfts, nil
}
