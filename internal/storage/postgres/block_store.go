package postgres

import (
	"context"
	"fmt"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// BlockStore implements storage.BlockStore using PostgreSQL.
type BlockStore struct {
	pool *Pool
}

// NewBlockStore creates a new BlockStore.
func NewBlockStore(pool *Pool) *BlockStore {
	return &BlockStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BlockStore = (*BlockStore)(nil)

// Insert adds a new block record. Returns ErrDuplicateKey if the block exists.
func (s *BlockStore) Insert(ctx context.Context, rec *domain.BlockRecord) error {
	query := `
		INSERT INTO tdh_blocks (block, timestamp, merkle_root)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, rec.Block, rec.Timestamp, rec.MerkleRoot)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert block record: %w", err)
	}
	return nil
}

// GetLatest retrieves the highest-block record. Returns ErrNotFound when empty.
func (s *BlockStore) GetLatest(ctx context.Context) (*domain.BlockRecord, error) {
	query := `
		SELECT block, timestamp, merkle_root
		FROM tdh_blocks
		ORDER BY block DESC
		LIMIT 1
	`
	return s.getOne(ctx, query)
}

// GetByBlock retrieves one record. Returns ErrNotFound if not exists.
func (s *BlockStore) GetByBlock(ctx context.Context, block int64) (*domain.BlockRecord, error) {
	query := `
		SELECT block, timestamp, merkle_root
		FROM tdh_blocks
		WHERE block = $1
	`
	return s.getOne(ctx, query, block)
}

func (s *BlockStore) getOne(ctx context.Context, query string, args ...any) (*domain.BlockRecord, error) {
	var rec domain.BlockRecord
	err := s.pool.QueryRow(ctx, query, args...).Scan(&rec.Block, &rec.Timestamp, &rec.MerkleRoot)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get block record: %w", err)
	}
	return &rec, nil
}
