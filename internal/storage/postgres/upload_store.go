package postgres

import (
	"context"
	"fmt"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// UploadStore implements storage.UploadStore using PostgreSQL.
type UploadStore struct {
	pool *Pool
}

// NewUploadStore creates a new UploadStore.
func NewUploadStore(pool *Pool) *UploadStore {
	return &UploadStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UploadStore = (*UploadStore)(nil)

// Upsert adds or replaces the artifact reference for a block.
func (s *UploadStore) Upsert(ctx context.Context, rec *domain.UploadRecord) error {
	query := `
		INSERT INTO uploads (block, date, location)
		VALUES ($1, $2, $3)
		ON CONFLICT (block) DO UPDATE SET
			date = EXCLUDED.date,
			location = EXCLUDED.location
	`

	_, err := s.pool.Exec(ctx, query, rec.Block, rec.Date, rec.Location)
	if err != nil {
		return fmt.Errorf("upsert upload record: %w", err)
	}
	return nil
}

// GetLatest retrieves the highest-block reference. Returns ErrNotFound when empty.
func (s *UploadStore) GetLatest(ctx context.Context) (*domain.UploadRecord, error) {
	query := `
		SELECT block, date, location
		FROM uploads
		ORDER BY block DESC
		LIMIT 1
	`
	return s.getOne(ctx, query)
}

// GetByBlock retrieves one reference. Returns ErrNotFound if not exists.
func (s *UploadStore) GetByBlock(ctx context.Context, block int64) (*domain.UploadRecord, error) {
	query := `
		SELECT block, date, location
		FROM uploads
		WHERE block = $1
	`
	return s.getOne(ctx, query, block)
}

func (s *UploadStore) getOne(ctx context.Context, query string, args ...any) (*domain.UploadRecord, error) {
	var rec domain.UploadRecord
	err := s.pool.QueryRow(ctx, query, args...).Scan(&rec.Block, &rec.Date, &rec.Location)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get upload record: %w", err)
	}
	return &rec, nil
}
