package storage

import (
	"context"

	"tdh-engine/internal/domain"
)

// TransferStore provides access to transfer event storage.
type TransferStore interface {
	// InsertBulk adds multiple transfers atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, transfers []*domain.TransferEvent) error

	// GetUpToBlock retrieves all transfers at or before block, ordered by
	// timestamp ASC.
	GetUpToBlock(ctx context.Context, block int64) ([]*domain.TransferEvent, error)

	// GetByWallets retrieves transfers at or before block where any of the
	// wallets is sender or recipient, ordered by timestamp ASC.
	GetByWallets(ctx context.Context, wallets []string, block int64) ([]*domain.TransferEvent, error)

	// LatestBlock returns the highest block among stored transfers.
	// Returns ErrNotFound when the store is empty.
	LatestBlock(ctx context.Context) (int64, error)
}

// EdgeStore provides access to registered consolidation edges.
type EdgeStore interface {
	// Insert adds a new edge. Returns ErrDuplicateKey if the wallet pair exists.
	Insert(ctx context.Context, e *domain.ConsolidationEdge) error

	// GetConfirmed retrieves all bidirectionally confirmed edges.
	GetConfirmed(ctx context.Context) ([]*domain.ConsolidationEdge, error)

	// GetAll retrieves every registered edge, confirmed or not.
	GetAll(ctx context.Context) ([]*domain.ConsolidationEdge, error)
}

// NFTStore provides access to the scored token universe.
type NFTStore interface {
	// UpsertBulk adds or replaces tokens keyed by (contract, id).
	UpsertBulk(ctx context.Context, nfts []*domain.NFT) error

	// GetAll retrieves the full universe ordered by contract, id.
	GetAll(ctx context.Context) ([]*domain.NFT, error)
}

// SeasonStore provides access to the memes season table.
type SeasonStore interface {
	// ReplaceAll swaps the season table wholesale.
	ReplaceAll(ctx context.Context, seasons []*domain.Season) error

	// GetAll retrieves seasons ordered by id.
	GetAll(ctx context.Context) ([]*domain.Season, error)
}

// ScoreStore provides access to one score table. The engine keeps two:
// the wallet-level table and the identity-level (consolidated) table.
type ScoreStore interface {
	// ReplaceAll swaps the live table for records computed in a full run.
	ReplaceAll(ctx context.Context, records []*domain.ScoreRecord) error

	// UpsertBulk adds or replaces records keyed by owner key, used by
	// delta runs to splice recomputed identities into the live table.
	UpsertBulk(ctx context.Context, records []*domain.ScoreRecord) error

	// DeleteByOwnerKeys removes records whose owners dropped to zero.
	DeleteByOwnerKeys(ctx context.Context, keys []string) error

	// GetByOwnerKey retrieves one record. Returns ErrNotFound if not exists.
	GetByOwnerKey(ctx context.Context, key string) (*domain.ScoreRecord, error)

	// GetAll retrieves the live table ordered by rank ASC.
	GetAll(ctx context.Context) ([]*domain.ScoreRecord, error)
}

// SeasonScoreStore provides access to per-season score rows.
type SeasonScoreStore interface {
	// ReplaceAll swaps the live season rows wholesale.
	ReplaceAll(ctx context.Context, rows []*domain.SeasonScore) error

	// UpsertBulk adds or replaces rows keyed by (owner key, season).
	UpsertBulk(ctx context.Context, rows []*domain.SeasonScore) error

	// DeleteByOwnerKeys removes all season rows of the given owners.
	DeleteByOwnerKeys(ctx context.Context, keys []string) error

	// GetBySeason retrieves one season's rows ordered by rank ASC.
	GetBySeason(ctx context.Context, season int) ([]*domain.SeasonScore, error)

	// GetAll retrieves every season row ordered by season, rank.
	GetAll(ctx context.Context) ([]*domain.SeasonScore, error)
}

// EditionStore provides access to the flattened per-edition audit table.
type EditionStore interface {
	// ReplaceAll swaps the audit table for rows of a full run.
	ReplaceAll(ctx context.Context, rows []domain.EditionRow) error

	// InsertBulk appends audit rows.
	InsertBulk(ctx context.Context, rows []domain.EditionRow) error

	// GetByOwnerKey retrieves one owner's rows ordered by contract, token, edition.
	GetByOwnerKey(ctx context.Context, key string) ([]domain.EditionRow, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int64, error)
}

// BlockStore provides access to per-run block anchor records.
type BlockStore interface {
	// Insert adds a new block record. Returns ErrDuplicateKey if the block exists.
	Insert(ctx context.Context, rec *domain.BlockRecord) error

	// GetLatest retrieves the highest-block record. Returns ErrNotFound when empty.
	GetLatest(ctx context.Context) (*domain.BlockRecord, error)

	// GetByBlock retrieves one record. Returns ErrNotFound if not exists.
	GetByBlock(ctx context.Context, block int64) (*domain.BlockRecord, error)
}

// UploadStore provides access to archived artifact references.
type UploadStore interface {
	// Upsert adds or replaces the artifact reference for a block.
	Upsert(ctx context.Context, rec *domain.UploadRecord) error

	// GetLatest retrieves the highest-block reference. Returns ErrNotFound when empty.
	GetLatest(ctx context.Context) (*domain.UploadRecord, error)

	// GetByBlock retrieves one reference. Returns ErrNotFound if not exists.
	GetByBlock(ctx context.Context, block int64) (*domain.UploadRecord, error)
}
