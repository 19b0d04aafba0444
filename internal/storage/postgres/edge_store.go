package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

// EdgeStore implements storage.EdgeStore using PostgreSQL.
type EdgeStore struct {
	pool *Pool
}

// NewEdgeStore creates a new EdgeStore.
func NewEdgeStore(pool *Pool) *EdgeStore {
	return &EdgeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EdgeStore = (*EdgeStore)(nil)

// Insert adds a new edge. Returns ErrDuplicateKey if the wallet pair exists.
func (s *EdgeStore) Insert(ctx context.Context, e *domain.ConsolidationEdge) error {
	query := `
		INSERT INTO consolidation_edges (pair_key, wallet_a, wallet_b, block, confirmed)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		e.PairKey(),
		strings.ToLower(e.WalletA),
		strings.ToLower(e.WalletB),
		e.Block,
		e.Confirmed,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert consolidation edge: %w", err)
	}
	return nil
}

// GetConfirmed retrieves all bidirectionally confirmed edges.
func (s *EdgeStore) GetConfirmed(ctx context.Context) ([]*domain.ConsolidationEdge, error) {
	return s.getEdges(ctx, `
		SELECT wallet_a, wallet_b, block, confirmed
		FROM consolidation_edges
		WHERE confirmed
		ORDER BY block DESC, pair_key ASC
	`)
}

// GetAll retrieves every registered edge, confirmed or not.
func (s *EdgeStore) GetAll(ctx context.Context) ([]*domain.ConsolidationEdge, error) {
	return s.getEdges(ctx, `
		SELECT wallet_a, wallet_b, block, confirmed
		FROM consolidation_edges
		ORDER BY block DESC, pair_key ASC
	`)
}

func (s *EdgeStore) getEdges(ctx context.Context, query string) ([]*domain.ConsolidationEdge, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get consolidation edges: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

func scanEdges(rows pgx.Rows) ([]*domain.ConsolidationEdge, error) {
	var edges []*domain.ConsolidationEdge

	for rows.Next() {
		var e domain.ConsolidationEdge
		if err := rows.Scan(&e.WalletA, &e.WalletB, &e.Block, &e.Confirmed); err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		edges = append(edges, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edge rows: %w", err)
	}
	return edges, nil
}
