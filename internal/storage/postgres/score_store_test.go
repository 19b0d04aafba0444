package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

func testScoreRecord(key string, rank int) *domain.ScoreRecord {
	return &domain.ScoreRecord{
		OwnerKey:   key,
		Wallets:    []string{key},
		Block:      1000,
		Balance:    3,
		RawTDH:     30,
		TDH:        45.5,
		Boost:      1.05,
		BoostedTDH: 48,
		Memes: []domain.TokenScore{
			{Contract: domain.MemesContract, ID: 1, Balance: 3, HodlRate: 1.5, RawTDH: 30, TDH: 45.5, DaysHeldPerEdition: []int64{15, 10, 5}},
		},
		MemesBalance:    3,
		MemesRawTDH:     30,
		MemesTDH:        45.5,
		BoostedMemesTDH: 48,
		UniqueMemes:     1,
		Rank:            rank,
		RankMemes:       rank,
		RankGradients:   -1,
		RankNextGen:     -1,
		MemesRanks:      []domain.TokenRank{{ID: 1, Rank: rank}},
		Breakdown:       domain.BoostBreakdown{Seasons: map[int]float64{1: 0.05}},
	}
}

func TestScoreStore_ReplaceAllAndGetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScoreStore(pool, WalletScoreTable)

	err := store.ReplaceAll(ctx, []*domain.ScoreRecord{
		testScoreRecord("0xbb", 2),
		testScoreRecord("0xaa", 1),
	})
	require.NoError(t, err)

	records, err := store.GetAll(ctx)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "0xaa", records[0].OwnerKey, "rank ASC order")
	assert.Equal(t, int64(30), records[0].RawTDH)
	assert.InDelta(t, 45.5, records[0].TDH, 0.0001)
	require.Len(t, records[0].Memes, 1)
	assert.Equal(t, []int64{15, 10, 5}, records[0].Memes[0].DaysHeldPerEdition)
	assert.Equal(t, -1, records[0].RankGradients)
	assert.InDelta(t, 0.05, records[0].Breakdown.Seasons[1], 0.0001)

	// A second ReplaceAll drops the old rows.
	require.NoError(t, store.ReplaceAll(ctx, []*domain.ScoreRecord{testScoreRecord("0xcc", 1)}))
	_, err = store.GetByOwnerKey(ctx, "0xaa")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestScoreStore_UpsertBulk(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScoreStore(pool, ConsolidatedScoreTable)

	rec := testScoreRecord("0xaa-0xbb", 1)
	require.NoError(t, store.UpsertBulk(ctx, []*domain.ScoreRecord{rec}))

	rec.BoostedTDH = 99
	rec.Rank = 3
	require.NoError(t, store.UpsertBulk(ctx, []*domain.ScoreRecord{rec}))

	got, err := store.GetByOwnerKey(ctx, "0xAA-0xbb")
	require.NoError(t, err)
	assert.InDelta(t, 99.0, got.BoostedTDH, 0.0001)
	assert.Equal(t, 3, got.Rank)
	assert.Equal(t, []string{"0xaa-0xbb"}, got.Wallets)
}

func TestScoreStore_DeleteByOwnerKeys(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScoreStore(pool, WalletScoreTable)

	require.NoError(t, store.UpsertBulk(ctx, []*domain.ScoreRecord{
		testScoreRecord("0xaa", 1),
		testScoreRecord("0xbb", 2),
	}))

	require.NoError(t, store.DeleteByOwnerKeys(ctx, []string{"0xaa"}))

	_, err := store.GetByOwnerKey(ctx, "0xaa")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	records, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestScoreStore_TablesAreIndependent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	wallets := NewScoreStore(pool, WalletScoreTable)
	identities := NewScoreStore(pool, ConsolidatedScoreTable)

	require.NoError(t, wallets.UpsertBulk(ctx, []*domain.ScoreRecord{testScoreRecord("0xaa", 1)}))

	_, err := identities.GetByOwnerKey(ctx, "0xaa")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
