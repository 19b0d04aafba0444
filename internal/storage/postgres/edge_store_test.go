package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

func TestEdgeStore_InsertAndGetConfirmed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEdgeStore(pool)

	require.NoError(t, store.Insert(ctx, &domain.ConsolidationEdge{
		WalletA: "0xAA", WalletB: "0xBB", Block: 100, Confirmed: true,
	}))
	require.NoError(t, store.Insert(ctx, &domain.ConsolidationEdge{
		WalletA: "0xcc", WalletB: "0xdd", Block: 200, Confirmed: false,
	}))

	confirmed, err := store.GetConfirmed(ctx)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "0xaa", confirmed[0].WalletA, "wallets stored lowercase")

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEdgeStore_DuplicatePair(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEdgeStore(pool)

	require.NoError(t, store.Insert(ctx, &domain.ConsolidationEdge{
		WalletA: "0xaa", WalletB: "0xbb", Block: 100,
	}))

	// Reversed direction is the same pair.
	err := store.Insert(ctx, &domain.ConsolidationEdge{
		WalletA: "0xBB", WalletB: "0xAA", Block: 200,
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSeasonStore_ReplaceAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSeasonStore(pool)

	require.NoError(t, store.ReplaceAll(ctx, []*domain.Season{
		{ID: 2, StartIndex: 48, EndIndex: 86, ExpectedCount: 39, BoostWeight: 0.05},
		{ID: 1, StartIndex: 1, EndIndex: 47, ExpectedCount: 47, BoostWeight: 0.05},
	}))

	seasons, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, seasons, 2)
	assert.Equal(t, 1, seasons[0].ID, "id ASC order")

	require.NoError(t, store.ReplaceAll(ctx, []*domain.Season{
		{ID: 1, StartIndex: 1, EndIndex: 47, ExpectedCount: 47, BoostWeight: 0.07},
	}))
	seasons, err = store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.InDelta(t, 0.07, seasons[0].BoostWeight, 0.0001)
}

func TestNFTStore_UpsertBulk(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewNFTStore(pool)

	require.NoError(t, store.UpsertBulk(ctx, []*domain.NFT{
		{Contract: domain.MemesContract, ID: 1, EditionSize: 100, MintDate: 1000, Season: 1},
	}))
	require.NoError(t, store.UpsertBulk(ctx, []*domain.NFT{
		{Contract: domain.MemesContract, ID: 1, EditionSize: 250, MintDate: 1000, Season: 1},
	}))

	nfts, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, nfts, 1)
	assert.Equal(t, int64(250), nfts[0].EditionSize, "upsert replaces")
}

func TestBlockStore_InsertAndGetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBlockStore(pool)

	_, err := store.GetLatest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Insert(ctx, &domain.BlockRecord{Block: 100, Timestamp: 1000, MerkleRoot: "aa"}))
	require.NoError(t, store.Insert(ctx, &domain.BlockRecord{Block: 200, Timestamp: 2000, MerkleRoot: "bb"}))

	err = store.Insert(ctx, &domain.BlockRecord{Block: 100, Timestamp: 1000, MerkleRoot: "cc"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	latest, err := store.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(200), latest.Block)
	assert.Equal(t, "bb", latest.MerkleRoot)
}

func TestUploadStore_Upsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewUploadStore(pool)

	require.NoError(t, store.Upsert(ctx, &domain.UploadRecord{Block: 100, Date: "20260101", Location: "tdh/a.csv"}))
	require.NoError(t, store.Upsert(ctx, &domain.UploadRecord{Block: 100, Date: "20260101", Location: "tdh/b.csv"}))

	rec, err := store.GetByBlock(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "tdh/b.csv", rec.Location)
}

func TestSeasonScoreStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSeasonScoreStore(pool)

	rows := []*domain.SeasonScore{
		{OwnerKey: "0xaa", Season: 1, Balance: 3, RawTDH: 30, TDH: 45, Boost: 1.05, BoostedTDH: 47, UniqueMemes: 2, CardSets: 0, Rank: 1},
		{OwnerKey: "0xaa", Season: 2, Balance: 1, RawTDH: 5, TDH: 5, Boost: 1.05, BoostedTDH: 5, UniqueMemes: 1, CardSets: 0, Rank: 2},
		{OwnerKey: "0xbb", Season: 2, Balance: 2, RawTDH: 20, TDH: 20, Boost: 1.0, BoostedTDH: 20, UniqueMemes: 2, CardSets: 1, Rank: 1},
	}
	require.NoError(t, store.ReplaceAll(ctx, rows))

	season2, err := store.GetBySeason(ctx, 2)
	require.NoError(t, err)
	require.Len(t, season2, 2)
	assert.Equal(t, "0xbb", season2[0].OwnerKey, "rank ASC order")

	require.NoError(t, store.DeleteByOwnerKeys(ctx, []string{"0xAA"}))
	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "0xbb", all[0].OwnerKey)
}
