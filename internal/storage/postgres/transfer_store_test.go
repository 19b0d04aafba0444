package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tdh-engine/internal/domain"
	"tdh-engine/internal/storage"
)

func testTransfer(tx string, block, ts int64) *domain.TransferEvent {
	return &domain.TransferEvent{
		Contract:  domain.MemesContract,
		TokenID:   1,
		From:      "0xaa",
		To:        "0xbb",
		Quantity:  1,
		Block:     block,
		Timestamp: ts,
		TxID:      tx,
	}
}

func TestTransferStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransferStore(pool)

	err := store.InsertBulk(ctx, []*domain.TransferEvent{
		testTransfer("tx2", 20, 1700000002000),
		testTransfer("tx1", 10, 1700000001000),
	})
	require.NoError(t, err)

	transfers, err := store.GetUpToBlock(ctx, 100)
	require.NoError(t, err)

	require.Len(t, transfers, 2)
	assert.Equal(t, "tx1", transfers[0].TxID, "timestamp ASC order")
	assert.Equal(t, domain.MemesContract, transfers[0].Contract)
	assert.NotZero(t, transfers[0].ID)
}

func TestTransferStore_InsertBulkDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransferStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.TransferEvent{testTransfer("tx1", 10, 1000)}))

	err := store.InsertBulk(ctx, []*domain.TransferEvent{testTransfer("tx1", 10, 1000)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTransferStore_GetByWallets(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransferStore(pool)

	other := testTransfer("tx2", 20, 2000)
	other.From = "0xcc"
	other.To = "0xdd"
	require.NoError(t, store.InsertBulk(ctx, []*domain.TransferEvent{
		testTransfer("tx1", 10, 1000),
		other,
	}))

	transfers, err := store.GetByWallets(ctx, []string{"0xAA"}, 100)
	require.NoError(t, err)

	require.Len(t, transfers, 1)
	assert.Equal(t, "tx1", transfers[0].TxID)
}

func TestTransferStore_BlockCutoff(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransferStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.TransferEvent{
		testTransfer("tx1", 10, 1000),
		testTransfer("tx2", 50, 2000),
	}))

	transfers, err := store.GetUpToBlock(ctx, 20)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, "tx1", transfers[0].TxID)

	block, err := store.LatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), block)
}

func TestTransferStore_LatestBlockEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransferStore(pool)
	_, err := store.LatestBlock(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
