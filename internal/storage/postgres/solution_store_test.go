package postgres

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-solver/internal/domain"
	"auction-solver/internal/storage"
)

func testSolution(id string, auctionID int64) *domain.Solution {
	return &domain.Solution{
		ID:        id,
		AuctionID: auctionID,
		Fills: []domain.Fill{{
			OrderUID:     "o1",
			ExecutedSell: decimal.RequireFromString("100"),
			ExecutedBuy:  decimal.RequireFromString("95.5"),
		}},
		Interactions: []domain.Interaction{{
			PoolID:    "p1",
			TokenIn:   testTokenA,
			TokenOut:  testTokenB,
			AmountIn:  decimal.RequireFromString("100"),
			AmountOut: decimal.RequireFromString("95.5"),
		}},
		ClearingPrices: map[common.Address]decimal.Decimal{
			testTokenA: decimal.RequireFromString("1"),
			testTokenB: decimal.RequireFromString("1.047"),
		},
		Score:    decimal.RequireFromString("5.5"),
		Strategy: "routing-deep",
	}
}

func TestSolutionStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSolutionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testSolution("s1", 1)))

	got, err := store.GetByID(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.AuctionID)
	assert.Equal(t, "routing-deep", got.Strategy)
	assert.True(t, got.Score.Equal(decimal.RequireFromString("5.5")))
	require.Len(t, got.Fills, 1)
	assert.True(t, got.Fills[0].ExecutedBuy.Equal(decimal.RequireFromString("95.5")))
	require.Len(t, got.Interactions, 1)
	assert.Equal(t, "p1", got.Interactions[0].PoolID)
	assert.True(t, got.ClearingPrices[testTokenB].Equal(decimal.RequireFromString("1.047")))
}

func TestSolutionStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSolutionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testSolution("s1", 1)))
	err := store.Insert(ctx, testSolution("s1", 2))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSolutionStore_GetByAuctionID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSolutionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testSolution("s2", 1)))
	require.NoError(t, store.Insert(ctx, testSolution("s1", 1)))
	require.NoError(t, store.Insert(ctx, testSolution("s3", 2)))

	got, err := store.GetByAuctionID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, "s2", got[1].ID)
}

func TestSolutionStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSolutionStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
