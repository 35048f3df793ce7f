package quote

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-solver/internal/domain"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenC = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func cpPool(id string, a, b common.Address, ra, rb string) domain.LiquidityPool {
	return domain.LiquidityPool{
		ID:     id,
		Kind:   domain.PoolKindConstantProduct,
		Tokens: []common.Address{a, b},
		Reserves: map[common.Address]decimal.Decimal{
			a: dec(ra),
			b: dec(rb),
		},
	}
}

func TestQuoteSell(t *testing.T) {
	svc := NewService(3, 1, zerolog.Nop())
	pools := []domain.LiquidityPool{cpPool("p1", tokenA, tokenB, "1000", "1000")}

	q, err := svc.Quote(context.Background(), pools, Request{
		SellToken: tokenA,
		BuyToken:  tokenB,
		Kind:      domain.OrderKindSell,
		Amount:    dec("100"),
	})
	require.NoError(t, err)

	assert.True(t, q.SellAmount.Equal(dec("100")))
	// 1000 * 100 / 1100
	assert.True(t, q.BuyAmount.Sub(dec("90.909090909090909")).Abs().LessThan(dec("0.000001")))
	require.Len(t, q.Interactions, 1)
	assert.Equal(t, "p1", q.Interactions[0].PoolID)
}

func TestQuoteBuyMultiHop(t *testing.T) {
	svc := NewService(3, 1, zerolog.Nop())
	pools := []domain.LiquidityPool{
		cpPool("p1", tokenA, tokenB, "1000", "1000"),
		cpPool("p2", tokenB, tokenC, "1000", "1000"),
	}

	q, err := svc.Quote(context.Background(), pools, Request{
		SellToken: tokenA,
		BuyToken:  tokenC,
		Kind:      domain.OrderKindBuy,
		Amount:    dec("50"),
	})
	require.NoError(t, err)

	assert.True(t, q.BuyAmount.Equal(dec("50")))
	assert.True(t, q.SellAmount.GreaterThan(dec("50")))
	require.Len(t, q.Interactions, 2)
	assert.Equal(t, "p1", q.Interactions[0].PoolID)
	assert.Equal(t, "p2", q.Interactions[1].PoolID)
}

func TestQuoteNoRoute(t *testing.T) {
	svc := NewService(3, 1, zerolog.Nop())
	pools := []domain.LiquidityPool{cpPool("p1", tokenA, tokenB, "1000", "1000")}

	_, err := svc.Quote(context.Background(), pools, Request{
		SellToken: tokenA,
		BuyToken:  tokenC,
		Kind:      domain.OrderKindSell,
		Amount:    dec("10"),
	})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestQuoteRejectsBadInput(t *testing.T) {
	svc := NewService(3, 1, zerolog.Nop())

	_, err := svc.Quote(context.Background(), nil, Request{
		SellToken: tokenA,
		BuyToken:  tokenB,
		Kind:      domain.OrderKindSell,
		Amount:    decimal.Zero,
	})
	assert.Error(t, err)

	_, err = svc.Quote(context.Background(), nil, Request{
		SellToken: tokenA,
		BuyToken:  tokenA,
		Kind:      domain.OrderKindSell,
		Amount:    dec("1"),
	})
	assert.Error(t, err)
}
