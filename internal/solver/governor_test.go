package solver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-solver/internal/domain"
	"auction-solver/internal/graph"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testTokens() map[common.Address]domain.Token {
	return map[common.Address]domain.Token{
		tokenA: {Address: tokenA, Decimals: 18, Symbol: "AAA"},
		tokenB: {Address: tokenB, Decimals: 18, Symbol: "BBB"},
	}
}

func sellOrder(uid string, sell, buy common.Address, sellAmt, buyAmt string, partial bool) domain.Order {
	return domain.Order{
		UID:               uid,
		SellToken:         sell,
		BuyToken:          buy,
		SellAmount:        dec(sellAmt),
		BuyAmount:         dec(buyAmt),
		Kind:              domain.OrderKindSell,
		PartiallyFillable: partial,
		FeeAmount:         decimal.Zero,
		ValidTo:           time.Now().Add(time.Hour).Unix(),
		CreatedAt:         time.Now().UnixMilli(),
	}
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

func buildAuction(t *testing.T, orders []domain.Order, pools []domain.LiquidityPool, deadline time.Time) *domain.Auction {
	t.Helper()
	a, err := domain.NewAuction(1, testTokens(), orders, pools, deadline, nil, time.Now())
	require.NoError(t, err)
	return a
}

// fixedClock returns a pinned instant and a deadline channel that
// never fires on its own.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func (c fixedClock) After(time.Duration) <-chan time.Time { return make(chan time.Time) }

func TestSolveExpiredDeadlineReturnsBaseline(t *testing.T) {
	now := time.Now()
	orders := []domain.Order{sellOrder("o1", tokenA, tokenB, "100", "90", false)}
	pools := []domain.LiquidityPool{cpPool("p1", tokenA, tokenB, "1000", "1000")}
	auction := buildAuction(t, orders, pools, now.Add(-time.Second))

	g := New(Options{Clock: fixedClock{now: now}, Logger: zerolog.Nop()})
	res := g.Solve(context.Background(), auction)

	require.NotNil(t, res.Solution)
	assert.True(t, res.Solution.IsEmpty())
	assert.True(t, res.Solution.Score.IsZero())
	assert.True(t, res.TimedOut)
	assert.Equal(t, StateTimedOut, g.State())
}

func TestSolveRoutesSingleOrder(t *testing.T) {
	orders := []domain.Order{sellOrder("o1", tokenA, tokenB, "100", "90", false)}
	pools := []domain.LiquidityPool{cpPool("p1", tokenA, tokenB, "1000", "1000")}
	auction := buildAuction(t, orders, pools, time.Now().Add(5*time.Second))

	g := New(Options{Logger: zerolog.Nop()})
	res := g.Solve(context.Background(), auction)
	sol := res.Solution

	require.Len(t, sol.Fills, 1)
	assert.Equal(t, "o1", sol.Fills[0].OrderUID)
	assert.True(t, sol.Fills[0].ExecutedSell.Equal(dec("100")))
	assert.True(t, sol.Fills[0].ExecutedBuy.GreaterThanOrEqual(dec("90")))
	assert.NotEmpty(t, sol.Interactions)
	assert.True(t, sol.Score.IsPositive())
	assert.NotEmpty(t, sol.ID)
	assert.False(t, res.TimedOut)
	assert.Equal(t, StateCompleted, g.State())
}

func TestSolvePrefersPeerMatchOverRouting(t *testing.T) {
	// Opposite orders with overlapping limits. A peer match settles
	// both without touching the pool, so it pays no fee and scores
	// above any routed alternative.
	orders := []domain.Order{
		sellOrder("o1", tokenA, tokenB, "100", "90", true),
		sellOrder("o2", tokenB, tokenA, "95", "96", true),
	}
	pools := []domain.LiquidityPool{cpPool("p1", tokenA, tokenB, "1000", "1000")}
	auction := buildAuction(t, orders, pools, time.Now().Add(5*time.Second))

	g := New(Options{Logger: zerolog.Nop()})
	sol := g.Solve(context.Background(), auction).Solution

	require.NotNil(t, sol)
	assert.Equal(t, "matching-first", sol.Strategy)
	assert.Len(t, sol.Fills, 2)
}

func TestSolveUnmeetableLimitReturnsBaseline(t *testing.T) {
	// The pool can pay at most ~90.9 B for 100 A; the order demands 200.
	orders := []domain.Order{sellOrder("o1", tokenA, tokenB, "100", "200", false)}
	pools := []domain.LiquidityPool{cpPool("p1", tokenA, tokenB, "1000", "1000")}
	auction := buildAuction(t, orders, pools, time.Now().Add(5*time.Second))

	g := New(Options{Logger: zerolog.Nop()})
	res := g.Solve(context.Background(), auction)

	assert.True(t, res.Solution.IsEmpty())
	assert.True(t, res.Solution.Score.IsZero())
	assert.False(t, res.TimedOut)
	assert.Equal(t, StateCompleted, g.State())
}

func TestSolveNoStrategiesReturnsBaseline(t *testing.T) {
	orders := []domain.Order{sellOrder("o1", tokenA, tokenB, "100", "90", false)}
	pools := []domain.LiquidityPool{cpPool("p1", tokenA, tokenB, "1000", "1000")}
	auction := buildAuction(t, orders, pools, time.Now().Add(time.Second))

	g := New(Options{Strategies: []Strategy{}, Logger: zerolog.Nop()})
	res := g.Solve(context.Background(), auction)

	assert.True(t, res.Solution.IsEmpty())
	assert.False(t, res.TimedOut)
	assert.Equal(t, StateCompleted, g.State())
}

func TestSolveDeterministicWinner(t *testing.T) {
	orders := []domain.Order{sellOrder("o1", tokenA, tokenB, "100", "90", false)}
	pools := []domain.LiquidityPool{
		cpPool("p1", tokenA, tokenB, "1000", "1000"),
		cpPool("p2", tokenA, tokenB, "2000", "2000"),
	}

	var first *domain.Solution
	for i := 0; i < 5; i++ {
		auction := buildAuction(t, orders, pools, time.Now().Add(5*time.Second))
		g := New(Options{Logger: zerolog.Nop()})
		sol := g.Solve(context.Background(), auction).Solution
		if first == nil {
			first = sol
			continue
		}
		assert.Equal(t, first.ID, sol.ID)
		assert.Equal(t, first.Strategy, sol.Strategy)
		assert.True(t, first.Score.Equal(sol.Score))
	}
}

func TestSolveConcurrentCallsReportOwnOutcome(t *testing.T) {
	// One governor serves every request, so overlapping solves
	// interleave their state stores. Each call's timed-out flag must
	// come from its own result, not from whichever solve stored last.
	orders := []domain.Order{sellOrder("o1", tokenA, tokenB, "100", "90", false)}
	pools := []domain.LiquidityPool{cpPool("p1", tokenA, tokenB, "1000", "1000")}
	g := New(Options{Logger: zerolog.Nop()})

	for i := 0; i < 20; i++ {
		expired := buildAuction(t, orders, pools, time.Now().Add(-time.Second))
		live := buildAuction(t, orders, pools, time.Now().Add(5*time.Second))

		var wg sync.WaitGroup
		var expiredRes, liveRes Result
		wg.Add(2)
		go func() {
			defer wg.Done()
			expiredRes = g.Solve(context.Background(), expired)
		}()
		go func() {
			defer wg.Done()
			liveRes = g.Solve(context.Background(), live)
		}()
		wg.Wait()

		assert.True(t, expiredRes.TimedOut, "expired solve must report its own timeout")
		assert.True(t, expiredRes.Solution.IsEmpty())
		assert.False(t, liveRes.TimedOut, "live solve must not inherit the expired outcome")
		assert.NotEmpty(t, liveRes.Solution.Fills)
	}
}

func TestSolveLongerDeadlineNeverScoresWorse(t *testing.T) {
	orders := []domain.Order{sellOrder("o1", tokenA, tokenB, "100", "90", false)}
	pools := []domain.LiquidityPool{cpPool("p1", tokenA, tokenB, "1000", "1000")}
	strategies := []Strategy{{Name: "routing", MaxHops: 2, SplitChunks: 1}}

	short := buildAuction(t, orders, pools, time.Now().Add(-time.Second))
	shortRes := New(Options{Strategies: strategies, Logger: zerolog.Nop()}).
		Solve(context.Background(), short)

	long := buildAuction(t, orders, pools, time.Now().Add(5*time.Second))
	longRes := New(Options{Strategies: strategies, Logger: zerolog.Nop()}).
		Solve(context.Background(), long)

	assert.True(t, shortRes.Solution.Score.IsZero())
	assert.True(t, longRes.Solution.Score.IsPositive())
	assert.True(t, longRes.Solution.Score.GreaterThanOrEqual(shortRes.Solution.Score),
		"score %s with more budget fell below %s", longRes.Solution.Score, shortRes.Solution.Score)
}

func TestSortOrdersLikelihoodFirst(t *testing.T) {
	// o2's limit (0.5 B per A) sits far below the spot rate of 1, so
	// it is more likely to fill and must sort first.
	orders := []domain.Order{
		sellOrder("o1", tokenA, tokenB, "100", "99", false),
		sellOrder("o2", tokenA, tokenB, "100", "50", false),
	}
	pools := []domain.LiquidityPool{cpPool("p1", tokenA, tokenB, "1000", "1000")}
	auction := buildAuction(t, orders, pools, time.Now().Add(time.Second))

	liq := graph.Build(auction.Liquidity)
	SortOrders(orders, liq, DefaultSorting())

	assert.Equal(t, "o2", orders[0].UID)
	assert.Equal(t, "o1", orders[1].UID)
}
