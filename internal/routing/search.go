// Package routing searches the liquidity graph for the execution
// path realizing the best output for an order, under a hop cap and
// the simulated reserve state committed so far in the same solve.
package routing

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/graph"
	"auction-solver/internal/liquidity"
)

// Route is a committed-to-be execution path for one order.
type Route struct {
	OrderUID     string
	Hops         []domain.Interaction
	ExecutedSell decimal.Decimal
	ExecutedBuy  decimal.Decimal

	pools []*domain.LiquidityPool // parallel to Hops
}

// Commit publishes the route's pool consumption to the overlay so
// later routes in the same candidate observe it.
func (r *Route) Commit(view *liquidity.Overlay) {
	for i, hop := range r.Hops {
		view.Apply(r.pools[i], hop.TokenIn, hop.AmountIn, hop.TokenOut, hop.AmountOut)
	}
}

// Searcher runs best-first route searches over one graph.
type Searcher struct {
	graph   *graph.Graph
	maxHops int
	chunks  int
}

// NewSearcher creates a Searcher. maxHops bounds path length; chunks
// controls the granularity of split routing across parallel pools.
func NewSearcher(g *graph.Graph, maxHops, chunks int) *Searcher {
	if maxHops < 1 {
		maxHops = 1
	}
	if chunks < 1 {
		chunks = 1
	}
	return &Searcher{graph: g, maxHops: maxHops, chunks: chunks}
}

// BestRoute finds the best route filling the order's open amount
// (remaining sell for sell orders, remaining buy for buy orders)
// against the committed overlay. Returns nil, nil when no route can
// meet the order's limit price: an unroutable order is not an error.
func (s *Searcher) BestRoute(ctx context.Context, order *domain.Order, open decimal.Decimal, view *liquidity.Overlay) (*Route, error) {
	if !open.IsPositive() {
		return nil, nil
	}

	var route *Route
	if order.Kind == domain.OrderKindBuy {
		route = s.searchBuy(ctx, order, open, view)
	} else {
		route = s.searchSell(ctx, order, open, view)
		if split := s.splitRoute(order, open, view); split != nil {
			if route == nil || split.ExecutedBuy.GreaterThan(route.ExecutedBuy) {
				route = split
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if route == nil {
		return nil, nil
	}

	// Limit price check, pro rata over the executed portion.
	if order.Kind == domain.OrderKindBuy {
		if route.ExecutedSell.GreaterThan(order.LimitSellFor(route.ExecutedBuy)) {
			return nil, nil
		}
	} else {
		if route.ExecutedBuy.LessThan(order.LimitBuyFor(route.ExecutedSell)) {
			return nil, nil
		}
	}
	return route, nil
}

// pathState is one partial path on the search frontier.
type pathState struct {
	token  common.Address
	amount decimal.Decimal // realized at token (forward) or required (inverse)
	bound  decimal.Decimal // optimistic completion value, the heap key
	hops   []domain.Interaction
	pools  []*domain.LiquidityPool
}

// searchSell maximizes output for a fixed input.
func (s *Searcher) searchSell(ctx context.Context, order *domain.Order, open decimal.Decimal, view *liquidity.Overlay) *Route {
	boost := optimisticRate(s.graph)

	frontier := newFrontier(func(a, b *pathState) bool { return a.bound.GreaterThan(b.bound) })
	frontier.push(&pathState{
		token:  order.SellToken,
		amount: open,
		bound:  open.Mul(boost.Pow(decimal.NewFromInt(int64(s.maxHops)))),
	})

	var best *pathState
	for frontier.Len() > 0 {
		if ctx.Err() != nil {
			return nil
		}
		cur := frontier.pop()

		// Frontier is ordered by optimistic bound: once the best
		// bound cannot beat a complete path, nothing later can.
		if best != nil && cur.bound.LessThanOrEqual(best.amount) {
			break
		}
		if cur.token == order.BuyToken {
			if best == nil || cur.amount.GreaterThan(best.amount) {
				best = cur
			}
			continue
		}
		if len(cur.hops) == s.maxHops {
			continue
		}

		for _, e := range s.graph.EdgesFrom(cur.token) {
			if usesPool(cur, e.Pool.ID) || visitsToken(cur, e.TokenOut, order.SellToken) {
				continue
			}
			out, err := liquidity.Quote(e.Pool, view, e.TokenIn, e.TokenOut, cur.amount)
			if err != nil {
				continue
			}
			remaining := int64(s.maxHops - len(cur.hops) - 1)
			frontier.push(extend(cur, e, cur.amount, out, out.Mul(boost.Pow(decimal.NewFromInt(remaining)))))
		}
	}

	if best == nil {
		return nil
	}
	return &Route{
		OrderUID:     order.UID,
		Hops:         best.hops,
		ExecutedSell: open,
		ExecutedBuy:  best.amount,
		pools:        best.pools,
	}
}

// searchBuy minimizes input for a fixed output, walking edges
// backwards from the buy token.
func (s *Searcher) searchBuy(ctx context.Context, order *domain.Order, open decimal.Decimal, view *liquidity.Overlay) *Route {
	boost := optimisticRate(s.graph)

	frontier := newFrontier(func(a, b *pathState) bool { return a.bound.LessThan(b.bound) })
	frontier.push(&pathState{
		token:  order.BuyToken,
		amount: open,
		bound:  open.Div(boost.Pow(decimal.NewFromInt(int64(s.maxHops)))),
	})

	var best *pathState
	for frontier.Len() > 0 {
		if ctx.Err() != nil {
			return nil
		}
		cur := frontier.pop()

		if best != nil && cur.bound.GreaterThanOrEqual(best.amount) {
			break
		}
		if cur.token == order.SellToken {
			if best == nil || cur.amount.LessThan(best.amount) {
				best = cur
			}
			continue
		}
		if len(cur.hops) == s.maxHops {
			continue
		}

		for _, e := range s.graph.EdgesInto(cur.token) {
			if usesPool(cur, e.Pool.ID) || visitsToken(cur, e.TokenIn, order.BuyToken) {
				continue
			}
			in, err := liquidity.QuoteInverse(e.Pool, view, e.TokenIn, e.TokenOut, cur.amount)
			if err != nil {
				continue
			}
			remaining := int64(s.maxHops - len(cur.hops) - 1)
			frontier.push(extendReverse(cur, e, in, cur.amount, in.Div(boost.Pow(decimal.NewFromInt(remaining)))))
		}
	}

	if best == nil {
		return nil
	}
	return &Route{
		OrderUID:     order.UID,
		Hops:         best.hops,
		ExecutedSell: best.amount,
		ExecutedBuy:  open,
		pools:        best.pools,
	}
}

// extend appends a forward hop to a path.
func extend(cur *pathState, e graph.Edge, amountIn, amountOut, bound decimal.Decimal) *pathState {
	hops := make([]domain.Interaction, len(cur.hops), len(cur.hops)+1)
	copy(hops, cur.hops)
	pools := make([]*domain.LiquidityPool, len(cur.pools), len(cur.pools)+1)
	copy(pools, cur.pools)
	return &pathState{
		token:  e.TokenOut,
		amount: amountOut,
		bound:  bound,
		hops: append(hops, domain.Interaction{
			PoolID:    e.Pool.ID,
			TokenIn:   e.TokenIn,
			TokenOut:  e.TokenOut,
			AmountIn:  amountIn,
			AmountOut: amountOut,
		}),
		pools: append(pools, e.Pool),
	}
}

// extendReverse prepends an upstream hop to a reverse path.
func extendReverse(cur *pathState, e graph.Edge, amountIn, amountOut, bound decimal.Decimal) *pathState {
	hops := make([]domain.Interaction, 0, len(cur.hops)+1)
	hops = append(hops, domain.Interaction{
		PoolID:    e.Pool.ID,
		TokenIn:   e.TokenIn,
		TokenOut:  e.TokenOut,
		AmountIn:  amountIn,
		AmountOut: amountOut,
	})
	hops = append(hops, cur.hops...)
	pools := make([]*domain.LiquidityPool, 0, len(cur.pools)+1)
	pools = append(pools, e.Pool)
	pools = append(pools, cur.pools...)
	return &pathState{
		token:  e.TokenIn,
		amount: amountIn,
		bound:  bound,
		hops:   hops,
		pools:  pools,
	}
}

// usesPool reports whether the path already trades through the pool.
func usesPool(cur *pathState, poolID string) bool {
	for _, p := range cur.pools {
		if p.ID == poolID {
			return true
		}
	}
	return false
}

// visitsToken reports whether extending to token would revisit a node
// already on the path (including the origin).
func visitsToken(cur *pathState, token, origin common.Address) bool {
	if token == origin {
		return true
	}
	for _, h := range cur.hops {
		if h.TokenIn == token || h.TokenOut == token {
			return true
		}
	}
	return false
}

// optimisticRate returns the per-hop bound multiplier: no single hop
// can improve an amount by more than the graph's best spot rate, and
// never less than staying put. The rate is taken from the graph as
// built, before any overlay consumption; a pool traded against its
// spot direction can momentarily quote above it, so the bound is a
// heuristic that may prune a path whose upside depends on that shift.
func optimisticRate(g *graph.Graph) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if g.MaxRate().GreaterThan(one) {
		return g.MaxRate()
	}
	return one
}
