package routing

import (
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/graph"
	"auction-solver/internal/liquidity"
)

// splitRoute allocates a sell order across the parallel pools
// directly connecting its token pair. The amount is divided into
// chunks and each chunk goes to the pool quoting best at that point
// of the simulation, which drives the pools' marginal prices toward
// each other. Returns nil when fewer than two parallel pools exist or
// nothing fills.
func (s *Searcher) splitRoute(order *domain.Order, open decimal.Decimal, view *liquidity.Overlay) *Route {
	direct := s.graph.Direct(order.SellToken, order.BuyToken)
	if len(direct) < 2 || s.chunks < 2 {
		return nil
	}

	chunk := open.Div(decimal.NewFromInt(int64(s.chunks)))
	if !chunk.IsPositive() {
		return nil
	}

	scratch := view.Clone()
	inByPool := make(map[string]decimal.Decimal, len(direct))
	outByPool := make(map[string]decimal.Decimal, len(direct))
	var poolOrder []*domain.LiquidityPool

	allocated := decimal.Zero
	for i := 0; i < s.chunks; i++ {
		// The final chunk absorbs division remainder so the split
		// sells exactly the open amount.
		amount := chunk
		if i == s.chunks-1 {
			amount = open.Sub(allocated)
		}

		var (
			bestEdge *graph.Edge
			bestOut  decimal.Decimal
		)
		for k := range direct {
			e := &direct[k]
			out, err := liquidity.Quote(e.Pool, scratch, e.TokenIn, e.TokenOut, amount)
			if err != nil {
				continue
			}
			if bestEdge == nil || out.GreaterThan(bestOut) {
				bestEdge = e
				bestOut = out
			}
		}
		if bestEdge == nil {
			return nil
		}

		scratch.Apply(bestEdge.Pool, order.SellToken, amount, order.BuyToken, bestOut)
		if _, seen := inByPool[bestEdge.Pool.ID]; !seen {
			poolOrder = append(poolOrder, bestEdge.Pool)
		}
		inByPool[bestEdge.Pool.ID] = inByPool[bestEdge.Pool.ID].Add(amount)
		outByPool[bestEdge.Pool.ID] = outByPool[bestEdge.Pool.ID].Add(bestOut)
		allocated = allocated.Add(amount)
	}

	if len(poolOrder) < 2 {
		// Everything landed on one pool: no real split, the plain
		// search already covers it.
		return nil
	}

	route := &Route{
		OrderUID:     order.UID,
		ExecutedSell: open,
	}
	total := decimal.Zero
	for _, p := range poolOrder {
		route.Hops = append(route.Hops, domain.Interaction{
			PoolID:    p.ID,
			TokenIn:   order.SellToken,
			TokenOut:  order.BuyToken,
			AmountIn:  inByPool[p.ID],
			AmountOut: outByPool[p.ID],
		})
		route.pools = append(route.pools, p)
		total = total.Add(outByPool[p.ID])
	}
	route.ExecutedBuy = total
	return route
}
