package solver

import (
	"context"

	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/graph"
	"auction-solver/internal/liquidity"
	"auction-solver/internal/matching"
	"auction-solver/internal/routing"
	"auction-solver/internal/scoring"
	"auction-solver/internal/settlement"
)

// Strategy configures one candidate solve. Candidates run in parallel
// against private reserve overlays and only their finished Solutions
// are compared.
type Strategy struct {
	// Name labels the candidate in solutions, logs and metrics.
	Name string

	// MaxHops caps route length for the candidate's searcher.
	MaxHops int

	// UseMatching runs peer matching before routing when set.
	UseMatching bool

	// SplitChunks controls greedy route splitting across parallel
	// pools. Values below 2 disable splitting.
	SplitChunks int
}

// DefaultStrategies is the standard candidate set: a matching-first
// candidate, a deep routing-only candidate with splitting, and a
// cheap shallow fallback.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "matching-first", MaxHops: 3, UseMatching: true, SplitChunks: 10},
		{Name: "routing-deep", MaxHops: 3, UseMatching: false, SplitChunks: 10},
		{Name: "routing-shallow", MaxHops: 2, UseMatching: false, SplitChunks: 1},
	}
}

// runCandidate executes one strategy end to end: optional peer
// matching, residual routing per order against a private overlay,
// settlement encoding and scoring. Orders must already be
// prioritized. A nil solution with nil error means the candidate
// found nothing; the governor falls back to the baseline.
func runCandidate(
	ctx context.Context,
	auction *domain.Auction,
	liq *graph.Graph,
	orders []domain.Order,
	strat Strategy,
	penalty decimal.Decimal,
) (*domain.Solution, error) {
	view := liquidity.NewOverlay()

	var peerFills []domain.Fill
	remaining := make(map[string]decimal.Decimal, len(orders))
	if strat.UseMatching {
		res := matching.MatchOrders(orders)
		peerFills = res.Fills
		remaining = res.Remaining
	} else {
		for i := range orders {
			o := &orders[i]
			if o.Kind == domain.OrderKindSell {
				remaining[o.UID] = o.SellAmount
			} else {
				remaining[o.UID] = o.BuyAmount
			}
		}
	}

	searcher := routing.NewSearcher(liq, strat.MaxHops, strat.SplitChunks)
	var routes []*routing.Route
	for i := range orders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o := &orders[i]
		open, ok := remaining[o.UID]
		if !ok || !open.IsPositive() {
			continue
		}
		route, err := searcher.BestRoute(ctx, o, open, view)
		if err != nil {
			return nil, err
		}
		if route == nil {
			continue
		}
		route.Commit(view)
		routes = append(routes, route)
	}

	if len(peerFills) == 0 && len(routes) == 0 {
		return nil, nil
	}

	sol, err := settlement.Encode(auction, strat.Name, peerFills, routes)
	if err != nil {
		return nil, err
	}
	sol.Score = scoring.Score(auction, sol, penalty)
	return sol, nil
}
