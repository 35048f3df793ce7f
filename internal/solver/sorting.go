package solver

import (
	"sort"

	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/graph"
)

// SortingStrategy ranks orders before candidates run. Strategies are
// composed: earlier strategies dominate, later ones break their ties.
type SortingStrategy interface {
	// Key returns the order's rank value; higher sorts first.
	Key(o *domain.Order, g *graph.Graph) decimal.Decimal
}

// ExternalPriceLikelihood ranks orders by how far in the money their
// limit sits against the current best direct spot rate: spot divided
// by limit price. Orders above 1 are fillable at spot without any
// peer match; orders with no direct edge rank last.
type ExternalPriceLikelihood struct{}

func (ExternalPriceLikelihood) Key(o *domain.Order, g *graph.Graph) decimal.Decimal {
	best := decimal.Zero
	for _, e := range g.EdgesFrom(o.SellToken) {
		if e.TokenOut == o.BuyToken && e.SpotPrice.GreaterThan(best) {
			best = e.SpotPrice
		}
	}
	limit := o.LimitPrice()
	if !best.IsPositive() || !limit.IsPositive() {
		return decimal.Zero
	}
	return best.Div(limit)
}

// CreationTimestamp ranks newer orders first.
type CreationTimestamp struct{}

func (CreationTimestamp) Key(o *domain.Order, _ *graph.Graph) decimal.Decimal {
	return decimal.NewFromInt(o.CreatedAt)
}

// DefaultSorting prioritizes orders likely to fill at spot, breaking
// ties by recency.
func DefaultSorting() []SortingStrategy {
	return []SortingStrategy{ExternalPriceLikelihood{}, CreationTimestamp{}}
}

// SortOrders stably reorders orders in place by the composed
// strategies, highest keys first. Input order breaks any remaining
// ties, so the result is deterministic.
func SortOrders(orders []domain.Order, g *graph.Graph, strategies []SortingStrategy) {
	if len(strategies) == 0 || len(orders) < 2 {
		return
	}
	keys := make([][]decimal.Decimal, len(orders))
	for i := range orders {
		ks := make([]decimal.Decimal, len(strategies))
		for j, s := range strategies {
			ks[j] = s.Key(&orders[i], g)
		}
		keys[i] = ks
	}
	idx := make([]int, len(orders))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for j := range strategies {
			if c := keys[idx[a]][j].Cmp(keys[idx[b]][j]); c != 0 {
				return c > 0
			}
		}
		return false
	})
	sorted := make([]domain.Order, len(orders))
	for i, k := range idx {
		sorted[i] = orders[k]
	}
	copy(orders, sorted)
}
