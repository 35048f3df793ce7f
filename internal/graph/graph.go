// Package graph builds the directed token graph searched for
// execution routes. Nodes are tokens; every (pool, direction) pair is
// its own edge, so parallel pools stay visible to the router instead
// of collapsing into one aggregated price.
package graph

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/liquidity"
)

// Edge is one tradable direction through one pool, weighted by the
// marginal price the pool quoted at build time.
type Edge struct {
	Pool      *domain.LiquidityPool
	TokenIn   common.Address
	TokenOut  common.Address
	SpotPrice decimal.Decimal
}

// Graph is an adjacency view over the auction's liquidity. It is
// rebuilt fresh per solve from the immutable snapshot and is
// read-only afterwards, so candidates may share it without locks.
type Graph struct {
	edges   map[common.Address][]Edge
	reverse map[common.Address][]Edge
	maxRate decimal.Decimal
}

// Build constructs the graph in O(pools). Pools quoting a zero or
// negative marginal price in a direction contribute no edge there.
func Build(pools []domain.LiquidityPool) *Graph {
	g := &Graph{
		edges:   make(map[common.Address][]Edge),
		reverse: make(map[common.Address][]Edge),
		maxRate: decimal.Zero,
	}
	for i := range pools {
		p := &pools[i]
		for _, in := range p.Tokens {
			for _, out := range p.Tokens {
				if in == out {
					continue
				}
				spot := liquidity.SpotPrice(p, nil, in, out)
				if !spot.IsPositive() {
					continue
				}
				edge := Edge{
					Pool:      p,
					TokenIn:   in,
					TokenOut:  out,
					SpotPrice: spot,
				}
				g.edges[in] = append(g.edges[in], edge)
				g.reverse[out] = append(g.reverse[out], edge)
				if spot.GreaterThan(g.maxRate) {
					g.maxRate = spot
				}
			}
		}
	}
	return g
}

// EdgesFrom returns all edges leaving token.
func (g *Graph) EdgesFrom(token common.Address) []Edge {
	return g.edges[token]
}

// EdgesInto returns all edges arriving at token. Used by the inverse
// search that prices buy orders from their fixed output backwards.
func (g *Graph) EdgesInto(token common.Address) []Edge {
	return g.reverse[token]
}

// Direct returns the parallel edges connecting tokenIn to tokenOut.
func (g *Graph) Direct(tokenIn, tokenOut common.Address) []Edge {
	var direct []Edge
	for _, e := range g.edges[tokenIn] {
		if e.TokenOut == tokenOut {
			direct = append(direct, e)
		}
	}
	return direct
}

// MaxRate returns the highest spot price of any edge, the optimistic
// per-hop bound used for search pruning.
func (g *Graph) MaxRate() decimal.Decimal {
	return g.maxRate
}

// Tokens returns the number of nodes with at least one outgoing edge.
func (g *Graph) Tokens() int {
	return len(g.edges)
}
