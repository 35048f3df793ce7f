package liquidity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
)

// Overlay is a copy-on-write view of simulated pool consumption,
// keyed by pool id. Pool snapshots stay untouched; each candidate
// strategy carries its own overlay, so concurrent searches never
// observe each other's in-progress simulation.
type Overlay struct {
	deltas map[string]map[common.Address]decimal.Decimal
}

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{deltas: make(map[string]map[common.Address]decimal.Decimal)}
}

// Reserve returns the pool's effective reserve for token under this
// overlay. A nil overlay yields the snapshot reserve.
func (o *Overlay) Reserve(p *domain.LiquidityPool, token common.Address) decimal.Decimal {
	base := p.Reserves[token]
	if o == nil {
		return base
	}
	if d, ok := o.deltas[p.ID]; ok {
		if delta, ok := d[token]; ok {
			return base.Add(delta)
		}
	}
	return base
}

// Apply records a simulated trade against the pool: amountIn joins the
// in-token reserve, amountOut leaves the out-token reserve.
func (o *Overlay) Apply(p *domain.LiquidityPool, tokenIn common.Address, amountIn decimal.Decimal, tokenOut common.Address, amountOut decimal.Decimal) {
	d, ok := o.deltas[p.ID]
	if !ok {
		d = make(map[common.Address]decimal.Decimal, 2)
		o.deltas[p.ID] = d
	}
	d[tokenIn] = d[tokenIn].Add(amountIn)
	d[tokenOut] = d[tokenOut].Sub(amountOut)
}

// Clone returns an independent copy. Used by searches that must
// speculate past the committed state without publishing it.
func (o *Overlay) Clone() *Overlay {
	c := NewOverlay()
	if o == nil {
		return c
	}
	for pool, d := range o.deltas {
		cd := make(map[common.Address]decimal.Decimal, len(d))
		for token, delta := range d {
			cd[token] = delta
		}
		c.deltas[pool] = cd
	}
	return c
}
