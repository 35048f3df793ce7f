package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PoolKind tags the AMM curve of a liquidity pool. The set of kinds
// is closed; pricing code exhaustively switches over it.
type PoolKind string

// Pool kind constants.
const (
	PoolKindConstantProduct PoolKind = "constant_product"
	PoolKindWeighted        PoolKind = "weighted"
	PoolKindStableSwap      PoolKind = "stable_swap"
)

// LiquidityPool is an on-chain pool snapshot. Reserves are read-only;
// simulated consumption during a solve is expressed as an overlay of
// deltas, never by mutating the pool.
type LiquidityPool struct {
	ID       string
	Kind     PoolKind
	Tokens   []common.Address // ordered
	Reserves map[common.Address]decimal.Decimal
	FeeBps   int64

	// Weights holds normalized token weights for weighted pools.
	// Nil for other kinds.
	Weights map[common.Address]decimal.Decimal

	// Amplification is the A parameter for stable-swap pools.
	// Zero value for other kinds.
	Amplification decimal.Decimal
}

// Has reports whether the pool trades the given token.
func (p *LiquidityPool) Has(token common.Address) bool {
	_, ok := p.Reserves[token]
	return ok
}
