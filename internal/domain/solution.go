package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Fill is the realized (possibly partial) execution of one order.
type Fill struct {
	OrderUID     string
	ExecutedSell decimal.Decimal
	ExecutedBuy  decimal.Decimal
}

// Interaction is one atomic exchange against one pool. The ordered
// interaction sequence is the execution plan.
type Interaction struct {
	PoolID    string
	TokenIn   common.Address
	TokenOut  common.Address
	AmountIn  decimal.Decimal
	AmountOut decimal.Decimal
}

// Solution is one candidate settlement proposal. The governor owns
// comparison and disposal of all but the winning Solution.
type Solution struct {
	ID             string
	AuctionID      int64
	Fills          []Fill
	Interactions   []Interaction
	ClearingPrices map[common.Address]decimal.Decimal
	Score          decimal.Decimal

	// Strategy names the candidate that produced this solution.
	// Empty for the baseline.
	Strategy string
}

// EmptySolution is the zero-fill baseline: always valid, scores
// exactly zero, returned when nothing better completes in time.
func EmptySolution(auctionID int64) *Solution {
	return &Solution{
		AuctionID:      auctionID,
		ClearingPrices: map[common.Address]decimal.Decimal{},
		Score:          decimal.Zero,
	}
}

// IsEmpty reports whether the solution settles nothing.
func (s *Solution) IsEmpty() bool {
	return len(s.Fills) == 0
}
