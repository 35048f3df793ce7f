// Package scoring reduces a candidate Solution to one comparable
// objective value: total trader surplus valued in the numeraire,
// minus a small per-interaction penalty standing in for execution
// cost.
package scoring

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
)

// DefaultInteractionPenalty is the execution-cost proxy charged per
// interaction, in numeraire units. Small enough to only break ties
// between solutions of near-equal surplus.
var DefaultInteractionPenalty = decimal.New(1, -6)

// Score computes the objective for a solution against its auction.
// The zero-fill solution scores exactly zero.
func Score(auction *domain.Auction, sol *domain.Solution, interactionPenalty decimal.Decimal) decimal.Decimal {
	if sol.IsEmpty() {
		return decimal.Zero
	}

	total := decimal.Zero
	for _, f := range sol.Fills {
		order := auction.OrderByUID(f.OrderUID)
		if order == nil {
			continue
		}
		total = total.Add(fillSurplus(order, f, sol.ClearingPrices[surplusToken(order)]))
	}

	penalty := interactionPenalty.Mul(decimal.NewFromInt(int64(len(sol.Interactions))))
	return total.Sub(penalty)
}

// fillSurplus values how far past its limit the fill executed, in
// numeraire units.
func fillSurplus(order *domain.Order, f domain.Fill, price decimal.Decimal) decimal.Decimal {
	var surplus decimal.Decimal
	if order.Kind == domain.OrderKindBuy {
		// Bought the fixed amount for less than the limit allowed.
		surplus = order.LimitSellFor(f.ExecutedBuy).Sub(f.ExecutedSell)
	} else {
		// Received more than the limit demanded for what was sold.
		surplus = f.ExecutedBuy.Sub(order.LimitBuyFor(f.ExecutedSell))
	}
	if !price.IsPositive() {
		return decimal.Zero
	}
	return surplus.Mul(price)
}

// surplusToken is the token the fill's surplus is denominated in
// before conversion: the non-fixed side of the order.
func surplusToken(order *domain.Order) common.Address {
	if order.Kind == domain.OrderKindBuy {
		return order.SellToken
	}
	return order.BuyToken
}
