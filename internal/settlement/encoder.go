// Package settlement merges peer fills and search routes into one
// Solution: the ordered interaction plan, the clearing prices, and a
// conservation check over the whole settlement.
package settlement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/idhash"
	"auction-solver/internal/routing"
)

// ErrInfeasible marks a candidate whose settlement does not conserve
// token amounts. It should not occur when matcher and router uphold
// their invariants; the governor discards the candidate and moves on.
var ErrInfeasible = errors.New("infeasible settlement")

// Encode builds the Solution for one candidate. Interactions keep the
// order in which routes were committed, since each route was priced
// against the consumption of the ones before it. Score is left for
// the scorer.
func Encode(auction *domain.Auction, strategy string, peerFills []domain.Fill, routes []*routing.Route) (*domain.Solution, error) {
	merged := mergeFills(auction, peerFills, routes)

	var interactions []domain.Interaction
	for _, r := range routes {
		interactions = append(interactions, r.Hops...)
	}

	if err := checkConservation(auction, merged, interactions); err != nil {
		return nil, err
	}

	sol := &domain.Solution{
		AuctionID:      auction.ID,
		Fills:          merged,
		Interactions:   interactions,
		ClearingPrices: clearingPrices(auction, merged, interactions),
		Score:          decimal.Zero,
		Strategy:       strategy,
	}
	sol.ID = idhash.ComputeSolutionID(auction.ID, strategy, merged)
	return sol, nil
}

// mergeFills sums matcher and router execution per order, emitted in
// auction order sequence for determinism.
func mergeFills(auction *domain.Auction, peerFills []domain.Fill, routes []*routing.Route) []domain.Fill {
	byUID := make(map[string]*domain.Fill)
	add := func(uid string, sell, buy decimal.Decimal) {
		f, ok := byUID[uid]
		if !ok {
			f = &domain.Fill{OrderUID: uid}
			byUID[uid] = f
		}
		f.ExecutedSell = f.ExecutedSell.Add(sell)
		f.ExecutedBuy = f.ExecutedBuy.Add(buy)
	}
	for _, f := range peerFills {
		add(f.OrderUID, f.ExecutedSell, f.ExecutedBuy)
	}
	for _, r := range routes {
		add(r.OrderUID, r.ExecutedSell, r.ExecutedBuy)
	}

	var fills []domain.Fill
	for i := range auction.Orders {
		if f, ok := byUID[auction.Orders[i].UID]; ok && f.ExecutedSell.IsPositive() {
			fills = append(fills, *f)
		}
	}
	return fills
}

// checkConservation asserts that for every token the amounts entering
// the settlement equal the amounts leaving it, exactly.
func checkConservation(auction *domain.Auction, fills []domain.Fill, interactions []domain.Interaction) error {
	balance := make(map[common.Address]decimal.Decimal)

	for _, f := range fills {
		order := auction.OrderByUID(f.OrderUID)
		if order == nil {
			return fmt.Errorf("%w: fill for unknown order %s", ErrInfeasible, f.OrderUID)
		}
		balance[order.SellToken] = balance[order.SellToken].Add(f.ExecutedSell)
		balance[order.BuyToken] = balance[order.BuyToken].Sub(f.ExecutedBuy)
	}
	for _, x := range interactions {
		balance[x.TokenIn] = balance[x.TokenIn].Sub(x.AmountIn)
		balance[x.TokenOut] = balance[x.TokenOut].Add(x.AmountOut)
	}

	for token, b := range balance {
		if !b.IsZero() {
			return fmt.Errorf("%w: token %s imbalance %s", ErrInfeasible, token, b)
		}
	}
	return nil
}

// clearingPrices propagates realized exchange rates outward from the
// numeraire (price 1). Prices are reporting values implied by the
// executed trades, not inputs to re-pricing.
func clearingPrices(auction *domain.Auction, fills []domain.Fill, interactions []domain.Interaction) map[common.Address]decimal.Decimal {
	type rate struct {
		other  common.Address
		factor decimal.Decimal // price[other] = price[token] * factor
	}
	rates := make(map[common.Address][]rate)
	link := func(a common.Address, amountA decimal.Decimal, b common.Address, amountB decimal.Decimal) {
		if !amountA.IsPositive() || !amountB.IsPositive() {
			return
		}
		// price[a]*amountA = price[b]*amountB
		rates[a] = append(rates[a], rate{other: b, factor: amountA.Div(amountB)})
		rates[b] = append(rates[b], rate{other: a, factor: amountB.Div(amountA)})
	}

	for _, f := range fills {
		if order := auction.OrderByUID(f.OrderUID); order != nil {
			link(order.SellToken, f.ExecutedSell, order.BuyToken, f.ExecutedBuy)
		}
	}
	for _, x := range interactions {
		link(x.TokenIn, x.AmountIn, x.TokenOut, x.AmountOut)
	}
	if len(rates) == 0 {
		return map[common.Address]decimal.Decimal{}
	}

	prices := make(map[common.Address]decimal.Decimal, len(rates))
	start := Numeraire(auction, rates)
	prices[start] = decimal.NewFromInt(1)
	queue := []common.Address{start}
	for len(queue) > 0 {
		token := queue[0]
		queue = queue[1:]
		for _, r := range rates[token] {
			if _, done := prices[r.other]; done {
				continue
			}
			prices[r.other] = prices[token].Mul(r.factor)
			queue = append(queue, r.other)
		}
	}
	return prices
}

// Numeraire picks the token all surplus is valued in: the auction's
// native token when it is touched by the settlement, otherwise the
// lowest touched token address. Deterministic by construction.
func Numeraire[V any](auction *domain.Auction, touched map[common.Address]V) common.Address {
	if auction.NativeToken != nil {
		if _, ok := touched[*auction.NativeToken]; ok {
			return *auction.NativeToken
		}
	}
	addrs := make([]common.Address, 0, len(touched))
	for a := range touched {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Cmp(addrs[j]) < 0 })
	if len(addrs) == 0 {
		return common.Address{}
	}
	return addrs[0]
}
