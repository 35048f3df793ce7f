// Package matching finds direct order-to-order matches before any
// liquidity is consulted. A peer match pays no pool fee and moves no
// reserves, so it strictly dominates routing for both counterparties
// and always runs first.
package matching

import (
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
)

var two = decimal.NewFromInt(2)

// Result carries the matcher's fills and what each order still has
// open afterwards.
type Result struct {
	// Fills holds one aggregated fill per order that matched, in
	// input order.
	Fills []domain.Fill

	// Remaining maps order UID to the open fixed-side amount:
	// remaining sell amount for sell orders, remaining buy amount for
	// buy orders. Orders that never matched keep their full amount.
	Remaining map[string]decimal.Decimal
}

// tally tracks one order's execution during matching.
type tally struct {
	order        *domain.Order
	remaining    decimal.Decimal // fixed-side amount still open
	executedSell decimal.Decimal
	executedBuy  decimal.Decimal
}

// MatchOrders scans orders in input sequence for opposite-direction
// pairs with overlapping limits and settles them at the midpoint of
// the two limit prices. The smaller side fills fully; the larger side
// keeps a residual only if partially fillable, otherwise the pair is
// skipped. Ties among eligible counterparties go to the earliest in
// the sequence.
func MatchOrders(orders []domain.Order) Result {
	tallies := make([]tally, len(orders))
	for i := range orders {
		o := &orders[i]
		remaining := o.SellAmount
		if o.Kind == domain.OrderKindBuy {
			remaining = o.BuyAmount
		}
		tallies[i] = tally{order: o, remaining: remaining}
	}

	for i := range tallies {
		for j := i + 1; j < len(tallies); j++ {
			tryMatch(&tallies[i], &tallies[j])
			if !tallies[i].remaining.IsPositive() {
				break
			}
		}
	}

	result := Result{Remaining: make(map[string]decimal.Decimal, len(orders))}
	for i := range tallies {
		t := &tallies[i]
		result.Remaining[t.order.UID] = t.remaining
		if t.executedSell.IsPositive() {
			result.Fills = append(result.Fills, domain.Fill{
				OrderUID:     t.order.UID,
				ExecutedSell: t.executedSell,
				ExecutedBuy:  t.executedBuy,
			})
		}
	}
	return result
}

// tryMatch settles a and b against each other if they are opposite in
// direction, overlap in price, and fill constraints permit.
func tryMatch(a, b *tally) {
	if !a.remaining.IsPositive() || !b.remaining.IsPositive() {
		return
	}
	if a.order.SellToken != b.order.BuyToken || a.order.BuyToken != b.order.SellToken {
		return
	}

	// Prices in a's buy token per a's sell token: a accepts at least
	// its limit, b at most the inverse of its own.
	aMin := a.order.LimitPrice()
	bMax := b.order.SellAmount.Div(b.order.BuyAmount)
	if aMin.GreaterThan(bMax) {
		return
	}
	mid := aMin.Add(bMax).Div(two)

	// Capacities in a's sell token units.
	capA := a.remaining
	if a.order.Kind == domain.OrderKindBuy {
		capA = a.remaining.Div(mid)
	}
	capB := b.remaining.Div(mid)
	if b.order.Kind == domain.OrderKindBuy {
		capB = b.remaining
	}

	fullA := capA.LessThanOrEqual(capB)
	fullB := capB.LessThanOrEqual(capA)
	if !fullA && !a.order.PartiallyFillable {
		return
	}
	if !fullB && !b.order.PartiallyFillable {
		return
	}

	// Anchor the traded amounts on the limiting side's exact open
	// amount so that side zeroes out without decimal dust; the larger
	// side absorbs the rounding in its residual. The derived leg is
	// then clamped into the window both limits permit: dividing by the
	// midpoint rounds at decimal.DivisionPrecision, and on a
	// zero-width overlap that rounding can land a hair outside a
	// trader's cap.
	var qty, counter decimal.Decimal // a's sell token / a's buy token
	anchorCounter := false
	if fullA {
		if a.order.Kind == domain.OrderKindBuy {
			counter = a.remaining
			anchorCounter = true
		} else {
			qty = a.remaining
		}
	} else {
		if b.order.Kind == domain.OrderKindBuy {
			qty = b.remaining
		} else {
			counter = b.remaining
			anchorCounter = true
		}
	}

	if anchorCounter {
		// qty is what a pays and b receives: at least b's pro-rata
		// limit, at most a's, and within either side's open sell or
		// buy capacity in qty units.
		lo := divCeil(counter.Mul(b.order.BuyAmount), b.order.SellAmount)
		hi := divFloor(counter.Mul(a.order.SellAmount), a.order.BuyAmount)
		if a.order.Kind == domain.OrderKindSell {
			hi = decimal.Min(hi, a.remaining)
		}
		if b.order.Kind == domain.OrderKindBuy {
			hi = decimal.Min(hi, b.remaining)
		}
		if lo.GreaterThan(hi) {
			return
		}
		qty = clampDec(counter.Div(mid), lo, hi)
	} else {
		// counter is what b pays and a receives: at least a's
		// pro-rata limit, at most b's.
		lo := divCeil(qty.Mul(a.order.BuyAmount), a.order.SellAmount)
		hi := divFloor(qty.Mul(b.order.SellAmount), b.order.BuyAmount)
		if a.order.Kind == domain.OrderKindBuy {
			hi = decimal.Min(hi, a.remaining)
		}
		if b.order.Kind == domain.OrderKindSell {
			hi = decimal.Min(hi, b.remaining)
		}
		if lo.GreaterThan(hi) {
			return
		}
		counter = clampDec(qty.Mul(mid), lo, hi)
	}
	if !qty.IsPositive() || !counter.IsPositive() {
		return
	}

	a.executedSell = a.executedSell.Add(qty)
	a.executedBuy = a.executedBuy.Add(counter)
	b.executedSell = b.executedSell.Add(counter)
	b.executedBuy = b.executedBuy.Add(qty)

	switch {
	case fullA:
		a.remaining = decimal.Zero
	case a.order.Kind == domain.OrderKindBuy:
		a.remaining = a.remaining.Sub(counter)
	default:
		a.remaining = a.remaining.Sub(qty)
	}
	switch {
	case fullB:
		b.remaining = decimal.Zero
	case b.order.Kind == domain.OrderKindBuy:
		b.remaining = b.remaining.Sub(qty)
	default:
		b.remaining = b.remaining.Sub(counter)
	}
}

// divFloor returns x/y truncated toward zero at the package division
// precision, so the result never exceeds the exact quotient.
func divFloor(x, y decimal.Decimal) decimal.Decimal {
	q, _ := x.QuoRem(y, int32(decimal.DivisionPrecision))
	return q
}

// divCeil returns x/y rounded up at the package division precision, so
// the result is never below the exact quotient.
func divCeil(x, y decimal.Decimal) decimal.Decimal {
	q, r := x.QuoRem(y, int32(decimal.DivisionPrecision))
	if !r.IsZero() {
		q = q.Add(decimal.New(1, -int32(decimal.DivisionPrecision)))
	}
	return q
}

func clampDec(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
