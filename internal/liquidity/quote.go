// Package liquidity prices trades against pool snapshots. All
// arithmetic is decimal; no floats touch amounts or prices.
package liquidity

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
)

// Quoting errors.
var (
	// ErrInsufficientLiquidity is returned when a trade would drain a
	// reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrUnsupportedToken is returned when the pool does not trade the
	// requested pair.
	ErrUnsupportedToken = errors.New("pool does not trade token")

	// ErrNonPositiveAmount is returned for zero or negative trade
	// amounts.
	ErrNonPositiveAmount = errors.New("non-positive amount")
)

var bpsDenominator = decimal.NewFromInt(10000)

// powPrecision bounds the decimal exponentiation used by weighted
// pools.
const powPrecision = 32

// Quote returns the output amount the pool pays for amountIn of
// tokenIn, under the overlay's simulated reserve state. Pure: no
// state is consumed.
func Quote(p *domain.LiquidityPool, view *Overlay, tokenIn, tokenOut common.Address, amountIn decimal.Decimal) (decimal.Decimal, error) {
	if !p.Has(tokenIn) || !p.Has(tokenOut) || tokenIn == tokenOut {
		return decimal.Zero, fmt.Errorf("%w: %s pool %s", ErrUnsupportedToken, p.Kind, p.ID)
	}
	if !amountIn.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}

	reserveIn := view.Reserve(p, tokenIn)
	reserveOut := view.Reserve(p, tokenOut)
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: pool %s", ErrInsufficientLiquidity, p.ID)
	}
	effIn := applyFee(p, amountIn)

	var (
		out decimal.Decimal
		err error
	)
	switch p.Kind {
	case domain.PoolKindConstantProduct:
		// out = Rout * in / (Rin + in)
		out = reserveOut.Mul(effIn).Div(reserveIn.Add(effIn))
	case domain.PoolKindWeighted:
		out, err = weightedOut(p, reserveIn, reserveOut, tokenIn, tokenOut, effIn)
	case domain.PoolKindStableSwap:
		out, err = stableOut(p, view, tokenIn, tokenOut, effIn)
	default:
		err = fmt.Errorf("%w: kind %q", ErrUnsupportedToken, p.Kind)
	}
	if err != nil {
		return decimal.Zero, err
	}
	if !out.IsPositive() || out.GreaterThanOrEqual(reserveOut) {
		return decimal.Zero, fmt.Errorf("%w: pool %s", ErrInsufficientLiquidity, p.ID)
	}
	return out, nil
}

// QuoteInverse returns the input amount required to receive amountOut
// of tokenOut. Inverse of Quote up to decimal precision.
func QuoteInverse(p *domain.LiquidityPool, view *Overlay, tokenIn, tokenOut common.Address, amountOut decimal.Decimal) (decimal.Decimal, error) {
	if !p.Has(tokenIn) || !p.Has(tokenOut) || tokenIn == tokenOut {
		return decimal.Zero, fmt.Errorf("%w: %s pool %s", ErrUnsupportedToken, p.Kind, p.ID)
	}
	if !amountOut.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}

	reserveIn := view.Reserve(p, tokenIn)
	reserveOut := view.Reserve(p, tokenOut)
	if !reserveIn.IsPositive() || amountOut.GreaterThanOrEqual(reserveOut) {
		return decimal.Zero, fmt.Errorf("%w: pool %s", ErrInsufficientLiquidity, p.ID)
	}

	var (
		effIn decimal.Decimal
		err   error
	)
	switch p.Kind {
	case domain.PoolKindConstantProduct:
		// in = Rin * out / (Rout - out)
		effIn = reserveIn.Mul(amountOut).Div(reserveOut.Sub(amountOut))
	case domain.PoolKindWeighted:
		effIn, err = weightedIn(p, reserveIn, reserveOut, tokenIn, tokenOut, amountOut)
	case domain.PoolKindStableSwap:
		effIn, err = stableIn(p, view, tokenIn, tokenOut, amountOut)
	default:
		err = fmt.Errorf("%w: kind %q", ErrUnsupportedToken, p.Kind)
	}
	if err != nil {
		return decimal.Zero, err
	}
	if !effIn.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: pool %s", ErrInsufficientLiquidity, p.ID)
	}
	return unapplyFee(p, effIn), nil
}

// SpotPrice returns the marginal out-per-in exchange rate the pool
// currently quotes, net of fees. Used as the graph edge weight.
func SpotPrice(p *domain.LiquidityPool, view *Overlay, tokenIn, tokenOut common.Address) decimal.Decimal {
	reserveIn := view.Reserve(p, tokenIn)
	reserveOut := view.Reserve(p, tokenOut)
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return decimal.Zero
	}

	switch p.Kind {
	case domain.PoolKindConstantProduct:
		return feeMultiplier(p).Mul(reserveOut).Div(reserveIn)
	case domain.PoolKindWeighted:
		wIn, wOut := p.Weights[tokenIn], p.Weights[tokenOut]
		if !wIn.IsPositive() || !wOut.IsPositive() {
			return decimal.Zero
		}
		return feeMultiplier(p).Mul(reserveOut.Div(wOut)).Div(reserveIn.Div(wIn))
	case domain.PoolKindStableSwap:
		// No closed form; sample with a trade small against the
		// shallower reserve.
		sample := decimal.Min(reserveIn, reserveOut).Div(decimal.NewFromInt(1_000_000))
		out, err := Quote(p, view, tokenIn, tokenOut, sample)
		if err != nil {
			return decimal.Zero
		}
		return out.Div(sample)
	default:
		return decimal.Zero
	}
}

// weightedOut prices a Balancer-style weighted pool:
// out = Rout * (1 - (Rin / (Rin + in))^(wIn/wOut)).
func weightedOut(p *domain.LiquidityPool, reserveIn, reserveOut decimal.Decimal, tokenIn, tokenOut common.Address, effIn decimal.Decimal) (decimal.Decimal, error) {
	wIn, wOut := p.Weights[tokenIn], p.Weights[tokenOut]
	if !wIn.IsPositive() || !wOut.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: pool %s missing weights", ErrUnsupportedToken, p.ID)
	}
	base := reserveIn.Div(reserveIn.Add(effIn))
	pow, err := base.PowWithPrecision(wIn.Div(wOut), powPrecision)
	if err != nil {
		return decimal.Zero, fmt.Errorf("weighted pool %s: %w", p.ID, err)
	}
	return reserveOut.Mul(decimal.NewFromInt(1).Sub(pow)), nil
}

// weightedIn inverts weightedOut:
// in = Rin * ((Rout / (Rout - out))^(wOut/wIn) - 1).
func weightedIn(p *domain.LiquidityPool, reserveIn, reserveOut decimal.Decimal, tokenIn, tokenOut common.Address, amountOut decimal.Decimal) (decimal.Decimal, error) {
	wIn, wOut := p.Weights[tokenIn], p.Weights[tokenOut]
	if !wIn.IsPositive() || !wOut.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: pool %s missing weights", ErrUnsupportedToken, p.ID)
	}
	base := reserveOut.Div(reserveOut.Sub(amountOut))
	pow, err := base.PowWithPrecision(wOut.Div(wIn), powPrecision)
	if err != nil {
		return decimal.Zero, fmt.Errorf("weighted pool %s: %w", p.ID, err)
	}
	return reserveIn.Mul(pow.Sub(decimal.NewFromInt(1))), nil
}

// applyFee deducts the pool fee from the input amount.
func applyFee(p *domain.LiquidityPool, amountIn decimal.Decimal) decimal.Decimal {
	return amountIn.Mul(feeMultiplier(p))
}

// unapplyFee grosses an effective input back up to the amount the
// trader must send.
func unapplyFee(p *domain.LiquidityPool, effIn decimal.Decimal) decimal.Decimal {
	return effIn.Div(feeMultiplier(p))
}

func feeMultiplier(p *domain.LiquidityPool) decimal.Decimal {
	return bpsDenominator.Sub(decimal.NewFromInt(p.FeeBps)).Div(bpsDenominator)
}
