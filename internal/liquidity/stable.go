package liquidity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
)

// Curve-style stable-swap invariant, solved by Newton iteration over
// decimals. Reserves are assumed normalized to a common scale by the
// snapshot provider.

const stableMaxIterations = 64

var stableConvergence = decimal.New(1, -12) // 1e-12

// stableOut returns the output amount for an effective (post-fee)
// input against the stable invariant.
func stableOut(p *domain.LiquidityPool, view *Overlay, tokenIn, tokenOut common.Address, effIn decimal.Decimal) (decimal.Decimal, error) {
	balances := stableBalances(p, view)
	d, err := stableD(p, balances)
	if err != nil {
		return decimal.Zero, err
	}

	newIn := view.Reserve(p, tokenIn).Add(effIn)
	newOut, err := stableY(p, balances, d, tokenIn, newIn, tokenOut)
	if err != nil {
		return decimal.Zero, err
	}
	return view.Reserve(p, tokenOut).Sub(newOut), nil
}

// stableIn returns the effective (post-fee) input required for a
// given output amount.
func stableIn(p *domain.LiquidityPool, view *Overlay, tokenIn, tokenOut common.Address, amountOut decimal.Decimal) (decimal.Decimal, error) {
	balances := stableBalances(p, view)
	d, err := stableD(p, balances)
	if err != nil {
		return decimal.Zero, err
	}

	newOut := view.Reserve(p, tokenOut).Sub(amountOut)
	if !newOut.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: pool %s", ErrInsufficientLiquidity, p.ID)
	}
	newIn, err := stableY(p, balances, d, tokenOut, newOut, tokenIn)
	if err != nil {
		return decimal.Zero, err
	}
	return newIn.Sub(view.Reserve(p, tokenIn)), nil
}

// stableBalances snapshots effective reserves in pool token order.
func stableBalances(p *domain.LiquidityPool, view *Overlay) map[common.Address]decimal.Decimal {
	balances := make(map[common.Address]decimal.Decimal, len(p.Tokens))
	for _, t := range p.Tokens {
		balances[t] = view.Reserve(p, t)
	}
	return balances
}

// stableD solves the invariant D by Newton iteration.
func stableD(p *domain.LiquidityPool, balances map[common.Address]decimal.Decimal) (decimal.Decimal, error) {
	n := decimal.NewFromInt(int64(len(p.Tokens)))
	ann := stableAnn(p)

	sum := decimal.Zero
	for _, t := range p.Tokens {
		sum = sum.Add(balances[t])
	}
	if !sum.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: pool %s", ErrInsufficientLiquidity, p.ID)
	}

	d := sum
	for i := 0; i < stableMaxIterations; i++ {
		dp := d
		for _, t := range p.Tokens {
			dp = dp.Mul(d).Div(balances[t].Mul(n))
		}
		next := ann.Mul(sum).Add(dp.Mul(n)).Mul(d).
			Div(ann.Sub(decimal.NewFromInt(1)).Mul(d).Add(n.Add(decimal.NewFromInt(1)).Mul(dp)))
		if next.Sub(d).Abs().LessThanOrEqual(stableConvergence) {
			return next, nil
		}
		d = next
	}
	return d, nil
}

// stableY solves for the balance of token want, given that token
// fixed now holds fixedBalance and the invariant D is preserved.
func stableY(p *domain.LiquidityPool, balances map[common.Address]decimal.Decimal, d decimal.Decimal, fixed common.Address, fixedBalance decimal.Decimal, want common.Address) (decimal.Decimal, error) {
	n := decimal.NewFromInt(int64(len(p.Tokens)))
	ann := stableAnn(p)

	c := d
	s := decimal.Zero
	for _, t := range p.Tokens {
		if t == want {
			continue
		}
		x := balances[t]
		if t == fixed {
			x = fixedBalance
		}
		if !x.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: pool %s", ErrInsufficientLiquidity, p.ID)
		}
		s = s.Add(x)
		c = c.Mul(d).Div(x.Mul(n))
	}
	c = c.Mul(d).Div(ann.Mul(n))
	b := s.Add(d.Div(ann))

	y := d
	two := decimal.NewFromInt(2)
	for i := 0; i < stableMaxIterations; i++ {
		next := y.Mul(y).Add(c).Div(two.Mul(y).Add(b).Sub(d))
		if next.Sub(y).Abs().LessThanOrEqual(stableConvergence) {
			return next, nil
		}
		y = next
	}
	return y, nil
}

// stableAnn is A * n^n.
func stableAnn(p *domain.LiquidityPool) decimal.Decimal {
	n := int64(len(p.Tokens))
	ann := p.Amplification
	for i := int64(0); i < n; i++ {
		ann = ann.Mul(decimal.NewFromInt(n))
	}
	return ann
}
