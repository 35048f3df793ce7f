package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// OrderKind distinguishes sell orders (sell amount fixed) from buy
// orders (buy amount fixed).
type OrderKind string

// Order kind constants.
const (
	OrderKindSell OrderKind = "sell"
	OrderKindBuy  OrderKind = "buy"
)

// Order is one pending trade from the auction snapshot. Orders are
// never mutated; execution produces a derived Fill referencing the
// order by UID.
type Order struct {
	UID               string
	SellToken         common.Address
	BuyToken          common.Address
	SellAmount        decimal.Decimal // > 0
	BuyAmount         decimal.Decimal // > 0, the limit amount
	Kind              OrderKind
	PartiallyFillable bool
	FeeAmount         decimal.Decimal // in sell token units
	ValidTo           int64           // unix seconds
	CreatedAt         int64           // unix milliseconds
}

// LimitPrice returns the minimum acceptable buy-per-sell exchange
// rate: BuyAmount / SellAmount.
func (o *Order) LimitPrice() decimal.Decimal {
	return o.BuyAmount.Div(o.SellAmount)
}

// LimitBuyFor returns the minimum buy amount acceptable for selling
// the given amount, pro-rata against the order's limit price.
func (o *Order) LimitBuyFor(sellAmount decimal.Decimal) decimal.Decimal {
	return sellAmount.Mul(o.BuyAmount).Div(o.SellAmount)
}

// LimitSellFor returns the maximum sell amount acceptable for buying
// the given amount, pro-rata against the order's limit price.
func (o *Order) LimitSellFor(buyAmount decimal.Decimal) decimal.Decimal {
	return buyAmount.Mul(o.SellAmount).Div(o.BuyAmount)
}
