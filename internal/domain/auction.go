package domain

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Auction is the immutable root of one solve invocation: the orders
// and liquidity snapshot plus the absolute answer deadline. Its
// lifetime is exactly one governor call.
type Auction struct {
	ID        int64
	Tokens    map[common.Address]Token
	Orders    []Order
	Liquidity []LiquidityPool
	Deadline  time.Time

	// NativeToken, when set, is preferred as the scoring numeraire.
	NativeToken *common.Address
}

// NewAuction validates the raw snapshot and returns an immutable
// Auction. now anchors the ValidTo expiry check.
func NewAuction(
	id int64,
	tokens map[common.Address]Token,
	orders []Order,
	liquidity []LiquidityPool,
	deadline time.Time,
	nativeToken *common.Address,
	now time.Time,
) (*Auction, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty token set", ErrInvalidAuction)
	}

	for i := range orders {
		o := &orders[i]
		if !o.SellAmount.IsPositive() || !o.BuyAmount.IsPositive() {
			return nil, fmt.Errorf("%w: order %s has non-positive amounts", ErrInvalidOrder, o.UID)
		}
		if o.FeeAmount.IsNegative() {
			return nil, fmt.Errorf("%w: order %s has negative fee", ErrInvalidOrder, o.UID)
		}
		if o.ValidTo < now.Unix() {
			return nil, fmt.Errorf("%w: order %s expired at %d", ErrInvalidOrder, o.UID, o.ValidTo)
		}
		if o.Kind != OrderKindSell && o.Kind != OrderKindBuy {
			return nil, fmt.Errorf("%w: order %s has kind %q", ErrInvalidOrder, o.UID, o.Kind)
		}
		if o.SellToken == o.BuyToken {
			return nil, fmt.Errorf("%w: order %s trades a token against itself", ErrInvalidOrder, o.UID)
		}
		if _, ok := tokens[o.SellToken]; !ok {
			return nil, fmt.Errorf("%w: order %s sell token %s", ErrUnknownToken, o.UID, o.SellToken)
		}
		if _, ok := tokens[o.BuyToken]; !ok {
			return nil, fmt.Errorf("%w: order %s buy token %s", ErrUnknownToken, o.UID, o.BuyToken)
		}
	}

	for i := range liquidity {
		p := &liquidity[i]
		if len(p.Tokens) < 2 {
			return nil, fmt.Errorf("%w: pool %s has %d tokens", ErrInvalidAuction, p.ID, len(p.Tokens))
		}
		for _, t := range p.Tokens {
			if _, ok := tokens[t]; !ok {
				return nil, fmt.Errorf("%w: pool %s token %s", ErrUnknownToken, p.ID, t)
			}
			r, ok := p.Reserves[t]
			if !ok || !r.IsPositive() {
				return nil, fmt.Errorf("%w: pool %s has no positive reserve for %s", ErrInvalidAuction, p.ID, t)
			}
		}
	}

	if nativeToken != nil {
		if _, ok := tokens[*nativeToken]; !ok {
			return nil, fmt.Errorf("%w: native token %s", ErrUnknownToken, *nativeToken)
		}
	}

	return &Auction{
		ID:          id,
		Tokens:      tokens,
		Orders:      orders,
		Liquidity:   liquidity,
		Deadline:    deadline,
		NativeToken: nativeToken,
	}, nil
}

// OrderByUID returns the order with the given UID, or nil.
func (a *Auction) OrderByUID(uid string) *Order {
	for i := range a.Orders {
		if a.Orders[i].UID == uid {
			return &a.Orders[i]
		}
	}
	return nil
}
