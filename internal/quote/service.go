// Package quote prices a hypothetical trade against an auction's
// liquidity snapshot without executing anything.
package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/graph"
	"auction-solver/internal/liquidity"
	"auction-solver/internal/routing"
)

// ErrNoRoute is returned when no path connects the trade's tokens
// within the hop cap.
var ErrNoRoute = errors.New("no route between tokens")

// Request describes the trade to price. Amount is the sell amount for
// sell quotes and the buy amount for buy quotes.
type Request struct {
	SellToken common.Address
	BuyToken  common.Address
	Kind      domain.OrderKind
	Amount    decimal.Decimal
}

// Quote is the priced trade: the realized counter-amount and the
// execution plan that produces it.
type Quote struct {
	SellAmount   decimal.Decimal
	BuyAmount    decimal.Decimal
	Interactions []domain.Interaction
}

// Service prices trades by route search over a fresh overlay per
// request, so quotes never observe each other.
type Service struct {
	maxHops int
	chunks  int
	logger  zerolog.Logger
}

// NewService creates a quote service with the given route search
// parameters.
func NewService(maxHops, chunks int, logger zerolog.Logger) *Service {
	return &Service{maxHops: maxHops, chunks: chunks, logger: logger}
}

// Quote prices req against pools. The synthetic order carries no
// limit, so the result is the best the liquidity can do.
func (s *Service) Quote(ctx context.Context, pools []domain.LiquidityPool, req Request) (*Quote, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("quote amount must be positive, got %s", req.Amount)
	}
	if req.SellToken == req.BuyToken {
		return nil, fmt.Errorf("quote trades %s against itself", req.SellToken)
	}

	order := syntheticOrder(req)
	searcher := routing.NewSearcher(graph.Build(pools), s.maxHops, s.chunks)
	route, err := searcher.BestRoute(ctx, &order, req.Amount, liquidity.NewOverlay())
	if err != nil {
		return nil, fmt.Errorf("search route: %w", err)
	}
	if route == nil {
		return nil, ErrNoRoute
	}

	s.logger.Debug().
		Str("sell_token", req.SellToken.Hex()).
		Str("buy_token", req.BuyToken.Hex()).
		Str("kind", string(req.Kind)).
		Str("amount", req.Amount.String()).
		Int("hops", len(route.Hops)).
		Msg("quote priced")
	return &Quote{
		SellAmount:   route.ExecutedSell,
		BuyAmount:    route.ExecutedBuy,
		Interactions: route.Hops,
	}, nil
}

// syntheticOrder builds an order whose limit can never bind: a sell
// quote accepts any output, a buy quote any input.
func syntheticOrder(req Request) domain.Order {
	o := domain.Order{
		UID:       "quote",
		SellToken: req.SellToken,
		BuyToken:  req.BuyToken,
		Kind:      req.Kind,
	}
	if req.Kind == domain.OrderKindBuy {
		o.BuyAmount = req.Amount
		o.SellAmount = decimal.New(1, 30)
	} else {
		o.SellAmount = req.Amount
		o.BuyAmount = decimal.New(1, -18)
	}
	return o
}
