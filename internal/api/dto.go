package api

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
)

// TokenDTO is one token in the auction's token set.
type TokenDTO struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
}

// OrderDTO is one trade intent. Amounts are decimal strings.
type OrderDTO struct {
	UID               string `json:"uid"`
	SellToken         string `json:"sell_token"`
	BuyToken          string `json:"buy_token"`
	SellAmount        string `json:"sell_amount"`
	BuyAmount         string `json:"buy_amount"`
	Kind              string `json:"kind"`
	PartiallyFillable bool   `json:"partially_fillable"`
	FeeAmount         string `json:"fee_amount,omitempty"`
	ValidTo           int64  `json:"valid_to"`
	CreatedAt         int64  `json:"created_at"`
}

// PoolDTO is one liquidity pool snapshot.
type PoolDTO struct {
	ID            string            `json:"id"`
	Kind          string            `json:"kind"`
	Tokens        []string          `json:"tokens"`
	Reserves      map[string]string `json:"reserves"`
	FeeBps        int64             `json:"fee_bps"`
	Weights       map[string]string `json:"weights,omitempty"`
	Amplification string            `json:"amplification,omitempty"`
}

// SolveRequest is the POST /solve body.
type SolveRequest struct {
	AuctionID   int64      `json:"auction_id"`
	Tokens      []TokenDTO `json:"tokens"`
	Orders      []OrderDTO `json:"orders"`
	Liquidity   []PoolDTO  `json:"liquidity"`
	DeadlineMs  int64      `json:"deadline_ms"`
	NativeToken *string    `json:"native_token,omitempty"`
}

// FillDTO is one executed order in the response.
type FillDTO struct {
	OrderUID     string `json:"order_uid"`
	ExecutedSell string `json:"executed_sell"`
	ExecutedBuy  string `json:"executed_buy"`
}

// InteractionDTO is one pool exchange in the response.
type InteractionDTO struct {
	PoolID    string `json:"pool_id"`
	TokenIn   string `json:"token_in"`
	TokenOut  string `json:"token_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
}

// SolutionResponse is the POST /solve response body.
type SolutionResponse struct {
	SolutionID     string            `json:"solution_id"`
	AuctionID      int64             `json:"auction_id"`
	Strategy       string            `json:"strategy,omitempty"`
	Score          string            `json:"score"`
	Fills          []FillDTO         `json:"fills"`
	Interactions   []InteractionDTO  `json:"interactions"`
	ClearingPrices map[string]string `json:"clearing_prices"`
	TimedOut       bool              `json:"timed_out"`
}

// QuoteResponse is the GET /quote response body.
type QuoteResponse struct {
	SellAmount   string           `json:"sell_amount"`
	BuyAmount    string           `json:"buy_amount"`
	Interactions []InteractionDTO `json:"interactions"`
}

// decodeAuction validates the request and builds the domain auction.
func decodeAuction(req *SolveRequest, now time.Time) (*domain.Auction, error) {
	tokens := make(map[common.Address]domain.Token, len(req.Tokens))
	for _, t := range req.Tokens {
		addr := common.HexToAddress(t.Address)
		tokens[addr] = domain.Token{Address: addr, Decimals: t.Decimals, Symbol: t.Symbol}
	}

	orders := make([]domain.Order, 0, len(req.Orders))
	for _, o := range req.Orders {
		sellAmount, err := parseAmount(o.SellAmount)
		if err != nil {
			return nil, fmt.Errorf("order %s sell_amount: %w", o.UID, err)
		}
		buyAmount, err := parseAmount(o.BuyAmount)
		if err != nil {
			return nil, fmt.Errorf("order %s buy_amount: %w", o.UID, err)
		}
		fee := decimal.Zero
		if o.FeeAmount != "" {
			if fee, err = parseAmount(o.FeeAmount); err != nil {
				return nil, fmt.Errorf("order %s fee_amount: %w", o.UID, err)
			}
		}
		orders = append(orders, domain.Order{
			UID:               o.UID,
			SellToken:         common.HexToAddress(o.SellToken),
			BuyToken:          common.HexToAddress(o.BuyToken),
			SellAmount:        sellAmount,
			BuyAmount:         buyAmount,
			Kind:              domain.OrderKind(o.Kind),
			PartiallyFillable: o.PartiallyFillable,
			FeeAmount:         fee,
			ValidTo:           o.ValidTo,
			CreatedAt:         o.CreatedAt,
		})
	}

	pools := make([]domain.LiquidityPool, 0, len(req.Liquidity))
	for _, p := range req.Liquidity {
		pool := domain.LiquidityPool{
			ID:     p.ID,
			Kind:   domain.PoolKind(p.Kind),
			FeeBps: p.FeeBps,
		}
		for _, t := range p.Tokens {
			pool.Tokens = append(pool.Tokens, common.HexToAddress(t))
		}
		pool.Reserves = make(map[common.Address]decimal.Decimal, len(p.Reserves))
		for t, r := range p.Reserves {
			amount, err := parseAmount(r)
			if err != nil {
				return nil, fmt.Errorf("pool %s reserve %s: %w", p.ID, t, err)
			}
			pool.Reserves[common.HexToAddress(t)] = amount
		}
		if len(p.Weights) > 0 {
			pool.Weights = make(map[common.Address]decimal.Decimal, len(p.Weights))
			for t, w := range p.Weights {
				weight, err := parseAmount(w)
				if err != nil {
					return nil, fmt.Errorf("pool %s weight %s: %w", p.ID, t, err)
				}
				pool.Weights[common.HexToAddress(t)] = weight
			}
		}
		if p.Amplification != "" {
			amp, err := parseAmount(p.Amplification)
			if err != nil {
				return nil, fmt.Errorf("pool %s amplification: %w", p.ID, err)
			}
			pool.Amplification = amp
		}
		pools = append(pools, pool)
	}

	var native *common.Address
	if req.NativeToken != nil {
		addr := common.HexToAddress(*req.NativeToken)
		native = &addr
	}

	return domain.NewAuction(
		req.AuctionID,
		tokens,
		orders,
		pools,
		time.UnixMilli(req.DeadlineMs).UTC(),
		native,
		now,
	)
}

// encodeSolution maps the domain solution to the response body.
func encodeSolution(sol *domain.Solution, timedOut bool) *SolutionResponse {
	resp := &SolutionResponse{
		SolutionID:     sol.ID,
		AuctionID:      sol.AuctionID,
		Strategy:       sol.Strategy,
		Score:          sol.Score.String(),
		Fills:          make([]FillDTO, 0, len(sol.Fills)),
		Interactions:   encodeInteractions(sol.Interactions),
		ClearingPrices: make(map[string]string, len(sol.ClearingPrices)),
		TimedOut:       timedOut,
	}
	for _, f := range sol.Fills {
		resp.Fills = append(resp.Fills, FillDTO{
			OrderUID:     f.OrderUID,
			ExecutedSell: f.ExecutedSell.String(),
			ExecutedBuy:  f.ExecutedBuy.String(),
		})
	}
	for token, price := range sol.ClearingPrices {
		resp.ClearingPrices[token.Hex()] = price.String()
	}
	return resp
}

func encodeInteractions(interactions []domain.Interaction) []InteractionDTO {
	result := make([]InteractionDTO, 0, len(interactions))
	for _, in := range interactions {
		result = append(result, InteractionDTO{
			PoolID:    in.PoolID,
			TokenIn:   in.TokenIn.Hex(),
			TokenOut:  in.TokenOut.Hex(),
			AmountIn:  in.AmountIn.String(),
			AmountOut: in.AmountOut.String(),
		})
	}
	return result
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}
