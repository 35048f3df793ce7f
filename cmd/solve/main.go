// Package main solves one auction from a JSON snapshot and prints the
// winning solution as JSON. Useful for replaying archived auctions
// and for debugging candidate strategies.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/infra/log"
	"auction-solver/internal/solver"
)

// snapshot is the JSON form of one auction. Amounts are decimal
// strings; token addresses are hex.
type snapshot struct {
	AuctionID   int64                  `json:"auction_id"`
	Tokens      map[string]tokenJSON   `json:"tokens"`
	Orders      []domain.Order         `json:"orders"`
	Liquidity   []domain.LiquidityPool `json:"liquidity"`
	DeadlineMs  int64                  `json:"deadline_ms"`
	NativeToken *string                `json:"native_token,omitempty"`
}

type tokenJSON struct {
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
}

func main() {
	input := flag.String("input", "-", "Auction snapshot JSON file, - for stdin")
	budget := flag.Duration("budget", 2*time.Second, "Solve deadline when the snapshot has none in the future")
	logLevel := flag.String("log-level", "warn", "Log level")

	flag.Parse()

	logger := log.NewLogger(*logLevel, true)

	var reader io.Reader = os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			logger.Fatal().Err(err).Msg("open input")
		}
		defer f.Close()
		reader = f
	}

	var snap snapshot
	if err := json.NewDecoder(reader).Decode(&snap); err != nil {
		logger.Fatal().Err(err).Msg("decode snapshot")
	}

	now := time.Now()
	deadline := time.UnixMilli(snap.DeadlineMs)
	if !deadline.After(now) {
		deadline = now.Add(*budget)
	}

	tokens := make(map[common.Address]domain.Token, len(snap.Tokens))
	for hex, t := range snap.Tokens {
		addr := common.HexToAddress(hex)
		tokens[addr] = domain.Token{Address: addr, Decimals: t.Decimals, Symbol: t.Symbol}
	}
	var native *common.Address
	if snap.NativeToken != nil {
		addr := common.HexToAddress(*snap.NativeToken)
		native = &addr
	}

	auction, err := domain.NewAuction(snap.AuctionID, tokens, snap.Orders, snap.Liquidity, deadline, native, now)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid auction")
	}

	gov := solver.New(solver.Options{Logger: logger})
	res := gov.Solve(context.Background(), auction)
	sol := res.Solution

	out := struct {
		SolutionID     string                             `json:"solution_id"`
		AuctionID      int64                              `json:"auction_id"`
		Strategy       string                             `json:"strategy,omitempty"`
		Score          decimal.Decimal                    `json:"score"`
		Fills          []domain.Fill                      `json:"fills"`
		Interactions   []domain.Interaction               `json:"interactions"`
		ClearingPrices map[common.Address]decimal.Decimal `json:"clearing_prices"`
		TimedOut       bool                               `json:"timed_out"`
	}{
		SolutionID:     sol.ID,
		AuctionID:      sol.AuctionID,
		Strategy:       sol.Strategy,
		Score:          sol.Score,
		Fills:          sol.Fills,
		Interactions:   sol.Interactions,
		ClearingPrices: sol.ClearingPrices,
		TimedOut:       res.TimedOut,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatal().Err(err).Msg("encode solution")
	}
}
