package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-solver/internal/quote"
	"auction-solver/internal/solver"
	"auction-solver/internal/storage/memory"
)

const (
	tokenAHex = "0x00000000000000000000000000000000000000Aa"
	tokenBHex = "0x00000000000000000000000000000000000000bB"
)

type testEnv struct {
	router   http.Handler
	auctions *memory.AuctionStore
	reports  *memory.SolveReportStore
}

func newTestEnv() *testEnv {
	auctions := memory.NewAuctionStore()
	reports := memory.NewSolveReportStore()
	h := NewHandler(
		solver.New(solver.Options{Logger: zerolog.Nop()}),
		quote.NewService(3, 10, zerolog.Nop()),
		auctions,
		memory.NewSolutionStore(),
		reports,
		zerolog.Nop(),
	)
	return &testEnv{router: NewRouter(h), auctions: auctions, reports: reports}
}

func solveBody(auctionID int64) map[string]any {
	return map[string]any{
		"auction_id": auctionID,
		"tokens": []map[string]any{
			{"address": tokenAHex, "decimals": 18, "symbol": "AAA"},
			{"address": tokenBHex, "decimals": 18, "symbol": "BBB"},
		},
		"orders": []map[string]any{{
			"uid":         "o1",
			"sell_token":  tokenAHex,
			"buy_token":   tokenBHex,
			"sell_amount": "100",
			"buy_amount":  "90",
			"kind":        "sell",
			"valid_to":    time.Now().Add(time.Hour).Unix(),
			"created_at":  time.Now().UnixMilli(),
		}},
		"liquidity": []map[string]any{{
			"id":     "p1",
			"kind":   "constant_product",
			"tokens": []string{tokenAHex, tokenBHex},
			"reserves": map[string]string{
				tokenAHex: "1000",
				tokenBHex: "1000",
			},
		}},
		"deadline_ms": time.Now().Add(5 * time.Second).UnixMilli(),
	}
}

func postSolve(t *testing.T, env *testEnv, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/solve", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestSolveEndpoint(t *testing.T) {
	env := newTestEnv()

	rec := postSolve(t, env, solveBody(1))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SolutionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, int64(1), resp.AuctionID)
	assert.NotEmpty(t, resp.SolutionID)
	assert.False(t, resp.TimedOut)
	require.Len(t, resp.Fills, 1)
	assert.Equal(t, "o1", resp.Fills[0].OrderUID)
	assert.Equal(t, "100", resp.Fills[0].ExecutedSell)

	executedBuy, err := decimal.NewFromString(resp.Fills[0].ExecutedBuy)
	require.NoError(t, err)
	assert.True(t, executedBuy.GreaterThanOrEqual(decimal.NewFromInt(90)))
	assert.NotEmpty(t, resp.Interactions)
	assert.NotEmpty(t, resp.ClearingPrices)

	// The auction and a solve report must have been archived.
	_, err = env.auctions.GetByID(context.Background(), 1)
	assert.NoError(t, err)
	archived, err := env.reports.GetByAuctionID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, resp.SolutionID, archived[0].SolutionID)
}

func TestSolveEndpointRejectsBadBody(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/solve", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSolveEndpointRejectsInvalidAuction(t *testing.T) {
	env := newTestEnv()

	body := solveBody(1)
	body["tokens"] = []map[string]any{}
	rec := postSolve(t, env, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestQuoteEndpoint(t *testing.T) {
	env := newTestEnv()
	require.Equal(t, http.StatusOK, postSolve(t, env, solveBody(1)).Code)

	url := fmt.Sprintf("/quote?auction_id=1&sell_token=%s&buy_token=%s&kind=sell&amount=50", tokenAHex, tokenBHex)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "50", resp.SellAmount)
	buyAmount, err := decimal.NewFromString(resp.BuyAmount)
	require.NoError(t, err)
	assert.True(t, buyAmount.IsPositive())
	assert.True(t, buyAmount.LessThan(decimal.NewFromInt(50)))
	require.Len(t, resp.Interactions, 1)
}

func TestQuoteEndpointUnknownAuction(t *testing.T) {
	env := newTestEnv()

	url := fmt.Sprintf("/quote?auction_id=99&sell_token=%s&buy_token=%s&kind=sell&amount=50", tokenAHex, tokenBHex)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuoteEndpointBadParams(t *testing.T) {
	env := newTestEnv()

	for _, url := range []string{
		"/quote",
		"/quote?auction_id=1&kind=sell&amount=abc",
		fmt.Sprintf("/quote?auction_id=1&sell_token=%s&buy_token=%s&kind=swap&amount=5", tokenAHex, tokenBHex),
	} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "url %s", url)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
