// Package api exposes the solver over HTTP: auction solving, quoting
// against archived auctions, health and metrics.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/idhash"
	"auction-solver/internal/observability"
	"auction-solver/internal/quote"
	"auction-solver/internal/solver"
	"auction-solver/internal/storage"
)

// Handler contains dependencies for HTTP handlers.
type Handler struct {
	Governor  *solver.Governor
	Quotes    *quote.Service
	Auctions  storage.AuctionStore
	Solutions storage.SolutionStore
	Reports   storage.SolveReportStore
	Logger    zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(
	gov *solver.Governor,
	quotes *quote.Service,
	auctions storage.AuctionStore,
	solutions storage.SolutionStore,
	reports storage.SolveReportStore,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		Governor:  gov,
		Quotes:    quotes,
		Auctions:  auctions,
		Solutions: solutions,
		Reports:   reports,
		Logger:    logger,
	}
}

// NewRouter builds the chi router over the handler.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/solve", h.Solve)
	r.Get("/quote", h.GetQuote)
	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", observability.Handler())
	return r
}

// Solve runs one auction and returns the winning solution. The
// auction, the solution and a solve report are archived; archive
// failures are logged but never fail the solve itself.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	w.Header().Set("X-Request-ID", requestID)
	logger := h.Logger.With().Str("request_id", requestID).Logger()

	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "/solve", http.StatusBadRequest, "invalid request body")
		return
	}

	auction, err := decodeAuction(&req, time.Now())
	if err != nil {
		h.writeError(w, "/solve", http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Auctions.Insert(r.Context(), auction); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		logger.Error().Err(err).Int64("auction_id", auction.ID).Msg("archive auction")
	}

	started := time.Now()
	res := h.Governor.Solve(r.Context(), auction)
	sol, timedOut := res.Solution, res.TimedOut

	h.archiveSolve(r, auction, sol, time.Since(started), timedOut)

	h.writeJSON(w, "/solve", http.StatusOK, encodeSolution(sol, timedOut))
}

// GetQuote prices a hypothetical trade against an archived auction's
// liquidity. Query parameters: auction_id, sell_token, buy_token,
// kind (sell|buy), amount.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	auctionID, err := strconv.ParseInt(q.Get("auction_id"), 10, 64)
	if err != nil {
		h.writeError(w, "/quote", http.StatusBadRequest, "invalid auction_id")
		return
	}
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		h.writeError(w, "/quote", http.StatusBadRequest, "invalid amount")
		return
	}
	kind := domain.OrderKind(q.Get("kind"))
	if kind != domain.OrderKindSell && kind != domain.OrderKindBuy {
		h.writeError(w, "/quote", http.StatusBadRequest, "kind must be sell or buy")
		return
	}

	auction, err := h.Auctions.GetByID(r.Context(), auctionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, "/quote", http.StatusNotFound, "auction not found")
			return
		}
		h.Logger.Error().Err(err).Int64("auction_id", auctionID).Msg("load auction")
		h.writeError(w, "/quote", http.StatusInternalServerError, "failed to load auction")
		return
	}

	result, err := h.Quotes.Quote(r.Context(), auction.Liquidity, quote.Request{
		SellToken: common.HexToAddress(q.Get("sell_token")),
		BuyToken:  common.HexToAddress(q.Get("buy_token")),
		Kind:      kind,
		Amount:    amount,
	})
	if err != nil {
		if errors.Is(err, quote.ErrNoRoute) {
			h.writeError(w, "/quote", http.StatusNotFound, "no route between tokens")
			return
		}
		h.writeError(w, "/quote", http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, "/quote", http.StatusOK, &QuoteResponse{
		SellAmount:   result.SellAmount.String(),
		BuyAmount:    result.BuyAmount.String(),
		Interactions: encodeInteractions(result.Interactions),
	})
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, "/healthz", http.StatusOK, map[string]string{"status": "ok"})
}

// archiveSolve persists the winning solution and its report.
func (h *Handler) archiveSolve(r *http.Request, auction *domain.Auction, sol *domain.Solution, elapsed time.Duration, timedOut bool) {
	if err := h.Solutions.Insert(r.Context(), sol); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		h.Logger.Error().Err(err).Str("solution_id", sol.ID).Msg("archive solution")
	}

	createdAt := time.Now().UnixMilli()
	report := &domain.SolveReport{
		ReportID:     idhash.ComputeReportID(auction.ID, sol.ID, createdAt),
		AuctionID:    auction.ID,
		SolutionID:   sol.ID,
		Strategy:     sol.Strategy,
		Score:        sol.Score.String(),
		Orders:       len(auction.Orders),
		Fills:        len(sol.Fills),
		Interactions: len(sol.Interactions),
		DurationMs:   elapsed.Milliseconds(),
		TimedOut:     timedOut,
		CreatedAt:    createdAt,
	}
	if err := h.Reports.Insert(r.Context(), report); err != nil {
		h.Logger.Error().Err(err).Str("report_id", report.ReportID).Msg("archive solve report")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, route string, status int, body any) {
	observability.RecordHTTPRequest(route, strconv.Itoa(status))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error().Err(err).Str("route", route).Msg("encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, route string, status int, msg string) {
	h.writeJSON(w, route, status, map[string]string{"error": msg})
}
