// Package main runs the batch auction solver as an HTTP service:
// POST /solve runs an auction, GET /quote prices trades against
// archived auctions, /healthz and /metrics serve operations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-solver/internal/api"
	"auction-solver/internal/infra/log"
	"auction-solver/internal/quote"
	"auction-solver/internal/solver"
	"auction-solver/internal/storage"
	chstore "auction-solver/internal/storage/clickhouse"
	"auction-solver/internal/storage/memory"
	"auction-solver/internal/storage/migrations"
	pgstore "auction-solver/internal/storage/postgres"
)

// archiveStores holds the storage backends behind the API.
type archiveStores struct {
	auctions  storage.AuctionStore
	solutions storage.SolutionStore
	reports   storage.SolveReportStore
}

func main() {
	listenAddr := flag.String("listen-addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	maxHops := flag.Int("quote-max-hops", 3, "Maximum route length for quotes")
	quoteChunks := flag.Int("quote-chunks", 10, "Split granularity for quotes")
	logLevel := flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	logPretty := flag.Bool("log-pretty", false, "Human-readable console logging")

	flag.Parse()

	logger := log.NewLogger(*logLevel, *logPretty)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal().Msg("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatal().Err(err).Msg("create stores")
	}
	defer cleanup()

	handler := api.NewHandler(
		solver.New(solver.Options{Logger: logger}),
		quote.NewService(*maxHops, *quoteChunks, logger),
		stores.auctions,
		stores.solutions,
		stores.reports,
		logger,
	)

	srv := &http.Server{
		Addr:              *listenAddr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("http shutdown")
		}
		cancel()
	}()

	logger.Info().Str("addr", *listenAddr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("http server")
	}
	logger.Info().Msg("shutdown complete")
}

// createStores builds the archive backends: in-memory, or PostgreSQL
// for auctions and solutions plus ClickHouse for solve reports, with
// migrations applied.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*archiveStores, func(), error) {
	if useMemory {
		stores := &archiveStores{
			auctions:  memory.NewAuctionStore(),
			solutions: memory.NewSolutionStore(),
			reports:   memory.NewSolveReportStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	stores := &archiveStores{
		auctions:  pgstore.NewAuctionStore(pool),
		solutions: pgstore.NewSolutionStore(pool),
		reports:   chstore.NewSolveReportStore(chConn),
	}
	cleanup := func() {
		pool.Close()
		chConn.Close()
	}
	return stores, cleanup, nil
}
