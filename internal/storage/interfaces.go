// Package storage defines the append-only archive of auctions,
// winning solutions and solve reports, with interchangeable
// PostgreSQL, ClickHouse and in-memory backends.
package storage

import (
	"context"

	"auction-solver/internal/domain"
)

// AuctionStore archives auction snapshots.
type AuctionStore interface {
	// Insert adds a new auction. Returns ErrDuplicateKey if auction_id exists.
	Insert(ctx context.Context, a *domain.Auction) error

	// GetByID retrieves an auction by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, auctionID int64) (*domain.Auction, error)
}

// SolutionStore archives winning solutions.
type SolutionStore interface {
	// Insert adds a new solution. Returns ErrDuplicateKey if solution_id exists.
	Insert(ctx context.Context, s *domain.Solution) error

	// GetByID retrieves a solution by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, solutionID string) (*domain.Solution, error)

	// GetByAuctionID retrieves all solutions for an auction, ordered by
	// solution_id ASC.
	GetByAuctionID(ctx context.Context, auctionID int64) ([]*domain.Solution, error)
}

// SolveReportStore archives per-solve telemetry rows.
type SolveReportStore interface {
	// Insert adds a new report.
	Insert(ctx context.Context, r *domain.SolveReport) error

	// InsertBulk adds multiple reports in one batch.
	InsertBulk(ctx context.Context, reports []*domain.SolveReport) error

	// GetByAuctionID retrieves all reports for an auction, ordered by
	// created_at ASC.
	GetByAuctionID(ctx context.Context, auctionID int64) ([]*domain.SolveReport, error)

	// GetByTimeRange retrieves reports created within [start, end] ms
	// (inclusive), ordered by created_at ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SolveReport, error)
}
