package clickhouse

import (
	"context"
	"fmt"

	"auction-solver/internal/domain"
	"auction-solver/internal/storage"
)

// SolveReportStore implements storage.SolveReportStore using ClickHouse.
// MergeTree does not enforce uniqueness; report ids are content hashes,
// so duplicate rows can only come from retried inserts and collapse to
// identical data.
type SolveReportStore struct {
	conn *Conn
}

// NewSolveReportStore creates a new SolveReportStore.
func NewSolveReportStore(conn *Conn) *SolveReportStore {
	return &SolveReportStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SolveReportStore = (*SolveReportStore)(nil)

// Insert adds a new report.
func (s *SolveReportStore) Insert(ctx context.Context, r *domain.SolveReport) error {
	if r == nil || r.ReportID == "" {
		return storage.ErrInvalidInput
	}
	return s.InsertBulk(ctx, []*domain.SolveReport{r})
}

// InsertBulk adds multiple reports in one batch.
func (s *SolveReportStore) InsertBulk(ctx context.Context, reports []*domain.SolveReport) error {
	if len(reports) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO solve_reports (
			report_id, auction_id, solution_id, strategy, score,
			orders, fills, interactions, duration_ms, timed_out, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range reports {
		if r == nil || r.ReportID == "" {
			return storage.ErrInvalidInput
		}
		timedOut := uint8(0)
		if r.TimedOut {
			timedOut = 1
		}
		err = batch.Append(
			r.ReportID, r.AuctionID, r.SolutionID, r.Strategy, r.Score,
			uint32(r.Orders), uint32(r.Fills), uint32(r.Interactions),
			r.DurationMs, timedOut, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAuctionID retrieves all reports for an auction, ordered by
// created_at ASC.
func (s *SolveReportStore) GetByAuctionID(ctx context.Context, auctionID int64) ([]*domain.SolveReport, error) {
	query := `
		SELECT report_id, auction_id, solution_id, strategy, score,
		       orders, fills, interactions, duration_ms, timed_out, created_at
		FROM solve_reports
		WHERE auction_id = ?
		ORDER BY created_at ASC, report_id ASC
	`

	rows, err := s.conn.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get reports by auction id: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// GetByTimeRange retrieves reports created within [start, end] ms
// (inclusive), ordered by created_at ASC.
func (s *SolveReportStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SolveReport, error) {
	query := `
		SELECT report_id, auction_id, solution_id, strategy, score,
		       orders, fills, interactions, duration_ms, timed_out, created_at
		FROM solve_reports
		WHERE created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC, report_id ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get reports by time range: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// scanReports drains rows into reports.
func scanReports(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*domain.SolveReport, error) {
	var result []*domain.SolveReport
	for rows.Next() {
		var (
			r        domain.SolveReport
			orders   uint32
			fills    uint32
			inters   uint32
			timedOut uint8
		)
		err := rows.Scan(
			&r.ReportID, &r.AuctionID, &r.SolutionID, &r.Strategy, &r.Score,
			&orders, &fills, &inters, &r.DurationMs, &timedOut, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Orders = int(orders)
		r.Fills = int(fills)
		r.Interactions = int(inters)
		r.TimedOut = timedOut == 1
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return result, nil
}
