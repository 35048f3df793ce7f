package memory

import (
	"context"
	"sort"
	"sync"

	"auction-solver/internal/domain"
	"auction-solver/internal/storage"
)

// SolveReportStore is an in-memory implementation of storage.SolveReportStore.
type SolveReportStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SolveReport // keyed by report_id
}

// NewSolveReportStore creates a new in-memory solve report store.
func NewSolveReportStore() *SolveReportStore {
	return &SolveReportStore{data: make(map[string]*domain.SolveReport)}
}

// Compile-time interface check.
var _ storage.SolveReportStore = (*SolveReportStore)(nil)

// Insert adds a new report.
func (s *SolveReportStore) Insert(_ context.Context, r *domain.SolveReport) error {
	if r == nil || r.ReportID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ReportID]; exists {
		return storage.ErrDuplicateKey
	}

	reportCopy := *r
	s.data[r.ReportID] = &reportCopy
	return nil
}

// InsertBulk adds multiple reports. Fails entire batch on any duplicate.
func (s *SolveReportStore) InsertBulk(_ context.Context, reports []*domain.SolveReport) error {
	if len(reports) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(reports))
	for _, r := range reports {
		if r == nil || r.ReportID == "" {
			return storage.ErrInvalidInput
		}
		if _, ok := seen[r.ReportID]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := s.data[r.ReportID]; ok {
			return storage.ErrDuplicateKey
		}
		seen[r.ReportID] = struct{}{}
	}

	for _, r := range reports {
		reportCopy := *r
		s.data[r.ReportID] = &reportCopy
	}
	return nil
}

// GetByAuctionID retrieves all reports for an auction, ordered by
// created_at ASC.
func (s *SolveReportStore) GetByAuctionID(_ context.Context, auctionID int64) ([]*domain.SolveReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SolveReport
	for _, r := range s.data {
		if r.AuctionID == auctionID {
			reportCopy := *r
			result = append(result, &reportCopy)
		}
	}
	sortReports(result)
	return result, nil
}

// GetByTimeRange retrieves reports created within [start, end] ms
// (inclusive), ordered by created_at ASC.
func (s *SolveReportStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SolveReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SolveReport
	for _, r := range s.data {
		if r.CreatedAt >= start && r.CreatedAt <= end {
			reportCopy := *r
			result = append(result, &reportCopy)
		}
	}
	sortReports(result)
	return result, nil
}

func sortReports(reports []*domain.SolveReport) {
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt != reports[j].CreatedAt {
			return reports[i].CreatedAt < reports[j].CreatedAt
		}
		return reports[i].ReportID < reports[j].ReportID
	})
}
