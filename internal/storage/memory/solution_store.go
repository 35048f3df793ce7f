package memory

import (
	"context"
	"sort"
	"sync"

	"auction-solver/internal/domain"
	"auction-solver/internal/storage"
)

// SolutionStore is an in-memory implementation of storage.SolutionStore.
type SolutionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Solution // keyed by solution_id
}

// NewSolutionStore creates a new in-memory solution store.
func NewSolutionStore() *SolutionStore {
	return &SolutionStore{data: make(map[string]*domain.Solution)}
}

// Compile-time interface check.
var _ storage.SolutionStore = (*SolutionStore)(nil)

// Insert adds a new solution. Returns ErrDuplicateKey if solution_id exists.
func (s *SolutionStore) Insert(_ context.Context, sol *domain.Solution) error {
	if sol == nil || sol.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sol.ID]; exists {
		return storage.ErrDuplicateKey
	}

	solutionCopy := *sol
	s.data[sol.ID] = &solutionCopy
	return nil
}

// GetByID retrieves a solution by its ID. Returns ErrNotFound if not exists.
func (s *SolutionStore) GetByID(_ context.Context, solutionID string) (*domain.Solution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sol, exists := s.data[solutionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	solutionCopy := *sol
	return &solutionCopy, nil
}

// GetByAuctionID retrieves all solutions for an auction, ordered by
// solution_id ASC.
func (s *SolutionStore) GetByAuctionID(_ context.Context, auctionID int64) ([]*domain.Solution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Solution
	for _, sol := range s.data {
		if sol.AuctionID == auctionID {
			solutionCopy := *sol
			result = append(result, &solutionCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
