// Package memory provides in-memory storage implementations for
// tests and single-process runs.
package memory

import (
	"context"
	"sync"

	"auction-solver/internal/domain"
	"auction-solver/internal/storage"
)

// AuctionStore is an in-memory implementation of storage.AuctionStore.
type AuctionStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.Auction
}

// NewAuctionStore creates a new in-memory auction store.
func NewAuctionStore() *AuctionStore {
	return &AuctionStore{data: make(map[int64]*domain.Auction)}
}

// Compile-time interface check.
var _ storage.AuctionStore = (*AuctionStore)(nil)

// Insert adds a new auction. Returns ErrDuplicateKey if auction_id exists.
func (s *AuctionStore) Insert(_ context.Context, a *domain.Auction) error {
	if a == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	auctionCopy := *a
	s.data[a.ID] = &auctionCopy
	return nil
}

// GetByID retrieves an auction by its ID. Returns ErrNotFound if not exists.
func (s *AuctionStore) GetByID(_ context.Context, auctionID int64) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[auctionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	auctionCopy := *a
	return &auctionCopy, nil
}
