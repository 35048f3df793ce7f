package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"auction-solver/internal/domain"
	"auction-solver/internal/storage"
)

// SolutionStore implements storage.SolutionStore using PostgreSQL.
// The score is stored as text so the decimal survives exactly.
type SolutionStore struct {
	pool *Pool
}

// NewSolutionStore creates a new SolutionStore.
func NewSolutionStore(pool *Pool) *SolutionStore {
	return &SolutionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SolutionStore = (*SolutionStore)(nil)

// Insert adds a new solution. Returns ErrDuplicateKey if solution_id exists.
func (s *SolutionStore) Insert(ctx context.Context, sol *domain.Solution) error {
	if sol == nil || sol.ID == "" {
		return storage.ErrInvalidInput
	}

	fills, err := json.Marshal(sol.Fills)
	if err != nil {
		return fmt.Errorf("marshal fills: %w", err)
	}
	interactions, err := json.Marshal(sol.Interactions)
	if err != nil {
		return fmt.Errorf("marshal interactions: %w", err)
	}
	prices, err := json.Marshal(sol.ClearingPrices)
	if err != nil {
		return fmt.Errorf("marshal clearing prices: %w", err)
	}

	query := `
		INSERT INTO solutions (
			solution_id, auction_id, strategy, score, fills, interactions, clearing_prices
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.pool.Exec(ctx, query,
		sol.ID,
		sol.AuctionID,
		sol.Strategy,
		sol.Score.String(),
		fills,
		interactions,
		prices,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert solution: %w", err)
	}
	return nil
}

// GetByID retrieves a solution by its ID. Returns ErrNotFound if not exists.
func (s *SolutionStore) GetByID(ctx context.Context, solutionID string) (*domain.Solution, error) {
	query := `
		SELECT solution_id, auction_id, strategy, score, fills, interactions, clearing_prices
		FROM solutions
		WHERE solution_id = $1
	`

	sol, err := scanSolution(s.pool.QueryRow(ctx, query, solutionID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get solution by id: %w", err)
	}
	return sol, nil
}

// GetByAuctionID retrieves all solutions for an auction, ordered by
// solution_id ASC.
func (s *SolutionStore) GetByAuctionID(ctx context.Context, auctionID int64) ([]*domain.Solution, error) {
	query := `
		SELECT solution_id, auction_id, strategy, score, fills, interactions, clearing_prices
		FROM solutions
		WHERE auction_id = $1
		ORDER BY solution_id ASC
	`

	rows, err := s.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get solutions by auction id: %w", err)
	}
	defer rows.Close()

	var result []*domain.Solution
	for rows.Next() {
		sol, err := scanSolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan solution: %w", err)
		}
		result = append(result, sol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate solutions: %w", err)
	}
	return result, nil
}

// scanSolution reads one solution row.
func scanSolution(row pgx.Row) (*domain.Solution, error) {
	var (
		sol          domain.Solution
		score        string
		fills        []byte
		interactions []byte
		prices       []byte
	)
	err := row.Scan(&sol.ID, &sol.AuctionID, &sol.Strategy, &score, &fills, &interactions, &prices)
	if err != nil {
		return nil, err
	}

	sol.Score, err = decimal.NewFromString(score)
	if err != nil {
		return nil, fmt.Errorf("parse score %q: %w", score, err)
	}
	if err := json.Unmarshal(fills, &sol.Fills); err != nil {
		return nil, fmt.Errorf("unmarshal fills: %w", err)
	}
	if err := json.Unmarshal(interactions, &sol.Interactions); err != nil {
		return nil, fmt.Errorf("unmarshal interactions: %w", err)
	}
	if err := json.Unmarshal(prices, &sol.ClearingPrices); err != nil {
		return nil, fmt.Errorf("unmarshal clearing prices: %w", err)
	}
	return &sol, nil
}
