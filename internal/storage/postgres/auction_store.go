package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"auction-solver/internal/domain"
	"auction-solver/internal/storage"
)

// AuctionStore implements storage.AuctionStore using PostgreSQL. The
// token, order and liquidity snapshots are stored as JSONB documents;
// they are archived whole and never queried field by field.
type AuctionStore struct {
	pool *Pool
}

// NewAuctionStore creates a new AuctionStore.
func NewAuctionStore(pool *Pool) *AuctionStore {
	return &AuctionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AuctionStore = (*AuctionStore)(nil)

// Insert adds a new auction. Returns ErrDuplicateKey if auction_id exists.
func (s *AuctionStore) Insert(ctx context.Context, a *domain.Auction) error {
	if a == nil {
		return storage.ErrInvalidInput
	}

	tokens, err := json.Marshal(a.Tokens)
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	orders, err := json.Marshal(a.Orders)
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}
	liq, err := json.Marshal(a.Liquidity)
	if err != nil {
		return fmt.Errorf("marshal liquidity: %w", err)
	}

	var native *string
	if a.NativeToken != nil {
		hex := a.NativeToken.Hex()
		native = &hex
	}

	query := `
		INSERT INTO auctions (
			auction_id, deadline_ms, native_token, tokens, orders, liquidity
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.pool.Exec(ctx, query,
		a.ID,
		a.Deadline.UnixMilli(),
		native,
		tokens,
		orders,
		liq,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert auction: %w", err)
	}
	return nil
}

// GetByID retrieves an auction by its ID. Returns ErrNotFound if not exists.
func (s *AuctionStore) GetByID(ctx context.Context, auctionID int64) (*domain.Auction, error) {
	query := `
		SELECT auction_id, deadline_ms, native_token, tokens, orders, liquidity
		FROM auctions
		WHERE auction_id = $1
	`

	var (
		id         int64
		deadlineMs int64
		native     *string
		tokens     []byte
		orders     []byte
		liq        []byte
	)
	err := s.pool.QueryRow(ctx, query, auctionID).Scan(&id, &deadlineMs, &native, &tokens, &orders, &liq)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get auction by id: %w", err)
	}

	a := &domain.Auction{
		ID:       id,
		Deadline: time.UnixMilli(deadlineMs).UTC(),
	}
	if native != nil {
		addr := common.HexToAddress(*native)
		a.NativeToken = &addr
	}
	if err := json.Unmarshal(tokens, &a.Tokens); err != nil {
		return nil, fmt.Errorf("unmarshal tokens: %w", err)
	}
	if err := json.Unmarshal(orders, &a.Orders); err != nil {
		return nil, fmt.Errorf("unmarshal orders: %w", err)
	}
	if err := json.Unmarshal(liq, &a.Liquidity); err != nil {
		return nil, fmt.Errorf("unmarshal liquidity: %w", err)
	}
	return a, nil
}
