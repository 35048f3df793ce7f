package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"auction-solver/internal/domain"
)

// ComputeSolutionID computes a deterministic solution id using SHA256
// over the auction id, the producing strategy, and every fill.
// Returns hex-encoded hash (64 characters).
func ComputeSolutionID(auctionID int64, strategy string, fills []domain.Fill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%s", auctionID, strategy)
	for _, f := range fills {
		fmt.Fprintf(&b, "|%s:%s:%s", f.OrderUID, f.ExecutedSell, f.ExecutedBuy)
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

// ComputeReportID computes a deterministic solve report id.
// Formula: SHA256(auction_id|solution_id|created_at)
func ComputeReportID(auctionID int64, solutionID string, createdAt int64) string {
	data := fmt.Sprintf("%d|%s|%d", auctionID, solutionID, createdAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
