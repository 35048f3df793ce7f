package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Token is an ERC-20 style token known to the auction.
// Identity is the chain address; two Token values with the same
// address describe the same asset.
type Token struct {
	Address  common.Address
	Decimals uint8
	Symbol   string // optional, reporting only
}
