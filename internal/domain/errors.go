package domain

import "errors"

// Construction-time validation errors. These are the only errors that
// surface to the caller of a solve; everything past construction is
// absorbed by the governor.
var (
	// ErrInvalidOrder is returned for non-positive amounts or an
	// already-expired order.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrUnknownToken is returned when an order or pool references a
	// token absent from the auction's token set.
	ErrUnknownToken = errors.New("unknown token")

	// ErrInvalidAuction is returned when the auction as a whole is
	// malformed.
	ErrInvalidAuction = errors.New("invalid auction")
)
