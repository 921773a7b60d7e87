// Package session authenticates JOIN commands. The engine is session-format
// agnostic; tokens are opaque strings minted here and validated on join.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInvalid is returned when a token is unknown, expired, or bound to a
// different auction.
var ErrInvalid = errors.New("invalid session")

// Store mints and validates bidder sessions for one auction.
type Store interface {
	Create(ctx context.Context, auctionID, bidderID uuid.UUID) (string, error)
	Validate(ctx context.Context, token string, auctionID uuid.UUID) (uuid.UUID, error)
}
