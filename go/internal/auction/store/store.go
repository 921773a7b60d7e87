// Package store holds the persistence contract for auction state. The engine
// treats the store as a collaborator: it loads once on actor start and saves
// after every applied transition.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mcdev12/gavel/go/internal/models"
)

// ErrNotFound is returned by Load when no auction exists for the id.
var ErrNotFound = errors.New("auction not found")

// Store persists whole auction documents.
type Store interface {
	Load(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	Save(ctx context.Context, a *models.Auction) error
}
