package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mcdev12/gavel/go/internal/models"
)

var errSaveFailed = errors.New("save failed")

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[uuid.UUID]*models.Auction

	// FailSaves makes every Save return an error; tests use it to exercise
	// the persistence-failure path.
	FailSaves bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{auctions: make(map[uuid.UUID]*models.Auction)}
}

func (s *MemoryStore) Load(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.auctions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, a *models.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return errSaveFailed
	}
	s.auctions[a.ID] = a.Clone()
	return nil
}
