package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryEntry struct {
	auctionID uuid.UUID
	bidderID  uuid.UUID
}

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Create(ctx context.Context, auctionID, bidderID uuid.UUID) (string, error) {
	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = memoryEntry{auctionID: auctionID, bidderID: bidderID}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Validate(ctx context.Context, token string, auctionID uuid.UUID) (uuid.UUID, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok || entry.auctionID != auctionID {
		return uuid.Nil, ErrInvalid
	}
	return entry.bidderID, nil
}
