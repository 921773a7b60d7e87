package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/gavel/go/internal/models"
)

// PostgresStore keeps each auction as a single JSONB document. The whole
// aggregate is written on every save; per-command granularity lives in the
// event stream, not here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a store to an existing pool and ensures the
// auctions table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	const ddl = `
		CREATE TABLE IF NOT EXISTS auctions (
			id         UUID PRIMARY KEY,
			state      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to ensure auctions table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	var state []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM auctions WHERE id = $1`, id).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load auction %s: %w", id, err)
	}

	var a models.Auction
	if err := json.Unmarshal(state, &a); err != nil {
		return nil, fmt.Errorf("failed to decode auction %s: %w", id, err)
	}
	return &a, nil
}

func (s *PostgresStore) Save(ctx context.Context, a *models.Auction) error {
	state, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode auction %s: %w", a.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO auctions (id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		a.ID, state)
	if err != nil {
		return fmt.Errorf("failed to save auction %s: %w", a.ID, err)
	}
	return nil
}
