package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in redis under session:<token> with a TTL, the
// value being "<auction_id>:<bidder_id>".
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, auctionID, bidderID uuid.UUID) (string, error) {
	token := uuid.New().String()
	value := fmt.Sprintf("%s:%s", auctionID, bidderID)
	if err := s.client.Set(ctx, key(token), value, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Validate(ctx context.Context, token string, auctionID uuid.UUID) (uuid.UUID, error) {
	value, err := s.client.Get(ctx, key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to validate session: %w", err)
	}

	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return uuid.Nil, ErrInvalid
	}
	gotAuction, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, ErrInvalid
	}
	gotBidder, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, ErrInvalid
	}
	if gotAuction != auctionID {
		return uuid.Nil, ErrInvalid
	}
	return gotBidder, nil
}

func key(token string) string {
	return "session:" + token
}
