package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-order-bridge/internal/ports"

	"github.com/redis/go-redis/v9"
)

var _ ports.StateStore = (*RedisStateStore)(nil)

// RedisStateStore keeps OAuth state nonces in Redis with a TTL, so the
// install flow stays stateless across process restarts.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a state store on the given client.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func stateKey(state string) string {
	return "oauth_state:" + state
}

// SaveState stores the shop under the state nonce for ttl.
func (s *RedisStateStore) SaveState(ctx context.Context, state string, shop string, ttl time.Duration) error {
	if err := s.client.Set(ctx, stateKey(state), shop, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// ConsumeState fetches and deletes the nonce. Returns ("", nil) for an
// unknown or expired state.
func (s *RedisStateStore) ConsumeState(ctx context.Context, state string) (string, error) {
	shop, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("consume oauth state: %w", err)
	}
	return shop, nil
}
