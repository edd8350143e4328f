package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateTTL = 10 * time.Minute

// StateStore keeps the single-use anti-CSRF state tokens issued for the
// federated sign-in flow. A state is valid for one exchange within stateTTL.
// Key format: oauth:state:<token>
type StateStore struct {
	client *redis.Client
}

// NewStateStore creates a StateStore wrapping the given Redis client.
func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Issue records a freshly minted state token.
func (s *StateStore) Issue(ctx context.Context, state string) error {
	return s.client.Set(ctx, s.key(state), "1", stateTTL).Err()
}

// Consume invalidates the state and reports whether it was outstanding.
// A second consume of the same state returns false.
func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(state)).Result()
	if err != nil {
		return false, fmt.Errorf("state consume: %w", err)
	}
	return n > 0, nil
}

func (s *StateStore) key(state string) string {
	return "oauth:state:" + state
}
