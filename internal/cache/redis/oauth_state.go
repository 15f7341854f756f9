package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStateNotFound means the OAuth state expired or was already used.
var ErrStateNotFound = errors.New("oauth state not found")

// StateStore binds one-time OAuth state values to the user who started the flow.
type StateStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewStateStore(client redis.Cmdable, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

func stateKey(state string) string { return "oauth:instagram:state:" + state }

func (s *StateStore) Save(ctx context.Context, state string, userID int64) error {
	return s.client.Set(ctx, stateKey(state), userID, s.ttl).Err()
}

// Consume returns the bound user id and deletes the state.
func (s *StateStore) Consume(ctx context.Context, state string) (int64, error) {
	v, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if err == redis.Nil {
		return 0, ErrStateNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}
