package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"insta-giveaway-backend/internal/domain/account"
)

// UserCache caches users resolved from bearer tokens, keyed by id and email.
type UserCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewUserCache(client redis.Cmdable, ttl time.Duration) *UserCache {
	return &UserCache{client: client, ttl: ttl}
}

func (c *UserCache) keyByID(id int64) string { return fmt.Sprintf("user:id:%d", id) }
func (c *UserCache) keyByEmail(email string) string {
	return "user:email:" + strings.ToLower(email)
}

// Set stores the user under both keys.
func (c *UserCache) Set(ctx context.Context, u *account.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.keyByID(u.ID), b, c.ttl)
	if u.Email != "" {
		pipe.Set(ctx, c.keyByEmail(u.Email), b, c.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// GetByID returns (nil, nil) on a miss.
func (c *UserCache) GetByID(ctx context.Context, id int64) (*account.User, error) {
	return c.get(ctx, c.keyByID(id))
}

// GetByEmail returns (nil, nil) on a miss.
func (c *UserCache) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	return c.get(ctx, c.keyByEmail(email))
}

func (c *UserCache) get(ctx context.Context, key string) (*account.User, error) {
	v, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u account.User
	if err := json.Unmarshal(v, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Invalidate removes cached entries for the user.
func (c *UserCache) Invalidate(ctx context.Context, u *account.User) error {
	keys := []string{c.keyByID(u.ID)}
	if u.Email != "" {
		keys = append(keys, c.keyByEmail(u.Email))
	}
	return c.client.Del(ctx, keys...).Err()
}
