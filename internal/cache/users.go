package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/cadastro/internal/domain"
)

const (
	// UsersKey holds the JSON encoded user listing.
	UsersKey = "cadastro:users:list"

	// GenerationKey is bumped on every invalidation. A listing is only
	// stored if the generation it was read under is still current.
	GenerationKey = "cadastro:users:gen"
)

// UserListCache caches the full GET /users response in Redis.
type UserListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUserListCache creates a Redis-backed listing cache.
func NewUserListCache(client *redis.Client, ttl time.Duration) *UserListCache {
	return &UserListCache{
		client: client,
		ttl:    ttl,
	}
}

// GetUsers returns the cached listing. ok is false on a miss.
func (c *UserListCache) GetUsers(ctx context.Context) ([]domain.User, bool, error) {
	data, err := c.client.Get(ctx, UsersKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get users: %w", err)
	}

	var users []domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, false, fmt.Errorf("unmarshal users: %w", err)
	}
	return users, true, nil
}

// Generation returns the current invalidation generation. Callers read it
// before querying the database and hand it back to SetUsers.
func (c *UserListCache) Generation(ctx context.Context) (int64, error) {
	gen, err := readGeneration(ctx, c.client)
	if err != nil {
		return 0, fmt.Errorf("redis get users generation: %w", err)
	}
	return gen, nil
}

// SetUsers stores the listing with the configured TTL unless the cache was
// invalidated after gen was read. A skipped write is not an error.
func (c *UserListCache) SetUsers(ctx context.Context, gen int64, users []domain.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, UsersKey, data, c.ttl)
			return nil
		})
		return err
	}, GenerationKey)

	switch {
	case err == nil, errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("redis set users: %w", err)
	}
}

// Invalidate drops the cached listing and bumps the generation so that
// listings read before the call are never stored.
func (c *UserListCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, UsersKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate users: %w", err)
	}
	return nil
}

var errStale = errors.New("users listing is stale")

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, c getter) (int64, error) {
	gen, err := c.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}
