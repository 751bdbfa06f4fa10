package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr         string
	Password     string
	UsersHashKey string
}

// RoleCache keeps credential -> (user id, role) entries in a Redis hash so
// the auth middleware can skip the users table on the hot path.
type RoleCache struct {
	client       *redis.Client
	usersHashKey string
}

func NewRoleCache(cfg Config) (*RoleCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RoleCache{
		client:       rdb,
		usersHashKey: cfg.UsersHashKey,
	}, nil
}

// NewRoleCacheWithClient wires an existing client, used by tests.
func NewRoleCacheWithClient(client *redis.Client, usersHashKey string) *RoleCache {
	return &RoleCache{client: client, usersHashKey: usersHashKey}
}

// GetUserByAuth looks up the cached (user id, role) pair for a credential.
func (c *RoleCache) GetUserByAuth(ctx context.Context, email, passwordHash string) (int64, string, error) {
	entry, err := c.client.HGet(ctx, c.usersHashKey, authKey(email, passwordHash)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, "", fmt.Errorf("user not found in cache")
		}
		return 0, "", fmt.Errorf("cache lookup error: %w", err)
	}

	idStr, role, ok := strings.Cut(entry, ":")
	if !ok {
		return 0, "", fmt.Errorf("malformed cache entry")
	}

	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid user ID in cache: %w", err)
	}

	return userID, role, nil
}

// SetUserAuth stores a credential entry after a successful DB lookup.
func (c *RoleCache) SetUserAuth(ctx context.Context, email, passwordHash string, userID int64, role string) error {
	entry := fmt.Sprintf("%d:%s", userID, role)
	return c.client.HSet(ctx, c.usersHashKey, authKey(email, passwordHash), entry).Err()
}

func (c *RoleCache) Close() error {
	return c.client.Close()
}

func authKey(email, passwordHash string) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + passwordHash))
}
