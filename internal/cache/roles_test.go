package cache

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestGetUserByAuthHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRoleCacheWithClient(db, "users:auth")

	key := base64.StdEncoding.EncodeToString([]byte("admin@example.com:deadbeef"))
	mock.ExpectHGet("users:auth", key).SetVal("42:admin")

	userID, role, err := c.GetUserByAuth(context.Background(), "admin@example.com", "deadbeef")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, "admin", role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByAuthMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRoleCacheWithClient(db, "users:auth")

	key := base64.StdEncoding.EncodeToString([]byte("nobody@example.com:cafe"))
	mock.ExpectHGet("users:auth", key).RedisNil()

	_, _, err := c.GetUserByAuth(context.Background(), "nobody@example.com", "cafe")
	assert.Error(t, err)
}

func TestGetUserByAuthMalformedEntry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRoleCacheWithClient(db, "users:auth")

	key := base64.StdEncoding.EncodeToString([]byte("admin@example.com:deadbeef"))
	mock.ExpectHGet("users:auth", key).SetVal("not-an-entry")

	_, _, err := c.GetUserByAuth(context.Background(), "admin@example.com", "deadbeef")
	assert.Error(t, err)
}

func TestSetUserAuth(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRoleCacheWithClient(db, "users:auth")

	key := base64.StdEncoding.EncodeToString([]byte("admin@example.com:deadbeef"))
	mock.ExpectHSet("users:auth", key, "42:admin").SetVal(1)

	err := c.SetUserAuth(context.Background(), "admin@example.com", "deadbeef", 42, "admin")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
