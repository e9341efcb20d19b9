package store

import (
	"context"
	"errors"
)

// Keys written by the session context. They match the names the browser
// front-end keeps in localStorage so both clients can share a Redis store.
const (
	KeyAccessToken     = "accessToken"
	KeyRefreshToken    = "refreshToken"
	KeyCurrentUserID   = "currentUserId"
	KeyCurrentUserName = "currentUserName"
)

// SessionKeys lists every key owned by the session context.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyCurrentUserID, KeyCurrentUserName}

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("store closed")

// Store is durable client storage: a flat string key/value map.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
