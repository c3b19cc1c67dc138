package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

// Storage is the minimal key/value contract the service needs: webhook replay
// guarding and short-lived gate decision caching. Values are JSON-encoded.
type Storage interface {
	Get(ctx context.Context, key string, val any) error
	Set(ctx context.Context, key string, val any, expiresIn time.Duration) error
	// SetNX stores val only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, val any, expiresIn time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}
