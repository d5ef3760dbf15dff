// Package store provides the expiring key-value persistence used for tree
// caches, expand state and layout preferences.
//
// KeyStore is the injected capability; Memory and SQLite are the two shipped
// adapters. Project scopes keys to one documentation deployment and stamps
// every write with the configured time-to-live.
package store

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long a written entry stays readable.
const DefaultTTL = 30 * 24 * time.Hour

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
	// ErrDecode is returned when a stored value does not decode into the
	// requested shape.
	ErrDecode = errors.New("store: stored value has unexpected shape")
)

// Entry is one key/value pair for batch writes. A zero ExpiresAt never
// expires.
type Entry struct {
	Key       string
	Value     []byte
	ExpiresAt time.Time
}

// KeyStore is a flat key/value store with per-entry expiry. Expired entries
// read as absent.
type KeyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error
	// SetBatch writes all entries or none of them.
	SetBatch(ctx context.Context, entries []Entry) error
	Delete(ctx context.Context, key string) error
	// PurgeExpired removes entries whose expiry is at or before now and
	// reports how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}

func expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
