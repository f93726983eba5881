// Package store persists balance snapshots and caches computed results.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/payoff-planner/pkg/debt"
)

// ErrNotFound is returned when a balance id is not stored.
var ErrNotFound = errors.New("balance not found")

// NotFoundError names the missing balance ids.
type NotFoundError struct {
	IDs []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %v", ErrNotFound, e.IDs)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// BalanceRepository loads and saves balance snapshots by id.
type BalanceRepository interface {
	Load(ctx context.Context, id string) (debt.Balance, error)
	LoadMany(ctx context.Context, ids []string) ([]debt.Balance, error)
	Save(ctx context.Context, balance debt.Balance) error
	List(ctx context.Context) ([]debt.Balance, error)
}

// Cache stores opaque computed results under a key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CacheKey hashes the parts of a request fingerprint into a fixed-width key.
func CacheKey(parts ...string) string {
	h := xxhash.New()
	for _, part := range parts {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
