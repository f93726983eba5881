package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/debt"
)

// MemoryRepository is an in-memory implementation of BalanceRepository. It
// stores and returns copies so callers never share snapshots.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]debt.Balance
}

// NewMemoryRepository creates a new in-memory balance repository.
func NewMemoryRepository(balances ...debt.Balance) *MemoryRepository {
	r := &MemoryRepository{data: make(map[string]debt.Balance, len(balances))}
	for _, b := range balances {
		r.data[b.ID] = b.WithPrincipal(b.PrincipalRemaining)
	}
	return r
}

// Load returns the balance stored under id.
func (r *MemoryRepository) Load(_ context.Context, id string) (debt.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.data[id]
	if !ok {
		return debt.Balance{}, &NotFoundError{IDs: []string{id}}
	}
	return b.WithPrincipal(b.PrincipalRemaining), nil
}

// LoadMany returns the balances stored under ids, in the order given.
func (r *MemoryRepository) LoadMany(_ context.Context, ids []string) ([]debt.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	balances := make([]debt.Balance, 0, len(ids))
	var missing []string
	for _, id := range ids {
		b, ok := r.data[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		balances = append(balances, b.WithPrincipal(b.PrincipalRemaining))
	}
	if len(missing) > 0 {
		return nil, &NotFoundError{IDs: missing}
	}
	return balances, nil
}

// Save stores a copy of balance, replacing any balance with the same id.
func (r *MemoryRepository) Save(_ context.Context, balance debt.Balance) error {
	if balance.ID == "" {
		return &debt.InvalidPaymentError{Reason: "balance id is required"}
	}
	if err := balance.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[balance.ID] = balance.WithPrincipal(balance.PrincipalRemaining)
	return nil
}

// List returns every stored balance ordered by id.
func (r *MemoryRepository) List(_ context.Context) ([]debt.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	balances := make([]debt.Balance, 0, len(r.data))
	for _, b := range r.data {
		balances = append(balances, b.WithPrincipal(b.PrincipalRemaining))
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].ID < balances[j].ID
	})
	return balances, nil
}

type cacheEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-memory Cache with per-entry expiry.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
	now  func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]cacheEntry), now: time.Now}
}

// Get returns the value stored under key unless it has expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		delete(c.data, key)
		return nil, false
	}
	return append([]byte(nil), entry.value...), true
}

// Set stores value under key. A non-positive ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expires = c.now().Add(ttl)
	}
	c.data[key] = entry
	return nil
}
