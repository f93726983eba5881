package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/redis/go-redis/v9"
)

const (
	balanceKeyPrefix = "payoff:balance:"
	balanceIndexKey  = "payoff:balances"
	cacheKeyPrefix   = "payoff:cache:"
)

// RedisOptions configures the redis client shared by the repository and cache.
type RedisOptions struct {
	Address     string
	Password    string
	DB          int
	DialTimeout time.Duration
	MaxRetries  int
}

// NewRedisClient creates a redis client from opts.
func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        opts.Address,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		MaxRetries:  opts.MaxRetries,
	})
}

// BalanceKey returns the redis key holding the snapshot of a balance.
func BalanceKey(id string) string {
	return balanceKeyPrefix + id
}

// RedisRepository stores JSON-encoded balance snapshots in redis, with the
// known ids kept in an index set.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a repository on top of client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// Load returns the balance stored under id.
func (r *RedisRepository) Load(ctx context.Context, id string) (debt.Balance, error) {
	data, err := r.client.Get(ctx, BalanceKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return debt.Balance{}, &NotFoundError{IDs: []string{id}}
	}
	if err != nil {
		return debt.Balance{}, fmt.Errorf("failed to load balance %s: %w", id, err)
	}
	return decodeBalance(id, data)
}

// LoadMany returns the balances stored under ids, in the order given.
func (r *RedisRepository) LoadMany(ctx context.Context, ids []string) ([]debt.Balance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BalanceKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}

	balances := make([]debt.Balance, 0, len(ids))
	var missing []string
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		b, err := decodeBalance(ids[i], []byte(raw))
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	if len(missing) > 0 {
		return nil, &NotFoundError{IDs: missing}
	}
	return balances, nil
}

// Save stores balance and records its id in the index set atomically.
func (r *RedisRepository) Save(ctx context.Context, balance debt.Balance) error {
	if balance.ID == "" {
		return &debt.InvalidPaymentError{Reason: "balance id is required"}
	}
	if err := balance.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("failed to encode balance %s: %w", balance.ID, err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, BalanceKey(balance.ID), data, 0)
		pipe.SAdd(ctx, balanceIndexKey, balance.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save balance %s: %w", balance.ID, err)
	}
	return nil
}

// List returns every indexed balance ordered by id. Ids whose snapshot has
// disappeared are skipped.
func (r *RedisRepository) List(ctx context.Context) ([]debt.Balance, error) {
	ids, err := r.client.SMembers(ctx, balanceIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	sort.Strings(ids)

	balances, err := r.LoadMany(ctx, ids)
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		present := make([]string, 0, len(ids))
		missing := make(map[string]bool, len(notFound.IDs))
		for _, id := range notFound.IDs {
			missing[id] = true
		}
		for _, id := range ids {
			if !missing[id] {
				present = append(present, id)
			}
		}
		return r.LoadMany(ctx, present)
	}
	return balances, err
}

func decodeBalance(id string, data []byte) (debt.Balance, error) {
	var b debt.Balance
	if err := json.Unmarshal(data, &b); err != nil {
		return debt.Balance{}, fmt.Errorf("failed to decode balance %s: %w", id, err)
	}
	return b, nil
}

// RedisCache is a Cache backed by redis string keys.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a cache on top of client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the value stored under key. Lookup failures count as misses.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores value under key. A non-positive ttl never expires.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, cacheKeyPrefix+key, value, ttl).Err()
}
