package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/iwvelando/payoff-planner/pkg/constants"
)

// Options selects and configures a storage backend.
type Options struct {
	Backend string
	Redis   RedisOptions
}

// Backend bundles a balance repository with a result cache sharing the same
// connection.
type Backend struct {
	Name       string
	Repository BalanceRepository
	Cache      Cache
	closeFn    func() error
}

// Close releases the backend's connection, if any.
func (b *Backend) Close() error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// Open creates the backend named in opts. The redis backend is pinged so
// connection problems surface at startup.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", constants.StoreBackendMemory:
		return &Backend{
			Name:       constants.StoreBackendMemory,
			Repository: NewMemoryRepository(),
			Cache:      NewMemoryCache(),
		}, nil
	case constants.StoreBackendRedis:
		if opts.Redis.Address == "" {
			opts.Redis.Address = constants.DefaultRedisAddress
		}
		client := NewRedisClient(opts.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Redis.Address, err)
		}
		return &Backend{
			Name:       constants.StoreBackendRedis,
			Repository: NewRedisRepository(client),
			Cache:      NewRedisCache(client),
			closeFn:    client.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", opts.Backend)
	}
}
