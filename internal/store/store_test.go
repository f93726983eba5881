package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/debt"
	"github.com/shopspring/decimal"
)

func balance(id, principal string) debt.Balance {
	return debt.Balance{
		ID:                        id,
		PrincipalRemaining:        decimal.RequireFromString(principal),
		AnnualInterestRatePercent: decimal.NewFromInt(12),
		MinimumPayment:            decimal.NewFromInt(25),
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(balance("b", "200"))

	if err := repo.Save(ctx, balance("a", "100")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := repo.Load(ctx, "a")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !loaded.PrincipalRemaining.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Load() principal = %s, expected 100", loaded.PrincipalRemaining)
	}

	many, err := repo.LoadMany(ctx, []string{"b", "a"})
	if err != nil {
		t.Fatalf("LoadMany() error = %v", err)
	}
	if many[0].ID != "b" || many[1].ID != "a" {
		t.Errorf("LoadMany() order = %s, %s, expected b, a", many[0].ID, many[1].ID)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Errorf("List() = %v, expected a then b", all)
	}
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(balance("a", "100"))

	if _, err := repo.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, expected ErrNotFound", err)
	}

	_, err := repo.LoadMany(ctx, []string{"a", "x", "y"})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("LoadMany() error = %v, expected *NotFoundError", err)
	}
	if !reflect.DeepEqual(notFound.IDs, []string{"x", "y"}) {
		t.Errorf("missing ids = %v, expected [x y]", notFound.IDs)
	}
}

func TestMemoryRepositorySaveValidates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if err := repo.Save(ctx, debt.Balance{}); !errors.Is(err, debt.ErrInvalidPayment) {
		t.Errorf("Save() without id error = %v, expected ErrInvalidPayment", err)
	}
	if err := repo.Save(ctx, balance("neg", "-1")); !errors.Is(err, debt.ErrInvalidPayment) {
		t.Errorf("Save() negative principal error = %v, expected ErrInvalidPayment", err)
	}
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	rank := 1
	original := balance("a", "100")
	original.PriorityRank = &rank
	repo := NewMemoryRepository(original)

	rank = 5
	loaded, err := repo.Load(ctx, "a")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded.PriorityRank != 1 {
		t.Errorf("stored rank changed through caller pointer: %d", *loaded.PriorityRank)
	}
	*loaded.PriorityRank = 9
	again, _ := repo.Load(ctx, "a")
	if *again.PriorityRank != 1 {
		t.Errorf("stored rank changed through loaded copy: %d", *again.PriorityRank)
	}
}

func TestMemoryRepositoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			_ = repo.Save(ctx, balance(id, "10"))
			_, _ = repo.Load(ctx, id)
			_, _ = repo.List(ctx)
		}(i)
	}
	wg.Wait()

	all, _ := repo.List(ctx)
	if len(all) != 20 {
		t.Errorf("List() returned %d balances, expected 20", len(all))
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if _, ok := cache.Get(ctx, "missing"); ok {
		t.Error("Get() on empty cache reported a hit")
	}

	if err := cache.Set(ctx, "short", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cache.Set(ctx, "forever", []byte("kept"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if got, ok := cache.Get(ctx, "short"); !ok || string(got) != "value" {
		t.Errorf("Get() = %q, %v, expected value, true", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get(ctx, "short"); ok {
		t.Error("Get() returned an expired entry")
	}
	if got, ok := cache.Get(ctx, "forever"); !ok || string(got) != "kept" {
		t.Errorf("Get() = %q, %v, expected kept, true", got, ok)
	}
}

func TestCacheKey(t *testing.T) {
	first := CacheKey("plan", "avalanche", "100.00")
	if len(first) != 16 {
		t.Errorf("CacheKey() length = %d, expected 16", len(first))
	}
	if first != CacheKey("plan", "avalanche", "100.00") {
		t.Error("CacheKey() is not stable")
	}
	if first == CacheKey("plan", "avalanche1", "00.00") {
		t.Error("CacheKey() must separate parts")
	}
	if first == CacheKey("plan", "snowball", "100.00") {
		t.Error("CacheKey() collided for different inputs")
	}
}

func TestBalanceKey(t *testing.T) {
	if got := BalanceKey("card"); got != "payoff:balance:card" {
		t.Errorf("BalanceKey() = %q", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	backend, err := Open(ctx, Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if backend.Name != "memory" {
		t.Errorf("default backend = %s, expected memory", backend.Name)
	}
	if err := backend.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if _, err := Open(ctx, Options{Backend: "etcd"}); err == nil {
		t.Error("Open() expected error for unsupported backend")
	}
}

func TestOpenRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Open(ctx, Options{
		Backend: "redis",
		Redis:   RedisOptions{Address: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1},
	})
	if err == nil {
		t.Fatal("Open() expected error for unreachable redis")
	}
}
