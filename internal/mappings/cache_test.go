package mappings

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

type stubSource struct {
	accounts map[string]int64
	lookups  int
}

func (s *stubSource) Lookup(ctx context.Context, tn tenant.Tenant, module, key string) (int64, error) {
	s.lookups++
	if id, ok := s.accounts[normalize(module)+":"+normalize(key)]; ok {
		return id, nil
	}
	return 0, ErrNotFound
}

func newTestCache(t *testing.T, inner Source) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(inner, client, time.Minute, nil)
}

func TestCacheLookupReadThrough(t *testing.T) {
	src := &stubSource{accounts: map[string]int64{"AP:EXPENSE": 6000}}
	cache := newTestCache(t, src)
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)
	ctx := context.Background()

	id, err := cache.Lookup(ctx, tn, "ap", "expense")
	require.NoError(t, err)
	require.Equal(t, int64(6000), id)
	require.Equal(t, 1, src.lookups)

	id, err = cache.Lookup(ctx, tn, "AP", "EXPENSE")
	require.NoError(t, err)
	require.Equal(t, int64(6000), id)
	require.Equal(t, 1, src.lookups)
}

func TestCacheLookupMissIsNotCached(t *testing.T) {
	src := &stubSource{accounts: map[string]int64{}}
	cache := newTestCache(t, src)
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cache.Lookup(ctx, tn, "AP", "EXPENSE")
	require.ErrorIs(t, err, ErrNotFound)

	src.accounts["AP:EXPENSE"] = 6000
	id, err := cache.Lookup(ctx, tn, "AP", "EXPENSE")
	require.NoError(t, err)
	require.Equal(t, int64(6000), id)
}

func TestCacheInvalidateForcesFreshLookup(t *testing.T) {
	src := &stubSource{accounts: map[string]int64{"AP:EXPENSE": 6000}}
	cache := newTestCache(t, src)
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cache.Lookup(ctx, tn, "AP", "EXPENSE")
	require.NoError(t, err)

	src.accounts["AP:EXPENSE"] = 6500
	cache.Invalidate(ctx, tn, "AP", "EXPENSE")

	id, err := cache.Lookup(ctx, tn, "AP", "EXPENSE")
	require.NoError(t, err)
	require.Equal(t, int64(6500), id)
	require.Equal(t, 2, src.lookups)
}

func TestCacheWithoutClientDelegates(t *testing.T) {
	src := &stubSource{accounts: map[string]int64{"AP:CASH": 1000}}
	cache := NewCache(src, nil, time.Minute, nil)
	tn, err := tenant.Parse("acme")
	require.NoError(t, err)

	id, err := cache.Lookup(context.Background(), tn, "AP", "CASH")
	require.NoError(t, err)
	require.Equal(t, int64(1000), id)
}
