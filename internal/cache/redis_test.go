package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) (*RedisProvider, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	provider, err := NewRedisProvider(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })
	return provider, mr
}

func TestRedisProviderRoundTrip(t *testing.T) {
	provider, mr := newTestProvider(t)
	ctx := context.Background()

	_, err := provider.Get(ctx, "atlas:artifact:missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, provider.Set(ctx, "atlas:artifact:cases", []byte("payload"), time.Minute))
	got, err := provider.Get(ctx, "atlas:artifact:cases")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	mr.FastForward(2 * time.Minute)
	_, err = provider.Get(ctx, "atlas:artifact:cases")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisProviderDelAndPersistentSet(t *testing.T) {
	provider, mr := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.Set(ctx, "atlas:artifact:geometry", []byte("{}"), 0))
	assert.Equal(t, time.Duration(0), mr.TTL("atlas:artifact:geometry"))

	require.NoError(t, provider.Del(ctx, "atlas:artifact:geometry"))
	_, err := provider.Get(ctx, "atlas:artifact:geometry")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNewRedisProviderRequiresAddr(t *testing.T) {
	_, err := NewRedisProvider(RedisConfig{})
	assert.Error(t, err)
}

func TestNewRedisProviderFailsFastWhenUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisProvider(RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestNoopProvider(t *testing.T) {
	var p Provider = NoopProvider{}
	_, err := p.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, p.Set(context.Background(), "k", []byte("v"), time.Minute))
	assert.NoError(t, p.Del(context.Background(), "k"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "atlas:artifact:abc", Key("atlas", "artifact", "abc"))
	assert.Equal(t, "artifact", Key("", "artifact"))
}
