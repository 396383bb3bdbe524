package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStore_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	kv := NewKVStore(client)
	ctx := context.Background()

	_, err := kv.Get(ctx, "sangha:stats:dashboard")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, kv.Set(ctx, "sangha:stats:dashboard", `{"revision":1}`, time.Minute))
	got, err := kv.Get(ctx, "sangha:stats:dashboard")
	require.NoError(t, err)
	assert.Equal(t, `{"revision":1}`, got)

	mr.FastForward(2 * time.Minute)
	_, err = kv.Get(ctx, "sangha:stats:dashboard")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestKVStore_NoTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	kv := NewKVStore(client)
	require.NoError(t, kv.Set(context.Background(), "k", "v", 0))

	assert.Zero(t, mr.TTL("k"))
	got, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestKVStore_ConnectionError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewKVStore(client).Get(context.Background(), "k")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
